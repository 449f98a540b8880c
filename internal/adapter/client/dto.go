package client

import (
	"encoding/json"
	"strconv"

	"github.com/AnkitRegmi1/TruSwap/internal/domain/entity"
)

// backendItem mirrors the wire shape of a listing. The backend has grown a
// few spellings of the identifier over time; the coalescing order below is
// load-bearing and matches what the rest of the system expects.
type backendItem struct {
	ID          json.Number `json:"id"`
	ListingID   json.Number `json:"listingId"`
	ItemID      json.Number `json:"itemId"`
	ItemName    string      `json:"itemName"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Category    string      `json:"category"`
	Price       float64     `json:"price"`
	Condition   string      `json:"condition"`
	ImageURL    string      `json:"imageUrl"`
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	UserID      string      `json:"userId"`
	GroupID     string      `json:"groupId"`
	ListingType string      `json:"listingType"`
	DatePosted  string      `json:"datePosted"`
	IsSold      bool        `json:"isSold"`
}

func (b backendItem) toEntity() entity.Listing {
	id := coalesceID(b.ID, b.ListingID, b.ItemID)

	title := b.ItemName
	if title == "" {
		title = b.Title
	}

	listingType := entity.ListingType(b.ListingType)
	if listingType == "" {
		listingType = entity.ListingTypeSell
	}

	return entity.Listing{
		ID:          id,
		Title:       title,
		Description: b.Description,
		Category:    b.Category,
		Price:       b.Price,
		Condition:   b.Condition,
		ImageURL:    b.ImageURL,
		SellerName:  b.Name,
		SellerEmail: b.Email,
		SellerID:    b.UserID,
		GroupID:     b.GroupID,
		ListingType: listingType,
		DatePosted:  b.DatePosted,
		IsSold:      b.IsSold,
	}
}

func coalesceID(ids ...json.Number) string {
	for _, id := range ids {
		if s := id.String(); s != "" {
			return s
		}
	}
	return ""
}

type createListingRequest struct {
	ItemName    string  `json:"itemName"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	Condition   string  `json:"condition"`
	ImageURL    string  `json:"imageUrl"`
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	GroupID     string  `json:"groupId,omitempty"`
	ListingType string  `json:"listingType"`
}

type createPaymentRequest struct {
	ListingID   string  `json:"listingId"`
	Price       float64 `json:"price"`
	ItemName    string  `json:"itemName"`
	BuyerEmail  string  `json:"buyerEmail"`
	BuyerName   string  `json:"buyerName"`
	BuyerUserID string  `json:"buyerUserId"`
	SuccessURL  string  `json:"successUrl"`
	CancelURL   string  `json:"cancelUrl"`
}

type createPaymentResponse struct {
	PaymentID   string `json:"paymentId"`
	ApprovalURL string `json:"approvalUrl"`
}

type executePaymentRequest struct {
	PaymentID   string `json:"paymentId"`
	PayerID     string `json:"payerId"`
	ListingID   string `json:"listingId"`
	BuyerUserID string `json:"buyerUserId"`
}

// ExecuteResult is the settlement outcome as the backend reports it.
type ExecuteResult struct {
	Status           string `json:"status"`
	Message          string `json:"message"`
	AlreadyProcessed bool   `json:"alreadyProcessed"`
}

type backendOrder struct {
	ID           string      `json:"id"`
	ListingID    json.Number `json:"listingId"`
	ItemName     string      `json:"itemName"`
	ItemImageURL string      `json:"itemImageUrl"`
	Price        float64     `json:"price"`
	BuyerEmail   string      `json:"buyerEmail"`
	BuyerName    string      `json:"buyerName"`
	BuyerUserID  string      `json:"buyerUserId"`
	SellerEmail  string      `json:"sellerEmail"`
	SellerName   string      `json:"sellerName"`
	Status       string      `json:"status"`
	PurchaseDate string      `json:"purchaseDate"`
}

func (b backendOrder) toEntity() entity.Order {
	return entity.Order{
		ID:           b.ID,
		ListingID:    b.ListingID.String(),
		ItemName:     b.ItemName,
		ItemImageURL: b.ItemImageURL,
		Price:        b.Price,
		BuyerEmail:   b.BuyerEmail,
		BuyerName:    b.BuyerName,
		BuyerUserID:  b.BuyerUserID,
		SellerEmail:  b.SellerEmail,
		SellerName:   b.SellerName,
		Status:       entity.OrderStatus(b.Status),
		PurchaseDate: b.PurchaseDate,
	}
}

type backendGroup struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	CreatedBy    string `json:"createdBy"`
	CreatorName  string `json:"creatorName"`
	CreatorEmail string `json:"creatorEmail"`
	CreatedAt    string `json:"createdAt"`
}

func (b backendGroup) toEntity() entity.Group {
	return entity.Group{
		ID:           b.ID,
		Name:         b.Name,
		Description:  b.Description,
		CreatedBy:    b.CreatedBy,
		CreatorName:  b.CreatorName,
		CreatorEmail: b.CreatorEmail,
		CreatedAt:    b.CreatedAt,
	}
}

type createGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// errorBody is the assortment of message fields backend errors arrive in.
type errorBody struct {
	Message      string `json:"message"`
	Err          string `json:"error"`
	ErrorMessage string `json:"errorMessage"`
}

func (e errorBody) pick(status int) string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Err != "":
		return e.Err
	case e.ErrorMessage != "":
		return e.ErrorMessage
	default:
		return "Server error (" + strconv.Itoa(status) + ")"
	}
}

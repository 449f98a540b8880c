package entity

type OrderStatus string

const (
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCancelled OrderStatus = "cancelled"
)

type Order struct {
	ID           string
	ListingID    string
	ItemName     string
	ItemImageURL string
	Price        float64
	BuyerEmail   string
	BuyerName    string
	BuyerUserID  string
	SellerEmail  string
	SellerName   string
	Status       OrderStatus
	PurchaseDate string
}

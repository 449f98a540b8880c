package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/AnkitRegmi1/TruSwap/internal/domain/entity"
	"github.com/AnkitRegmi1/TruSwap/internal/platform/logger"
)

// Client talks to the marketplace REST API. All failures come back as
// *APIError so callers can branch on status and the already-settled
// condition without string matching of their own.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        logger.Logger
}

func NewClient(baseURL string, timeout time.Duration, log logger.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

func (c *Client) FetchListings(ctx context.Context) ([]entity.Listing, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/listings", "", nil, &raw); err != nil {
		return nil, err
	}
	return decodeListings(raw)
}

func (c *Client) FetchListingByID(ctx context.Context, id string) (entity.Listing, error) {
	var item backendItem
	if err := c.do(ctx, http.MethodGet, "/listings/"+id, "", nil, &item); err != nil {
		return entity.Listing{}, err
	}
	return item.toEntity(), nil
}

func (c *Client) CreateListing(ctx context.Context, l entity.Listing, token string) error {
	req := createListingRequest{
		ItemName:    l.Title,
		Description: l.Description,
		Category:    l.Category,
		Price:       l.Price,
		Condition:   l.Condition,
		ImageURL:    l.ImageURL,
		Name:        l.SellerName,
		Email:       l.SellerEmail,
		GroupID:     l.GroupID,
		ListingType: string(l.ListingType),
	}
	if req.ListingType == "" {
		req.ListingType = string(entity.ListingTypeSell)
	}
	return c.do(ctx, http.MethodPost, "/createListing", token, req, nil)
}

func (c *Client) FetchMyListings(ctx context.Context, token string) ([]entity.Listing, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/my-listings", token, nil, &raw); err != nil {
		return nil, err
	}
	return decodeListings(raw)
}

// CreatePayment opens a provider checkout session for one listing and
// returns the approval URL the buyer must be navigated to.
func (c *Client) CreatePayment(ctx context.Context, listingID string, price float64, itemName, token, buyerEmail, buyerName, buyerUserID, successURL, cancelURL string) (string, error) {
	req := createPaymentRequest{
		ListingID:   listingID,
		Price:       price,
		ItemName:    itemName,
		BuyerEmail:  buyerEmail,
		BuyerName:   buyerName,
		BuyerUserID: buyerUserID,
		SuccessURL:  successURL,
		CancelURL:   cancelURL,
	}
	var resp createPaymentResponse
	if err := c.do(ctx, http.MethodPost, "/payments/create-payment", token, req, &resp); err != nil {
		return "", err
	}
	return resp.ApprovalURL, nil
}

// ExecutePayment settles an approved payment session. The backend reports
// duplicate settlement attempts as errors; IsAlreadySettled distinguishes
// those from genuine failures.
func (c *Client) ExecutePayment(ctx context.Context, paymentID, payerID, listingID, buyerUserID string) (ExecuteResult, error) {
	req := executePaymentRequest{
		PaymentID:   paymentID,
		PayerID:     payerID,
		ListingID:   listingID,
		BuyerUserID: buyerUserID,
	}
	var resp ExecuteResult
	if err := c.do(ctx, http.MethodPost, "/payments/execute", "", req, &resp); err != nil {
		return ExecuteResult{}, err
	}
	return resp, nil
}

func (c *Client) FetchOrders(ctx context.Context, token string) ([]entity.Order, error) {
	var raw []backendOrder
	if err := c.do(ctx, http.MethodGet, "/orders", token, nil, &raw); err != nil {
		return nil, err
	}
	orders := make([]entity.Order, 0, len(raw))
	for _, o := range raw {
		orders = append(orders, o.toEntity())
	}
	return orders, nil
}

func (c *Client) FetchSoldItems(ctx context.Context, token string) ([]entity.Order, error) {
	var raw []backendOrder
	if err := c.do(ctx, http.MethodGet, "/orders/sold", token, nil, &raw); err != nil {
		return nil, err
	}
	orders := make([]entity.Order, 0, len(raw))
	for _, o := range raw {
		orders = append(orders, o.toEntity())
	}
	return orders, nil
}

func (c *Client) FetchGroups(ctx context.Context) ([]entity.Group, error) {
	var raw []backendGroup
	if err := c.do(ctx, http.MethodGet, "/groups", "", nil, &raw); err != nil {
		return nil, err
	}
	groups := make([]entity.Group, 0, len(raw))
	for _, g := range raw {
		groups = append(groups, g.toEntity())
	}
	return groups, nil
}

func (c *Client) FetchGroupByID(ctx context.Context, id string) (entity.Group, error) {
	var raw backendGroup
	if err := c.do(ctx, http.MethodGet, "/groups/"+id, "", nil, &raw); err != nil {
		return entity.Group{}, err
	}
	return raw.toEntity(), nil
}

func (c *Client) FetchMyGroups(ctx context.Context, token string) ([]entity.Group, error) {
	var raw []backendGroup
	if err := c.do(ctx, http.MethodGet, "/groups/my-groups", token, nil, &raw); err != nil {
		return nil, err
	}
	groups := make([]entity.Group, 0, len(raw))
	for _, g := range raw {
		groups = append(groups, g.toEntity())
	}
	return groups, nil
}

func (c *Client) CreateGroup(ctx context.Context, name, description, token string) (entity.Group, error) {
	req := createGroupRequest{Name: name, Description: description}
	var raw backendGroup
	if err := c.do(ctx, http.MethodPost, "/groups", token, req, &raw); err != nil {
		return entity.Group{}, err
	}
	return raw.toEntity(), nil
}

// do performs one API round trip. A non-2xx response or a decode problem is
// normalized into *APIError; transport failures get Status 0.
func (c *Client) do(ctx context.Context, method, path, token string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &APIError{Message: fmt.Sprintf("failed to encode request for %s: %v", path, err)}
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return &APIError{Message: fmt.Sprintf("failed to build request for %s: %v", path, err)}
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Errorf("API request %s %s failed: %v", method, path, err)
		return &APIError{Message: "No response from server. Is the backend running?"}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Message: fmt.Sprintf("failed to read response for %s: %v", path, err), Status: resp.StatusCode}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var eb errorBody
		_ = json.Unmarshal(data, &eb)
		apiErr := &APIError{
			Message: eb.pick(resp.StatusCode),
			Status:  resp.StatusCode,
			Details: json.RawMessage(data),
		}
		c.log.Errorf("API request %s %s rejected: status=%d message=%s", method, path, apiErr.Status, apiErr.Message)
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &APIError{
			Message: fmt.Sprintf("failed to decode response for %s: %v", path, err),
			Status:  resp.StatusCode,
			Details: json.RawMessage(data),
		}
	}
	return nil
}

// decodeListings accepts both the array and the single-object response
// shapes the backend has been known to produce.
func decodeListings(raw json.RawMessage) ([]entity.Listing, error) {
	var items []backendItem
	if err := json.Unmarshal(raw, &items); err == nil {
		listings := make([]entity.Listing, 0, len(items))
		for _, it := range items {
			listings = append(listings, it.toEntity())
		}
		return listings, nil
	}

	var single backendItem
	if err := json.Unmarshal(raw, &single); err != nil {
		return nil, &APIError{Message: fmt.Sprintf("unexpected listings payload: %v", err)}
	}
	return []entity.Listing{single.toEntity()}, nil
}

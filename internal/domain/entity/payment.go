package entity

// PaymentSessionState tracks a provider-hosted checkout from creation to
// settlement. A session is executed at most once; a repeated approval
// delivery lands in StateAlreadySettled, which is terminal and successful.
type PaymentSessionState string

const (
	StateIdle             PaymentSessionState = "idle"
	StateInitiating       PaymentSessionState = "initiating"
	StateAwaitingApproval PaymentSessionState = "awaiting_approval"
	StateExecuting        PaymentSessionState = "executing"
	StateSucceeded        PaymentSessionState = "succeeded"
	StateAlreadySettled   PaymentSessionState = "already_settled"
	StateFailed           PaymentSessionState = "failed"
)

// PaymentCallback is the provider's return redirect resolved into one of
// two shapes. NeedsExecution carries the payer identifier and must be
// executed; AlreadyExecuted means settlement happened upstream and only the
// confirmation remains.
type PaymentCallback struct {
	Shape       CallbackShape
	PaymentID   string
	PayerID     string
	ListingID   string
	BuyerUserID string
}

type CallbackShape int

const (
	CallbackNeedsExecution CallbackShape = iota
	CallbackAlreadyExecuted
)

// OrderResult is what the completion flow hands to the confirmation view.
type OrderResult struct {
	PaymentID      string
	ListingID      string
	State          PaymentSessionState
	Message        string
	AlreadySettled bool
}

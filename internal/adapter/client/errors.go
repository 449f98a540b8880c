package client

import (
	"encoding/json"
	"errors"
	"strings"
)

// APIError is the normalized failure shape for every marketplace API call.
// Status is the HTTP status when the server responded and 0 for
// transport-level failures (no response at all). Details carries the raw
// response body when one exists.
type APIError struct {
	Message string
	Status  int
	Details json.RawMessage
}

func (e *APIError) Error() string {
	return e.Message
}

// IsTransport reports whether the failure happened before the server could
// answer (DNS, refused connection, timeout).
func (e *APIError) IsTransport() bool {
	return e.Status == 0
}

// alreadyDoneCode is the backend's marker for a payment session that was
// settled earlier. Only this exact code counts: the backend also emits
// "Payment already executed but could not verify" on a 400, and that one
// is a genuine failure, so broader message matching would misclassify it.
// The structured alreadyProcessed field is preferred whenever present.
const alreadyDoneCode = "PAYMENT_ALREADY_DONE"

// IsAlreadySettled reports whether err represents the "payment already
// executed" condition, which completion flows treat as success.
func IsAlreadySettled(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}

	if len(apiErr.Details) > 0 {
		var body struct {
			AlreadyProcessed bool `json:"alreadyProcessed"`
		}
		if jsonErr := json.Unmarshal(apiErr.Details, &body); jsonErr == nil && body.AlreadyProcessed {
			return true
		}
	}

	return strings.Contains(apiErr.Message, alreadyDoneCode)
}

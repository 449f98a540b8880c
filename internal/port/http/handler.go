package http

import (
	"fmt"
	"html"
	"net/http"
	"net/url"

	"github.com/AnkitRegmi1/TruSwap/internal/platform/logger"
	"github.com/AnkitRegmi1/TruSwap/internal/service"
)

// Handler serves the callback routes the payment and identity providers
// redirect back to. These mirror the application routes registered with
// the providers, so the same URLs work unchanged.
type Handler struct {
	payments service.PaymentService
	recovery service.AuthRecoveryService
	log      logger.Logger
}

func NewHandler(payments service.PaymentService, recovery service.AuthRecoveryService, log logger.Logger) *Handler {
	return &Handler{
		payments: payments,
		recovery: recovery,
		log:      log,
	}
}

// HandlePaymentCheckout receives the provider's approval redirect, settles
// the payment, and forwards to the confirmation page. Reloading this URL
// re-delivers the same callback; settlement stays single-shot downstream.
func (h *Handler) HandlePaymentCheckout(w http.ResponseWriter, r *http.Request) {
	cb, err := h.payments.ResolveCallback(r.URL.Query())
	if err != nil {
		h.log.Warnf("Checkout callback without payment id: %v", err)
		h.renderPage(w, http.StatusBadRequest, "Payment callback invalid",
			"The payment provider's redirect is missing the payment identifier. If you were charged, check your order history.")
		return
	}

	result, err := h.payments.CompleteFromCallback(r.Context(), cb)
	if err != nil {
		h.log.Errorf("Payment completion failed for %s: %v", cb.PaymentID, err)
		h.renderPage(w, http.StatusBadGateway, "Payment failed",
			"The payment could not be completed. You have not been charged twice; you can retry from the listing page.")
		return
	}

	q := url.Values{}
	q.Set("paymentId", result.PaymentID)
	if result.ListingID != "" {
		q.Set("listingId", result.ListingID)
	}
	http.Redirect(w, r, "/payment-success?"+q.Encode(), http.StatusSeeOther)
}

func (h *Handler) HandlePaymentSuccess(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, http.StatusOK, "Payment successful",
		"Your purchase is confirmed. The listing is now marked as sold and the order appears in your order history.")
}

// HandlePaymentCancel is reached when the buyer backs out at the provider.
// Nothing was charged and no state changed.
func (h *Handler) HandlePaymentCancel(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, http.StatusOK, "Payment cancelled",
		"The payment was cancelled. The listing is still available.")
}

// HandleAuthError explains a failed login and offers recovery. The query
// carries the provider's error and error_description verbatim.
func (h *Handler) HandleAuthError(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	code := q.Get("error")
	description := q.Get("error_description")

	var body string
	switch h.recovery.Classify(code, description) {
	case service.CategoryCallbackMisconfigured:
		body = "The login callback URL is not registered with the identity provider. This is a deployment problem; signing in again will not help until the application settings are fixed."
	case service.CategoryAccessDenied:
		body = "Access was denied. TruSwap is restricted to campus accounts; make sure you signed in with your university email. Use the button below to clear the stuck session and try again."
	default:
		body = "Sign-in failed. Use the button below to clear the session and try again."
	}
	if description != "" {
		body += fmt.Sprintf("<br><br><small>%s</small>", html.EscapeString(description))
	}

	page := fmt.Sprintf(`<h1>Sign-in problem</h1><p>%s</p>
<form method="POST" action="/auth-error/recover"><button type="submit">Clear session and sign in again</button></form>`, body)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, pageShell, "Sign-in problem", page)
}

// HandleAuthRecover purges the provider session state and sends the
// browser to the provider logout endpoint.
func (h *Handler) HandleAuthRecover(w http.ResponseWriter, r *http.Request) {
	target, err := h.recovery.Recover(r.Context())
	if err != nil {
		h.log.Errorf("Auth recovery failed: %v", err)
		h.renderPage(w, http.StatusInternalServerError, "Recovery failed",
			"Could not clear the local session. Try again, or clear the application's stored data manually.")
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

const pageShell = `<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>%s</title></head>
<body style="font-family:sans-serif;max-width:40em;margin:4em auto">%s</body></html>
`

func (h *Handler) renderPage(w http.ResponseWriter, status int, title, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	body := fmt.Sprintf("<h1>%s</h1><p>%s</p>", html.EscapeString(title), message)
	fmt.Fprintf(w, pageShell, html.EscapeString(title), body)
}

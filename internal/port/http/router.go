package http

import (
	"net/http"
	"time"

	"github.com/AnkitRegmi1/TruSwap/internal/platform/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(h *Handler, metricsHandler http.Handler, log logger.Logger) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))
	r.Use(AuthErrorRedirect(log))

	r.Get("/health", h.HandleHealth)
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	r.Get("/paypal-checkout", h.HandlePaymentCheckout)
	r.Get("/payment-success", h.HandlePaymentSuccess)
	r.Get("/payment-cancel", h.HandlePaymentCancel)

	r.Get("/auth-error", h.HandleAuthError)
	r.Post("/auth-error/recover", h.HandleAuthRecover)

	return r
}

func requestLogger(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Debugf("%s %s -> %d (%s)", r.Method, r.URL.Path, ww.Status(), time.Since(start))
		})
	}
}

package http

import (
	"net/http"
	"strings"

	"github.com/AnkitRegmi1/TruSwap/internal/platform/logger"
)

const authErrorPath = "/auth-error"

// AuthErrorRedirect sends any request carrying a provider `error` query
// parameter to the auth-error page with the original query intact. The
// provider attaches these to whatever callback URL it was given, so every
// route has to be covered. Requests already on the auth-error page pass
// through untouched.
func AuthErrorRedirect(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, authErrorPath) {
				next.ServeHTTP(w, r)
				return
			}
			q := r.URL.Query()
			if q.Get("error") == "" {
				next.ServeHTTP(w, r)
				return
			}

			log.Warnf("Provider error on %s, redirecting to %s: %s", r.URL.Path, authErrorPath, q.Get("error"))
			// 303 so the errored URL does not stay reachable via back
			// navigation with a resubmittable method.
			http.Redirect(w, r, authErrorPath+"?"+r.URL.RawQuery, http.StatusSeeOther)
		})
	}
}

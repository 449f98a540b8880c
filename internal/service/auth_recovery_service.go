package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/AnkitRegmi1/TruSwap/internal/platform/logger"
	"github.com/AnkitRegmi1/TruSwap/internal/platform/metrics"
	"github.com/AnkitRegmi1/TruSwap/internal/repository"
)

type ErrorCategory int

const (
	// CategoryCallbackMisconfigured: the redirect URL itself is not
	// registered with the provider. A deployment defect; retrying cannot
	// succeed, the operator has to fix the application settings.
	CategoryCallbackMisconfigured ErrorCategory = iota
	// CategoryAccessDenied: the provider's authorization policy rejected
	// the identity (typically a non-campus email). Recoverable by clearing
	// the stuck session and signing in again.
	CategoryAccessDenied
	CategoryOther
)

func (c ErrorCategory) String() string {
	switch c {
	case CategoryCallbackMisconfigured:
		return "callback_misconfigured"
	case CategoryAccessDenied:
		return "access_denied"
	default:
		return "other"
	}
}

const (
	accessDeniedCode          = "access_denied"
	callbackMisconfigFragment = "Service not found"
)

// Auth0 key namespaces in the profile state. The SPA SDK caches tokens
// under @@auth0spa, older SDK versions under plain auth0 prefixes.
var auth0KeyPrefixes = []string{"@@auth0spa", "auth0"}

const auth0KeyFragment = "auth0"

// SessionAuthenticator is the minimal view of the identity SDK the
// recovery fallback needs when the provider config is absent.
type SessionAuthenticator interface {
	IsAuthenticated() bool
	// FederatedLogoutURL is the SDK-built logout endpoint with the
	// federated flag set and returnTo pointing at the app origin.
	FederatedLogoutURL(returnTo string) string
}

type AuthRecoveryService interface {
	Classify(errorCode, errorDescription string) ErrorCategory
	// Recover purges the provider's client-side session remnants and
	// returns the URL the caller must fully navigate to.
	Recover(ctx context.Context) (string, error)
}

type AuthRecoveryConfig struct {
	Domain   string
	ClientID string
	Origin   string
}

type authRecoveryService struct {
	state   repository.ProfileStateRepository
	session SessionAuthenticator
	metrics *metrics.Manager
	log     logger.Logger
	cfg     AuthRecoveryConfig
}

func NewAuthRecoveryService(
	state repository.ProfileStateRepository,
	session SessionAuthenticator,
	mm *metrics.Manager,
	log logger.Logger,
	cfg AuthRecoveryConfig,
) AuthRecoveryService {
	return &authRecoveryService{
		state:   state,
		session: session,
		metrics: mm,
		log:     log,
		cfg:     cfg,
	}
}

func (s *authRecoveryService) Classify(errorCode, errorDescription string) ErrorCategory {
	category := CategoryOther
	if errorCode == accessDeniedCode {
		category = CategoryAccessDenied
		if strings.Contains(errorDescription, callbackMisconfigFragment) {
			category = CategoryCallbackMisconfigured
		}
	}
	s.metrics.AuthErrorsTotal.WithLabelValues(category.String()).Inc()
	return category
}

// Recover clears only the provider's keys from the profile state, wipes the
// session namespace, and picks the logout navigation target. Client-side
// clearing alone is not enough: the provider keeps a server-side session
// cookie recording the denied login, and the next attempt would silently
// reuse that identity. Only a provider-level logout clears it.
func (s *authRecoveryService) Recover(ctx context.Context) (string, error) {
	keys, err := s.state.Keys(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to enumerate profile keys: %w", err)
	}

	var toRemove []string
	for _, key := range keys {
		if isProviderKey(key) {
			toRemove = append(toRemove, key)
		}
	}
	if len(toRemove) > 0 {
		if err := s.state.Delete(ctx, toRemove...); err != nil {
			return "", fmt.Errorf("failed to remove provider keys: %w", err)
		}
		s.log.Infof("Recover: removed %d provider session keys", len(toRemove))
	}

	if err := s.state.ClearSession(ctx); err != nil {
		return "", fmt.Errorf("failed to clear session storage: %w", err)
	}
	s.metrics.AuthRecoveriesTotal.Inc()

	if s.cfg.Domain != "" && s.cfg.ClientID != "" {
		logoutURL := fmt.Sprintf("https://%s/v2/logout?client_id=%s&returnTo=%s&federated=true",
			s.cfg.Domain, s.cfg.ClientID, url.QueryEscape(s.cfg.Origin))
		s.log.Infof("Recover: redirecting to provider logout")
		return logoutURL, nil
	}

	if s.session != nil && s.session.IsAuthenticated() {
		s.log.Warnf("Recover: provider config missing, falling back to in-app federated logout")
		return s.session.FederatedLogoutURL(s.cfg.Origin), nil
	}

	// Degraded recovery: the provider cookie may survive and the user may
	// need to clear cookies manually.
	s.log.Warnf("Recover: no provider config and no session, falling back to app origin")
	return s.cfg.Origin, nil
}

func isProviderKey(key string) bool {
	for _, prefix := range auth0KeyPrefixes {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return strings.Contains(key, auth0KeyFragment)
}

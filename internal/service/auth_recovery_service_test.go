package service

import (
	"context"
	"testing"

	"github.com/AnkitRegmi1/TruSwap/internal/adapter/memory"
	"github.com/AnkitRegmi1/TruSwap/internal/adapter/state"
	"github.com/AnkitRegmi1/TruSwap/internal/platform/logger"
	"github.com/AnkitRegmi1/TruSwap/internal/platform/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	authenticated bool
	logoutURL     string
}

func (s *fakeSession) IsAuthenticated() bool { return s.authenticated }
func (s *fakeSession) FederatedLogoutURL(returnTo string) string {
	return s.logoutURL + "?returnTo=" + returnTo
}

func TestClassify(t *testing.T) {
	svc := NewAuthRecoveryService(memory.NewProfileStateRepository(), nil, metrics.NewManager("truswap_test"), &logger.NoOpLogger{}, AuthRecoveryConfig{})

	testCases := []struct {
		name        string
		code        string
		description string
		want        ErrorCategory
	}{
		{
			name:        "unregistered callback",
			code:        "access_denied",
			description: "Service not found: https://truswap.example/api",
			want:        CategoryCallbackMisconfigured,
		},
		{
			name:        "policy rejection",
			code:        "access_denied",
			description: "Only university accounts are allowed",
			want:        CategoryAccessDenied,
		},
		{
			name:        "unrelated error code",
			code:        "invalid_request",
			description: "Service not found",
			want:        CategoryOther,
		},
		{
			name: "empty",
			want: CategoryOther,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, svc.Classify(tc.code, tc.description))
		})
	}
}

func TestRecover_PurgesOnlyProviderKeys(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewProfileStateRepository()

	require.NoError(t, repo.Set(ctx, "@@auth0spajs@@::client123::default::openid", "{cached token}"))
	require.NoError(t, repo.Set(ctx, "auth0.is.authenticated", "true"))
	require.NoError(t, repo.Set(ctx, "legacy_auth0_marker", "1"))
	require.NoError(t, repo.Set(ctx, state.WishlistKey, `["1","2"]`))
	require.NoError(t, repo.Set(ctx, "theme", "dark"))
	require.NoError(t, repo.SetSession(ctx, "fromPayment", "true"))

	svc := NewAuthRecoveryService(repo, nil, metrics.NewManager("truswap_test"), &logger.NoOpLogger{}, AuthRecoveryConfig{
		Domain:   "truswap.auth.example.com",
		ClientID: "client123",
		Origin:   "http://localhost:5173",
	})

	target, err := svc.Recover(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://truswap.auth.example.com/v2/logout?client_id=client123&returnTo=http%3A%2F%2Flocalhost%3A5173&federated=true", target)

	keys, err := repo.Keys(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{state.WishlistKey, "theme"}, keys)

	wishlist, err := repo.Get(ctx, state.WishlistKey)
	require.NoError(t, err)
	assert.Equal(t, `["1","2"]`, wishlist)

	_, err = repo.GetSession(ctx, "fromPayment")
	assert.Error(t, err)
}

func TestRecover_FallsBackToSessionLogout(t *testing.T) {
	repo := memory.NewProfileStateRepository()
	session := &fakeSession{authenticated: true, logoutURL: "https://sdk.example/logout"}

	svc := NewAuthRecoveryService(repo, session, metrics.NewManager("truswap_test"), &logger.NoOpLogger{}, AuthRecoveryConfig{
		Origin: "http://localhost:5173",
	})

	target, err := svc.Recover(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://sdk.example/logout?returnTo=http://localhost:5173", target)
}

func TestRecover_FallsBackToOrigin(t *testing.T) {
	repo := memory.NewProfileStateRepository()

	svc := NewAuthRecoveryService(repo, &fakeSession{authenticated: false}, metrics.NewManager("truswap_test"), &logger.NoOpLogger{}, AuthRecoveryConfig{
		Origin: "http://localhost:5173",
	})

	target, err := svc.Recover(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5173", target)
}

func TestAuthRecovery_CountsErrorsAndRecoveries(t *testing.T) {
	mm := metrics.NewManager("truswap_test")
	svc := NewAuthRecoveryService(memory.NewProfileStateRepository(), nil, mm, &logger.NoOpLogger{}, AuthRecoveryConfig{
		Origin: "http://localhost:5173",
	})

	svc.Classify("access_denied", "Only university accounts are allowed")
	svc.Classify("access_denied", "Service not found: https://truswap.example/api")
	svc.Classify("access_denied", "Only university accounts are allowed")

	assert.Equal(t, 2.0, testutil.ToFloat64(mm.AuthErrorsTotal.WithLabelValues("access_denied")))
	assert.Equal(t, 1.0, testutil.ToFloat64(mm.AuthErrorsTotal.WithLabelValues("callback_misconfigured")))

	_, err := svc.Recover(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(mm.AuthRecoveriesTotal))
}

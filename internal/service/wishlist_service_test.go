package service

import (
	"context"
	"testing"

	"github.com/AnkitRegmi1/TruSwap/internal/adapter/memory"
	"github.com/AnkitRegmi1/TruSwap/internal/adapter/state"
	"github.com/AnkitRegmi1/TruSwap/internal/platform/logger"
	"github.com/AnkitRegmi1/TruSwap/internal/platform/notifier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWishlist(t *testing.T) (WishlistService, *memory.ProfileStateRepository) {
	t.Helper()
	stateRepo := memory.NewProfileStateRepository()
	repo := state.NewWishlistRepository(stateRepo, &logger.NoOpLogger{})
	svc := NewWishlistService(repo, notifier.New(), nil, &logger.NoOpLogger{})
	return svc, stateRepo
}

func TestWishlist_AddIsSetLike(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestWishlist(t)

	changed, err := svc.Add(ctx, "42")
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = svc.Add(ctx, "42")
	require.NoError(t, err)
	assert.False(t, changed)

	count, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestWishlist_RemoveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestWishlist(t)

	_, err := svc.Add(ctx, "42")
	require.NoError(t, err)

	require.NoError(t, svc.Remove(ctx, "42"))
	require.NoError(t, svc.Remove(ctx, "42"))
	require.NoError(t, svc.Remove(ctx, "never-added"))

	count, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestWishlist_MalformedStateReadsAsEmpty(t *testing.T) {
	ctx := context.Background()
	svc, stateRepo := newTestWishlist(t)

	require.NoError(t, stateRepo.Set(ctx, state.WishlistKey, "{not json at all"))

	ids, err := svc.IDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	// A mutation repairs the key.
	changed, err := svc.Add(ctx, "7")
	require.NoError(t, err)
	assert.True(t, changed)

	raw, err := stateRepo.Get(ctx, state.WishlistKey)
	require.NoError(t, err)
	assert.JSONEq(t, `["7"]`, raw)
}

func TestWishlist_NotifiesOnMutationOnly(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestWishlist(t)

	signals := 0
	unsubscribe := svc.Subscribe(func() { signals++ })
	defer unsubscribe()

	_, err := svc.Add(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, 1, signals)

	// Re-adding changes nothing and stays silent.
	_, err = svc.Add(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, 1, signals)

	// Removal notifies even when absent, so stale views resync.
	require.NoError(t, svc.Remove(ctx, "nope"))
	assert.Equal(t, 2, signals)
}

func TestWishlist_UnsubscribeStopsSignals(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestWishlist(t)

	signals := 0
	unsubscribe := svc.Subscribe(func() { signals++ })

	_, err := svc.Add(ctx, "1")
	require.NoError(t, err)
	unsubscribe()

	_, err = svc.Add(ctx, "2")
	require.NoError(t, err)

	assert.Equal(t, 1, signals)
}

func TestWishlist_Contains(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestWishlist(t)

	_, err := svc.Add(ctx, "42")
	require.NoError(t, err)

	got, err := svc.Contains(ctx, "42")
	require.NoError(t, err)
	assert.True(t, got)

	got, err = svc.Contains(ctx, "43")
	require.NoError(t, err)
	assert.False(t, got)
}

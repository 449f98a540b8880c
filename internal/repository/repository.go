package repository

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found")

// ProfileStateRepository is the browser-profile analog: a flat namespaced
// key-value store shared by everything running against the same profile.
// Persisted keys survive restarts; session keys are transient and may be
// wiped wholesale.
type ProfileStateRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
	// Keys enumerates every persisted key name in the profile.
	Keys(ctx context.Context) ([]string, error)

	GetSession(ctx context.Context, key string) (string, error)
	SetSession(ctx context.Context, key, value string) error
	DeleteSession(ctx context.Context, key string) error
	// ClearSession wipes the whole session namespace. It holds no
	// cross-session user data, so this is always safe.
	ClearSession(ctx context.Context) error
}

// WishlistRepository persists the set of listing ids saved on this profile.
type WishlistRepository interface {
	// GetIDs returns the stored ids; unreadable or malformed storage reads
	// as an empty list, never an error.
	GetIDs(ctx context.Context) ([]string, error)
	SaveIDs(ctx context.Context, ids []string) error
	Clear(ctx context.Context) error
}

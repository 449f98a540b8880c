package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/AnkitRegmi1/TruSwap/internal/platform/logger"
	"github.com/AnkitRegmi1/TruSwap/internal/repository"
)

// WishlistKey is the profile key holding the wishlist, a JSON array of
// listing ids. The name is the app's own namespace and must never collide
// with the identity provider's keys, which recovery deletes by prefix.
const WishlistKey = "truSwap_wishlist"

type wishlistRepository struct {
	state repository.ProfileStateRepository
	log   logger.Logger
}

func NewWishlistRepository(state repository.ProfileStateRepository, log logger.Logger) repository.WishlistRepository {
	return &wishlistRepository{
		state: state,
		log:   log,
	}
}

func (r *wishlistRepository) GetIDs(ctx context.Context) ([]string, error) {
	raw, err := r.state.Get(ctx, WishlistKey)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read wishlist state: %w", err)
	}

	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		// Corrupted storage reads as empty rather than wedging the UI.
		r.log.Warnf("Wishlist state is malformed, treating as empty: %v", err)
		return []string{}, nil
	}
	return ids, nil
}

func (r *wishlistRepository) SaveIDs(ctx context.Context, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("failed to marshal wishlist: %w", err)
	}
	if err := r.state.Set(ctx, WishlistKey, string(data)); err != nil {
		return fmt.Errorf("failed to save wishlist state: %w", err)
	}
	return nil
}

func (r *wishlistRepository) Clear(ctx context.Context) error {
	if err := r.state.Delete(ctx, WishlistKey); err != nil {
		return fmt.Errorf("failed to clear wishlist state: %w", err)
	}
	return nil
}

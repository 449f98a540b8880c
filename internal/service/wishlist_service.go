package service

import (
	"context"

	"github.com/AnkitRegmi1/TruSwap/internal/platform/logger"
	"github.com/AnkitRegmi1/TruSwap/internal/platform/notifier"
	"github.com/AnkitRegmi1/TruSwap/internal/repository"
)

// WishlistBroadcaster pushes a change signal to other running instances.
// Broadcasting is best-effort; the local notifier already fired.
type WishlistBroadcaster interface {
	Broadcast(ctx context.Context)
}

type WishlistService interface {
	IDs(ctx context.Context) ([]string, error)
	Contains(ctx context.Context, listingID string) (bool, error)
	Count(ctx context.Context) (int, error)
	// Add returns whether the wishlist actually changed. Adding an ID
	// already present is a no-op and fires no notification.
	Add(ctx context.Context, listingID string) (bool, error)
	// Remove is idempotent and always notifies, even when the ID was
	// absent, so stale views resynchronize.
	Remove(ctx context.Context, listingID string) error
	Clear(ctx context.Context) error
	// Subscribe registers a payload-free change handler and returns an
	// unsubscribe func. Handlers re-read state themselves.
	Subscribe(handler func()) (unsubscribe func())
}

type wishlistService struct {
	repo      repository.WishlistRepository
	notifier  notifier.Notifier
	broadcast WishlistBroadcaster
	log       logger.Logger
}

func NewWishlistService(
	repo repository.WishlistRepository,
	n notifier.Notifier,
	broadcast WishlistBroadcaster,
	log logger.Logger,
) WishlistService {
	return &wishlistService{
		repo:      repo,
		notifier:  n,
		broadcast: broadcast,
		log:       log,
	}
}

func (s *wishlistService) IDs(ctx context.Context) ([]string, error) {
	return s.repo.GetIDs(ctx)
}

func (s *wishlistService) Contains(ctx context.Context, listingID string) (bool, error) {
	ids, err := s.repo.GetIDs(ctx)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == listingID {
			return true, nil
		}
	}
	return false, nil
}

func (s *wishlistService) Count(ctx context.Context) (int, error) {
	ids, err := s.repo.GetIDs(ctx)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

func (s *wishlistService) Add(ctx context.Context, listingID string) (bool, error) {
	ids, err := s.repo.GetIDs(ctx)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == listingID {
			return false, nil
		}
	}
	ids = append(ids, listingID)
	if err := s.repo.SaveIDs(ctx, ids); err != nil {
		return false, err
	}
	s.log.Debugf("Wishlist: added listing %s", listingID)
	s.notifyChanged(ctx)
	return true, nil
}

func (s *wishlistService) Remove(ctx context.Context, listingID string) error {
	ids, err := s.repo.GetIDs(ctx)
	if err != nil {
		return err
	}
	kept := ids[:0]
	for _, id := range ids {
		if id != listingID {
			kept = append(kept, id)
		}
	}
	if err := s.repo.SaveIDs(ctx, kept); err != nil {
		return err
	}
	s.log.Debugf("Wishlist: removed listing %s", listingID)
	s.notifyChanged(ctx)
	return nil
}

func (s *wishlistService) Clear(ctx context.Context) error {
	if err := s.repo.Clear(ctx); err != nil {
		return err
	}
	s.notifyChanged(ctx)
	return nil
}

func (s *wishlistService) Subscribe(handler func()) func() {
	return s.notifier.Subscribe(handler)
}

func (s *wishlistService) notifyChanged(ctx context.Context) {
	s.notifier.Publish()
	if s.broadcast != nil {
		s.broadcast.Broadcast(ctx)
	}
}

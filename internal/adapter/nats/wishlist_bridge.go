package nats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/AnkitRegmi1/TruSwap/internal/platform/logger"
	"github.com/AnkitRegmi1/TruSwap/internal/platform/notifier"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// WishlistUpdatedSubject carries payload-free wishlist change signals
// between companion instances sharing one profile, the equivalent of the
// browser's cross-tab storage event. Losing it degrades multi-window
// consistency only; the in-process notifier stays authoritative.
const WishlistUpdatedSubject = "truswap.wishlist.updated"

type wishlistEvent struct {
	Origin string `json:"origin"`
}

// WishlistBridge republishes local wishlist mutations to NATS and feeds
// remote ones into the local notifier. Messages published by this instance
// are recognized by origin id and dropped to avoid a feedback loop.
type WishlistBridge struct {
	origin    string
	publisher MessagePublisher
	notify    notifier.Notifier
	log       logger.Logger
	sub       *nats.Subscription
}

func NewWishlistBridge(conn *nats.Conn, notify notifier.Notifier, log logger.Logger) (*WishlistBridge, error) {
	publisher, err := NewNATSPublisher(conn)
	if err != nil {
		return nil, err
	}

	b := &WishlistBridge{
		origin:    uuid.New().String(),
		publisher: publisher,
		notify:    notify,
		log:       log,
	}

	sub, err := conn.Subscribe(WishlistUpdatedSubject, b.handle)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", WishlistUpdatedSubject, err)
	}
	b.sub = sub
	return b, nil
}

// Broadcast announces a local mutation. Best-effort: a publish failure is
// logged and swallowed so it can never fail the mutation itself.
func (b *WishlistBridge) Broadcast(ctx context.Context) {
	err := b.publisher.Publish(ctx, WishlistUpdatedSubject, wishlistEvent{Origin: b.origin})
	if err != nil {
		b.log.Warnf("Failed to broadcast wishlist update: %v", err)
	}
}

func (b *WishlistBridge) handle(msg *nats.Msg) {
	var evt wishlistEvent
	if err := json.Unmarshal(msg.Data, &evt); err != nil {
		b.log.Warnf("Dropping malformed wishlist event: %v", err)
		return
	}
	if evt.Origin == b.origin {
		return
	}
	b.notify.Publish()
}

func (b *WishlistBridge) Close() {
	if b.sub != nil {
		if err := b.sub.Unsubscribe(); err != nil {
			b.log.Warnf("Failed to unsubscribe wishlist bridge: %v", err)
		}
	}
}

// Package notify implements the cart change feed: a per-user pub/sub
// channel that lets any subscribed view of a cart observe mutations
// without polling. Delivery is best-effort at-least-once; the payload
// carries enough for a subscriber to re-fetch, not the full new state.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CartAction identifies what happened to the cart.
type CartAction string

const (
	CartItemAdded   CartAction = "added"
	CartItemUpdated CartAction = "updated"
	CartItemRemoved CartAction = "removed"
	CartCleared     CartAction = "cleared"
)

// CartEvent is the change-feed record published after every successful
// cart mutation.
type CartEvent struct {
	UserID    uuid.UUID  `json:"user_id"`
	Action    CartAction `json:"action"`
	ProductID uuid.UUID  `json:"product_id,omitempty"`
	ItemCount int        `json:"item_count"`
	Timestamp time.Time  `json:"timestamp"`
}

// CartFeed publishes and subscribes to cart change events over Redis
// pub/sub, one channel per user.
type CartFeed struct {
	client *redis.Client
	logger *zap.Logger
}

// NewCartFeed creates a CartFeed backed by the given Redis client
func NewCartFeed(client *redis.Client, logger *zap.Logger) *CartFeed {
	return &CartFeed{client: client, logger: logger}
}

func channelFor(userID uuid.UUID) string {
	return fmt.Sprintf("cart:events:%s", userID)
}

// Publish emits a cart event for the user. Publish failures are logged
// and swallowed: the mutation already committed, and subscribers
// converge on their next read anyway.
func (f *CartFeed) Publish(ctx context.Context, event CartEvent) {
	event.Timestamp = time.Now().UTC()

	payload, err := json.Marshal(event)
	if err != nil {
		f.logger.Error("Failed to marshal cart event", zap.Error(err))
		return
	}

	if err := f.client.Publish(ctx, channelFor(event.UserID), payload).Err(); err != nil {
		f.logger.Warn("Failed to publish cart event",
			zap.Error(err),
			zap.String("user_id", event.UserID.String()),
		)
	}
}

// Subscribe returns a channel of cart events for the user. The channel
// closes when ctx is cancelled.
func (f *CartFeed) Subscribe(ctx context.Context, userID uuid.UUID) <-chan CartEvent {
	sub := f.client.Subscribe(ctx, channelFor(userID))
	events := make(chan CartEvent)

	go func() {
		defer close(events)
		defer sub.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-sub.Channel():
				if !ok {
					return
				}

				var event CartEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					f.logger.Warn("Dropping malformed cart event", zap.Error(err))
					continue
				}

				select {
				case events <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return events
}

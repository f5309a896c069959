package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"puspita/internal/models"

	"github.com/redis/go-redis/v9"
)

const channelPrefix = "order.watch."

// RedisBridge fans order updates out across instances: writes are
// PUBLISHed to order.watch.{orderID}, and Run feeds everything received
// on that pattern into the local Hub. All deliveries flow through
// Redis, including ones originating on the same instance, so every
// instance sees the same update order.
type RedisBridge struct {
	rdb *redis.Client
	hub *Hub
}

// NewRedisBridge creates a bridge publishing to rdb and delivering into hub.
func NewRedisBridge(rdb *redis.Client, hub *Hub) *RedisBridge {
	return &RedisBridge{rdb: rdb, hub: hub}
}

// Subscribe registers on the local hub.
func (b *RedisBridge) Subscribe(orderID string, fn func(models.Order)) (unsubscribe func()) {
	return b.hub.Subscribe(orderID, fn)
}

// Notify publishes the updated order. Local subscribers receive it when
// the Run loop gets it back from Redis.
func (b *RedisBridge) Notify(order models.Order) {
	body, err := json.Marshal(order)
	if err != nil {
		log.Printf("order watch: failed to marshal order %s: %v", order.ID, err)
		return
	}
	if err := b.rdb.Publish(context.Background(), channelPrefix+order.ID, body).Err(); err != nil {
		log.Printf("order watch: failed to publish update for order %s: %v", order.ID, err)
	}
}

// Run subscribes to the order update pattern and delivers messages into
// the local hub until ctx is cancelled.
func (b *RedisBridge) Run(ctx context.Context) error {
	pubsub := b.rdb.PSubscribe(ctx, channelPrefix+"*")
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to order updates: %w", err)
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var order models.Order
			if err := json.Unmarshal([]byte(msg.Payload), &order); err != nil {
				log.Printf("order watch: dropping undecodable update on %s: %v", msg.Channel, err)
				continue
			}
			if order.ID == "" {
				order.ID = strings.TrimPrefix(msg.Channel, channelPrefix)
			}
			b.hub.Notify(order)
		}
	}
}

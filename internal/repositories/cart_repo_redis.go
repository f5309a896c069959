package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"puspita/internal/models"

	"github.com/redis/go-redis/v9"
)

const cartKeyFormat = "cart:%s"

// Carts are kept for 30 days after the last mutation; an abandoned cart
// simply expires.
var cartTTL = 30 * 24 * time.Hour

// RedisCartRepository stores each cart as a JSON snapshot under
// cart:{userID}.
type RedisCartRepository struct {
	rdb *redis.Client
}

// NewRedisCartRepository creates a new instance of RedisCartRepository.
func NewRedisCartRepository(rdb *redis.Client) *RedisCartRepository {
	return &RedisCartRepository{rdb: rdb}
}

// Load reads and decodes the stored cart. A missing key is an empty
// cart, not an error. A payload that no longer decodes (schema drift,
// partial write) is reported as an error so the caller can fall back to
// an empty cart.
func (r *RedisCartRepository) Load(ctx context.Context, userID string) ([]models.CartItem, error) {
	raw, err := r.rdb.Get(ctx, fmt.Sprintf(cartKeyFormat, userID)).Result()
	if err == redis.Nil {
		return []models.CartItem{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart for user %s: %w", userID, err)
	}

	var items []models.CartItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("failed to decode cart for user %s: %w", userID, err)
	}
	return items, nil
}

// Save serializes the full item list and overwrites the stored snapshot.
func (r *RedisCartRepository) Save(ctx context.Context, userID string, items []models.CartItem) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode cart for user %s: %w", userID, err)
	}
	if err := r.rdb.Set(ctx, fmt.Sprintf(cartKeyFormat, userID), raw, cartTTL).Err(); err != nil {
		return fmt.Errorf("failed to save cart for user %s: %w", userID, err)
	}
	return nil
}

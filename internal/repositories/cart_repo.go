package repositories

import (
	"context"

	"puspita/internal/models"
)

// CartRepository persists a shopper's cart as a full snapshot keyed by
// user ID. It is the server-side analogue of the browser's local storage
// slot: one opaque serialized value per shopper, rewritten on every
// mutation, last write wins. The cart is a convenience cache, not a
// system of record, so callers treat persistence failures as non-fatal.
type CartRepository interface {
	// Load returns the stored cart, or an empty slice when none exists.
	Load(ctx context.Context, userID string) ([]models.CartItem, error)
	// Save overwrites the stored cart with the given snapshot.
	Save(ctx context.Context, userID string, items []models.CartItem) error
}

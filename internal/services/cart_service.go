package services

import (
	"context"
	"fmt"
	"log"

	"puspita/internal/models"
	"puspita/internal/repositories"
)

// CartService handles business logic for shopping carts. The stored
// cart is a convenience cache: losing it costs the shopper a few
// re-adds, so persistence failures degrade (empty cart on load, unsaved
// snapshot on write) instead of failing the request.
type CartService struct {
	repo repositories.CartRepository
}

// NewCartService creates a new CartService.
func NewCartService(repo repositories.CartRepository) *CartService {
	return &CartService{repo: repo}
}

// Items returns the user's cart. An absent or unreadable snapshot
// resolves to an empty cart.
func (s *CartService) Items(ctx context.Context, userID string) []models.CartItem {
	items, err := s.repo.Load(ctx, userID)
	if err != nil {
		log.Printf("cart: failed to load cart for user %s, starting empty: %v", userID, err)
		return []models.CartItem{}
	}
	return items
}

// AddItem puts quantity units of the product into the cart. An existing
// line for the same product absorbs the quantity; a new line starts
// selected. The unit price is snapshotted here and never refreshed.
func (s *CartService) AddItem(ctx context.Context, userID string, product *models.Product, quantity int) ([]models.CartItem, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("quantity must be at least 1, got %d", quantity)
	}

	items := s.Items(ctx, userID)
	merged := false
	for i := range items {
		if items[i].ProductID == product.ID {
			items[i].Quantity += quantity
			merged = true
			break
		}
	}
	if !merged {
		items = append(items, models.CartItem{
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: product.Price,
			Quantity:  quantity,
			ImageURL:  product.ImageURL,
			Color:     product.Color,
			Selected:  true,
		})
	}

	s.save(ctx, userID, items)
	return items, nil
}

// ChangeQuantity adjusts a line's quantity by delta, flooring at 1.
// Decrementing below 1 is a no-op rather than a removal, so a stray
// extra click never silently deletes a line; removal is only explicit.
func (s *CartService) ChangeQuantity(ctx context.Context, userID, productID string, delta int) ([]models.CartItem, error) {
	items := s.Items(ctx, userID)
	found := false
	for i := range items {
		if items[i].ProductID == productID {
			if q := items[i].Quantity + delta; q >= 1 {
				items[i].Quantity = q
			}
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("cart item %s: %w", productID, repositories.ErrNotFound)
	}

	s.save(ctx, userID, items)
	return items, nil
}

// RemoveItem removes a line unconditionally, selected or not.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID string) []models.CartItem {
	items := s.Items(ctx, userID)
	kept := items[:0]
	for _, item := range items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}

	s.save(ctx, userID, kept)
	return kept
}

// SetSelected marks a line as participating (or not) in the subtotal
// and the next checkout.
func (s *CartService) SetSelected(ctx context.Context, userID, productID string, selected bool) ([]models.CartItem, error) {
	items := s.Items(ctx, userID)
	found := false
	for i := range items {
		if items[i].ProductID == productID {
			items[i].Selected = selected
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("cart item %s: %w", productID, repositories.ErrNotFound)
	}

	s.save(ctx, userID, items)
	return items, nil
}

// SelectedSubtotal sums unit price times quantity over the selected
// lines only. Deselected lines are excluded entirely.
func (s *CartService) SelectedSubtotal(ctx context.Context, userID string) int64 {
	return SelectedSubtotal(s.Items(ctx, userID))
}

// SelectedSubtotal computes the subtotal of the selected lines of a
// cart snapshot.
func SelectedSubtotal(items []models.CartItem) int64 {
	var total int64
	for _, item := range items {
		if item.Selected {
			total += item.Subtotal()
		}
	}
	return total
}

// ClearPurchased removes the selected lines after a successful checkout
// and keeps the rest untouched. This is the transactional boundary: a
// checkout must never discard items the shopper had not chosen to buy.
func (s *CartService) ClearPurchased(ctx context.Context, userID string) []models.CartItem {
	items := s.Items(ctx, userID)
	kept := items[:0]
	for _, item := range items {
		if !item.Selected {
			kept = append(kept, item)
		}
	}

	s.save(ctx, userID, kept)
	return kept
}

// save writes the snapshot, swallowing failures. Surfacing a scary
// error for a recoverable convenience feature is worse than losing the
// cached cart.
func (s *CartService) save(ctx context.Context, userID string, items []models.CartItem) {
	if err := s.repo.Save(ctx, userID, items); err != nil {
		log.Printf("cart: failed to save cart for user %s: %v", userID, err)
	}
}

package repositories

import (
	"context"

	"puspita/internal/models"
)

// OrderRepository defines the interface for order data access. Status
// writes always set an explicit target value (never a value derived by
// read-then-write), so a concurrent admin write is last write wins
// rather than corruption.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	// ListByUser returns the user's orders, newest first.
	ListByUser(ctx context.Context, userID string) ([]models.Order, error)
	// ListAll returns every order, newest first. Back-office only.
	ListAll(ctx context.Context) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id string, status models.Status) error
	// SetPaymentProof records the uploaded proof and the new status in a
	// single write, so a half-updated record is never visible.
	SetPaymentProof(ctx context.Context, id, proofURL, proofPublicID string, status models.Status) error
	// Orders are never deleted in normal operation; cancellation is a status.
}

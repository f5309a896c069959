package services

import (
	"errors"
	"fmt"

	"puspita/internal/models"
)

var (
	// ErrAuthRequired is returned when checkout or payment is attempted
	// without a logged-in user.
	ErrAuthRequired = errors.New("login required")

	// ErrForbidden is returned when a user acts on an order they do not
	// own, or attempts a transition reserved for admins.
	ErrForbidden = errors.New("not allowed")
)

// ValidationError reports checkout input that blocks progression: empty
// required shipping fields or an empty selection. No partial order is
// ever created from invalid input.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %v", e.Fields)
}

// InvalidTransitionError reports a rejected order status change. The
// order's stored status is left unchanged.
type InvalidTransitionError struct {
	From models.Status
	To   models.Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid order status transition %s -> %s", e.From, e.To)
}

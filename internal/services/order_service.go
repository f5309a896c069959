package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"puspita/internal/models"
	"puspita/internal/repositories"
	"puspita/pkg/cloudinary"
	"puspita/pkg/metrics"
	"puspita/pkg/rabbitmq"

	"github.com/google/uuid"
)

// Actor identifies who is requesting an order mutation. The role
// decides which status transitions are open to them.
type Actor struct {
	UserID string
	Role   models.Role
}

// IsAdmin reports whether the actor runs the back-office.
func (a Actor) IsAdmin() bool { return a.Role == models.RoleAdmin }

// OrderNotifier receives every applied order write, in apply order.
type OrderNotifier interface {
	Notify(order models.Order)
}

// EventPublisher publishes order lifecycle events to the message queue.
type EventPublisher interface {
	PublishOrderEvent(event rabbitmq.OrderEvent) error
}

// ProofUploader stores payment proof imagery and returns its hosted
// reference.
type ProofUploader interface {
	Upload(ctx context.Context, file io.Reader, filename string) (*cloudinary.UploadResult, error)
}

// OrderService handles business logic related to orders: creation from
// a draft, the status lifecycle, payment proof submission and the
// read-side queries. The repository holds the authoritative state; this
// service only proposes explicit target statuses, never derived ones.
type OrderService struct {
	repo     repositories.OrderRepository
	mq       EventPublisher
	notifier OrderNotifier
	uploader ProofUploader
	metrics  *metrics.OrderMetrics
}

// NewOrderService creates a new OrderService. mq, notifier, uploader
// and m may be nil; the corresponding side effects are skipped.
func NewOrderService(repo repositories.OrderRepository, mq EventPublisher, notifier OrderNotifier, uploader ProofUploader, m *metrics.OrderMetrics) *OrderService {
	return &OrderService{
		repo:     repo,
		mq:       mq,
		notifier: notifier,
		uploader: uploader,
		metrics:  m,
	}
}

// CreateOrder turns a draft into the durable order record. The draft's
// totals are recomputed and validated here rather than trusted as
// received; a mismatch means a tampered or stale draft and is rejected.
// The initial status depends on the payment method: COD starts
// fulfillment immediately, QRIS waits for the transfer.
func (s *OrderService) CreateOrder(ctx context.Context, userID string, draft models.OrderDraft, method models.PaymentMethod) (*models.Order, error) {
	if userID == "" {
		return nil, ErrAuthRequired
	}
	if !method.IsValid() {
		return nil, &ValidationError{Fields: map[string]string{"PaymentMethod": "oneof"}}
	}
	if len(draft.Items) == 0 {
		return nil, &ValidationError{Fields: map[string]string{"Items": "min"}}
	}

	var subtotal int64
	for _, item := range draft.Items {
		subtotal += item.UnitPrice * int64(item.Quantity)
	}
	fee := shippingFees[draft.DeliveryMethod]
	if !draft.DeliveryMethod.IsValid() ||
		draft.Subtotal != subtotal ||
		draft.ShippingFee != fee ||
		draft.GrandTotal != subtotal+fee {
		return nil, &ValidationError{Fields: map[string]string{"GrandTotal": "mismatch"}}
	}

	order := &models.Order{
		ID:             uuid.New().String(),
		UserID:         userID,
		Items:          draft.Items,
		Subtotal:       draft.Subtotal,
		ShippingFee:    draft.ShippingFee,
		GrandTotal:     draft.GrandTotal,
		ShippingForm:   draft.ShippingForm,
		DeliveryMethod: draft.DeliveryMethod,
		PaymentMethod:  method,
		Status:         models.InitialStatus(method),
	}

	if err := s.repo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order in repository: %w", err)
	}

	if s.metrics != nil {
		s.metrics.OrdersCreated.WithLabelValues(string(method)).Inc()
	}
	s.publish(rabbitmq.OrderEvent{
		Type:       rabbitmq.EventOrderCreated,
		OrderID:    order.ID,
		UserID:     order.UserID,
		Status:     string(order.Status),
		GrandTotal: order.GrandTotal,
		OccurredAt: order.CreatedAt,
	})
	s.notify(*order)

	return order, nil
}

// GetOrder returns a single order. Non-admins may only read their own.
func (s *OrderService) GetOrder(ctx context.Context, id string, actor Actor) (*models.Order, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && order.UserID != actor.UserID {
		return nil, ErrForbidden
	}
	return order, nil
}

// ListByUser returns the user's orders, newest first.
func (s *OrderService) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

// ListAll returns every order, newest first. Back-office only.
func (s *OrderService) ListAll(ctx context.Context) ([]models.Order, error) {
	return s.repo.ListAll(ctx)
}

// UpdateStatus moves an order to an explicit target status on behalf of
// an actor. Terminal orders reject everything; admins may move the
// order forward (skips allowed) or cancel it; buyers may only submit
// their own order for confirmation or confirm receipt. A rejected
// transition leaves the stored status untouched and is reported, never
// silently ignored.
func (s *OrderService) UpdateStatus(ctx context.Context, id string, target models.Status, actor Actor) (*models.Order, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	from := order.Status

	if !actor.IsAdmin() {
		if order.UserID != actor.UserID {
			return nil, ErrForbidden
		}
		if !models.BuyerCanTransition(from, target) {
			return nil, ErrForbidden
		}
	}
	if !models.CanTransition(from, target) {
		return nil, &InvalidTransitionError{From: from, To: target}
	}

	if err := s.repo.UpdateStatus(ctx, id, target); err != nil {
		return nil, fmt.Errorf("failed to update order status for order %s: %w", id, err)
	}
	order.Status = target
	order.UpdatedAt = time.Now()

	s.applied(from, *order)
	return order, nil
}

// SubmitPaymentProof uploads the buyer's transfer proof and moves the
// order from waiting_payment to waiting_confirmation. The order record
// is only touched after the upload succeeds, so a failed upload leaves
// it exactly as it was.
func (s *OrderService) SubmitPaymentProof(ctx context.Context, orderID, userID string, file io.Reader, filename string) (*models.Order, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrForbidden
	}
	from := order.Status
	if from != models.StatusWaitingPayment {
		return nil, &InvalidTransitionError{From: from, To: models.StatusWaitingConfirmation}
	}
	if s.uploader == nil {
		return nil, fmt.Errorf("%w: no uploader configured", cloudinary.ErrUpload)
	}

	result, err := s.uploader.Upload(ctx, file, filename)
	if err != nil {
		return nil, err
	}

	if err := s.repo.SetPaymentProof(ctx, orderID, result.SecureURL, result.PublicID, models.StatusWaitingConfirmation); err != nil {
		return nil, fmt.Errorf("failed to record payment proof for order %s: %w", orderID, err)
	}
	order.PaymentProofURL = result.SecureURL
	order.PaymentProofPublicID = result.PublicID
	order.Status = models.StatusWaitingConfirmation
	order.UpdatedAt = time.Now()

	s.applied(from, *order)
	return order, nil
}

// TrackingStepView is one step of the buyer's tracking view.
type TrackingStepView struct {
	Label   string `json:"label"`
	Reached bool   `json:"reached"`
}

// OrderTracking is the buyer-facing projection of an order's status.
type OrderTracking struct {
	OrderID   string             `json:"order_id"`
	Status    models.Status      `json:"status"`
	Steps     []TrackingStepView `json:"steps"`
	Completed bool               `json:"completed"`
}

// Tracking collapses the raw status into the five coarse display steps,
// marking every step up to and including the current one as reached.
func (s *OrderService) Tracking(ctx context.Context, id string, actor Actor) (*OrderTracking, error) {
	order, err := s.GetOrder(ctx, id, actor)
	if err != nil {
		return nil, err
	}

	current := models.TrackingStepIndex(order.Status)
	steps := make([]TrackingStepView, len(models.TrackingSteps))
	for i, step := range models.TrackingSteps {
		steps[i] = TrackingStepView{Label: step.Label, Reached: i <= current}
	}
	return &OrderTracking{
		OrderID:   order.ID,
		Status:    order.Status,
		Steps:     steps,
		Completed: order.Status == models.StatusCompleted,
	}, nil
}

// applied fans out the side effects of a committed status change.
func (s *OrderService) applied(from models.Status, order models.Order) {
	if s.metrics != nil {
		s.metrics.StatusTransitions.WithLabelValues(string(from), string(order.Status)).Inc()
	}
	s.publish(rabbitmq.OrderEvent{
		Type:       rabbitmq.EventOrderStatusUpdated,
		OrderID:    order.ID,
		UserID:     order.UserID,
		Status:     string(order.Status),
		GrandTotal: order.GrandTotal,
		OccurredAt: order.UpdatedAt,
	})
	s.notify(order)
}

func (s *OrderService) publish(event rabbitmq.OrderEvent) {
	if s.mq == nil {
		return
	}
	if err := s.mq.PublishOrderEvent(event); err != nil {
		log.Printf("Warning: Failed to publish %s event for order %s: %v", event.Type, event.OrderID, err)
	}
}

func (s *OrderService) notify(order models.Order) {
	if s.notifier != nil {
		s.notifier.Notify(order)
	}
}

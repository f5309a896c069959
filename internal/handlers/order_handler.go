package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"puspita/internal/middleware"
	"puspita/internal/models"
	"puspita/internal/services"

	"github.com/gofiber/fiber/v2"
)

// OrderWatcher is the subscription side of order observation.
type OrderWatcher interface {
	Subscribe(orderID string, fn func(models.Order)) (unsubscribe func())
}

// OrderHandler handles HTTP requests for checkout and orders.
type OrderHandler struct {
	orderService    *services.OrderService
	cartService     *services.CartService
	checkoutService *services.CheckoutService
	watcher         OrderWatcher
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orderService *services.OrderService, cartService *services.CartService, checkoutService *services.CheckoutService, watcher OrderWatcher) *OrderHandler {
	return &OrderHandler{
		orderService:    orderService,
		cartService:     cartService,
		checkoutService: checkoutService,
		watcher:         watcher,
	}
}

// RegisterRoutes registers the buyer-facing order routes.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/checkout/draft", h.HandlePreviewDraft)

	orderRoutes := router.Group("/orders")
	orderRoutes.Post("/", h.HandlePlaceOrder)
	orderRoutes.Get("/", h.HandleGetMyOrders)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Get("/:id/tracking", h.HandleGetTracking)
	orderRoutes.Get("/:id/events", h.HandleStreamOrderEvents)
	orderRoutes.Post("/:id/payment-proof", h.HandleSubmitPaymentProof)
	orderRoutes.Post("/:id/confirm-receipt", h.HandleConfirmReceipt)
}

// RegisterAdminRoutes registers the back-office order routes.
func (h *OrderHandler) RegisterAdminRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Get("/", h.HandleGetAllOrders)
	orderRoutes.Patch("/:id/status", h.HandleUpdateOrderStatus)
}

// CheckoutRequest represents the request body for draft preview and
// order placement.
type CheckoutRequest struct {
	ShippingForm   models.ShippingForm   `json:"shipping_form"`
	DeliveryMethod models.DeliveryMethod `json:"delivery_method"`
	PaymentMethod  models.PaymentMethod  `json:"payment_method"`
}

// HandlePreviewDraft assembles a draft from the current cart without
// creating anything, so the review screen can show the exact totals.
func (h *OrderHandler) HandlePreviewDraft(c *fiber.Ctx) error {
	var req CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing draft request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	items := h.cartService.Items(c.Context(), currentUserID(c))
	draft, err := h.checkoutService.BuildDraft(items, req.ShippingForm, req.DeliveryMethod)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(draft)
}

// HandlePlaceOrder creates the durable order from the shopper's
// selected cart lines, then clears exactly those lines from the cart.
func (h *OrderHandler) HandlePlaceOrder(c *fiber.Ctx) error {
	var req CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing place order request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	userID := currentUserID(c)
	items := h.cartService.Items(c.Context(), userID)
	draft, err := h.checkoutService.BuildDraft(items, req.ShippingForm, req.DeliveryMethod)
	if err != nil {
		return respondError(c, err)
	}

	order, err := h.orderService.CreateOrder(c.Context(), userID, *draft, req.PaymentMethod)
	if err != nil {
		return respondError(c, err)
	}

	// Only the purchased lines leave the cart; deselected ones stay.
	h.cartService.ClearPurchased(c.Context(), userID)

	return c.Status(fiber.StatusCreated).JSON(order)
}

// HandleGetMyOrders lists the shopper's own orders, newest first.
func (h *OrderHandler) HandleGetMyOrders(c *fiber.Ctx) error {
	orders, err := h.orderService.ListByUser(c.Context(), currentUserID(c))
	if err != nil {
		log.Printf("Error listing orders: %v", err)
		return respondError(c, err)
	}
	return c.JSON(orders)
}

// HandleGetOrderByID retrieves a single order.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	order, err := h.orderService.GetOrder(c.Context(), c.Params("id"), middleware.ActorFromContext(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(order)
}

// HandleGetTracking returns the five-step tracking projection.
func (h *OrderHandler) HandleGetTracking(c *fiber.Ctx) error {
	tracking, err := h.orderService.Tracking(c.Context(), c.Params("id"), middleware.ActorFromContext(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(tracking)
}

// HandleSubmitPaymentProof accepts the transfer proof image and moves a
// waiting_payment order to waiting_confirmation.
func (h *OrderHandler) HandleSubmitPaymentProof(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("proof")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "A 'proof' file field is required",
			"error":   err.Error(),
		})
	}
	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Could not read uploaded file",
			"error":   err.Error(),
		})
	}
	defer file.Close()

	order, err := h.orderService.SubmitPaymentProof(c.Context(), c.Params("id"), currentUserID(c), file, fileHeader.Filename)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(order)
}

// HandleConfirmReceipt lets the buyer complete a shipped order.
func (h *OrderHandler) HandleConfirmReceipt(c *fiber.Ctx) error {
	order, err := h.orderService.UpdateStatus(c.Context(), c.Params("id"), models.StatusCompleted, middleware.ActorFromContext(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(order)
}

// HandleStreamOrderEvents streams order updates as Server-Sent Events
// until the client disconnects. This is how a shopper parked on the
// payment screen learns of the admin's confirmation without polling.
func (h *OrderHandler) HandleStreamOrderEvents(c *fiber.Ctx) error {
	// Access check up front; the stream itself carries only this order.
	order, err := h.orderService.GetOrder(c.Context(), c.Params("id"), middleware.ActorFromContext(c))
	if err != nil {
		return respondError(c, err)
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	// Buffered so a slow client cannot stall the notifier; beyond that
	// updates are dropped and the client catches up on the next one.
	updates := make(chan models.Order, 16)
	unsubscribe := h.watcher.Subscribe(order.ID, func(o models.Order) {
		select {
		case updates <- o:
		default:
		}
	})

	initial := *order
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer unsubscribe()

		if err := writeOrderEvent(w, initial); err != nil {
			return
		}

		// The heartbeat surfaces dead connections, so an abandoned
		// stream releases its subscription instead of leaking it.
		heartbeat := time.NewTicker(15 * time.Second)
		defer heartbeat.Stop()

		for {
			select {
			case update := <-updates:
				if err := writeOrderEvent(w, update); err != nil {
					return // client gone
				}
			case <-heartbeat.C:
				if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	})
	return nil
}

func writeOrderEvent(w *bufio.Writer, order models.Order) error {
	body, err := json.Marshal(order)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", body); err != nil {
		return err
	}
	return w.Flush()
}

// HandleGetAllOrders lists every order for the back-office, newest first.
func (h *OrderHandler) HandleGetAllOrders(c *fiber.Ctx) error {
	orders, err := h.orderService.ListAll(c.Context())
	if err != nil {
		log.Printf("Error getting all orders: %v", err)
		return respondError(c, err)
	}
	return c.JSON(orders)
}

// UpdateStatusRequest represents the request body for a status change.
type UpdateStatusRequest struct {
	Status models.Status `json:"status"`
}

// HandleUpdateOrderStatus applies an admin status change. The target is
// validated against the transition table; the back-office gets an
// explicit rejection instead of a silently ignored change.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	var req UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing status update request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if req.Status == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Status is required for order status update.",
		})
	}

	order, err := h.orderService.UpdateStatus(c.Context(), c.Params("id"), req.Status, middleware.ActorFromContext(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(order)
}

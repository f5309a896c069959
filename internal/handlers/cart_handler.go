package handlers

import (
	"log"

	"puspita/internal/services"

	"github.com/gofiber/fiber/v2"
)

// CartHandler handles HTTP requests for the shopping cart. All routes
// require an authenticated user; the cart is keyed by their ID.
type CartHandler struct {
	cartService    *services.CartService
	productService *services.ProductService
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(cartService *services.CartService, productService *services.ProductService) *CartHandler {
	return &CartHandler{
		cartService:    cartService,
		productService: productService,
	}
}

// RegisterRoutes registers the cart routes with the Fiber app.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	cartRoutes := router.Group("/cart")
	cartRoutes.Get("/", h.HandleGetCart)
	cartRoutes.Post("/items", h.HandleAddItem)
	cartRoutes.Patch("/items/:productId/quantity", h.HandleChangeQuantity)
	cartRoutes.Patch("/items/:productId/selected", h.HandleSetSelected)
	cartRoutes.Delete("/items/:productId", h.HandleRemoveItem)
}

// HandleGetCart returns the cart with the selected subtotal.
func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	items := h.cartService.Items(c.Context(), currentUserID(c))
	return c.JSON(fiber.Map{
		"items":             items,
		"selected_subtotal": services.SelectedSubtotal(items),
	})
}

// AddItemRequest represents the request body for adding a cart item.
type AddItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// HandleAddItem adds a product to the cart, merging with an existing line.
func (h *CartHandler) HandleAddItem(c *fiber.Ctx) error {
	var req AddItemRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing add item request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.ProductID == "" || req.Quantity < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "product_id and a quantity of at least 1 are required",
		})
	}

	// The price snapshot comes from the catalog at add time.
	product, err := h.productService.GetProductByID(req.ProductID)
	if err != nil {
		return respondError(c, err)
	}

	items, err := h.cartService.AddItem(c.Context(), currentUserID(c), product, req.Quantity)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"items":             items,
		"selected_subtotal": services.SelectedSubtotal(items),
	})
}

// ChangeQuantityRequest represents the request body for a quantity change.
type ChangeQuantityRequest struct {
	Delta int `json:"delta"`
}

// HandleChangeQuantity adjusts a line's quantity by a delta, floored at 1.
func (h *CartHandler) HandleChangeQuantity(c *fiber.Ctx) error {
	var req ChangeQuantityRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing quantity request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	items, err := h.cartService.ChangeQuantity(c.Context(), currentUserID(c), c.Params("productId"), req.Delta)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"items":             items,
		"selected_subtotal": services.SelectedSubtotal(items),
	})
}

// SetSelectedRequest represents the request body for a selection toggle.
type SetSelectedRequest struct {
	Selected bool `json:"selected"`
}

// HandleSetSelected toggles whether a line joins the next checkout.
func (h *CartHandler) HandleSetSelected(c *fiber.Ctx) error {
	var req SetSelectedRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing selected request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	items, err := h.cartService.SetSelected(c.Context(), currentUserID(c), c.Params("productId"), req.Selected)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"items":             items,
		"selected_subtotal": services.SelectedSubtotal(items),
	})
}

// HandleRemoveItem removes a line unconditionally.
func (h *CartHandler) HandleRemoveItem(c *fiber.Ctx) error {
	items := h.cartService.RemoveItem(c.Context(), currentUserID(c), c.Params("productId"))
	return c.JSON(fiber.Map{
		"items":             items,
		"selected_subtotal": services.SelectedSubtotal(items),
	})
}

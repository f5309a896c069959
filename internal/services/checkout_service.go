package services

import (
	"puspita/internal/models"

	"github.com/go-playground/validator/v10"
)

// shippingFees is the whole shipping price policy: a flat fee for
// courier delivery, nothing for pickup. Tiered shipping would replace
// this table.
var shippingFees = map[models.DeliveryMethod]int64{
	models.DeliveryCourier: 10000,
	models.DeliveryPickup:  0,
}

// CheckoutService assembles order drafts from a cart snapshot and the
// shipping form. BuildDraft is pure: it never mutates the cart, and the
// same inputs always produce the same draft.
type CheckoutService struct {
	validate *validator.Validate
}

// NewCheckoutService creates a new CheckoutService.
func NewCheckoutService() *CheckoutService {
	return &CheckoutService{validate: validator.New()}
}

// BuildDraft freezes the selected cart lines together with the shipping
// input into an order draft. It returns a ValidationError when a
// required shipping field is missing, the delivery method is unknown,
// or nothing is selected.
func (s *CheckoutService) BuildDraft(items []models.CartItem, form models.ShippingForm, method models.DeliveryMethod) (*models.OrderDraft, error) {
	fields := make(map[string]string)

	if err := s.validate.Struct(form); err != nil {
		for _, fieldErr := range err.(validator.ValidationErrors) {
			fields[fieldErr.Field()] = fieldErr.Tag()
		}
	}
	if !method.IsValid() {
		fields["DeliveryMethod"] = "oneof"
	}

	lines := make([]models.OrderItem, 0, len(items))
	var subtotal int64
	for _, item := range items {
		if !item.Selected {
			continue
		}
		lines = append(lines, models.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			ImageURL:  item.ImageURL,
			Color:     item.Color,
		})
		subtotal += item.Subtotal()
	}
	if len(lines) == 0 {
		fields["Items"] = "min"
	}

	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	fee := shippingFees[method]
	return &models.OrderDraft{
		ShippingForm:   form,
		DeliveryMethod: method,
		Items:          lines,
		Subtotal:       subtotal,
		ShippingFee:    fee,
		GrandTotal:     subtotal + fee,
	}, nil
}

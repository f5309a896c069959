package models

import "time"

// DeliveryMethod selects how the order reaches the buyer.
type DeliveryMethod string

const (
	DeliveryCourier DeliveryMethod = "delivery"
	DeliveryPickup  DeliveryMethod = "pickup"
)

// IsValid reports whether m is a known delivery method.
func (m DeliveryMethod) IsValid() bool {
	return m == DeliveryCourier || m == DeliveryPickup
}

// PaymentMethod selects how the buyer pays.
type PaymentMethod string

const (
	PaymentQRIS PaymentMethod = "QRIS"
	PaymentCOD  PaymentMethod = "COD"
)

// IsValid reports whether m is a known payment method.
func (m PaymentMethod) IsValid() bool {
	return m == PaymentQRIS || m == PaymentCOD
}

// ShippingForm is the delivery contact data collected at checkout.
type ShippingForm struct {
	FullName string `json:"full_name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required"`
	Address  string `json:"address" validate:"required"`
	Notes    string `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// OrderItem is a frozen snapshot of a cart line at checkout time.
type OrderItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"` // price at the time of order
	Quantity  int    `json:"quantity"`
	ImageURL  string `json:"image_url,omitempty"`
	Color     string `json:"color,omitempty"`
}

// OrderDraft is the ephemeral output of checkout assembly: the selected
// cart lines plus shipping input and computed totals. It is never
// persisted; the durable Order is created from it at payment time.
type OrderDraft struct {
	ShippingForm   ShippingForm   `json:"shipping_form"`
	DeliveryMethod DeliveryMethod `json:"delivery_method"`
	Items          []OrderItem    `json:"items"`
	Subtotal       int64          `json:"subtotal"`
	ShippingFee    int64          `json:"shipping_fee"`
	GrandTotal     int64          `json:"grand_total"`
}

// Order is the durable record of a placed order. Line items and totals
// are frozen at creation and never recomputed; only the status and the
// payment proof fields change after that.
type Order struct {
	ID                   string         `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID               string         `json:"user_id" gorm:"index;type:varchar(36)"`
	Items                []OrderItem    `json:"items" gorm:"serializer:json"`
	Subtotal             int64          `json:"subtotal"`
	ShippingFee          int64          `json:"shipping_fee"`
	GrandTotal           int64          `json:"grand_total"`
	ShippingForm         ShippingForm   `json:"shipping_form" gorm:"serializer:json"`
	DeliveryMethod       DeliveryMethod `json:"delivery_method" gorm:"type:varchar(16)"`
	PaymentMethod        PaymentMethod  `json:"payment_method" gorm:"type:varchar(16)"`
	Status               Status         `json:"status" gorm:"type:varchar(32);index"`
	PaymentProofURL      string         `json:"payment_proof_url,omitempty"`
	PaymentProofPublicID string         `json:"payment_proof_public_id,omitempty"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
}

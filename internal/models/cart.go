package models

// CartItem is one product entry in a shopper's cart. The unit price is a
// snapshot taken when the item was added; later catalog price changes do
// not flow into the cart. Prices are whole rupiah, no fractional unit.
type CartItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"` // always >= 1
	ImageURL  string `json:"image_url,omitempty"`
	Color     string `json:"color,omitempty"`
	Selected  bool   `json:"selected"`
}

// Subtotal is the line total for this item.
func (i CartItem) Subtotal() int64 {
	return i.UnitPrice * int64(i.Quantity)
}

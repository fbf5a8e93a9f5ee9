package orders

// CreateOrderPayload is the multipart body for POST /create-order. The
// shipping address arrives as a JSON string inside the form, the optional
// book PDF as a file under the "pdf" field.
type CreateOrderPayload struct {
	BookTitle       string  `form:"bookTitle" json:"bookTitle" validate:"required,max=200"`
	Quantity        int     `form:"quantity" json:"quantity" validate:"required,gt=0"`
	Price           float64 `form:"price" json:"price" validate:"required,gt=0"`
	ShippingAddress string  `form:"shippingAddress" json:"shippingAddress" validate:"omitempty"`
}

type UpdateOrderStatusPayload struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed cancelled"`
}

// CheckoutResponse carries the redirect URL for a freshly created checkout
// session.
type CheckoutResponse struct {
	Order *OrderEnvelope `json:"order,omitempty"`
	URL   string         `json:"url"`
}

// OrderEnvelope trims the order for checkout responses.
type OrderEnvelope struct {
	ID    int     `json:"id"`
	Total float64 `json:"total"`
}

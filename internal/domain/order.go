package domain

// Order is a placed order as shown in the order history.
type Order struct {
	ID              int64       `json:"id"`
	Number          string      `json:"number"`
	Status          string      `json:"status"`
	PaymentStatus   string      `json:"payment_status"`
	Subtotal        string      `json:"subtotal"`
	Shipping        string      `json:"shipping"`
	Discount        string      `json:"discount"`
	Total           string      `json:"total"`
	CreatedAt       string      `json:"created_at"`
	Items           []OrderItem `json:"items"`
	ShippingAddress *Address    `json:"shipping_address,omitempty"`
}

// OrderItem is a line of an order, snapshotted at purchase time.
type OrderItem struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Image     string `json:"image"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Subtotal  string `json:"subtotal"`
}

package domain

// Address is a saved shipping address.
type Address struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	IsDefault  bool   `json:"is_default"`
}

// User is the signed-in customer.
type User struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Avatar   string `json:"avatar"`
	Locale   string `json:"locale"`
	IsVendor bool   `json:"is_vendor"`
}

// Coupon type values.
const (
	CouponTypeFixed   = "fixed"
	CouponTypePercent = "percent"
)

// Coupon is a discount code. ExpiresAt is empty for coupons without an
// expiry; the API does not distinguish a null expiry from a missing one.
type Coupon struct {
	ID             int64  `json:"id"`
	Code           string `json:"code"`
	Type           string `json:"type"`
	Value          string `json:"value"`
	MinOrderAmount string `json:"min_order_amount"`
	ExpiresAt      string `json:"expires_at"`
	IsActive       bool   `json:"is_active"`
}

// HasExpiry reports whether the coupon carries an expiry timestamp.
func (c Coupon) HasExpiry() bool { return c.ExpiresAt != "" }

package normalize

import (
	"strings"

	"github.com/utafrali/storefront/internal/coerce"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/envelope"
	"github.com/utafrali/storefront/internal/locale"
)

// Address normalizes a saved address.
func (n *Normalizer) Address(raw any) domain.Address {
	src := object(raw)
	return domain.Address{
		ID:         id(src),
		Name:       str(src, "name", "full_name"),
		Phone:      str(src, "phone"),
		Line1:      str(src, "line1", "address_line_1", "street"),
		Line2:      str(src, "line2", "address_line_2"),
		City:       str(src, "city"),
		State:      str(src, "state", "region"),
		PostalCode: str(src, "postal_code", "zip"),
		Country:    str(src, "country"),
		IsDefault:  coerce.ToBoolean(src["is_default"], "address.is_default"),
	}
}

// Addresses normalizes an address collection.
func (n *Normalizer) Addresses(raw any) []domain.Address {
	items := envelope.UnwrapCollection(raw)
	out := make([]domain.Address, 0, len(items))
	for _, item := range items {
		out = append(out, n.Address(item))
	}
	return out
}

// User normalizes the signed-in user. Without an explicit is_vendor flag the
// user is a vendor when their role says so.
func (n *Normalizer) User(raw any) domain.User {
	src := object(raw)

	isVendor := strings.EqualFold(str(src, "role"), "vendor")
	if envelope.Has(src, "is_vendor") {
		isVendor = coerce.ToBoolean(src["is_vendor"], "user.is_vendor")
	}

	var loc string
	if s := str(src, "locale", "language"); s != "" {
		loc = locale.ParseOr(s, "").String()
	}

	return domain.User{
		ID:       id(src),
		Name:     str(src, "name"),
		Email:    str(src, "email"),
		Phone:    str(src, "phone"),
		Avatar:   n.image(first(src, "avatar", "avatar_url")),
		Locale:   loc,
		IsVendor: isVendor,
	}
}

// Coupon normalizes a coupon. A null or missing expiry both yield an empty
// ExpiresAt. Coupons are active unless the payload says otherwise.
func (n *Normalizer) Coupon(raw any) domain.Coupon {
	src := object(raw)

	kind := strings.ToLower(str(src, "type", "discount_type"))
	if kind == "percentage" {
		kind = domain.CouponTypePercent
	}

	active := true
	if envelope.Has(src, "is_active") {
		active = coerce.ToBoolean(src["is_active"], "coupon.is_active")
	}

	return domain.Coupon{
		ID:             id(src),
		Code:           str(src, "code"),
		Type:           kind,
		Value:          coerce.ToMoney(first(src, "value", "amount")),
		MinOrderAmount: coerce.ToMoney(first(src, "min_order_amount", "minimum_amount")),
		ExpiresAt:      str(src, "expires_at", "valid_until"),
		IsActive:       active,
	}
}

// Coupons normalizes a coupon collection.
func (n *Normalizer) Coupons(raw any) []domain.Coupon {
	items := envelope.UnwrapCollection(raw)
	out := make([]domain.Coupon, 0, len(items))
	for _, item := range items {
		out = append(out, n.Coupon(item))
	}
	return out
}

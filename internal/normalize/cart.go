package normalize

import (
	"github.com/utafrali/storefront/internal/coerce"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/envelope"
)

// CartItem normalizes a cart line. Missing product and variant ids fall back
// to the embedded references, and a missing unit price falls back to the
// variant price, then the product price. A variant without its own price
// inherits the product's.
func (n *Normalizer) CartItem(raw any) domain.CartItem {
	src := object(raw)

	item := domain.CartItem{
		ID:        id(src),
		ProductID: id(src, "product_id"),
		VariantID: id(src, "variant_id", "product_variant_id"),
		Quantity:  nonNegative(coerce.ToInt(first(src, "quantity", "qty"), 0)),
	}

	if p := nested(src, "product"); p != nil {
		product := n.Product(p)
		item.Product = &product
		if item.ProductID == 0 {
			item.ProductID = product.ID
		}
	}
	if v := nested(src, "variant"); v != nil {
		inherited := coerce.ZeroMoney
		if item.Product != nil {
			inherited = item.Product.Price
		}
		variant := n.variant(v, inherited)
		item.Variant = &variant
		if item.VariantID == 0 {
			item.VariantID = variant.ID
		}
	}

	switch {
	case envelope.Has(src, "unit_price"):
		item.UnitPrice = coerce.ToMoney(src["unit_price"])
	case envelope.Has(src, "price"):
		item.UnitPrice = coerce.ToMoney(src["price"])
	case item.Variant != nil:
		item.UnitPrice = item.Variant.Price
	case item.Product != nil:
		item.UnitPrice = item.Product.Price
	default:
		item.UnitPrice = coerce.ZeroMoney
	}

	if envelope.Has(src, "subtotal") {
		item.Subtotal = coerce.ToMoney(src["subtotal"])
	} else {
		item.Subtotal = coerce.MulMoney(item.UnitPrice, item.Quantity)
	}

	return item
}

// Cart normalizes a cart payload. items_count is always the sum of item
// quantities; subtotal falls back to the sum of item subtotals and total to
// the subtotal.
func (n *Normalizer) Cart(raw any) domain.Cart {
	src := object(raw)

	rawItems := envelope.UnwrapCollection(src["items"])
	cart := domain.Cart{Items: make([]domain.CartItem, 0, len(rawItems))}
	for _, item := range rawItems {
		cart.Items = append(cart.Items, n.CartItem(item))
	}

	cart.ItemsCount = cart.ItemCount()

	if envelope.Has(src, "subtotal") {
		cart.Subtotal = coerce.ToMoney(src["subtotal"])
	} else {
		cart.Subtotal = cart.ItemsSubtotal()
	}

	if envelope.Has(src, "total") {
		cart.Total = coerce.ToMoney(src["total"])
	} else {
		cart.Total = cart.Subtotal
	}

	return cart
}

package normalize

import (
	"strings"

	"github.com/utafrali/storefront/internal/coerce"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/envelope"
)

// Order normalizes a placed order.
func (n *Normalizer) Order(raw any) domain.Order {
	src := object(raw)

	rawItems := envelope.UnwrapCollection(first(src, "items", "order_items"))
	items := make([]domain.OrderItem, 0, len(rawItems))
	for _, item := range rawItems {
		items = append(items, n.OrderItem(item))
	}

	var subtotal string
	if envelope.Has(src, "subtotal") {
		subtotal = coerce.ToMoney(src["subtotal"])
	} else {
		amounts := make([]string, len(items))
		for i, item := range items {
			amounts[i] = item.Subtotal
		}
		subtotal = coerce.SumMoney(amounts...)
	}

	order := domain.Order{
		ID:            id(src),
		Number:        str(src, "number", "order_number"),
		Status:        strings.ToLower(str(src, "status")),
		PaymentStatus: strings.ToLower(str(src, "payment_status")),
		Subtotal:      subtotal,
		Shipping:      coerce.ToMoney(first(src, "shipping", "shipping_cost")),
		Discount:      coerce.ToMoney(first(src, "discount", "discount_amount")),
		Total:         subtotal,
		CreatedAt:     str(src, "created_at"),
		Items:         items,
	}
	if envelope.Has(src, "total") {
		order.Total = coerce.ToMoney(src["total"])
	}
	if order.Number == "" && order.ID != 0 {
		order.Number = coerce.ToSafeString(order.ID, "")
	}

	if a := nested(src, "shipping_address"); a != nil {
		address := n.Address(a)
		order.ShippingAddress = &address
	}

	return order
}

// OrderItem normalizes an order line. Name and image come from the line
// itself, falling back to the embedded product.
func (n *Normalizer) OrderItem(raw any) domain.OrderItem {
	src := object(raw)

	item := domain.OrderItem{
		ID:        id(src),
		ProductID: id(src, "product_id"),
		Name:      n.text(src, "name"),
		Image:     n.image(first(src, "image", "thumbnail")),
		Quantity:  nonNegative(coerce.ToInt(first(src, "quantity", "qty"), 0)),
		UnitPrice: coerce.ToMoney(first(src, "unit_price", "price")),
	}

	if p := nested(src, "product"); p != nil {
		product := n.Product(p)
		if item.ProductID == 0 {
			item.ProductID = product.ID
		}
		if item.Name == "" {
			item.Name = product.Name
		}
		if item.Image == "" {
			item.Image = product.Thumbnail
		}
		if !envelope.Has(src, "unit_price") && !envelope.Has(src, "price") {
			item.UnitPrice = product.Price
		}
	}

	if envelope.Has(src, "subtotal") {
		item.Subtotal = coerce.ToMoney(src["subtotal"])
	} else {
		item.Subtotal = coerce.MulMoney(item.UnitPrice, item.Quantity)
	}

	return item
}

// Orders normalizes an order collection.
func (n *Normalizer) Orders(raw any) []domain.Order {
	items := envelope.UnwrapCollection(raw)
	out := make([]domain.Order, 0, len(items))
	for _, item := range items {
		out = append(out, n.Order(item))
	}
	return out
}

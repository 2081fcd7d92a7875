package domain

import (
	"github.com/utafrali/storefront/internal/coerce"
)

// Cart represents the shopper's cart. Money fields are decimal strings with
// two places.
type Cart struct {
	Items      []CartItem `json:"items"`
	ItemsCount int        `json:"items_count"`
	Subtotal   string     `json:"subtotal"`
	Total      string     `json:"total"`
}

// CartItem represents a single line in the cart. Product and Variant are nil
// when the payload did not embed them.
type CartItem struct {
	ID        int64           `json:"id"`
	ProductID int64           `json:"product_id"`
	VariantID int64           `json:"variant_id"`
	Product   *Product        `json:"product,omitempty"`
	Variant   *ProductVariant `json:"variant,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice string          `json:"unit_price"`
	Subtotal  string          `json:"subtotal"`
}

// EmptyCart returns a cart with no items and zero totals.
func EmptyCart() Cart {
	return Cart{
		Items:    []CartItem{},
		Subtotal: coerce.ZeroMoney,
		Total:    coerce.ZeroMoney,
	}
}

// ItemCount returns the total quantity across all items.
func (c Cart) ItemCount() int {
	var count int
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// ItemsSubtotal sums the item subtotals.
func (c Cart) ItemsSubtotal() string {
	amounts := make([]string, len(c.Items))
	for i, item := range c.Items {
		amounts[i] = item.Subtotal
	}
	return coerce.SumMoney(amounts...)
}

// FindItemIndex returns the index of the item with the given id, or -1.
func (c Cart) FindItemIndex(itemID int64) int {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return i
		}
	}
	return -1
}

// Item returns the item with the given id.
func (c Cart) Item(itemID int64) (CartItem, bool) {
	if i := c.FindItemIndex(itemID); i >= 0 {
		return c.Items[i], true
	}
	return CartItem{}, false
}

// Recalculated returns a copy of c whose items_count, subtotal and total are
// derived from the item list alone. The local total cannot know about tax,
// shipping or coupon effects, so it equals the subtotal.
func (c Cart) Recalculated() Cart {
	c.ItemsCount = c.ItemCount()
	c.Subtotal = c.ItemsSubtotal()
	c.Total = c.Subtotal
	return c
}

// WithItemQuantity returns a recalculated copy of c in which the item's
// quantity is replaced and its subtotal recomputed from the unit price.
// c itself is left untouched.
func (c Cart) WithItemQuantity(itemID int64, quantity int) (Cart, bool) {
	i := c.FindItemIndex(itemID)
	if i < 0 {
		return c, false
	}
	items := make([]CartItem, len(c.Items))
	copy(items, c.Items)
	items[i] = items[i].WithQuantity(quantity)
	c.Items = items
	return c.Recalculated(), true
}

// WithoutItem returns a recalculated copy of c with the item excluded.
func (c Cart) WithoutItem(itemID int64) (Cart, bool) {
	i := c.FindItemIndex(itemID)
	if i < 0 {
		return c, false
	}
	items := make([]CartItem, 0, len(c.Items)-1)
	items = append(items, c.Items[:i]...)
	items = append(items, c.Items[i+1:]...)
	c.Items = items
	return c.Recalculated(), true
}

// WithTotals returns a copy of c carrying the given totals and the same items.
func (c Cart) WithTotals(subtotal, total string) Cart {
	c.Subtotal = subtotal
	c.Total = total
	return c
}

// WithQuantity returns a copy of the item with quantity replaced and the
// subtotal recomputed as round2(unit_price x quantity).
func (i CartItem) WithQuantity(quantity int) CartItem {
	if quantity < 0 {
		quantity = 0
	}
	i.Quantity = quantity
	i.Subtotal = coerce.MulMoney(i.UnitPrice, quantity)
	return i
}

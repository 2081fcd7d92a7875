package storefront

import (
	"context"
	"net/http"
)

type addItemRequest struct {
	ProductID int64 `json:"product_id"`
	VariantID int64 `json:"variant_id,omitempty"`
	Quantity  int   `json:"quantity"`
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

type couponRequest struct {
	Code string `json:"code"`
}

// FetchCart returns the raw authoritative cart.
func (c *Client) FetchCart(ctx context.Context) (any, error) {
	return c.get(ctx, "/cart", nil)
}

// AddItem adds a product, optionally a specific variant, to the cart.
func (c *Client) AddItem(ctx context.Context, productID, variantID int64, quantity int) (any, error) {
	return c.send(ctx, http.MethodPost, "/cart/items", addItemRequest{
		ProductID: productID,
		VariantID: variantID,
		Quantity:  quantity,
	})
}

// UpdateItemQuantity sets the quantity of a cart item.
func (c *Client) UpdateItemQuantity(ctx context.Context, itemID int64, quantity int) (any, error) {
	return c.send(ctx, http.MethodPatch, idPath("/cart/items", itemID), quantityRequest{Quantity: quantity})
}

// RemoveItem deletes a cart item. The API may answer with the updated cart
// or with an empty body.
func (c *Client) RemoveItem(ctx context.Context, itemID int64) (any, error) {
	return c.send(ctx, http.MethodDelete, idPath("/cart/items", itemID), nil)
}

// ApplyCoupon applies a coupon code to the cart.
func (c *Client) ApplyCoupon(ctx context.Context, code string) (any, error) {
	return c.send(ctx, http.MethodPost, "/cart/coupon", couponRequest{Code: code})
}

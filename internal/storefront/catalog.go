package storefront

import (
	"context"
	"net/url"
	"strconv"

	"github.com/utafrali/storefront/internal/domain"
)

// ProductQuery filters a product listing. Zero values are omitted.
type ProductQuery struct {
	CategoryID int64
	VendorID   int64
	Search     string
	Page       int
	PerPage    int
}

func (q ProductQuery) values() url.Values {
	v := url.Values{}
	if q.CategoryID > 0 {
		v.Set("category_id", strconv.FormatInt(q.CategoryID, 10))
	}
	if q.VendorID > 0 {
		v.Set("vendor_id", strconv.FormatInt(q.VendorID, 10))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(q.PerPage))
	}
	return v
}

// Slides returns the home-screen slides ordered for display.
func (c *Client) Slides(ctx context.Context) ([]domain.Slide, error) {
	raw, err := c.get(ctx, "/slides", nil)
	if err != nil {
		return nil, err
	}
	return c.normalizer().Slides(raw), nil
}

// Categories returns the category tree roots.
func (c *Client) Categories(ctx context.Context) ([]domain.Category, error) {
	raw, err := c.get(ctx, "/categories", nil)
	if err != nil {
		return nil, err
	}
	return c.normalizer().Categories(raw), nil
}

// Products returns one page of products matching q.
func (c *Client) Products(ctx context.Context, q ProductQuery) ([]domain.Product, error) {
	raw, err := c.get(ctx, "/products", q.values())
	if err != nil {
		return nil, err
	}
	return c.normalizer().Products(raw), nil
}

// Product returns a single product with its variants.
func (c *Client) Product(ctx context.Context, id int64) (domain.Product, error) {
	raw, err := c.get(ctx, idPath("/products", id), nil)
	if err != nil {
		return domain.Product{}, err
	}
	return c.normalizer().Product(raw), nil
}

// Vendor returns a single vendor.
func (c *Client) Vendor(ctx context.Context, id int64) (domain.Vendor, error) {
	raw, err := c.get(ctx, idPath("/vendors", id), nil)
	if err != nil {
		return domain.Vendor{}, err
	}
	return c.normalizer().Vendor(raw), nil
}

// Orders returns the signed-in user's order history.
func (c *Client) Orders(ctx context.Context) ([]domain.Order, error) {
	raw, err := c.get(ctx, "/orders", nil)
	if err != nil {
		return nil, err
	}
	return c.normalizer().Orders(raw), nil
}

// Addresses returns the signed-in user's saved addresses.
func (c *Client) Addresses(ctx context.Context) ([]domain.Address, error) {
	raw, err := c.get(ctx, "/addresses", nil)
	if err != nil {
		return nil, err
	}
	return c.normalizer().Addresses(raw), nil
}

// Me returns the signed-in user.
func (c *Client) Me(ctx context.Context) (domain.User, error) {
	raw, err := c.get(ctx, "/me", nil)
	if err != nil {
		return domain.User{}, err
	}
	return c.normalizer().User(raw), nil
}

// Coupons returns the coupons available to the user.
func (c *Client) Coupons(ctx context.Context) ([]domain.Coupon, error) {
	raw, err := c.get(ctx, "/coupons", nil)
	if err != nil {
		return nil, err
	}
	return c.normalizer().Coupons(raw), nil
}

// Package domain defines the canonical storefront entities. Values of these
// types are always fully populated: absent data is represented by the zero
// value or an empty, non-nil collection, never by a partially built struct.
package domain

// Slide is a home-screen banner.
type Slide struct {
	ID           int64                `json:"id"`
	Title        string               `json:"title"`
	Subtitle     string               `json:"subtitle"`
	Image        string               `json:"image"`
	Link         string               `json:"link"`
	SortOrder    int                  `json:"sort_order"`
	Translations map[string]SlideText `json:"translations"`
}

// SlideText is the copy of a slide in one locale.
type SlideText struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
}

// Category is a node of the catalog tree.
type Category struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	Slug          string     `json:"slug"`
	Description   string     `json:"description"`
	Image         string     `json:"image"`
	HeroImages    []string   `json:"hero_images"`
	ParentID      int64      `json:"parent_id"`
	ProductsCount int        `json:"products_count"`
	Children      []Category `json:"children"`
}

// IsRoot reports whether the category has no parent.
func (c Category) IsRoot() bool { return c.ParentID == 0 }

// Vendor is a seller on the marketplace.
type Vendor struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Logo        string `json:"logo"`
	Banner      string `json:"banner"`
	Status      string `json:"status"`
	IsVerified  bool   `json:"is_verified"`
}

// VendorStatusApproved marks a vendor the marketplace has vetted.
const VendorStatusApproved = "approved"

// ProductVariant is a purchasable option of a product (size, color...).
type ProductVariant struct {
	ID           int64             `json:"id"`
	Name         string            `json:"name"`
	SKU          string            `json:"sku"`
	Price        string            `json:"price"`
	ComparePrice string            `json:"compare_price"`
	Stock        int               `json:"stock"`
	Attributes   map[string]string `json:"attributes"`
}

// Product is a catalog item. Category and Vendor are nil when the payload
// did not embed them.
type Product struct {
	ID            int64            `json:"id"`
	Name          string           `json:"name"`
	Slug          string           `json:"slug"`
	Description   string           `json:"description"`
	Price         string           `json:"price"`
	ComparePrice  string           `json:"compare_price"`
	Images        []string         `json:"images"`
	Thumbnail     string           `json:"thumbnail"`
	Category      *Category        `json:"category,omitempty"`
	Vendor        *Vendor          `json:"vendor,omitempty"`
	Variants      []ProductVariant `json:"variants"`
	InStock       bool             `json:"in_stock"`
	AverageRating float64          `json:"average_rating"`
	ReviewsCount  int              `json:"reviews_count"`
}

// FindVariant returns the variant with the given id.
func (p Product) FindVariant(id int64) (ProductVariant, bool) {
	for _, v := range p.Variants {
		if v.ID == id {
			return v, true
		}
	}
	return ProductVariant{}, false
}

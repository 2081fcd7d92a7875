package normalize

import (
	"sort"
	"strings"

	"github.com/utafrali/storefront/internal/coerce"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/envelope"
	"github.com/utafrali/storefront/internal/locale"
)

// Slide normalizes a home-screen slide. Title and subtitle resolve for the
// active locale; Translations carries the copy for every supported locale
// that has any.
func (n *Normalizer) Slide(raw any) domain.Slide {
	src := object(raw)

	translations := make(map[string]domain.SlideText)
	for _, loc := range n.supported {
		title, _ := locale.Lookup(src, "title", loc)
		subtitle, _ := locale.Lookup(src, "subtitle", loc)
		if title == "" && subtitle == "" {
			continue
		}
		translations[string(loc)] = domain.SlideText{Title: title, Subtitle: subtitle}
	}

	return domain.Slide{
		ID:           id(src),
		Title:        n.text(src, "title"),
		Subtitle:     n.text(src, "subtitle"),
		Image:        n.image(first(src, "image", "image_url")),
		Link:         str(src, "link", "url"),
		SortOrder:    coerce.ToInt(first(src, "sort_order", "order"), 0),
		Translations: translations,
	}
}

// Slides normalizes a slide collection, ordered by sort_order.
func (n *Normalizer) Slides(raw any) []domain.Slide {
	items := envelope.UnwrapCollection(raw)
	out := make([]domain.Slide, 0, len(items))
	for _, item := range items {
		out = append(out, n.Slide(item))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out
}

// Category normalizes a category and, recursively, its children. The tree is
// assumed finite and acyclic.
func (n *Normalizer) Category(raw any) domain.Category {
	src := object(raw)

	children := []domain.Category{}
	for _, child := range envelope.UnwrapCollection(src["children"]) {
		children = append(children, n.Category(child))
	}

	return domain.Category{
		ID:            id(src),
		Name:          n.text(src, "name"),
		Slug:          str(src, "slug"),
		Description:   n.text(src, "description"),
		Image:         n.image(first(src, "image", "image_url", "icon")),
		HeroImages:    n.imageList(src["hero_images"]),
		ParentID:      id(src, "parent_id"),
		ProductsCount: nonNegative(coerce.ToInt(first(src, "products_count", "product_count"), 0)),
		Children:      children,
	}
}

// Categories normalizes a category collection.
func (n *Normalizer) Categories(raw any) []domain.Category {
	items := envelope.UnwrapCollection(raw)
	out := make([]domain.Category, 0, len(items))
	for _, item := range items {
		out = append(out, n.Category(item))
	}
	return out
}

// Vendor normalizes a vendor. Without an explicit is_verified flag the vendor
// counts as verified when its status is "approved".
func (n *Normalizer) Vendor(raw any) domain.Vendor {
	src := object(raw)
	status := strings.ToLower(str(src, "status"))

	verified := status == domain.VendorStatusApproved
	if envelope.Has(src, "is_verified") {
		verified = coerce.ToBoolean(src["is_verified"], "vendor.is_verified")
	}

	return domain.Vendor{
		ID:          id(src),
		Name:        n.text(src, "name"),
		Slug:        str(src, "slug"),
		Description: n.text(src, "description"),
		Logo:        n.image(first(src, "logo", "logo_url")),
		Banner:      n.image(first(src, "banner", "banner_url", "cover")),
		Status:      status,
		IsVerified:  verified,
	}
}

// ProductVariant normalizes a variant. Negative stock is clamped to zero.
func (n *Normalizer) ProductVariant(raw any) domain.ProductVariant {
	return n.variant(object(raw), coerce.ZeroMoney)
}

func (n *Normalizer) variant(src map[string]any, inheritedPrice string) domain.ProductVariant {
	price := inheritedPrice
	if envelope.Has(src, "price") {
		price = coerce.ToMoney(src["price"])
	}

	return domain.ProductVariant{
		ID:           id(src),
		Name:         n.text(src, "name"),
		SKU:          str(src, "sku"),
		Price:        price,
		ComparePrice: coerce.ToOptionalMoney(first(src, "compare_price", "compare_at_price")),
		Stock:        nonNegative(coerce.ToInt(first(src, "stock", "quantity"), 0)),
		Attributes:   attributes(src["attributes"]),
	}
}

// attributes accepts either a flat object or a list of {name, value} rows.
func attributes(v any) map[string]string {
	out := make(map[string]string)
	switch x := v.(type) {
	case map[string]any:
		for k, val := range x {
			if val == nil {
				continue
			}
			out[k] = coerce.ToSafeString(val, "")
		}
	case []any:
		for _, row := range x {
			m, ok := row.(map[string]any)
			if !ok {
				continue
			}
			name := str(m, "name", "key", "attribute")
			if name == "" {
				continue
			}
			out[name] = str(m, "value")
		}
	}
	return out
}

// Product normalizes a product with its embedded references. Category and
// Vendor are only set when the payload embeds them. Without an explicit
// in_stock flag a product is in stock when any variant, or the product
// itself, has stock left.
func (n *Normalizer) Product(raw any) domain.Product {
	src := object(raw)

	rawVariants := envelope.UnwrapCollection(src["variants"])
	price := coerce.ZeroMoney
	switch {
	case envelope.Has(src, "price"):
		price = coerce.ToMoney(src["price"])
	case len(rawVariants) > 0:
		price = lowestPrice(rawVariants)
	}

	variants := make([]domain.ProductVariant, 0, len(rawVariants))
	for _, v := range rawVariants {
		variants = append(variants, n.variant(envelope.Object(v), price))
	}

	images := n.imageList(src["images"])
	if len(images) == 0 {
		if img := n.image(src["image"]); img != "" {
			images = append(images, img)
		}
	}

	thumbnail := n.image(first(src, "thumbnail", "thumbnail_url"))
	if thumbnail == "" && len(images) > 0 {
		thumbnail = images[0]
	}

	inStock := coerce.ToInt(src["stock"], 0) > 0
	for _, v := range variants {
		if v.Stock > 0 {
			inStock = true
			break
		}
	}
	if envelope.Has(src, "in_stock") {
		inStock = coerce.ToBoolean(src["in_stock"], "product.in_stock")
	}

	p := domain.Product{
		ID:            id(src),
		Name:          n.text(src, "name"),
		Slug:          str(src, "slug"),
		Description:   n.text(src, "description"),
		Price:         price,
		ComparePrice:  coerce.ToOptionalMoney(first(src, "compare_price", "compare_at_price")),
		Images:        images,
		Thumbnail:     thumbnail,
		Variants:      variants,
		InStock:       inStock,
		AverageRating: coerce.ToSafeNumber(first(src, "average_rating", "rating"), 0),
		ReviewsCount:  nonNegative(coerce.ToInt(first(src, "reviews_count", "review_count"), 0)),
	}

	if c := nested(src, "category"); c != nil {
		category := n.Category(c)
		p.Category = &category
	}
	if v := nested(src, "vendor"); v != nil {
		vendor := n.Vendor(v)
		p.Vendor = &vendor
	}

	return p
}

// Products normalizes a product collection.
func (n *Normalizer) Products(raw any) []domain.Product {
	items := envelope.UnwrapCollection(raw)
	out := make([]domain.Product, 0, len(items))
	for _, item := range items {
		out = append(out, n.Product(item))
	}
	return out
}

// lowestPrice returns the cheapest explicit variant price.
func lowestPrice(variants []any) string {
	var lowest string
	for _, v := range variants {
		src := envelope.Object(v)
		if !envelope.Has(src, "price") {
			continue
		}
		d, ok := coerce.ToDecimal(src["price"])
		if !ok {
			continue
		}
		if lowest == "" {
			lowest = d.StringFixed(2)
			continue
		}
		cur, _ := coerce.ToDecimal(lowest)
		if d.LessThan(cur) {
			lowest = d.StringFixed(2)
		}
	}
	if lowest == "" {
		return coerce.ZeroMoney
	}
	return lowest
}

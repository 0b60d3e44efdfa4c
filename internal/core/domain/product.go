package domain

// ProductSummary is the display slice of a product needed to render a cart
// line: name, current price, images, and the variant axes the product offers.
type ProductSummary struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Price     float64  `json:"price"`
	ImageURLs []string `json:"image_urls"`
	ColorIDs  []string `json:"color_ids,omitempty"`
	SizeIDs   []string `json:"size_ids,omitempty"`
	Stock     int      `json:"stock"`
}

// RequiresVariant reports whether adding this product to a cart needs an
// explicit color/size selection. Quick-add paths must check this and redirect
// to the detail view instead of guessing a variant.
func (p *ProductSummary) RequiresVariant() bool {
	return len(p.ColorIDs) > 0 || len(p.SizeIDs) > 0
}

// HydratedCartEntry is a CartEntry enriched for display. It is recomputed on
// every cart view and never persisted. A nil Product marks a degraded row
// (product deleted or fetch failed); the row is still shown, not dropped.
type HydratedCartEntry struct {
	CartEntry
	Product *ProductSummary  `json:"product"`
	Color   *AttributeOption `json:"color"`
	Size    *AttributeOption `json:"size"`
}

// LineTotal is price times quantity, zero for degraded rows.
func (h HydratedCartEntry) LineTotal() float64 {
	if h.Product == nil {
		return 0
	}
	return h.Product.Price * float64(h.Quantity)
}

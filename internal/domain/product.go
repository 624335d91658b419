package domain

import "context"

// Product is a search hit. Variants is attached by enrichment; it stays empty
// when the per-product lookup failed, and EnrichFailed records that.
type Product struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Handle       string    `json:"handle"`
	Image        string    `json:"image"`
	Price        int64     `json:"price"` // minor currency units
	Variants     []Variant `json:"variants"`
	EnrichFailed bool      `json:"-"`
}

type Variant struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Available bool   `json:"available"`
	Price     int64  `json:"price"`
	SKU       string `json:"sku"`
}

// FirstAvailable returns the first variant flagged available, in list order.
func (p *Product) FirstAvailable() (Variant, bool) {
	for _, v := range p.Variants {
		if v.Available {
			return v, true
		}
	}
	return Variant{}, false
}

// --- Interfaces ---

type CatalogAPI interface {
	// SearchProducts returns at most limit product stubs for query, in
	// relevance order. Stubs carry no variants.
	SearchProducts(ctx context.Context, query string, limit int) ([]Product, error)
	// ProductByHandle returns the full product including its variant list.
	ProductByHandle(ctx context.Context, handle string) (*Product, error)
}

package domain

import "context"

// --- Cart Entities ---

type Cart struct {
	Token     string     `json:"token"`
	ItemCount int        `json:"item_count"`
	Items     []CartLine `json:"items"`
}

type CartLine struct {
	ProductID int64  `json:"product_id"`
	VariantID int64  `json:"variant_id"`
	Quantity  int    `json:"quantity"`
	Title     string `json:"title"`
}

// CartProductIDSet is a complete snapshot of the products in a cart.
type CartProductIDSet map[int64]struct{}

// ProductIDs builds the snapshot from the cart lines.
func (c *Cart) ProductIDs() CartProductIDSet {
	set := make(CartProductIDSet, len(c.Items))
	for _, item := range c.Items {
		set[item.ProductID] = struct{}{}
	}
	return set
}

func (s CartProductIDSet) Contains(id int64) bool {
	_, ok := s[id]
	return ok
}

// --- Interfaces ---

type CartAPI interface {
	GetCart(ctx context.Context) (*Cart, error)
	// AddItem adds quantity of variantID and returns the raw response body.
	// A non-2xx answer is reported as *APIError.
	AddItem(ctx context.Context, variantID int64, quantity int) (RawJSON, error)
}

// CartCountRefresher is the optional capability of refreshing a cart-count
// display after a mutation.
type CartCountRefresher interface {
	RefreshCartCount(ctx context.Context) error
}

// NopCartCount is used where no cart-count display exists.
type NopCartCount struct{}

func (NopCartCount) RefreshCartCount(context.Context) error { return nil }

// CartChangeSource reports changes to the cart made outside the widget.
type CartChangeSource interface {
	// Watch calls fn on every detected change until stop is called.
	Watch(fn func()) (stop func())
}

package terminal

import (
	"context"
	"fmt"
	"io"
	"predictive-search/internal/domain"
	"sync"
)

// View renders widget output as plain text lines and remembers the products
// on screen so a command can refer to them by position.
type View struct {
	mu    sync.Mutex
	out   io.Writer
	carts domain.CartAPI
	shown []domain.Product
}

// NewView writes to out. carts backs the cart count line and may be nil.
func NewView(out io.Writer, carts domain.CartAPI) *View {
	return &View{out: out, carts: carts}
}

func (v *View) Render(result domain.SearchResult) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.shown = append([]domain.Product(nil), result.Products...)

	fmt.Fprintf(v.out, "Results for %q:\n", result.Query)
	for i, p := range result.Products {
		fmt.Fprintf(v.out, "  %2d. %-32s %10s  %s\n", i+1, p.Title, FormatPrice(p.Price), availability(p))
	}
}

func (v *View) ShowLoading() {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintln(v.out, "Searching...")
}

func (v *View) Hide() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.shown == nil {
		return
	}
	v.shown = nil
	fmt.Fprintln(v.out, "(results hidden)")
}

func (v *View) Notify(message string, severity domain.Severity) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintf(v.out, "[%s] %s\n", severity, message)
}

// Product returns the product shown at 1-based position n.
func (v *View) Product(n int) (domain.Product, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if n < 1 || n > len(v.shown) {
		return domain.Product{}, false
	}
	return v.shown[n-1], true
}

// RefreshCartCount prints the current cart item count.
func (v *View) RefreshCartCount(ctx context.Context) error {
	if v.carts == nil {
		return nil
	}
	cart, err := v.carts.GetCart(ctx)
	if err != nil {
		return fmt.Errorf("cart count: %w", err)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintf(v.out, "Cart: %d item(s)\n", cart.ItemCount)
	return nil
}

// FormatPrice renders minor units with two decimals.
func FormatPrice(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}

func availability(p domain.Product) string {
	switch {
	case p.EnrichFailed:
		return "details unavailable"
	case len(p.Variants) == 0:
		return ""
	}
	if _, ok := p.FirstAvailable(); ok {
		return "in stock"
	}
	return "sold out"
}

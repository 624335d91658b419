package domain

// SearchResult is the enriched page of products fetched for one query.
type SearchResult struct {
	Query    string    `json:"query"`
	Products []Product `json:"products"`
}

// Without returns a copy of r holding only products not in set. The backing
// product slice of r is never modified since cached results are shared.
func (r SearchResult) Without(set CartProductIDSet) SearchResult {
	out := SearchResult{Query: r.Query, Products: make([]Product, 0, len(r.Products))}
	for _, p := range r.Products {
		if set.Contains(p.ID) {
			continue
		}
		out.Products = append(out.Products, p)
	}
	return out
}

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// View is the presentation layer the widget drives. Render, ShowLoading and
// Hide are serialized by the Coordinator, which holds its lock while calling
// them, so they must not call back into it. Notify may arrive concurrently
// from the cart mutation path.
type View interface {
	Render(result SearchResult)
	ShowLoading()
	Hide()
	Notify(message string, severity Severity)
}

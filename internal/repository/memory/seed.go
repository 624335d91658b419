package memory

import "predictive-search/internal/domain"

type seedProduct struct {
	title    string
	price    int64
	variants []domain.Variant
}

var demoCatalog = []seedProduct{
	{"Classic Oxford Shirt", 4900, sizes(true, true, true)},
	{"Linen Camp Shirt", 5900, sizes(false, true, true)},
	{"Flannel Work Shirt", 6400, sizes(true, false, false)},
	{"Chambray Shirt Jacket", 8900, sizes(false, false, false)},
	{"Striped Breton Shirt", 3900, sizes(true, true, false)},
	{"Heavyweight Pocket Tee", 2900, sizes(true, true, true)},
	{"Merino Crew Sweater", 9900, sizes(true, false, true)},
	{"Canvas Low-Top Shoes", 6900, []domain.Variant{{Title: "42", Available: true}, {Title: "43", Available: true}}},
	{"Leather Chelsea Boots", 18900, []domain.Variant{{Title: "42", Available: false}, {Title: "43", Available: true}}},
	{"Waxed Cotton Shorts", 4500, sizes(true, true, true)},
	{"Wool Beanie", 2500, []domain.Variant{{Title: "One Size", Available: true}}},
	{"Shirt Stays (Pair)", 1500, []domain.Variant{{Title: "Default", Available: true}}},
}

func sizes(s, m, l bool) []domain.Variant {
	return []domain.Variant{
		{Title: "S", Available: s},
		{Title: "M", Available: m},
		{Title: "L", Available: l},
	}
}

// Seed fills s with a small apparel catalog.
func Seed(s *Store) {
	for _, sp := range demoCatalog {
		s.AddProduct(domain.Product{
			Title:    sp.title,
			Price:    sp.price,
			Image:    "https://cdn.example.test/products/placeholder.jpg",
			Variants: sp.variants,
		})
	}
}

package memory

import (
	"errors"
	"predictive-search/internal/domain"
	"predictive-search/pkg/utils"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrVariantNotFound = errors.New("variant not found")
)

// LineRequest is one entry of a cart add.
type LineRequest struct {
	VariantID int64
	Quantity  int
}

type variantRef struct {
	product int
	variant int
}

// Store is the in-memory catalog and cart state behind the stub storefront.
// Products are kept in insertion order, which doubles as relevance order.
type Store struct {
	mu       sync.RWMutex
	products []domain.Product
	byHandle map[string]int
	variants map[int64]variantRef
	carts    map[string]*domain.Cart
	nextID   int64
}

func NewStore() *Store {
	return &Store{
		byHandle: make(map[string]int),
		variants: make(map[int64]variantRef),
		carts:    make(map[string]*domain.Cart),
		nextID:   1000,
	}
}

// AddProduct registers p and returns it with ids and handle filled in. A
// missing handle is derived from the title, zero ids are assigned and
// variants inherit the product price and a handle-based SKU.
func (s *Store) AddProduct(p domain.Product) domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == 0 {
		p.ID = s.id()
	}
	if p.Handle == "" {
		p.Handle = utils.GenerateSlug(p.Title)
	}
	p.Variants = append([]domain.Variant(nil), p.Variants...)
	for i := range p.Variants {
		if p.Variants[i].ID == 0 {
			p.Variants[i].ID = s.id()
		}
		if p.Variants[i].Price == 0 {
			p.Variants[i].Price = p.Price
		}
		if p.Variants[i].SKU == "" {
			p.Variants[i].SKU = p.Handle + "-" + utils.GenerateSlug(p.Variants[i].Title)
		}
	}

	idx := len(s.products)
	if existing, ok := s.byHandle[p.Handle]; ok {
		idx = existing
		for _, old := range s.products[idx].Variants {
			delete(s.variants, old.ID)
		}
		s.products[idx] = p
	} else {
		s.products = append(s.products, p)
		s.byHandle[p.Handle] = idx
	}
	for vi, v := range p.Variants {
		s.variants[v.ID] = variantRef{product: idx, variant: vi}
	}
	return clone(p)
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// Search matches products whose title or handle contains every word of
// query, case-insensitively.
func (s *Store) Search(query string, limit int) []domain.Product {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 || limit <= 0 {
		return []domain.Product{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Product, 0, limit)
	for _, p := range s.products {
		haystack := strings.ToLower(p.Title + " " + p.Handle)
		if !containsAll(haystack, terms) {
			continue
		}
		out = append(out, clone(p))
		if len(out) == limit {
			break
		}
	}
	return out
}

func containsAll(s string, terms []string) bool {
	for _, t := range terms {
		if !strings.Contains(s, t) {
			return false
		}
	}
	return true
}

func (s *Store) ProductByHandle(handle string) (domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.byHandle[handle]
	if !ok {
		return domain.Product{}, ErrProductNotFound
	}
	return clone(s.products[idx]), nil
}

// SetAvailable flips the availability of one variant.
func (s *Store) SetAvailable(variantID int64, available bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ref, ok := s.variants[variantID]
	if !ok {
		return ErrVariantNotFound
	}
	s.products[ref.product].Variants[ref.variant].Available = available
	return nil
}

// NewCartToken returns a token for a cart that does not exist yet.
func (s *Store) NewCartToken() string {
	return uuid.NewString()
}

// Cart returns a copy of the cart for token. Unknown tokens yield an empty
// cart.
func (s *Store) Cart(token string) domain.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.carts[token]
	if !ok {
		return domain.Cart{Token: token, Items: []domain.CartLine{}}
	}
	out := *c
	out.Items = append([]domain.CartLine{}, c.Items...)
	return out
}

// AddItems adds every line or none. It returns the added lines as they now
// stand in the cart. Unknown variants yield ErrVariantNotFound, unavailable
// ones domain.ErrVariantUnavailable.
func (s *Store) AddItems(token string, lines []LineRequest) ([]domain.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, l := range lines {
		ref, ok := s.variants[l.VariantID]
		if !ok {
			return nil, ErrVariantNotFound
		}
		if !s.products[ref.product].Variants[ref.variant].Available {
			return nil, domain.ErrVariantUnavailable
		}
	}

	cart, ok := s.carts[token]
	if !ok {
		cart = &domain.Cart{Token: token, Items: []domain.CartLine{}}
		s.carts[token] = cart
	}

	added := make([]domain.CartLine, 0, len(lines))
	for _, l := range lines {
		qty := l.Quantity
		if qty <= 0 {
			qty = 1
		}
		ref := s.variants[l.VariantID]
		p := s.products[ref.product]

		pos := -1
		for i, item := range cart.Items {
			if item.VariantID == l.VariantID {
				pos = i
				break
			}
		}
		if pos < 0 {
			cart.Items = append(cart.Items, domain.CartLine{ProductID: p.ID, VariantID: l.VariantID, Title: p.Title})
			pos = len(cart.Items) - 1
		}
		cart.Items[pos].Quantity += qty
		cart.ItemCount += qty
		added = append(added, cart.Items[pos])
	}
	return added, nil
}

func clone(p domain.Product) domain.Product {
	p.Variants = append([]domain.Variant{}, p.Variants...)
	return p
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"predictive-search/internal/domain"
	memcache "predictive-search/internal/infrastructure/cache"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

var nopLog = zerolog.Nop()

// --- catalog ---

type fakeCatalog struct {
	mu        sync.Mutex
	results   map[string][]domain.Product
	products  map[string]*domain.Product
	failing   map[string]bool
	searchErr error
	searches  []string
	cancelled []string
	gates     map[string]chan struct{}
	// ignoreCancel makes a gated search return its results even after its
	// context was cancelled, like a response that arrives late.
	ignoreCancel bool
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		results:  map[string][]domain.Product{},
		products: map[string]*domain.Product{},
		failing:  map[string]bool{},
		gates:    map[string]chan struct{}{},
	}
}

// addProduct registers a product under query and makes its handle resolvable.
func (f *fakeCatalog) addProduct(query string, p domain.Product) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stub := p
	stub.Variants = nil
	f.results[query] = append(f.results[query], stub)
	full := p
	f.products[p.Handle] = &full
}

func (f *fakeCatalog) gate(query string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[query] = ch
	return ch
}

func (f *fakeCatalog) SearchProducts(ctx context.Context, query string, limit int) ([]domain.Product, error) {
	f.mu.Lock()
	f.searches = append(f.searches, query)
	gate := f.gates[query]
	ignore := f.ignoreCancel
	f.mu.Unlock()

	if gate != nil {
		if ignore {
			<-gate
		} else {
			select {
			case <-gate:
			case <-ctx.Done():
				f.mu.Lock()
				f.cancelled = append(f.cancelled, query)
				f.mu.Unlock()
				return nil, ctx.Err()
			}
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	res := append([]domain.Product(nil), f.results[query]...)
	if len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

func (f *fakeCatalog) ProductByHandle(ctx context.Context, handle string) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing[handle] {
		return nil, errors.New("lookup failed")
	}
	p, ok := f.products[handle]
	if !ok {
		return nil, &domain.APIError{Status: 404}
	}
	if p == nil {
		return nil, nil
	}
	cp := *p
	cp.Variants = append([]domain.Variant(nil), p.Variants...)
	return &cp, nil
}

func (f *fakeCatalog) searchLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.searches...)
}

func (f *fakeCatalog) cancelLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.cancelled...)
}

// --- cart ---

type fakeCarts struct {
	mu       sync.Mutex
	cart     domain.Cart
	getErr   error
	addErr   error
	getGate  chan struct{}
	adds     []int64
	gets     int
	variants map[int64]int64 // variant -> product, used to mirror adds into the cart
}

func newFakeCarts() *fakeCarts {
	return &fakeCarts{variants: map[int64]int64{}}
}

func (f *fakeCarts) GetCart(ctx context.Context) (*domain.Cart, error) {
	f.mu.Lock()
	f.gets++
	gate := f.getGate
	// snapshot before waiting: a gated read returns the cart as it was
	snapshot := f.cart
	snapshot.Items = append([]domain.CartLine(nil), f.cart.Items...)
	err := f.getErr
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (f *fakeCarts) AddItem(ctx context.Context, variantID int64, quantity int) (domain.RawJSON, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.adds = append(f.adds, variantID)
	if f.addErr != nil {
		return nil, f.addErr
	}
	f.cart.Items = append(f.cart.Items, domain.CartLine{ProductID: f.variants[variantID], VariantID: variantID, Quantity: quantity})
	f.cart.ItemCount += quantity
	return domain.RawJSON(fmt.Sprintf(`{"items":[{"id":%d,"quantity":%d}]}`, variantID, quantity)), nil
}

func (f *fakeCarts) setCart(items ...domain.CartLine) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cart = domain.Cart{Token: "t", Items: items, ItemCount: len(items)}
}

func (f *fakeCarts) addLog() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.adds...)
}

// --- view ---

type viewEvent struct {
	kind     string // render, loading, hide, notify
	result   domain.SearchResult
	message  string
	severity domain.Severity
}

type fakeView struct {
	mu     sync.Mutex
	events []viewEvent
}

func (v *fakeView) Render(r domain.SearchResult) { v.record(viewEvent{kind: "render", result: r}) }
func (v *fakeView) ShowLoading() { v.record(viewEvent{kind: "loading"}) }
func (v *fakeView) Hide() { v.record(viewEvent{kind: "hide"}) }
func (v *fakeView) Notify(msg string, s domain.Severity) {
	v.record(viewEvent{kind: "notify", message: msg, severity: s})
}

func (v *fakeView) record(e viewEvent) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.events = append(v.events, e)
}

func (v *fakeView) all() []viewEvent {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]viewEvent(nil), v.events...)
}

func (v *fakeView) last() viewEvent {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.events) == 0 {
		return viewEvent{}
	}
	return v.events[len(v.events)-1]
}

func (v *fakeView) renders() []domain.SearchResult {
	var out []domain.SearchResult
	for _, e := range v.all() {
		if e.kind == "render" {
			out = append(out, e.result)
		}
	}
	return out
}

func (v *fakeView) notifications() []viewEvent {
	var out []viewEvent
	for _, e := range v.all() {
		if e.kind == "notify" {
			out = append(out, e)
		}
	}
	return out
}

// --- bus ---

type fakeBus struct {
	mu        sync.Mutex
	published []domain.Event
	handlers  map[domain.Topic][]func(domain.Event)
}

func newFakeBus() *fakeBus {
	return &fakeBus{handlers: map[domain.Topic][]func(domain.Event){}}
}

func (b *fakeBus) Publish(ctx context.Context, e domain.Event) {
	b.mu.Lock()
	b.published = append(b.published, e)
	hs := append(([]func(domain.Event))(nil), b.handlers[e.Topic]...)
	b.mu.Unlock()
	for _, h := range hs {
		h(e)
	}
}

func (b *fakeBus) Subscribe(topic domain.Topic, h func(domain.Event)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], h)
	idx := len(b.handlers[topic]) - 1
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.handlers[topic][idx] = func(domain.Event) {}
	}
}

func (b *fakeBus) events() []domain.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.Event(nil), b.published...)
}

// --- harness ---

const testDebounce = 10 * time.Millisecond

type harness struct {
	catalog *fakeCatalog
	carts   *fakeCarts
	view    *fakeView
	tracker *CartTracker
	cache   *ResultCache
	coord   *Coordinator
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		catalog: newFakeCatalog(),
		carts:   newFakeCarts(),
		view:    &fakeView{},
	}
	h.tracker = NewCartTracker(h.carts, &nopLog)
	h.cache = NewResultCache(memcache.NewMemoryCache(-1, time.Minute), 10, 0)
	h.coord = NewCoordinator(h.catalog, h.tracker, NewEnricher(h.catalog, 4, &nopLog), h.cache, h.view, SearchOptions{
		Debounce:       testDebounce,
		MinQueryLength: 3,
		PageSize:       10,
		Logger:         &nopLog,
	})
	t.Cleanup(h.coord.Close)
	return h
}

func product(id int64, handle string, variants ...domain.Variant) domain.Product {
	return domain.Product{ID: id, Title: handle, Handle: handle, Price: 1000 + id, Variants: variants}
}

func ids(r domain.SearchResult) []int64 {
	out := make([]int64, len(r.Products))
	for i, p := range r.Products {
		out[i] = p.ID
	}
	return out
}

package usecase

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"predictive-search/internal/domain"
	"predictive-search/internal/infrastructure/storefront"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRefresher struct{ calls atomic.Int32 }

func (c *countingRefresher) RefreshCartCount(context.Context) error {
	c.calls.Add(1)
	return nil
}

type mutationFixture struct {
	*harness
	bus     *fakeBus
	counter *countingRefresher
	handler *CartMutationHandler
}

func newMutationFixture(t *testing.T) *mutationFixture {
	h := newHarness(t)
	f := &mutationFixture{harness: h, bus: newFakeBus(), counter: &countingRefresher{}}
	f.handler = NewCartMutationHandler(h.catalog, h.carts, h.tracker, f.bus, f.counter, h.view, &nopLog)
	return f
}

func TestAddToCart_FirstAvailableVariant(t *testing.T) {
	f := newMutationFixture(t)
	tee := product(5, "tee", domain.Variant{ID: 50, Available: false}, domain.Variant{ID: 51, Available: true})
	f.catalog.addProduct("tee", tee)
	f.carts.variants[51] = 5

	// the stub from search time claims nothing is available; fresh data wins
	stale := tee
	stale.Variants = []domain.Variant{{ID: 50, Available: false}}
	raw, err := f.handler.AddToCart(context.Background(), stale)
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[{"id":51,"quantity":1}]}`, string(raw))

	assert.Equal(t, []int64{51}, f.carts.addLog())
	assert.True(t, f.tracker.Contains(5))
	assert.Equal(t, int32(1), f.counter.calls.Load())

	events := f.bus.events()
	require.Len(t, events, 1)
	assert.Equal(t, domain.TopicCartChanged, events[0].Topic)
	assert.Equal(t, EventSource, events[0].Source)
	payload, ok := events[0].Payload.(domain.CartChanged)
	require.True(t, ok)
	assert.Equal(t, int64(51), payload.VariantID)
	assert.Equal(t, raw, payload.Response)

	notes := f.view.notifications()
	require.Len(t, notes, 1)
	assert.Equal(t, domain.SeveritySuccess, notes[0].severity)
}

func TestAddToCart_NoAvailableVariant(t *testing.T) {
	f := newMutationFixture(t)
	f.catalog.addProduct("tee", product(5, "tee", domain.Variant{ID: 50}, domain.Variant{ID: 52}))

	_, err := f.handler.AddToCart(context.Background(), product(5, "tee"))

	var mErr *domain.MutationError
	require.True(t, errors.As(err, &mErr))
	assert.Equal(t, domain.MutationUnavailable, mErr.Kind)
	assert.ErrorIs(t, err, domain.ErrVariantUnavailable)
	assert.Empty(t, f.carts.addLog())
	assert.Empty(t, f.bus.events())
	assert.False(t, f.tracker.Contains(5))
	assert.Equal(t, MsgUnavailable, f.view.last().message)
}

func TestAddToCart_EmptyLookupIsUnavailable(t *testing.T) {
	f := newMutationFixture(t)
	f.catalog.products["tee"] = nil

	_, err := f.handler.AddToCart(context.Background(), product(5, "tee"))

	var mErr *domain.MutationError
	require.True(t, errors.As(err, &mErr))
	assert.Equal(t, domain.MutationUnavailable, mErr.Kind)
	assert.Empty(t, f.carts.addLog())
	assert.Equal(t, MsgUnavailable, f.view.last().message)
}

func TestAddToCartByVariantID_SkipsLookup(t *testing.T) {
	f := newMutationFixture(t)
	f.carts.variants[99] = 9

	_, err := f.handler.AddToCartByVariantID(context.Background(), product(9, "not-in-catalog"), 99)
	require.NoError(t, err)

	assert.Equal(t, []int64{99}, f.carts.addLog())
	assert.True(t, f.tracker.Contains(9))
	require.Len(t, f.bus.events(), 1)
}

func TestAddToCart_RejectedShowsServerDescription(t *testing.T) {
	f := newMutationFixture(t)
	f.carts.addErr = &domain.APIError{Status: 422, Message: "Cart Error", Description: "Sold out"}

	_, err := f.handler.AddToCartByVariantID(context.Background(), product(1, "tee"), 10)

	var mErr *domain.MutationError
	require.True(t, errors.As(err, &mErr))
	assert.Equal(t, domain.MutationRejected, mErr.Kind)
	assert.Equal(t, "Sold out", mErr.Message)
	assert.Equal(t, viewEvent{kind: "notify", message: "Sold out", severity: domain.SeverityError}, f.view.last())
	assert.Empty(t, f.bus.events())
	assert.Equal(t, int32(0), f.counter.calls.Load())
	assert.False(t, f.tracker.Contains(1))
}

func TestAddToCart_RejectedWithoutDescriptionIsGeneric(t *testing.T) {
	f := newMutationFixture(t)
	f.carts.addErr = &domain.APIError{Status: 500}

	_, err := f.handler.AddToCartByVariantID(context.Background(), product(1, "tee"), 10)

	var mErr *domain.MutationError
	require.True(t, errors.As(err, &mErr))
	assert.Equal(t, MsgAddFailed, mErr.Message)
}

func TestAddToCart_TransportFailureIsGeneric(t *testing.T) {
	f := newMutationFixture(t)
	f.carts.addErr = errors.New("connection reset by peer")

	_, err := f.handler.AddToCartByVariantID(context.Background(), product(1, "tee"), 10)

	var mErr *domain.MutationError
	require.True(t, errors.As(err, &mErr), "transport and rejection failures share one error type")
	assert.Equal(t, domain.MutationTransport, mErr.Kind)
	assert.Equal(t, MsgAddFailed, mErr.Message)
	assert.Equal(t, MsgAddFailed, f.view.last().message)
}

func TestAddToCart_SoldOutThroughStorefrontClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"description":"Sold out"}`)
	}))
	defer srv.Close()
	client, err := storefront.NewClient(srv.URL, storefront.WithHTTPClient(srv.Client()), storefront.WithLogger(&nopLog))
	require.NoError(t, err)

	view := &fakeView{}
	handler := NewCartMutationHandler(client, client, NewCartTracker(client, &nopLog), newFakeBus(), nil, view, &nopLog)

	_, err = handler.AddToCartByVariantID(context.Background(), product(1, "tee"), 10)
	require.Error(t, err)
	assert.Equal(t, "Sold out", view.last().message)
}

func TestAddToCart_AddedProductIsFilteredImmediately(t *testing.T) {
	f := newMutationFixture(t)
	f.catalog.addProduct("shirt", product(1, "shirt-a", domain.Variant{ID: 10, Available: true}))
	f.catalog.addProduct("shirt", product(2, "shirt-b", domain.Variant{ID: 20, Available: true}))
	f.catalog.addProduct("shirts", product(2, "shirt-b", domain.Variant{ID: 20, Available: true}))
	f.catalog.addProduct("shirts", product(3, "shirt-c", domain.Variant{ID: 30, Available: true}))
	f.carts.variants[20] = 2

	f.coord.OnInput("shirt")
	renders := f.waitRenders(t, 1)
	require.Equal(t, []int64{1, 2}, ids(renders[0]))

	_, err := f.handler.AddToCart(context.Background(), renders[0].Products[1])
	require.NoError(t, err)

	// new query, before any invalidation ran
	f.coord.OnInput("shirts")
	renders = f.waitRenders(t, 2)
	assert.Equal(t, []int64{3}, ids(renders[1]))

	// cached query replayed
	f.coord.OnInput("shirt")
	renders = f.waitRenders(t, 3)
	assert.Equal(t, []int64{1}, ids(renders[2]))
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"predictive-search/internal/domain"
	"predictive-search/pkg/logger"

	"github.com/rs/zerolog"
)

const (
	// EventSource tags bus events published by this widget.
	EventSource = "predictive-search"

	MsgAddFailed   = "Unable to add this item to your cart. Please try again."
	MsgUnavailable = "This product is currently unavailable."
)

type CartMutationHandler struct {
	catalog domain.CatalogAPI
	carts   domain.CartAPI
	tracker *CartTracker
	bus     domain.Bus
	counter domain.CartCountRefresher
	view    domain.View
	log     *zerolog.Logger
}

// NewCartMutationHandler wires the add-to-cart transaction. counter may be
// nil when no cart-count display exists.
func NewCartMutationHandler(catalog domain.CatalogAPI, carts domain.CartAPI, tracker *CartTracker, bus domain.Bus, counter domain.CartCountRefresher, view domain.View, log *zerolog.Logger) *CartMutationHandler {
	if counter == nil {
		counter = domain.NopCartCount{}
	}
	if log == nil {
		log = logger.Get()
	}
	return &CartMutationHandler{
		catalog: catalog,
		carts:   carts,
		tracker: tracker,
		bus:     bus,
		counter: counter,
		view:    view,
		log:     log,
	}
}

// AddToCart adds the first available variant of product. Variant data is
// fetched again rather than taken from the search result, which may be stale.
func (h *CartMutationHandler) AddToCart(ctx context.Context, product domain.Product) (domain.RawJSON, error) {
	fresh, err := h.catalog.ProductByHandle(ctx, product.Handle)
	if err != nil {
		return nil, h.fail(ctx, product, 0, classify(err))
	}
	var (
		variant domain.Variant
		ok      bool
	)
	if fresh != nil {
		variant, ok = fresh.FirstAvailable()
	}
	if !ok {
		return nil, h.fail(ctx, product, 0, &domain.MutationError{
			Kind:    domain.MutationUnavailable,
			Message: MsgUnavailable,
			Err:     domain.ErrVariantUnavailable,
		})
	}
	return h.add(ctx, product, variant.ID)
}

// AddToCartByVariantID adds a variant the caller already resolved.
func (h *CartMutationHandler) AddToCartByVariantID(ctx context.Context, product domain.Product, variantID int64) (domain.RawJSON, error) {
	return h.add(ctx, product, variantID)
}

func (h *CartMutationHandler) add(ctx context.Context, product domain.Product, variantID int64) (domain.RawJSON, error) {
	raw, err := h.carts.AddItem(ctx, variantID, 1)
	if err != nil {
		return nil, h.fail(ctx, product, variantID, classify(err))
	}

	h.tracker.MarkAdded(product.ID)
	h.bus.Publish(ctx, domain.Event{
		Topic:   domain.TopicCartChanged,
		Source:  EventSource,
		Payload: domain.CartChanged{VariantID: variantID, Response: raw},
	})
	if err := h.counter.RefreshCartCount(ctx); err != nil {
		h.log.Warn().Err(err).Msg("Cart count refresh failed")
	}

	h.log.Info().
		Int64("product_id", product.ID).
		Int64("variant_id", variantID).
		Msg("Added to cart")
	h.view.Notify(fmt.Sprintf("%s added to cart", product.Title), domain.SeveritySuccess)
	return raw, nil
}

func (h *CartMutationHandler) fail(ctx context.Context, product domain.Product, variantID int64, mErr *domain.MutationError) error {
	h.log.Warn().
		Err(mErr.Err).
		Str("kind", string(mErr.Kind)).
		Int64("product_id", product.ID).
		Int64("variant_id", variantID).
		Msg("Add to cart failed")
	if ctx.Err() == nil {
		h.view.Notify(mErr.Message, domain.SeverityError)
	}
	return mErr
}

// classify maps a storefront error to the user-facing failure. A rejection
// shows the server's description when it sent one.
func classify(err error) *domain.MutationError {
	var apiErr *domain.APIError
	if errors.As(err, &apiErr) {
		msg := apiErr.Description
		if msg == "" {
			msg = MsgAddFailed
		}
		return &domain.MutationError{Kind: domain.MutationRejected, Message: msg, Err: err}
	}
	return &domain.MutationError{Kind: domain.MutationTransport, Message: MsgAddFailed, Err: err}
}

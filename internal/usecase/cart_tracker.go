package usecase

import (
	"context"
	"fmt"
	"predictive-search/internal/domain"
	"predictive-search/pkg/logger"
	"sync"

	"github.com/rs/zerolog"
)

// CartTracker keeps the set of product ids already in the cart.
//
// Refresh replaces the set wholesale. Ids marked through MarkAdded after a
// refresh started survive that refresh, since its snapshot may predate the
// add; older marks are dropped because the snapshot already reflects them.
type CartTracker struct {
	carts domain.CartAPI
	log   *zerolog.Logger

	mu      sync.RWMutex
	ids     domain.CartProductIDSet
	epoch   uint64           // bumped when a refresh starts
	applied uint64           // epoch of the snapshot currently held
	marks   map[int64]uint64 // optimistic id -> epoch when marked
}

func NewCartTracker(carts domain.CartAPI, log *zerolog.Logger) *CartTracker {
	if log == nil {
		log = logger.Get()
	}
	return &CartTracker{
		carts: carts,
		log:   log,
		ids:   domain.CartProductIDSet{},
		marks: make(map[int64]uint64),
	}
}

// Refresh reads the cart and replaces the tracked set. On failure the set is
// emptied and the error returned; on cancellation the set is left as is.
func (t *CartTracker) Refresh(ctx context.Context) error {
	t.mu.Lock()
	t.epoch++
	started := t.epoch
	t.mu.Unlock()

	cart, err := t.carts.GetCart(ctx)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if started < t.applied {
		// a later refresh already landed
		return err
	}

	next := domain.CartProductIDSet{}
	if err == nil {
		next = cart.ProductIDs()
	}
	for id, markedAt := range t.marks {
		if markedAt >= started {
			next[id] = struct{}{}
		} else {
			delete(t.marks, id)
		}
	}
	t.ids = next
	t.applied = started

	if err != nil {
		t.log.Warn().Err(err).Msg("Cart refresh failed, tracking an empty cart")
		return fmt.Errorf("cart refresh: %w", err)
	}
	t.log.Debug().Int("products", len(next)).Msg("Cart refreshed")
	return nil
}

// MarkAdded records productID as in the cart without a round trip.
func (t *CartTracker) MarkAdded(productID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	// copy so snapshots handed out earlier stay untouched
	next := make(domain.CartProductIDSet, len(t.ids)+1)
	for id := range t.ids {
		next[id] = struct{}{}
	}
	next[productID] = struct{}{}
	t.ids = next
	t.marks[productID] = t.epoch
}

func (t *CartTracker) Contains(productID int64) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.ids.Contains(productID)
}

// Snapshot returns the current set. It is never mutated afterwards.
func (t *CartTracker) Snapshot() domain.CartProductIDSet {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.ids
}

package usecase

import (
	"context"
	"errors"
	"predictive-search/internal/domain"
	"predictive-search/pkg/logger"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type SearchOptions struct {
	Debounce       time.Duration
	MinQueryLength int
	PageSize       int
	Logger         *zerolog.Logger
}

func (o *SearchOptions) withDefaults() {
	if o.Debounce <= 0 {
		o.Debounce = 100 * time.Millisecond
	}
	if o.MinQueryLength < 1 {
		o.MinQueryLength = 3
	}
	if o.PageSize < 1 {
		o.PageSize = 10
	}
	if o.Logger == nil {
		o.Logger = logger.Get()
	}
}

// Coordinator turns keystrokes into at most one in-flight search and drives
// the view. One Coordinator serves one widget.
//
// All state is guarded by mu and view callbacks run while it is held, so the
// view observes a serialized stream of calls.
type Coordinator struct {
	catalog  domain.CatalogAPI
	tracker  *CartTracker
	enricher *Enricher
	cache    *ResultCache
	view     domain.View
	opts     SearchOptions
	log      *zerolog.Logger

	ctx  context.Context
	stop context.CancelFunc

	mu        sync.Mutex
	timer     *time.Timer
	timerSeq  uint64
	lastQuery string               // last dispatched query
	seq       uint64               // bumped whenever the in-flight search is superseded
	cancel    context.CancelFunc   // in-flight search
	shown     *domain.SearchResult // unfiltered result on screen, nil when hidden
	closed    bool
}

func NewCoordinator(catalog domain.CatalogAPI, tracker *CartTracker, enricher *Enricher, cache *ResultCache, view domain.View, opts SearchOptions) *Coordinator {
	opts.withDefaults()
	ctx, stop := context.WithCancel(context.Background())
	return &Coordinator{
		catalog:  catalog,
		tracker:  tracker,
		enricher: enricher,
		cache:    cache,
		view:     view,
		opts:     opts,
		log:      opts.Logger,
		ctx:      ctx,
		stop:     stop,
	}
}

// OnInput handles the current text of the search box.
func (c *Coordinator) OnInput(raw string) {
	query := strings.TrimSpace(raw)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.stopTimerLocked()

	if utf8.RuneCountInString(query) < c.opts.MinQueryLength {
		c.abortLocked()
		c.lastQuery = ""
		c.hideLocked()
		return
	}
	if query == c.lastQuery {
		return
	}
	if result, ok := c.cache.Get(query); ok {
		c.abortLocked()
		c.lastQuery = query
		c.log.Debug().Str("query", query).Msg("Search served from cache")
		c.renderLocked(result)
		return
	}

	c.view.ShowLoading()
	c.timerSeq++
	tseq := c.timerSeq
	c.timer = time.AfterFunc(c.opts.Debounce, func() { c.dispatch(query, tseq) })
}

// Invalidate drops cached results and resynchronizes the cart set, then
// re-renders what is on screen against the fresh set.
func (c *Coordinator) Invalidate(ctx context.Context) {
	c.cache.Clear()
	if err := c.tracker.Refresh(ctx); err != nil && !errors.Is(err, context.Canceled) {
		c.log.Debug().Err(err).Msg("Cart refresh after invalidation failed")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	// the cached copy of the last query is gone; typing it again must fetch
	c.lastQuery = ""
	if c.shown == nil {
		return
	}
	if result, ok := c.cache.Get(c.shown.Query); ok {
		c.renderLocked(result)
		return
	}
	c.renderLocked(*c.shown)
}

// Close tears the widget down. Pending timers and in-flight searches become
// inert.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.stopTimerLocked()
	c.abortLocked()
	c.stop()
}

func (c *Coordinator) dispatch(query string, tseq uint64) {
	c.mu.Lock()
	if c.closed || tseq != c.timerSeq {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.abortLocked()
	ctx, cancel := context.WithCancel(c.ctx)
	c.cancel = cancel
	seq := c.seq
	c.lastQuery = query
	c.mu.Unlock()
	defer cancel()

	log := logger.WithDispatch(c.log, seq, query)
	result, err := c.fetch(ctx, query)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || seq != c.seq {
		log.Debug().Msg("Search superseded")
		return
	}
	c.cancel = nil

	if err != nil {
		if ctx.Err() != nil {
			log.Debug().Msg("Search cancelled")
			return
		}
		log.Warn().Err(err).Msg("Search failed")
		c.hideLocked()
		return
	}
	if len(result.Products) == 0 {
		c.hideLocked()
		return
	}
	c.cache.Set(query, result)
	c.renderLocked(result)
}

// fetch refreshes the cart set and searches concurrently, then enriches.
func (c *Coordinator) fetch(ctx context.Context, query string) (domain.SearchResult, error) {
	var stubs []domain.Product

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// a failed refresh degrades to an empty set inside the tracker
		_ = c.tracker.Refresh(gctx)
		return nil
	})
	g.Go(func() error {
		var err error
		stubs, err = c.catalog.SearchProducts(gctx, query, c.opts.PageSize)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.SearchResult{}, err
	}
	if len(stubs) == 0 {
		return domain.SearchResult{Query: query}, nil
	}

	products := c.enricher.Enrich(ctx, stubs)
	if err := ctx.Err(); err != nil {
		return domain.SearchResult{}, err
	}
	return domain.SearchResult{Query: query, Products: products}, nil
}

func (c *Coordinator) renderLocked(result domain.SearchResult) {
	visible := result.Without(c.tracker.Snapshot())
	if len(visible.Products) == 0 {
		c.hideLocked()
		return
	}
	c.shown = &result
	c.view.Render(visible)
}

func (c *Coordinator) hideLocked() {
	c.shown = nil
	c.view.Hide()
}

func (c *Coordinator) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.timerSeq++
}

func (c *Coordinator) abortLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.seq++
}

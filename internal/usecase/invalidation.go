package usecase

import (
	"context"
	"predictive-search/internal/domain"
	"predictive-search/pkg/logger"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Invalidator reacts to cart changes made anywhere on the page. Triggers are
// coalesced: after the last one, it waits settle so sibling widgets finish
// their own updates, then invalidates the Coordinator.
type Invalidator struct {
	coord  *Coordinator
	settle time.Duration
	log    *zerolog.Logger

	ctx  context.Context
	stop context.CancelFunc

	mu     sync.Mutex
	timer    *time.Timer
	timerSeq uint64
	stops    []func()
	closed   bool
}

func NewInvalidator(coord *Coordinator, settle time.Duration, log *zerolog.Logger) *Invalidator {
	if settle <= 0 {
		settle = 100 * time.Millisecond
	}
	if log == nil {
		log = logger.Get()
	}
	ctx, stop := context.WithCancel(context.Background())
	return &Invalidator{coord: coord, settle: settle, log: log, ctx: ctx, stop: stop}
}

// ListenBus subscribes to cart-changed events.
func (i *Invalidator) ListenBus(bus domain.Bus) {
	unsubscribe := bus.Subscribe(domain.TopicCartChanged, func(e domain.Event) {
		i.Trigger("bus:" + e.Source)
	})
	i.addStop(unsubscribe)
}

// ListenCart watches an external cart change source.
func (i *Invalidator) ListenCart(src domain.CartChangeSource) {
	i.addStop(src.Watch(func() { i.Trigger("cart-watch") }))
}

// Trigger (re)arms the settle timer.
func (i *Invalidator) Trigger(reason string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return
	}
	i.log.Debug().Str("reason", reason).Msg("Invalidation triggered")
	if i.timer != nil {
		i.timer.Stop()
	}
	i.timerSeq++
	seq := i.timerSeq
	i.timer = time.AfterFunc(i.settle, func() { i.fire(seq) })
}

// fire runs when timer seq elapses. A timer that already fired when Trigger
// re-armed has a stale seq and does nothing.
func (i *Invalidator) fire(seq uint64) {
	i.mu.Lock()
	if i.closed || seq != i.timerSeq {
		i.mu.Unlock()
		return
	}
	i.timer = nil
	i.mu.Unlock()

	i.coord.Invalidate(i.ctx)
}

// Close detaches every listener and drops a pending invalidation.
func (i *Invalidator) Close() {
	i.mu.Lock()
	if i.closed {
		i.mu.Unlock()
		return
	}
	i.closed = true
	if i.timer != nil {
		i.timer.Stop()
	}
	stops := i.stops
	i.stops = nil
	i.mu.Unlock()

	i.stop()
	for _, stop := range stops {
		stop()
	}
}

func (i *Invalidator) addStop(stop func()) {
	i.mu.Lock()
	if i.closed {
		i.mu.Unlock()
		stop()
		return
	}
	i.stops = append(i.stops, stop)
	i.mu.Unlock()
}

package cartwatch

import (
	"context"
	"fmt"
	"predictive-search/internal/domain"
	"predictive-search/pkg/logger"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Poller watches the storefront cart for changes made outside the widget
// (another tab, another widget talking to the API directly) and reports them
// as a domain.CartChangeSource.
type Poller struct {
	carts    domain.CartAPI
	interval time.Duration
	log      *zerolog.Logger
}

func NewPoller(carts domain.CartAPI, interval time.Duration, log *zerolog.Logger) *Poller {
	if log == nil {
		log = logger.Get()
	}
	return &Poller{carts: carts, interval: interval, log: log}
}

// Watch starts a polling goroutine. The first successful read only sets the
// baseline; later reads call fn when the cart signature differs.
func (p *Poller) Watch(fn func()) func() {
	if p.interval <= 0 {
		return func() {}
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		last, known := "", false
		check := func() {
			cart, err := p.carts.GetCart(ctx)
			if err != nil {
				if ctx.Err() == nil {
					p.log.Debug().Err(err).Msg("cartwatch: cart read failed")
				}
				return
			}
			sig := Signature(cart)
			if known && sig != last {
				p.log.Debug().Str("signature", sig).Msg("cartwatch: cart changed")
				fn()
			}
			last, known = sig, true
		}

		check()
		for {
			select {
			case <-ticker.C:
				check()
			case <-ctx.Done():
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}
}

// Signature summarizes the cart contents independent of line order.
func Signature(cart *domain.Cart) string {
	lines := make([]string, 0, len(cart.Items))
	for _, item := range cart.Items {
		lines = append(lines, fmt.Sprintf("%d:%d:%d", item.ProductID, item.VariantID, item.Quantity))
	}
	sort.Strings(lines)
	return fmt.Sprintf("%s|%d|%s", cart.Token, cart.ItemCount, strings.Join(lines, ","))
}

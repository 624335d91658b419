package usecase

import (
	"context"
	"predictive-search/internal/domain"
	"predictive-search/pkg/logger"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Enricher attaches the full variant list to search stubs.
type Enricher struct {
	catalog     domain.CatalogAPI
	concurrency int
	log         *zerolog.Logger
}

func NewEnricher(catalog domain.CatalogAPI, concurrency int, log *zerolog.Logger) *Enricher {
	if concurrency < 1 {
		concurrency = 1
	}
	if log == nil {
		log = logger.Get()
	}
	return &Enricher{catalog: catalog, concurrency: concurrency, log: log}
}

// Enrich looks every stub up by handle concurrently. The output has the
// input's length and order; a failed lookup leaves that product with no
// variants and EnrichFailed set.
func (e *Enricher) Enrich(ctx context.Context, stubs []domain.Product) []domain.Product {
	out := make([]domain.Product, len(stubs))

	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for i, stub := range stubs {
		g.Go(func() error {
			p := stub
			full, err := e.catalog.ProductByHandle(ctx, stub.Handle)
			if err != nil || full == nil {
				if ctx.Err() == nil {
					e.log.Debug().Err(err).Str("handle", stub.Handle).Msg("Variant lookup failed")
				}
				p.Variants = []domain.Variant{}
				p.EnrichFailed = true
			} else {
				p.Variants = full.Variants
				if p.Variants == nil {
					p.Variants = []domain.Variant{}
				}
			}
			out[i] = p
			return nil
		})
	}
	_ = g.Wait()
	return out
}

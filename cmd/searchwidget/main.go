package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"predictive-search/config"
	"predictive-search/internal/delivery/terminal"
	"predictive-search/internal/infrastructure/bus"
	"predictive-search/internal/infrastructure/cache"
	"predictive-search/internal/infrastructure/cartwatch"
	"predictive-search/internal/infrastructure/storefront"
	"predictive-search/internal/usecase"
	pkgcache "predictive-search/pkg/cache"
	"predictive-search/pkg/logger"
	"sync"
	"syscall"
	"time"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// stdout carries the widget, logs go to stderr
	logger.Init(cfg.Env, cfg.LogLevel)
	lg := logger.Get()

	client, err := storefront.NewClient(cfg.StorefrontURL,
		storefront.WithTimeout(cfg.StorefrontTimeout),
		storefront.WithRateLimit(cfg.StorefrontRPS, cfg.StorefrontBurst),
		storefront.WithLogger(lg),
	)
	if err != nil {
		lg.Fatal().Err(err).Msg("Failed to create storefront client")
	}

	view := terminal.NewView(os.Stdout, client)
	eventBus := bus.New()

	// Cached searches: insertion-order bound on top of go-cache
	memCache := cache.NewMemoryCache(pkgcache.NoExpiration, time.Minute)
	results := usecase.NewResultCache(memCache, cfg.CacheCapacity, cfg.CacheTTL)

	tracker := usecase.NewCartTracker(client, lg)
	enricher := usecase.NewEnricher(client, cfg.EnrichConcurrency, lg)
	coord := usecase.NewCoordinator(client, tracker, enricher, results, view, usecase.SearchOptions{
		Debounce:       cfg.SearchDebounce,
		MinQueryLength: cfg.MinQueryLength,
		PageSize:       cfg.PageSize,
		Logger:         lg,
	})
	defer coord.Close()

	mutations := usecase.NewCartMutationHandler(client, client, tracker, eventBus, view, view, lg)

	invalidator := usecase.NewInvalidator(coord, cfg.InvalidationSettle, lg)
	invalidator.ListenBus(eventBus)
	if cfg.CartPollInterval > 0 {
		invalidator.ListenCart(cartwatch.NewPoller(client, cfg.CartPollInterval, lg))
	}
	defer invalidator.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.ServiceStart("searchwidget", cfg.StorefrontURL)
	fmt.Fprintf(os.Stdout, "Type to search (at least %d characters). :add N [VARIANT_ID] adds a result, :quit exits.\n", cfg.MinQueryLength)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			lg.Error().Err(err).Msg("Reading input failed")
		}
	}()

	var adds sync.WaitGroup
loop:
	for {
		var line string
		select {
		case <-ctx.Done():
			break loop
		case l, ok := <-lines:
			if !ok {
				break loop
			}
			line = l
		}

		cmd, err := terminal.ParseCommand(line)
		if err != nil {
			fmt.Fprintln(os.Stdout, err)
			continue
		}
		switch cmd.Kind {
		case terminal.CommandQuit:
			break loop
		case terminal.CommandInput:
			coord.OnInput(cmd.Text)
		case terminal.CommandAdd:
			product, ok := view.Product(cmd.Position)
			if !ok {
				fmt.Fprintf(os.Stdout, "No result at position %d\n", cmd.Position)
				continue
			}
			adds.Add(1)
			go func() {
				defer adds.Done()
				addCtx, cancel := context.WithTimeout(ctx, cfg.StorefrontTimeout)
				defer cancel()
				// failures are reported to the view by the handler
				if cmd.VariantID != 0 {
					_, _ = mutations.AddToCartByVariantID(addCtx, product, cmd.VariantID)
					return
				}
				_, _ = mutations.AddToCart(addCtx, product)
			}()
		}
	}

	adds.Wait()
	logger.ServiceStop("searchwidget")
}

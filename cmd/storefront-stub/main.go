package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"predictive-search/config"
	"predictive-search/internal/delivery/http/middleware"
	v1 "predictive-search/internal/delivery/http/v1"
	"predictive-search/internal/repository/memory"
	"predictive-search/pkg/logger"
	"predictive-search/pkg/utils"
	"syscall"
	"time"

	"github.com/NYTimes/gziphandler"
	"golang.org/x/time/rate"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Env, cfg.LogLevel)
	lg := logger.Get()

	// In-memory catalog and carts
	store := memory.NewStore()
	memory.Seed(store)

	mux := http.NewServeMux()
	v1.NewStorefrontHandler(store).Register(mux)

	healthHandler := func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
	mux.HandleFunc("GET /health", healthHandler)

	// Per-IP limiter, cleanup every minute, clients forgotten after 3 minutes
	rateLimiter := middleware.NewRateLimiter(
		context.Background(),
		rate.Limit(cfg.StubRPS),
		cfg.StubBurst,
		time.Minute,
		3*time.Minute,
	)

	handler := middleware.NewCORSMiddleware(cfg.AllowedOrigin)(mux)
	handler = middleware.RequestLogger(handler)
	handler = rateLimiter.Middleware()(handler)
	handler = gziphandler.GzipHandler(handler)

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			lg.Fatal().Err(err).Msg("Server failed to start")
		}
	}()
	logger.ServiceStart("storefront-stub", addr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	lg.Info().Msg("Server shutting down...")
	rateLimiter.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		lg.Fatal().Err(err).Msg("Server forced to shutdown")
	}
	logger.ServiceStop("storefront-stub")
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/nanmu42/gzip"
	"github.com/terranet-ag/onboarding-service/internal/config"
	"github.com/terranet-ag/onboarding-service/internal/order"
	"github.com/terranet-ag/onboarding-service/internal/quote"
	"github.com/terranet-ag/onboarding-service/pkg/accesslog"
	"github.com/terranet-ag/onboarding-service/pkg/logger"
	"github.com/terranet-ag/onboarding-service/pkg/unzip"
)

// Version indicates the current version of the application.
var Version = "1.0.0"

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Server run context.
	serverCtx, serverStopCtx := context.WithCancel(context.Background())
	defer serverStopCtx()

	// Load application configurations.
	cfg := config.MustLoad()

	// Create root logger tagged with server version.
	logger := logger.New(cfg).With(serverCtx, "version", Version)
	defer func() {
		_ = logger.Sync()
	}()

	// Init order store rooted at the configured orders directory.
	store, err := order.NewStore(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to init order store: %w", err)
	}

	// Init order service.
	orderService, err := order.NewService(store, logger, cfg)
	if err != nil {
		return fmt.Errorf("failed to init order service: %w", err)
	}

	// Init quote service.
	quoteService := quote.NewService(logger)

	// Create root router.
	router := initRootRouter(logger)

	// Init and group handlers for order routes.
	order.HandlerWithOptions(orderService, order.ChiServerOptions{
		BaseRouter:       router,
		ErrorHandlerFunc: order.ErrorHandlerFunc,
	})

	// Init handlers for quote routes.
	quote.HandlerWithOptions(quoteService, quote.ChiServerOptions{
		BaseRouter:       router,
		ErrorHandlerFunc: quote.ErrorHandlerFunc,
	})

	// Build HTTP server.
	hs := &http.Server{
		Addr:              cfg.HTTPServer.Address,
		ReadHeaderTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:       cfg.HTTPServer.IdleTimeout,
		Handler:           router,
	}

	// Graceful shutdown.
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT,
			syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)

		signal := <-sig

		logger.With(serverCtx, "signal", signal.String()).
			Infof("Shutting down server with %s timeout",
				cfg.HTTPServer.ShutdownTimeout)

		if err = hs.Shutdown(serverCtx); err != nil {
			logger.Errorf("graceful shutdown failed: %s", err)
		}
		serverStopCtx()
	}()

	// Start the HTTP server with graceful shutdown.
	logger.Infof("Server %v is running at %v", Version, cfg.HTTPServer.Address)
	if err = hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("run server failed: %w", err)
	}

	// Wait for server context to be stopped or force exit if timeout exceeded.
	select {
	case <-serverCtx.Done():
	case <-time.After(cfg.HTTPServer.ShutdownTimeout):
		return errors.New("graceful shutdown timed out.. forcing exit")
	}

	return nil
}

func initRootRouter(logger logger.Logger) *chi.Mux {
	router := chi.NewRouter()
	router.Use(accesslog.Handler(logger))
	router.Use(middleware.Recoverer)
	router.Use(gzip.DefaultHandler().WrapHandler)
	router.Use(unzip.Middleware(logger))

	router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	return router
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/httpserver"
	"storefront/internal/importer"
	"storefront/internal/metrics"
	slotrepo "storefront/internal/repository/slot"
	cartsvc "storefront/internal/service/cart"
	catalogsvc "storefront/internal/service/catalog"
	"storefront/internal/shopify"

	"github.com/rs/zerolog"
)

func main() {
	cfg := config.FromEnv()
	logger := newLogger(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()
	slot, closeSlot, err := db.OpenSlot(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.SlotBackend).Msg("open cart storage")
	}
	defer closeSlot()

	var remote *shopify.Client
	if cfg.ShopDomain != "" {
		remote, err = shopify.New(shopify.Config{
			Domain:     cfg.ShopDomain,
			Token:      cfg.StorefrontToken,
			APIVersion: cfg.APIVersion,
		}, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("init shopify client")
		}
	} else {
		logger.Warn().Msg("SHOPIFY_STORE_DOMAIN not set, checkout disabled")
	}

	var catalog *catalogsvc.Service
	switch {
	case cfg.CatalogCSV != "":
		source, err := importer.LoadFile(cfg.CatalogCSV)
		if err != nil {
			logger.Fatal().Err(err).Msg("load catalog csv")
		}
		catalog = catalogsvc.New(source, cfg.CatalogTTL, logger)
	case remote != nil:
		catalog = catalogsvc.New(remote, cfg.CatalogTTL, logger)
	}

	deps := httpserver.Deps{
		CORSOrigins:   cfg.CORSOrigins,
		SecureCookies: cfg.SecureCookies,
	}
	if p, ok := slot.(slotrepo.Pinger); ok {
		deps.Ready = p
	}
	// A nil *shopify.Client must not reach the interfaces below.
	var carts *cartsvc.Registry
	if remote != nil {
		carts = cartsvc.NewRegistry(slot, remote, cfg.CheckoutDomain, logger)
		deps.Remote = remote
	} else {
		carts = cartsvc.NewRegistry(slot, nil, cfg.CheckoutDomain, logger)
	}
	deps.Carts = carts
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go carts.Run(sweepCtx, cfg.SessionSweepInterval, cfg.SessionIdleTTL)
	deps.Metrics = metrics.NewServerMetrics("api", carts.Len)
	if catalog != nil {
		deps.Catalog = catalog
	}

	srv, err := httpserver.New(cfg.HTTPAddr, logger, deps)
	if err != nil {
		logger.Fatal().Err(err).Msg("init server")
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("starting http server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-serverErr:
		logger.Error().Err(err).Msg("server error")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	} else {
		logger.Info().Msg("server stopped")
	}
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stdout).Level(lvl).With().Timestamp().Str("service", "storefront").Str("cmd", "api").Logger()
}

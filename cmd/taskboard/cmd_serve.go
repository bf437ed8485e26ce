package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"taskboard/internal/auth"
	"taskboard/internal/lookup"
	"taskboard/internal/ratelimit"
	"taskboard/internal/server"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, the lookup function and the frontend",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	if cfg.JWTSecret == "" {
		return errors.New("TASKBOARD_JWT_SECRET is required to serve")
	}

	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	tokens, err := auth.NewTokens(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL, nil)
	if err != nil {
		return err
	}

	var (
		hits    ratelimit.Store
		sweeper ratelimit.Sweeper
	)
	switch cfg.RateLimitBackend {
	case "sqlite":
		shared := store.RateLimits()
		hits, sweeper = shared, shared
	default:
		mem := ratelimit.NewMemoryStore()
		hits, sweeper = mem, mem
	}
	limiter := ratelimit.New(hits, cfg.RateLimitMax, cfg.RateLimitWindow)
	finder := lookup.NewService(tokens, limiter, store, store, lookup.Config{
		Strategy: lookup.Strategy(cfg.LookupStrategy),
	}, logger)

	srv := server.New(server.Deps{
		Store:  store,
		Tokens: tokens,
		Lookup: finder,
		CORS: server.CORS{
			Allowed:  cfg.AllowedOrigins(),
			Suffix:   cfg.PlatformSuffix,
			Fallback: cfg.ProductionOrigin,
		},
		StaticDir: cfg.StaticDir,
		Logger:    logger,
	})

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting server",
			slog.String("addr", httpServer.Addr),
			slog.String("rate_limit_backend", cfg.RateLimitBackend),
			slog.String("lookup_strategy", cfg.LookupStrategy))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return ratelimit.RunJanitor(gctx, sweeper, cfg.SweepInterval, logger)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown server", slog.String("error", err.Error()))
			return err
		}
		return nil
	})

	err = g.Wait()
	logger.Info("server stopped")
	return err
}

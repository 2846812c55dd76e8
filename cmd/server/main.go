package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"market_backend/internal/app/di"
	"market_backend/internal/app/router"
	mdhandler "market_backend/internal/feature/marketdata/transport/handler"
	symbolhandler "market_backend/internal/feature/symbollist/transport/handler"
	tradinghandler "market_backend/internal/feature/trading/transport/handler"
	"market_backend/internal/platform/config"
	"market_backend/internal/platform/http/handler"
	"market_backend/internal/platform/logging"
	"market_backend/internal/platform/scheduler"
	"market_backend/internal/platform/worker"
)

const (
	httpShutdownTimeout = 5 * time.Second
	workerStopTimeout   = 5 * time.Second
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(config.Path())
	if err != nil {
		return err
	}
	logging.Setup(os.Stdout, cfg.LogLevel)

	// JWT_SECRETチェック（開発中の注意喚起）
	if cfg.JWTSecret == "" {
		slog.Warn("JWT_SECRET is not set. Authenticated routes will fail until one is configured.")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := di.NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			slog.Error("failed to close stores", "error", err)
		}
	}()

	// バックグラウンドループ
	workers := worker.NewGroup(ctx)
	sched := scheduler.New(scheduler.DefaultJobTimeout)
	for _, eng := range app.Engines {
		workers.Go("prices/"+string(eng.Class), eng.Prices.Run)
		workers.Go("histories/"+string(eng.Class), func(ctx context.Context) error {
			return eng.Histories.Run(ctx, sched)
		})
	}

	stream := mdhandler.NewQuoteStream(app.Query, cfg.Stream.PollInterval)
	engine := router.NewRouter(router.Handlers{
		Health:  handler.NewHealthHandler(app.HealthChecks(), 0),
		Symbols: symbolhandler.NewSymbolHandler(app.Symbols),
		Market:  mdhandler.NewMarketHandler(app.Query),
		Stream:  stream,
		Trading: tradinghandler.NewTradingHandler(app.Trading),
		Admin:   mdhandler.NewAdminHandler(app.Reinit),
	}, cfg.JWTSecret)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv.RegisterOnShutdown(stream.Shutdown)

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			slog.Error("http server failed", "error", err)
		}
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown incomplete", "error", err)
	}

	if err := workers.Stop(workerStopTimeout); err != nil {
		slog.Error("workers did not stop in time", "error", err, "running", workers.Running())
	}
	slog.Info("server stopped")
	return nil
}

package di

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	mdadapters "market_backend/internal/feature/marketdata/adapters"
	"market_backend/internal/feature/marketdata/domain/entity"
	mdusecase "market_backend/internal/feature/marketdata/usecase"
	symboladapters "market_backend/internal/feature/symbollist/adapters"
	symbolentity "market_backend/internal/feature/symbollist/domain/entity"
	symbolusecase "market_backend/internal/feature/symbollist/usecase"
	tradingadapters "market_backend/internal/feature/trading/adapters"
	tradingusecase "market_backend/internal/feature/trading/usecase"
	"market_backend/internal/platform/cache"
	"market_backend/internal/platform/config"
	infradb "market_backend/internal/platform/db"
	"market_backend/internal/platform/http/handler"
	infraredis "market_backend/internal/platform/redis"
)

// dbConnectTimeout bounds the wait for PostgreSQL at startup.
const dbConnectTimeout = 60 * time.Second

// App is the dependency graph shared by the server and reinit commands.
type App struct {
	Config *config.Config
	DB     *gorm.DB
	Redis  *goredis.Client // nil: キャッシュなし

	Prices    mdusecase.PriceRepository
	Histories mdusecase.HistoryRepository
	Engines   []*Engine

	Query   *mdusecase.MarketQueryUsecase
	Reinit  *mdusecase.ReinitUsecase
	Symbols *symbolusecase.SymbolUsecase
	Trading *tradingusecase.TradingUsecase
}

// Models returns every table the service migrates.
func Models() []any {
	models := []any{&symbolentity.Symbol{}}
	models = append(models, mdadapters.Models()...)
	return append(models, tradingadapters.Models()...)
}

// NewApp opens the stores, seeds the configured symbols and wires one engine per
// enabled asset class. Redis is optional: when it is unreachable the service runs
// without cache.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := infradb.OpenDB(cfg.Database, dbConnectTimeout, Models()...)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	var rdb *goredis.Client
	if cfg.Redis.Enabled() {
		if rdb, err = infraredis.NewRedisClient(ctx, cfg.Redis); err != nil {
			slog.Warn("Redis unavailable. Running without cache.", "error", err)
			rdb = nil
		}
	}

	// Wrap stores with the Redis cache
	prices := cache.NewCachingPriceRepository(rdb, cfg.Redis.CacheTTL, mdadapters.NewPriceRepository(db), "prices")
	histories := cache.NewCachingHistoryRepository(rdb, cfg.Redis.CacheTTL, mdadapters.NewHistoryRepository(db), "histories")

	symbolRepo := symboladapters.NewSymbolRepository(db)
	symbolUC := symbolusecase.NewSymbolUsecase(symbolRepo)

	app := &App{
		Config:    cfg,
		DB:        db,
		Redis:     rdb,
		Prices:    prices,
		Histories: histories,
		Symbols:   symbolUC,
	}

	markets := map[entity.AssetClass]mdusecase.Market{}
	targets := map[entity.AssetClass]mdusecase.ReinitTarget{}
	for _, class := range entity.AssetClasses {
		mc := cfg.Markets.For(class)
		if mc.Disabled {
			slog.Info("asset class disabled", "asset_class", class)
			continue
		}
		if err := seedSymbols(ctx, symbolUC, class, mc.Symbols); err != nil {
			_ = app.Close()
			return nil, err
		}

		up, err := NewUpstream(class, cfg.Finnhub.APIKeys)
		if err != nil {
			_ = app.Close()
			return nil, err
		}
		eng, err := NewEngine(class, mc, cfg.Calendar, up, prices, histories, symbolRepo)
		if err != nil {
			_ = app.Close()
			return nil, err
		}
		app.Engines = append(app.Engines, eng)
		markets[class] = mdusecase.Market{Catalog: eng.Catalog, Calendar: eng.Calendar}
		targets[class] = mdusecase.ReinitTarget{Initializer: eng.Initializer, Symbols: symbolRepo}
	}

	app.Query = mdusecase.NewMarketQueryUsecase(markets, prices, histories)
	app.Reinit = mdusecase.NewReinitUsecase(targets)
	app.Trading = tradingusecase.NewTradingUsecase(tradingadapters.NewAccountRepository(db), prices, cfg.Trading.StartingCash)
	return app, nil
}

func seedSymbols(ctx context.Context, uc *symbolusecase.SymbolUsecase, class entity.AssetClass, entries []config.SymbolEntry) error {
	if len(entries) == 0 {
		return nil
	}
	seeds := make([]symbolusecase.SeedSymbol, 0, len(entries))
	for _, e := range entries {
		seeds = append(seeds, symbolusecase.SeedSymbol{Code: e.Code, Name: e.Name})
	}
	n, err := uc.SeedSymbols(ctx, class, seeds)
	if err != nil {
		return fmt.Errorf("seed %s symbols: %w", class, err)
	}
	slog.Info("symbols seeded", "asset_class", class, "count", n)
	return nil
}

// HealthChecks returns the readiness probes of the stores in use.
func (a *App) HealthChecks() map[string]handler.Check {
	checks := map[string]handler.Check{
		"database": func(ctx context.Context) error {
			sqlDB, err := a.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if a.Redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return a.Redis.Ping(ctx).Err()
		}
	}
	return checks
}

// Close releases the Redis client and the database pool.
func (a *App) Close() error {
	var errs []error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close database: %w", err))
			}
		}
	}
	return errors.Join(errs...)
}

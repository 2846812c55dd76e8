package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"market_backend/internal/feature/marketdata/domain"
	"market_backend/internal/feature/marketdata/domain/entity"
	"market_backend/internal/shared/ratelimiter"
)

const (
	DefaultPriceInterval  = 20 * time.Second
	DefaultFetchTimeout   = 10 * time.Second
	DefaultInitialBackoff = time.Second
	DefaultMaxBackoff     = 60 * time.Second
)

// PriceSyncConfig tunes one price polling loop.
type PriceSyncConfig struct {
	Interval       time.Duration
	FetchTimeout   time.Duration
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

func (c PriceSyncConfig) withDefaults() PriceSyncConfig {
	if c.Interval <= 0 {
		c.Interval = DefaultPriceInterval
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = DefaultFetchTimeout
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = DefaultInitialBackoff
	}
	if c.MaxBackoff < c.InitialBackoff {
		c.MaxBackoff = DefaultMaxBackoff
	}
	return c
}

// PassResult counts the outcome of one polling pass.
type PassResult struct {
	Updated int
	Failed  int
}

// PriceSyncUsecase polls a PriceFetcher for every tracked symbol of one asset
// class and upserts the PriceRepository.
type PriceSyncUsecase struct {
	class   entity.AssetClass
	fetcher PriceFetcher
	prices  PriceRepository
	symbols SymbolRepository
	limiter ratelimiter.RateLimiterInterface
	cfg     PriceSyncConfig

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) bool
}

// NewPriceSyncUsecase wires a price loop. limiter paces upstream requests within a pass.
func NewPriceSyncUsecase(
	class entity.AssetClass,
	fetcher PriceFetcher,
	prices PriceRepository,
	symbols SymbolRepository,
	limiter ratelimiter.RateLimiterInterface,
	cfg PriceSyncConfig,
) *PriceSyncUsecase {
	if limiter == nil {
		limiter = ratelimiter.NewRateLimiter(0, 0)
	}
	return &PriceSyncUsecase{
		class:   class,
		fetcher: fetcher,
		prices:  prices,
		symbols: symbols,
		limiter: limiter,
		cfg:     cfg.withDefaults(),
		now:     time.Now,
		sleep:   sleepContext,
	}
}

// SyncOnce runs one pass over the tracked symbols. Per-symbol failures are logged
// and counted; the returned error is reserved for failures of the pass itself.
func (u *PriceSyncUsecase) SyncOnce(ctx context.Context) (res PassResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("price sync %s: panic: %v", u.class, r)
		}
	}()

	symbols, err := u.symbols.ListActiveCodes(ctx, string(u.class))
	if err != nil {
		return res, fmt.Errorf("list %s symbols: %w", u.class, err)
	}

	for _, s := range symbols {
		if err := u.limiter.WaitIfNeeded(ctx); err != nil {
			return res, err
		}
		if err := u.syncOne(ctx, s); err != nil {
			res.Failed++
			slog.Warn("failed to sync price", "class", u.class, "symbol", s, "error", err)
			continue
		}
		res.Updated++
	}
	return res, nil
}

func (u *PriceSyncUsecase) syncOne(ctx context.Context, symbol string) error {
	fctx, cancel := context.WithTimeout(ctx, u.cfg.FetchTimeout)
	defer cancel()

	q, err := u.fetcher.FetchCurrent(fctx, symbol)
	if err != nil {
		return err
	}
	if !q.Price.IsPositive() {
		return fmt.Errorf("%w: non-positive price %s", domain.ErrFetchFailure, q.Price)
	}

	rec := entity.PriceRecord{
		AssetClass: u.class,
		Symbol:     entity.NormalizeSymbol(symbol),
		Price:      q.Price,
		Source:     q.Source,
		UpdatedAt:  u.now().UTC(),
	}
	if err := u.prices.Upsert(ctx, rec); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreWrite, err)
	}
	return nil
}

// Run polls until ctx is cancelled. A pass that fails as a whole is retried after
// an exponential backoff; a successful pass resets the backoff and the loop sleeps
// for whatever is left of the interval.
func (u *PriceSyncUsecase) Run(ctx context.Context) error {
	backoff := u.cfg.InitialBackoff
	slog.Info("price sync started", "class", u.class, "interval", u.cfg.Interval)
	for {
		started := u.now()
		res, err := u.SyncOnce(ctx)
		if ctx.Err() != nil {
			slog.Info("price sync stopped", "class", u.class)
			return nil
		}

		var wait time.Duration
		if err != nil {
			slog.Error("price sync pass failed", "class", u.class, "backoff", backoff, "error", err)
			wait = backoff
			backoff = nextBackoff(backoff, u.cfg.MaxBackoff)
		} else {
			backoff = u.cfg.InitialBackoff
			slog.Debug("price sync pass done", "class", u.class, "updated", res.Updated, "failed", res.Failed)
			wait = u.cfg.Interval - u.now().Sub(started)
		}

		if !u.sleep(ctx, wait) {
			slog.Info("price sync stopped", "class", u.class)
			return nil
		}
	}
}

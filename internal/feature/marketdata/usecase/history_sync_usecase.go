package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"market_backend/internal/feature/marketdata/domain"
	"market_backend/internal/feature/marketdata/domain/calendar"
	"market_backend/internal/feature/marketdata/domain/entity"
	"market_backend/internal/feature/marketdata/domain/series"
)

const (
	DefaultHistoryConcurrency = 8
	DefaultStoreRetries       = 3
	DefaultRetryDelay         = 200 * time.Millisecond
	DefaultWarmup             = 10 * time.Second
)

// HistorySyncConfig tunes one history maintenance loop.
type HistorySyncConfig struct {
	Concurrency  int
	StoreRetries int
	RetryDelay   time.Duration
	// Warmup delays the first initialization so the price loop can fill the PriceRepository.
	Warmup time.Duration
}

func (c HistorySyncConfig) withDefaults() HistorySyncConfig {
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultHistoryConcurrency
	}
	if c.StoreRetries <= 0 {
		c.StoreRetries = DefaultStoreRetries
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	if c.Warmup < 0 {
		c.Warmup = 0
	}
	return c
}

// SymbolInitializer creates the first HistoryDocument of a symbol.
// Rebuild replaces an existing document only after a new one was built.
type SymbolInitializer interface {
	EnsureOne(ctx context.Context, symbol string) (InitOutcome, error)
	EnsureHistories(ctx context.Context, symbols []string) EnsureReport
	Rebuild(ctx context.Context, symbol string) (InitOutcome, error)
}

// TickScheduler calls fn at every wall-clock minute boundary until ctx ends.
// Ticks that would overlap a running one are skipped, not queued.
type TickScheduler interface {
	RunEveryMinute(ctx context.Context, name string, fn func(ctx context.Context)) error
}

// TickResult counts the outcome of one history tick.
type TickResult struct {
	MarketClosed bool
	Updated      int
	Unchanged    int
	Skipped      int
	Failed       int
}

// HistorySyncUsecase advances every resolution of every tracked symbol from the
// current PriceRecord once per minute.
type HistorySyncUsecase struct {
	class       entity.AssetClass
	catalog     *series.Catalog
	gate        calendar.Calendar // nil: never gated
	prices      PriceRepository
	histories   HistoryRepository
	symbols     SymbolRepository
	initializer SymbolInitializer
	cfg         HistorySyncConfig

	now func() time.Time
}

// NewHistorySyncUsecase wires a history loop. gate may be nil for markets that never close.
func NewHistorySyncUsecase(
	class entity.AssetClass,
	catalog *series.Catalog,
	gate calendar.Calendar,
	prices PriceRepository,
	histories HistoryRepository,
	symbols SymbolRepository,
	initializer SymbolInitializer,
	cfg HistorySyncConfig,
) *HistorySyncUsecase {
	return &HistorySyncUsecase{
		class:       class,
		catalog:     catalog,
		gate:        gate,
		prices:      prices,
		histories:   histories,
		symbols:     symbols,
		initializer: initializer,
		cfg:         cfg.withDefaults(),
		now:         time.Now,
	}
}

// Run initializes missing histories once, then ticks every minute until ctx ends.
func (u *HistorySyncUsecase) Run(ctx context.Context, sched TickScheduler) error {
	if !sleepContext(ctx, u.cfg.Warmup) {
		return nil
	}
	if u.initializer != nil {
		symbols, err := u.symbols.ListActiveCodes(ctx, string(u.class))
		if err != nil {
			// uninitialized symbols are initialized one by one inside the tick
			slog.Error("failed to list symbols for history initialization", "class", u.class, "error", err)
		} else {
			u.initializer.EnsureHistories(ctx, symbols)
		}
	}
	return sched.RunEveryMinute(ctx, "history-"+string(u.class), func(ctx context.Context) {
		res, err := u.Tick(ctx)
		if err != nil {
			slog.Error("history tick failed", "class", u.class, "error", err)
			return
		}
		slog.Debug("history tick done", "class", u.class, "closed", res.MarketClosed,
			"updated", res.Updated, "unchanged", res.Unchanged, "skipped", res.Skipped, "failed", res.Failed)
	})
}

// Tick runs one update over all tracked symbols with bounded fan-out.
// The tick time is truncated to the minute so every resolution sees the same instant.
func (u *HistorySyncUsecase) Tick(ctx context.Context) (TickResult, error) {
	now := u.now().Truncate(time.Minute)
	if u.gate != nil && !u.gate.IsOpen(now) {
		return TickResult{MarketClosed: true}, nil
	}

	symbols, err := u.symbols.ListActiveCodes(ctx, string(u.class))
	if err != nil {
		return TickResult{}, fmt.Errorf("list %s symbols: %w", u.class, err)
	}

	var updated, unchanged, skipped, failed atomic.Int64
	var g errgroup.Group
	g.SetLimit(u.cfg.Concurrency)
	for _, s := range symbols {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					failed.Add(1)
					slog.Error("history update panicked", "class", u.class, "symbol", s, "panic", r)
				}
			}()
			changed, err := u.SyncSymbol(ctx, s, now)
			switch {
			case errors.Is(err, domain.ErrPriceNotFound):
				skipped.Add(1)
			case err != nil:
				failed.Add(1)
				slog.Warn("failed to update history", "class", u.class, "symbol", s, "error", err)
			case changed:
				updated.Add(1)
			default:
				unchanged.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	return TickResult{
		Updated:   int(updated.Load()),
		Unchanged: int(unchanged.Load()),
		Skipped:   int(skipped.Load()),
		Failed:    int(failed.Load()),
	}, nil
}

// SyncSymbol applies the symbol's current price to every resolution and persists
// the document if anything changed. It returns domain.ErrPriceNotFound when the
// symbol has no price yet.
func (u *HistorySyncUsecase) SyncSymbol(ctx context.Context, symbol string, now time.Time) (bool, error) {
	symbol = entity.NormalizeSymbol(symbol)

	rec, err := u.prices.Get(ctx, u.class, symbol)
	if err != nil {
		return false, err
	}

	doc, err := u.histories.Get(ctx, u.class, symbol)
	if errors.Is(err, domain.ErrHistoryNotFound) && u.initializer != nil {
		outcome, err := u.initializer.EnsureOne(ctx, symbol)
		return outcome != OutcomeExisting, err
	}
	var hist entity.Histories
	switch {
	case errors.Is(err, domain.ErrHistoryNotFound):
		hist = entity.Histories{}
	case err != nil:
		return false, fmt.Errorf("load history %s: %w", symbol, err)
	default:
		hist = doc.Histories.Clone()
	}

	changed := false
	ts := now.Unix()
	for _, r := range u.catalog.Resolutions() {
		cs := u.catalog.BucketStart(ts, r)
		next, ch := series.Advance(hist[r.Key], cs, rec.Price, r.MaxCandles)
		hist[r.Key] = next
		changed = changed || ch
	}
	if !changed {
		return false, nil
	}
	return true, u.persist(ctx, symbol, hist, now)
}

func (u *HistorySyncUsecase) persist(ctx context.Context, symbol string, hist entity.Histories, now time.Time) error {
	var err error
	for attempt := 1; attempt <= u.cfg.StoreRetries; attempt++ {
		err = u.histories.UpsertHistories(ctx, u.class, symbol, hist, now.UTC())
		if err == nil {
			return nil
		}
		if errors.Is(err, domain.ErrStoreRejected) || ctx.Err() != nil || attempt == u.cfg.StoreRetries {
			break
		}
		slog.Warn("history write failed, retrying", "class", u.class, "symbol", symbol, "attempt", attempt, "error", err)
		if !sleepContext(ctx, u.cfg.RetryDelay*time.Duration(attempt)) {
			break
		}
	}
	return fmt.Errorf("%w: %s: %v", domain.ErrStoreWrite, symbol, err)
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"market_backend/internal/feature/marketdata/domain"
	"market_backend/internal/feature/marketdata/domain/entity"
	"market_backend/internal/feature/marketdata/domain/series"
	"market_backend/internal/shared/ratelimiter"
)

// backfillFloor is the minimum number of upstream rows requested per resolution,
// so that derived coarser series have enough fine data to work from.
const backfillFloor = 500

// InitOutcome describes what EnsureOne did for a symbol.
type InitOutcome string

const (
	OutcomeExisting   InitOutcome = "existing"
	OutcomeBackfilled InitOutcome = "backfilled"
	OutcomeSeeded     InitOutcome = "seeded"
)

// EnsureReport summarizes EnsureHistories.
type EnsureReport struct {
	Backfilled []string
	Seeded     []string
	Existing   []string
	Failed     map[string]error
}

// HistoryInitializer builds the first HistoryDocument of a symbol from upstream
// backfill, derived aggregation or, as a last resort, seed candles.
type HistoryInitializer struct {
	class        entity.AssetClass
	catalog      *series.Catalog
	backfiller   HistoryBackfiller
	prices       PriceRepository
	histories    HistoryRepository
	limiter      ratelimiter.RateLimiterInterface
	fetchTimeout time.Duration

	now func() time.Time
}

// NewHistoryInitializer wires an initializer for one asset class.
func NewHistoryInitializer(
	class entity.AssetClass,
	catalog *series.Catalog,
	backfiller HistoryBackfiller,
	prices PriceRepository,
	histories HistoryRepository,
	limiter ratelimiter.RateLimiterInterface,
	fetchTimeout time.Duration,
) *HistoryInitializer {
	if limiter == nil {
		limiter = ratelimiter.NewRateLimiter(0, 0)
	}
	if fetchTimeout <= 0 {
		fetchTimeout = DefaultFetchTimeout
	}
	return &HistoryInitializer{
		class:        class,
		catalog:      catalog,
		backfiller:   backfiller,
		prices:       prices,
		histories:    histories,
		limiter:      limiter,
		fetchTimeout: fetchTimeout,
		now:          time.Now,
	}
}

// EnsureHistories initializes every symbol that has no HistoryDocument yet.
// Symbols are independent: a failure is recorded and the next symbol proceeds.
func (u *HistoryInitializer) EnsureHistories(ctx context.Context, symbols []string) EnsureReport {
	report := EnsureReport{Failed: map[string]error{}}
	for _, s := range symbols {
		if ctx.Err() != nil {
			report.Failed[s] = ctx.Err()
			continue
		}
		outcome, err := u.EnsureOne(ctx, s)
		if err != nil {
			slog.Warn("failed to initialize history", "class", u.class, "symbol", s, "error", err)
			report.Failed[s] = err
			continue
		}
		switch outcome {
		case OutcomeBackfilled:
			report.Backfilled = append(report.Backfilled, s)
		case OutcomeSeeded:
			report.Seeded = append(report.Seeded, s)
		default:
			report.Existing = append(report.Existing, s)
		}
	}
	slog.Info("history initialization finished", "class", u.class,
		"backfilled", len(report.Backfilled), "seeded", len(report.Seeded),
		"existing", len(report.Existing), "failed", len(report.Failed))
	return report
}

// EnsureOne initializes a single symbol. An existing document is never touched.
func (u *HistoryInitializer) EnsureOne(ctx context.Context, symbol string) (InitOutcome, error) {
	symbol = entity.NormalizeSymbol(symbol)

	_, err := u.histories.Get(ctx, u.class, symbol)
	if err == nil {
		return OutcomeExisting, nil
	}
	if !errors.Is(err, domain.ErrHistoryNotFound) {
		return "", fmt.Errorf("load history %s: %w", symbol, err)
	}

	return u.persist(ctx, symbol)
}

// Rebuild builds fresh histories for symbol and replaces its document in one
// write. When nothing can be built the existing document is left as is.
func (u *HistoryInitializer) Rebuild(ctx context.Context, symbol string) (InitOutcome, error) {
	return u.persist(ctx, entity.NormalizeSymbol(symbol))
}

func (u *HistoryInitializer) persist(ctx context.Context, symbol string) (InitOutcome, error) {
	hist, outcome, err := u.Build(ctx, symbol)
	if err != nil {
		return "", err
	}
	if err := u.histories.UpsertHistories(ctx, u.class, symbol, hist, u.now().UTC()); err != nil {
		return "", fmt.Errorf("%w: %s: %v", domain.ErrStoreWrite, symbol, err)
	}
	slog.Info("history initialized", "class", u.class, "symbol", symbol, "outcome", outcome)
	return outcome, nil
}

// Build assembles histories for every catalog resolution without persisting them.
func (u *HistoryInitializer) Build(ctx context.Context, symbol string) (entity.Histories, InitOutcome, error) {
	loc := u.catalog.Location()
	resolutions := u.catalog.Resolutions()

	// raw holds the uncapped series used as the source for derived resolutions
	raw := map[string][]entity.Candle{}
	hist := make(entity.Histories, len(resolutions))

	for _, r := range resolutions {
		if r.Native == "" {
			continue
		}
		if err := u.limiter.WaitIfNeeded(ctx); err != nil {
			return nil, "", err
		}
		candles, err := u.fetch(ctx, symbol, r)
		if err != nil {
			slog.Warn("backfill failed", "class", u.class, "symbol", symbol, "resolution", r.Key, "error", err)
			continue
		}
		aligned := series.Aggregate(candles, r, loc)
		raw[r.Key] = aligned
		hist[r.Key] = series.Cap(aligned, r.MaxCandles)
	}

	for _, r := range resolutions {
		if len(hist[r.Key]) > 0 {
			continue
		}
		for _, src := range r.DeriveFrom {
			if len(raw[src]) == 0 {
				continue
			}
			derived := series.Aggregate(raw[src], r, loc)
			raw[r.Key] = derived
			hist[r.Key] = series.Cap(derived, r.MaxCandles)
			slog.Debug("derived resolution", "class", u.class, "symbol", symbol, "resolution", r.Key, "from", src)
			break
		}
	}

	empty := true
	for _, r := range resolutions {
		if len(hist[r.Key]) > 0 {
			empty = false
			continue
		}
		hist[r.Key] = []entity.Candle{}
	}
	if !empty {
		return hist, OutcomeBackfilled, nil
	}

	rec, err := u.prices.Get(ctx, u.class, symbol)
	if err != nil {
		return nil, "", fmt.Errorf("seed %s: %w", symbol, err)
	}
	now := u.now().Unix()
	for _, r := range resolutions {
		hist[r.Key] = []entity.Candle{entity.SeedCandle(u.catalog.BucketStart(now, r), rec.Price)}
	}
	return hist, OutcomeSeeded, nil
}

func (u *HistoryInitializer) fetch(ctx context.Context, symbol string, r series.Resolution) ([]entity.Candle, error) {
	fctx, cancel := context.WithTimeout(ctx, u.fetchTimeout)
	defer cancel()
	candles, err := u.backfiller.FetchRange(fctx, symbol, r.Native, FetchWindow{}, max(r.MaxCandles, backfillFloor))
	if err != nil {
		return nil, err
	}
	// drop bars whose OHLC is inconsistent
	valid := candles[:0]
	for _, c := range candles {
		if c.Valid() {
			valid = append(valid, c)
		}
	}
	if dropped := len(candles) - len(valid); dropped > 0 {
		slog.Warn("dropped malformed candles", "class", u.class, "symbol", symbol, "resolution", r.Key, "count", dropped)
	}
	return valid, nil
}

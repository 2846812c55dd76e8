package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"market_backend/internal/feature/marketdata/domain"
	"market_backend/internal/feature/marketdata/domain/calendar"
	"market_backend/internal/feature/marketdata/domain/entity"
	"market_backend/internal/feature/marketdata/domain/series"
)

const (
	// DefaultHistoryLimit is the candle count returned when no limit is given.
	DefaultHistoryLimit = 500
	// MaxHistoryLimit caps the requested limit.
	MaxHistoryLimit = 5000
)

// Market bundles the static per-class dependencies of the query surface.
type Market struct {
	Catalog  *series.Catalog
	Calendar calendar.Calendar
}

// HistoryQuery selects candles of one series. Zero Start/End leave that side open;
// End is exclusive.
type HistoryQuery struct {
	Class      entity.AssetClass
	Symbol     string
	Resolution string
	Start      int64
	End        int64
	Limit      int
}

// HistoryResult is the answer to a HistoryQuery.
type HistoryResult struct {
	Symbol     string
	Resolution string
	Candles    []entity.Candle
	UpdatedAt  time.Time
}

// MarketStatus is the market-open state of a class at a given instant.
type MarketStatus struct {
	Class entity.AssetClass
	Open  bool
	At    time.Time
}

// MarketQueryUsecase serves current prices, candle histories and market status.
type MarketQueryUsecase struct {
	markets   map[entity.AssetClass]Market
	prices    PriceRepository
	histories HistoryRepository
	now       func() time.Time
}

// NewMarketQueryUsecase creates the query surface over the given markets.
func NewMarketQueryUsecase(markets map[entity.AssetClass]Market, prices PriceRepository, histories HistoryRepository) *MarketQueryUsecase {
	return &MarketQueryUsecase{
		markets:   markets,
		prices:    prices,
		histories: histories,
		now:       time.Now,
	}
}

func (u *MarketQueryUsecase) market(class entity.AssetClass) (Market, error) {
	m, ok := u.markets[class]
	if !ok {
		return Market{}, fmt.Errorf("%w: %q", domain.ErrUnknownAssetClass, class)
	}
	return m, nil
}

// GetCurrentPrice returns the latest PriceRecord of a symbol.
func (u *MarketQueryUsecase) GetCurrentPrice(ctx context.Context, class entity.AssetClass, symbol string) (*entity.PriceRecord, error) {
	if _, err := u.market(class); err != nil {
		return nil, err
	}
	return u.prices.Get(ctx, class, entity.NormalizeSymbol(symbol))
}

// GetHistory returns candles with Start <= ts < End, keeping the newest Limit in
// ascending order. Limit defaults to DefaultHistoryLimit and is capped at
// MaxHistoryLimit. A symbol without a document yields an empty result.
func (u *MarketQueryUsecase) GetHistory(ctx context.Context, q HistoryQuery) (*HistoryResult, error) {
	m, err := u.market(q.Class)
	if err != nil {
		return nil, err
	}
	r, err := m.Catalog.Normalize(q.Resolution)
	if err != nil {
		return nil, err
	}
	switch {
	case q.Limit <= 0:
		q.Limit = DefaultHistoryLimit
	case q.Limit > MaxHistoryLimit:
		q.Limit = MaxHistoryLimit
	}

	symbol := entity.NormalizeSymbol(q.Symbol)
	res := &HistoryResult{Symbol: symbol, Resolution: r.Key, Candles: []entity.Candle{}}

	doc, err := u.histories.Get(ctx, q.Class, symbol)
	if errors.Is(err, domain.ErrHistoryNotFound) {
		return res, nil
	}
	if err != nil {
		return nil, err
	}
	res.Candles = series.Window(doc.Histories[r.Key], q.Start, q.End, q.Limit)
	res.UpdatedAt = doc.UpdatedAt
	return res, nil
}

// MarketStatus reports whether the market of class is open now.
func (u *MarketQueryUsecase) MarketStatus(class entity.AssetClass) (MarketStatus, error) {
	m, err := u.market(class)
	if err != nil {
		return MarketStatus{}, err
	}
	now := u.now()
	open := true
	if m.Calendar != nil {
		open = m.Calendar.IsOpen(now)
	}
	return MarketStatus{Class: class, Open: open, At: now}, nil
}

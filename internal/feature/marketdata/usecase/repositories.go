// Package usecase implements price polling, history maintenance and the
// query surface of the marketdata feature.
package usecase

import (
	"context"
	"time"

	"market_backend/internal/feature/marketdata/domain/entity"
)

// Following Go convention, interfaces are defined by the consumer (usecase).

// PriceRepository stores one current price per symbol and asset class.
type PriceRepository interface {
	Upsert(ctx context.Context, rec entity.PriceRecord) error
	// Get returns domain.ErrPriceNotFound when no record exists.
	Get(ctx context.Context, class entity.AssetClass, symbol string) (*entity.PriceRecord, error)
}

// HistoryRepository stores one HistoryDocument per symbol and asset class.
// UpsertHistories replaces the whole document in a single store operation.
type HistoryRepository interface {
	// Get returns domain.ErrHistoryNotFound when no document exists.
	Get(ctx context.Context, class entity.AssetClass, symbol string) (*entity.HistoryDocument, error)
	UpsertHistories(ctx context.Context, class entity.AssetClass, symbol string, histories entity.Histories, updatedAt time.Time) error
}

// SymbolRepository lists the tracked symbols of a market.
type SymbolRepository interface {
	ListActiveCodes(ctx context.Context, market string) ([]string, error)
}

// PriceFetcher returns the current spot price of a symbol from an upstream source.
type PriceFetcher interface {
	FetchCurrent(ctx context.Context, symbol string) (entity.Quote, error)
}

// FetchWindow bounds a backfill request. Zero values leave a side open.
type FetchWindow struct {
	Start time.Time
	End   time.Time
}

// HistoryBackfiller returns raw candles for a symbol at an upstream-native interval token.
type HistoryBackfiller interface {
	FetchRange(ctx context.Context, symbol, token string, window FetchWindow, limit int) ([]entity.Candle, error)
}

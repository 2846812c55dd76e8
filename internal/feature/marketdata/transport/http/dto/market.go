// Package dto defines data transfer objects for the marketdata HTTP API.
// Prices and candle values are encoded as decimal strings.
package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ErrorResponse is the body of an error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// PriceResponse is the current price of one symbol.
type PriceResponse struct {
	AssetClass string          `json:"asset_class"`
	Symbol     string          `json:"symbol"`
	Price      decimal.Decimal `json:"price"`
	Source     string          `json:"source"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// CandleResponse is one OHLCV bar; Time is the bucket start in epoch seconds.
type CandleResponse struct {
	Time   int64           `json:"time"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume decimal.Decimal `json:"volume"`
}

// HistoryResponse carries the candles of one series.
type HistoryResponse struct {
	Symbol     string           `json:"symbol"`
	Resolution string           `json:"resolution"`
	Candles    []CandleResponse `json:"candles"`
	UpdatedAt  *time.Time       `json:"updated_at,omitempty"`
}

// MarketStatusResponse reports whether a market is open.
type MarketStatusResponse struct {
	AssetClass string    `json:"asset_class"`
	Open       bool      `json:"open"`
	At         time.Time `json:"at"`
}

// ReinitRequest is the body of POST /api/admin/histories/reinit.
type ReinitRequest struct {
	Class   string   `json:"class" binding:"required"`
	Symbols []string `json:"symbols" binding:"omitempty,max=200,dive,required"`
	Force   bool     `json:"force"`
}

// ReinitClassResult reports one asset class of a reinit request.
type ReinitClassResult struct {
	AssetClass string            `json:"asset_class"`
	Processed  []string          `json:"processed"`
	Unchanged  []string          `json:"unchanged"`
	Errors     map[string]string `json:"errors"`
}

// QuoteMessage is pushed on /ws/quotes whenever a tracked price changes.
type QuoteMessage struct {
	Type       string          `json:"type"`
	AssetClass string          `json:"asset_class"`
	Symbol     string          `json:"symbol"`
	Price      decimal.Decimal `json:"price"`
	Source     string          `json:"source"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

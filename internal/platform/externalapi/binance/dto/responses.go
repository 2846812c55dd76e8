// Package dto defines the Binance API response bodies.
package dto

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// TickerPrice is the body of GET /api/v3/ticker/price.
type TickerPrice struct {
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
}

// Kline is one row of GET /api/v3/klines.
// Binance encodes a kline as a positional array:
// [openTime, open, high, low, close, volume, closeTime, ...]
type Kline struct {
	OpenTime int64 // ms
	Open     decimal.Decimal
	High     decimal.Decimal
	Low      decimal.Decimal
	Close    decimal.Decimal
	Volume   decimal.Decimal
}

func (k *Kline) UnmarshalJSON(b []byte) error {
	var row []json.RawMessage
	if err := json.Unmarshal(b, &row); err != nil {
		return err
	}
	if len(row) < 6 {
		return fmt.Errorf("kline: want at least 6 fields, got %d", len(row))
	}
	if err := json.Unmarshal(row[0], &k.OpenTime); err != nil {
		return fmt.Errorf("kline open time: %w", err)
	}
	for i, dst := range []*decimal.Decimal{&k.Open, &k.High, &k.Low, &k.Close, &k.Volume} {
		if err := dst.UnmarshalJSON(row[i+1]); err != nil {
			return fmt.Errorf("kline field %d: %w", i+1, err)
		}
	}
	return nil
}

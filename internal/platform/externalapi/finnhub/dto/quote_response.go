// Package dto defines the Finnhub API response bodies.
package dto

import "github.com/shopspring/decimal"

// QuoteResponse is the body of GET /quote.
type QuoteResponse struct {
	Current       decimal.Decimal `json:"c"`
	High          decimal.Decimal `json:"h"`
	Low           decimal.Decimal `json:"l"`
	Open          decimal.Decimal `json:"o"`
	PreviousClose decimal.Decimal `json:"pc"`
	Timestamp     int64           `json:"t"`
}

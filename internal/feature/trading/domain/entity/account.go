// Package entity defines the domain models for the trading feature.
package entity

import (
	"time"

	"github.com/shopspring/decimal"

	mdentity "market_backend/internal/feature/marketdata/domain/entity"
)

// Holdings maps asset class to symbol to quantity. Zero quantities are not kept.
type Holdings map[mdentity.AssetClass]map[string]decimal.Decimal

// Quantity returns the held quantity, zero when absent.
func (h Holdings) Quantity(class mdentity.AssetClass, symbol string) decimal.Decimal {
	if q, ok := h[class][symbol]; ok {
		return q
	}
	return decimal.Zero
}

// Set stores q, removing the entry when q is zero.
func (h Holdings) Set(class mdentity.AssetClass, symbol string, q decimal.Decimal) {
	if q.IsZero() {
		delete(h[class], symbol)
		if len(h[class]) == 0 {
			delete(h, class)
		}
		return
	}
	if h[class] == nil {
		h[class] = map[string]decimal.Decimal{}
	}
	h[class][symbol] = q
}

// Account is the simulated portfolio of one user.
type Account struct {
	UserID    string
	Cash      decimal.Decimal
	Holdings  Holdings
	CreatedAt time.Time
	UpdatedAt time.Time
}

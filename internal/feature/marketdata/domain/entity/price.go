package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceRecord is the single current price of a symbol within one asset class.
type PriceRecord struct {
	AssetClass AssetClass
	Symbol     string
	Price      decimal.Decimal
	Source     string
	UpdatedAt  time.Time
}

// Quote is what an upstream price source returns for one symbol.
type Quote struct {
	Price  decimal.Decimal
	Source string
}

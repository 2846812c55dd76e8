package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	mdentity "market_backend/internal/feature/marketdata/domain/entity"
)

// Action is the side of a trade.
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
)

// ParseAction accepts "buy" and "sell" in any case.
func ParseAction(s string) (Action, bool) {
	switch Action(strings.ToLower(strings.TrimSpace(s))) {
	case ActionBuy:
		return ActionBuy, true
	case ActionSell:
		return ActionSell, true
	}
	return "", false
}

// Trade is one executed order. Total = Quantity * Price rounded to cents.
type Trade struct {
	ID         string
	UserID     string
	AssetClass mdentity.AssetClass
	Symbol     string
	Action     Action
	Quantity   decimal.Decimal
	Price      decimal.Decimal
	Total      decimal.Decimal
	ExecutedAt time.Time
}

// Package usecase implements account and trade execution for the simulated portfolio.
package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"market_backend/internal/feature/marketdata/domain"
	mdentity "market_backend/internal/feature/marketdata/domain/entity"
	"market_backend/internal/feature/trading/domain/entity"
)

const (
	// CashScale is the number of decimal places kept for cash.
	CashScale = 2

	DefaultTradeListLimit = 50
	MaxTradeListLimit     = 500
)

// QuantityScale returns the fractional digits a quantity of class may carry.
func QuantityScale(class mdentity.AssetClass) int32 {
	if class == mdentity.AssetClassCrypto {
		return 8
	}
	return 0
}

// AccountRepository persists accounts and executes trades atomically.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type AccountRepository interface {
	// Create opens an account. It returns ErrAccountExists if one is already there.
	Create(ctx context.Context, acct *entity.Account) error
	// Get returns the account, or ErrUserNotFound.
	Get(ctx context.Context, userID string) (*entity.Account, error)
	// Execute loads the account with a write lock, lets apply mutate it and build
	// the trade, then persists both in one transaction. Nothing is written when apply fails.
	Execute(ctx context.Context, userID string, apply func(acct *entity.Account) (*entity.Trade, error)) (*entity.Account, *entity.Trade, error)
	// ListTrades returns at most limit trades, newest first.
	ListTrades(ctx context.Context, userID string, limit int) ([]entity.Trade, error)
}

// PriceLookup reads the latest price.
type PriceLookup interface {
	Get(ctx context.Context, class mdentity.AssetClass, symbol string) (*mdentity.PriceRecord, error)
}

// TradeRequest is one order. A nil Price executes at the current PriceRecord.
type TradeRequest struct {
	UserID   string
	Class    mdentity.AssetClass
	Symbol   string
	Action   string
	Quantity decimal.Decimal
	Price    *decimal.Decimal
}

// TradingUsecase opens accounts and executes trades.
type TradingUsecase struct {
	accounts     AccountRepository
	prices       PriceLookup
	startingCash decimal.Decimal
	now          func() time.Time
	newID        func() string
}

// NewTradingUsecase creates a TradingUsecase. New accounts receive startingCash.
func NewTradingUsecase(accounts AccountRepository, prices PriceLookup, startingCash decimal.Decimal) *TradingUsecase {
	return &TradingUsecase{
		accounts:     accounts,
		prices:       prices,
		startingCash: startingCash.Round(CashScale),
		now:          time.Now,
		newID:        uuid.NewString,
	}
}

// OpenAccount creates an account holding only the starting cash.
func (u *TradingUsecase) OpenAccount(ctx context.Context, userID string) (*entity.Account, error) {
	now := u.now().UTC()
	acct := &entity.Account{
		UserID:    userID,
		Cash:      u.startingCash,
		Holdings:  entity.Holdings{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := u.accounts.Create(ctx, acct); err != nil {
		return nil, err
	}
	slog.Info("account opened", "user_id", userID, "cash", acct.Cash.String())
	return acct, nil
}

// Balance returns the cash and holdings of userID.
func (u *TradingUsecase) Balance(ctx context.Context, userID string) (*entity.Account, error) {
	return u.accounts.Get(ctx, userID)
}

// Trades returns the newest trades of userID. The account must exist.
func (u *TradingUsecase) Trades(ctx context.Context, userID string, limit int) ([]entity.Trade, error) {
	if _, err := u.accounts.Get(ctx, userID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > MaxTradeListLimit {
		limit = DefaultTradeListLimit
	}
	return u.accounts.ListTrades(ctx, userID, limit)
}

// Trade validates and executes req. Quantities are never rounded: one that does
// not fit the class scale is ErrInvalidTrade.
func (u *TradingUsecase) Trade(ctx context.Context, req TradeRequest) (*entity.Trade, *entity.Account, error) {
	if _, ok := mdentity.ParseAssetClass(string(req.Class)); !ok {
		return nil, nil, fmt.Errorf("%w: %q", domain.ErrUnknownAssetClass, req.Class)
	}
	action, ok := entity.ParseAction(req.Action)
	if !ok {
		return nil, nil, fmt.Errorf("%w: action must be buy or sell", ErrInvalidTrade)
	}
	symbol := mdentity.NormalizeSymbol(req.Symbol)
	if symbol == "" {
		return nil, nil, fmt.Errorf("%w: symbol is required", ErrInvalidTrade)
	}
	if !req.Quantity.IsPositive() {
		return nil, nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidTrade)
	}
	scale := QuantityScale(req.Class)
	if !req.Quantity.Round(scale).Equal(req.Quantity) {
		return nil, nil, fmt.Errorf("%w: quantity %s allows at most %d decimal places", ErrInvalidTrade, req.Quantity, scale)
	}

	price, err := u.resolvePrice(ctx, req.Class, symbol, req.Price)
	if err != nil {
		return nil, nil, err
	}
	total := req.Quantity.Mul(price).Round(CashScale)

	acct, trade, err := u.accounts.Execute(ctx, req.UserID, func(acct *entity.Account) (*entity.Trade, error) {
		if acct.Holdings == nil {
			acct.Holdings = entity.Holdings{}
		}
		held := acct.Holdings.Quantity(req.Class, symbol)
		switch action {
		case entity.ActionBuy:
			if acct.Cash.LessThan(total) {
				return nil, fmt.Errorf("%w: need %s, have %s", ErrInsufficientBalance, total, acct.Cash)
			}
			acct.Cash = acct.Cash.Sub(total)
			acct.Holdings.Set(req.Class, symbol, held.Add(req.Quantity))
		case entity.ActionSell:
			if held.LessThan(req.Quantity) {
				return nil, fmt.Errorf("%w: %s %s held %s", ErrInsufficientHoldings, req.Class, symbol, held)
			}
			acct.Cash = acct.Cash.Add(total)
			acct.Holdings.Set(req.Class, symbol, held.Sub(req.Quantity))
		}
		now := u.now().UTC()
		acct.UpdatedAt = now
		return &entity.Trade{
			ID:         u.newID(),
			UserID:     acct.UserID,
			AssetClass: req.Class,
			Symbol:     symbol,
			Action:     action,
			Quantity:   req.Quantity,
			Price:      price,
			Total:      total,
			ExecutedAt: now,
		}, nil
	})
	if err != nil {
		return nil, nil, err
	}
	slog.Info("trade executed", "user_id", req.UserID, "class", req.Class, "symbol", symbol,
		"action", action, "quantity", req.Quantity.String(), "price", price.String(), "total", total.String())
	return trade, acct, nil
}

func (u *TradingUsecase) resolvePrice(ctx context.Context, class mdentity.AssetClass, symbol string, given *decimal.Decimal) (decimal.Decimal, error) {
	if given != nil {
		if !given.IsPositive() {
			return decimal.Zero, fmt.Errorf("%w: price must be positive", ErrInvalidTrade)
		}
		return *given, nil
	}
	rec, err := u.prices.Get(ctx, class, symbol)
	if err != nil {
		return decimal.Zero, err
	}
	if !rec.Price.IsPositive() {
		return decimal.Zero, fmt.Errorf("%s/%s: %w", class, symbol, domain.ErrPriceNotFound)
	}
	return rec.Price, nil
}

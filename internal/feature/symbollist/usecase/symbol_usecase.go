// Package usecase implements the business logic for symbol-related operations.
package usecase

import (
	"context"
	"errors"

	mdentity "market_backend/internal/feature/marketdata/domain/entity"
	"market_backend/internal/feature/symbollist/domain/entity"
)

// ErrUnknownMarket is returned when the market filter names no known asset class.
var ErrUnknownMarket = errors.New("unknown market")

// SymbolRepository abstracts the persistence layer for tracked symbols.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type SymbolRepository interface {
	ListActive(ctx context.Context, market string) ([]entity.Symbol, error)
	ListActiveCodes(ctx context.Context, market string) ([]string, error)
	Upsert(ctx context.Context, symbols []entity.Symbol) error
}

// SeedSymbol is one configured entry of a market's symbol list.
type SeedSymbol struct {
	Code string
	Name string
}

// SymbolUsecase provides business logic for symbol operations.
type SymbolUsecase struct {
	repo SymbolRepository
}

// NewSymbolUsecase creates a new SymbolUsecase with the given repository.
func NewSymbolUsecase(r SymbolRepository) *SymbolUsecase {
	return &SymbolUsecase{repo: r}
}

// ListActiveSymbols returns the active symbols of market, or of every market
// when market is empty. Aliases such as "fx" or "stocks" are accepted.
func (u *SymbolUsecase) ListActiveSymbols(ctx context.Context, market string) ([]entity.Symbol, error) {
	canonical := ""
	if market != "" {
		class, ok := mdentity.ParseAssetClass(market)
		if !ok {
			return nil, ErrUnknownMarket
		}
		canonical = string(class)
	}
	return u.repo.ListActive(ctx, canonical)
}

// SeedSymbols registers the configured list of one market. The list order
// becomes the sort key; blank and duplicate codes are dropped.
func (u *SymbolUsecase) SeedSymbols(ctx context.Context, class mdentity.AssetClass, seeds []SeedSymbol) (int, error) {
	seen := make(map[string]struct{}, len(seeds))
	rows := make([]entity.Symbol, 0, len(seeds))
	for _, s := range seeds {
		code := mdentity.NormalizeSymbol(s.Code)
		if code == "" {
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		name := s.Name
		if name == "" {
			name = code
		}
		rows = append(rows, entity.Symbol{
			Market:   string(class),
			Code:     code,
			Name:     name,
			IsActive: true,
			SortKey:  len(rows) + 1,
		})
	}
	if err := u.repo.Upsert(ctx, rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

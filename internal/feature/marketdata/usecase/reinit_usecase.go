package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"market_backend/internal/feature/marketdata/domain"
	"market_backend/internal/feature/marketdata/domain/entity"
)

// ReinitTarget is what the reinit surface needs per asset class.
type ReinitTarget struct {
	Initializer SymbolInitializer
	Symbols     SymbolRepository
}

// ReinitSummary reports one asset class of a reinit request.
type ReinitSummary struct {
	AssetClass entity.AssetClass
	Processed  []string
	Unchanged  []string
	Errors     map[string]string
}

// ReinitUsecase re-runs history initialization on demand.
type ReinitUsecase struct {
	targets map[entity.AssetClass]ReinitTarget
}

// NewReinitUsecase creates the administrative reinit surface.
func NewReinitUsecase(targets map[entity.AssetClass]ReinitTarget) *ReinitUsecase {
	return &ReinitUsecase{targets: targets}
}

// Reinit initializes histories for class ("all" for every class). An empty subset
// means every tracked symbol. With force, existing documents are rebuilt and
// replaced; a symbol whose rebuild fails keeps its current document.
// Each symbol is handled and reported on its own.
func (u *ReinitUsecase) Reinit(ctx context.Context, class string, subset []string, force bool) ([]ReinitSummary, error) {
	classes, err := u.resolveClasses(class)
	if err != nil {
		return nil, err
	}

	out := make([]ReinitSummary, 0, len(classes))
	for _, c := range classes {
		out = append(out, u.reinitClass(ctx, c, subset, force))
	}
	return out, nil
}

func (u *ReinitUsecase) resolveClasses(class string) ([]entity.AssetClass, error) {
	if strings.EqualFold(strings.TrimSpace(class), "all") {
		var classes []entity.AssetClass
		for _, c := range entity.AssetClasses {
			if _, ok := u.targets[c]; ok {
				classes = append(classes, c)
			}
		}
		return classes, nil
	}
	c, ok := entity.ParseAssetClass(class)
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownAssetClass, class)
	}
	if _, ok := u.targets[c]; !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownAssetClass, class)
	}
	return []entity.AssetClass{c}, nil
}

func (u *ReinitUsecase) reinitClass(ctx context.Context, class entity.AssetClass, subset []string, force bool) ReinitSummary {
	t := u.targets[class]
	sum := ReinitSummary{AssetClass: class, Processed: []string{}, Unchanged: []string{}, Errors: map[string]string{}}

	symbols := subset
	if len(symbols) == 0 {
		var err error
		symbols, err = t.Symbols.ListActiveCodes(ctx, string(class))
		if err != nil {
			sum.Errors["*"] = err.Error()
			return sum
		}
	}

	for _, s := range symbols {
		s = entity.NormalizeSymbol(s)
		if s == "" {
			continue
		}
		var (
			outcome InitOutcome
			err     error
		)
		if force {
			outcome, err = t.Initializer.Rebuild(ctx, s)
		} else {
			outcome, err = t.Initializer.EnsureOne(ctx, s)
		}
		if err != nil {
			sum.Errors[s] = err.Error()
			continue
		}
		if outcome == OutcomeExisting {
			sum.Unchanged = append(sum.Unchanged, s)
			continue
		}
		sum.Processed = append(sum.Processed, s)
	}
	slog.Info("histories reinitialized", "class", class, "force", force,
		"processed", len(sum.Processed), "unchanged", len(sum.Unchanged), "errors", len(sum.Errors))
	return sum
}

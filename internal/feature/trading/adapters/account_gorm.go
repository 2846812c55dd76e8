// Package adapters provides the gorm implementation of the trading repositories.
package adapters

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	mdentity "market_backend/internal/feature/marketdata/domain/entity"
	"market_backend/internal/feature/trading/domain/entity"
	"market_backend/internal/feature/trading/usecase"
)

// AccountModel is the GORM model for the accounts table.
type AccountModel struct {
	UserID    string          `gorm:"primaryKey;size:128"`
	Cash      decimal.Decimal `gorm:"type:decimal(24,2);not null"`
	CreatedAt time.Time       `gorm:"not null"`
	UpdatedAt time.Time       `gorm:"not null;autoUpdateTime:false"`
}

func (AccountModel) TableName() string { return "accounts" }

// HoldingModel is one (user, class, symbol) position.
type HoldingModel struct {
	UserID     string          `gorm:"primaryKey;size:128"`
	AssetClass string          `gorm:"primaryKey;size:16"`
	Symbol     string          `gorm:"primaryKey;size:32"`
	Quantity   decimal.Decimal `gorm:"type:decimal(36,8);not null"`
}

func (HoldingModel) TableName() string { return "holdings" }

// TradeModel is the append-only trade log.
type TradeModel struct {
	ID         string          `gorm:"primaryKey;size:36"`
	UserID     string          `gorm:"size:128;not null;index:trade_user_time,priority:1"`
	AssetClass string          `gorm:"size:16;not null"`
	Symbol     string          `gorm:"size:32;not null"`
	Action     string          `gorm:"size:8;not null"`
	Quantity   decimal.Decimal `gorm:"type:decimal(36,8);not null"`
	Price      decimal.Decimal `gorm:"type:decimal(24,10);not null"`
	Total      decimal.Decimal `gorm:"type:decimal(24,2);not null"`
	ExecutedAt time.Time       `gorm:"not null;index:trade_user_time,priority:2"`
}

func (TradeModel) TableName() string { return "trades" }

// Models returns the tables this package owns, for AutoMigrate.
func Models() []any {
	return []any{&AccountModel{}, &HoldingModel{}, &TradeModel{}}
}

// accountGorm is the gorm implementation of AccountRepository.
type accountGorm struct {
	db *gorm.DB
}

var _ usecase.AccountRepository = (*accountGorm)(nil)

// NewAccountRepository returns an AccountRepository backed by db.
func NewAccountRepository(db *gorm.DB) *accountGorm {
	return &accountGorm{db: db}
}

// Create inserts the account; an existing row makes it ErrAccountExists.
func (r *accountGorm) Create(ctx context.Context, acct *entity.Account) error {
	m := AccountModel{UserID: acct.UserID, Cash: acct.Cash, CreatedAt: acct.CreatedAt, UpdatedAt: acct.UpdatedAt}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&m)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return usecase.ErrAccountExists
	}
	return nil
}

// Get loads the account and its holdings.
func (r *accountGorm) Get(ctx context.Context, userID string) (*entity.Account, error) {
	return load(r.db.WithContext(ctx), userID, false)
}

// Execute runs apply inside one transaction. On postgres the account row is
// locked with SELECT ... FOR UPDATE; sqlite serializes writers on its own.
func (r *accountGorm) Execute(ctx context.Context, userID string, apply func(acct *entity.Account) (*entity.Trade, error)) (*entity.Account, *entity.Trade, error) {
	var (
		out   *entity.Account
		trade *entity.Trade
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		acct, err := load(tx, userID, tx.Dialector.Name() == "postgres")
		if err != nil {
			return err
		}
		before := cloneHoldings(acct.Holdings)

		t, err := apply(acct)
		if err != nil {
			return err
		}

		if err := tx.Model(&AccountModel{}).Where("user_id = ?", userID).
			Updates(map[string]any{"cash": acct.Cash, "updated_at": acct.UpdatedAt}).Error; err != nil {
			return err
		}
		if err := saveHoldings(tx, userID, before, acct.Holdings); err != nil {
			return err
		}
		if err := tx.Create(&TradeModel{
			ID:         t.ID,
			UserID:     t.UserID,
			AssetClass: string(t.AssetClass),
			Symbol:     t.Symbol,
			Action:     string(t.Action),
			Quantity:   t.Quantity,
			Price:      t.Price,
			Total:      t.Total,
			ExecutedAt: t.ExecutedAt,
		}).Error; err != nil {
			return err
		}
		out, trade = acct, t
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return out, trade, nil
}

// ListTrades returns at most limit trades, newest first.
func (r *accountGorm) ListTrades(ctx context.Context, userID string, limit int) ([]entity.Trade, error) {
	var rows []TradeModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("executed_at DESC").Order("id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]entity.Trade, 0, len(rows))
	for _, m := range rows {
		out = append(out, entity.Trade{
			ID:         m.ID,
			UserID:     m.UserID,
			AssetClass: mdentity.AssetClass(m.AssetClass),
			Symbol:     m.Symbol,
			Action:     entity.Action(m.Action),
			Quantity:   m.Quantity,
			Price:      m.Price,
			Total:      m.Total,
			ExecutedAt: m.ExecutedAt,
		})
	}
	return out, nil
}

func load(db *gorm.DB, userID string, lock bool) (*entity.Account, error) {
	q := db
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var m AccountModel
	if err := q.Where("user_id = ?", userID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrUserNotFound
		}
		return nil, err
	}

	var rows []HoldingModel
	if err := db.Where("user_id = ?", userID).Order("asset_class").Order("symbol").Find(&rows).Error; err != nil {
		return nil, err
	}
	h := entity.Holdings{}
	for _, row := range rows {
		h.Set(mdentity.AssetClass(row.AssetClass), row.Symbol, row.Quantity)
	}
	return &entity.Account{UserID: m.UserID, Cash: m.Cash, Holdings: h, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt}, nil
}

func cloneHoldings(h entity.Holdings) entity.Holdings {
	out := make(entity.Holdings, len(h))
	for class, m := range h {
		for sym, q := range m {
			out.Set(class, sym, q)
		}
	}
	return out
}

// saveHoldings writes only the positions that differ between before and after.
func saveHoldings(tx *gorm.DB, userID string, before, after entity.Holdings) error {
	for class, m := range before {
		for sym := range m {
			if after.Quantity(class, sym).IsZero() {
				if err := tx.Where("user_id = ? AND asset_class = ? AND symbol = ?", userID, string(class), sym).
					Delete(&HoldingModel{}).Error; err != nil {
					return err
				}
			}
		}
	}
	for class, m := range after {
		for sym, q := range m {
			if before.Quantity(class, sym).Equal(q) {
				continue
			}
			row := HoldingModel{UserID: userID, AssetClass: string(class), Symbol: sym, Quantity: q}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}, {Name: "asset_class"}, {Name: "symbol"}},
				DoUpdates: clause.AssignmentColumns([]string{"quantity"}),
			}).Create(&row).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

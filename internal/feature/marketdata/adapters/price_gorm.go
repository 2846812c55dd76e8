package adapters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"market_backend/internal/feature/marketdata/domain"
	"market_backend/internal/feature/marketdata/domain/entity"
	"market_backend/internal/feature/marketdata/usecase"
)

type priceStore struct {
	db *gorm.DB
}

var _ usecase.PriceRepository = (*priceStore)(nil)

// NewPriceRepository returns a PriceRepository backed by gorm.
func NewPriceRepository(db *gorm.DB) *priceStore {
	return &priceStore{db: db}
}

// PriceModel holds the current price of one symbol in a single row.
type PriceModel struct {
	ID         uint            `gorm:"primaryKey"`
	AssetClass string          `gorm:"size:16;not null;uniqueIndex:price_class_sym,priority:1"`
	Symbol     string          `gorm:"size:32;not null;uniqueIndex:price_class_sym,priority:2"`
	Price      decimal.Decimal `gorm:"type:decimal(24,10);not null"`
	Source     string          `gorm:"size:128;not null;default:''"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime:false;not null"`
}

func (PriceModel) TableName() string {
	return "prices"
}

func (r *priceStore) Upsert(ctx context.Context, rec entity.PriceRecord) error {
	m := PriceModel{
		AssetClass: string(rec.AssetClass),
		Symbol:     rec.Symbol,
		Price:      rec.Price,
		Source:     rec.Source,
		UpdatedAt:  rec.UpdatedAt.UTC(),
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "asset_class"}, {Name: "symbol"}},
		DoUpdates: clause.AssignmentColumns([]string{"price", "source", "updated_at"}),
	}).Create(&m).Error
	if err != nil {
		return fmt.Errorf("upsert price %s/%s: %w", rec.AssetClass, rec.Symbol, classifyWriteError(err))
	}
	return nil
}

func (r *priceStore) Get(ctx context.Context, class entity.AssetClass, symbol string) (*entity.PriceRecord, error) {
	var m PriceModel
	err := r.db.WithContext(ctx).
		Where("asset_class = ? AND symbol = ?", string(class), symbol).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPriceNotFound
		}
		return nil, err
	}
	return &entity.PriceRecord{
		AssetClass: entity.AssetClass(m.AssetClass),
		Symbol:     m.Symbol,
		Price:      m.Price,
		Source:     m.Source,
		UpdatedAt:  m.UpdatedAt.UTC(),
	}, nil
}

package adapters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"market_backend/internal/feature/marketdata/domain"
	"market_backend/internal/feature/marketdata/domain/entity"
	"market_backend/internal/feature/marketdata/usecase"
)

type historyStore struct {
	db *gorm.DB
}

var _ usecase.HistoryRepository = (*historyStore)(nil)

// NewHistoryRepository は銘柄ごとに1行を持つHistoryRepositoryを返します。
func NewHistoryRepository(db *gorm.DB) *historyStore {
	return &historyStore{db: db}
}

// HistoryModel は1銘柄の全解像度のローソク足をJSONで1行に保持します。
// 1回のUPSERTで全解像度が同時に置き換わります。
type HistoryModel struct {
	ID         uint             `gorm:"primaryKey"`
	AssetClass string           `gorm:"size:16;not null;uniqueIndex:history_class_sym,priority:1"`
	Symbol     string           `gorm:"size:32;not null;uniqueIndex:history_class_sym,priority:2"`
	Histories  entity.Histories `gorm:"serializer:json;type:text;not null"`
	UpdatedAt  time.Time        `gorm:"autoUpdateTime:false;not null"`
}

func (HistoryModel) TableName() string {
	return "histories"
}

func (r *historyStore) Get(ctx context.Context, class entity.AssetClass, symbol string) (*entity.HistoryDocument, error) {
	var m HistoryModel
	err := r.db.WithContext(ctx).
		Where("asset_class = ? AND symbol = ?", string(class), symbol).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrHistoryNotFound
		}
		return nil, err
	}
	if m.Histories == nil {
		m.Histories = entity.Histories{}
	}
	return &entity.HistoryDocument{
		AssetClass: entity.AssetClass(m.AssetClass),
		Symbol:     m.Symbol,
		Histories:  m.Histories,
		UpdatedAt:  m.UpdatedAt.UTC(),
	}, nil
}

func (r *historyStore) UpsertHistories(ctx context.Context, class entity.AssetClass, symbol string, histories entity.Histories, updatedAt time.Time) error {
	m := HistoryModel{
		AssetClass: string(class),
		Symbol:     symbol,
		Histories:  histories,
		UpdatedAt:  updatedAt.UTC(),
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "asset_class"}, {Name: "symbol"}},
		DoUpdates: clause.AssignmentColumns([]string{"histories", "updated_at"}),
	}).Create(&m).Error
	if err != nil {
		return fmt.Errorf("upsert histories %s/%s: %w", class, symbol, classifyWriteError(err))
	}
	return nil
}

// Models は AutoMigrate 対象のモデルを返します。
func Models() []any {
	return []any{&PriceModel{}, &HistoryModel{}}
}

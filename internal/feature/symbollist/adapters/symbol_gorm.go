// Package adapters はsymbollistフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"market_backend/internal/feature/symbollist/domain/entity"
	"market_backend/internal/feature/symbollist/usecase"
)

// symbolGorm はSymbolRepositoryインターフェースのgorm実装です。
type symbolGorm struct {
	db *gorm.DB
}

var _ usecase.SymbolRepository = (*symbolGorm)(nil)

// NewSymbolRepository は指定されたDB接続でsymbolGormリポジトリの新しいインスタンスを生成します。
func NewSymbolRepository(db *gorm.DB) *symbolGorm {
	return &symbolGorm{db: db}
}

func (r *symbolGorm) active(ctx context.Context, market string) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&entity.Symbol{}).Where("is_active = ?", true)
	if market != "" {
		q = q.Where("market = ?", market)
	}
	return q.Order("market ASC").Order("sort_key ASC").Order("code ASC")
}

// ListActive はsort_key順にアクティブな銘柄を返します。market が空なら全市場が対象です。
func (r *symbolGorm) ListActive(ctx context.Context, market string) ([]entity.Symbol, error) {
	var symbols []entity.Symbol
	if err := r.active(ctx, market).Find(&symbols).Error; err != nil {
		return nil, err
	}
	return symbols, nil
}

// ListActiveCodes はsort_key順にアクティブな銘柄のコードのみを返します。
func (r *symbolGorm) ListActiveCodes(ctx context.Context, market string) ([]string, error) {
	codes := []string{}
	if err := r.active(ctx, market).Pluck("code", &codes).Error; err != nil {
		return nil, err
	}
	return codes, nil
}

// Upsert は銘柄を登録し、既存の銘柄は名前と並び順だけを更新します。
// is_active は運用側で切り替えるため上書きしません。
func (r *symbolGorm) Upsert(ctx context.Context, symbols []entity.Symbol) error {
	if len(symbols) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "market"}, {Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "sort_key", "updated_at"}),
	}).Create(&symbols).Error
}

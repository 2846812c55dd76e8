package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"market_backend/internal/feature/marketdata/domain/entity"
	"market_backend/internal/feature/marketdata/usecase"
)

// CachingHistoryRepository decorates a HistoryRepository with a write-through Redis cache.
// Reads hit Redis first; every successful write replaces the cached document.
type CachingHistoryRepository struct {
	jsonCache
	inner usecase.HistoryRepository
}

var _ usecase.HistoryRepository = (*CachingHistoryRepository)(nil)

// NewCachingHistoryRepository decorates inner. If ttl is 0, DefaultTTL is used.
// If namespace is empty, it uses "histories".
func NewCachingHistoryRepository(rdb *redis.Client, ttl time.Duration, inner usecase.HistoryRepository, namespace string) *CachingHistoryRepository {
	if namespace == "" {
		namespace = "histories"
	}
	return &CachingHistoryRepository{jsonCache: newJSONCache(rdb, ttl, namespace), inner: inner}
}

func (c *CachingHistoryRepository) Get(ctx context.Context, class entity.AssetClass, symbol string) (*entity.HistoryDocument, error) {
	if c.rdb == nil {
		return c.inner.Get(ctx, class, symbol)
	}

	key := c.key(class, symbol)
	var doc entity.HistoryDocument
	if c.load(ctx, key, &doc) {
		return &doc, nil
	}

	out, err := c.inner.Get(ctx, class, symbol)
	if err != nil {
		// missing documents are not cached
		return nil, err
	}
	c.store(ctx, key, out)
	return out, nil
}

func (c *CachingHistoryRepository) UpsertHistories(ctx context.Context, class entity.AssetClass, symbol string, histories entity.Histories, updatedAt time.Time) error {
	if err := c.inner.UpsertHistories(ctx, class, symbol, histories, updatedAt); err != nil {
		if c.rdb != nil {
			// the write outcome is unknown, drop the cached entry
			_ = c.rdb.Del(ctx, c.key(class, symbol)).Err()
		}
		return err
	}
	if c.rdb == nil {
		return nil
	}
	c.store(ctx, c.key(class, symbol), &entity.HistoryDocument{
		AssetClass: class,
		Symbol:     symbol,
		Histories:  histories,
		UpdatedAt:  updatedAt.UTC(),
	})
	return nil
}

package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"market_backend/internal/feature/marketdata/domain/entity"
	"market_backend/internal/feature/marketdata/usecase"
)

// CachingPriceRepository decorates a PriceRepository with a write-through Redis cache.
type CachingPriceRepository struct {
	jsonCache
	inner usecase.PriceRepository
}

var _ usecase.PriceRepository = (*CachingPriceRepository)(nil)

// NewCachingPriceRepository decorates inner. If ttl is 0, DefaultTTL is used.
// If namespace is empty, it uses "prices".
func NewCachingPriceRepository(rdb *redis.Client, ttl time.Duration, inner usecase.PriceRepository, namespace string) *CachingPriceRepository {
	if namespace == "" {
		namespace = "prices"
	}
	return &CachingPriceRepository{jsonCache: newJSONCache(rdb, ttl, namespace), inner: inner}
}

func (c *CachingPriceRepository) Upsert(ctx context.Context, rec entity.PriceRecord) error {
	if err := c.inner.Upsert(ctx, rec); err != nil {
		if c.rdb != nil {
			_ = c.rdb.Del(ctx, c.key(rec.AssetClass, rec.Symbol)).Err()
		}
		return err
	}
	if c.rdb == nil {
		return nil
	}
	rec.UpdatedAt = rec.UpdatedAt.UTC()
	c.store(ctx, c.key(rec.AssetClass, rec.Symbol), &rec)
	return nil
}

func (c *CachingPriceRepository) Get(ctx context.Context, class entity.AssetClass, symbol string) (*entity.PriceRecord, error) {
	if c.rdb == nil {
		return c.inner.Get(ctx, class, symbol)
	}

	key := c.key(class, symbol)
	var rec entity.PriceRecord
	if c.load(ctx, key, &rec) {
		return &rec, nil
	}

	out, err := c.inner.Get(ctx, class, symbol)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, out)
	return out, nil
}

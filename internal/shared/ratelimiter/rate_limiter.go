package ratelimiter

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterInterface は、API呼び出しなどの操作の頻度を制限するインターフェースです。
type RateLimiterInterface interface {
	WaitIfNeeded(ctx context.Context) error
}

// RateLimiterは、API呼び出しなどの操作の頻度を制限します。
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiterは interval あたり最大 limit 回の呼び出しを許可するRateLimiterを生成します。
// limit が0以下の場合は制限しません。
func NewRateLimiter(limit int, interval time.Duration) *RateLimiter {
	if limit <= 0 || interval <= 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	r := rate.Limit(float64(limit) / interval.Seconds())
	return &RateLimiter{limiter: rate.NewLimiter(r, limit)}
}

// NewDelayLimiter は連続する呼び出しの間に少なくとも delay の間隔を空けます。
func NewDelayLimiter(delay time.Duration) *RateLimiter {
	if delay <= 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	return &RateLimiter{limiter: rate.NewLimiter(rate.Every(delay), 1)}
}

// WaitIfNeededはレートリミットの上限に達しているかを確認し、必要であれば待機します。
// ctx がキャンセルされた場合は待機を中断してエラーを返します。
func (rl *RateLimiter) WaitIfNeeded(ctx context.Context) error {
	return rl.limiter.Wait(ctx)
}

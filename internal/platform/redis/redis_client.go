// Package redis はキャッシュデコレータが使う任意のRedis接続を開きます。
package redis

import (
	"context"
	"log/slog"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config はRedis接続設定です。Host が空なら Redis を使いません。
type Config struct {
	Host     string        `yaml:"host"`
	Port     string        `yaml:"port"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db" validate:"gte=0"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// Enabled はRedisのホストが設定されているかを返します。
func (c Config) Enabled() bool { return c.Host != "" }

// Addr は host:port を返します。ポート未指定時は 6379 です。
func (c Config) Addr() string {
	port := c.Port
	if port == "" {
		port = "6379"
	}
	return net.JoinHostPort(c.Host, port)
}

// ApplyEnv は REDIS_* 環境変数が設定されていれば base を上書きします。
func ApplyEnv(base Config) Config {
	cfg := base
	if v := os.Getenv("REDIS_HOST"); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv("REDIS_PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Password = v
	}
	if v, err := strconv.Atoi(os.Getenv("REDIS_DB")); err == nil {
		cfg.DB = v
	}
	return cfg
}

// NewRedisClient は接続を確認した上でクライアントを返します。
func NewRedisClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	addr := cfg.Addr()
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// 接続確認
	pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		slog.Error("Redis connection failed", "address", addr, "error", err)
		_ = rdb.Close()
		return nil, err
	}

	slog.Info("Redis connection successful", "address", addr)
	return rdb, nil
}

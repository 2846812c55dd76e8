// Package db は各ストアが使う gorm 接続を開きます。
package db

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	retryInterval = 3 * time.Second
)

// Config はデータベース接続設定です。
type Config struct {
	Driver       string `yaml:"driver" validate:"omitempty,oneof=postgres sqlite"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	Name         string `yaml:"name"`
	Host         string `yaml:"host"`
	Port         string `yaml:"port"`
	SSLMode      string `yaml:"sslmode"`
	InstanceName string `yaml:"instance_name"` // Cloud SQL の接続名。設定時は Unix ソケットで接続する
	Path         string `yaml:"path"`          // sqlite のファイルパス
	Migrate      bool   `yaml:"migrate"`
}

// ApplyEnv は設定済みの環境変数で base を上書きした設定を返します。
func ApplyEnv(base Config) Config {
	cfg := base
	override := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	override(&cfg.Driver, "DB_DRIVER")
	override(&cfg.User, "DB_USER")
	override(&cfg.Password, "DB_PASSWORD")
	override(&cfg.Name, "DB_NAME")
	override(&cfg.Host, "DB_HOST")
	override(&cfg.Port, "DB_PORT")
	override(&cfg.SSLMode, "DB_SSLMODE")
	override(&cfg.InstanceName, "INSTANCE_CONNECTION_NAME")
	override(&cfg.Path, "DB_PATH")
	if v, err := strconv.ParseBool(os.Getenv("RUN_MIGRATIONS")); err == nil {
		cfg.Migrate = v
	}
	return cfg
}

// BuildDSN は PostgreSQL 用の key=value 形式の DSN を組み立てます。
// InstanceName があれば Host/Port より優先されます。
func BuildDSN(cfg Config) string {
	host, port := cfg.Host, cfg.Port
	if cfg.InstanceName != "" {
		host, port = "/cloudsql/"+cfg.InstanceName, ""
	}
	sslmode := cfg.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}

	parts := []string{
		"host=" + host,
		"user=" + cfg.User,
		"password=" + cfg.Password,
		"dbname=" + cfg.Name,
	}
	if port != "" {
		parts = append(parts, "port="+port)
	}
	parts = append(parts, "sslmode="+sslmode, "TimeZone=UTC")
	return strings.Join(parts, " ")
}

// ConnectWithRetry は timeout に達するまで retryInterval 間隔で接続を試みます。
func ConnectWithRetry(dsn string, timeout time.Duration, opener func(string) (*gorm.DB, error)) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := opener(dsn)
		if err == nil {
			return db, nil
		}
		if time.Now().Add(retryInterval).After(deadline) {
			return nil, fmt.Errorf("db connect failed after %s: %w", timeout, err)
		}
		slog.Warn("DB connect failed, retrying", "error", err)
		time.Sleep(retryInterval)
	}
}

func openPostgres(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
}

// OpenDB は設定に応じて PostgreSQL か SQLite に接続し、必要ならマイグレーションを実行します。
func OpenDB(cfg Config, timeout time.Duration, models ...any) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)
	switch cfg.Driver {
	case DriverSQLite:
		path := cfg.Path
		if path == "" {
			path = "market.db"
		}
		db, err = gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
		if err == nil {
			// SQLite は同時書き込みを許さない
			if sqlDB, derr := db.DB(); derr == nil {
				sqlDB.SetMaxOpenConns(1)
			}
		}
	case DriverPostgres, "":
		db, err = ConnectWithRetry(BuildDSN(cfg), timeout, openPostgres)
	default:
		return nil, fmt.Errorf("unknown db driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Migrate && len(models) > 0 {
		if err := db.AutoMigrate(models...); err != nil {
			return nil, fmt.Errorf("failed to migrate: %w", err)
		}
	}
	return db, nil
}

package di

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market_backend/internal/feature/marketdata/domain/calendar"
	"market_backend/internal/feature/marketdata/domain/entity"
	"market_backend/internal/platform/config"
	infradb "market_backend/internal/platform/db"
	"market_backend/internal/platform/externalapi/binance"
	"market_backend/internal/platform/externalapi/finnhub"
	"market_backend/internal/platform/externalapi/yahoo"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{
		HTTPAddr: ":0",
		LogLevel: "info",
		Database: infradb.Config{
			Driver:  infradb.DriverSQLite,
			Path:    filepath.Join(t.TempDir(), "market.db"),
			Migrate: true,
		},
	}
	cfg.Redis.CacheTTL = time.Second
	cfg.Trading.StartingCash = decimal.NewFromInt(1000)
	cfg.Markets.Stock.Symbols = []config.SymbolEntry{{Code: "AAPL", Name: "Apple"}, {Code: "msft"}}
	cfg.Markets.Crypto.Symbols = []config.SymbolEntry{{Code: "BTC"}}
	cfg.Markets.Forex.Disabled = true
	return cfg
}

func TestNewApp(t *testing.T) {
	t.Setenv("FINNHUB_API_KEYS", "")
	ctx := context.Background()

	app, err := NewApp(ctx, testConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, app.Close()) })

	t.Run("success: engines for enabled classes only", func(t *testing.T) {
		require.Len(t, app.Engines, 2)
		assert.Equal(t, entity.AssetClassStock, app.Engines[0].Class)
		assert.Equal(t, entity.AssetClassCrypto, app.Engines[1].Class)
		assert.Nil(t, app.Redis)
	})

	t.Run("success: symbols seeded", func(t *testing.T) {
		syms, err := app.Symbols.ListActiveSymbols(ctx, "stock")
		require.NoError(t, err)
		require.Len(t, syms, 2)
		assert.Equal(t, "AAPL", syms[0].Code)
		assert.Equal(t, "MSFT", syms[1].Code)
	})

	t.Run("success: disabled class is unknown to the query surface", func(t *testing.T) {
		_, err := app.Query.MarketStatus(entity.AssetClassForex)
		assert.Error(t, err)

		st, err := app.Query.MarketStatus(entity.AssetClassCrypto)
		require.NoError(t, err)
		assert.True(t, st.Open)
	})

	t.Run("success: accounts use configured starting cash", func(t *testing.T) {
		acct, err := app.Trading.OpenAccount(ctx, "u1")
		require.NoError(t, err)
		assert.True(t, acct.Cash.Equal(decimal.NewFromInt(1000)))
	})

	t.Run("success: database readiness check", func(t *testing.T) {
		checks := app.HealthChecks()
		require.Contains(t, checks, "database")
		assert.NotContains(t, checks, "redis")
		assert.NoError(t, checks["database"](ctx))
	})
}

func TestNewUpstream(t *testing.T) {
	t.Setenv("FINNHUB_API_KEYS", "")

	t.Run("success: stock falls back to yahoo without finnhub keys", func(t *testing.T) {
		up, err := NewUpstream(entity.AssetClassStock, nil)
		require.NoError(t, err)
		assert.IsType(t, &yahoo.YahooChart{}, up.Prices)
		assert.True(t, sameUpstream(up))
	})

	t.Run("success: stock quotes from finnhub with configured keys", func(t *testing.T) {
		up, err := NewUpstream(entity.AssetClassStock, []string{"k1"})
		require.NoError(t, err)
		assert.IsType(t, &finnhub.FinnhubQuotes{}, up.Prices)
		assert.IsType(t, &yahoo.YahooChart{}, up.Backfiller)
		assert.False(t, sameUpstream(up))
	})

	t.Run("success: crypto uses binance for both", func(t *testing.T) {
		up, err := NewUpstream(entity.AssetClassCrypto, nil)
		require.NoError(t, err)
		assert.IsType(t, &binance.BinanceMarket{}, up.Prices)
		assert.True(t, sameUpstream(up))
	})

	t.Run("error: unknown class", func(t *testing.T) {
		_, err := NewUpstream(entity.AssetClass("bonds"), nil)
		assert.Error(t, err)
	})
}

func TestNewCalendar(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	assert.IsType(t, &calendar.EquityCalendar{}, NewCalendar(entity.AssetClassStock, ny, config.CalendarConfig{}))
	assert.IsType(t, &calendar.ForexCalendar{}, NewCalendar(entity.AssetClassForex, ny, config.CalendarConfig{}))
	assert.IsType(t, calendar.AlwaysOpen{}, NewCalendar(entity.AssetClassCrypto, time.UTC, config.CalendarConfig{}))
}

package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market_backend/internal/feature/marketdata/domain"
	"market_backend/internal/feature/marketdata/domain/calendar"
	"market_backend/internal/feature/marketdata/domain/entity"
	"market_backend/internal/feature/marketdata/domain/series"
)

func dailyCandles(start time.Time, n int) []entity.Candle {
	out := make([]entity.Candle, n)
	for i := range out {
		out[i] = entity.SeedCandle(start.AddDate(0, 0, i).Unix(), decFromInt(int64(100+i)))
	}
	return out
}

func newQueryUsecase(t *testing.T, histories HistoryRepository, prices PriceRepository) *MarketQueryUsecase {
	t.Helper()
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	return NewMarketQueryUsecase(map[entity.AssetClass]Market{
		entity.AssetClassCrypto: {Catalog: series.CryptoCatalog(), Calendar: calendar.AlwaysOpen{}},
		entity.AssetClassStock:  {Catalog: series.StockCatalog(), Calendar: calendar.NewEquityCalendar(ny)},
	}, prices, histories)
}

func TestMarketQueryUsecase_GetHistory(t *testing.T) {
	t.Parallel()

	day0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	updated := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	store := newMemoryHistoryStore()
	require.NoError(t, store.UpsertHistories(context.Background(), entity.AssetClassCrypto, "BTC",
		entity.Histories{"D": dailyCandles(day0, 1000)}, updated))

	uc := newQueryUsecase(t, store, &mockPriceRepository{})
	ts := func(day int) int64 { return day0.AddDate(0, 0, day).Unix() }

	tests := []struct {
		name      string
		query     HistoryQuery
		wantLen   int
		wantFirst int64
		wantLast  int64
		wantErr   error
	}{
		{
			name:      "success: window truncated to the most recent limit",
			query:     HistoryQuery{Class: entity.AssetClassCrypto, Symbol: "BTC", Resolution: "D", Start: ts(100), End: ts(900), Limit: 500},
			wantLen:   500,
			wantFirst: ts(400),
			wantLast:  ts(899),
		},
		{
			name:      "success: end is exclusive",
			query:     HistoryQuery{Class: entity.AssetClassCrypto, Symbol: "btc", Resolution: "1d", Start: ts(10), End: ts(20), Limit: 500},
			wantLen:   10,
			wantFirst: ts(10),
			wantLast:  ts(19),
		},
		{
			name:      "success: open bounds with default limit",
			query:     HistoryQuery{Class: entity.AssetClassCrypto, Symbol: "BTC", Resolution: "D"},
			wantLen:   DefaultHistoryLimit,
			wantFirst: ts(500),
			wantLast:  ts(999),
		},
		{
			name:      "success: limit above maximum is capped, not reset",
			query:     HistoryQuery{Class: entity.AssetClassCrypto, Symbol: "BTC", Resolution: "D", Limit: MaxHistoryLimit + 1},
			wantLen:   1000,
			wantFirst: ts(0),
			wantLast:  ts(999),
		},
		{
			name:      "success: explicit limit above default",
			query:     HistoryQuery{Class: entity.AssetClassCrypto, Symbol: "BTC", Resolution: "D", Limit: 700},
			wantLen:   700,
			wantFirst: ts(300),
			wantLast:  ts(999),
		},
		{
			name:    "success: unknown symbol yields an empty series",
			query:   HistoryQuery{Class: entity.AssetClassCrypto, Symbol: "DOGE", Resolution: "D"},
			wantLen: 0,
		},
		{
			name:    "error: unsupported resolution",
			query:   HistoryQuery{Class: entity.AssetClassCrypto, Symbol: "BTC", Resolution: "7m"},
			wantErr: domain.ErrUnsupportedResolution,
		},
		{
			name:    "error: unknown asset class",
			query:   HistoryQuery{Class: entity.AssetClassForex, Symbol: "EUR", Resolution: "D"},
			wantErr: domain.ErrUnknownAssetClass,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res, err := uc.GetHistory(context.Background(), tt.query)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, res)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, res.Candles)
			require.Len(t, res.Candles, tt.wantLen)
			if tt.wantLen == 0 {
				return
			}
			assert.Equal(t, "BTC", res.Symbol)
			assert.Equal(t, "D", res.Resolution)
			assert.Equal(t, updated, res.UpdatedAt)
			assert.Equal(t, tt.wantFirst, res.Candles[0].Timestamp)
			assert.Equal(t, tt.wantLast, res.Candles[len(res.Candles)-1].Timestamp)
			for i := 1; i < len(res.Candles); i++ {
				assert.Less(t, res.Candles[i-1].Timestamp, res.Candles[i].Timestamp)
			}
		})
	}
}

func TestMarketQueryUsecase_GetHistory_StoreError(t *testing.T) {
	t.Parallel()

	histories := &mockHistoryRepository{GetFunc: func(context.Context, entity.AssetClass, string) (*entity.HistoryDocument, error) {
		return nil, errors.New("db down")
	}}
	uc := newQueryUsecase(t, histories, &mockPriceRepository{})

	_, err := uc.GetHistory(context.Background(), HistoryQuery{Class: entity.AssetClassCrypto, Symbol: "BTC", Resolution: "60"})
	assert.EqualError(t, err, "db down")
}

func TestMarketQueryUsecase_GetCurrentPrice(t *testing.T) {
	t.Parallel()

	uc := newQueryUsecase(t, newMemoryHistoryStore(), fixedPrices(entity.AssetClassStock, map[string]string{"BRK.B": "412.5"}))

	rec, err := uc.GetCurrentPrice(context.Background(), entity.AssetClassStock, " brk.b ")
	require.NoError(t, err)
	assert.Equal(t, "BRK.B", rec.Symbol)
	assert.Equal(t, "412.5", rec.Price.String())

	_, err = uc.GetCurrentPrice(context.Background(), entity.AssetClassStock, "MSFT")
	assert.ErrorIs(t, err, domain.ErrPriceNotFound)

	_, err = uc.GetCurrentPrice(context.Background(), entity.AssetClassForex, "EUR")
	assert.ErrorIs(t, err, domain.ErrUnknownAssetClass)
}

func TestMarketQueryUsecase_MarketStatus(t *testing.T) {
	t.Parallel()

	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	uc := newQueryUsecase(t, newMemoryHistoryStore(), &mockPriceRepository{})

	tests := []struct {
		name  string
		class entity.AssetClass
		at    time.Time
		want  bool
	}{
		{"stock open mid-session", entity.AssetClassStock, time.Date(2024, 7, 3, 11, 0, 0, 0, ny), true},
		{"stock closed on Independence Day", entity.AssetClassStock, time.Date(2024, 7, 4, 11, 0, 0, 0, ny), false},
		{"stock closed after the bell", entity.AssetClassStock, time.Date(2024, 7, 3, 16, 1, 0, 0, ny), false},
		{"crypto open on a Sunday", entity.AssetClassCrypto, time.Date(2024, 7, 7, 3, 0, 0, 0, time.UTC), true},
	}
	for _, tt := range tests {
		uc.now = fixedClock(tt.at)
		st, err := uc.MarketStatus(tt.class)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, st.Open, tt.name)
		assert.Equal(t, tt.class, st.Class, tt.name)
		assert.True(t, tt.at.Equal(st.At), tt.name)
	}

	_, err = uc.MarketStatus(entity.AssetClassForex)
	assert.ErrorIs(t, err, domain.ErrUnknownAssetClass)
}

package series

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"market_backend/internal/feature/marketdata/domain/entity"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func candle(ts int64, o, h, l, c, v string) entity.Candle {
	return entity.Candle{Timestamp: ts, Open: d(o), High: d(h), Low: d(l), Close: d(c), Volume: d(v)}
}

// assertCandle compares candles by value, independent of decimal's internal representation.
func assertCandle(t *testing.T, want, got entity.Candle) {
	t.Helper()
	assert.Equal(t, want.Timestamp, got.Timestamp, "timestamp")
	assert.Truef(t, want.Open.Equal(got.Open), "open: want %s got %s", want.Open, got.Open)
	assert.Truef(t, want.High.Equal(got.High), "high: want %s got %s", want.High, got.High)
	assert.Truef(t, want.Low.Equal(got.Low), "low: want %s got %s", want.Low, got.Low)
	assert.Truef(t, want.Close.Equal(got.Close), "close: want %s got %s", want.Close, got.Close)
	assert.Truef(t, want.Volume.Equal(got.Volume), "volume: want %s got %s", want.Volume, got.Volume)
}

func assertCandles(t *testing.T, want, got []entity.Candle) {
	t.Helper()
	if !assert.Len(t, got, len(want)) {
		return
	}
	for i := range want {
		assertCandle(t, want[i], got[i])
	}
}

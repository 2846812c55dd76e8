package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market_backend/internal/feature/marketdata/domain"
	"market_backend/internal/feature/marketdata/usecase"
)

func TestBinanceMarket_FetchCurrent_FallsBack(t *testing.T) {
	t.Parallel()

	var asked []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/ticker/price", r.URL.Path)
		pair := r.URL.Query().Get("symbol")
		asked = append(asked, pair)
		switch pair {
		case "BTCUSD":
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
		case "BTCUSDT":
			_, _ = w.Write([]byte(`{"symbol":"BTCUSDT","price":"64123.45000000"}`))
		}
	}))
	defer server.Close()

	m := NewBinanceMarket(Config{Endpoints: []Endpoint{
		{Host: server.URL, Quote: "USD"},
		{Host: server.URL, Quote: "USDT"},
		{Host: server.URL, Quote: "BUSD"},
	}}, server.Client())

	q, err := m.FetchCurrent(context.Background(), "btc")
	require.NoError(t, err)
	assert.Equal(t, "64123.45", q.Price.String())
	assert.Equal(t, strings.TrimPrefix(server.URL, "http://")+":BTCUSDT", q.Source)
	assert.Equal(t, []string{"BTCUSD", "BTCUSDT"}, asked)
}

func TestBinanceMarket_FetchCurrent_AllFail(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("symbol") == "XYZUSD" {
			_, _ = w.Write([]byte(`{"symbol":"XYZUSD","price":"0.00000000"}`))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	m := NewBinanceMarket(Config{Endpoints: []Endpoint{{Host: server.URL, Quote: "USD"}, {Host: server.URL, Quote: "USDT"}}}, server.Client())
	_, err := m.FetchCurrent(context.Background(), "XYZ")
	assert.ErrorIs(t, err, domain.ErrFetchFailure)
	assert.ErrorContains(t, err, "non-positive")
	assert.ErrorContains(t, err, "503")
}

func TestBinanceMarket_FetchRange(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/api/v3/klines", r.URL.Path)
		assert.Equal(t, "ETHUSDT", q.Get("symbol"))
		assert.Equal(t, "1h", q.Get("interval"))
		assert.Equal(t, "1000", q.Get("limit"))
		assert.Equal(t, "1719792000000", q.Get("startTime"))
		assert.Empty(t, q.Get("endTime"))
		_, _ = w.Write([]byte(`[
			[1719792000000,"3400.10","3420.00","3390.55","3410.00","1520.1234",1719795599999,"0",10,"0","0","0"],
			[1719795600000,"3410.00","3415.00","3401.00","3402.50","800.5",1719799199999,"0",8,"0","0","0"]
		]`))
	}))
	defer server.Close()

	m := NewBinanceMarket(Config{KlinesHost: server.URL}, server.Client())
	candles, err := m.FetchRange(context.Background(), "eth", "1h", usecase.FetchWindow{Start: start}, 5000)
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.Equal(t, start.Unix(), candles[0].Timestamp)
	assert.Equal(t, "3400.1", candles[0].Open.String())
	assert.Equal(t, "3390.55", candles[0].Low.String())
	assert.Equal(t, "1520.1234", candles[0].Volume.String())
	assert.Equal(t, start.Add(time.Hour).Unix(), candles[1].Timestamp)
}

func TestBinanceMarket_FetchRange_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"error: http failure", http.StatusTeapot, `{}`},
		{"error: short row", http.StatusOK, `[[1719792000000,"1","2"]]`},
		{"error: not an array", http.StatusOK, `{"code":-1100}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "1", r.URL.Query().Get("limit"), "limit is clamped to at least 1")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			m := NewBinanceMarket(Config{KlinesHost: server.URL}, server.Client())
			_, err := m.FetchRange(context.Background(), "BTC", "1m", usecase.FetchWindow{}, 0)
			assert.ErrorIs(t, err, domain.ErrFetchFailure)
		})
	}
}

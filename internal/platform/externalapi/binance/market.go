package binance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"market_backend/internal/feature/marketdata/domain"
	"market_backend/internal/feature/marketdata/domain/entity"
	"market_backend/internal/feature/marketdata/usecase"
	"market_backend/internal/platform/externalapi/binance/dto"
	infrahttp "market_backend/internal/platform/http"
)

const maxKlines = 1000

// BinanceMarket fetches crypto spot prices and klines from Binance.
type BinanceMarket struct {
	cfg    Config
	client *http.Client
}

var (
	_ usecase.PriceFetcher      = (*BinanceMarket)(nil)
	_ usecase.HistoryBackfiller = (*BinanceMarket)(nil)
)

// NewBinanceMarket creates a BinanceMarket with the given config and HTTP client.
func NewBinanceMarket(cfg Config, client *http.Client) *BinanceMarket {
	if len(cfg.Endpoints) == 0 {
		cfg.Endpoints = DefaultEndpoints
	}
	if cfg.KlinesQuote == "" {
		cfg.KlinesQuote = "USDT"
	}
	return &BinanceMarket{cfg: cfg, client: client}
}

// FetchCurrent tries each endpoint in order and returns the first positive price.
// The quote source is "host:pair" of the endpoint that answered.
func (b *BinanceMarket) FetchCurrent(ctx context.Context, symbol string) (entity.Quote, error) {
	var errs []error
	for _, ep := range b.cfg.Endpoints {
		pair := strings.ToUpper(symbol) + ep.Quote
		u := fmt.Sprintf("%s/api/v3/ticker/price?%s", ep.Host, url.Values{"symbol": {pair}}.Encode())

		var body dto.TickerPrice
		if err := infrahttp.GetJSON(ctx, b.client, u, nil, &body); err != nil {
			if ctx.Err() != nil {
				return entity.Quote{}, fmt.Errorf("%w: binance %s: %v", domain.ErrFetchFailure, symbol, ctx.Err())
			}
			slog.Debug("binance endpoint failed", "host", ep.Host, "pair", pair, "error", err)
			errs = append(errs, err)
			continue
		}
		if !body.Price.IsPositive() {
			errs = append(errs, fmt.Errorf("%s %s: non-positive price %s", ep.Host, pair, body.Price))
			continue
		}
		return entity.Quote{Price: body.Price, Source: hostName(ep.Host) + ":" + pair}, nil
	}
	return entity.Quote{}, fmt.Errorf("%w: binance %s: %v", domain.ErrFetchFailure, symbol, errors.Join(errs...))
}

// FetchRange returns klines at a Binance interval token (1m, 1h, 1d, 1w, 1M, ...).
// limit is clamped to [1, 1000].
func (b *BinanceMarket) FetchRange(ctx context.Context, symbol, token string, window usecase.FetchWindow, limit int) ([]entity.Candle, error) {
	q := url.Values{}
	q.Set("symbol", strings.ToUpper(symbol)+b.cfg.KlinesQuote)
	q.Set("interval", token)
	q.Set("limit", strconv.Itoa(min(max(limit, 1), maxKlines)))
	if !window.Start.IsZero() {
		q.Set("startTime", strconv.FormatInt(window.Start.UnixMilli(), 10))
	}
	if !window.End.IsZero() {
		q.Set("endTime", strconv.FormatInt(window.End.UnixMilli(), 10))
	}
	u := fmt.Sprintf("%s/api/v3/klines?%s", b.cfg.KlinesHost, q.Encode())

	var rows []dto.Kline
	if err := infrahttp.GetJSON(ctx, b.client, u, nil, &rows); err != nil {
		return nil, fmt.Errorf("%w: binance klines %s %s: %v", domain.ErrFetchFailure, symbol, token, err)
	}

	candles := make([]entity.Candle, 0, len(rows))
	for _, k := range rows {
		candles = append(candles, entity.Candle{
			Timestamp: k.OpenTime / 1000,
			Open:      k.Open,
			High:      k.High,
			Low:       k.Low,
			Close:     k.Close,
			Volume:    k.Volume,
		})
	}
	return candles, nil
}

// hostName turns "https://api.binance.us" into "api.binance.us".
func hostName(raw string) string {
	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		return u.Host
	}
	return raw
}

package yahoo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"market_backend/internal/feature/marketdata/domain"
	"market_backend/internal/feature/marketdata/domain/entity"
	"market_backend/internal/feature/marketdata/usecase"
	"market_backend/internal/platform/externalapi/yahoo/dto"
	infrahttp "market_backend/internal/platform/http"
)

const source = "yahoo"

// TickerFunc maps a tracked symbol to a Yahoo ticker.
type TickerFunc func(symbol string) string

// EquityTicker turns "BRK.B" into Yahoo's "BRK-B".
func EquityTicker(symbol string) string {
	return strings.ReplaceAll(strings.ToUpper(symbol), ".", "-")
}

// ForexTicker turns the currency code "EUR" into the USD pair "EURUSD=X".
func ForexTicker(symbol string) string {
	return strings.ToUpper(symbol) + "USD=X"
}

// ranges is the range requested per interval. Intraday intervals only accept a range.
var ranges = map[string]string{
	"1m":  "7d",
	"5m":  "60d",
	"15m": "60d",
	"30m": "60d",
	"60m": "730d",
	"1d":  "5y",
	"1wk": "10y",
	"1mo": "10y",
}

// YahooChart fetches equity and FX candles and FX spot prices from the Yahoo chart API.
type YahooChart struct {
	cfg    Config
	client *http.Client
	ticker TickerFunc
}

var (
	_ usecase.PriceFetcher      = (*YahooChart)(nil)
	_ usecase.HistoryBackfiller = (*YahooChart)(nil)
)

// NewYahooChart creates a YahooChart with the given config and HTTP client.
func NewYahooChart(cfg Config, client *http.Client, ticker TickerFunc) *YahooChart {
	if ticker == nil {
		ticker = EquityTicker
	}
	return &YahooChart{cfg: cfg, client: client, ticker: ticker}
}

// FetchCurrent returns meta.regularMarketPrice.
func (y *YahooChart) FetchCurrent(ctx context.Context, symbol string) (entity.Quote, error) {
	res, err := y.chart(ctx, symbol, url.Values{"interval": {"1m"}, "range": {"1d"}})
	if err != nil {
		return entity.Quote{}, err
	}
	p := res.Meta.RegularMarketPrice
	if !p.Valid || !p.Decimal.IsPositive() {
		return entity.Quote{}, fmt.Errorf("%w: yahoo %s: no market price", domain.ErrFetchFailure, symbol)
	}
	return entity.Quote{Price: p.Decimal, Source: source}, nil
}

// FetchRange returns bars at a Yahoo interval token (1m, 5m, 60m, 1d, 1wk, 1mo, ...).
// Daily and coarser intervals honour an explicit window; intraday ones always use a range.
// Only the newest limit bars are returned.
func (y *YahooChart) FetchRange(ctx context.Context, symbol, token string, window usecase.FetchWindow, limit int) ([]entity.Candle, error) {
	rng, ok := ranges[token]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedResolution, token)
	}
	q := url.Values{}
	q.Set("interval", token)
	intraday := strings.HasSuffix(token, "m")
	if !intraday && !window.Start.IsZero() && !window.End.IsZero() {
		q.Set("period1", strconv.FormatInt(window.Start.Unix(), 10))
		q.Set("period2", strconv.FormatInt(window.End.Unix(), 10))
	} else {
		q.Set("range", rng)
	}

	res, err := y.chart(ctx, symbol, q)
	if err != nil {
		return nil, err
	}
	candles := toCandles(res)
	if !intraday {
		restampDaily(candles, exchangeLocation(res), y.cfg.DayLocation)
	}
	if limit > 0 && len(candles) > limit {
		candles = candles[len(candles)-limit:]
	}
	return candles, nil
}

func (y *YahooChart) chart(ctx context.Context, symbol string, q url.Values) (*dto.ChartResult, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", y.cfg.BaseURL, url.PathEscape(y.ticker(symbol)), q.Encode())
	header := http.Header{}
	if y.cfg.UserAgent != "" {
		header.Set("User-Agent", y.cfg.UserAgent)
	}

	var body dto.ChartResponse
	if err := infrahttp.GetJSON(ctx, y.client, u, header, &body); err != nil {
		return nil, fmt.Errorf("%w: yahoo %s: %v", domain.ErrFetchFailure, symbol, err)
	}
	if e := body.Chart.Error; e != nil {
		return nil, fmt.Errorf("%w: yahoo %s: %s: %s", domain.ErrFetchFailure, symbol, e.Code, e.Description)
	}
	if len(body.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: yahoo %s: empty result", domain.ErrFetchFailure, symbol)
	}
	return &body.Chart.Result[0], nil
}

// exchangeLocation is the exchange zone from meta, falling back to gmtoffset when the name does not resolve.
func exchangeLocation(res *dto.ChartResult) *time.Location {
	if name := res.Meta.ExchangeTimezoneName; name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	if off := res.Meta.GMTOffset; off != 0 {
		return time.FixedZone("exchange", off)
	}
	return time.UTC
}

// restampDaily moves each daily, weekly or monthly bar to midnight of its
// exchange-local calendar date in target. Yahoo stamps these bars at the
// exchange's midnight or open, which in another zone can fall on the previous date.
func restampDaily(candles []entity.Candle, exchange, target *time.Location) {
	if target == nil {
		target = time.UTC
	}
	for i := range candles {
		y, m, d := time.Unix(candles[i].Timestamp, 0).In(exchange).Date()
		candles[i].Timestamp = time.Date(y, m, d, 0, 0, 0, 0, target).Unix()
	}
}

// toCandles skips bars with missing OHLC values.
func toCandles(res *dto.ChartResult) []entity.Candle {
	if len(res.Indicators.Quote) == 0 {
		return []entity.Candle{}
	}
	ind := res.Indicators.Quote[0]
	at := func(s []decimal.NullDecimal, i int) (decimal.Decimal, bool) {
		if i >= len(s) || !s[i].Valid {
			return decimal.Decimal{}, false
		}
		return s[i].Decimal, true
	}

	out := make([]entity.Candle, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		o, ok1 := at(ind.Open, i)
		h, ok2 := at(ind.High, i)
		l, ok3 := at(ind.Low, i)
		c, ok4 := at(ind.Close, i)
		if !ok1 || !ok2 || !ok3 || !ok4 {
			continue
		}
		v, ok := at(ind.Volume, i)
		if !ok {
			v = decimal.Zero
		}
		out = append(out, entity.Candle{Timestamp: ts, Open: o, High: h, Low: l, Close: c, Volume: v})
	}
	return out
}

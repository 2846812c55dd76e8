package finnhub

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync/atomic"

	"market_backend/internal/feature/marketdata/domain"
	"market_backend/internal/feature/marketdata/domain/entity"
	"market_backend/internal/feature/marketdata/usecase"
	"market_backend/internal/platform/externalapi/finnhub/dto"
	infrahttp "market_backend/internal/platform/http"
)

const source = "finnhub"

// ErrNoAPIKey は APIキーが1つも設定されていない場合に返されます。
var ErrNoAPIKey = errors.New("finnhub: no api key configured")

// FinnhubQuotes は Finnhub の /quote から米国株の現在値を取得する PriceFetcher 実装です。
type FinnhubQuotes struct {
	cfg    Config
	client *http.Client
	next   atomic.Uint64
}

var _ usecase.PriceFetcher = (*FinnhubQuotes)(nil)

// NewFinnhubQuotes は指定された設定とHTTPクライアントで FinnhubQuotes を生成します。
func NewFinnhubQuotes(cfg Config, client *http.Client) *FinnhubQuotes {
	return &FinnhubQuotes{cfg: cfg, client: client}
}

// apiKey はリクエストごとにキーを順番に切り替えます。
func (f *FinnhubQuotes) apiKey() (string, error) {
	if len(f.cfg.APIKeys) == 0 {
		return "", ErrNoAPIKey
	}
	i := f.next.Add(1) - 1
	return f.cfg.APIKeys[i%uint64(len(f.cfg.APIKeys))], nil
}

// FetchCurrent は銘柄の直近約定価格 ("c") を返します。
func (f *FinnhubQuotes) FetchCurrent(ctx context.Context, symbol string) (entity.Quote, error) {
	key, err := f.apiKey()
	if err != nil {
		return entity.Quote{}, fmt.Errorf("%w: %v", domain.ErrFetchFailure, err)
	}

	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("token", key)
	u := fmt.Sprintf("%s/quote?%s", f.cfg.BaseURL, q.Encode())

	var body dto.QuoteResponse
	if err := infrahttp.GetJSON(ctx, f.client, u, nil, &body); err != nil {
		return entity.Quote{}, fmt.Errorf("%w: finnhub %s: %v", domain.ErrFetchFailure, symbol, err)
	}
	// 未知の銘柄でも200で c=0 が返る
	if !body.Current.IsPositive() {
		return entity.Quote{}, fmt.Errorf("%w: finnhub %s: no price", domain.ErrFetchFailure, symbol)
	}
	return entity.Quote{Price: body.Current, Source: source}, nil
}

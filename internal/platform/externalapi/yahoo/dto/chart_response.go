// Package dto はYahoo chart APIのレスポンス構造体を定義します。
package dto

import "github.com/shopspring/decimal"

// ChartResponse は GET /v8/finance/chart/{ticker} のレスポンスです。
type ChartResponse struct {
	Chart struct {
		Result []ChartResult `json:"result"`
		Error  *ChartError   `json:"error"`
	} `json:"chart"`
}

type ChartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type ChartResult struct {
	Meta struct {
		Symbol             string              `json:"symbol"`
		Currency           string              `json:"currency"`
		RegularMarketPrice decimal.NullDecimal `json:"regularMarketPrice"`
		RegularMarketTime  int64               `json:"regularMarketTime"`
		// ExchangeTimezoneName は "Europe/London" のようなIANA名、GMTOffset はその秒数です。
		ExchangeTimezoneName string `json:"exchangeTimezoneName"`
		GMTOffset            int    `json:"gmtoffset"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []QuoteIndicator `json:"quote"`
	} `json:"indicators"`
}

// QuoteIndicator は各バーの値です。取引のなかったバーは null になります。
type QuoteIndicator struct {
	Open   []decimal.NullDecimal `json:"open"`
	High   []decimal.NullDecimal `json:"high"`
	Low    []decimal.NullDecimal `json:"low"`
	Close  []decimal.NullDecimal `json:"close"`
	Volume []decimal.NullDecimal `json:"volume"`
}

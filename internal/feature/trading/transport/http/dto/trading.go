// Package dto は取引HTTP APIのリクエスト/レスポンス構造体を定義します。
package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ErrorResponse はエラー時のレスポンスです。
type ErrorResponse struct {
	Error string `json:"error"`
}

// OrderRequest は POST /api/:class/orders のボディです。quantity と price は数値と文字列のどちらも受け付けます。
// price を省略すると現在値で約定します。
type OrderRequest struct {
	Symbol   string           `json:"symbol" binding:"required,max=32"`
	Action   string           `json:"action" binding:"required,oneof=buy sell BUY SELL"`
	Quantity *decimal.Decimal `json:"quantity" binding:"required"`
	Price    *decimal.Decimal `json:"price"`
}

// BalanceResponse は現金と資産クラスごとの保有数量です。
type BalanceResponse struct {
	UserID   string                                `json:"user_id"`
	Cash     decimal.Decimal                       `json:"cash"`
	Holdings map[string]map[string]decimal.Decimal `json:"holdings"`
}

// TradeResponse は約定した1件の取引です。
type TradeResponse struct {
	ID         string          `json:"id"`
	AssetClass string          `json:"asset_class"`
	Symbol     string          `json:"symbol"`
	Action     string          `json:"action"`
	Quantity   decimal.Decimal `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	Total      decimal.Decimal `json:"total"`
	ExecutedAt time.Time       `json:"executed_at"`
}

// OrderResponse は約定結果と約定後の残高です。
type OrderResponse struct {
	Trade   TradeResponse   `json:"trade"`
	Balance BalanceResponse `json:"balance"`
}

// Package handler はtradingフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"market_backend/internal/feature/marketdata/domain"
	mdentity "market_backend/internal/feature/marketdata/domain/entity"
	"market_backend/internal/feature/trading/domain/entity"
	"market_backend/internal/feature/trading/transport/http/dto"
	"market_backend/internal/feature/trading/usecase"
	jwtmw "market_backend/internal/platform/jwt"
)

// TradingUsecase は口座と売買のユースケースです。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type TradingUsecase interface {
	OpenAccount(ctx context.Context, userID string) (*entity.Account, error)
	Balance(ctx context.Context, userID string) (*entity.Account, error)
	Trade(ctx context.Context, req usecase.TradeRequest) (*entity.Trade, *entity.Account, error)
	Trades(ctx context.Context, userID string, limit int) ([]entity.Trade, error)
}

// TradingHandler は認証済みユーザーの口座APIを処理します。
type TradingHandler struct {
	uc TradingUsecase
}

// NewTradingHandler は指定されたusecaseでTradingHandlerを生成します。
func NewTradingHandler(uc TradingUsecase) *TradingHandler {
	return &TradingHandler{uc: uc}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, usecase.ErrInvalidTrade), errors.Is(err, domain.ErrUnknownAssetClass):
		return http.StatusBadRequest
	case errors.Is(err, usecase.ErrUserNotFound), errors.Is(err, domain.ErrPriceNotFound):
		return http.StatusNotFound
	case errors.Is(err, usecase.ErrAccountExists),
		errors.Is(err, usecase.ErrInsufficientBalance),
		errors.Is(err, usecase.ErrInsufficientHoldings):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("trading request failed", "path", c.FullPath(), "error", err)
		c.JSON(status, dto.ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(status, dto.ErrorResponse{Error: err.Error()})
}

func userID(c *gin.Context) (string, bool) {
	id, ok := jwtmw.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "unauthenticated"})
	}
	return id, ok
}

// OpenAccount は初期資金付きの口座を開設します。
//
// POST /api/accounts
func (h *TradingHandler) OpenAccount(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	acct, err := h.uc.OpenAccount(c.Request.Context(), uid)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toBalance(acct))
}

// GetBalance は現金と保有数量を返します。
//
// GET /api/balance
func (h *TradingHandler) GetBalance(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	acct, err := h.uc.Balance(c.Request.Context(), uid)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBalance(acct))
}

// PlaceOrder は売買を約定させます。
//
// POST /api/:class/orders {"symbol":"BTC","action":"buy","quantity":"0.01"}
func (h *TradingHandler) PlaceOrder(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	class, ok := mdentity.ParseAssetClass(c.Param("class"))
	if !ok {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: domain.ErrUnknownAssetClass.Error() + ": " + c.Param("class")})
		return
	}
	var req dto.OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	trade, acct, err := h.uc.Trade(c.Request.Context(), usecase.TradeRequest{
		UserID:   uid,
		Class:    class,
		Symbol:   req.Symbol,
		Action:   req.Action,
		Quantity: *req.Quantity,
		Price:    req.Price,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OrderResponse{Trade: toTrade(*trade), Balance: toBalance(acct)})
}

// ListTrades は新しい順に取引履歴を返します。
//
// GET /api/trades?limit=50
func (h *TradingHandler) ListTrades(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	trades, err := h.uc.Trades(c.Request.Context(), uid, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]dto.TradeResponse, 0, len(trades))
	for _, t := range trades {
		out = append(out, toTrade(t))
	}
	c.JSON(http.StatusOK, out)
}

func toBalance(a *entity.Account) dto.BalanceResponse {
	out := dto.BalanceResponse{
		UserID:   a.UserID,
		Cash:     a.Cash,
		Holdings: map[string]map[string]decimal.Decimal{},
	}
	for class, m := range a.Holdings {
		inner := make(map[string]decimal.Decimal, len(m))
		for sym, q := range m {
			inner[sym] = q
		}
		out.Holdings[string(class)] = inner
	}
	return out
}

func toTrade(t entity.Trade) dto.TradeResponse {
	return dto.TradeResponse{
		ID:         t.ID,
		AssetClass: string(t.AssetClass),
		Symbol:     t.Symbol,
		Action:     string(t.Action),
		Quantity:   t.Quantity,
		Price:      t.Price,
		Total:      t.Total,
		ExecutedAt: t.ExecutedAt.UTC(),
	}
}

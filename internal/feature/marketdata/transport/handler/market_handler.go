package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"market_backend/internal/feature/marketdata/domain/entity"
	"market_backend/internal/feature/marketdata/transport/http/dto"
	"market_backend/internal/feature/marketdata/usecase"
)

// MarketQueryUsecase は価格・履歴・市場状態の参照ユースケースです。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type MarketQueryUsecase interface {
	GetCurrentPrice(ctx context.Context, class entity.AssetClass, symbol string) (*entity.PriceRecord, error)
	GetHistory(ctx context.Context, q usecase.HistoryQuery) (*usecase.HistoryResult, error)
	MarketStatus(class entity.AssetClass) (usecase.MarketStatus, error)
}

// MarketHandler は /api/:class 配下の参照APIを処理します。
type MarketHandler struct {
	uc MarketQueryUsecase
}

// NewMarketHandler は指定されたusecaseでMarketHandlerを生成します。
func NewMarketHandler(uc MarketQueryUsecase) *MarketHandler {
	return &MarketHandler{uc: uc}
}

// GetPrice は現在値を返します。
//
// GET /api/:class/price?symbol=AAPL
func (h *MarketHandler) GetPrice(c *gin.Context) {
	class, ok := assetClass(c)
	if !ok {
		return
	}
	symbol := strings.TrimSpace(c.Query("symbol"))
	if symbol == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "symbol is required"})
		return
	}

	rec, err := h.uc.GetCurrentPrice(c.Request.Context(), class, symbol)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.PriceResponse{
		AssetClass: string(rec.AssetClass),
		Symbol:     rec.Symbol,
		Price:      rec.Price,
		Source:     rec.Source,
		UpdatedAt:  rec.UpdatedAt.UTC(),
	})
}

// GetHistory はローソク足を返します。start/end は epoch 秒または RFC3339 で、end は含みません。
//
// GET /api/:class/history?symbol=BTC&resolution=D&start=1700000000&limit=100
func (h *MarketHandler) GetHistory(c *gin.Context) {
	class, ok := assetClass(c)
	if !ok {
		return
	}
	q := usecase.HistoryQuery{
		Class:      class,
		Symbol:     strings.TrimSpace(c.Query("symbol")),
		Resolution: c.DefaultQuery("resolution", "D"),
	}
	if q.Symbol == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "symbol is required"})
		return
	}

	var err error
	if q.Start, err = parseInstant(c.Query("start")); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid start: " + err.Error()})
		return
	}
	if q.End, err = parseInstant(c.Query("end")); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid end: " + err.Error()})
		return
	}
	if q.Start > 0 && q.End > 0 && q.End <= q.Start {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "end must be after start"})
		return
	}
	if s := c.Query("limit"); s != "" {
		if q.Limit, err = strconv.Atoi(s); err != nil || q.Limit < 0 {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid limit"})
			return
		}
	}

	res, err := h.uc.GetHistory(c.Request.Context(), q)
	if err != nil {
		writeError(c, err)
		return
	}

	out := dto.HistoryResponse{
		Symbol:     res.Symbol,
		Resolution: res.Resolution,
		Candles:    make([]dto.CandleResponse, 0, len(res.Candles)),
	}
	for _, x := range res.Candles {
		out.Candles = append(out.Candles, dto.CandleResponse{
			Time:   x.Timestamp,
			Open:   x.Open,
			High:   x.High,
			Low:    x.Low,
			Close:  x.Close,
			Volume: x.Volume,
		})
	}
	if !res.UpdatedAt.IsZero() {
		t := res.UpdatedAt.UTC()
		out.UpdatedAt = &t
	}
	c.JSON(http.StatusOK, out)
}

// GetMarketStatus は市場が開いているかを返します。
//
// GET /api/:class/market-status
func (h *MarketHandler) GetMarketStatus(c *gin.Context) {
	class, ok := assetClass(c)
	if !ok {
		return
	}
	st, err := h.uc.MarketStatus(class)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MarketStatusResponse{
		AssetClass: string(st.Class),
		Open:       st.Open,
		At:         st.At.UTC(),
	})
}

// parseInstant は空文字を0として扱います。
func parseInstant(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("negative timestamp %d", n)
		}
		return n, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return 0, fmt.Errorf("want epoch seconds or RFC3339, got %q", s)
	}
	return t.Unix(), nil
}

package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"market_backend/internal/feature/symbollist/domain/entity"
	"market_backend/internal/feature/symbollist/transport/http/dto"
	"market_backend/internal/feature/symbollist/usecase"
)

// SymbolUsecase は銘柄情報に関するユースケースのインターフェースです。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type SymbolUsecase interface {
	ListActiveSymbols(ctx context.Context, market string) ([]entity.Symbol, error)
}

// SymbolHandler は銘柄情報に関するHTTPリクエストを処理します。
type SymbolHandler struct {
	uc SymbolUsecase
}

// NewSymbolHandler は新しい SymbolHandler を作成します。
func NewSymbolHandler(uc SymbolUsecase) *SymbolHandler {
	return &SymbolHandler{uc: uc}
}

// List は有効な銘柄の一覧を返すAPIです。
// クエリ market で市場を絞り込めます。未知の市場は400、それ以外のエラーは500を返します。
func (h *SymbolHandler) List(c *gin.Context) {
	symbols, err := h.uc.ListActiveSymbols(c.Request.Context(), c.Query("market"))
	if err != nil {
		if errors.Is(err, usecase.ErrUnknownMarket) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	out := make([]dto.SymbolItem, 0, len(symbols))
	for _, s := range symbols {
		out = append(out, dto.SymbolItem{Market: s.Market, Code: s.Code, Name: s.Name})
	}
	c.JSON(http.StatusOK, out)
}

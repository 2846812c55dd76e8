package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"market_backend/internal/feature/marketdata/transport/http/dto"
	"market_backend/internal/feature/marketdata/usecase"
)

// ReinitUsecase は履歴の再初期化ユースケースです。
type ReinitUsecase interface {
	Reinit(ctx context.Context, class string, subset []string, force bool) ([]usecase.ReinitSummary, error)
}

// AdminHandler は運用向けAPIを処理します。
type AdminHandler struct {
	uc ReinitUsecase
}

// NewAdminHandler は指定されたusecaseでAdminHandlerを生成します。
func NewAdminHandler(uc ReinitUsecase) *AdminHandler {
	return &AdminHandler{uc: uc}
}

// ReinitHistories は履歴ドキュメントを作り直します。銘柄ごとの失敗はレスポンスの errors に入ります。
//
// POST /api/admin/histories/reinit {"class":"crypto","symbols":["BTC"],"force":true}
func (h *AdminHandler) ReinitHistories(c *gin.Context) {
	var req dto.ReinitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	summaries, err := h.uc.Reinit(c.Request.Context(), req.Class, req.Symbols, req.Force)
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]dto.ReinitClassResult, 0, len(summaries))
	for _, s := range summaries {
		r := dto.ReinitClassResult{
			AssetClass: string(s.AssetClass),
			Processed:  nonNil(s.Processed),
			Unchanged:  nonNil(s.Unchanged),
			Errors:     s.Errors,
		}
		if r.Errors == nil {
			r.Errors = map[string]string{}
		}
		out = append(out, r)
	}
	c.JSON(http.StatusOK, out)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

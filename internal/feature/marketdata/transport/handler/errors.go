// Package handler はmarketdataフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"market_backend/internal/feature/marketdata/domain"
	"market_backend/internal/feature/marketdata/domain/entity"
	"market_backend/internal/feature/marketdata/transport/http/dto"
)

// statusFor はドメインエラーをHTTPステータスに変換します。
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnsupportedResolution), errors.Is(err, domain.ErrUnknownAssetClass):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrPriceNotFound), errors.Is(err, domain.ErrHistoryNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrFetchFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(status, dto.ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(status, dto.ErrorResponse{Error: err.Error()})
}

// assetClass は :class パスパラメータを解釈します。
func assetClass(c *gin.Context) (entity.AssetClass, bool) {
	class, ok := entity.ParseAssetClass(c.Param("class"))
	if !ok {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: domain.ErrUnknownAssetClass.Error() + ": " + c.Param("class")})
		return "", false
	}
	return class, true
}

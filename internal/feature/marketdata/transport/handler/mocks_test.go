package handler

import (
	"context"
	"os"
	"testing"

	"github.com/gin-gonic/gin"

	"market_backend/internal/feature/marketdata/domain/entity"
	"market_backend/internal/feature/marketdata/usecase"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// mockMarketQueryUsecase はMarketQueryUsecaseインターフェースのモック実装です。
type mockMarketQueryUsecase struct {
	GetCurrentPriceFunc func(ctx context.Context, class entity.AssetClass, symbol string) (*entity.PriceRecord, error)
	GetHistoryFunc      func(ctx context.Context, q usecase.HistoryQuery) (*usecase.HistoryResult, error)
	MarketStatusFunc    func(class entity.AssetClass) (usecase.MarketStatus, error)
}

func (m *mockMarketQueryUsecase) GetCurrentPrice(ctx context.Context, class entity.AssetClass, symbol string) (*entity.PriceRecord, error) {
	return m.GetCurrentPriceFunc(ctx, class, symbol)
}

func (m *mockMarketQueryUsecase) GetHistory(ctx context.Context, q usecase.HistoryQuery) (*usecase.HistoryResult, error) {
	return m.GetHistoryFunc(ctx, q)
}

func (m *mockMarketQueryUsecase) MarketStatus(class entity.AssetClass) (usecase.MarketStatus, error) {
	return m.MarketStatusFunc(class)
}

// mockReinitUsecase はReinitUsecaseインターフェースのモック実装です。
type mockReinitUsecase struct {
	ReinitFunc func(ctx context.Context, class string, subset []string, force bool) ([]usecase.ReinitSummary, error)
}

func (m *mockReinitUsecase) Reinit(ctx context.Context, class string, subset []string, force bool) ([]usecase.ReinitSummary, error) {
	return m.ReinitFunc(ctx, class, subset, force)
}

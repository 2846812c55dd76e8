package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	mdhandler "market_backend/internal/feature/marketdata/transport/handler"
	symbolhandler "market_backend/internal/feature/symbollist/transport/handler"
	tradinghandler "market_backend/internal/feature/trading/transport/handler"
	"market_backend/internal/platform/http/handler"
	jwtmw "market_backend/internal/platform/jwt"
)

// Handlers はルーティング対象のハンドラー一式です。
type Handlers struct {
	Health  *handler.HealthHandler
	Symbols *symbolhandler.SymbolHandler
	Market  *mdhandler.MarketHandler
	Stream  *mdhandler.QuoteStream
	Trading *tradinghandler.TradingHandler
	Admin   *mdhandler.AdminHandler
}

func NewRouter(h Handlers, jwtSecret string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.HandleMethodNotAllowed = true

	// 認証不要
	// 導通確認用
	r.GET("/healthz", h.Health.Live)
	r.HEAD("/healthz", h.Health.Live)
	r.GET("/readyz", h.Health.Ready)
	r.GET("/ws/quotes", h.Stream.Serve)

	api := r.Group("/api")
	api.GET("/ping", handler.Ping)
	api.GET("/symbols", h.Symbols.List)
	api.GET("/:class/price", h.Market.GetPrice)
	api.GET("/:class/history", h.Market.GetHistory)
	api.GET("/:class/market-status", h.Market.GetMarketStatus)

	// 認証必須のルート
	// jwtmw.AuthRequired() ミドルウェアを適用
	// → リクエストヘッダーに JWT が必要になる
	auth := api.Group("/")
	auth.Use(jwtmw.AuthRequired(jwtSecret))
	{
		auth.POST("/accounts", h.Trading.OpenAccount)
		auth.GET("/balance", h.Trading.GetBalance)
		auth.GET("/trades", h.Trading.ListTrades)
		auth.POST("/:class/orders", h.Trading.PlaceOrder)
		auth.POST("/admin/histories/reinit", h.Admin.ReinitHistories)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
	return r
}

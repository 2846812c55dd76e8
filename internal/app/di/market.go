// Package di provides dependency injection factories for creating application components.
package di

import (
	"fmt"
	"time"

	"market_backend/internal/feature/marketdata/domain/calendar"
	"market_backend/internal/feature/marketdata/domain/entity"
	"market_backend/internal/feature/marketdata/domain/series"
	"market_backend/internal/feature/marketdata/usecase"
	"market_backend/internal/platform/config"
	"market_backend/internal/platform/externalapi/binance"
	"market_backend/internal/platform/externalapi/finnhub"
	"market_backend/internal/platform/externalapi/yahoo"
	infrahttp "market_backend/internal/platform/http"
	"market_backend/internal/shared/ratelimiter"
)

// Upstream is the pair of external APIs one asset class uses.
type Upstream struct {
	Prices     usecase.PriceFetcher
	Backfiller usecase.HistoryBackfiller
}

// Engine is the price loop and history loop of one asset class.
type Engine struct {
	Class       entity.AssetClass
	Catalog     *series.Catalog
	Calendar    calendar.Calendar
	Prices      *usecase.PriceSyncUsecase
	Histories   *usecase.HistorySyncUsecase
	Initializer *usecase.HistoryInitializer
}

// NewUpstream creates the fetchers of class with their HTTP clients.
// Stock quotes come from Finnhub when a key is configured, otherwise from Yahoo.
// Yahoo daily and coarser bars are re-stamped into the catalog's zone.
func NewUpstream(class entity.AssetClass, finnhubKeys []string) (Upstream, error) {
	catalog, err := series.CatalogFor(class)
	if err != nil {
		return Upstream{}, err
	}
	ycfg := yahoo.LoadConfig()
	ycfg.DayLocation = catalog.Location()

	switch class {
	case entity.AssetClassStock:
		chart := yahoo.NewYahooChart(ycfg, infrahttp.NewHTTPClient(ycfg.Timeout), yahoo.EquityTicker)

		fcfg := finnhub.LoadConfig()
		if len(fcfg.APIKeys) == 0 {
			fcfg.APIKeys = finnhubKeys
		}
		if len(fcfg.APIKeys) == 0 {
			return Upstream{Prices: chart, Backfiller: chart}, nil
		}
		quotes := finnhub.NewFinnhubQuotes(fcfg, infrahttp.NewHTTPClient(fcfg.Timeout))
		return Upstream{Prices: quotes, Backfiller: chart}, nil

	case entity.AssetClassCrypto:
		bcfg := binance.LoadConfig()
		market := binance.NewBinanceMarket(bcfg, infrahttp.NewHTTPClient(bcfg.Timeout))
		return Upstream{Prices: market, Backfiller: market}, nil

	case entity.AssetClassForex:
		chart := yahoo.NewYahooChart(ycfg, infrahttp.NewHTTPClient(ycfg.Timeout), yahoo.ForexTicker)
		return Upstream{Prices: chart, Backfiller: chart}, nil
	}
	return Upstream{}, fmt.Errorf("no upstream for asset class %q", class)
}

// NewCalendar returns the trading calendar of class in the catalog's time zone.
func NewCalendar(class entity.AssetClass, loc *time.Location, cfg config.CalendarConfig) calendar.Calendar {
	switch class {
	case entity.AssetClassStock:
		return calendar.NewEquityCalendar(loc, cfg.EquityClosures...)
	case entity.AssetClassForex:
		return calendar.NewForexCalendar(loc, cfg.ForexSchedule())
	default:
		return calendar.AlwaysOpen{}
	}
}

// NewEngine wires the price and history loops of one asset class.
func NewEngine(
	class entity.AssetClass,
	mc config.MarketConfig,
	cal config.CalendarConfig,
	up Upstream,
	prices usecase.PriceRepository,
	histories usecase.HistoryRepository,
	symbols usecase.SymbolRepository,
) (*Engine, error) {
	catalog, err := series.CatalogFor(class)
	if err != nil {
		return nil, err
	}
	gate := NewCalendar(class, catalog.Location(), cal)

	// share the limiter when prices and histories hit the same API
	priceLimiter := ratelimiter.NewDelayLimiter(mc.RequestDelay)
	var backfillLimiter ratelimiter.RateLimiterInterface = priceLimiter
	if !sameUpstream(up) {
		backfillLimiter = ratelimiter.NewDelayLimiter(mc.RequestDelay)
	}

	initializer := usecase.NewHistoryInitializer(class, catalog, up.Backfiller, prices, histories, backfillLimiter, mc.FetchTimeout)
	priceLoop := usecase.NewPriceSyncUsecase(class, up.Prices, prices, symbols, priceLimiter, usecase.PriceSyncConfig{
		Interval:     mc.PriceInterval,
		FetchTimeout: mc.FetchTimeout,
	})
	warmup := mc.Warmup
	if warmup == 0 {
		warmup = usecase.DefaultWarmup
	}
	historyLoop := usecase.NewHistorySyncUsecase(class, catalog, gate, prices, histories, symbols, initializer, usecase.HistorySyncConfig{
		Concurrency:  mc.HistoryConcurrency,
		StoreRetries: mc.StoreRetries,
		Warmup:       warmup,
	})

	return &Engine{
		Class:       class,
		Catalog:     catalog,
		Calendar:    gate,
		Prices:      priceLoop,
		Histories:   historyLoop,
		Initializer: initializer,
	}, nil
}

func sameUpstream(up Upstream) bool {
	p, ok := up.Prices.(usecase.HistoryBackfiller)
	return ok && p == up.Backfiller
}

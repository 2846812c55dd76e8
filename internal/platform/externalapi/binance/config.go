// Package binance provides a client for the Binance public market data API.
package binance

import (
	"os"
	"time"
)

// Endpoint is one spot ticker source: a REST host plus the quote asset used to build the pair.
type Endpoint struct {
	Host  string
	Quote string
}

// DefaultEndpoints are the price hosts, tried in order.
var DefaultEndpoints = []Endpoint{
	{Host: "https://api.binance.us", Quote: "USD"},
	{Host: "https://api.binance.us", Quote: "USDT"},
	{Host: "https://api.binance.com", Quote: "USDT"},
	{Host: "https://api.binance.com", Quote: "BUSD"},
}

// Config holds configuration for the Binance client.
type Config struct {
	Endpoints   []Endpoint
	KlinesHost  string // kline requests always go to one host
	KlinesQuote string
	Timeout     time.Duration
}

// LoadConfig loads Binance configuration from environment variables.
func LoadConfig() Config {
	host := os.Getenv("BINANCE_KLINES_HOST")
	if host == "" {
		host = "https://api.binance.us"
	}
	return Config{
		Endpoints:   DefaultEndpoints,
		KlinesHost:  host,
		KlinesQuote: "USDT",
		Timeout:     10 * time.Second,
	}
}

// Package yahoo provides a client for the Yahoo Finance chart API.
package yahoo

import (
	"os"
	"time"
)

const (
	DefaultBaseURL   = "https://query1.finance.yahoo.com"
	defaultUserAgent = "Mozilla/5.0 (compatible; market-backend/1.0)"
)

// Config holds configuration for the Yahoo chart client.
type Config struct {
	BaseURL   string
	UserAgent string // Yahoo rejects requests without one
	Timeout   time.Duration
	// DayLocation is the zone daily and coarser bars are restamped into. nil means UTC.
	DayLocation *time.Location
}

// LoadConfig loads Yahoo configuration from environment variables.
func LoadConfig() Config {
	base := os.Getenv("YAHOO_BASE_URL")
	if base == "" {
		base = DefaultBaseURL
	}
	return Config{
		BaseURL:   base,
		UserAgent: defaultUserAgent,
		Timeout:   10 * time.Second,
	}
}

// Package finnhub provides a client for the Finnhub quote API.
package finnhub

import (
	"os"
	"strings"
	"time"
)

const DefaultBaseURL = "https://finnhub.io/api/v1"

// Config holds configuration for the Finnhub API client.
type Config struct {
	APIKeys []string      // rotated round-robin per request
	BaseURL string        // e.g. "https://finnhub.io/api/v1"
	Timeout time.Duration // HTTP request timeout
}

// LoadConfig loads Finnhub configuration from environment variables.
// FINNHUB_API_KEYS is a comma separated key list.
func LoadConfig() Config {
	base := os.Getenv("FINNHUB_BASE_URL")
	if base == "" {
		base = DefaultBaseURL
	}
	return Config{
		APIKeys: SplitKeys(os.Getenv("FINNHUB_API_KEYS")),
		BaseURL: base,
		Timeout: 10 * time.Second,
	}
}

// SplitKeys turns "k1, k2,,k3" into a key list without empty entries.
func SplitKeys(s string) []string {
	var keys []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

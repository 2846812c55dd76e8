// Package series implements candle bucket arithmetic: the resolution catalog,
// boundary alignment, OHLCV aggregation and the incremental update rule.
package series

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"market_backend/internal/feature/marketdata/domain"
	"market_backend/internal/feature/marketdata/domain/entity"
)

// Rule is the bucket-length policy of a resolution.
type Rule int

const (
	RuleFixed Rule = iota
	RuleDay
	RuleWeek
	RuleMonth
)

// Resolution is an immutable candle granularity shared by all symbols of a class.
type Resolution struct {
	Key        string
	Rule       Rule
	Seconds    int64 // RuleFixed only
	MaxCandles int
	// Native is the upstream interval token. Empty means the series is only ever derived.
	Native string
	// DeriveFrom lists finer keys, in preference order, used when the native series is empty.
	DeriveFrom []string
}

// Catalog is the resolution table of one asset class.
type Catalog struct {
	location    *time.Location
	resolutions []Resolution
	byKey       map[string]Resolution
}

// NewCatalog builds a catalog. Resolutions must be given finest first.
func NewCatalog(loc *time.Location, resolutions ...Resolution) *Catalog {
	if loc == nil {
		loc = time.UTC
	}
	byKey := make(map[string]Resolution, len(resolutions))
	for _, r := range resolutions {
		byKey[r.Key] = r
	}
	return &Catalog{location: loc, resolutions: resolutions, byKey: byKey}
}

// Location is the exchange-local zone used for Day/Week/Month buckets.
func (c *Catalog) Location() *time.Location { return c.location }

// Resolutions returns the catalog entries, finest first.
func (c *Catalog) Resolutions() []Resolution {
	out := make([]Resolution, len(c.resolutions))
	copy(out, c.resolutions)
	return out
}

// Keys returns the canonical keys, finest first.
func (c *Catalog) Keys() []string {
	keys := make([]string, 0, len(c.resolutions))
	for _, r := range c.resolutions {
		keys = append(keys, r.Key)
	}
	return keys
}

// Lookup finds a resolution by canonical key.
func (c *Catalog) Lookup(key string) (Resolution, bool) {
	r, ok := c.byKey[key]
	return r, ok
}

// Normalize maps a loose token ("1m", "1h", "day", ...) to a resolution of this catalog.
// Matching is case-insensitive, so "1M" is one minute; month is "M", "1mo" or "month".
func (c *Catalog) Normalize(token string) (Resolution, error) {
	if key, ok := aliases[strings.ToLower(strings.TrimSpace(token))]; ok {
		if r, ok := c.Lookup(key); ok {
			return r, nil
		}
	}
	return Resolution{}, fmt.Errorf("%w: %q (supported: %s)", domain.ErrUnsupportedResolution, token, strings.Join(c.Keys(), ", "))
}

// BucketStart aligns ts to the start of its bucket in this catalog's zone.
func (c *Catalog) BucketStart(ts int64, r Resolution) int64 {
	return BucketStart(ts, r, c.location)
}

var aliases = map[string]string{
	"1": "1", "1m": "1", "1min": "1", "1minute": "1",
	"5": "5", "5m": "5", "5min": "5",
	"15": "15", "15m": "15", "15min": "15",
	"30": "30", "30m": "30", "30min": "30",
	"60": "60", "60m": "60", "60min": "60", "1h": "60", "1hour": "60", "h": "60",
	"120": "120", "120m": "120", "2h": "120",
	"240": "240", "240m": "240", "4h": "240",
	"d": "D", "1d": "D", "day": "D", "1day": "D", "dy": "D",
	"w": "W", "1w": "W", "1wk": "W", "week": "W", "1week": "W",
	"m": "M", "1mo": "M", "mo": "M", "month": "M", "1month": "M",
}

func fixed(key string, minutes int64, max int, native string, deriveFrom ...string) Resolution {
	return Resolution{Key: key, Rule: RuleFixed, Seconds: minutes * 60, MaxCandles: max, Native: native, DeriveFrom: deriveFrom}
}

func calendarRes(key string, rule Rule, max int, native string, deriveFrom ...string) Resolution {
	return Resolution{Key: key, Rule: rule, MaxCandles: max, Native: native, DeriveFrom: deriveFrom}
}

// StockCatalog is the equity table. Native tokens are Yahoo chart intervals.
func StockCatalog() *Catalog {
	return NewCatalog(mustLocation("America/New_York"),
		fixed("1", 1, 390, "1m"),
		fixed("5", 5, 390, "5m", "1"),
		fixed("15", 15, 390, "15m", "5", "1"),
		fixed("30", 30, 286, "30m", "15", "5"),
		fixed("60", 60, 429, "60m", "30", "15"),
		calendarRes("D", RuleDay, 251, "1d"),
		calendarRes("W", RuleWeek, 261, "1wk", "D"),
		calendarRes("M", RuleMonth, 60, "1mo", "D"),
	)
}

// CryptoCatalog is the crypto table. Native tokens are Binance kline intervals.
func CryptoCatalog() *Catalog {
	return NewCatalog(time.UTC,
		fixed("1", 1, 480, "1m"),
		fixed("5", 5, 288, "5m", "1"),
		fixed("15", 15, 288, "15m", "5", "1"),
		fixed("30", 30, 336, "30m", "15", "5"),
		fixed("60", 60, 360, "1h", "30", "15"),
		fixed("120", 120, 360, "2h", "60"),
		fixed("240", 240, 540, "4h", "60"),
		calendarRes("D", RuleDay, 366, "1d"),
		calendarRes("W", RuleWeek, 261, "1w", "D"),
		calendarRes("M", RuleMonth, 60, "1M", "D"),
	)
}

// ForexCatalog is the FX table. Yahoo serves no 2h/4h bars, so those are derived from 60.
func ForexCatalog() *Catalog {
	return NewCatalog(mustLocation("America/New_York"),
		fixed("1", 1, 480, "1m"),
		fixed("5", 5, 288, "5m", "1"),
		fixed("15", 15, 288, "15m", "5", "1"),
		fixed("30", 30, 336, "30m", "15", "5"),
		fixed("60", 60, 360, "60m", "30", "15"),
		fixed("120", 120, 360, "", "60"),
		fixed("240", 240, 540, "", "60"),
		calendarRes("D", RuleDay, 366, "1d"),
		calendarRes("W", RuleWeek, 261, "1wk", "D"),
		calendarRes("M", RuleMonth, 60, "1mo", "D"),
	)
}

// CatalogFor returns the default catalog of an asset class.
func CatalogFor(class entity.AssetClass) (*Catalog, error) {
	switch class {
	case entity.AssetClassStock:
		return StockCatalog(), nil
	case entity.AssetClassCrypto:
		return CryptoCatalog(), nil
	case entity.AssetClassForex:
		return ForexCatalog(), nil
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnknownAssetClass, class)
}

func mustLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(fmt.Sprintf("series: load location %s: %v", name, err))
	}
	return loc
}

package entity

import "github.com/shopspring/decimal"

// Candle is one OHLCV bar. Timestamp is the bucket start in epoch seconds.
type Candle struct {
	Timestamp int64           `json:"timestamp"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Volume    decimal.Decimal `json:"volume"`
}

// SeedCandle returns a flat candle (O=H=L=C=price, V=0) at ts.
func SeedCandle(ts int64, price decimal.Decimal) Candle {
	return Candle{
		Timestamp: ts,
		Open:      price,
		High:      price,
		Low:       price,
		Close:     price,
		Volume:    decimal.Zero,
	}
}

// Valid reports whether low <= open,close <= high holds.
func (c Candle) Valid() bool {
	return c.Low.LessThanOrEqual(decimal.Min(c.Open, c.Close)) &&
		c.High.GreaterThanOrEqual(decimal.Max(c.Open, c.Close))
}

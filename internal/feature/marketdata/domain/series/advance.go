package series

import (
	"github.com/shopspring/decimal"

	"market_backend/internal/feature/marketdata/domain/entity"
)

// Advance applies one spot price observed in bucket cs to a series.
//
//   - empty series: a seed candle at cs
//   - cs after the last bucket: a new candle opening at the previous close
//   - otherwise: the last candle's close/high/low follow the price; volume is untouched
//
// The series is capped to max. The returned bool reports whether anything changed.
// The last element of series may be overwritten in place.
func Advance(series []entity.Candle, cs int64, price decimal.Decimal, max int) ([]entity.Candle, bool) {
	if len(series) == 0 {
		return []entity.Candle{entity.SeedCandle(cs, price)}, true
	}

	last := series[len(series)-1]
	if cs > last.Timestamp {
		next := entity.Candle{
			Timestamp: cs,
			Open:      last.Close,
			High:      decimal.Max(last.Close, price),
			Low:       decimal.Min(last.Close, price),
			Close:     price,
			Volume:    decimal.Zero,
		}
		return Cap(append(series, next), max), true
	}

	high := decimal.Max(last.High, price)
	low := decimal.Min(last.Low, price)
	if last.Close.Equal(price) && last.High.Equal(high) && last.Low.Equal(low) {
		return Cap(series, max), len(series) > max && max > 0
	}
	last.Close = price
	last.High = high
	last.Low = low
	series[len(series)-1] = last
	return Cap(series, max), true
}

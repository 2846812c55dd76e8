package series

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"market_backend/internal/feature/marketdata/domain/entity"
)

// Aggregate re-buckets candles into target: open of the first, close of the last,
// max high, min low and summed volume per bucket. Output is ascending by bucket start.
// Input order does not matter; it is sorted by timestamp first.
func Aggregate(candles []entity.Candle, target Resolution, loc *time.Location) []entity.Candle {
	if len(candles) == 0 {
		return nil
	}
	sorted := make([]entity.Candle, len(candles))
	copy(sorted, candles)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp < sorted[j].Timestamp })

	out := make([]entity.Candle, 0, len(sorted))
	for _, c := range sorted {
		bs := BucketStart(c.Timestamp, target, loc)
		if n := len(out); n > 0 && out[n-1].Timestamp == bs {
			agg := &out[n-1]
			agg.High = decimal.Max(agg.High, c.High)
			agg.Low = decimal.Min(agg.Low, c.Low)
			agg.Close = c.Close
			agg.Volume = agg.Volume.Add(c.Volume)
			continue
		}
		out = append(out, entity.Candle{
			Timestamp: bs,
			Open:      c.Open,
			High:      c.High,
			Low:       c.Low,
			Close:     c.Close,
			Volume:    c.Volume,
		})
	}
	return out
}

// Cap keeps the newest max candles. max <= 0 disables the cap.
func Cap(candles []entity.Candle, max int) []entity.Candle {
	if max <= 0 || len(candles) <= max {
		return candles
	}
	out := make([]entity.Candle, max)
	copy(out, candles[len(candles)-max:])
	return out
}

// Window returns the candles with start <= ts < end (zero bound = open),
// keeping the newest limit entries in ascending order.
func Window(candles []entity.Candle, start, end int64, limit int) []entity.Candle {
	out := make([]entity.Candle, 0, len(candles))
	for _, c := range candles {
		if start != 0 && c.Timestamp < start {
			continue
		}
		if end != 0 && c.Timestamp >= end {
			continue
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

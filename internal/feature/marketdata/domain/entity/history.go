package entity

import "time"

// Histories maps a canonical resolution key to its ascending candle series.
type Histories map[string][]Candle

// Clone returns a deep copy so callers can mutate series without touching the original.
func (h Histories) Clone() Histories {
	out := make(Histories, len(h))
	for k, v := range h {
		cp := make([]Candle, len(v))
		copy(cp, v)
		out[k] = cp
	}
	return out
}

// HistoryDocument holds every resolution's series for one symbol.
type HistoryDocument struct {
	AssetClass AssetClass
	Symbol     string
	Histories  Histories
	UpdatedAt  time.Time
}

package series

import "time"

// BucketStart maps ts to the canonical start of its bucket.
// Fixed resolutions are epoch-anchored; Day, Week (Monday) and Month start at
// midnight in loc. The result is idempotent: BucketStart(BucketStart(t)) == BucketStart(t).
func BucketStart(ts int64, r Resolution, loc *time.Location) int64 {
	if r.Rule == RuleFixed {
		if r.Seconds <= 0 {
			return ts
		}
		m := ts % r.Seconds
		if m < 0 {
			m += r.Seconds
		}
		return ts - m
	}

	if loc == nil {
		loc = time.UTC
	}
	t := time.Unix(ts, 0).In(loc)
	y, mo, d := t.Date()
	switch r.Rule {
	case RuleDay:
		return time.Date(y, mo, d, 0, 0, 0, 0, loc).Unix()
	case RuleWeek:
		sinceMonday := (int(t.Weekday()) + 6) % 7
		return time.Date(y, mo, d-sinceMonday, 0, 0, 0, 0, loc).Unix()
	case RuleMonth:
		return time.Date(y, mo, 1, 0, 0, 0, 0, loc).Unix()
	}
	return ts
}

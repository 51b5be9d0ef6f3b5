package resample

import (
	"TickerPacket/internal/model"
)

// Validate checks the decoded minute bars before aggregation: volume and
// prices must be non-negative and timestamps strictly increasing. Bars are
// never re-sorted or de-duplicated; an out-of-order or repeated timestamp
// is an error. On success the input slice is returned unchanged.
func Validate(bars []model.MinuteBar) ([]model.MinuteBar, error) {
	for i, b := range bars {
		if b.Volume < 0 {
			return nil, &ValidationError{Index: i, Time: b.Time, Reason: "negative volume"}
		}
		if field, ok := negativePrice(b); ok {
			return nil, &ValidationError{Index: i, Time: b.Time, Reason: "negative " + field}
		}
		if i > 0 {
			prev := bars[i-1].Time
			switch {
			case b.Time.Equal(prev):
				return nil, &ValidationError{Index: i, Time: b.Time, Reason: "duplicate timestamp"}
			case b.Time.Before(prev):
				return nil, &ValidationError{Index: i, Time: b.Time, Reason: "timestamp out of order"}
			}
		}
	}
	return bars, nil
}

func negativePrice(b model.MinuteBar) (string, bool) {
	switch {
	case b.Open.IsNegative():
		return "open", true
	case b.High.IsNegative():
		return "high", true
	case b.Low.IsNegative():
		return "low", true
	case b.Close.IsNegative():
		return "close", true
	}
	return "", false
}

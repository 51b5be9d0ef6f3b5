package resample

import (
	"fmt"
	"time"

	"TickerPacket/internal/model"
	"TickerPacket/internal/session"
)

// Resample folds in-session minute bars into fixed-width buckets anchored
// at the session open of each trading date.
//
// Bars outside the regular session are dropped. Bucket k on a date covers
// [open+k*width, min(open+(k+1)*width, close)), so a session that is not a
// whole number of widths ends with a shorter bucket. Buckets without bars
// are omitted. Bars must already be in strictly increasing time order (see
// Validate).
func Resample(sess session.Session, width time.Duration, bars []model.MinuteBar) ([]model.HourBar, error) {
	if err := checkWidth(width); err != nil {
		return nil, err
	}
	if err := sess.Validate(); err != nil {
		return nil, &ConfigError{Field: "session", Reason: err.Error()}
	}

	var out []model.HourBar
	for i, b := range bars {
		in := sess.Classify(b.Time)
		if !in.InSession {
			continue
		}
		k := sess.SinceOpen(in) / width
		start := sess.OpenPlus(in.Date, k*width)

		if n := len(out); n > 0 {
			last := &out[n-1]
			if start.Equal(last.Start) {
				fold(last, b)
				continue
			}
			if start.Before(last.Start) {
				return nil, &ValidationError{Index: i, Time: b.Time, Reason: "timestamp out of order"}
			}
		}

		end := sess.OpenPlus(in.Date, (k+1)*width)
		if closeAt := sess.CloseAt(in.Date); end.After(closeAt) {
			end = closeAt
		}
		out = append(out, model.HourBar{
			Start:  start,
			End:    end,
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
			Count:  1,
		})
	}
	return out, nil
}

func fold(agg *model.HourBar, b model.MinuteBar) {
	if b.High.GreaterThan(agg.High) {
		agg.High = b.High
	}
	if b.Low.LessThan(agg.Low) {
		agg.Low = b.Low
	}
	agg.Close = b.Close
	agg.Volume += b.Volume
	agg.Count++
}

func checkWidth(width time.Duration) error {
	if width <= 0 {
		return &ConfigError{Field: "bucket_width", Reason: fmt.Sprintf("must be positive, got %v", width)}
	}
	if width%time.Second != 0 {
		return &ConfigError{Field: "bucket_width", Reason: fmt.Sprintf("must be whole seconds, got %v", width)}
	}
	return nil
}

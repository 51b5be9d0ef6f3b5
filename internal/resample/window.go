package resample

import (
	"fmt"
	"sort"

	"TickerPacket/internal/model"
	"TickerPacket/internal/session"
)

// SelectWindow keeps the elements of series whose trading date is one of
// the windowDays most recent distinct dates present. With fewer dates than
// requested everything is kept. Order of series is preserved.
func SelectWindow[T any](series []T, windowDays int, dateOf func(T) session.Date) ([]T, error) {
	if err := checkWindow(windowDays); err != nil {
		return nil, err
	}

	seen := make(map[session.Date]struct{})
	var dates []session.Date
	for _, v := range series {
		d := dateOf(v)
		if _, ok := seen[d]; !ok {
			seen[d] = struct{}{}
			dates = append(dates, d)
		}
	}
	if len(dates) <= windowDays {
		return series, nil
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	keep := make(map[session.Date]struct{}, windowDays)
	for _, d := range dates[len(dates)-windowDays:] {
		keep[d] = struct{}{}
	}

	out := make([]T, 0, len(series))
	for _, v := range series {
		if _, ok := keep[dateOf(v)]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

// HourBarDate is the trading date of an aggregated bar.
func HourBarDate(b model.HourBar) session.Date { return session.DateOf(b.Start) }

// MinuteBarDate returns a date function for raw minute bars under sess.
func MinuteBarDate(sess session.Session) func(model.MinuteBar) session.Date {
	return func(b model.MinuteBar) session.Date { return sess.Classify(b.Time).Date }
}

func checkWindow(windowDays int) error {
	if windowDays < 1 {
		return &ConfigError{Field: "window_days", Reason: fmt.Sprintf("must be a positive integer, got %d", windowDays)}
	}
	return nil
}

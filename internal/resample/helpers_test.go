package resample

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"TickerPacket/internal/model"
	"TickerPacket/internal/session"
)

func usSession(t *testing.T) session.Session {
	t.Helper()
	s, err := session.USRegular()
	if err != nil {
		t.Fatalf("USRegular: %v", err)
	}
	return s
}

// minutes builds one bar per local minute in [from, to) on date d. Prices
// walk up by one cent per bar from base; volume is 100+i.
func minutes(sess session.Session, d session.Date, from, to string, base float64) []model.MinuteBar {
	f, _ := session.ParseClock(from)
	e, _ := session.ParseClock(to)
	var bars []model.MinuteBar
	for m := f.Minutes(); m < e.Minutes(); m++ {
		local := time.Date(d.Year, d.Month, d.Day, 0, m, 0, 0, sess.Location)
		i := m - f.Minutes()
		p := decimal.NewFromFloat(base).Add(decimal.New(int64(i), -2))
		bars = append(bars, model.MinuteBar{
			Time:   local.UTC(),
			Open:   p,
			High:   p.Add(decimal.RequireFromString("0.05")),
			Low:    p.Sub(decimal.RequireFromString("0.03")),
			Close:  p.Add(decimal.RequireFromString("0.01")),
			Volume: int64(100 + i),
		})
	}
	return bars
}

// tradingDates returns n consecutive weekdays starting at first.
func tradingDates(first time.Time, n int) []session.Date {
	var out []session.Date
	for d := first; len(out) < n; d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		out = append(out, session.DateOf(d))
	}
	return out
}

func clockOf(t time.Time) string { return t.Format("15:04") }

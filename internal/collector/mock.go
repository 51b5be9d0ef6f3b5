package collector

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"TickerPacket/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Bars []model.MinuteBar
	Err  error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchMinuteBars(context.Context, string) ([]model.MinuteBar, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Bars, nil
}

// GenerateSessionBars builds one bar per minute from open to close (local
// wall time in loc) for each weekday in [from, from+days). Prices drift by
// one cent per minute from basePrice.
func GenerateSessionBars(loc *time.Location, from time.Time, days int, basePrice float64) []model.MinuteBar {
	var bars []model.MinuteBar
	price := decimal.NewFromFloat(basePrice)
	step := decimal.New(1, -2)
	for d := 0; d < days; d++ {
		day := from.AddDate(0, 0, d)
		if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			continue
		}
		y, mo, dd := day.Date()
		for m := 9*60 + 30; m < 16*60; m++ {
			local := time.Date(y, mo, dd, 0, m, 0, 0, loc)
			bars = append(bars, model.MinuteBar{
				Time:   local.UTC(),
				Open:   price,
				High:   price.Add(step),
				Low:    price.Sub(step),
				Close:  price.Add(step),
				Volume: 1000,
			})
			price = price.Add(step)
		}
	}
	return bars
}

package calculator

import (
	"errors"

	"github.com/shopspring/decimal"

	"TickerPacket/internal/model"
)

// WindowRange returns the highest high and lowest low across bars.
func WindowRange(bars []model.HourBar) (high, low decimal.Decimal, err error) {
	if len(bars) == 0 {
		return decimal.Zero, decimal.Zero, errors.New("no bars provided")
	}
	high, low = bars[0].High, bars[0].Low
	for _, b := range bars[1:] {
		if b.High.GreaterThan(high) {
			high = b.High
		}
		if b.Low.LessThan(low) {
			low = b.Low
		}
	}
	return high, low, nil
}

// RangePosition returns where current sits within [low, high] (0.0~1.0).
func RangePosition(current, high, low decimal.Decimal) (float64, error) {
	if high.Equal(low) {
		return 0.5, nil
	}
	if high.LessThan(low) {
		return 0, errors.New("high must be >= low")
	}
	pos, _ := current.Sub(low).Div(high.Sub(low)).Float64()
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return pos, nil
}

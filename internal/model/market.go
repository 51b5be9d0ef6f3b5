package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// MinuteBar is one exchange-reported minute of trading. Time is UTC.
type MinuteBar struct {
	Time   time.Time
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume int64
}

// HourBar is one aggregated, session-anchored bucket. Start and End are in
// exchange-local time so they render with the offset in effect that day.
// End is clamped to the session close, so the last bucket may be short.
type HourBar struct {
	Start  time.Time
	End    time.Time
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume int64
	Count  int // constituent minute bars
}

// PriceChart is the resampled price series for one ticker.
type PriceChart struct {
	Ticker      string
	WindowDays  int
	BucketWidth time.Duration
	Bars        []HourBar
}

package model

import "github.com/shopspring/decimal"

// WindowStats summarises an aggregated price window.
type WindowStats struct {
	Bars        int
	TradingDays int
	High        decimal.Decimal
	Low         decimal.Decimal
	LastClose   decimal.Decimal
	Position    float64 // last close within [Low, High], 0.0 ~ 1.0
	SMA7        float64 // mean of the last 7 closes
	RSI14       float64
	Volume      int64
}

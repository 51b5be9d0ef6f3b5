package model

import "time"

// NewsItem is one headline for the news section.
type NewsItem struct {
	Time     time.Time
	Headline string
	Source   string
	URL      string
}

// SenateEvent is one congressional trading disclosure.
type SenateEvent struct {
	Date         string // YYYY-MM-DD
	Chamber      string
	MemberName   string
	ActivityType string // BUY, SELL, DISCLOSURE
	Notes        string
}

// FinanceSnapshot is a point-in-time quote summary.
type FinanceSnapshot struct {
	Source          string
	AsOf            time.Time
	PriceLast       float64
	Currency        string
	MarketCapApprox *float64
	PERatioApprox   *float64
	Notes           string
}

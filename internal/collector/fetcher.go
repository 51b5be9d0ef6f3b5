package collector

import (
	"context"

	"TickerPacket/internal/model"
)

// Fetcher loads the raw one-minute bars for a ticker.
type Fetcher interface {
	FetchMinuteBars(ctx context.Context, ticker string) ([]model.MinuteBar, error)
	Name() string
}

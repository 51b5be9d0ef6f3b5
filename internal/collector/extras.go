package collector

import (
	"context"

	"TickerPacket/internal/model"
)

// NewsCollector returns recent headlines for a ticker.
type NewsCollector interface {
	CollectNews(ctx context.Context, ticker string, windowDays int) ([]model.NewsItem, error)
}

// SenateCollector returns congressional trading activity for a ticker.
type SenateCollector interface {
	CollectSenateActivity(ctx context.Context, ticker string, windowDays int) ([]model.SenateEvent, error)
}

// SnapshotCollector returns a quote snapshot, or nil when none is available.
type SnapshotCollector interface {
	CollectSnapshot(ctx context.Context, ticker string) (*model.FinanceSnapshot, error)
}

// NullNewsCollector yields no news.
type NullNewsCollector struct{}

func (NullNewsCollector) CollectNews(context.Context, string, int) ([]model.NewsItem, error) {
	return nil, nil
}

// NullSenateCollector yields no senate activity.
type NullSenateCollector struct{}

func (NullSenateCollector) CollectSenateActivity(context.Context, string, int) ([]model.SenateEvent, error) {
	return nil, nil
}

// NullSnapshotCollector yields no snapshot.
type NullSnapshotCollector struct{}

func (NullSnapshotCollector) CollectSnapshot(context.Context, string) (*model.FinanceSnapshot, error) {
	return nil, nil
}

// YahooSnapshotCollector adapts YahooFetcher.FetchSnapshot.
type YahooSnapshotCollector struct {
	Yahoo *YahooFetcher
}

func (c YahooSnapshotCollector) CollectSnapshot(ctx context.Context, ticker string) (*model.FinanceSnapshot, error) {
	return c.Yahoo.FetchSnapshot(ctx, ticker)
}

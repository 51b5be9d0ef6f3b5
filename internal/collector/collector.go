package collector

import (
	"context"
	"fmt"
	"log"
	"strings"

	"TickerPacket/internal/calculator"
	"TickerPacket/internal/packet"
	"TickerPacket/internal/resample"
)

// Collector orchestrates bar fetching, resampling and the extra sections
// for one ticker packet. A nil section collector disables that section.
type Collector struct {
	Fetcher  Fetcher
	Options  resample.Options
	News     NewsCollector
	Senate   SenateCollector
	Snapshot SnapshotCollector
}

// NewCollector creates a new Collector with all extra sections disabled.
func NewCollector(fetcher Fetcher, opts resample.Options) *Collector {
	return &Collector{Fetcher: fetcher, Options: opts}
}

// Collect builds the packet for ticker. Price bar failures abort the
// packet; extra section failures are logged and leave the section empty.
func (c *Collector) Collect(ctx context.Context, ticker string) (*packet.Packet, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, fmt.Errorf("ticker cannot be empty")
	}
	if err := c.Options.Validate(); err != nil {
		return nil, err
	}

	minutes, err := c.Fetcher.FetchMinuteBars(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("fetch minute bars for %s: %w", ticker, err)
	}
	chart, err := resample.Chart(c.Options, ticker, minutes)
	if err != nil {
		return nil, fmt.Errorf("resample %s: %w", ticker, err)
	}
	log.Printf("[INFO] %s: %d minute bars -> %d %s bars", ticker, len(minutes), len(chart.Bars), packet.BarSize(chart.BucketWidth))

	p := &packet.Packet{
		Chart:   chart,
		Session: c.Options.Session,
		Stats:   calculator.Summarize(chart.Bars),
	}

	if c.News != nil {
		if items, err := c.News.CollectNews(ctx, ticker, c.Options.WindowDays); err != nil {
			log.Printf("[WARN] %s news collection failed: %v", ticker, err)
		} else {
			p.News = items
		}
	}
	if c.Senate != nil {
		if items, err := c.Senate.CollectSenateActivity(ctx, ticker, c.Options.WindowDays); err != nil {
			log.Printf("[WARN] %s senate collection failed: %v", ticker, err)
		} else {
			p.Senate = items
		}
	}
	if c.Snapshot != nil {
		if snap, err := c.Snapshot.CollectSnapshot(ctx, ticker); err != nil {
			log.Printf("[WARN] %s finance snapshot failed: %v", ticker, err)
		} else {
			p.Snapshot = snap
		}
	}
	return p, nil
}

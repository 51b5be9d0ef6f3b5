package recorder

import (
	"time"

	"TickerPacket/internal/model"
)

// Run statuses.
const (
	StatusOK     = "OK"
	StatusFailed = "FAILED"
)

// PacketRun records one packet build for one ticker.
type PacketRun struct {
	RunID      string // shared by all tickers of one scheduled run
	Ticker     string
	Trigger    string // "CRON", "COMMAND" or "CLI"
	WindowDays int
	BarSize    string
	BarCount   int
	Status     string
	Error      string
	ExportPath string
	StartedAt  time.Time
	Duration   time.Duration
}

// Recorder persists packet history for analysis.
type Recorder interface {
	RecordRun(run *PacketRun) error
	RecordBars(runID, ticker string, bars []model.HourBar) error
	Close() error
}

package saver

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"TickerPacket/internal/model"
	"TickerPacket/internal/packet"
)

// BarSaver writes one resampled chart to a file.
type BarSaver interface {
	Save(bars []model.HourBar, path string) error
	Extension() string
}

// NewBarSaver returns the implementation for format (csv, parquet, json),
// or nil if the format is not supported.
func NewBarSaver(format string) BarSaver {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "csv":
		return CSVSaver{}
	case "parquet":
		return ParquetSaver{}
	case "json":
		return JSONSaver{}
	default:
		return nil
	}
}

// FileName is TICKER_<last trading date>_<bar size>.<ext>.
func FileName(chart *model.PriceChart, ext string) string {
	day := "empty"
	if n := len(chart.Bars); n > 0 {
		day = chart.Bars[n-1].Start.Format("20060102")
	}
	return fmt.Sprintf("%s_%s_%s.%s", chart.Ticker, day, packet.BarSize(chart.BucketWidth), ext)
}

// Export saves chart under dir and returns the written path.
func Export(s BarSaver, dir string, chart *model.PriceChart) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, FileName(chart, s.Extension()))
	if err := s.Save(chart.Bars, path); err != nil {
		return "", fmt.Errorf("save %s: %w", path, err)
	}
	return path, nil
}

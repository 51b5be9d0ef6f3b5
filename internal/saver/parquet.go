package saver

import (
	"time"

	"github.com/parquet-go/parquet-go"

	"TickerPacket/internal/model"
)

// ParquetBar is the parquet row layout. Timestamps are Unix milliseconds
// with the local rendering kept alongside.
type ParquetBar struct {
	Timestamp int64   `parquet:"t"`
	TsLocal   string  `parquet:"ts_local"`
	Open      float64 `parquet:"o"`
	High      float64 `parquet:"h"`
	Low       float64 `parquet:"l"`
	Close     float64 `parquet:"c"`
	Volume    int64   `parquet:"v"`
	Count     int64   `parquet:"n"`
}

// ParquetSaver writes bars as Parquet.
type ParquetSaver struct{}

func (ParquetSaver) Extension() string { return "parquet" }

func (ParquetSaver) Save(bars []model.HourBar, path string) error {
	rows := make([]ParquetBar, len(bars))
	for i, b := range bars {
		rows[i] = ParquetBar{
			Timestamp: b.Start.UnixMilli(),
			TsLocal:   b.Start.Format(time.RFC3339),
			Open:      b.Open.InexactFloat64(),
			High:      b.High.InexactFloat64(),
			Low:       b.Low.InexactFloat64(),
			Close:     b.Close.InexactFloat64(),
			Volume:    b.Volume,
			Count:     int64(b.Count),
		}
	}
	return parquet.WriteFile(path, rows)
}

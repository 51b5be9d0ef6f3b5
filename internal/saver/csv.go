package saver

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"

	"TickerPacket/internal/model"
	"TickerPacket/internal/packet"
)

// CSVSaver writes bars as CSV (header: ts_local,o,h,l,c,v,n).
type CSVSaver struct{}

func (CSVSaver) Extension() string { return "csv" }

func (CSVSaver) Save(bars []model.HourBar, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)

	if err := w.Write([]string{"ts_local", "o", "h", "l", "c", "v", "n"}); err != nil {
		return err
	}
	for _, b := range bars {
		if err := w.Write([]string{
			b.Start.Format(time.RFC3339),
			b.Open.StringFixed(packet.PricePrecision),
			b.High.StringFixed(packet.PricePrecision),
			b.Low.StringFixed(packet.PricePrecision),
			b.Close.StringFixed(packet.PricePrecision),
			strconv.FormatInt(b.Volume, 10),
			strconv.Itoa(b.Count),
		}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

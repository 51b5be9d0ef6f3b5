package saver

import (
	"encoding/json"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"TickerPacket/internal/model"
)

// jsonBar keeps prices as decimal strings.
type jsonBar struct {
	Start  string          `json:"ts_local"`
	End    string          `json:"end_local"`
	Open   decimal.Decimal `json:"o"`
	High   decimal.Decimal `json:"h"`
	Low    decimal.Decimal `json:"l"`
	Close  decimal.Decimal `json:"c"`
	Volume int64           `json:"v"`
	Count  int             `json:"n"`
}

// JSONSaver writes bars as an indented JSON array.
type JSONSaver struct{}

func (JSONSaver) Extension() string { return "json" }

func (JSONSaver) Save(bars []model.HourBar, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	out := make([]jsonBar, len(bars))
	for i, b := range bars {
		out[i] = jsonBar{
			Start:  b.Start.Format(time.RFC3339),
			End:    b.End.Format(time.RFC3339),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
			Count:  b.Count,
		}
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

package collector

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf16"

	"github.com/shopspring/decimal"

	"TickerPacket/internal/resample"
)

const sampleCSV = `ts,o,h,l,c,v
2024-01-10T14:30:00Z,220.10,220.50,219.90,220.20,1500
2024-01-10T14:31:00Z,220.20,220.30,220.00,220.05,900
`

func TestReadMinuteBars(t *testing.T) {
	bars, err := ReadMinuteBars(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("ReadMinuteBars: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(bars))
	}
	b := bars[0]
	if !b.Time.Equal(time.Date(2024, 1, 10, 14, 30, 0, 0, time.UTC)) || b.Time.Location() != time.UTC {
		t.Errorf("time = %v", b.Time)
	}
	if !b.Open.Equal(decimal.RequireFromString("220.1")) || !b.Close.Equal(decimal.RequireFromString("220.2")) {
		t.Errorf("prices = %s/%s", b.Open, b.Close)
	}
	if b.Volume != 1500 {
		t.Errorf("volume = %d", b.Volume)
	}
}

func TestReadMinuteBars_NoHeaderAndOffsets(t *testing.T) {
	in := "2024-01-10T09:30:00-05:00,1,2,0.5,1.5,10\n"
	bars, err := ReadMinuteBars(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadMinuteBars: %v", err)
	}
	if len(bars) != 1 || !bars[0].Time.Equal(time.Date(2024, 1, 10, 14, 30, 0, 0, time.UTC)) {
		t.Errorf("bars = %+v", bars)
	}
}

func TestReadMinuteBars_ParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		row   string
		field string
	}{
		{"bad timestamp", "2024-01-10 14:30,1,1,1,1,1", "ts"},
		{"non numeric open", "2024-01-10T14:30:00Z,abc,1,1,1,1", "o"},
		{"nan close", "2024-01-10T14:30:00Z,1,1,1,NaN,1", "c"},
		{"fractional volume", "2024-01-10T14:30:00Z,1,1,1,1,1.5", "v"},
		{"volume overflows int64", "2024-01-10T14:30:00Z,1,1,1,1,18446744073709551617", "v"},
		{"exponent volume", "2024-01-10T14:30:00Z,1,1,1,1,1e3", "v"},
		{"short row", "2024-01-10T14:30:00Z,1,1", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := "ts,o,h,l,c,v\n2024-01-10T14:29:00Z,1,1,1,1,1\n" + tt.row + "\n"
			bars, err := ReadMinuteBars(strings.NewReader(in))
			if bars != nil {
				t.Errorf("expected no bars, got %d", len(bars))
			}
			var pe *resample.ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected ParseError, got %v", err)
			}
			if pe.Row != 2 || pe.Field != tt.field {
				t.Errorf("row/field = %d/%q, want 2/%q", pe.Row, pe.Field, tt.field)
			}
		})
	}
}

func TestReadMinuteBars_NegativeVolumeDecodes(t *testing.T) {
	// Negative volume is a validation concern, not a decode failure.
	bars, err := ReadMinuteBars(strings.NewReader("2024-01-10T14:30:00Z,1,1,1,1,-7\n"))
	if err != nil {
		t.Fatalf("ReadMinuteBars: %v", err)
	}
	if bars[0].Volume != -7 {
		t.Errorf("volume = %d", bars[0].Volume)
	}
}

func TestReadMinuteBars_UTF16(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0xFF, 0xFE})
	for _, u := range utf16.Encode([]rune(sampleCSV)) {
		_ = binary.Write(&buf, binary.LittleEndian, u)
	}
	bars, err := ReadMinuteBars(&buf)
	if err != nil {
		t.Fatalf("ReadMinuteBars: %v", err)
	}
	if len(bars) != 2 || bars[1].Volume != 900 {
		t.Errorf("bars = %+v", bars)
	}
}

func TestCSVFetcher_Locate(t *testing.T) {
	dir := t.TempDir()
	data := filepath.Join(dir, "data")
	if err := os.MkdirAll(data, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(data, "AMZN.csv"), []byte(sampleCSV), 0o644); err != nil {
		t.Fatal(err)
	}

	f := NewCSVFetcher("", []string{filepath.Join(dir, "missing"), data})
	bars, err := f.FetchMinuteBars(context.Background(), "amzn")
	if err != nil {
		t.Fatalf("FetchMinuteBars: %v", err)
	}
	if len(bars) != 2 {
		t.Errorf("expected 2 bars, got %d", len(bars))
	}

	if _, err := f.FetchMinuteBars(context.Background(), "MSFT"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

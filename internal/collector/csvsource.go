package collector

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"TickerPacket/internal/model"
	"TickerPacket/internal/resample"
)

// DefaultDataDirs are searched for <TICKER>.csv when no path is given.
var DefaultDataDirs = []string{".", "data", "sample_data"}

// CSVFetcher reads minute bars from a local CSV file with the columns
// ts,o,h,l,c,v. Timestamps are RFC3339.
type CSVFetcher struct {
	Path string   // explicit file; overrides Dirs
	Dirs []string // searched for <TICKER>.csv
}

// NewCSVFetcher creates a fetcher. An empty dirs list uses DefaultDataDirs.
func NewCSVFetcher(path string, dirs []string) *CSVFetcher {
	if len(dirs) == 0 {
		dirs = DefaultDataDirs
	}
	return &CSVFetcher{Path: path, Dirs: dirs}
}

func (f *CSVFetcher) Name() string { return "csv" }

// Locate returns the CSV path for ticker.
func (f *CSVFetcher) Locate(ticker string) (string, error) {
	if f.Path != "" {
		return f.Path, nil
	}
	name := strings.ToUpper(ticker) + ".csv"
	for _, dir := range f.Dirs {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("locate %s in %v: %w", name, f.Dirs, os.ErrNotExist)
}

func (f *CSVFetcher) FetchMinuteBars(_ context.Context, ticker string) ([]model.MinuteBar, error) {
	path, err := f.Locate(ticker)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()

	bars, err := ReadMinuteBars(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return bars, nil
}

// ReadMinuteBars decodes CSV minute bars from r. A leading header row is
// skipped. UTF-16 input with a BOM is transcoded. Rows are returned in file
// order; ordering is checked later by resample.Validate.
func ReadMinuteBars(r io.Reader) ([]model.MinuteBar, error) {
	br := bufio.NewReader(r)
	if b, _ := br.Peek(2); len(b) == 2 && ((b[0] == 0xFF && b[1] == 0xFE) || (b[0] == 0xFE && b[1] == 0xFF)) {
		tr := transform.NewReader(br, unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder())
		br = bufio.NewReader(tr)
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var bars []model.MinuteBar
	row := 0
	first := true
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if first {
			first = false
			if err == nil && isHeader(rec) {
				continue
			}
		}
		row++
		if err != nil {
			return nil, &resample.ParseError{Row: row, Err: err}
		}
		bar, err := decodeRow(row, rec)
		if err != nil {
			return nil, err
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

func isHeader(rec []string) bool {
	if len(rec) == 0 {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(rec[0], "\ufeff"))) {
	case "ts", "t", "time", "timestamp", "ts_utc":
		return true
	}
	return false
}

var priceFields = [4]string{"o", "h", "l", "c"}

func decodeRow(row int, rec []string) (model.MinuteBar, error) {
	if len(rec) < 6 {
		return model.MinuteBar{}, &resample.ParseError{Row: row, Err: fmt.Errorf("expected 6 fields, got %d", len(rec))}
	}

	tsRaw := strings.TrimSpace(strings.TrimPrefix(rec[0], "\ufeff"))
	ts, err := time.Parse(time.RFC3339, tsRaw)
	if err != nil {
		return model.MinuteBar{}, &resample.ParseError{Row: row, Field: "ts", Value: tsRaw, Err: err}
	}

	var prices [4]decimal.Decimal
	for i, name := range priceFields {
		raw := strings.TrimSpace(rec[i+1])
		p, err := decimal.NewFromString(raw)
		if err != nil {
			return model.MinuteBar{}, &resample.ParseError{Row: row, Field: name, Value: raw, Err: err}
		}
		prices[i] = p
	}

	vRaw := strings.TrimSpace(rec[5])
	v, err := strconv.ParseInt(vRaw, 10, 64)
	if err != nil {
		return model.MinuteBar{}, &resample.ParseError{Row: row, Field: "v", Value: vRaw, Err: err}
	}

	return model.MinuteBar{
		Time:   ts.UTC(),
		Open:   prices[0],
		High:   prices[1],
		Low:    prices[2],
		Close:  prices[3],
		Volume: v,
	}, nil
}

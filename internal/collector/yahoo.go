package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"TickerPacket/internal/model"
)

// YahooFetcher implements Fetcher using the Yahoo Finance chart API.
type YahooFetcher struct {
	Client *http.Client
	Hosts  []string // tried in order
	Range  string   // chart range, e.g. "5d"
	// SymbolMap maps an internal symbol to a Yahoo ticker.
	SymbolMap map[string]string
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(proxyURL string) *YahooFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &YahooFetcher{
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		Hosts: []string{"https://query1.finance.yahoo.com", "https://query2.finance.yahoo.com"},
		Range: "5d",
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
		},
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []yahooResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type yahooResult struct {
	Meta struct {
		Symbol             string   `json:"symbol"`
		Currency           string   `json:"currency"`
		RegularMarketPrice *float64 `json:"regularMarketPrice"`
		RegularMarketTime  int64    `json:"regularMarketTime"`
		ChartPreviousClose *float64 `json:"chartPreviousClose"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*int64   `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

// fetchChart tries each host in turn and returns the first usable result.
func (f *YahooFetcher) fetchChart(ctx context.Context, symbol, interval string) (*yahooResult, error) {
	var lastErr error
	for i, host := range f.Hosts {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Second):
			}
		}
		res, err := f.fetchChartFrom(ctx, host, symbol, interval)
		if err == nil {
			return res, nil
		}
		log.Printf("[WARN] yahoo %s via %s: %v", symbol, host, err)
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errors.New("no hosts configured")
	}
	return nil, lastErr
}

func (f *YahooFetcher) fetchChartFrom(ctx context.Context, host, symbol, interval string) (*yahooResult, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&range=%s",
		strings.TrimRight(host, "/"), url.PathEscape(f.yahooSymbol(symbol)), interval, f.Range)

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s (%s)", chart.Chart.Error.Description, chart.Chart.Error.Code)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo: no data returned")
	}
	return &chart.Chart.Result[0], nil
}

// FetchMinuteBars returns the 1m bars Yahoo holds for the configured range.
// Rows with any null field are skipped. Yahoo repeats the live minute at
// the tail; consecutive rows with the same timestamp keep the later one.
func (f *YahooFetcher) FetchMinuteBars(ctx context.Context, ticker string) ([]model.MinuteBar, error) {
	res, err := f.fetchChart(ctx, ticker, "1m")
	if err != nil {
		return nil, err
	}
	if len(res.Indicators.Quote) == 0 {
		return nil, nil
	}
	q := res.Indicators.Quote[0]

	bars := make([]model.MinuteBar, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		o, h, l, c := at(q.Open, i), at(q.High, i), at(q.Low, i), at(q.Close, i)
		if o == nil || h == nil || l == nil || c == nil || i >= len(q.Volume) || q.Volume[i] == nil {
			continue
		}
		bar := model.MinuteBar{
			Time:   time.Unix(ts, 0).UTC(),
			Open:   decimal.NewFromFloat(*o),
			High:   decimal.NewFromFloat(*h),
			Low:    decimal.NewFromFloat(*l),
			Close:  decimal.NewFromFloat(*c),
			Volume: *q.Volume[i],
		}
		if n := len(bars); n > 0 && bars[n-1].Time.Equal(bar.Time) {
			bars[n-1] = bar
			continue
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

// FetchSnapshot builds a quote snapshot from the chart metadata.
func (f *YahooFetcher) FetchSnapshot(ctx context.Context, ticker string) (*model.FinanceSnapshot, error) {
	res, err := f.fetchChart(ctx, ticker, "1d")
	if err != nil {
		return nil, err
	}
	if res.Meta.RegularMarketPrice == nil {
		return nil, nil
	}
	snap := &model.FinanceSnapshot{
		Source:    "yahoo_chart_meta",
		AsOf:      time.Unix(res.Meta.RegularMarketTime, 0).UTC(),
		PriceLast: *res.Meta.RegularMarketPrice,
		Currency:  res.Meta.Currency,
	}
	if res.Meta.ChartPreviousClose != nil {
		snap.Notes = fmt.Sprintf("previous close %.2f", *res.Meta.ChartPreviousClose)
	}
	return snap, nil
}

func at(vals []*float64, i int) *float64 {
	if i >= len(vals) {
		return nil
	}
	return vals[i]
}

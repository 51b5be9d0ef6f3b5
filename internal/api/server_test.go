package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"TickerPacket/internal/collector"
	"TickerPacket/internal/model"
	"TickerPacket/internal/recorder"
	"TickerPacket/internal/resample"
	"TickerPacket/internal/scheduler"
)

type switchFetcher struct {
	bars []model.MinuteBar
	err  error
}

func (f *switchFetcher) Name() string { return "test" }

func (f *switchFetcher) FetchMinuteBars(context.Context, string) ([]model.MinuteBar, error) {
	return f.bars, f.err
}

func newTestServer(t *testing.T) (*Server, *switchFetcher) {
	t.Helper()
	opts, err := resample.DefaultOptions()
	if err != nil {
		t.Fatal(err)
	}
	f := &switchFetcher{bars: collector.GenerateSessionBars(opts.Session.Location, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 14, 100)}
	sched := scheduler.NewScheduler(context.Background(), collector.NewCollector(f, opts), nil, recorder.NewNoopRecorder())
	sched.Watchlist = []string{"AAPL", "MSFT"}
	return NewServer(":0", sched), f
}

func do(s *Server, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestHealthAndWatchlist(t *testing.T) {
	s, _ := newTestServer(t)

	w := do(s, http.MethodGet, "/api/v1/health")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"healthy"`) {
		t.Errorf("health = %d %s", w.Code, w.Body.String())
	}

	w = do(s, http.MethodGet, "/api/v1/watchlist")
	var body struct {
		Tickers []string `json:"tickers"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || len(body.Tickers) != 2 {
		t.Errorf("watchlist = %s", w.Body.String())
	}
}

func TestPacket(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(s, http.MethodGet, "/api/v1/packets/aapl")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d %s", w.Code, w.Body.String())
	}
	if !strings.HasPrefix(w.Body.String(), "<<<TICKER_PACKET_V1>>>\nTICKER: AAPL\n") || !strings.Contains(w.Body.String(), "BARS_COUNT: 49") {
		t.Errorf("body = %.200s", w.Body.String())
	}
}

func TestPacket_Errors(t *testing.T) {
	tests := []struct {
		name string
		set  func(f *switchFetcher)
		want int
	}{
		{"upstream", func(f *switchFetcher) { f.err = errors.New("timeout") }, http.StatusBadGateway},
		{"bad data", func(f *switchFetcher) { f.bars[3].Volume = -5 }, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, f := newTestServer(t)
			tt.set(f)
			if w := do(s, http.MethodGet, "/api/v1/packets/AAPL?refresh=true"); w.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestRun(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(s, http.MethodPost, "/api/v1/runs")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body struct {
		RunID   string      `json:"run_id"`
		Results []runResult `json:"results"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.RunID == "" || len(body.Results) != 2 || body.Results[1].Ticker != "MSFT" || body.Results[1].Bars != 49 {
		t.Errorf("body = %+v", body)
	}
}

type listCache struct{ tickers []string }

func (c *listCache) Put(context.Context, string, string) error { return nil }

func (c *listCache) Get(context.Context, string) (string, bool, error) { return "", false, nil }

func (c *listCache) Recent(context.Context) ([]string, error) { return c.tickers, nil }

func TestRecentPackets(t *testing.T) {
	s, _ := newTestServer(t)
	var body struct {
		Tickers []string `json:"tickers"`
	}

	w := do(s, http.MethodGet, "/api/v1/packets")
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || w.Code != http.StatusOK || len(body.Tickers) != 0 {
		t.Errorf("without cache = %d %s", w.Code, w.Body.String())
	}

	s.sched.Cache = &listCache{tickers: []string{"MSFT", "AAPL"}}
	w = do(s, http.MethodGet, "/api/v1/packets")
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || len(body.Tickers) != 2 || body.Tickers[0] != "MSFT" {
		t.Errorf("with cache = %s", w.Body.String())
	}
}

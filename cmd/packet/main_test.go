package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"TickerPacket/internal/collector"
	"TickerPacket/internal/session"
)

func writeMinuteCSV(t *testing.T, dir, name string, days int) string {
	t.Helper()
	sess, err := session.USRegular()
	if err != nil {
		t.Fatal(err)
	}
	var b strings.Builder
	b.WriteString("ts,o,h,l,c,v\n")
	for _, bar := range collector.GenerateSessionBars(sess.Location, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), days, 50) {
		fmt.Fprintf(&b, "%s,%s,%s,%s,%s,%d\n", bar.Time.Format(time.RFC3339), bar.Open, bar.High, bar.Low, bar.Close, bar.Volume)
	}
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(b.String()), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func isolate(t *testing.T) string {
	t.Helper()
	for _, k := range []string{"WINDOW_DAYS", "SOURCE_KIND", "DATA_DIRS", "EXPORT_DIR", "SQLITE_PATH", "POSTGRES_DSN", "CONFIG_PATH"} {
		t.Setenv(k, "")
	}
	return filepath.Join(t.TempDir(), "none.yaml")
}

func TestRun_OneShot(t *testing.T) {
	cfg := isolate(t)
	dir := t.TempDir()
	src := writeMinuteCSV(t, dir, "data.csv", 14)
	exportDir := filepath.Join(dir, "exports")
	t.Setenv("EXPORT_DIR", exportDir)
	t.Setenv("EXPORT_FORMAT", "json")
	t.Setenv("SQLITE_PATH", filepath.Join(dir, "runs.db"))

	var stdout, stderr bytes.Buffer
	code := run([]string{"-config", cfg, "-ticker", "aapl", "-source-path", src, "-window-days", "3"}, strings.NewReader(""), &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, stderr.String())
	}
	out := stdout.String()
	for _, want := range []string{"TICKER: AAPL", "WINDOW_DAYS: 3", "BARS_COUNT: 21", "<<<END_TICKER_PACKET_V1>>>"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if stderr.Len() != 0 {
		t.Errorf("unexpected prompt: %s", stderr.String())
	}
	entries, err := os.ReadDir(exportDir)
	if err != nil || len(entries) != 1 || !strings.HasSuffix(entries[0].Name(), ".json") {
		t.Errorf("exports = %v, %v", entries, err)
	}
}

func TestRun_PromptsForTickerAndPath(t *testing.T) {
	cfg := isolate(t)
	dir := t.TempDir()
	src := writeMinuteCSV(t, dir, "prices.csv", 3)
	t.Setenv("DATA_DIRS", filepath.Join(dir, "nowhere"))

	var stdout, stderr bytes.Buffer
	code := run([]string{"-config", cfg, "-no-news"}, strings.NewReader("msft\n"+src+"\n"), &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code %d", code)
	}
	if !strings.Contains(stderr.String(), "Enter Ticker") || !strings.Contains(stderr.String(), "Enter path to CSV for MSFT") {
		t.Errorf("prompts = %q", stderr.String())
	}
	if !strings.Contains(stdout.String(), "TICKER: MSFT") || !strings.Contains(stdout.String(), "BARS_COUNT: 21") {
		t.Errorf("output = %s", stdout.String())
	}
}

func TestRun_ExitCodes(t *testing.T) {
	cfg := isolate(t)
	badCfg := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(badCfg, []byte("session:\n  timezone: Nowhere/Else\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	missing := filepath.Join(t.TempDir(), "missing.csv")
	zeroCfg := filepath.Join(t.TempDir(), "zero.yaml")
	if err := os.WriteFile(zeroCfg, []byte("window_days: 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		args  []string
		stdin string
		want  int
	}{
		{"zero window", []string{"-config", cfg, "-ticker", "AAPL", "-window-days", "0"}, "", 2},
		{"zero window in config", []string{"-config", zeroCfg, "-ticker", "AAPL"}, "", 2},
		{"source path with serve", []string{"-config", cfg, "-serve", "-source-path", missing}, "", 2},
		{"unknown flag", []string{"-config", cfg, "-bogus"}, "", 2},
		{"bad timezone", []string{"-config", badCfg, "-ticker", "AAPL"}, "", 2},
		{"missing file", []string{"-config", cfg, "-ticker", "AAPL", "-source-path", missing}, "", 1},
		{"empty ticker", []string{"-config", cfg}, "\n", 1},
		{"help", []string{"-h"}, "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if got := run(tt.args, strings.NewReader(tt.stdin), &stdout, &stderr); got != tt.want {
				t.Errorf("exit code = %d, want %d", got, tt.want)
			}
		})
	}
}

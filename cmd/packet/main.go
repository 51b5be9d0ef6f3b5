package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"TickerPacket/internal/api"
	"TickerPacket/internal/cache"
	"TickerPacket/internal/collector"
	"TickerPacket/internal/config"
	"TickerPacket/internal/notifier"
	"TickerPacket/internal/packet"
	"TickerPacket/internal/recorder"
	"TickerPacket/internal/resample"
	"TickerPacket/internal/saver"
	"TickerPacket/internal/scheduler"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

type options struct {
	configPath string
	ticker     string
	sourcePath string
	windowDays int
	noNews     bool
	noSenate   bool
	noFinance  bool
	serve      bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	o := &options{}
	fs := flag.NewFlagSet("packet", flag.ContinueOnError)
	defaultCfg := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultCfg = v
	}
	fs.StringVar(&o.configPath, "config", defaultCfg, "path to YAML config")
	fs.StringVar(&o.ticker, "ticker", "", "ticker symbol (e.g. AAPL); prompted when empty")
	fs.StringVar(&o.sourcePath, "source-path", "", "CSV file with minute bars (one-shot only; -serve looks up <TICKER>.csv in source.data_dirs)")
	fs.IntVar(&o.windowDays, "window-days", 0, "trading days to include (default from config, 7)")
	fs.BoolVar(&o.noNews, "no-news", false, "disable news section")
	fs.BoolVar(&o.noSenate, "no-senate", false, "disable senate activity section")
	fs.BoolVar(&o.noFinance, "no-finance", false, "disable finance snapshot section")
	fs.BoolVar(&o.serve, "serve", false, "run the scheduled daemon instead of a one-shot packet")
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, err
		}
		return nil, &resample.ConfigError{Field: "flags", Reason: err.Error()}
	}
	windowSet := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "window-days" {
			windowSet = true
		}
	})
	if o.serve && o.sourcePath != "" {
		return nil, &resample.ConfigError{Field: "flags", Reason: "-source-path applies to one-shot runs only; -serve reads <TICKER>.csv from source.data_dirs"}
	}
	if windowSet && o.windowDays <= 0 {
		return nil, &resample.ConfigError{Field: "window_days", Reason: fmt.Sprintf("must be positive, got %d", o.windowDays)}
	}
	return o, nil
}

// run executes the CLI and returns the process exit code: 0 on success,
// 2 for invalid flags or configuration, 1 for any other failure. The packet
// goes to stdout; prompts go to stderr.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if err := execute(args, stdin, stdout, stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		log.Printf("[ERROR] %v", err)
		var ce *resample.ConfigError
		if errors.As(err, &ce) {
			return 2
		}
		return 1
	}
	return 0
}

func execute(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	o, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	cfg, err := config.Load(o.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if o.windowDays > 0 {
		cfg.WindowDays = o.windowDays
	}
	if o.noNews {
		cfg.Sections.News = false
	}
	if o.noSenate {
		cfg.Sections.Senate = false
	}
	if o.noFinance {
		cfg.Sections.Finance = false
	}
	if o.serve {
		err = cfg.ValidateDaemon()
	} else {
		err = cfg.Validate()
	}
	if err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	opts, err := cfg.Pipeline()
	if err != nil {
		return err
	}

	in := bufio.NewReader(stdin)
	fetcher := buildFetcher(cfg, o.sourcePath)
	col := buildCollector(cfg, fetcher, opts)
	log.Printf("[INFO] data source: %s", fetcher.Name())

	rec := openRecorder(cfg)
	defer rec.Close()

	if o.serve {
		return serve(cfg, col, rec)
	}

	ticker := strings.ToUpper(strings.TrimSpace(o.ticker))
	if ticker == "" {
		if ticker, err = prompt(in, stderr, "Enter Ticker (e.g. AMZN): "); err != nil {
			return err
		}
		ticker = strings.ToUpper(ticker)
		if ticker == "" {
			return fmt.Errorf("ticker cannot be empty")
		}
	}
	if src, ok := fetcher.(*collector.CSVFetcher); ok && src.Path == "" {
		if found, err := src.Locate(ticker); err == nil {
			log.Printf("[INFO] found data at: %s", found)
		} else {
			def := ticker + ".csv"
			p, err := prompt(in, stderr, fmt.Sprintf("Enter path to CSV for %s [default: ./%s]: ", ticker, def))
			if err != nil {
				return err
			}
			if p == "" {
				p = def
			}
			src.Path = p
		}
	}

	return oneShot(cfg, col, rec, ticker, stdout)
}

// oneShot builds a single packet and writes it to stdout.
func oneShot(cfg *config.Config, col *collector.Collector, rec recorder.Recorder, ticker string, stdout io.Writer) error {
	started := time.Now()
	run := &recorder.PacketRun{
		RunID:      uuid.NewString(),
		Ticker:     ticker,
		Trigger:    scheduler.TriggerCLI,
		WindowDays: col.Options.WindowDays,
		BarSize:    packet.BarSize(col.Options.BucketWidth),
		StartedAt:  started,
		Status:     recorder.StatusOK,
	}
	defer func() {
		run.Duration = time.Since(started)
		if err := rec.RecordRun(run); err != nil {
			log.Printf("[ERROR] record run: %v", err)
		}
	}()

	p, err := col.Collect(context.Background(), ticker)
	if err != nil {
		run.Status, run.Error = recorder.StatusFailed, err.Error()
		return err
	}
	run.BarCount = len(p.Chart.Bars)
	if err := rec.RecordBars(run.RunID, ticker, p.Chart.Bars); err != nil {
		log.Printf("[ERROR] record bars: %v", err)
	}
	if cfg.Export.Dir != "" {
		path, err := saver.Export(saver.NewBarSaver(cfg.Export.Format), cfg.Export.Dir, p.Chart)
		if err != nil {
			log.Printf("[ERROR] export: %v", err)
		} else {
			run.ExportPath = path
			log.Printf("[INFO] exported %s", path)
		}
	}
	return packet.Write(stdout, p)
}

// serve runs the cron daemon and Telegram polling until SIGINT/SIGTERM.
func serve(cfg *config.Config, col *collector.Collector, rec recorder.Recorder) error {
	log.Println("[INFO] TickerPacket daemon starting...")

	var tn *notifier.TelegramNotifier
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
	} else {
		log.Println("[WARN] telegram not configured, packets will only be exported and recorded")
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.NewScheduler(ctx, col, tn, rec)
	sched.Watchlist = cfg.Schedule.Watchlist
	sched.Workers = cfg.Schedule.Workers
	if cfg.Export.Dir != "" {
		sched.Saver = saver.NewBarSaver(cfg.Export.Format)
		sched.ExportDir = cfg.Export.Dir
	}
	if cfg.Redis.Addr != "" {
		pc, err := cache.Dial(ctx, cfg.Redis.Addr, cfg.Redis.DB, time.Duration(cfg.Redis.TTLMinutes)*time.Minute)
		if err != nil {
			log.Printf("[WARN] packet cache disabled: %v", err)
		} else {
			defer pc.Close()
			sched.Cache = pc
			log.Printf("[INFO] packet cache: redis %s", cfg.Redis.Addr)
		}
	}
	if err := sched.Register(cfg.Schedule.Cron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	}

	var srv *api.Server
	if cfg.HTTP.Addr != "" {
		srv = api.NewServer(cfg.HTTP.Addr, sched)
		srv.Start()
	}

	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, building packets now")
		go sched.RunScheduled()
	}

	log.Printf("[INFO] TickerPacket is running (%s, %d tickers). Press Ctrl+C to stop.", cfg.Schedule.Cron, len(sched.Watchlist))

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	if srv != nil {
		shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] http shutdown: %v", err)
		}
		done()
	}
	cancel()
	log.Println("[INFO] TickerPacket stopped")
	return nil
}

func buildFetcher(cfg *config.Config, sourcePath string) collector.Fetcher {
	switch strings.ToLower(cfg.Source.Kind) {
	case "yahoo":
		return collector.NewYahooFetcher(cfg.Proxy)
	case "rest":
		return collector.NewRESTFetcher(cfg.Source.BaseURL, cfg.Source.APIKey, cfg.Proxy)
	default:
		return collector.NewCSVFetcher(sourcePath, cfg.Source.DataDirs)
	}
}

func buildCollector(cfg *config.Config, fetcher collector.Fetcher, opts resample.Options) *collector.Collector {
	col := collector.NewCollector(fetcher, opts)
	if cfg.Sections.News {
		col.News = collector.NullNewsCollector{}
	}
	if cfg.Sections.Senate {
		col.Senate = collector.NullSenateCollector{}
	}
	if cfg.Sections.Finance {
		if y, ok := fetcher.(*collector.YahooFetcher); ok {
			col.Snapshot = collector.YahooSnapshotCollector{Yahoo: y}
		} else {
			col.Snapshot = collector.NullSnapshotCollector{}
		}
	}
	return col
}

func openRecorder(cfg *config.Config) recorder.Recorder {
	if cfg.Database.PostgresDSN != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		pr, err := recorder.NewPostgresRecorder(ctx, cfg.Database.PostgresDSN)
		if err == nil {
			return pr
		}
		log.Printf("[WARN] init postgres recorder failed: %v", err)
	}
	if cfg.Database.SQLitePath == "" {
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
	if err != nil {
		log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
		return recorder.NewNoopRecorder()
	}
	return sr
}

func prompt(in *bufio.Reader, out io.Writer, question string) (string, error) {
	fmt.Fprint(out, question)
	line, err := in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

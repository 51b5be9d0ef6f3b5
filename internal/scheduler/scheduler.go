package scheduler

import (
	"context"
	"fmt"
	"html"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"TickerPacket/internal/collector"
	"TickerPacket/internal/notifier"
	"TickerPacket/internal/packet"
	"TickerPacket/internal/recorder"
	"TickerPacket/internal/saver"
)

// Triggers recorded with each packet run.
const (
	TriggerCron    = "CRON"
	TriggerCommand = "COMMAND"
	TriggerHTTP    = "HTTP"
	TriggerCLI     = "CLI"
)

const sendRetries = 3

// PacketStore caches rendered packets between runs.
type PacketStore interface {
	Put(ctx context.Context, ticker, text string) error
	Get(ctx context.Context, ticker string) (string, bool, error)
}

// Scheduler builds packets for the watchlist on a cron schedule and on
// demand from Telegram commands.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Notifier  *notifier.TelegramNotifier // nil disables delivery
	Recorder  recorder.Recorder
	Saver     saver.BarSaver // nil disables export
	Cache     PacketStore    // nil disables caching
	ExportDir string
	Watchlist []string
	Workers   int
	Ctx       context.Context
}

// NewScheduler creates a new Scheduler whose cron specs are evaluated in
// the session's time zone.
func NewScheduler(ctx context.Context, col *collector.Collector, tn *notifier.TelegramNotifier, rec recorder.Recorder) *Scheduler {
	loc := col.Options.Session.Location
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		Collector: col,
		Notifier:  tn,
		Recorder:  rec,
		Workers:   1,
		Ctx:       ctx,
	}
}

// Register adds the watchlist run under spec.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.RunScheduled); err != nil {
		return fmt.Errorf("register packet task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunScheduled runs the watchlist as a cron run and sends the run summary.
func (s *Scheduler) RunScheduled() {
	runID, results := s.RunOnce(TriggerCron)
	if s.Notifier != nil {
		s.trySend(notifier.FormatRunSummary(runID, results))
	}
}

// RunOnce builds, exports, records and delivers a packet for every ticker
// of the watchlist, at most Workers at a time. A failing ticker does not
// stop the others. Results keep watchlist order.
func (s *Scheduler) RunOnce(trigger string) (string, []notifier.RunResult) {
	runID := uuid.NewString()
	log.Printf("[INFO] run %s: %d tickers", runID, len(s.Watchlist))

	results := make([]notifier.RunResult, len(s.Watchlist))
	var g errgroup.Group
	g.SetLimit(max(s.Workers, 1))
	for i, ticker := range s.Watchlist {
		g.Go(func() error {
			results[i], _ = s.process(s.Ctx, runID, ticker, trigger, true)
			return nil
		})
	}
	_ = g.Wait()
	return runID, results
}

// process builds, exports, caches and records one ticker's packet, and
// sends it over Telegram when deliver is set. It returns the rendered text.
func (s *Scheduler) process(ctx context.Context, runID, ticker, trigger string, deliver bool) (notifier.RunResult, string) {
	started := time.Now()
	res := notifier.RunResult{Ticker: strings.ToUpper(strings.TrimSpace(ticker))}
	run := &recorder.PacketRun{
		RunID:      runID,
		Ticker:     res.Ticker,
		Trigger:    trigger,
		WindowDays: s.Collector.Options.WindowDays,
		BarSize:    packet.BarSize(s.Collector.Options.BucketWidth),
		StartedAt:  started,
	}

	var text string
	p, err := s.Collector.Collect(ctx, ticker)
	if err == nil {
		res.Bars = len(p.Chart.Bars)
		run.BarCount = res.Bars
		if s.Saver != nil {
			if path, err := saver.Export(s.Saver, s.ExportDir, p.Chart); err != nil {
				log.Printf("[ERROR] export %s: %v", res.Ticker, err)
			} else {
				run.ExportPath = path
			}
		}
		if err := s.Recorder.RecordBars(runID, res.Ticker, p.Chart.Bars); err != nil {
			log.Printf("[ERROR] record bars %s: %v", res.Ticker, err)
		}
		text = packet.String(p)
		if s.Cache != nil {
			if err := s.Cache.Put(ctx, res.Ticker, text); err != nil {
				log.Printf("[WARN] %v", err)
			}
		}
		if deliver && s.Notifier != nil {
			err = s.Notifier.SendPacket(ctx, res.Ticker, text, sendRetries)
		}
	}

	res.Err = err
	res.Duration = time.Since(started)
	run.Duration = res.Duration
	run.Status = recorder.StatusOK
	if err != nil {
		run.Status = recorder.StatusFailed
		run.Error = err.Error()
		log.Printf("[ERROR] %s packet: %v", res.Ticker, err)
	}
	if err := s.Recorder.RecordRun(run); err != nil {
		log.Printf("[ERROR] record run %s: %v", res.Ticker, err)
	}
	return res, text
}

// Packet returns the rendered packet for ticker without delivering it. The
// cache is tried first unless refresh is set.
func (s *Scheduler) Packet(ctx context.Context, ticker string, refresh bool) (string, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if !refresh && s.Cache != nil {
		text, ok, err := s.Cache.Get(ctx, ticker)
		if err != nil {
			log.Printf("[WARN] %v", err)
		} else if ok {
			return text, nil
		}
	}
	res, text := s.process(ctx, uuid.NewString(), ticker, TriggerHTTP, false)
	return text, res.Err
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp()
	}
	// Commands may arrive as /packet@BotName in groups.
	name, _, _ := strings.Cut(fields[0], "@")
	switch name {
	case "/packet", "/refresh":
		if len(fields) < 2 {
			return "Usage: " + name + " TICKER"
		}
		if name == "/packet" && s.sendCached(fields[1]) {
			return ""
		}
		res, _ := s.process(s.Ctx, uuid.NewString(), fields[1], TriggerCommand, true)
		if res.Err != nil {
			return fmt.Sprintf("❌ %s: %s", html.EscapeString(res.Ticker), html.EscapeString(res.Err.Error()))
		}
		return ""
	case "/watchlist":
		if len(s.Watchlist) == 0 {
			return "Watchlist is empty"
		}
		return "Watchlist: " + strings.Join(s.Watchlist, ", ")
	default:
		return notifier.FormatHelp()
	}
}

// sendCached delivers the cached packet for ticker, if there is one.
func (s *Scheduler) sendCached(ticker string) bool {
	if s.Cache == nil || s.Notifier == nil {
		return false
	}
	ticker = strings.ToUpper(ticker)
	text, ok, err := s.Cache.Get(s.Ctx, ticker)
	if err != nil {
		log.Printf("[WARN] %v", err)
		return false
	}
	if !ok {
		return false
	}
	if err := s.Notifier.SendPacket(s.Ctx, ticker, text, sendRetries); err != nil {
		log.Printf("[ERROR] send cached %s: %v", ticker, err)
		return false
	}
	return true
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, sendRetries); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}

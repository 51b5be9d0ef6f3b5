package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"
)

// MaxMessageLen is Telegram's message length limit.
const MaxMessageLen = 4096

// RunResult summarises one ticker of a scheduled run.
type RunResult struct {
	Ticker   string
	Bars     int
	Err      error
	Duration time.Duration
}

// FormatPacketMessages splits a packet into HTML messages that each stay
// under MaxMessageLen. Lines are kept whole unless a single line is too long.
func FormatPacketMessages(ticker, text string) []string {
	const open, closeTag = "<pre>", "</pre>"
	headerFor := func(part, total int) string {
		return fmt.Sprintf("📦 <b>%s</b> (%d/%d)\n", html.EscapeString(ticker), part, total)
	}
	// Header length is bounded; reserve room for two-digit part counters.
	budget := MaxMessageLen - len(headerFor(99, 99)) - len(open) - len(closeTag)

	var bodies []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			bodies = append(bodies, cur.String())
			cur.Reset()
		}
	}
	add := func(esc string) {
		if cur.Len()+len(esc)+1 > budget {
			flush()
		}
		cur.WriteString(esc)
		cur.WriteByte('\n')
	}

	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		esc := html.EscapeString(line)
		if len(esc) < budget {
			add(esc)
			continue
		}
		for _, piece := range splitEscaped(line, budget-1) {
			add(piece)
		}
	}
	flush()

	out := make([]string, len(bodies))
	for i, b := range bodies {
		out[i] = headerFor(i+1, len(bodies)) + open + strings.TrimRight(b, "\n") + closeTag
	}
	return out
}

// splitEscaped cuts line into escaped pieces of at most limit bytes without
// breaking runes or entities.
func splitEscaped(line string, limit int) []string {
	var pieces []string
	var cur strings.Builder
	for _, r := range line {
		esc := html.EscapeString(string(r))
		if cur.Len()+len(esc) > limit {
			pieces = append(pieces, cur.String())
			cur.Reset()
		}
		cur.WriteString(esc)
	}
	if cur.Len() > 0 {
		pieces = append(pieces, cur.String())
	}
	return pieces
}

// FormatRunSummary formats the outcome of a scheduled watchlist run.
func FormatRunSummary(runID string, results []RunResult) string {
	var b strings.Builder
	ok := 0
	for _, r := range results {
		if r.Err == nil {
			ok++
		}
	}
	b.WriteString(fmt.Sprintf("🗂 <b>TickerPacket run</b> | %s\n", time.Now().Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("run: <code>%s</code>\n", html.EscapeString(runID)))
	b.WriteString(fmt.Sprintf("ok: %d/%d\n\n", ok, len(results)))
	for _, r := range results {
		if r.Err != nil {
			b.WriteString(fmt.Sprintf("❌ %s: %s\n", html.EscapeString(r.Ticker), html.EscapeString(r.Err.Error())))
			continue
		}
		b.WriteString(fmt.Sprintf("✅ %s: %d bars (%s)\n", html.EscapeString(r.Ticker), r.Bars, r.Duration.Round(time.Millisecond)))
	}
	return b.String()
}

// FormatHelp lists the supported bot commands.
func FormatHelp() string {
	return "Available commands:\n• /packet TICKER (cached if available)\n• /refresh TICKER\n• /watchlist\n• /help"
}

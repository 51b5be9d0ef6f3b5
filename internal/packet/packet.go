// Package packet renders the plain-text ticker packet consumed by
// downstream summarisation models. Sections are delimited by <<<NAME>>>
// and <<<END_NAME>>> marker lines.
package packet

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"TickerPacket/internal/model"
	"TickerPacket/internal/session"
)

// PricePrecision is the number of decimals rendered for prices.
const PricePrecision = 6

// Packet is everything one ticker packet renders.
type Packet struct {
	Chart    *model.PriceChart
	Session  session.Session
	Stats    model.WindowStats
	News     []model.NewsItem
	Senate   []model.SenateEvent
	Snapshot *model.FinanceSnapshot
}

// FormatBarRow renders one aggregated bar as ts_local,o,h,l,c,v.
func FormatBarRow(b model.HourBar) string {
	return fmt.Sprintf("%s,%s,%s,%s,%s,%d",
		b.Start.Format(time.RFC3339),
		b.Open.StringFixed(PricePrecision),
		b.High.StringFixed(PricePrecision),
		b.Low.StringFixed(PricePrecision),
		b.Close.StringFixed(PricePrecision),
		b.Volume)
}

// BarSize renders a bucket width compactly: 1h, 30m, 90m, 2h.
func BarSize(d time.Duration) string {
	if d >= time.Hour && d%time.Hour == 0 {
		return fmt.Sprintf("%dh", d/time.Hour)
	}
	if d%time.Minute == 0 {
		return fmt.Sprintf("%dm", d/time.Minute)
	}
	return d.String()
}

// Write renders p to w.
func Write(w io.Writer, p *Packet) error {
	bw := bufio.NewWriter(w)
	c := p.Chart

	line := func(format string, args ...any) {
		fmt.Fprintf(bw, format+"\n", args...)
	}

	line("<<<TICKER_PACKET_V1>>>")
	line("TICKER: %s", c.Ticker)
	line("TZ: %s", p.Session.Location)
	line("SESSION: REGULAR (%s)", p.Session.Label())
	line("WINDOW_DAYS: %d", c.WindowDays)
	line("BAR_SIZE: %s", BarSize(c.BucketWidth))
	line("BARS_COUNT: %d", len(c.Bars))
	line("")

	st := p.Stats
	line("<<<WINDOW_STATS>>>")
	if st.Bars > 0 {
		line("trading_days: %d", st.TradingDays)
		line("high: %s", st.High.StringFixed(PricePrecision))
		line("low: %s", st.Low.StringFixed(PricePrecision))
		line("last_close: %s", st.LastClose.StringFixed(PricePrecision))
		line("range_position: %.3f", st.Position)
		line("sma7_1h: %.6f", st.SMA7)
		line("rsi14_1h: %.2f", st.RSI14)
		line("volume: %d", st.Volume)
	}
	line("<<<END_WINDOW_STATS>>>")
	line("")

	line("<<<PRICE_BARS_1H_CSV>>>")
	line("# ts_local,o,h,l,c,v")
	for _, b := range c.Bars {
		line("%s", FormatBarRow(b))
	}
	line("<<<END_PRICE_BARS_1H_CSV>>>")
	line("")

	line("<<<NEWS_TOP10_1W>>>")
	line("# Each line: datetime | source | headline | url")
	for _, n := range p.News {
		line("%s | %s | %s | %s", n.Time.Format(time.RFC3339), clean(n.Source), clean(n.Headline), n.URL)
	}
	line("<<<END_NEWS_TOP10_1W>>>")
	line("")

	line("<<<SENATE_ACTIVITY>>>")
	line("# Each line: date | chamber | member_name | activity_type | notes")
	for _, e := range p.Senate {
		line("%s | %s | %s | %s | %s", e.Date, e.Chamber, clean(e.MemberName), e.ActivityType, clean(e.Notes))
	}
	line("<<<END_SENATE_ACTIVITY>>>")
	line("")

	line("<<<FINANCE_SNAPSHOT>>>")
	if s := p.Snapshot; s != nil {
		line("source: %s", s.Source)
		line("asof_utc: %s", s.AsOf.UTC().Format(time.RFC3339))
		line("price_last: %g", s.PriceLast)
		line("currency: %s", s.Currency)
		line("market_cap_approx: %s", optFloat(s.MarketCapApprox))
		line("pe_ratio_approx: %s", optFloat(s.PERatioApprox))
		line("notes: %q", s.Notes)
	}
	line("<<<END_FINANCE_SNAPSHOT>>>")
	line("")

	line("<<<NOTES>>>")
	line("- This packet is plain text designed for small LLMs and downstream ML models.")
	line("- Parsing is simplified by strong delimiters (<<<...>>>).")
	line("- Bars are for regular trading sessions only; final bar per day may be shorter.")
	line("- Data quality / licensing for intraday prices and news is handled separately upstream.")
	line("<<<END_NOTES>>>")
	line("<<<END_TICKER_PACKET_V1>>>")

	return bw.Flush()
}

// String renders p into a string.
func String(p *Packet) string {
	var b strings.Builder
	_ = Write(&b, p)
	return b.String()
}

// clean keeps free text on one line and away from the field separator.
func clean(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.ReplaceAll(s, "|", "/")
}

func optFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%g", *v)
}

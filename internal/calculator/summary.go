package calculator

import (
	"log"

	"TickerPacket/internal/model"
	"TickerPacket/internal/session"
)

// Summarize computes the packet header statistics for an aggregated window.
// An empty window yields zero stats with a neutral RSI.
func Summarize(bars []model.HourBar) model.WindowStats {
	st := model.WindowStats{Bars: len(bars), RSI14: 50}
	if len(bars) == 0 {
		return st
	}

	days := make(map[session.Date]struct{})
	for _, b := range bars {
		days[session.DateOf(b.Start)] = struct{}{}
		st.Volume += b.Volume
	}
	st.TradingDays = len(days)

	st.High, st.Low, _ = WindowRange(bars)
	st.LastClose = bars[len(bars)-1].Close

	if pos, err := RangePosition(st.LastClose, st.High, st.Low); err != nil {
		log.Printf("[WARN] range position failed: %v", err)
		st.Position = 0.5
	} else {
		st.Position = pos
	}

	if sma, err := CalculateSMA(extractCloses(bars), 7); err == nil {
		st.SMA7 = sma
	} else {
		st.SMA7, _ = st.LastClose.Float64()
	}

	if rsi, err := CalculateRSI(bars, 14); err == nil {
		st.RSI14 = rsi
	}
	return st
}

package resample

import (
	"time"

	"TickerPacket/internal/model"
	"TickerPacket/internal/session"
)

const (
	DefaultWindowDays  = 7
	DefaultBucketWidth = 60 * time.Minute
)

// Options is the configuration surface of the pipeline.
type Options struct {
	Session     session.Session
	BucketWidth time.Duration
	WindowDays  int
}

// DefaultOptions returns the regular US session, one-hour buckets and a
// seven trading day window.
func DefaultOptions() (Options, error) {
	sess, err := session.USRegular()
	if err != nil {
		return Options{}, err
	}
	return Options{Session: sess, BucketWidth: DefaultBucketWidth, WindowDays: DefaultWindowDays}, nil
}

// Validate reports the first unusable setting as a *ConfigError.
func (o Options) Validate() error {
	if err := checkWindow(o.WindowDays); err != nil {
		return err
	}
	if err := checkWidth(o.BucketWidth); err != nil {
		return err
	}
	if err := o.Session.Validate(); err != nil {
		return &ConfigError{Field: "session", Reason: err.Error()}
	}
	return nil
}

// Run validates the minute bars, resamples the in-session ones and trims
// the result to the most recent o.WindowDays trading dates. It returns
// either the complete series or an error, never a partial series.
func Run(o Options, bars []model.MinuteBar) ([]model.HourBar, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	valid, err := Validate(bars)
	if err != nil {
		return nil, err
	}
	agg, err := Resample(o.Session, o.BucketWidth, valid)
	if err != nil {
		return nil, err
	}
	return SelectWindow(agg, o.WindowDays, HourBarDate)
}

// Chart runs the pipeline and wraps the result for ticker.
func Chart(o Options, ticker string, bars []model.MinuteBar) (*model.PriceChart, error) {
	out, err := Run(o, bars)
	if err != nil {
		return nil, err
	}
	return &model.PriceChart{
		Ticker:      ticker,
		WindowDays:  o.WindowDays,
		BucketWidth: o.BucketWidth,
		Bars:        out,
	}, nil
}

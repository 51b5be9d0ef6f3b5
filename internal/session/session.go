package session

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

// Clock is a local wall-clock time of day with minute resolution.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses "HH:MM" (24h).
func ParseClock(s string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return Clock{}, fmt.Errorf("invalid clock %q: want HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 24 {
		return Clock{}, fmt.Errorf("invalid clock %q: bad hour", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 || (h == 24 && m != 0) {
		return Clock{}, fmt.Errorf("invalid clock %q: bad minute", s)
	}
	return Clock{Hour: h, Minute: m}, nil
}

// Minutes returns minutes since local midnight.
func (c Clock) Minutes() int { return c.Hour*60 + c.Minute }

func (c Clock) String() string { return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute) }

// Date is a local calendar date under the exchange timezone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Before reports whether d is strictly earlier than o.
func (d Date) Before(o Date) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

func (d Date) String() string { return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day) }

// Session defines a regular trading session: exchange timezone, local open
// and close, and the weekdays on which the session runs. It carries no
// mutable state and is safe to share.
type Session struct {
	Location *time.Location
	Open     Clock
	Close    Clock
	Weekdays []time.Weekday
}

// USRegular returns the regular US equity session, 09:30-16:00
// America/New_York, Monday to Friday.
func USRegular() (Session, error) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return Session{}, fmt.Errorf("load America/New_York: %w", err)
	}
	return Session{
		Location: loc,
		Open:     Clock{Hour: 9, Minute: 30},
		Close:    Clock{Hour: 16, Minute: 0},
		Weekdays: []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
	}, nil
}

// Validate checks that the session is usable for classification.
func (s Session) Validate() error {
	if s.Location == nil {
		return fmt.Errorf("session timezone is required")
	}
	if s.Close.Minutes() <= s.Open.Minutes() {
		return fmt.Errorf("session close %s must be after open %s", s.Close, s.Open)
	}
	if len(s.Weekdays) == 0 {
		return fmt.Errorf("session needs at least one weekday")
	}
	return nil
}

// Length is the nominal wall-clock length of one session.
func (s Session) Length() time.Duration {
	return time.Duration(s.Close.Minutes()-s.Open.Minutes()) * time.Minute
}

// Label renders the session as e.g. "09:30-16:00".
func (s Session) Label() string { return s.Open.String() + "-" + s.Close.String() }

// OpenAt returns the local session open instant on date d.
func (s Session) OpenAt(d Date) time.Time { return s.wallTime(d, s.Open.Minutes()) }

// CloseAt returns the local session close instant on date d.
func (s Session) CloseAt(d Date) time.Time { return s.wallTime(d, s.Close.Minutes()) }

// wallTime builds a local instant from a minute-of-day. time.Date resolves
// the offset for that date, so DST days anchor at the intended wall time.
func (s Session) wallTime(d Date, minuteOfDay int) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, minuteOfDay, 0, 0, s.Location)
}

// OpenPlus returns the local instant whose wall clock reads open+offset on
// date d. Offsets are whole seconds.
func (s Session) OpenPlus(d Date, offset time.Duration) time.Time {
	sec := s.Open.Minutes()*60 + int(offset/time.Second)
	return time.Date(d.Year, d.Month, d.Day, 0, 0, sec, 0, s.Location)
}

// SinceOpen is the wall-clock distance from the session open to in.Local.
// Negative before the open.
func (s Session) SinceOpen(in Instant) time.Duration {
	return time.Duration(secondOfDay(in.Local)-s.Open.Minutes()*60) * time.Second
}

func (s Session) tradesOn(wd time.Weekday) bool {
	for _, w := range s.Weekdays {
		if w == wd {
			return true
		}
	}
	return false
}

// Instant is the session classification of one point in time.
type Instant struct {
	Local     time.Time
	Date      Date
	InSession bool
}

// Classify converts t to exchange-local time and reports whether it falls
// inside the regular session: a valid weekday and a time of day within
// [open, close).
func (s Session) Classify(t time.Time) Instant {
	local := t.In(s.Location)
	in := Instant{Local: local, Date: DateOf(local)}
	if !s.tradesOn(local.Weekday()) {
		return in
	}
	tod := secondOfDay(local)
	in.InSession = tod >= s.Open.Minutes()*60 && tod < s.Close.Minutes()*60
	return in
}

func secondOfDay(t time.Time) int {
	h, m, sec := t.Clock()
	return h*3600 + m*60 + sec
}

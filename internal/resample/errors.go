package resample

import (
	"fmt"
	"time"
)

// ParseError reports a source row that could not be decoded into a bar.
// Row is 1-based and counts data rows only (the header is not row 1).
type ParseError struct {
	Row   int
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("parse row %d: %v", e.Row, e.Err)
	}
	return fmt.Sprintf("parse row %d field %s (%q): %v", e.Row, e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError reports a decoded bar that breaks a structural invariant.
// Index is the 0-based position in the input sequence.
type ValidationError struct {
	Index  int
	Time   time.Time
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid bar %d at %s: %s", e.Index, e.Time.UTC().Format(time.RFC3339), e.Reason)
}

// ConfigError reports an unusable pipeline setting. It is returned before
// any bar is looked at.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Reason)
}

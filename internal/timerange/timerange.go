// File: internal/timerange/timerange.go
// Brief: Internal timerange package implementation for 'time expressions'.

// Package timerange parses the relative durations and absolute timestamps
// accepted by --since, --start and --end into epoch-millisecond windows.
package timerange

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultWindow is used when no time bound was given at all.
const DefaultWindow = time.Hour

// msThreshold separates epoch seconds from epoch milliseconds.
const msThreshold = 1_000_000_000_000

var (
	// ErrMalformedDuration is wrapped by every *MalformedDurationError.
	ErrMalformedDuration = errors.New("malformed duration")
	// ErrMalformedTimestamp is wrapped by every *MalformedTimestampError.
	ErrMalformedTimestamp = errors.New("malformed timestamp")

	durationPattern = regexp.MustCompile(`^(\d+)([smhd])$`)

	timestampLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02 15:04:05.999999999",
		"2006-01-02T15:04:05.999999999",
		"2006-01-02 15:04:05.999999999Z",
	}
)

// MalformedDurationError reports an unparsable relative duration.
type MalformedDurationError struct {
	Input string
}

func (e *MalformedDurationError) Error() string {
	return fmt.Sprintf("invalid duration %q: use formats like 1h, 30m, 2d", e.Input)
}

func (e *MalformedDurationError) Unwrap() error {
	return ErrMalformedDuration
}

// MalformedTimestampError reports an unparsable absolute timestamp.
type MalformedTimestampError struct {
	Input string
	// Bound names the flag the value came from, e.g. "start".
	Bound string
}

func (e *MalformedTimestampError) Error() string {
	if e.Bound != "" {
		return fmt.Sprintf("invalid %s time %q: use a Unix timestamp or YYYY-MM-DD HH:MM:SS", e.Bound, e.Input)
	}
	return fmt.Sprintf("invalid timestamp %q: use a Unix timestamp or YYYY-MM-DD HH:MM:SS", e.Input)
}

func (e *MalformedTimestampError) Unwrap() error {
	return ErrMalformedTimestamp
}

// ParseDuration parses a relative duration of the form <digits><s|m|h|d>.
func ParseDuration(s string) (time.Duration, error) {
	m := durationPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, &MalformedDurationError{Input: s}
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, &MalformedDurationError{Input: s}
	}
	var unit time.Duration
	switch m[2] {
	case "s":
		unit = time.Second
	case "m":
		unit = time.Minute
	case "h":
		unit = time.Hour
	case "d":
		unit = 24 * time.Hour
	}
	if n > int64(1<<63-1)/int64(unit) {
		return 0, &MalformedDurationError{Input: s}
	}
	return time.Duration(n) * unit, nil
}

// ParseTimestamp parses an absolute time into epoch milliseconds. Integers
// above 1e12 are taken as milliseconds and smaller ones as seconds. Datetime
// strings without a zone are UTC.
func ParseTimestamp(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n > msThreshold {
			return n, nil
		}
		return n * 1000, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UnixMilli(), nil
		}
	}
	return 0, &MalformedTimestampError{Input: s}
}

// Range is a resolved query window in epoch milliseconds.
type Range struct {
	Start *int64
	End   *int64
}

// Resolve turns the --since/--start/--end inputs into a window. since wins
// over start and end; with no input at all the last DefaultWindow is used.
func Resolve(since, start, end string, now time.Time) (Range, error) {
	nowMs := now.UnixMilli()
	if since != "" {
		d, err := ParseDuration(since)
		if err != nil {
			return Range{}, err
		}
		return Range{Start: ptr(nowMs - d.Milliseconds()), End: ptr(nowMs)}, nil
	}
	var r Range
	if start != "" {
		ms, err := ParseTimestamp(start)
		if err != nil {
			return Range{}, withBound(err, "start")
		}
		r.Start = ptr(ms)
	}
	if end != "" {
		ms, err := ParseTimestamp(end)
		if err != nil {
			return Range{}, withBound(err, "end")
		}
		r.End = ptr(ms)
	}
	if r.Start == nil && r.End == nil {
		return Range{Start: ptr(nowMs - DefaultWindow.Milliseconds()), End: ptr(nowMs)}, nil
	}
	if r.Start != nil && r.End != nil && *r.End < *r.Start {
		return Range{}, fmt.Errorf("end time %s is before start time %s", end, start)
	}
	return r, nil
}

// Last returns the window [now-d, open end), as used by a one-shot tail.
func Last(d time.Duration, now time.Time) Range {
	return Range{Start: ptr(now.Add(-d).UnixMilli())}
}

func withBound(err error, bound string) error {
	var mte *MalformedTimestampError
	if errors.As(err, &mte) {
		mte.Bound = bound
	}
	return err
}

func ptr(v int64) *int64 {
	return &v
}

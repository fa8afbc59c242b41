// File: internal/render/line.go
// Brief: Internal render package implementation for 'event lines'.

package render

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/cwl/internal/jsonfmt"
	"github.com/example/cwl/internal/logstore"
	"github.com/fatih/color"
)

// TimestampLayout renders event times, always in UTC.
const TimestampLayout = "2006-01-02 15:04:05.000"

// UnknownTime stands in for events without a timestamp.
const UnknownTime = "Unknown time"

var (
	timestampColor = color.New(color.FgHiBlue)
	streamColor    = color.New(color.FgCyan)
	groupColor     = color.New(color.FgHiMagenta)
	highlightColor = color.New(color.BgYellow, color.FgBlack)

	levelPatterns = []struct {
		re    *regexp.Regexp
		color *color.Color
	}{
		{regexp.MustCompile(`(?i)\b(error|err|fatal|panic)\b`), color.New(color.FgHiRed)},
		{regexp.MustCompile(`(?i)\b(warn|warning)\b`), color.New(color.FgHiYellow)},
		{regexp.MustCompile(`(?i)\b(info|information)\b`), color.New(color.FgHiGreen)},
		{regexp.MustCompile(`(?i)\b(debug|trace)\b`), color.New(color.Faint)},
	}
)

// LineOptions controls LineWriter output.
type LineOptions struct {
	// Highlight marks literal occurrences of this text.
	Highlight string
	// LevelColors colors severity words such as ERROR or warn.
	LevelColors bool
	// Field prints only this dotted JSON field when the message carries it.
	Field string
	// JSON emits one JSON object per event instead of text.
	JSON bool
	// ShowGroup prefixes each line with the event's log group.
	ShowGroup bool
}

// LineWriter renders one line per event. It is safe for concurrent use, so
// several tailers can share one writer without interleaving lines.
type LineWriter struct {
	mu        sync.Mutex
	out       io.Writer
	opts      LineOptions
	highlight *regexp.Regexp
	written   int
}

// NewLineWriter returns a LineWriter writing to w.
func NewLineWriter(w io.Writer, opts LineOptions) *LineWriter {
	lw := &LineWriter{out: w, opts: opts}
	if opts.Highlight != "" {
		lw.highlight = regexp.MustCompile(regexp.QuoteMeta(opts.Highlight))
	}
	return lw
}

// Write renders ev. Events without a message are skipped.
func (lw *LineWriter) Write(ev logstore.LogEvent) error {
	return lw.WriteFrom("", ev)
}

// WriteFrom renders ev read from group.
func (lw *LineWriter) WriteFrom(group string, ev logstore.LogEvent) error {
	if !ev.HasMessage() {
		return nil
	}
	var line string
	if lw.opts.JSON {
		data, err := json.Marshal(newEventRecord(group, ev))
		if err != nil {
			return fmt.Errorf("encode event: %w", err)
		}
		line = string(data)
	} else {
		line = lw.formatText(group, ev)
	}
	lw.mu.Lock()
	defer lw.mu.Unlock()
	if _, err := fmt.Fprintln(lw.out, line); err != nil {
		return err
	}
	lw.written++
	return nil
}

// Count reports how many lines were written.
func (lw *LineWriter) Count() int {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.written
}

func (lw *LineWriter) formatText(group string, ev logstore.LogEvent) string {
	var b strings.Builder
	b.WriteString("[")
	b.WriteString(timestampColor.Sprint(FormatTimestamp(ev.Timestamp)))
	b.WriteString("]")
	if lw.opts.ShowGroup && group != "" {
		b.WriteString(" [")
		b.WriteString(groupColor.Sprint(group))
		b.WriteString("]")
	}
	if ev.StreamID != "" {
		b.WriteString(" [")
		b.WriteString(streamColor.Sprint(ev.StreamID))
		b.WriteString("]")
	}
	msg := ev.Text()
	if lw.opts.Field != "" {
		if value, ok := ExtractField(msg, lw.opts.Field); ok {
			msg = value
		}
	}
	b.WriteString(" ")
	b.WriteString(decorate(msg, lw.highlight, lw.opts.LevelColors))
	return b.String()
}

// FormatTimestamp renders an epoch-millisecond timestamp in UTC, or
// UnknownTime when ts is nil.
func FormatTimestamp(ts *int64) string {
	if ts == nil {
		return UnknownTime
	}
	return time.UnixMilli(*ts).UTC().Format(TimestampLayout)
}

// TableLine builds the "[timestamp] [stream] body" line consumed by
// jsonfmt.Analyzer. JSON messages are re-encoded compactly; the stream
// bracket is always present so a JSON array body is never read as a stream.
func TableLine(ev logstore.LogEvent) string {
	body := ev.Text()
	if v, err := jsonfmt.Decode(body); err == nil {
		if data, err := json.Marshal(v); err == nil {
			body = string(data)
		}
	}
	return fmt.Sprintf("[%s] [%s] %s", FormatTimestamp(ev.Timestamp), ev.StreamID, body)
}

// Highlight wraps every match of re in text with black-on-yellow.
func Highlight(text string, re *regexp.Regexp) string {
	return decorate(text, re, false)
}

// ColorizeLevels colors severity words: errors red, warnings yellow, info
// green, debug and trace faint.
func ColorizeLevels(text string) string {
	return decorate(text, nil, true)
}

type span struct {
	start, end int
	color      *color.Color
}

// decorate colors highlight matches and, when levels is set, severity words
// in a single pass over the uncolored text, so no pattern ever matches
// inside an escape sequence. Highlights win over overlapping level words.
func decorate(text string, highlight *regexp.Regexp, levels bool) string {
	var spans []span
	claim := func(re *regexp.Regexp, c *color.Color) {
		for _, m := range re.FindAllStringIndex(text, -1) {
			if m[0] == m[1] || overlaps(spans, m[0], m[1]) {
				continue
			}
			spans = append(spans, span{start: m[0], end: m[1], color: c})
		}
	}
	if highlight != nil {
		claim(highlight, highlightColor)
	}
	if levels {
		for _, lp := range levelPatterns {
			claim(lp.re, lp.color)
		}
	}
	if len(spans) == 0 {
		return text
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	var b strings.Builder
	last := 0
	for _, sp := range spans {
		b.WriteString(text[last:sp.start])
		b.WriteString(sp.color.Sprint(text[sp.start:sp.end]))
		last = sp.end
	}
	b.WriteString(text[last:])
	return b.String()
}

func overlaps(spans []span, start, end int) bool {
	for _, sp := range spans {
		if start < sp.end && sp.start < end {
			return true
		}
	}
	return false
}

// ExtractField returns the value at a dotted path inside a JSON object body.
// Strings are returned unquoted and other values as JSON. ok is false when
// body is not JSON or the path is missing.
func ExtractField(body, path string) (string, bool) {
	v, err := jsonfmt.Decode(body)
	if err != nil {
		return "", false
	}
	for _, part := range strings.Split(path, ".") {
		obj, isObj := v.(map[string]any)
		if !isObj {
			return "", false
		}
		child, found := obj[part]
		if !found {
			return "", false
		}
		v = child
	}
	if v == nil {
		return "null", true
	}
	return jsonfmt.Scalar(v), true
}

type eventRecord struct {
	Timestamp *int64 `json:"timestamp,omitempty"`
	Time      string `json:"time"`
	Group     string `json:"group,omitempty"`
	Stream    string `json:"stream,omitempty"`
	Message   string `json:"message"`
	EventID   string `json:"eventId,omitempty"`
}

func newEventRecord(group string, ev logstore.LogEvent) eventRecord {
	return eventRecord{
		Timestamp: ev.Timestamp,
		Time:      FormatTimestamp(ev.Timestamp),
		Group:     group,
		Stream:    ev.StreamID,
		Message:   ev.Text(),
		EventID:   ev.EventID,
	}
}

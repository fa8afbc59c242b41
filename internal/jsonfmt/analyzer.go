// File: internal/jsonfmt/analyzer.go
// Brief: Internal jsonfmt package implementation for 'column analysis'.

package jsonfmt

import (
	"sort"
	"unicode/utf8"
)

const (
	// ColumnTimestamp and ColumnLogGroup lead every FormattedOutput.
	ColumnTimestamp = "timestamp"
	ColumnLogGroup  = "log_group"
	// ColumnMessage holds a body that decodes to a bare JSON scalar.
	ColumnMessage = "message"

	// MaxColumnWidth caps both column sizing and rendered cell width.
	MaxColumnWidth = 100
	// Ellipsis replaces the tail of truncated cells.
	Ellipsis = "..."

	fixedColumnMinWidth = 9
	shadowPrefix        = "body."
)

// ColumnInfo describes one discovered column.
type ColumnInfo struct {
	Name      string
	Frequency int
	// MaxWidth is the longest value in characters, capped at MaxColumnWidth.
	MaxWidth int
}

// FormattedOutput is the analyzed table: every row has one cell per column.
type FormattedOutput struct {
	Columns []ColumnInfo
	Rows    [][]string
}

// Analyzer accumulates rows and per-column statistics. The zero value is not
// usable; call NewAnalyzer.
type Analyzer struct {
	rows      []Row
	frequency map[string]int
	width     map[string]int
}

// NewAnalyzer returns an empty Analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		frequency: map[string]int{},
		width:     map[string]int{},
	}
}

// Analyze is the one-shot form of NewAnalyzer, Add for each line, Output.
func Analyze(lines []string) FormattedOutput {
	a := NewAnalyzer()
	for _, line := range lines {
		a.Add(line)
	}
	return a.Output()
}

// Add parses a rendered "[timestamp] [stream] body" line and records it.
func (a *Analyzer) Add(line string) {
	ts, stream, body := ParseLine(line)
	a.AddRow(ts, stream, body)
}

// AddRow records one row. A body that is not valid JSON contributes only the
// timestamp and log_group cells.
func (a *Analyzer) AddRow(timestamp, stream, body string) {
	row := Row{ColumnTimestamp: timestamp, ColumnLogGroup: stream}
	a.observeWidth(ColumnTimestamp, timestamp)
	a.observeWidth(ColumnLogGroup, stream)
	if v, err := Decode(body); err == nil {
		for key, value := range flattenBody(v) {
			row[key] = value
			a.frequency[key]++
			a.observeWidth(key, value)
		}
	}
	a.rows = append(a.rows, row)
}

// Len reports the number of recorded rows.
func (a *Analyzer) Len() int {
	return len(a.rows)
}

// Output builds the column schema and materializes the rows. Columns after
// timestamp and log_group are ordered by descending frequency, then name.
func (a *Analyzer) Output() FormattedOutput {
	total := len(a.rows)
	columns := []ColumnInfo{
		{Name: ColumnTimestamp, Frequency: total, MaxWidth: max(a.width[ColumnTimestamp], fixedColumnMinWidth)},
		{Name: ColumnLogGroup, Frequency: total, MaxWidth: max(a.width[ColumnLogGroup], fixedColumnMinWidth)},
	}
	discovered := make([]ColumnInfo, 0, len(a.frequency))
	for name, freq := range a.frequency {
		discovered = append(discovered, ColumnInfo{
			Name:      name,
			Frequency: freq,
			MaxWidth:  max(a.width[name], utf8.RuneCountInString(name)),
		})
	}
	sort.Slice(discovered, func(i, j int) bool {
		if discovered[i].Frequency != discovered[j].Frequency {
			return discovered[i].Frequency > discovered[j].Frequency
		}
		return discovered[i].Name < discovered[j].Name
	})
	columns = append(columns, discovered...)

	rows := make([][]string, 0, total)
	for _, row := range a.rows {
		cells := make([]string, len(columns))
		for i, col := range columns {
			cells[i] = Truncate(row[col.Name])
		}
		rows = append(rows, cells)
	}
	return FormattedOutput{Columns: columns, Rows: rows}
}

func (a *Analyzer) observeWidth(column, value string) {
	w := min(utf8.RuneCountInString(value), MaxColumnWidth)
	if w > a.width[column] {
		a.width[column] = w
	}
}

// Truncate shortens values longer than MaxColumnWidth characters to their
// first MaxColumnWidth-3 characters followed by Ellipsis. Lengths count
// runes, not display cells; shorter values are returned unchanged.
func Truncate(s string) string {
	if utf8.RuneCountInString(s) <= MaxColumnWidth {
		return s
	}
	runes := []rune(s)
	return string(runes[:MaxColumnWidth-len(Ellipsis)]) + Ellipsis
}

// flattenBody flattens a decoded body for the table. A bare scalar lands in
// the message column and fields that would shadow the fixed columns move
// under "body.".
func flattenBody(v any) Row {
	switch v.(type) {
	case map[string]any, []any:
	default:
		return Flatten(v, ColumnMessage)
	}
	flat := Flatten(v, "")
	for _, fixed := range []string{ColumnTimestamp, ColumnLogGroup} {
		value, ok := flat[fixed]
		if !ok {
			continue
		}
		delete(flat, fixed)
		if _, taken := flat[shadowPrefix+fixed]; !taken {
			flat[shadowPrefix+fixed] = value
		}
	}
	return flat
}

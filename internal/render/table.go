// File: internal/render/table.go
// Brief: Internal render package implementation for 'column table'.

// Package render writes log events and analyzed JSON tables to terminals.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/example/cwl/internal/jsonfmt"
	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	headerColor    = color.New(color.Bold, color.FgHiCyan)
	separatorColor = color.New(color.FgHiBlack)
	fixedColor     = color.New(color.FgHiBlue)
	countColor     = color.New(color.FgHiYellow)
)

const (
	cellSeparator = " │ "
	ruleSeparator = "─┼─"
	ruleRune      = "─"
	fixedColumns  = 2
)

// Table writes out as aligned text: a header, a rule line, one line per row
// and a trailing "N columns, M rows" summary. Widths are display widths, so
// wide runes keep their columns aligned.
func Table(w io.Writer, out jsonfmt.FormattedOutput) error {
	if len(out.Columns) == 0 {
		return nil
	}
	widths := displayWidths(out)
	header := make([]string, len(out.Columns))
	rule := make([]string, len(out.Columns))
	for i, col := range out.Columns {
		header[i] = headerColor.Sprint(pad(col.Name, widths[i]))
		rule[i] = strings.Repeat(ruleRune, widths[i])
	}
	if _, err := fmt.Fprintln(w, strings.Join(header, cellSeparator)); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, separatorColor.Sprint(strings.Join(rule, ruleSeparator))); err != nil {
		return err
	}
	cells := make([]string, len(out.Columns))
	for _, row := range out.Rows {
		for i := range out.Columns {
			value := ""
			if i < len(row) {
				value = row[i]
			}
			padded := pad(value, widths[i])
			if i < fixedColumns && value != "" {
				padded = fixedColor.Sprint(padded)
			}
			cells[i] = padded
		}
		if _, err := fmt.Fprintln(w, strings.Join(cells, cellSeparator)); err != nil {
			return err
		}
	}
	p := message.NewPrinter(language.English)
	_, err := fmt.Fprintf(w, "\n%s columns, %s rows\n",
		countColor.Sprint(p.Sprintf("%d", len(out.Columns))),
		countColor.Sprint(p.Sprintf("%d", len(out.Rows))))
	return err
}

// displayWidths widens each column's character width to the terminal cells
// its header and cells occupy, so double-width runes stay aligned.
func displayWidths(out jsonfmt.FormattedOutput) []int {
	widths := make([]int, len(out.Columns))
	for i, col := range out.Columns {
		widths[i] = max(col.MaxWidth, runewidth.StringWidth(col.Name))
	}
	for _, row := range out.Rows {
		for i := range widths {
			if i < len(row) {
				widths[i] = max(widths[i], runewidth.StringWidth(row[i]))
			}
		}
	}
	return widths
}

func pad(s string, width int) string {
	if gap := width - runewidth.StringWidth(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}

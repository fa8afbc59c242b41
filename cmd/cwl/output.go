package main

import (
	"fmt"
	"io"

	"github.com/example/cwl/internal/config"
	"github.com/example/cwl/internal/jsonfmt"
	"github.com/example/cwl/internal/query"
	"github.com/example/cwl/internal/render"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	statusColor = color.New(color.FgHiCyan)
	noticeColor = color.New(color.FgHiYellow)
	doneColor   = color.New(color.FgHiGreen)
	tipColor    = color.New(color.Faint)
)

// eventOutput describes how fetched events are printed.
type eventOutput struct {
	Mode        string
	Highlight   string
	Field       string
	LevelColors bool
}

// lineOptions maps an output mode to LineWriter settings. Plain output turns
// color off for the rest of the run.
func (o eventOutput) lineOptions(showGroup bool) render.LineOptions {
	if o.Mode == config.OutputPlain {
		color.NoColor = true
	}
	return render.LineOptions{
		Highlight:   o.Highlight,
		LevelColors: o.LevelColors,
		Field:       o.Field,
		JSON:        o.Mode == config.OutputJSON,
		ShowGroup:   showGroup,
	}
}

// writeResults prints every group's events in group order and returns how
// many events were displayed.
func writeResults(w io.Writer, results []query.GroupResult, out eventOutput) (int, error) {
	if out.Mode == config.OutputTable {
		analyzer := jsonfmt.NewAnalyzer()
		for _, r := range results {
			for _, ev := range r.Events {
				if ev.HasMessage() {
					analyzer.Add(render.TableLine(ev))
				}
			}
		}
		if analyzer.Len() == 0 {
			return 0, nil
		}
		return analyzer.Len(), render.Table(w, analyzer.Output())
	}
	lw := render.NewLineWriter(w, out.lineOptions(len(results) > 1))
	for _, r := range results {
		for _, ev := range r.Events {
			if err := lw.WriteFrom(r.Group, ev); err != nil {
				return lw.Count(), err
			}
		}
	}
	return lw.Count(), nil
}

// status writes a progress line to stderr so stdout stays pipeable.
func status(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintln(cmd.ErrOrStderr(), statusColor.Sprintf(format, args...))
}

func reportCount(cmd *cobra.Command, displayed int) {
	if displayed == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), noticeColor.Sprint("No log events found matching criteria"))
		return
	}
	p := message.NewPrinter(language.English)
	fmt.Fprintln(cmd.ErrOrStderr(), doneColor.Sprint(p.Sprintf("✓ %d total events displayed", displayed)))
}

package main

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/example/cwl/internal/config"
	"github.com/example/cwl/internal/logstore"
	"github.com/example/cwl/internal/query"
	"github.com/example/cwl/internal/render"
	"github.com/example/cwl/internal/tailer"
	"github.com/example/cwl/internal/timerange"
	"github.com/example/cwl/internal/ui"
	"github.com/spf13/cobra"
)

func newTailCommand(a *app) *cobra.Command {
	opts := config.NewTailOptions()
	cmd := &cobra.Command{
		Use:   "tail GROUP [GROUP...]",
		Short: "Show recent log events, optionally following new ones",
		Long: `Show the most recent events of one or more log groups.

Without --follow, tail prints up to 100 events from the last 5 minutes.
With --follow it starts 60 seconds back and keeps polling until interrupted,
printing every event once.`,
		Example: `  # Recent events
  cwl tail /ecs/prod/api

  # Follow two groups, highlighting a filter pattern
  cwl tail /ecs/prod/api /ecs/prod/worker -F -f timeout --highlight`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.applyConfigDefaults(cmd, &opts.Output, nil)
			if opts.Follow && !cmd.Flags().Changed("output") && opts.Output == config.OutputTable {
				opts.Output = config.DefaultOutput
			}
			if err := opts.Validate(); err != nil {
				return err
			}
			groups := a.cfg.ResolveGroups(args)
			if opts.Follow {
				return a.runFollow(cmd, groups, opts)
			}
			return a.runRecent(cmd, groups, opts)
		},
	}
	opts.AddFlags(cmd)
	return cmd
}

func (a *app) tailOutput(opts *config.TailOptions) eventOutput {
	out := eventOutput{Mode: opts.Output, Field: opts.Field, LevelColors: opts.LevelColors}
	if opts.Highlight {
		out.Highlight = opts.Filter
	}
	return out
}

// runRecent prints a bounded snapshot of the last few minutes.
func (a *app) runRecent(cmd *cobra.Command, groups []string, opts *config.TailOptions) error {
	ctx := cmd.Context()
	status(cmd, "Recent logs from: %s (last %d minutes)", strings.Join(groups, ", "), int(config.TailWindow.Minutes()))
	store, err := a.store(ctx)
	if err != nil {
		return err
	}
	window := timerange.Last(config.TailWindow, a.now())
	spinner := ui.StartSpinner(cmd.ErrOrStderr(), "Fetching log events...")
	results, err := query.NewFetcher(store, a.logger).FetchGroups(ctx, groups, query.Options{
		Start:   window.Start,
		End:     window.End,
		Pattern: opts.Filter,
		Limit:   config.TailLimit,
	})
	spinner.Stop(err == nil)
	if err != nil {
		return err
	}
	displayed, err := writeResults(cmd.OutOrStdout(), results, a.tailOutput(opts))
	if err != nil {
		return fmt.Errorf("write events: %w", err)
	}
	reportCount(cmd, displayed)
	return nil
}

// runFollow tails every group concurrently into one shared writer until the
// context is cancelled.
func (a *app) runFollow(cmd *cobra.Command, groups []string, opts *config.TailOptions) error {
	ctx := cmd.Context()
	status(cmd, "Tailing: %s (Ctrl+C to stop)", strings.Join(groups, ", "))
	if opts.Filter != "" {
		status(cmd, "Filter: %s", opts.Filter)
	}
	store, err := a.store(ctx)
	if err != nil {
		return err
	}

	tailers := make([]*tailer.Tailer, 0, len(groups))
	for _, group := range groups {
		tailers = append(tailers, tailer.New(store, group, a.logger,
			tailer.WithPattern(opts.Filter),
			tailer.WithClock(a.now),
		))
	}
	out := a.tailOutput(opts)
	lw := render.NewLineWriter(cmd.OutOrStdout(), out.lineOptions(len(groups) > 1))
	spinner := ui.StartSpinner(cmd.ErrOrStderr(), "Waiting for logs...")
	var firstEvent sync.Once

	err = tailer.RunAll(ctx, tailers, func(group string) tailer.Handler {
		return func(ev logstore.LogEvent) error {
			firstEvent.Do(func() { spinner.Stop(true) })
			return lw.WriteFrom(group, ev)
		}
	})
	spinner.Stop(err == nil)
	if err != nil {
		if errors.Is(err, tailer.ErrCallback) {
			return fmt.Errorf("write events: %w", err)
		}
		return err
	}
	fmt.Fprintln(cmd.ErrOrStderr())
	status(cmd, "Stopped tailing after %d events", lw.Count())
	return nil
}

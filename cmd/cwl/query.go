package main

import (
	"fmt"
	"strings"

	"github.com/example/cwl/internal/config"
	"github.com/example/cwl/internal/query"
	"github.com/example/cwl/internal/render"
	"github.com/example/cwl/internal/ui"
	"github.com/spf13/cobra"
)

func newQueryCommand(a *app) *cobra.Command {
	opts := config.NewQueryOptions()
	cmd := &cobra.Command{
		Use:   "query GROUP [GROUP...]",
		Short: "Fetch log events from a bounded time window",
		Long: `Fetch log events from one or more log groups over a bounded window.

Without --since/--start/--end the window is the last hour. Groups may be
aliases defined in the config file. Several groups are fetched concurrently
and printed one group after another.`,
		Example: `  # Last 30 minutes of ERROR lines
  cwl query /ecs/prod/api --since 30m -f ERROR

  # A fixed window, rendered as a JSON table
  cwl query api --start "2024-01-01 10:00:00" --end "2024-01-01 11:00:00" -o table

  # Everything in the window, as JSON lines
  cwl query /aws/lambda/ingest --since 2h --limit 0 -o json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.applyConfigDefaults(cmd, &opts.Output, &opts.Limit)
			if err := opts.Validate(a.now()); err != nil {
				return err
			}
			return a.runQuery(cmd, a.cfg.ResolveGroups(args), opts)
		},
	}
	opts.AddFlags(cmd)
	return cmd
}

// applyConfigDefaults fills the output mode and event limit from the config
// file when neither a flag nor the environment set them.
func (a *app) applyConfigDefaults(cmd *cobra.Command, output *string, limit *int) {
	if output != nil && !cmd.Flags().Changed("output") && a.cfg.Defaults.Output != "" {
		*output = a.cfg.Defaults.Output
	}
	if limit != nil && !cmd.Flags().Changed("limit") && a.cfg.Defaults.MaxEvents > 0 {
		*limit = a.cfg.Defaults.MaxEvents
	}
}

func (a *app) runQuery(cmd *cobra.Command, groups []string, opts *config.QueryOptions) error {
	ctx := cmd.Context()
	status(cmd, "Querying logs from: %s", strings.Join(groups, ", "))
	if opts.Range.Start != nil {
		window := render.FormatTimestamp(opts.Range.Start) + " to "
		if opts.Range.End != nil {
			window += render.FormatTimestamp(opts.Range.End)
		} else {
			window += "now"
		}
		status(cmd, "Time range: %s (UTC)", window)
	}
	if opts.Filter != "" {
		status(cmd, "Filter: %s", opts.Filter)
	}

	store, err := a.store(ctx)
	if err != nil {
		return err
	}
	spinner := ui.StartSpinner(cmd.ErrOrStderr(), "Fetching log events...")
	results, err := query.NewFetcher(store, a.logger).FetchGroups(ctx, groups, query.Options{
		Start:   opts.Range.Start,
		End:     opts.Range.End,
		Pattern: opts.Filter,
		Limit:   opts.Limit,
	})
	spinner.Stop(err == nil)
	if err != nil {
		return err
	}

	out := eventOutput{Mode: opts.Output, Field: opts.Field, LevelColors: opts.LevelColors}
	if !opts.NoHighlight {
		out.Highlight = opts.Filter
	}
	displayed, err := writeResults(cmd.OutOrStdout(), results, out)
	if err != nil {
		return fmt.Errorf("write events: %w", err)
	}
	reportCount(cmd, displayed)
	return nil
}

package main

import (
	"fmt"

	"github.com/example/cwl/internal/config"
	"github.com/example/cwl/internal/query"
	"github.com/example/cwl/internal/render"
	"github.com/example/cwl/internal/ui"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func newGroupsCommand(a *app) *cobra.Command {
	opts := config.NewGroupsOptions()
	cmd := &cobra.Command{
		Use:     "groups",
		Aliases: []string{"list-groups", "ls"},
		Short:   "List log groups",
		Example: `  # Every group in the region
  cwl groups

  # Lambda groups with retention, size and age
  cwl groups --prefix /aws/lambda -L

  # Groups whose name mentions prod, as YAML
  cwl groups -f prod -o yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.Validate(); err != nil {
				return err
			}
			return a.runGroups(cmd, opts)
		},
	}
	opts.AddFlags(cmd)
	return cmd
}

func (a *app) runGroups(cmd *cobra.Command, opts *config.GroupsOptions) error {
	ctx := cmd.Context()
	store, err := a.store(ctx)
	if err != nil {
		return err
	}
	spinner := ui.StartSpinner(cmd.ErrOrStderr(), "Listing log groups...")
	groups, err := query.ListGroups(ctx, store, query.GroupOptions{Prefix: opts.Prefix, Match: opts.FilterRegex}, a.logger)
	spinner.Stop(err == nil)
	if err != nil {
		return err
	}

	human := opts.Output == render.GroupsNames || opts.Output == render.GroupsLong
	if human {
		if len(groups) == 0 {
			fmt.Fprintln(cmd.ErrOrStderr(), noticeColor.Sprint("No log groups found"))
			return nil
		}
		p := message.NewPrinter(language.English)
		status(cmd, "%s", p.Sprintf("Found %d log groups:", len(groups)))
	}
	if err := render.Groups(cmd.OutOrStdout(), groups, render.GroupsOptions{Format: opts.Output, Now: a.now()}); err != nil {
		return err
	}
	if human {
		fmt.Fprintln(cmd.ErrOrStderr(), tipColor.Sprint("Tip: cwl tail <group> --follow"))
	}
	return nil
}

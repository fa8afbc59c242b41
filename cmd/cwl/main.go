// main.go bootstraps cwl: it builds the root Cobra command, wires env and config defaults, and executes with signal-aware contexts.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/smithy-go"
	"github.com/example/cwl/internal/appconfig"
	"github.com/example/cwl/internal/config"
	"github.com/example/cwl/internal/logging"
	"github.com/example/cwl/internal/logstore"
	"github.com/example/cwl/internal/timerange"
	"github.com/example/cwl/internal/ui"
	"github.com/example/cwl/internal/version"
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rootCmd := newRootCommand(newCloudWatchStore, time.Now)
	err := rootCmd.ExecuteContext(ctx)
	handleError(os.Stderr, err)
	if err != nil {
		os.Exit(1)
	}
}

// storeFactory opens the remote log store for a command run.
type storeFactory func(ctx context.Context, opts logstore.ClientOptions, logger logr.Logger) (logstore.Store, error)

func newCloudWatchStore(ctx context.Context, opts logstore.ClientOptions, logger logr.Logger) (logstore.Store, error) {
	cw, err := logstore.NewCloudWatch(ctx, opts, logger)
	if err != nil {
		return nil, err
	}
	return cw, nil
}

// app carries the state shared by every subcommand once the root's
// PersistentPreRunE has run.
type app struct {
	global     *config.GlobalOptions
	newStore   storeFactory
	now        func() time.Time
	logger     logr.Logger
	cfg        appconfig.Config
	configPath string
}

func newRootCommand(newStore storeFactory, now func() time.Time) *cobra.Command {
	a := &app{global: config.NewGlobalOptions(), newStore: newStore, now: now, logger: logr.Discard()}
	cmd := &cobra.Command{
		Use:           "cwl",
		Short:         "CloudWatch Logs CLI: tail, query, and list log groups",
		Long:          "cwl retrieves log events from AWS CloudWatch Logs: bounded historical queries, live tails, and log group listings.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.prepare(cmd)
		},
	}
	a.global.BindFlags(cmd.PersistentFlags())
	cmd.AddCommand(
		newQueryCommand(a),
		newTailCommand(a),
		newGroupsCommand(a),
		newConfigCommand(a),
		newVersionCommand(),
	)
	cmd.Example = `  # Errors from the last 30 minutes as a JSON table
  cwl query /ecs/prod/api --since 30m -f ERROR -o table

  # Follow two groups at once
  cwl tail /ecs/prod/api /ecs/prod/worker --follow

  # Lambda groups with retention and size
  cwl groups --prefix /aws/lambda --long`
	return cmd
}

// prepare resolves environment overrides, builds the logger, loads the
// persisted config and applies the color mode.
func (a *app) prepare(cmd *cobra.Command) error {
	if err := bindViper(cmd.Flags()); err != nil {
		return err
	}
	if err := a.global.Validate(); err != nil {
		return err
	}
	logger, err := logging.NewWithWriter(a.global.LogLevel, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.logger = logger
	path, err := appconfig.ResolvePath(a.global.ConfigPath)
	if err != nil {
		return err
	}
	a.configPath = path
	repoPath := ""
	if wd, err := os.Getwd(); err == nil {
		repoPath = appconfig.DefaultRepoPath(appconfig.FindRepoRoot(wd))
	}
	cfg, err := appconfig.Load(path, repoPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	ui.ApplyColorMode(a.global.ColorMode, cmd.OutOrStdout())
	a.logger.V(1).Info("configuration loaded", "version", version.Get().String(), "path", path, "project", repoPath)
	return nil
}

// store opens the log store. Region precedence: --region/CWL_REGION, then
// the profile's configured region, then the config default, then the AWS
// configuration chain.
func (a *app) store(ctx context.Context) (logstore.Store, error) {
	region := a.global.Region
	if region == "" {
		region = a.cfg.RegionFor(a.global.Profile)
	}
	return a.newStore(ctx, logstore.ClientOptions{Profile: a.global.Profile, Region: region}, a.logger)
}

// bindViper fills every flag the user did not set from CWL_* environment
// variables, e.g. CWL_REGION or CWL_LOG_LEVEL.
func bindViper(fs *pflag.FlagSet) error {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.SetEnvPrefix("CWL")
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return err
	}
	var setErr error
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Changed || setErr != nil {
			return
		}
		if _, ok := os.LookupEnv("CWL_" + strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))); !ok {
			return
		}
		val := fmt.Sprintf("%v", v.Get(f.Name))
		if val == "" {
			return
		}
		if err := fs.Set(f.Name, val); err != nil {
			setErr = fmt.Errorf("invalid value for %s from environment: %w", f.Name, err)
		}
	})
	return setErr
}

func handleError(w io.Writer, err error) {
	if err == nil || errors.Is(err, pflag.ErrHelp) {
		return
	}
	message := err.Error()
	if hint := errorHint(err); hint != "" {
		message = fmt.Sprintf("%s\nHint: %s", message, hint)
	}
	fmt.Fprintf(w, "Error: %s\n", message)
}

func errorHint(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDeniedException", "UnrecognizedClientException", "ExpiredTokenException", "InvalidSignatureException":
			return "AWS rejected the credentials. Check --profile/AWS_PROFILE and run 'aws sts get-caller-identity'."
		case "ResourceNotFoundException":
			return "the log group does not exist in this region. Run 'cwl groups' to list available groups or pass --region."
		case "ThrottlingException":
			return "CloudWatch Logs throttled the request. Narrow the time window or retry later."
		}
	}
	switch {
	case errors.Is(err, timerange.ErrMalformedDuration):
		return "durations look like 30s, 15m, 2h, or 7d."
	case errors.Is(err, timerange.ErrMalformedTimestamp):
		return "timestamps are Unix seconds or milliseconds, or YYYY-MM-DD HH:MM:SS in UTC."
	case errors.Is(err, context.DeadlineExceeded):
		return "the request timed out. Verify network connectivity to AWS."
	}
	return ""
}

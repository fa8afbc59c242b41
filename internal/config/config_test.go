// config_test.go verifies option defaults, flag binding and validation for cwl commands.
package config

import (
	"errors"
	"testing"
	"time"

	"github.com/example/cwl/internal/timerange"
	"github.com/spf13/pflag"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestNewQueryOptionsDefaults(t *testing.T) {
	opts := NewQueryOptions()
	if opts.Limit != DefaultMaxEvents {
		t.Fatalf("limit default mismatch, got %d", opts.Limit)
	}
	if opts.Output != OutputColored {
		t.Fatalf("output default mismatch, got %s", opts.Output)
	}
}

func TestQueryBindFlagsParses(t *testing.T) {
	opts := NewQueryOptions()
	fs := pflag.NewFlagSet("query", pflag.ContinueOnError)
	names := opts.BindFlags(fs)
	for _, name := range names {
		if fs.Lookup(name) == nil {
			t.Fatalf("flag %s was reported but not registered", name)
		}
	}
	if err := fs.Parse([]string{"--since", "30m", "-f", "ERROR", "-l", "0", "-o", "table", "--field", "req.id"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := opts.Validate(testNow); err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if opts.Filter != "ERROR" || opts.Limit != 0 || opts.Output != OutputTable || opts.Field != "req.id" {
		t.Fatalf("unexpected options %+v", opts)
	}
	if *opts.Range.Start != testNow.UnixMilli()-1_800_000 || *opts.Range.End != testNow.UnixMilli() {
		t.Fatalf("unexpected range %d..%d", *opts.Range.Start, *opts.Range.End)
	}
}

func TestQueryValidateRejectsMalformedTime(t *testing.T) {
	opts := NewQueryOptions()
	opts.Since = "bogus"
	if err := opts.Validate(testNow); !errors.Is(err, timerange.ErrMalformedDuration) {
		t.Fatalf("expected malformed duration, got %v", err)
	}
	opts = NewQueryOptions()
	opts.Start = "yesterday"
	if err := opts.Validate(testNow); !errors.Is(err, timerange.ErrMalformedTimestamp) {
		t.Fatalf("expected malformed timestamp, got %v", err)
	}
}

func TestQueryValidateRejectsNegativeLimit(t *testing.T) {
	opts := NewQueryOptions()
	opts.Limit = -5
	if err := opts.Validate(testNow); err == nil {
		t.Fatalf("expected negative limit error")
	}
}

func TestOutputNormalization(t *testing.T) {
	cases := map[string]string{
		"":          OutputColored,
		"COLORED":   OutputColored,
		"plain":     OutputPlain,
		"formatted": OutputTable,
		"json":      OutputJSON,
	}
	for in, want := range cases {
		opts := NewQueryOptions()
		opts.Output = in
		if err := opts.Validate(testNow); err != nil || opts.Output != want {
			t.Fatalf("%q: got %q/%v want %q", in, opts.Output, err, want)
		}
	}
	if ValidOutput("xml") {
		t.Fatalf("xml must not be a valid output")
	}
}

func TestTailValidateRejectsTableWhenFollowing(t *testing.T) {
	opts := NewTailOptions()
	opts.Output = OutputTable
	if err := opts.Validate(); err != nil {
		t.Fatalf("table should be allowed without --follow: %v", err)
	}
	opts.Follow = true
	if err := opts.Validate(); err == nil {
		t.Fatalf("expected table + follow to be rejected")
	}
}

func TestTailBindFlags(t *testing.T) {
	opts := NewTailOptions()
	fs := pflag.NewFlagSet("tail", pflag.ContinueOnError)
	opts.BindFlags(fs)
	if err := fs.Parse([]string{"-F", "--filter", "timeout", "--highlight"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !opts.Follow || opts.Filter != "timeout" || !opts.Highlight {
		t.Fatalf("unexpected options %+v", opts)
	}
}

func TestGroupsValidate(t *testing.T) {
	opts := NewGroupsOptions()
	opts.Filter = "lambda/.*"
	opts.Long = true
	if err := opts.Validate(); err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if opts.FilterRegex == nil || !opts.FilterRegex.MatchString("/aws/lambda/x") {
		t.Fatalf("expected compiled filter regex")
	}
	if opts.Output != "long" {
		t.Fatalf("--long should select the long format, got %s", opts.Output)
	}

	opts = NewGroupsOptions()
	opts.Output = "yml"
	if err := opts.Validate(); err != nil || opts.Output != "yaml" {
		t.Fatalf("yml should normalize to yaml, got %s/%v", opts.Output, err)
	}

	opts = NewGroupsOptions()
	opts.Filter = "("
	if err := opts.Validate(); err == nil {
		t.Fatalf("expected regex compile error")
	}
}

func TestGlobalValidateColorMode(t *testing.T) {
	opts := NewGlobalOptions()
	opts.ColorMode = "ALWAYS"
	if err := opts.Validate(); err != nil || opts.ColorMode != "always" {
		t.Fatalf("unexpected color mode %s/%v", opts.ColorMode, err)
	}
	opts.ColorMode = "rainbow"
	if err := opts.Validate(); err == nil {
		t.Fatalf("expected invalid color mode error")
	}
}

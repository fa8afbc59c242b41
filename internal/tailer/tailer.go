// File: internal/tailer/tailer.go
// Brief: Internal tailer package implementation for 'tailer'.

// Package tailer implements cwl's live tail: a polling loop over a log
// store's page cursor that advances a timestamp watermark so events are not
// delivered twice, drains backlog without pausing, and backs off while caught up.
package tailer

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/example/cwl/internal/logstore"
	"github.com/go-logr/logr"
)

const (
	// DefaultLookback is how far before the first poll the tail starts.
	DefaultLookback = 60 * time.Second
	// DefaultIdleInterval is the pause between polls once the store has no
	// further pages for the current window.
	DefaultIdleInterval = time.Second
)

// ErrStop may be returned by a Handler to end tailing without an error.
var ErrStop = errors.New("stop tailing")

// ErrCallback wraps handler failures returned from Run.
var ErrCallback = errors.New("tail handler failed")

// Handler consumes one event. Returning ErrStop ends the tail cleanly; any
// other error aborts it.
type Handler func(logstore.LogEvent) error

// Tailer follows a single log group. A Tailer owns its watermark and
// continuation token and must not be shared between goroutines.
type Tailer struct {
	cursor   logstore.PageCursor
	group    string
	pattern  string
	log      logr.Logger
	lookback time.Duration
	idle     time.Duration
	now      func() time.Time
	sleep    func(context.Context, time.Duration) error

	lastEventTime *int64
	nextToken     *string
	polls         int
}

// Option configures optional Tailer behavior.
type Option func(*Tailer)

// WithPattern sets the store-side filter pattern.
func WithPattern(pattern string) Option {
	return func(t *Tailer) {
		t.pattern = pattern
	}
}

// WithLookback overrides the initial window used before any event was seen.
func WithLookback(d time.Duration) Option {
	return func(t *Tailer) {
		if d > 0 {
			t.lookback = d
		}
	}
}

// WithIdleInterval overrides the pause between polls while caught up.
func WithIdleInterval(d time.Duration) Option {
	return func(t *Tailer) {
		if d > 0 {
			t.idle = d
		}
	}
}

// WithClock overrides the wall clock used for the initial lookback window.
func WithClock(now func() time.Time) Option {
	return func(t *Tailer) {
		if now != nil {
			t.now = now
		}
	}
}

// New creates a Tailer for group.
func New(cursor logstore.PageCursor, group string, logger logr.Logger, opts ...Option) *Tailer {
	t := &Tailer{
		cursor:   cursor,
		group:    group,
		log:      logger.WithName("tailer").WithValues("group", group),
		lookback: DefaultLookback,
		idle:     DefaultIdleInterval,
		now:      time.Now,
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Group returns the followed log group.
func (t *Tailer) Group() string {
	return t.group
}

// Watermark returns the current window start, if one has been established.
func (t *Tailer) Watermark() (int64, bool) {
	if t.lastEventTime == nil {
		return 0, false
	}
	return *t.lastEventTime, true
}

// Events returns a lazy sequence of tailed events. Breaking out of the range
// loop stops polling. Cancelling ctx ends the sequence without an error; a
// page failure is yielded once as a *logstore.RetrievalError and ends it.
func (t *Tailer) Events(ctx context.Context) iter.Seq2[logstore.LogEvent, error] {
	return func(yield func(logstore.LogEvent, error) bool) {
		t.log.V(1).Info("starting tail", "pattern", t.pattern, "lookback", t.lookback.String())
		defer t.log.V(1).Info("tail finished", "polls", t.polls)
		for {
			if ctx.Err() != nil {
				return
			}
			resp, err := t.poll(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				yield(logstore.LogEvent{}, &logstore.RetrievalError{Group: t.group, Op: logstore.OpFilterLogEvents, Err: err})
				return
			}
			for _, ev := range resp.Events {
				t.advance(ev)
				if !yield(ev, nil) {
					return
				}
			}
			t.nextToken = logstore.NormalizeToken(resp.NextToken)
			if t.nextToken != nil {
				continue
			}
			if err := t.sleep(ctx, t.idle); err != nil {
				return
			}
		}
	}
}

// Run delivers every tailed event to handle until ctx is cancelled, the
// handler returns ErrStop, or an error occurs.
func (t *Tailer) Run(ctx context.Context, handle Handler) error {
	for ev, err := range t.Events(ctx) {
		if err != nil {
			return err
		}
		if herr := handle(ev); herr != nil {
			if errors.Is(herr, ErrStop) {
				return nil
			}
			return fmt.Errorf("%w: %w", ErrCallback, herr)
		}
	}
	return nil
}

func (t *Tailer) poll(ctx context.Context) (logstore.PageResponse, error) {
	start := t.now().Add(-t.lookback).UnixMilli()
	if t.lastEventTime != nil {
		start = *t.lastEventTime
	}
	t.polls++
	t.log.V(2).Info("polling", "start", start, "continuation", t.nextToken != nil)
	return t.cursor.FetchPage(ctx, logstore.PageRequest{
		Group:        t.group,
		Start:        logstore.Int64(start),
		Pattern:      t.pattern,
		Continuation: t.nextToken,
	})
}

// advance moves the watermark past ev. Moving to ts+1 excludes events that
// share ev's millisecond, including distinct ones not yet seen; the
// watermark never moves backwards.
func (t *Tailer) advance(ev logstore.LogEvent) {
	if ev.Timestamp == nil {
		return
	}
	next := *ev.Timestamp + 1
	if t.lastEventTime != nil && next <= *t.lastEventTime {
		return
	}
	t.lastEventTime = &next
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

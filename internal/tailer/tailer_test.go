// tailer_test.go covers watermark advancement, backoff, and cancellation of the live tail.
package tailer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/example/cwl/internal/logstore"
	"github.com/go-logr/logr"
)

type scriptedCursor struct {
	mu        sync.Mutex
	responses []logstore.PageResponse
	errAt     int
	err       error
	requests  []logstore.PageRequest
}

func (c *scriptedCursor) FetchPage(_ context.Context, req logstore.PageRequest) (logstore.PageResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, req)
	call := len(c.requests)
	if c.errAt > 0 && call == c.errAt {
		return logstore.PageResponse{}, c.err
	}
	if call > len(c.responses) {
		return logstore.PageResponse{}, nil
	}
	return c.responses[call-1], nil
}

type recordingSleeper struct {
	calls  []time.Duration
	after  int
	cancel context.CancelFunc
}

func (s *recordingSleeper) sleep(ctx context.Context, d time.Duration) error {
	s.calls = append(s.calls, d)
	if s.after > 0 && len(s.calls) >= s.after {
		s.cancel()
		return ctx.Err()
	}
	return nil
}

func event(ts int64, msg string) logstore.LogEvent {
	return logstore.LogEvent{Timestamp: logstore.Int64(ts), StreamID: "s", Message: logstore.String(msg)}
}

func page(token string, events ...logstore.LogEvent) logstore.PageResponse {
	resp := logstore.PageResponse{Events: events}
	if token != "" {
		resp.NextToken = logstore.String(token)
	}
	return resp
}

var fixedNow = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func newTestTailer(cursor logstore.PageCursor, sleeper *recordingSleeper) *Tailer {
	tl := New(cursor, "/app/api", logr.Discard(), WithPattern("ERROR"), WithClock(func() time.Time { return fixedNow }))
	tl.sleep = sleeper.sleep
	return tl
}

func collect(t *testing.T, tl *Tailer, ctx context.Context) []string {
	t.Helper()
	var got []string
	for ev, err := range tl.Events(ctx) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got = append(got, ev.Text())
	}
	return got
}

func TestFirstPollUsesLookbackWindow(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cursor := &scriptedCursor{}
	sleeper := &recordingSleeper{after: 1, cancel: cancel}
	tl := newTestTailer(cursor, sleeper)
	collect(t, tl, ctx)
	if len(cursor.requests) != 1 {
		t.Fatalf("expected one poll, got %d", len(cursor.requests))
	}
	req := cursor.requests[0]
	want := fixedNow.Add(-DefaultLookback).UnixMilli()
	if req.Start == nil || *req.Start != want {
		t.Fatalf("expected start %d, got %v", want, req.Start)
	}
	if req.Pattern != "ERROR" || req.Group != "/app/api" || req.Continuation != nil || req.End != nil {
		t.Fatalf("unexpected first request %+v", req)
	}
	if _, ok := tl.Watermark(); ok {
		t.Fatalf("watermark should be unset when no events arrived")
	}
}

func TestWatermarkAdvancesPastLastTimestamp(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cursor := &scriptedCursor{responses: []logstore.PageResponse{
		page("", event(1000, "a"), event(1005, "b")),
		page("", event(1005, "c"), event(1010, "d")),
	}}
	sleeper := &recordingSleeper{after: 3, cancel: cancel}
	tl := newTestTailer(cursor, sleeper)
	got := collect(t, tl, ctx)
	if len(got) != 4 {
		t.Fatalf("expected 4 events, got %v", got)
	}
	if *cursor.requests[1].Start != 1006 {
		t.Fatalf("second poll should start at 1006, got %d", *cursor.requests[1].Start)
	}
	if *cursor.requests[2].Start != 1011 {
		t.Fatalf("third poll should start at 1011, got %d", *cursor.requests[2].Start)
	}
	if wm, ok := tl.Watermark(); !ok || wm != 1011 {
		t.Fatalf("unexpected watermark %d/%v", wm, ok)
	}
}

func TestWatermarkNeverRegresses(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cursor := &scriptedCursor{responses: []logstore.PageResponse{
		page("", event(2000, "late"), event(1500, "early"), logstore.LogEvent{Message: logstore.String("untimed")}),
	}}
	sleeper := &recordingSleeper{after: 2, cancel: cancel}
	tl := newTestTailer(cursor, sleeper)
	got := collect(t, tl, ctx)
	if len(got) != 3 {
		t.Fatalf("every event must be delivered, got %v", got)
	}
	if *cursor.requests[1].Start != 2001 {
		t.Fatalf("watermark regressed: %d", *cursor.requests[1].Start)
	}
}

func TestWatermarkInvariantAcrossPolls(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	timestamps := [][]int64{{10, 10, 11}, {11, 12}, {}, {12, 20, 20, 21}, {30}}
	var responses []logstore.PageResponse
	for _, batch := range timestamps {
		var events []logstore.LogEvent
		for _, ts := range batch {
			events = append(events, event(ts, "x"))
		}
		responses = append(responses, page("", events...))
	}
	cursor := &scriptedCursor{responses: responses}
	sleeper := &recordingSleeper{after: len(responses) + 1, cancel: cancel}
	tl := newTestTailer(cursor, sleeper)
	var maxDelivered int64 = -1
	for ev, err := range tl.Events(ctx) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if *ev.Timestamp > maxDelivered {
			maxDelivered = *ev.Timestamp
		}
		if wm, ok := tl.Watermark(); !ok || wm < maxDelivered+1 {
			t.Fatalf("watermark %d below delivered timestamp %d + 1", wm, maxDelivered)
		}
	}
	var highest int64
	for i, req := range cursor.requests {
		if i == 0 {
			continue
		}
		if *req.Start < highest {
			t.Fatalf("poll %d window start %d moved backwards from %d", i, *req.Start, highest)
		}
		highest = *req.Start
	}
	if highest != 31 {
		t.Fatalf("final window start should be 31, got %d", highest)
	}
}

func TestContinuationSkipsIdleSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cursor := &scriptedCursor{responses: []logstore.PageResponse{
		page("tok-1", event(1, "a")),
		page("tok-2", event(2, "b")),
		page("", event(3, "c")),
	}}
	sleeper := &recordingSleeper{after: 1, cancel: cancel}
	tl := newTestTailer(cursor, sleeper)
	got := collect(t, tl, ctx)
	if len(got) != 3 {
		t.Fatalf("expected backlog drained, got %v", got)
	}
	if len(sleeper.calls) != 1 || sleeper.calls[0] != DefaultIdleInterval {
		t.Fatalf("expected a single idle sleep of %s, got %v", DefaultIdleInterval, sleeper.calls)
	}
	if cursor.requests[1].Continuation == nil || *cursor.requests[1].Continuation != "tok-1" {
		t.Fatalf("second poll should carry tok-1")
	}
	if cursor.requests[2].Continuation == nil || *cursor.requests[2].Continuation != "tok-2" {
		t.Fatalf("third poll should carry tok-2")
	}
}

func TestBreakStopsPolling(t *testing.T) {
	cursor := &scriptedCursor{responses: []logstore.PageResponse{
		page("tok", event(1, "a"), event(2, "b")),
		page("", event(3, "c")),
	}}
	sleeper := &recordingSleeper{}
	tl := newTestTailer(cursor, sleeper)
	for ev, err := range tl.Events(context.Background()) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ev.Text() == "a" {
			break
		}
	}
	if len(cursor.requests) != 1 {
		t.Fatalf("breaking must stop further polls, got %d requests", len(cursor.requests))
	}
}

func TestRunStopsOnErrStop(t *testing.T) {
	cursor := &scriptedCursor{responses: []logstore.PageResponse{page("", event(1, "a"), event(2, "b"))}}
	tl := newTestTailer(cursor, &recordingSleeper{})
	var seen []string
	err := tl.Run(context.Background(), func(ev logstore.LogEvent) error {
		seen = append(seen, ev.Text())
		return ErrStop
	})
	if err != nil {
		t.Fatalf("ErrStop should end tailing cleanly, got %v", err)
	}
	if len(seen) != 1 {
		t.Fatalf("expected one handled event, got %v", seen)
	}
}

func TestRunSurfacesHandlerFailure(t *testing.T) {
	cursor := &scriptedCursor{responses: []logstore.PageResponse{page("", event(1, "a"), event(2, "b"))}}
	tl := newTestTailer(cursor, &recordingSleeper{})
	boom := errors.New("broken pipe")
	calls := 0
	err := tl.Run(context.Background(), func(logstore.LogEvent) error {
		calls++
		return boom
	})
	if !errors.Is(err, ErrCallback) || !errors.Is(err, boom) {
		t.Fatalf("expected callback failure wrapping cause, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("tailing must abort after the first failure, got %d calls", calls)
	}
}

func TestRunSurfacesRetrievalFailure(t *testing.T) {
	boom := errors.New("access denied")
	cursor := &scriptedCursor{responses: []logstore.PageResponse{page("", event(1, "a"))}, errAt: 2, err: boom}
	tl := newTestTailer(cursor, &recordingSleeper{})
	var handled int
	err := tl.Run(context.Background(), func(logstore.LogEvent) error {
		handled++
		return nil
	})
	var rerr *logstore.RetrievalError
	if !errors.As(err, &rerr) || rerr.Group != "/app/api" || !errors.Is(err, boom) {
		t.Fatalf("expected retrieval error for /app/api, got %v", err)
	}
	if handled != 1 {
		t.Fatalf("expected the first page to be delivered, got %d", handled)
	}
}

func TestRunReturnsNilOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cursor := &scriptedCursor{}
	sleeper := &recordingSleeper{after: 2, cancel: cancel}
	tl := newTestTailer(cursor, sleeper)
	if err := tl.Run(ctx, func(logstore.LogEvent) error { return nil }); err != nil {
		t.Fatalf("cancellation should not be an error, got %v", err)
	}
	if len(cursor.requests) != 2 {
		t.Fatalf("expected two idle polls before cancellation, got %d", len(cursor.requests))
	}
}

func TestSleepContextHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	if err := sleepContext(ctx, time.Minute); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("sleep ignored cancellation")
	}
}

func TestRunAllStopsEachGroupIndependently(t *testing.T) {
	cursor := &scriptedCursor{responses: []logstore.PageResponse{
		page("", event(1, "first")),
		page("", event(2, "second")),
	}}
	a := New(cursor, "a", logr.Discard())
	b := New(cursor, "b", logr.Discard())
	var mu sync.Mutex
	seen := map[string]int{}
	err := RunAll(context.Background(), []*Tailer{a, b}, func(group string) Handler {
		return func(logstore.LogEvent) error {
			mu.Lock()
			seen[group]++
			mu.Unlock()
			return ErrStop
		}
	})
	if err != nil {
		t.Fatalf("run all: %v", err)
	}
	if seen["a"] != 1 || seen["b"] != 1 {
		t.Fatalf("expected one event per group, got %v", seen)
	}
}

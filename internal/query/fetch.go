// File: internal/query/fetch.go
// Brief: Internal query package implementation for 'bounded fetch'.

// Package query implements cwl's one-shot retrieval: bounded historical
// queries that walk continuation tokens until a window or result limit is
// exhausted, and the log group listing walk.
package query

import (
	"context"

	"github.com/example/cwl/internal/logstore"
	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"
)

// Options bounds a historical query. Start/End form a half-open [Start, End)
// window in epoch milliseconds. Limit <= 0 means no limit.
type Options struct {
	Start   *int64
	End     *int64
	Pattern string
	Limit   int
}

// Fetcher drives a PageCursor to satisfy bounded queries.
type Fetcher struct {
	cursor logstore.PageCursor
	log    logr.Logger
}

// NewFetcher returns a Fetcher over cursor.
func NewFetcher(cursor logstore.PageCursor, logger logr.Logger) *Fetcher {
	return &Fetcher{cursor: cursor, log: logger.WithName("query")}
}

// Fetch returns the events of group matching opts, in store order, never more
// than opts.Limit. Any page failure discards accumulated events and returns a
// *logstore.RetrievalError.
func (f *Fetcher) Fetch(ctx context.Context, group string, opts Options) ([]logstore.LogEvent, error) {
	var (
		events []logstore.LogEvent
		token  *string
		pages  int
	)
	for {
		size := logstore.MaxPageSize
		if opts.Limit > 0 {
			remaining := opts.Limit - len(events)
			if remaining <= 0 {
				break
			}
			if remaining < int(size) {
				size = int32(remaining)
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		resp, err := f.cursor.FetchPage(ctx, logstore.PageRequest{
			Group:        group,
			Start:        opts.Start,
			End:          opts.End,
			Pattern:      opts.Pattern,
			PageSize:     size,
			Continuation: token,
		})
		if err != nil {
			return nil, &logstore.RetrievalError{Group: group, Op: logstore.OpFilterLogEvents, Err: err}
		}
		pages++
		events = append(events, resp.Events...)
		f.log.V(1).Info("page received", "group", group, "page", pages, "pageEvents", len(resp.Events), "total", len(events))

		if opts.Limit > 0 && len(events) >= opts.Limit {
			events = events[:opts.Limit]
			break
		}
		token = logstore.NormalizeToken(resp.NextToken)
		if token == nil {
			break
		}
	}
	f.log.V(1).Info("query finished", "group", group, "pages", pages, "events", len(events))
	return events, nil
}

// GroupResult holds the events fetched for one group.
type GroupResult struct {
	Group  string
	Events []logstore.LogEvent
}

// FetchGroups runs one independent Fetch per group concurrently. Results keep
// the order of groups. The first failure cancels the remaining fetches.
func (f *Fetcher) FetchGroups(ctx context.Context, groups []string, opts Options) ([]GroupResult, error) {
	results := make([]GroupResult, len(groups))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, group := range groups {
		eg.Go(func() error {
			events, err := f.Fetch(egCtx, group, opts)
			if err != nil {
				return err
			}
			results[i] = GroupResult{Group: group, Events: events}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

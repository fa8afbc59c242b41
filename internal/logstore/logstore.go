// File: internal/logstore/logstore.go
// Brief: Internal logstore package implementation for 'page transport'.

// Package logstore defines the page-oriented transport that cwl's retrieval
// engine drives: log events, page requests/responses, and the cursor and
// group-listing capabilities a remote log store must provide.
package logstore

import (
	"context"
	"strings"
	"time"
)

// MaxPageSize is the largest number of events the store returns per page.
const MaxPageSize int32 = 10000

// LogEvent is a single record returned by the store. Optional fields stay nil
// when the store omitted them.
type LogEvent struct {
	Timestamp     *int64
	StreamID      string
	Message       *string
	EventID       string
	IngestionTime *int64
}

// Text returns the message body or the empty string.
func (e LogEvent) Text() string {
	if e.Message == nil {
		return ""
	}
	return *e.Message
}

// HasMessage reports whether the store returned a message body.
func (e LogEvent) HasMessage() bool {
	return e.Message != nil
}

// Time converts the event timestamp to UTC.
func (e LogEvent) Time() (time.Time, bool) {
	if e.Timestamp == nil {
		return time.Time{}, false
	}
	return time.UnixMilli(*e.Timestamp).UTC(), true
}

// PageRequest describes one page fetch. It is built fresh for every call.
type PageRequest struct {
	Group        string
	Start        *int64
	End          *int64
	Pattern      string
	PageSize     int32
	Continuation *string
}

// PageResponse carries one page of events. A nil NextToken means no further
// pages are currently available.
type PageResponse struct {
	Events    []LogEvent
	NextToken *string
}

// PageCursor fetches a single page of events.
type PageCursor interface {
	FetchPage(ctx context.Context, req PageRequest) (PageResponse, error)
}

// GroupInfo describes one log group.
type GroupInfo struct {
	Name          string
	CreationTime  *int64
	RetentionDays *int32
	StoredBytes   *int64
}

// GroupPage is one page of a log group listing.
type GroupPage struct {
	Groups    []GroupInfo
	NextToken *string
}

// GroupLister fetches a single page of log groups.
type GroupLister interface {
	ListGroupPage(ctx context.Context, prefix string, token *string) (GroupPage, error)
}

// Store is the full capability set cwl needs from a remote log store.
type Store interface {
	PageCursor
	GroupLister
}

// NormalizeToken maps empty continuation tokens to nil so callers only have
// to test one shape for "exhausted".
func NormalizeToken(token *string) *string {
	if token == nil || strings.TrimSpace(*token) == "" {
		return nil
	}
	return token
}

// Int64 returns a pointer to v.
func Int64(v int64) *int64 {
	return &v
}

// String returns a pointer to v.
func String(v string) *string {
	return &v
}

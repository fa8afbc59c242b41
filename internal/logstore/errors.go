package logstore

import "fmt"

// Operation names carried in RetrievalError.Op.
const (
	// OpFilterLogEvents is a page of a bounded query or a tail poll.
	OpFilterLogEvents = "filter log events"
	// OpDescribeLogGroups is a page of a log group listing.
	OpDescribeLogGroups = "describe log groups"
)

// RetrievalError reports a failed page fetch. Group is empty for listings
// that are not scoped to a single group.
type RetrievalError struct {
	Group string
	Op    string
	Err   error
}

func (e *RetrievalError) Error() string {
	if e.Group == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s for group %s: %v", e.Op, e.Group, e.Err)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}

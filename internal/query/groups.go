package query

import (
	"context"
	"regexp"

	"github.com/example/cwl/internal/logstore"
	"github.com/go-logr/logr"
)

// GroupOptions narrows a group listing. Prefix is applied by the store, Match
// client-side after the listing is complete.
type GroupOptions struct {
	Prefix string
	Match  *regexp.Regexp
}

// ListGroups walks every listing page until the store reports no further
// token and returns the groups that satisfy opts.Match.
func ListGroups(ctx context.Context, lister logstore.GroupLister, opts GroupOptions, logger logr.Logger) ([]logstore.GroupInfo, error) {
	log := logger.WithName("groups")
	var (
		groups []logstore.GroupInfo
		token  *string
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := lister.ListGroupPage(ctx, opts.Prefix, token)
		if err != nil {
			return nil, &logstore.RetrievalError{Op: logstore.OpDescribeLogGroups, Err: err}
		}
		groups = append(groups, page.Groups...)
		log.V(1).Info("group page received", "count", len(page.Groups), "total", len(groups))
		token = logstore.NormalizeToken(page.NextToken)
		if token == nil {
			break
		}
	}
	if opts.Match == nil {
		return groups, nil
	}
	filtered := groups[:0]
	for _, g := range groups {
		if opts.Match.MatchString(g.Name) {
			filtered = append(filtered, g)
		}
	}
	return filtered, nil
}

// GroupNames projects a listing to its names.
func GroupNames(groups []logstore.GroupInfo) []string {
	names := make([]string, 0, len(groups))
	for _, g := range groups {
		names = append(names, g.Name)
	}
	return names
}

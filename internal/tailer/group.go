// group.go fans out independent tailers for several log groups.
package tailer

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// RunAll runs every tailer concurrently until ctx is cancelled or one of them
// fails. handle is called from several goroutines and must be safe for
// concurrent use. A Handler returning ErrStop stops only its own tailer.
func RunAll(ctx context.Context, tailers []*Tailer, handle func(group string) Handler) error {
	eg, egCtx := errgroup.WithContext(ctx)
	for _, t := range tailers {
		h := handle(t.Group())
		eg.Go(func() error {
			return t.Run(egCtx, h)
		})
	}
	return eg.Wait()
}

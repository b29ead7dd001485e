package concurrency

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// ParallelOptions configures parallel processing.
type ParallelOptions struct {
	// MaxWorkers caps how many items are processed at once.
	MaxWorkers int
}

// DefaultOptions returns the default options.
func DefaultOptions() ParallelOptions {
	return ParallelOptions{
		MaxWorkers: 4,
	}
}

// ProcessParallel runs itemFunc over items with at most opts.MaxWorkers in
// flight. Results keep input order. A failing item never stops the others;
// its error is returned in input order alongside the rest. Items not started
// before ctx is done report ctx.Err().
func ProcessParallel[T any, R any](
	ctx context.Context,
	items []T,
	opts ParallelOptions,
	itemFunc func(ctx context.Context, index int, item T) (R, error),
) ([]R, []error) {
	if len(items) == 0 {
		return []R{}, nil
	}

	maxWorkers := opts.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = DefaultOptions().MaxWorkers
	}

	results := make([]R, len(items))
	itemErrs := make([]error, len(items))

	var g errgroup.Group
	g.SetLimit(maxWorkers)
	for i := range items {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				itemErrs[i] = err
				return nil
			}
			r, err := itemFunc(ctx, i, items[i])
			if err != nil {
				itemErrs[i] = fmt.Errorf("item %d: %w", i, err)
			}
			results[i] = r
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for _, err := range itemErrs {
		if err != nil {
			errs = append(errs, err)
		}
	}
	return results, errs
}

// Package workpool fans I/O-bound work out over a fixed number of workers.
//
// Results are collected by input key and returned sorted by that key, so the
// caller never depends on completion order.
package workpool

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// DefaultWorkers is the pool size used when a caller passes a non-positive count.
const DefaultWorkers = 5

// Result is the outcome of processing one item.
type Result[R any] struct {
	Key   string
	Value R
	Err   error
}

// Run applies fn to every item using at most workers goroutines. A failing
// item does not stop the others; its error is recorded on its Result. Only
// context cancellation aborts the run, in which case unstarted items are
// reported with the context error.
func Run[T, R any](ctx context.Context, workers int, items []T, key func(T) string, fn func(context.Context, T) (R, error)) []Result[R] {
	if workers <= 0 {
		workers = DefaultWorkers
	}

	var (
		mu      sync.Mutex
		results = make([]Result[R], 0, len(items))
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, item := range items {
		k := key(item)
		if err := gCtx.Err(); err != nil {
			mu.Lock()
			results = append(results, Result[R]{Key: k, Err: err})
			mu.Unlock()
			continue
		}

		g.Go(func() error {
			value, err := fn(gCtx, item)
			mu.Lock()
			results = append(results, Result[R]{Key: k, Value: value, Err: err})
			mu.Unlock()
			return nil
		})
	}

	// Item errors live on their Result; no closure returns one, so Wait has
	// nothing to report.
	_ = g.Wait()

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Key < results[j].Key
	})
	return results
}

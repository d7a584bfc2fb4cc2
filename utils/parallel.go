// Package utils contains small helpers shared by the projection packages.
package utils

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ParallelFactor controls the max level of parallelization. This might be useful
// to set in tests where too much parallelism actually slows tests down in
// aggregate.
var ParallelFactor = runtime.GOMAXPROCS(0)

func init() {
	if ParallelFactor <= 0 {
		ParallelFactor = 1
	}
	quarterProcs := float64(ParallelFactor) * .25
	if quarterProcs > 8 {
		ParallelFactor = int(quarterProcs)
	}
}

// IndexedFunc is the unit of work for ParallelForEach.
type IndexedFunc func(ctx context.Context, i int) error

// ParallelForEach calls f for every index in [0, n) on at most ParallelFactor goroutines. The
// first error (or recovered panic) cancels the context handed to the remaining calls and is
// returned once every started call has finished.
func ParallelForEach(ctx context.Context, n int, f IndexedFunc) error {
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(ParallelFactor)
	for i := 0; i < n; i++ {
		workNum := i
		group.Go(func() (err error) {
			defer func() {
				if thePanic := recover(); thePanic != nil {
					err = fmt.Errorf("got panic running something in parallel: %v", thePanic)
				}
			}()
			if err := ctx.Err(); err != nil {
				return err
			}
			return f(ctx, workNum)
		})
	}
	return group.Wait()
}

package strategy

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/wildfunctions/factory_numbers/pkg/solution"
)

// windowFactor is how many jobs per worker are in flight between merges.
const windowFactor = 4

// MaxWorkers bounds the worker count of the parallel strategy.
const MaxWorkers = 1 << 12

func init() {
	Register("parallel", func(o Options) Strategy {
		w := o.Workers
		if w <= 0 {
			w = runtime.NumCPU()
		}
		return &ParallelStrategy{Workers: min(w, MaxWorkers)}
	})
}

// ParallelStrategy runs jobs on a bounded worker group. Jobs are taken in
// windows; every job of a window fills its own store and, once the whole
// window is done, the stores are merged in job order. The result is
// identical to SerialStrategy regardless of scheduling.
type ParallelStrategy struct {
	Workers int
}

func (s *ParallelStrategy) Name() string { return "parallel" }

func (s *ParallelStrategy) Execute(ctx context.Context, task Task) error {
	n := task.Jobs()
	workers := min(max(s.Workers, 1), MaxWorkers)
	window := uint64(workers) * windowFactor
	stores := make([]*solution.Store, window)

	for base := uint64(0); base < n; base += window {
		if err := ctx.Err(); err != nil {
			return err
		}
		count := window
		if n-base < count {
			count = n - base
		}

		g, gCtx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for j := uint64(0); j < count; j++ {
			j := j
			g.Go(func() error {
				if err := gCtx.Err(); err != nil {
					return err
				}
				st := solution.NewStore()
				task.Run(base+j, st)
				stores[j] = st
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		for j := uint64(0); j < count; j++ {
			task.Merge(base+j, stores[j])
			stores[j] = nil
		}
	}
	return nil
}

package strategy

import (
	"context"

	"github.com/wildfunctions/factory_numbers/pkg/solution"
)

func init() {
	Register("serial", func(Options) Strategy { return &SerialStrategy{} })
}

// SerialStrategy runs every job on the calling goroutine.
type SerialStrategy struct{}

func (s *SerialStrategy) Name() string { return "serial" }

func (s *SerialStrategy) Execute(ctx context.Context, task Task) error {
	n := task.Jobs()
	for i := uint64(0); i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		st := solution.NewStore()
		task.Run(i, st)
		task.Merge(i, st)
	}
	return nil
}

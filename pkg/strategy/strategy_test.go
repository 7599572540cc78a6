package strategy

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wildfunctions/factory_numbers/pkg/solution"
)

// countingTask records value i%7+1 for job i and tracks merge order.
type countingTask struct {
	n      uint64
	ran    atomic.Int64
	merged []uint64
	result *solution.Store
}

func newCountingTask(n uint64) *countingTask {
	return &countingTask{n: n, result: solution.NewStore()}
}

func (c *countingTask) Jobs() uint64 { return c.n }

func (c *countingTask) Run(i uint64, dst *solution.Store) {
	c.ran.Add(1)
	dst.Record(int64(i%7)+1, 1, fmt.Sprintf("job%d", i))
}

func (c *countingTask) Merge(i uint64, src *solution.Store) {
	c.merged = append(c.merged, i)
	c.result.Merge(src)
}

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{"parallel", "serial"}, Names())

	for _, name := range Names() {
		s, err := Get(name, Options{Workers: 2})
		require.NoError(t, err)
		assert.Equal(t, name, s.Name())
	}

	_, err := Get("nonexistent", Options{})
	assert.ErrorIs(t, err, ErrUnknown)
}

func TestParallelDefaultsWorkers(t *testing.T) {
	s, err := Get("parallel", Options{})
	require.NoError(t, err)
	assert.Positive(t, s.(*ParallelStrategy).Workers)
}

func TestMergeOrderMatchesSerial(t *testing.T) {
	for _, n := range []uint64{0, 1, 5, 37, 200} {
		serial := newCountingTask(n)
		parallel := newCountingTask(n)

		s, _ := Get("serial", Options{})
		p, _ := Get("parallel", Options{Workers: 3})
		require.NoError(t, s.Execute(context.Background(), serial))
		require.NoError(t, p.Execute(context.Background(), parallel))

		assert.Equal(t, int64(n), parallel.ran.Load(), "n=%d", n)
		assert.Equal(t, serial.merged, parallel.merged, "n=%d", n)
		assert.Equal(t, serial.result.Snapshot(), parallel.result.Snapshot(), "n=%d", n)
		for i, idx := range parallel.merged {
			assert.Equal(t, uint64(i), idx)
		}
	}
}

func TestCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, name := range Names() {
		s, _ := Get(name, Options{Workers: 2})
		task := newCountingTask(100)
		err := s.Execute(ctx, task)
		assert.True(t, errors.Is(err, context.Canceled), "%s: err = %v", name, err)
		assert.Empty(t, task.merged, name)
	}
}

func TestParallelClampsWorkers(t *testing.T) {
	s, err := Get("parallel", Options{Workers: 1 << 62})
	require.NoError(t, err)
	assert.Equal(t, MaxWorkers, s.(*ParallelStrategy).Workers)

	// A hand-built strategy with an absurd count still terminates
	for _, w := range []int{1 << 62, -5} {
		task := newCountingTask(50)
		require.NoError(t, (&ParallelStrategy{Workers: w}).Execute(context.Background(), task))
		assert.Equal(t, int64(50), task.ran.Load(), "workers=%d", w)
		assert.Len(t, task.merged, 50)
	}
}

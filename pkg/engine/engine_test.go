package engine

import (
	"bytes"
	"context"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wildfunctions/factory_numbers/pkg/expr"
	"github.com/wildfunctions/factory_numbers/pkg/pool"
	"github.com/wildfunctions/factory_numbers/pkg/solution"
)

func testConfig(maxNumber int64, maxSize int, ops string) Config {
	cfg := DefaultConfig()
	cfg.MaxNumber = maxNumber
	cfg.MaxSize = maxSize
	cfg.Operations = ops
	cfg.Workers = 3
	return cfg
}

func run(t *testing.T, cfg Config) Report {
	t.Helper()
	e, err := New(cfg)
	require.NoError(t, err)
	report, err := e.Run(context.Background())
	require.NoError(t, err)
	return report
}

func lookup(r Report, v int64) (solution.Solution, bool) {
	for _, s := range r.Solutions {
		if s.Value == v {
			return s, true
		}
	}
	return solution.Solution{}, false
}

func TestEngine_SingleOperands(t *testing.T) {
	report := run(t, testConfig(2, 1, "+,-,*,/"))

	assert.Equal(t, []solution.Solution{
		{Value: 1, Size: 1, Representations: []string{"1"}},
		{Value: 2, Size: 1, Representations: []string{"2"}},
	}, report.Solutions)
	assert.Equal(t, int64(2), report.MaxValue)
	assert.NotEmpty(t, report.RunID)
}

func TestEngine_KnownFixture(t *testing.T) {
	report := run(t, testConfig(11, 2, "+,*"))

	s, ok := lookup(report, 12)
	require.True(t, ok)
	assert.Equal(t, 2, s.Size)
	assert.Equal(t, []string{
		"(11+1)", "(10+2)", "(9+3)", "(8+4)", "(7+5)", "(6+6)",
		"(5+7)", "(4+8)", "(3+9)", "(2+10)", "(1+11)",
		"(6*2)", "(4*3)", "(3*4)", "(2*6)",
	}, s.Representations)

	// Values reachable with one operand keep size 1
	s, ok = lookup(report, 6)
	require.True(t, ok)
	assert.Equal(t, 1, s.Size)
	assert.Equal(t, []string{"6"}, s.Representations)

	require.Len(t, report.Sizes, 2)
	assert.Equal(t, uint64(11), report.Sizes[0].Accepted)
	assert.Equal(t, uint64(242), report.Sizes[1].Assignments)
	assert.Equal(t, uint64(242), report.Sizes[1].Evaluations)
	assert.Equal(t, uint64(242), report.Sizes[1].Accepted)
	assert.Equal(t, int64(121), report.MaxValue)
}

func TestEngine_DivisionExactness(t *testing.T) {
	p, err := pool.New(6, []expr.Operator{expr.OpDiv})
	require.NoError(t, err)
	jobs, _ := p.JobCount(2)

	// Run size 2 alone against an empty table so size 1 cannot shadow it
	task := &sizeTask{
		pool:    p,
		size:    2,
		shapes:  expr.Shapes(2),
		global:  solution.NewStore(),
		result:  solution.NewStore(),
		jobs:    jobs,
		metrics: NewMetrics(nil),
	}
	for i := uint64(0); i < jobs; i++ {
		st := solution.NewStore()
		task.Run(i, st)
		task.Merge(i, st)
	}

	s, ok := task.result.Lookup(3)
	require.True(t, ok)
	assert.Contains(t, s.Representations, "(6/2)")
	assert.Contains(t, s.Representations, "(3/1)")

	for _, sol := range task.result.Snapshot() {
		assert.NotContains(t, sol.Representations, "(3/2)")
	}
	assert.Positive(t, task.counts[expr.DivisionFailure].Load())
}

func TestEngine_RoundTrip(t *testing.T) {
	report := run(t, testConfig(4, 3, "+,-,*,/"))
	require.NotEmpty(t, report.Solutions)

	for _, s := range report.Solutions {
		assert.Positive(t, s.Value)
		for _, repr := range s.Representations {
			e, err := expr.Parse(repr)
			require.NoError(t, err, repr)
			v, err := e.Rat()
			require.NoError(t, err, repr)
			assert.True(t, v.IsInt() && v.Num().Int64() == s.Value, "%s = %s, listed under %d", repr, v.RatString(), s.Value)
			assert.Equal(t, s.Size, e.Size(), repr)
		}
	}
}

func TestEngine_Monotonicity(t *testing.T) {
	small := run(t, testConfig(4, 2, "+,-,*,/"))
	large := run(t, testConfig(4, 3, "+,-,*,/"))

	for _, s := range small.Solutions {
		l, ok := lookup(large, s.Value)
		require.True(t, ok, "value %d disappeared", s.Value)
		assert.Equal(t, s.Size, l.Size, "value %d", s.Value)
		assert.Equal(t, s.Representations, l.Representations, "value %d", s.Value)
	}
	assert.GreaterOrEqual(t, len(large.Solutions), len(small.Solutions))
}

func TestEngine_IdempotentAcrossStrategies(t *testing.T) {
	var outputs []string
	for _, strat := range []string{"serial", "parallel", "parallel"} {
		cfg := testConfig(5, 3, "+,-,*,/")
		cfg.Strategy = strat
		report := run(t, cfg)

		var buf bytes.Buffer
		require.NoError(t, WriteText(&buf, report, TextOptions{}))
		outputs = append(outputs, buf.String())
	}
	assert.Equal(t, outputs[0], outputs[1])
	assert.Equal(t, outputs[1], outputs[2])
}

func TestEngine_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	e, err := New(testConfig(2, 2, "+"), WithMetrics(m))
	require.NoError(t, err)
	_, err = e.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, float64(6), testutil.ToFloat64(m.Evaluations.WithLabelValues("accepted")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.Evaluations.WithLabelValues("division")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.SizesCompleted))
	assert.Equal(t, float64(4), testutil.ToFloat64(m.Values))

	count, err := testutil.GatherAndCount(reg, "factory_numbers_evaluations_total")
	require.NoError(t, err)
	assert.Equal(t, len(expr.Reasons()), count)
}

func TestEngine_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e, err := New(testConfig(3, 3, "+,*"))
	require.NoError(t, err)
	report, err := e.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, report.Sizes)
	assert.Empty(t, report.Solutions)
}

func TestEngine_InvalidConfig(t *testing.T) {
	cases := map[string]func(*Config){
		"max number": func(c *Config) { c.MaxNumber = 0 },
		"max size":   func(c *Config) { c.MaxSize = -1 },
		"operations": func(c *Config) { c.Operations = "+,^" },
		"strategy":   func(c *Config) { c.Strategy = "nonexistent" },
		"format":     func(c *Config) { c.Format = "xml" },
		"log level":  func(c *Config) { c.LogLevel = "loud" },
		"limit":      func(c *Config) { c.Limit = -2 },
		"workers":    func(c *Config) { c.Workers = -1 },
		"too many":   func(c *Config) { c.Workers = 1 << 62 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := testConfig(3, 2, "+")
			mutate(&cfg)
			_, err := New(cfg)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestEngine_Logging(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)

	e, err := New(testConfig(2, 2, "+,*"), WithLogger(logger))
	require.NoError(t, err)
	report, err := e.Run(context.Background())
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "starting search")
	assert.Equal(t, 2, strings.Count(out, "size complete"))
	assert.Contains(t, out, report.RunID)
}

// stopAfterContext reports cancellation once Err has been called more than
// n times.
type stopAfterContext struct {
	context.Context
	n     int64
	calls atomic.Int64
}

func (c *stopAfterContext) Err() error {
	if c.calls.Add(1) > c.n {
		return context.Canceled
	}
	return nil
}

func TestEngine_CancelledMidSize(t *testing.T) {
	cfg := testConfig(11, 2, "+,*")
	cfg.Strategy = "serial"
	e, err := New(cfg)
	require.NoError(t, err)

	// Size 1 checks once per job (11), then size 2 runs 5 of its 22 jobs
	ctx := &stopAfterContext{Context: context.Background(), n: 16}
	report, err := e.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, report.Sizes, 1)

	require.Len(t, report.Solutions, 11)
	for _, s := range report.Solutions {
		assert.Equal(t, 1, s.Size, "value %d", s.Value)
	}
	_, ok := lookup(report, 12)
	assert.False(t, ok, "value 12 leaked from the interrupted size")
	assert.Equal(t, int64(11), report.MaxValue)
}

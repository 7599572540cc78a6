package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wildfunctions/factory_numbers/pkg/expr"
	"github.com/wildfunctions/factory_numbers/pkg/logging"
	"github.com/wildfunctions/factory_numbers/pkg/pool"
	"github.com/wildfunctions/factory_numbers/pkg/solution"
	"github.com/wildfunctions/factory_numbers/pkg/strategy"
)

const tracerName = "github.com/wildfunctions/factory_numbers/pkg/engine"

// Engine runs the exhaustive expression search.
type Engine struct {
	cfg      Config
	pool     pool.Pool
	strategy strategy.Strategy
	logger   *slog.Logger
	metrics  *Metrics
	tracer   trace.Tracer
}

// Option customizes an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics sets the metrics sink. The default is unregistered.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// New creates a new engine from the given config.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ops, err := pool.ResolveOperators(cfg.Operations)
	if err != nil {
		return nil, err
	}
	p, err := pool.New(cfg.MaxNumber, ops)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	s, err := strategy.Get(cfg.Strategy, strategy.Options{Workers: cfg.Workers})
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:      cfg,
		pool:     p,
		strategy: s,
		logger:   logging.Discard(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, o := range opts {
		o(e)
	}
	if e.metrics == nil {
		e.metrics = NewMetrics(nil)
	}
	return e, nil
}

// Run searches sizes 1..MaxSize in increasing order and returns the final
// table. Sizes are processed one at a time so a value's first recorded size
// is its minimal one.
//
// Cancellation is checked between jobs. A cancelled run returns the report
// for the sizes completed so far along with ctx.Err().
func (e *Engine) Run(ctx context.Context) (Report, error) {
	runID := uuid.NewString()
	logger := e.logger.With("run_id", runID)

	ctx, span := e.tracer.Start(ctx, "engine.Run", trace.WithAttributes(
		attribute.String("run_id", runID),
		attribute.Int64("max_number", e.cfg.MaxNumber),
		attribute.Int("max_size", e.cfg.MaxSize),
		attribute.String("operations", expr.FormatOperators(e.pool.Operators)),
		attribute.String("strategy", e.strategy.Name()),
	))
	defer span.End()

	logger.Info("starting search",
		"max_number", e.cfg.MaxNumber,
		"max_size", e.cfg.MaxSize,
		"operations", expr.FormatOperators(e.pool.Operators),
		"strategy", e.strategy.Name(),
		"workers", e.cfg.Workers)

	start := time.Now()
	store := solution.NewStore()
	report := Report{RunID: runID, Config: e.cfg}

	finish := func() {
		report.Solutions = store.Snapshot()
		report.MaxValue = store.MaxValue()
		report.DurationMS = time.Since(start).Milliseconds()
	}

	for size := 1; size <= e.cfg.MaxSize; size++ {
		sr, err := e.runSize(ctx, size, store, logger)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			logger.Warn("search stopped", "size", size, "error", err)
			finish()
			return report, err
		}
		report.Sizes = append(report.Sizes, sr)
	}

	finish()
	span.SetAttributes(attribute.Int("values", len(report.Solutions)))
	logger.Info("search complete",
		"values", len(report.Solutions),
		"max_value", report.MaxValue,
		"duration_ms", report.DurationMS)
	return report, nil
}

func (e *Engine) runSize(ctx context.Context, size int, store *solution.Store, logger *slog.Logger) (SizeReport, error) {
	jobs, ok := e.pool.JobCount(size)
	if !ok {
		return SizeReport{}, fmt.Errorf("size %d: job count exceeds uint64", size)
	}
	shapes := expr.Shapes(size)

	ctx, span := e.tracer.Start(ctx, "engine.size", trace.WithAttributes(
		attribute.Int("size", size),
		attribute.Int("shapes", len(shapes)),
		attribute.Int64("jobs", int64(jobs)),
	))
	defer span.End()

	logger.Debug("size started", "size", size, "shapes", len(shapes), "jobs", jobs)

	start := time.Now()
	before := store.Len()
	task := &sizeTask{
		pool:    e.pool,
		size:    size,
		shapes:  shapes,
		global:  store,
		result:  solution.NewStore(),
		jobs:    jobs,
		metrics: e.metrics,
	}
	if err := e.strategy.Execute(ctx, task); err != nil {
		span.RecordError(err)
		return SizeReport{}, err
	}
	// Only a finished size reaches the table; an interrupted one would
	// list partial representation sets.
	store.Merge(task.result)
	elapsed := time.Since(start)

	sr := SizeReport{
		Size:       size,
		Shapes:     len(shapes),
		Rejected:   make(map[string]uint64),
		NewValues:  store.Len() - before,
		DurationMS: elapsed.Milliseconds(),
	}
	if n, ok := e.pool.Count(size); ok {
		sr.Assignments = n
	}
	for _, r := range expr.Reasons() {
		n := task.counts[r].Load()
		sr.Evaluations += n
		if r == expr.Accepted {
			sr.Accepted = n
		} else {
			sr.Rejected[r.String()] = n
		}
	}

	e.metrics.SizesCompleted.Inc()
	e.metrics.SizeDuration.Observe(elapsed.Seconds())
	e.metrics.Values.Set(float64(store.Len()))
	span.SetAttributes(
		attribute.Int64("accepted", int64(sr.Accepted)),
		attribute.Int("new_values", sr.NewValues),
	)

	logger.Info("size complete",
		"size", size,
		"shapes", sr.Shapes,
		"evaluations", sr.Evaluations,
		"accepted", sr.Accepted,
		"new_values", sr.NewValues,
		"values", store.Len(),
		"duration_ms", sr.DurationMS)
	return sr, nil
}

// sizeTask evaluates every shape of one size against the assignments of
// each pool job. Jobs read global, which holds only smaller sizes, to skip
// values already reached; finished jobs are merged into result.
type sizeTask struct {
	pool    pool.Pool
	size    int
	shapes  []*expr.Node
	global  *solution.Store
	result  *solution.Store
	jobs    uint64
	metrics *Metrics
	counts  [4]atomic.Uint64 // indexed by expr.Reason
}

func (t *sizeTask) Jobs() uint64 { return t.jobs }

func (t *sizeTask) Run(i uint64, dst *solution.Store) {
	var counts [4]uint64
	buf := make([]byte, 0, 8*t.size)

	c := t.pool.JobCursor(t.pool.Job(t.size, i))
	for c.Next() {
		leaves, ops := c.Leaves(), c.Ops()
		for _, s := range t.shapes {
			out := expr.Evaluate(s, leaves, ops)
			counts[out.Reason]++
			if !out.OK() || !t.global.Accepts(out.Value, t.size) {
				continue
			}
			buf = expr.AppendRender(buf[:0], s, leaves, ops)
			dst.Record(out.Value, t.size, string(buf))
		}
	}

	for r, n := range counts {
		if n == 0 {
			continue
		}
		t.counts[r].Add(n)
		t.metrics.Evaluations.WithLabelValues(expr.Reason(r).String()).Add(float64(n))
	}
}

func (t *sizeTask) Merge(_ uint64, src *solution.Store) {
	t.result.Merge(src)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/wildfunctions/factory_numbers/pkg/engine"
	"github.com/wildfunctions/factory_numbers/pkg/expr"
	"github.com/wildfunctions/factory_numbers/pkg/logging"
	"github.com/wildfunctions/factory_numbers/pkg/pool"
	"github.com/wildfunctions/factory_numbers/pkg/strategy"
)

type searchOptions struct {
	cfg         engine.Config
	configPath  string
	metricsAddr string
	trace       bool
	summary     bool
}

func newRootCmd() *cobra.Command {
	opts := &searchOptions{cfg: engine.DefaultConfig()}

	root := &cobra.Command{
		Use:   "factory_numbers",
		Short: "Find the smallest expressions that produce each hub number",
		Long: `factory_numbers enumerates every arithmetic expression over the operands
1..max-number with at most max-size operands and prints, for every positive
integer it reaches, the minimal number of operands and all expressions of
that size.`,
		Example:       "  factory_numbers --max-number 11 --max-size 2 --operations +,*",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSearch(cmd, opts)
		},
	}

	f := root.Flags()
	f.Int64Var(&opts.cfg.MaxNumber, "max-number", 0, "largest operand (required)")
	f.IntVar(&opts.cfg.MaxSize, "max-size", 0, "largest number of operands (required)")
	f.StringVar(&opts.cfg.Operations, "operations", opts.cfg.Operations,
		"comma-separated operators from +,-,*,/ or a preset ("+strings.Join(pool.PresetNames(), ", ")+")")
	f.StringVar(&opts.cfg.Strategy, "strategy", opts.cfg.Strategy, "scheduling strategy ("+strings.Join(strategy.Names(), ", ")+")")
	f.IntVar(&opts.cfg.Workers, "workers", opts.cfg.Workers, "number of parallel workers")
	f.StringVar(&opts.cfg.Format, "format", opts.cfg.Format, "output format (text, json)")
	f.BoolVar(&opts.cfg.ShowMissing, "show-missing", false, "also print unreachable values up to the largest one found")
	f.IntVar(&opts.cfg.Limit, "limit", 0, "max expressions printed per value (0 = all)")
	f.StringVar(&opts.cfg.LogLevel, "log-level", opts.cfg.LogLevel, "log level (debug, info, warn, error)")
	f.StringVar(&opts.configPath, "config", "", "YAML config file")
	f.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address during the run")
	f.BoolVar(&opts.trace, "trace", false, "write OpenTelemetry spans to stderr")
	f.BoolVar(&opts.summary, "summary", false, "print a per-size summary to stderr")

	root.AddCommand(newEvalCmd())
	return root
}

// resolveConfig layers defaults, config file and environment, then any flag
// the user set explicitly.
func resolveConfig(cmd *cobra.Command, opts *searchOptions) (engine.Config, error) {
	cfg, err := engine.LoadConfig(opts.configPath)
	if err != nil {
		return cfg, err
	}
	f := cmd.Flags()
	if f.Changed("max-number") {
		cfg.MaxNumber = opts.cfg.MaxNumber
	}
	if f.Changed("max-size") {
		cfg.MaxSize = opts.cfg.MaxSize
	}
	if f.Changed("operations") {
		cfg.Operations = opts.cfg.Operations
	}
	if f.Changed("strategy") {
		cfg.Strategy = opts.cfg.Strategy
	}
	if f.Changed("workers") {
		cfg.Workers = opts.cfg.Workers
	}
	if f.Changed("format") {
		cfg.Format = opts.cfg.Format
	}
	if f.Changed("show-missing") {
		cfg.ShowMissing = opts.cfg.ShowMissing
	}
	if f.Changed("limit") {
		cfg.Limit = opts.cfg.Limit
	}
	if f.Changed("log-level") {
		cfg.LogLevel = opts.cfg.LogLevel
	}
	return cfg, cfg.Validate()
}

func runSearch(cmd *cobra.Command, opts *searchOptions) error {
	cfg, err := resolveConfig(cmd, opts)
	if err != nil {
		return err
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := logging.New(logging.Config{Level: level, Writer: cmd.ErrOrStderr(), Service: "factory_numbers"})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.trace {
		shutdown, err := setupTracing(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.Warn("trace shutdown failed", "error", err)
			}
		}()
	}

	reg := prometheus.NewRegistry()
	metrics := engine.NewMetrics(reg)
	if opts.metricsAddr != "" {
		srv, err := serveMetrics(opts.metricsAddr, reg, logger)
		if err != nil {
			return err
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			stopMetrics(sctx, srv, logger)
		}()
	}

	e, err := engine.New(cfg, engine.WithLogger(logger), engine.WithMetrics(metrics))
	if err != nil {
		return err
	}

	report, runErr := e.Run(ctx)

	// A cancelled run still prints what it found
	out := cmd.OutOrStdout()
	switch cfg.Format {
	case "json":
		err = engine.WriteJSON(out, report)
	default:
		err = engine.WriteText(out, report, engine.TextOptions{ShowMissing: cfg.ShowMissing, Limit: cfg.Limit})
	}
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if opts.summary {
		engine.WriteSizeSummary(cmd.ErrOrStderr(), report)
	}
	return runErr
}

func setupTracing(w io.Writer) (func(context.Context) error, error) {
	exp, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

// serveMetrics binds addr before returning so a bad address fails the run
// up front. srv.Addr holds the bound address.
func serveMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listen %s: %w", addr, err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: ln.Addr().String(), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "addr", srv.Addr, "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", srv.Addr)
	return srv, nil
}

func stopMetrics(ctx context.Context, srv *http.Server, logger *slog.Logger) {
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("metrics server shutdown failed", "addr", srv.Addr, "error", err)
	}
}

func newEvalCmd() *cobra.Command {
	var operations string
	cmd := &cobra.Command{
		Use:   "eval EXPRESSION",
		Short: "Evaluate one expression under the factory rules",
		Long: `eval parses an infix expression, prints its exact value and size, and
reports whether the factories can build it: every division exact, no
overflow, and a positive result.`,
		Example: `  factory_numbers eval "(6/2)"
  factory_numbers eval "3*4+1" --operations +,*`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			allowed, err := pool.ResolveOperators(operations)
			if err != nil {
				return err
			}
			return runEval(cmd.OutOrStdout(), args[0], allowed)
		},
	}
	cmd.Flags().StringVar(&operations, "operations", "+,-,*,/", "operators the factories may use, as a list or a preset name")
	return cmd
}

func runEval(w io.Writer, input string, allowed []expr.Operator) error {
	e, err := expr.Parse(input)
	if err != nil {
		return err
	}
	shape, leaves, ops := e.Assignment()

	fmt.Fprintf(w, "expression: %s\n", e.String())
	fmt.Fprintf(w, "size:       %d\n", e.Size())
	if v, err := e.Rat(); err != nil {
		fmt.Fprintf(w, "exact:      undefined (%v)\n", err)
	} else {
		fmt.Fprintf(w, "exact:      %s\n", v.RatString())
	}

	for _, op := range ops {
		if !containsOp(allowed, op) {
			fmt.Fprintf(w, "factory:    rejected (operator %s not enabled)\n", op)
			return nil
		}
	}
	for _, v := range leaves {
		if v < 1 {
			fmt.Fprintf(w, "factory:    rejected (operand %d below 1)\n", v)
			return nil
		}
	}
	out := expr.Evaluate(shape, leaves, ops)
	if !out.OK() {
		fmt.Fprintf(w, "factory:    rejected (%s)\n", out.Reason)
		return nil
	}
	fmt.Fprintf(w, "factory:    %d\n", out.Value)
	return nil
}

func containsOp(ops []expr.Operator, op expr.Operator) bool {
	for _, o := range ops {
		if o == op {
			return true
		}
	}
	return false
}

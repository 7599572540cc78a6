package strategy

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/wildfunctions/factory_numbers/pkg/solution"
)

// ErrUnknown is returned by Get for an unregistered strategy name.
var ErrUnknown = errors.New("unknown strategy")

// Task is the work for one expression size, split into numbered jobs.
type Task interface {
	// Jobs returns the number of jobs.
	Jobs() uint64
	// Run evaluates job i into dst, a store private to this call.
	Run(i uint64, dst *solution.Store)
	// Merge folds the store of a finished job into the shared result. It is
	// called from one goroutine at a time, in ascending job order.
	Merge(i uint64, src *solution.Store)
}

// Strategy schedules the jobs of a Task.
type Strategy interface {
	Name() string
	Execute(ctx context.Context, task Task) error
}

// Options configures a strategy at construction.
type Options struct {
	Workers int
}

var registry = map[string]func(Options) Strategy{}

// Register adds a strategy constructor to the registry.
func Register(name string, constructor func(Options) Strategy) {
	registry[name] = constructor
}

// Get returns a strategy by name.
func Get(name string, opts Options) (Strategy, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s (available: %v)", ErrUnknown, name, Names())
	}
	return ctor(opts), nil
}

// Names returns all registered strategy names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for k := range registry {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

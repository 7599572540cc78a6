package pool

import (
	"sort"

	"github.com/wildfunctions/factory_numbers/pkg/expr"
)

// Named operator sets, usable wherever an operator list is accepted.
var presets = map[string][]expr.Operator{}

// RegisterPreset adds a named operator set.
func RegisterPreset(name string, ops []expr.Operator) {
	presets[name] = ops
}

func init() {
	// + and * never reject a positive assignment short of overflow
	RegisterPreset("conservative", []expr.Operator{expr.OpAdd, expr.OpMul})
	RegisterPreset("moderate", []expr.Operator{expr.OpAdd, expr.OpSub, expr.OpMul})
	RegisterPreset("kitchensink", expr.AllOperators())
}

// PresetNames returns all registered preset names, sorted.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for k := range presets {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// ResolveOperators accepts a preset name or a comma-separated operator list.
func ResolveOperators(s string) ([]expr.Operator, error) {
	if ops, ok := presets[s]; ok {
		return append([]expr.Operator(nil), ops...), nil
	}
	return expr.ParseOperators(s)
}

// Package script applies an optional, user-supplied Starlark predicate
// to a Final Trace after the normalizer's own passes have run — strictly
// additive filtering, never a substitute for Pass A-D (spec §4.5). This
// mirrors delve's own embedded Starlark support for user-scripted
// debugger commands.
package script

import (
	"fmt"

	"go.starlark.net/starlark"

	"github.com/knazir/pgtrace/pkg/normalizer"
)

// Predicate is a Starlark source fragment that must assign a bool to the
// global `keep`, given the globals `line`, `func_name` and `event` bound
// to the current Execution Point.
type Predicate struct {
	Source string
}

// Apply evaluates p against every point in ft.Trace, keeping only those
// for which the predicate assigns keep = True. The input slice is not
// mutated; a new FinalTrace is returned.
func (p Predicate) Apply(ft *normalizer.FinalTrace) (*normalizer.FinalTrace, error) {
	kept := make([]*normalizer.ExecutionPoint, 0, len(ft.Trace))
	for _, point := range ft.Trace {
		ok, err := p.evaluate(point)
		if err != nil {
			return nil, err
		}
		if ok {
			kept = append(kept, point)
		}
	}
	return normalizer.AssembleFromSource(ft.Code, kept), nil
}

func (p Predicate) evaluate(point *normalizer.ExecutionPoint) (bool, error) {
	thread := &starlark.Thread{Name: "pgtrace-filter"}
	predeclared := starlark.StringDict{
		"line":      starlark.MakeInt(point.Line),
		"func_name": starlark.String(point.FuncName),
		"event":     starlark.String(string(point.Event)),
	}

	globals, err := starlark.ExecFile(thread, "filter.star", p.Source, predeclared)
	if err != nil {
		return false, fmt.Errorf("evaluate filter predicate: %w", err)
	}

	keep, ok := globals["keep"]
	if !ok {
		return false, fmt.Errorf("filter predicate did not assign `keep`")
	}
	return bool(keep.Truth()), nil
}

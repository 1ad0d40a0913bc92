package script

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knazir/pgtrace/pkg/normalizer"
)

func tracePoints() *normalizer.FinalTrace {
	return &normalizer.FinalTrace{
		Code: "int main(){}",
		Trace: []*normalizer.ExecutionPoint{
			{Line: 1, FuncName: "main", Event: normalizer.EventStepLine},
			{Line: 2, FuncName: "helper", Event: normalizer.EventCall},
			{Line: 3, FuncName: "helper", Event: normalizer.EventReturn},
		},
	}
}

func TestApplyKeepsOnlyMatchingPoints(t *testing.T) {
	p := Predicate{Source: "keep = func_name == 'helper'"}

	out, err := p.Apply(tracePoints())
	require.NoError(t, err)
	require.Len(t, out.Trace, 2)
	for _, pt := range out.Trace {
		assert.Equal(t, "helper", pt.FuncName)
	}
}

func TestApplyMissingKeepAssignmentErrors(t *testing.T) {
	p := Predicate{Source: "x = 1"}
	_, err := p.Apply(tracePoints())
	assert.Error(t, err)
}

func TestApplyPreservesSourceCode(t *testing.T) {
	p := Predicate{Source: "keep = True"}
	out, err := p.Apply(tracePoints())
	require.NoError(t, err)
	assert.Equal(t, "int main(){}", out.Code)
}

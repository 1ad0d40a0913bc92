package normalizer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func joinRecords(records ...string) []byte {
	var b strings.Builder
	for _, r := range records {
		b.WriteString(r)
		b.WriteString("\n")
		b.WriteString(RecordSeparator)
		b.WriteString("\n")
	}
	return []byte(b.String())
}

func TestNormalizeEmptyInput(t *testing.T) {
	ft, err := Normalize(context.Background(), []byte{}, "int main(){}", Options{})
	require.NoError(t, err)
	assert.Equal(t, "int main(){}", ft.Code)
	assert.Empty(t, ft.Trace)
}

func TestNormalizeSingleValidRecord(t *testing.T) {
	rec := `{
		"line": 1,
		"stack": [
			{"func_name": "main", "FP": "0xA", "ordered_varnames": ["x"],
			 "locals": {"x": {"kind": "base", "addr": "0x1", "type": "int", "val": 42}}}
		]
	}`
	trace := joinRecords(rec)

	ft, err := Normalize(context.Background(), trace, "src", Options{})
	require.NoError(t, err)
	require.Len(t, ft.Trace, 1)

	p := ft.Trace[0]
	assert.Equal(t, EventReturn, p.Event)
	require.Len(t, p.StackToRender, 1)
	frame := p.StackToRender[0]
	assert.Equal(t, []any{"C_DATA", "0x1", "int", float64(42)}, []any(frame.EncodedLocals["x"]))
}

func TestNormalizeCallReturnLabeling(t *testing.T) {
	rec1 := `{"line": 1, "stack": [{"func_name": "main", "FP": "0xA", "ordered_varnames": [], "locals": {}}]}`
	rec2 := `{"line": 10, "stack": [
		{"func_name": "foo", "FP": "0xB", "ordered_varnames": [], "locals": {}},
		{"func_name": "main", "FP": "0xA", "ordered_varnames": [], "locals": {}}
	]}`
	rec3 := `{"line": 2, "stack": [{"func_name": "main", "FP": "0xA", "ordered_varnames": [], "locals": {}}]}`

	trace := joinRecords(rec1, rec2, rec3)
	ft, err := Normalize(context.Background(), trace, "src", Options{})
	require.NoError(t, err)
	require.Len(t, ft.Trace, 3)

	assert.Equal(t, EventStepLine, ft.Trace[0].Event)
	// Pass C first labels point 1 a call, then relabels it a return once
	// point 2 pops foo's frame; point 2 gets the terminal return.
	assert.Equal(t, EventReturn, ft.Trace[1].Event)
	assert.Equal(t, EventReturn, ft.Trace[2].Event)
}

func TestNormalizeNoiseFilter(t *testing.T) {
	rec1 := `{"line": 1, "stack": [{"func_name": "main", "FP": "0xA", "ordered_varnames": [], "locals": {}}]}`
	recBogus := `{"line": 5, "stack": [{"func_name": "foo", "FP": "0xB", "ordered_varnames": [], "locals": {}}]}`
	rec2 := `{"line": 10, "stack": [
		{"func_name": "foo", "FP": "0xB", "ordered_varnames": [], "locals": {}},
		{"func_name": "main", "FP": "0xA", "ordered_varnames": [], "locals": {}}
	]}`

	trace := joinRecords(rec1, recBogus, rec2)
	ft, err := Normalize(context.Background(), trace, "src", Options{})
	require.NoError(t, err)
	require.Len(t, ft.Trace, 2)
	// Pass C labels point 1 a call; as the last point, Pass D then
	// overwrites it with the terminal return.
	assert.Equal(t, EventReturn, ft.Trace[1].Event)
}

func TestNormalizeDuplicateLineCollapse(t *testing.T) {
	rec := `{"line": 5, "stack": [{"func_name": "main", "FP": "0xA", "ordered_varnames": [], "locals": {}}]}`
	trace := joinRecords(rec, rec, rec)

	ft, err := Normalize(context.Background(), trace, "src", Options{})
	require.NoError(t, err)
	// The terminal-event override (Pass D) runs before the dedup loop and
	// only touches the last point, so entering the loop the sequence is
	// [step_line, step_line, return]: point 2 collapses into point 1 (both
	// step_line, same line, same frames), but point 3 no longer matches
	// the dedup condition once it's been overwritten to "return".
	require.Len(t, ft.Trace, 2)
	assert.Equal(t, EventStepLine, ft.Trace[0].Event)
	assert.Equal(t, 5, ft.Trace[0].Line)
	assert.Equal(t, EventReturn, ft.Trace[1].Event)
	assert.Equal(t, 5, ft.Trace[1].Line)
}

func TestNormalizePointerToHeap(t *testing.T) {
	rec := `{
		"line": 1,
		"stack": [{
			"func_name": "main", "FP": "0xA", "ordered_varnames": ["p"],
			"locals": {
				"p": {
					"kind": "pointer", "addr": "0xP", "val": "0xH",
					"deref_val": {
						"kind": "heap_block", "addr": "0xH",
						"val": [
							{"kind": "base", "addr": "0xH", "type": "int", "val": 1},
							{"kind": "base", "addr": "0xH4", "type": "int", "val": 2}
						]
					}
				}
			}
		}]
	}`
	trace := joinRecords(rec)
	ft, err := Normalize(context.Background(), trace, "src", Options{})
	require.NoError(t, err)
	require.Len(t, ft.Trace, 1)

	p := ft.Trace[0]
	heapBlock, ok := p.Heap["0xH"]
	require.True(t, ok)
	assert.Equal(t, "C_ARRAY", heapBlock[0])
	assert.Equal(t, "0xH", heapBlock[1])
	require.Len(t, heapBlock, 4)

	local := p.StackToRender[0].EncodedLocals["p"]
	assert.Equal(t, []any{"C_DATA", "0xP", "pointer", "0xH"}, []any(local))
}

func TestNormalizeParseFailureLatchesException(t *testing.T) {
	good := `{"line": 1, "stack": [{"func_name": "main", "FP": "0xA", "ordered_varnames": [], "locals": {}}]}`
	bad := `{not valid json`

	trace := joinRecords(good, bad)
	ft, err := Normalize(context.Background(), trace, "src", Options{})
	require.NoError(t, err)
	require.Len(t, ft.Trace, 1)
	assert.Equal(t, EventException, ft.Trace[0].Event)
	assert.NotEmpty(t, ft.Trace[0].ExceptionMsg)
}

func TestNormalizeDropsZeroFramePointer(t *testing.T) {
	bogus := `{"line": 1, "stack": [{"func_name": "main", "FP": "0x0", "ordered_varnames": [], "locals": {}}]}`
	trace := joinRecords(bogus)

	ft, err := Normalize(context.Background(), trace, "src", Options{})
	require.NoError(t, err)
	assert.Empty(t, ft.Trace)
}

func TestNormalizeInvalidFuncNameIsInvariantViolation(t *testing.T) {
	bogus := `{"line": 1, "stack": [{"func_name": "???", "FP": "0xA", "ordered_varnames": [], "locals": {}}]}`
	trace := joinRecords(bogus)

	_, err := Normalize(context.Background(), trace, "src", Options{})
	require.Error(t, err)
	var iv *InvariantViolation
	assert.ErrorAs(t, err, &iv)
}

func TestNormalizeEmptyStackSkipped(t *testing.T) {
	rec := `{"line": 1, "stack": []}`
	trace := joinRecords(rec)

	ft, err := Normalize(context.Background(), trace, "src", Options{})
	require.NoError(t, err)
	assert.Empty(t, ft.Trace)
}

func TestCompileErrorTraceDiagnostic(t *testing.T) {
	et := CompileErrorTrace("usercode.cpp:3:5: error: expected ';'", "int main(){}", "usercode.cpp")
	require.Len(t, et.Trace, 1)
	assert.Equal(t, EventUncaughtException, et.Trace[0].Event)
	assert.Equal(t, "error: expected ';'", et.Trace[0].ExceptionMsg)
	require.NotNil(t, et.Trace[0].Line)
	assert.Equal(t, 3, *et.Trace[0].Line)
}

func TestCompileErrorTraceLinkerError(t *testing.T) {
	diag := "/tmp/build/./usercode.c:2: undefined reference to `asdf'"
	et := CompileErrorTrace(diag, "int main(){}", "usercode.c")
	require.Len(t, et.Trace, 1)
	require.NotNil(t, et.Trace[0].Line)
	assert.Equal(t, 2, *et.Trace[0].Line)
}

func TestCompileErrorTraceUnknown(t *testing.T) {
	et := CompileErrorTrace("ld: some obscure failure", "int main(){}", "usercode.c")
	require.Len(t, et.Trace, 1)
	assert.Equal(t, unknownCompilerErrorMsg, et.Trace[0].ExceptionMsg)
	assert.Nil(t, et.Trace[0].Line)
}

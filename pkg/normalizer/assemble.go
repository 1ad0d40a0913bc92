package normalizer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// FinalTrace is the output object: the original source text alongside
// the ordered sequence of Execution Points.
type FinalTrace struct {
	Code  string            `json:"code"`
	Trace []*ExecutionPoint `json:"trace"`
}

// finalTraceJSON mirrors FinalTrace field-for-field but exists only so
// MarshalJSON can hand json.Marshal a type with no MarshalJSON method of
// its own (marshaling *FinalTrace there would recurse); the result then
// goes through sortJSONKeys, since spec §4.6 requires sorted keys, not
// merely stable ones.
type finalTraceJSON struct {
	Code  string            `json:"code"`
	Trace []*ExecutionPoint `json:"trace"`
}

// MarshalJSON emits FinalTrace with every object's keys sorted, as
// required for deterministic output (spec §4.6, §8 idempotence).
func (ft *FinalTrace) MarshalJSON() ([]byte, error) {
	raw, err := json.Marshal(finalTraceJSON{Code: ft.Code, Trace: ft.Trace})
	if err != nil {
		return nil, err
	}
	return sortJSONKeys(raw)
}

// sortJSONKeys re-encodes arbitrary JSON with every object's keys in
// sorted order, recursively. encoding/json already sorts map[string]any
// keys when marshaling, so round-tripping through json.RawMessage ->
// any -> json.Marshal is sufficient and avoids hand-writing a sorting
// encoder.
func sortJSONKeys(raw []byte) ([]byte, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	out := buf.Bytes()
	// json.Encoder.Encode appends a trailing newline; trim it so callers
	// control their own framing.
	return bytes.TrimSuffix(out, []byte("\n")), nil
}

// Assemble loads the original source text and produces the Final Trace.
// Per spec §4.6, the conventional location is the trace's basename with
// a .c extension, falling back to .cpp.
func Assemble(basename string, trace []*ExecutionPoint) (*FinalTrace, error) {
	code, err := loadSource(basename)
	if err != nil {
		return nil, err
	}
	return &FinalTrace{Code: code, Trace: trace}, nil
}

// AssembleFromSource builds the Final Trace directly from already-loaded
// source text (the shape the caller-facing Normalize API uses, since the
// surrounding pipeline — not the normalizer — owns source-file I/O).
func AssembleFromSource(sourceText string, trace []*ExecutionPoint) *FinalTrace {
	if trace == nil {
		trace = []*ExecutionPoint{}
	}
	return &FinalTrace{Code: sourceText, Trace: trace}
}

func loadSource(basename string) (string, error) {
	for _, ext := range []string{".c", ".cpp"} {
		path := basename + ext
		data, err := os.ReadFile(path)
		if err == nil {
			return string(data), nil
		}
		if !os.IsNotExist(err) {
			return "", newSourceUnavailable(path, err)
		}
	}
	return "", newSourceUnavailable(basename+".c|.cpp", fmt.Errorf("no source file found"))
}

// RenderJSVar renders the Final Trace JSON wrapped as a named variable
// assignment, `var NAME = <json>;`, per the --create_jsvar CLI flag
// described in spec §6 (and used in the original vg_to_opt_trace.py).
func RenderJSVar(ft *FinalTrace, name string) ([]byte, error) {
	body, err := json.Marshal(ft)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString("var ")
	buf.WriteString(name)
	buf.WriteString(" = ")
	buf.Write(body)
	buf.WriteString(";")
	return buf.Bytes(), nil
}

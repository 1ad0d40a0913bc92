// Package normalizer turns a raw pg_trace_inst execution trace into a
// line-oriented sequence of Execution Points suitable for a step-through
// visualizer.
package normalizer

import (
	"encoding/json"
	"fmt"
)

// Kind discriminates the variants of RawValue.
type Kind string

// The Raw Value kinds understood by the encoder. Any other string is
// accepted by the parser (the raw trace format is owned by an external
// tool) but rejected as an InvariantViolation at encode time.
const (
	KindBase      Kind = "base"
	KindPointer   Kind = "pointer"
	KindStruct    Kind = "struct"
	KindArray     Kind = "array"
	KindTypedef   Kind = "typedef"
	KindHeapBlock Kind = "heap_block"
)

// Frame is one activation record as emitted by the instrumented runtime,
// innermost-first within a RawRecord's Stack.
type Frame struct {
	FuncName        string               `json:"func_name"`
	FP              string               `json:"FP"`
	OrderedVarnames []string             `json:"ordered_varnames"`
	Locals          map[string]*RawValue `json:"locals"`
}

// InvalidFuncName is the sentinel the runtime emits for a frame whose
// symbol could not be resolved; such frames must never survive Pass A.
const InvalidFuncName = "???"

// NullFramePointer marks a synthetic or not-yet-populated frame.
const NullFramePointer = "0x0"

// RawRecord is one record body as parsed from the trace stream.
type RawRecord struct {
	Line           int                  `json:"line"`
	Stack          []*Frame             `json:"stack"`
	Globals        map[string]*RawValue `json:"globals"`
	OrderedGlobals []string             `json:"ordered_globals"`
}

// RawValue is a tagged union over the value shapes the instrumented
// runtime can describe: scalars, pointers, structs, arrays, typedefs and
// heap blocks. Only the fields relevant to Kind are populated.
type RawValue struct {
	Kind Kind
	Addr string
	Type string

	// KindBase: the scalar literal, kept as raw JSON; encode decodes it
	// into a generic JSON value (numbers become float64) for the tuple.
	Scalar json.RawMessage

	// KindPointer: Target is the pointee address (as a string, per the
	// wire format); Deref, if present, is only followed for its heap
	// side effects and is never itself part of the encoded form.
	Target string
	Deref  *RawValue

	// KindStruct: members keyed by name.
	Members map[string]*RawValue

	// KindArray / KindHeapBlock: elements in index order.
	Elements []*RawValue

	// KindTypedef: the wrapped value, still carrying its own Type until
	// encode overwrites it with the typedef's outer Type.
	Inner *RawValue
}

// rawValueWire is the on-the-wire shape of a Raw Value; Val's meaning
// depends on Kind and is reinterpreted by UnmarshalJSON.
type rawValueWire struct {
	Kind     Kind            `json:"kind"`
	Addr     string          `json:"addr"`
	Type     string          `json:"type"`
	Val      json.RawMessage `json:"val"`
	DerefVal json.RawMessage `json:"deref_val"`
}

// UnmarshalJSON decodes a Raw Value according to its kind. An
// unrecognized kind is not an error here: parsing only establishes that a
// `kind` field exists, and it is the Value Encoder's job (per the
// exhaustive-case-analysis design in spec §9) to reject it as an
// InvariantViolation.
func (rv *RawValue) UnmarshalJSON(data []byte) error {
	var w rawValueWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	rv.Kind = w.Kind
	rv.Addr = w.Addr
	rv.Type = w.Type

	switch w.Kind {
	case KindBase:
		rv.Scalar = append(json.RawMessage(nil), w.Val...)

	case KindPointer:
		var target string
		if err := json.Unmarshal(w.Val, &target); err != nil {
			return fmt.Errorf("pointer val: %w", err)
		}
		rv.Target = target
		if len(w.DerefVal) > 0 && string(w.DerefVal) != "null" {
			var dv RawValue
			if err := json.Unmarshal(w.DerefVal, &dv); err != nil {
				return fmt.Errorf("deref_val: %w", err)
			}
			rv.Deref = &dv
		}

	case KindStruct:
		var members map[string]*RawValue
		if err := json.Unmarshal(w.Val, &members); err != nil {
			return fmt.Errorf("struct val: %w", err)
		}
		rv.Members = members

	case KindArray, KindHeapBlock:
		var elems []*RawValue
		if err := json.Unmarshal(w.Val, &elems); err != nil {
			return fmt.Errorf("array val: %w", err)
		}
		rv.Elements = elems

	case KindTypedef:
		var inner RawValue
		if err := json.Unmarshal(w.Val, &inner); err != nil {
			return fmt.Errorf("typedef val: %w", err)
		}
		rv.Inner = &inner

	default:
		// Leave the value otherwise empty; encode() will reject it.
	}
	return nil
}

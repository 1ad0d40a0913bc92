package normalizer

import (
	"encoding/json"
	"sort"

	"github.com/knazir/pgtrace/internal/logflags"
)

// maxEncodeDepth bounds recursion through pointer chains and nested
// containers so pathological or cyclic input cannot exhaust the stack.
// Per spec §4.3, hitting it stops recursion rather than crashing.
const maxEncodeDepth = 256

// EncodedValue is the canonical, positional output form described in
// spec §3: ["C_DATA", addr, type, val], ["C_STRUCT", addr, type,
// [name, value]...], or ["C_ARRAY", addr, value...].
type EncodedValue []any

// heap accumulates encoded heap blocks for a single record, keyed by
// address. It is record-local: a fresh heap is built per record.
type heap map[string]EncodedValue

// encode recursively transforms a Raw Value into its Encoded Value,
// populating h with any heap blocks reached along the way (including
// through pointer dereferences that are never themselves inlined into
// the result). A heap_block is sunk into h and yields a nil value.
// Returns InvariantViolation on an unrecognized kind, a duplicate heap
// address, an unparsable base scalar, or a typedef with no inner value.
func encode(rv *RawValue, h heap) (EncodedValue, error) {
	return encodeDepth(rv, h, 0)
}

func encodeDepth(rv *RawValue, h heap, depth int) (EncodedValue, error) {
	if depth >= maxEncodeDepth {
		return nil, nil
	}

	switch rv.Kind {
	case KindBase:
		var scalar any
		if len(rv.Scalar) > 0 {
			if err := json.Unmarshal(rv.Scalar, &scalar); err != nil {
				return nil, newInvariantViolation("base value at %s has unparsable scalar: %v", rv.Addr, err)
			}
		}
		return EncodedValue{"C_DATA", rv.Addr, rv.Type, scalar}, nil

	case KindPointer:
		if rv.Deref != nil {
			if _, err := encodeDepth(rv.Deref, h, depth+1); err != nil {
				return nil, err
			}
		}
		return EncodedValue{"C_DATA", rv.Addr, "pointer", rv.Target}, nil

	case KindStruct:
		names := make([]string, 0, len(rv.Members))
		for name := range rv.Members {
			names = append(names, name)
		}
		sort.Slice(names, func(i, j int) bool {
			return rv.Members[names[i]].Addr < rv.Members[names[j]].Addr
		})
		out := EncodedValue{"C_STRUCT", rv.Addr, rv.Type}
		for _, name := range names {
			enc, err := encodeDepth(rv.Members[name], h, depth+1)
			if err != nil {
				return nil, err
			}
			out = append(out, []any{name, enc})
		}
		return out, nil

	case KindArray:
		out := EncodedValue{"C_ARRAY", rv.Addr}
		for _, elt := range rv.Elements {
			enc, err := encodeDepth(elt, h, depth+1)
			if err != nil {
				return nil, err
			}
			out = append(out, enc)
		}
		return out, nil

	case KindTypedef:
		if rv.Inner == nil {
			return nil, newInvariantViolation("typedef at has no inner value")
		}
		// Transparent: the outer type overrides the inner value's type
		// before recursing. Raw Values are treated as owned, tree-shaped
		// data (spec §9 open question) so this in-place mutation is safe.
		rv.Inner.Type = rv.Type
		return encodeDepth(rv.Inner, h, depth+1)

	case KindHeapBlock:
		if _, dup := h[rv.Addr]; dup {
			return nil, newInvariantViolation("duplicate heap address %s within one record", rv.Addr)
		}
		if logflags.Encoder() {
			logflags.EncoderLogger().Debugf("populating heap[%s] with %d elements", rv.Addr, len(rv.Elements))
		}
		out := EncodedValue{"C_ARRAY", rv.Addr}
		for _, elt := range rv.Elements {
			enc, err := encodeDepth(elt, h, depth+1)
			if err != nil {
				return nil, err
			}
			out = append(out, enc)
		}
		h[rv.Addr] = out
		// A heap block is never itself returned as a value (spec §3):
		// it only has the side effect of populating h.
		return nil, nil

	default:
		return nil, newInvariantViolation("unrecognized raw value kind %q", rv.Kind)
	}
}

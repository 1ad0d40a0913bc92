package cmds

import (
	"bytes"
	"encoding/json"
)

// jsonMarshalIndent marshals v (already key-sorted via its own
// MarshalJSON) with two-space indentation, matching the
// `json.dumps(..., indent=2, sort_keys=True)` output shape of the
// original vg_to_opt_trace.py.
func jsonMarshalIndent(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

package normalizer

import (
	"encoding/json"
	"strings"
)

// ParseRecord decodes a record body into a Raw Record.
//
// An empty (or whitespace-only) body is a no-op success: it returns
// (nil, nil), matching spec §4.1's "empty buffers at separators
// correspond to an empty record". Any other malformed body returns a
// *ParseError wrapping the underlying decode error; recordIndex is
// carried through for diagnostics.
func ParseRecord(body string, recordIndex int) (*RawRecord, error) {
	if strings.TrimSpace(body) == "" {
		return nil, nil
	}
	var rec RawRecord
	if err := json.Unmarshal([]byte(body), &rec); err != nil {
		return nil, newParseError(recordIndex, err)
	}
	return &rec, nil
}

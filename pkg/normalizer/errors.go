package normalizer

import (
	"fmt"

	hqerrors "github.com/hueristiq/hq-go-errors"
)

// ParseError reports that a record body could not be decoded as a Raw
// Record. Per spec §7, encountering one latches the normalizer: the
// offending record is skipped, any records after it are read but not
// processed, and the trace's terminal event becomes "exception".
type ParseError struct {
	// RecordIndex is the zero-based position, among records read from
	// the trace stream, of the record that failed to parse.
	RecordIndex int
	cause       error
}

func newParseError(recordIndex int, cause error) *ParseError {
	return &ParseError{RecordIndex: recordIndex, cause: hqerrors.Wrap(cause, "decode trace record")}
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("pgtrace: malformed record #%d: %v", e.RecordIndex, e.cause)
}

func (e *ParseError) Unwrap() error { return e.cause }

// InvariantViolation reports a condition the normalizer treats as a
// programmer/input-contract error rather than recoverable noise: a
// duplicate heap address within one record, a "???" function name that
// survived Pass A, or an unrecognized Raw Value kind reaching the
// encoder. Per spec §7 this is fatal and must surface to the caller.
type InvariantViolation struct {
	cause error
}

func newInvariantViolation(format string, args ...any) *InvariantViolation {
	return &InvariantViolation{cause: hqerrors.New(fmt.Sprintf(format, args...))}
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("pgtrace: invariant violation: %v", e.cause)
}

func (e *InvariantViolation) Unwrap() error { return e.cause }

// SourceUnavailable reports that the original source text could not be
// loaded at assembly time. Per spec §7 this surfaces to the caller; the
// Final Trace object is never emitted without its `code` field.
type SourceUnavailable struct {
	Path  string
	cause error
}

func newSourceUnavailable(path string, cause error) *SourceUnavailable {
	return &SourceUnavailable{Path: path, cause: hqerrors.Wrap(cause, "load source")}
}

func (e *SourceUnavailable) Error() string {
	return fmt.Sprintf("pgtrace: source unavailable at %q: %v", e.Path, e.cause)
}

func (e *SourceUnavailable) Unwrap() error { return e.cause }

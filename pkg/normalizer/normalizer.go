package normalizer

import (
	"bytes"
	"context"
)

// Options controls normalizer behavior beyond spec.md's defaults. The
// zero value reproduces the defaults exactly.
type Options struct {
	// DisableOneRecordPerLine turns off the Pass D duplicate-line
	// collapse when true, so the zero value of Options keeps the collapse
	// enabled (the default, per spec §4.5).
	DisableOneRecordPerLine bool
}

// Normalize implements the caller-facing API of spec §6: it runs the
// full Record Reader -> Parser -> Processor -> Filter/Labeler pipeline
// over traceBytes and assembles a Final Trace against sourceText.
//
// A malformed record latches (spec §4.2): the offending record and
// everything after it are skipped for processing (though the reader
// keeps consuming the stream), and the terminal event becomes
// "exception" instead of "return". Invariant violations (duplicate heap
// address, bad value kind) are returned as errors immediately; they are
// programmer/input-contract failures, not recoverable noise.
func Normalize(ctx context.Context, traceBytes []byte, sourceText string, opts Options) (*FinalTrace, error) {
	reader := NewRecordReader(bytes.NewReader(traceBytes))

	var points []*ExecutionPoint
	parseFailed := false
	recordIndex := 0

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		body, ok := reader.Next()
		if !ok {
			break
		}
		if parseFailed {
			// Latched: keep draining the stream but stop processing.
			recordIndex++
			continue
		}

		rec, err := ParseRecord(body, recordIndex)
		recordIndex++
		if err != nil {
			parseFailed = true
			continue
		}
		if rec == nil {
			continue // empty record: no-op success
		}

		point, err := processRecord(rec)
		if err != nil {
			return nil, err
		}
		if point == nil {
			continue // empty stack: pre-prologue record
		}
		points = append(points, point)
	}

	final, err := labelAndFilter(points, parseFailed, !opts.DisableOneRecordPerLine)
	if err != nil {
		return nil, err
	}
	return AssembleFromSource(sourceText, final), nil
}

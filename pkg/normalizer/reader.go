package normalizer

import (
	"bufio"
	"io"
	"strings"
)

// RecordSeparator is the literal line that delimits consecutive records
// in a raw trace stream.
const RecordSeparator = "=== pg_trace_inst ==="

// stdoutPrefix marks a line as captured program stdout interleaved into
// the trace stream; such lines carry no record data and are dropped.
const stdoutPrefix = "STDOUT:"

// maxRecordBytes bounds a single buffered record to guard against an
// unbounded raw trace; callers are expected to additionally bound total
// trace size (spec §5) before handing bytes to the normalizer.
const maxRecordBytes = 64 * 1024 * 1024

// RecordReader splits a raw trace byte stream into record bodies,
// yielding a lazy, finite sequence: each call to Next reads only as many
// lines as needed to produce the next body.
type RecordReader struct {
	scanner *bufio.Scanner
	buf     []string
	atEOF   bool
}

// NewRecordReader wraps r as a RecordReader.
func NewRecordReader(r io.Reader) *RecordReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxRecordBytes)
	return &RecordReader{scanner: sc}
}

// Next returns the next record body and true, or ("", false) once the
// stream (including any final, separator-less buffer) is exhausted.
//
// A record body is the newline-joined text of every non-STDOUT: line
// between two separators, with each line's leading/trailing whitespace
// stripped. An empty body between separators is returned as "", true —
// per spec §4.1 this is a no-op success, not an absence of a record.
func (rr *RecordReader) Next() (string, bool) {
	if rr.atEOF {
		return "", false
	}
	for rr.scanner.Scan() {
		line := strings.TrimSpace(rr.scanner.Text())
		switch {
		case line == RecordSeparator:
			body := strings.Join(rr.buf, "\n")
			rr.buf = nil
			return body, true
		case strings.HasPrefix(line, stdoutPrefix):
			continue
		default:
			rr.buf = append(rr.buf, line)
		}
	}
	rr.atEOF = true
	if len(rr.buf) == 0 {
		return "", false
	}
	body := strings.Join(rr.buf, "\n")
	rr.buf = nil
	return body, true
}

// Err returns any error encountered while scanning the underlying
// reader (as opposed to a malformed record body, which is the Record
// Parser's concern).
func (rr *RecordReader) Err() error {
	return rr.scanner.Err()
}

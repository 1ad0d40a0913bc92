package normalizer

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// unknownCompilerErrorMsg is used when no diagnostic line in the
// compiler's output could be matched (spec §4.7).
const unknownCompilerErrorMsg = "unknown compiler error"

// UncaughtExceptionEvent is the single trace entry the Error Adapter
// emits: a deliberately narrower shape than ExecutionPoint (no stack, no
// heap, no globals — the compile never produced any).
type UncaughtExceptionEvent struct {
	Event        Event  `json:"event"`
	ExceptionMsg string `json:"exception_msg"`
	Line         *int   `json:"line"`
}

// ErrorTrace is the Final Trace shape produced by a failed compile,
// short-circuiting the normalizer entirely (spec §4.7).
type ErrorTrace struct {
	Code  string                    `json:"code"`
	Trace []*UncaughtExceptionEvent `json:"trace"`
}

// MarshalJSON emits ErrorTrace with sorted object keys, matching the
// determinism requirement placed on FinalTrace (spec §4.6, §8).
func (et *ErrorTrace) MarshalJSON() ([]byte, error) {
	type plain ErrorTrace
	raw, err := json.Marshal((*plain)(et))
	if err != nil {
		return nil, err
	}
	return sortJSONKeys(raw)
}

// compileDiagnosticRE matches a GCC/Clang-style diagnostic line:
// "<file>:<line>:<col>: error: <message>", grounded on the regex used by
// handle_gcc_error in the original backend/wsgi_backend.py.
func compileDiagnosticRE(sourceFilename string) *regexp.Regexp {
	return regexp.MustCompile(regexp.QuoteMeta(sourceFilename) + `:(\d+):(\d+):.*?(error:.*)$`)
}

// CompileErrorTrace implements the Error Adapter (spec §4.7): it turns a
// compile-stage diagnostic into a singleton Final Trace carrying one
// uncaught_exception event, bypassing the normalizer entirely.
//
// The first diagnostic line matching "<source-filename>:<line>:<col>:
// ... error: ..." supplies the message and line. Failing that, the first
// line containing "undefined " is treated as a linker error; its message
// is the text after the last colon, and the line number is parsed from
// the second colon-separated field if the text before the first colon
// contains the source filename (so a leading directory path is
// accepted). If neither matches, the
// message is "unknown compiler error" and no line is reported.
func CompileErrorTrace(diagnosticText, sourceText, sourceFilename string) *ErrorTrace {
	msg := unknownCompilerErrorMsg
	var line *int

	diagRE := compileDiagnosticRE(sourceFilename)
	for _, raw := range strings.Split(diagnosticText, "\n") {
		if m := diagRE.FindStringSubmatch(raw); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				line = &n
			}
			msg = strings.TrimSpace(m[3])
			break
		}
		if strings.Contains(raw, "undefined ") {
			parts := strings.Split(raw, ":")
			msg = strings.TrimSpace(parts[len(parts)-1])
			if len(parts) >= 2 && strings.Contains(parts[0], sourceFilename) {
				if n, err := strconv.Atoi(strings.TrimSpace(parts[1])); err == nil {
					line = &n
				}
			}
			break
		}
	}

	return &ErrorTrace{
		Code: sourceText,
		Trace: []*UncaughtExceptionEvent{{
			Event:        EventUncaughtException,
			ExceptionMsg: msg,
			Line:         line,
		}},
	}
}

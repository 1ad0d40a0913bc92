// Package logflags exposes named, boolean-gated loggers, the same shape
// pkg/proc/stack.go reaches for via logflags.Stack()/logflags.StackLogger()
// in the teacher repository: a flag per subsystem, a *logrus.Entry per
// flag, so a hot recursive pass (the encoder, the filter cascade) can
// cheaply check "is anyone listening" before building a log line.
package logflags

import (
	"io"
	"os"
	"strings"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

var (
	reader  bool
	parser  bool
	encoder bool
	filter  bool
	cli     bool

	readerLogger  *logrus.Entry
	parserLogger  *logrus.Entry
	encoderLogger *logrus.Entry
	filterLogger  *logrus.Entry
	cliLogger     *logrus.Entry
)

// Setup parses a comma-separated list of subsystem names (reader, parser,
// encoder, filter, cli; "all" enables every one) and wires up the
// corresponding loggers. It mirrors the teacher's own --log/--log-output
// flag handling.
func Setup(verbose bool, logOut string, logDest string) error {
	if !verbose {
		return nil
	}

	fields := splitAndTrim(logOut)
	all := contains(fields, "all")

	reader = all || contains(fields, "reader")
	parser = all || contains(fields, "parser")
	encoder = all || contains(fields, "encoder")
	filter = all || contains(fields, "filter")
	cli = all || contains(fields, "cli")

	w, err := openLogWriter(logDest)
	if err != nil {
		return err
	}

	logger := logrus.New()
	logger.Formatter = &logrus.TextFormatter{
		DisableColors: !isatty.IsTerminal(os.Stdout.Fd()),
	}
	logger.Out = w
	logger.Level = logrus.DebugLevel

	readerLogger = logger.WithFields(logrus.Fields{"layer": "reader"})
	parserLogger = logger.WithFields(logrus.Fields{"layer": "parser"})
	encoderLogger = logger.WithFields(logrus.Fields{"layer": "encoder"})
	filterLogger = logger.WithFields(logrus.Fields{"layer": "filter"})
	cliLogger = logger.WithFields(logrus.Fields{"layer": "cli"})
	return nil
}

func openLogWriter(dest string) (io.Writer, error) {
	if dest == "" || dest == "-" {
		return colorable.NewColorableStdout(), nil
	}
	return os.OpenFile(dest, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}

// Reader reports whether reader-layer logging is enabled.
func Reader() bool { return reader }

// ReaderLogger returns the logger for the Record Reader.
func ReaderLogger() *logrus.Entry { return readerLogger }

// Parser reports whether parser-layer logging is enabled.
func Parser() bool { return parser }

// ParserLogger returns the logger for the Record Parser.
func ParserLogger() *logrus.Entry { return parserLogger }

// Encoder reports whether encoder-layer logging is enabled.
func Encoder() bool { return encoder }

// EncoderLogger returns the logger for the Value Encoder.
func EncoderLogger() *logrus.Entry { return encoderLogger }

// Filter reports whether filter-layer logging is enabled.
func Filter() bool { return filter }

// FilterLogger returns the logger for the Filter & Event Labeler.
func FilterLogger() *logrus.Entry { return filterLogger }

// CLI reports whether CLI-layer logging is enabled.
func CLI() bool { return cli }

// CLILogger returns the logger for the command-line frontend.
func CLILogger() *logrus.Entry { return cliLogger }

func splitAndTrim(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func contains(fields []string, name string) bool {
	for _, f := range fields {
		if f == name {
			return true
		}
	}
	return false
}

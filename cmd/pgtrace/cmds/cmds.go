// Package cmds builds the pgtrace command tree, following the same
// cobra/pflag root-plus-subcommands shape delve's own cmd/dlv uses.
package cmds

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/knazir/pgtrace/internal/logflags"
	"github.com/knazir/pgtrace/internal/script"
	"github.com/knazir/pgtrace/pkg/normalizer"
)

var (
	createJSVar string
	logOutput   string
	verboseLog  bool
	noCollapse  bool
	filterFile  string
)

// New builds the root pgtrace command.
func New() *cobra.Command {
	root := &cobra.Command{
		Use:   "pgtrace <basename>",
		Short: "Normalize a pg_trace_inst raw trace into a visualizer trace",
		Long: `pgtrace reads <basename>.vgtrace and <basename>.c (or .cpp), runs the
raw records through the Trace Normalizer, and writes the resulting
Final Trace as JSON to standard output.`,
		Args: cobra.ExactArgs(1),
		RunE: runNormalize,
	}

	root.PersistentFlags().BoolVar(&verboseLog, "log", false, "enable component logging")
	root.PersistentFlags().StringVar(&logOutput, "log-output", "all", "comma-separated log subsystems (reader,parser,encoder,filter,cli,all)")

	root.Flags().StringVar(&createJSVar, "create-jsvar", "", "wrap output as `var NAME = <json>;`")
	root.Flags().BoolVar(&noCollapse, "no-collapse", false, "disable the one-record-per-line de-duplication pass")
	root.Flags().StringVar(&filterFile, "filter", "", "path to a Starlark predicate applied after normalization")

	root.AddCommand(newCompileErrorCmd())
	root.AddCommand(newReplCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newRunCmd())
	return root
}

func runNormalize(cmd *cobra.Command, args []string) error {
	if err := logflags.Setup(verboseLog, logOutput, ""); err != nil {
		return err
	}
	basename := args[0]

	traceBytes, err := os.ReadFile(basename + ".vgtrace")
	if err != nil {
		return fmt.Errorf("read trace file: %w", err)
	}

	source, err := readSource(basename)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	ft, err := normalizer.Normalize(ctx, traceBytes, source, normalizer.Options{DisableOneRecordPerLine: noCollapse})
	if err != nil {
		return fmt.Errorf("normalize trace: %w", err)
	}

	if filterFile != "" {
		predicateSrc, err := os.ReadFile(filterFile)
		if err != nil {
			return fmt.Errorf("read filter predicate: %w", err)
		}
		ft, err = script.Predicate{Source: string(predicateSrc)}.Apply(ft)
		if err != nil {
			return fmt.Errorf("apply filter predicate: %w", err)
		}
	}

	var out []byte
	if createJSVar != "" {
		out, err = normalizer.RenderJSVar(ft, createJSVar)
	} else {
		out, err = jsonMarshalIndent(ft)
	}
	if err != nil {
		return fmt.Errorf("render output: %w", err)
	}

	_, err = cmd.OutOrStdout().Write(append(out, '\n'))
	return err
}

func readSource(basename string) (string, error) {
	for _, ext := range []string{".c", ".cpp"} {
		data, err := os.ReadFile(basename + ext)
		if err == nil {
			return string(data), nil
		}
	}
	return "", fmt.Errorf("no source file found at %s.c or %s.cpp", basename, basename)
}

package cmds

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/knazir/pgtrace/pkg/normalizer"
)

// newCompileErrorCmd exposes the Error Adapter (spec §4.7) directly,
// for the case where the surrounding pipeline's compile stage already
// failed and the normalizer is bypassed entirely.
func newCompileErrorCmd() *cobra.Command {
	var sourceFilename string

	cmd := &cobra.Command{
		Use:   "compile-error <basename> <diagnostic-file>",
		Short: "Turn a failed compile's diagnostics into an uncaught_exception trace",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			basename, diagPath := args[0], args[1]

			source, err := readSource(basename)
			if err != nil {
				return err
			}
			diagnostics, err := os.ReadFile(diagPath)
			if err != nil {
				return fmt.Errorf("read diagnostics: %w", err)
			}
			if sourceFilename == "" {
				sourceFilename = basename + ".c"
			}

			errTrace := normalizer.CompileErrorTrace(string(diagnostics), source, sourceFilename)
			out, err := jsonMarshalIndent(errTrace)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(append(out, '\n'))
			return err
		},
	}
	cmd.Flags().StringVar(&sourceFilename, "source-filename", "", "filename as it appears in compiler diagnostics (default <basename>.c)")
	return cmd
}

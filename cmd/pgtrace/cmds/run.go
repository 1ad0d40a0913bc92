package cmds

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/knazir/pgtrace/internal/cache"
	"github.com/knazir/pgtrace/internal/config"
	"github.com/knazir/pgtrace/internal/logflags"
	"github.com/knazir/pgtrace/internal/pipeline"
	"github.com/knazir/pgtrace/pkg/normalizer"
)

// newRunCmd builds the end-to-end "compile, execute, normalize" command
// the rest of the repository's collaborators exist to support: it reads
// a user's source file, compiles and runs it through the configured
// instrumented runtime, and feeds the resulting raw trace through the
// same Normalize entry point the plain `pgtrace` command uses on an
// already-captured .vgtrace file.
func newRunCmd() *cobra.Command {
	var (
		configPath string
		lang       string
		ccFlags    string
	)

	cmd := &cobra.Command{
		Use:   "run <source-file>",
		Short: "Compile and run a source file, then normalize the resulting trace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := logflags.Setup(verboseLog, logOutput, ""); err != nil {
				return err
			}
			return runCompileAndRun(cmd, args[0], configPath, lang, ccFlags)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "pgtrace.yml", "path to pgtrace.yml")
	cmd.Flags().StringVar(&lang, "lang", "c", "source language: c or c++")
	cmd.Flags().StringVar(&ccFlags, "cflags", "", "extra, shell-quoted compiler flags")
	return cmd
}

func runCompileAndRun(cmd *cobra.Command, sourcePath, configPath, lang, ccFlags string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	sourceBytes, err := os.ReadFile(sourcePath)
	if err != nil {
		return fmt.Errorf("read source: %w", err)
	}
	source := string(sourceBytes)

	resultCache, err := cache.New(cfg.CacheEntries)
	if err != nil {
		return fmt.Errorf("build result cache: %w", err)
	}
	if cached, ok := resultCache.Get(source); ok {
		_, err := cmd.OutOrStdout().Write(append(cached, '\n'))
		return err
	}

	ws, err := pipeline.NewWorkspace(cfg.TempDir)
	if err != nil {
		return fmt.Errorf("create workspace: %w", err)
	}
	defer ws.Release()

	srcPath := ws.SourcePath(lang)
	if err := os.WriteFile(srcPath, sourceBytes, 0o644); err != nil {
		return fmt.Errorf("stage source: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.CompileTimeout+cfg.RunTimeout)
	defer cancel()

	compileResult, err := pipeline.Compile(ctx, cfg, lang, ccFlags, srcPath, ws.ExePath())
	if err != nil {
		return fmt.Errorf("compile: %w", err)
	}
	if compileResult.ExitCode != 0 {
		// spec §4.7: a failed compile hands the diagnostic text to the
		// Error Adapter rather than the normal pipeline.
		errTrace := normalizer.CompileErrorTrace(compileResult.Stderr, source, srcPath)
		out, err := jsonMarshalIndent(errTrace)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(append(out, '\n'))
		return err
	}

	runResult, err := pipeline.Run(ctx, cfg, ws.ExePath())
	if err != nil {
		return fmt.Errorf("run instrumented binary: %w", err)
	}
	if cfg.MaxTraceBytes > 0 && int64(len(runResult.Combined)) > cfg.MaxTraceBytes {
		return fmt.Errorf("raw trace is %d bytes, over the configured limit of %d", len(runResult.Combined), cfg.MaxTraceBytes)
	}

	ft, err := normalizer.Normalize(ctx, []byte(runResult.Combined), source, normalizer.Options{})
	if err != nil {
		return fmt.Errorf("normalize trace: %w", err)
	}

	out, err := jsonMarshalIndent(ft)
	if err != nil {
		return fmt.Errorf("render output: %w", err)
	}
	resultCache.Put(source, out)

	_, err = cmd.OutOrStdout().Write(append(out, '\n'))
	return err
}

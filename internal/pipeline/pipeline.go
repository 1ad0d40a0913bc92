// Package pipeline implements the compile-and-run collaborators spec §1
// deliberately places out of scope for the normalizer: invoking the
// compiler, running the instrumented binary, and capturing its output
// (including the interleaved STDOUT: lines the Record Reader strips).
// None of this package's output is trusted by the normalizer beyond the
// raw trace bytes and source text it produces.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"

	"github.com/cosiner/argv"
	"github.com/creack/pty"
	"golang.org/x/sys/unix"

	"github.com/knazir/pgtrace/internal/config"
)

// Workspace is a scoped, per-request temp directory. Release must be
// called on every exit path (spec §5: "scoped acquisition ... with
// guaranteed release on all exit paths").
type Workspace struct {
	Dir string
}

// NewWorkspace creates a fresh scratch directory under parent.
func NewWorkspace(parent string) (*Workspace, error) {
	dir, err := os.MkdirTemp(parent, "pgtrace-")
	if err != nil {
		return nil, err
	}
	return &Workspace{Dir: dir}, nil
}

// Release removes the workspace directory and everything in it.
func (w *Workspace) Release() error {
	return os.RemoveAll(w.Dir)
}

// SourcePath returns the conventional path for the user's source file.
func (w *Workspace) SourcePath(lang string) string {
	ext := ".c"
	if lang == "c++" || lang == "cpp" {
		ext = ".cpp"
	}
	return filepath.Join(w.Dir, "usercode"+ext)
}

// TracePath returns the conventional path for the raw .vgtrace file.
func (w *Workspace) TracePath() string {
	return filepath.Join(w.Dir, "usercode.vgtrace")
}

// ExePath returns the conventional path for the compiled binary.
func (w *Workspace) ExePath() string {
	return filepath.Join(w.Dir, "usercode.exe")
}

// CompileResult carries a compiler invocation's outcome.
type CompileResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Compile invokes cfg.CC (or CXX) against src, with any additional flags
// tokenized the way delve tokenizes a debuggee's argv — via
// github.com/cosiner/argv, which understands quoting the same way a
// shell would.
func Compile(ctx context.Context, cfg config.Config, lang, extraFlags, src, out string) (CompileResult, error) {
	cc := cfg.CC
	dialect := "-std=c11"
	if lang == "c++" || lang == "cpp" {
		cc = cfg.CXX
		dialect = "-std=c++11"
	}

	args := []string{dialect, "-ggdb", "-O0", "-fno-omit-frame-pointer", "-o", out, src}
	if extraFlags != "" {
		tokenized, err := argv.Argv(extraFlags, nil, nil)
		if err != nil {
			return CompileResult{}, fmt.Errorf("tokenize compiler flags: %w", err)
		}
		for _, group := range tokenized {
			args = append(args, group...)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.CompileTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, cc, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := CompileResult{Stdout: stdout.String(), Stderr: stderr.String()}
	if exitErr, ok := err.(*exec.ExitError); ok {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}
	if err != nil {
		return result, err
	}
	return result, nil
}

// RunResult carries the instrumented binary's outcome: its exit code and
// Combined, everything read from its pty, which is the raw trace stream
// the caller hands to the normalizer.
type RunResult struct {
	ExitCode int
	Combined string
}

// Run executes exe under the instrumented runtime, attached to a pty so
// that the program's own stdout is interleaved with the trace output
// exactly the way the record stream expects (STDOUT:-prefixed lines the
// Record Reader strips, spec §4.1), the same pty-attach shape delve uses
// to wire up a debuggee's terminal.
func Run(ctx context.Context, cfg config.Config, exe string) (RunResult, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.RunTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, cfg.RuntimeBin, "--tool=memcheck", exe)
	// Make the instrumented runtime its own process group leader so a
	// timeout can signal the whole group (it and whatever it forks), not
	// just the direct child.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	f, err := pty.Start(cmd)
	if err != nil {
		return RunResult{}, fmt.Errorf("attach pty: %w", err)
	}
	defer f.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			// exec.CommandContext only kills the direct child; the
			// instrumented runtime forks the user's program, so the
			// whole group needs signaling on timeout.
			_ = killProcessGroup(cmd.Process.Pid, unix.SIGKILL)
		case <-done:
		}
	}()

	var combined bytes.Buffer
	_, copyErr := combined.ReadFrom(f)

	waitErr := cmd.Wait()
	result := RunResult{Combined: combined.String()}
	if exitErr, ok := waitErr.(*exec.ExitError); ok {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}
	if waitErr != nil {
		return result, waitErr
	}
	// A pty-attached child closing its slave end surfaces as an I/O
	// error on read, not a real failure; only report copyErr if the
	// process itself also reported trouble.
	if copyErr != nil && result.ExitCode != 0 {
		return result, copyErr
	}
	return result, nil
}

// killProcessGroup sends sig to the process group rooted at pid, used to
// make sure a timed-out subprocess's children don't outlive it.
func killProcessGroup(pid int, sig unix.Signal) error {
	return unix.Kill(-pid, sig)
}

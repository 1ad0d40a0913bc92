package pipeline

import (
	"context"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knazir/pgtrace/internal/config"
)

func TestWorkspaceConventionalPaths(t *testing.T) {
	ws, err := NewWorkspace(t.TempDir())
	require.NoError(t, err)
	defer ws.Release()

	assert.Contains(t, ws.SourcePath("c"), "usercode.c")
	assert.Contains(t, ws.SourcePath("cpp"), "usercode.cpp")
	assert.Contains(t, ws.TracePath(), "usercode.vgtrace")
	assert.Contains(t, ws.ExePath(), "usercode.exe")
}

func TestWorkspaceReleaseRemovesDirectory(t *testing.T) {
	parent := t.TempDir()
	ws, err := NewWorkspace(parent)
	require.NoError(t, err)

	require.NoError(t, ws.Release())
	_, err = os.Stat(ws.Dir)
	assert.True(t, os.IsNotExist(err))
}

func TestCompileSelectsCompilerByLanguage(t *testing.T) {
	if _, err := exec.LookPath("true"); err != nil {
		t.Skip("no /bin/true available in this environment")
	}

	cfg := config.Default()
	cfg.CC = "true"
	cfg.CXX = "false" // picking CXX for a "c" source would exit 1
	cfg.CompileTimeout = 2 * time.Second

	result, err := Compile(context.Background(), cfg, "c", "", "in.c", "out")
	require.NoError(t, err)
	assert.Equal(t, 0, result.ExitCode)
}

func TestCompileRejectsUnbalancedFlags(t *testing.T) {
	cfg := config.Default()
	cfg.CC = "true"
	cfg.CompileTimeout = 2 * time.Second

	_, err := Compile(context.Background(), cfg, "c", `"unterminated`, "in.c", "out")
	assert.Error(t, err)
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pgtrace.yml")
	require.NoError(t, os.WriteFile(path, []byte("cc: clang\nrun_timeout: 5s\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "clang", cfg.CC)
	assert.Equal(t, 5*time.Second, cfg.RunTimeout)
	assert.Equal(t, Default().CXX, cfg.CXX) // untouched field keeps its default
}

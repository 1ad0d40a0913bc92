// Package config loads the small YAML configuration file that backs the
// surrounding compile-and-run pipeline: binary paths, subprocess
// timeouts, and result-cache sizing. The normalizer core itself (spec
// §5, §6) reads no configuration; this is purely for the "deliberately
// out of scope" collaborators the full repository still has to wire up.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk shape of pgtrace.yml.
type Config struct {
	// CC / CXX are the compiler binaries invoked for .c / .cpp sources.
	CC  string `yaml:"cc"`
	CXX string `yaml:"cxx"`

	// RuntimeBin is the instrumented memory-checker binary used to run
	// the compiled program and produce the raw .vgtrace stream.
	RuntimeBin string `yaml:"runtime_bin"`

	// CompileTimeout / RunTimeout bound the two subprocess stages (spec
	// §5: conventionally 30s / 120s).
	CompileTimeout time.Duration `yaml:"compile_timeout"`
	RunTimeout     time.Duration `yaml:"run_timeout"`

	// MaxTraceBytes bounds the raw trace the normalizer will accept,
	// since the normalizer itself enforces no size limit (spec §5).
	MaxTraceBytes int64 `yaml:"max_trace_bytes"`

	// CacheEntries sizes the in-memory result cache (internal/cache).
	CacheEntries int `yaml:"cache_entries"`

	// TempDir is the parent directory under which each request's
	// scratch directory is created (spec §5).
	TempDir string `yaml:"temp_dir"`
}

// Default mirrors the conventions named in spec §5/§6.
func Default() Config {
	return Config{
		CC:             "gcc",
		CXX:            "g++",
		RuntimeBin:     "valgrind",
		CompileTimeout: 30 * time.Second,
		RunTimeout:     120 * time.Second,
		MaxTraceBytes:  64 * 1024 * 1024,
		CacheEntries:   256,
		TempDir:        os.TempDir(),
	}
}

// Load reads path as YAML over the Default, so a config file only needs
// to mention the fields it wants to override.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

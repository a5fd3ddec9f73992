package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/specialistvlad/girregen/internal/bootstrap"
	"github.com/specialistvlad/girregen/internal/regen"
	"github.com/specialistvlad/girregen/internal/workitem"
)

// DefaultFmtCommand runs after every successful regeneration.
var DefaultFmtCommand = []string{"cargo", "fmt"}

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// Paths are searched for Gir*.toml files. Defaults to the working directory.
	Paths []string
	// GirFilesDirs are passed to gir with -d. When empty the gir-files
	// submodule is bootstrapped instead.
	GirFilesDirs []string
	// GirPath is the generator executable. The default location is built
	// from the gir submodule before use.
	GirPath string

	EmbedDocs    bool
	StripDocs    bool
	DocRoot      string
	StripperPath string

	FmtCommand []string
	NoFmt      bool
	AutoYes    bool
	Jobs       int

	// GitPath and CargoPath default to "git" and "cargo" on PATH.
	GitPath   string
	CargoPath string

	LogFormat string
	LogLevel  string
}

// NewConfig fills in defaults and validates the paths the user gave. The
// default generator path is not checked since bootstrap builds it.
func NewConfig(cfg Config) (*Config, error) {
	if len(cfg.Paths) == 0 {
		cfg.Paths = []string{"."}
	}
	if cfg.GirPath == "" {
		cfg.GirPath = bootstrap.DefaultGirPath
	}
	if cfg.DocRoot == "" {
		cfg.DocRoot = workitem.DefaultDocRoot
	}
	if cfg.StripperPath == "" {
		cfg.StripperPath = regen.DefaultStripperPath
	}
	if len(cfg.FmtCommand) == 0 {
		cfg.FmtCommand = DefaultFmtCommand
	}
	if cfg.Jobs < 0 {
		return nil, errors.New("jobs must not be negative")
	}
	if filepath.IsAbs(cfg.DocRoot) {
		return nil, fmt.Errorf("doc root `%s` must be relative", cfg.DocRoot)
	}

	for _, p := range cfg.Paths {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("`%s` no such file or directory", p)
		}
	}
	for _, d := range cfg.GirFilesDirs {
		if info, err := os.Stat(d); err != nil || !info.IsDir() {
			return nil, fmt.Errorf("`%s` directory not found", d)
		}
	}
	if !cfg.UsesDefaultGir() {
		if info, err := os.Stat(cfg.GirPath); err != nil || !info.Mode().IsRegular() {
			return nil, fmt.Errorf("`%s` file not found", cfg.GirPath)
		}
	}

	return &cfg, nil
}

// UsesDefaultGir reports whether the generator is the one built from the
// gir submodule. Paths are compared in absolute form, so a project file
// naming "${root}/gir/target/release/gir" still triggers the build.
func (c *Config) UsesDefaultGir() bool {
	return absPath(c.GirPath) == absPath(bootstrap.DefaultGirPath)
}

func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}

// DocMode reports whether documentation is stripped or embedded.
func (c *Config) DocMode() bool {
	return c.EmbedDocs || c.StripDocs
}

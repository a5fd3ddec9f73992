// Package bootstrap makes sure the gir generator and the shared gir-files
// are available before any crate is regenerated. Every step runs once, in
// sequence, with the tools' output streamed to the terminal.
package bootstrap

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/specialistvlad/girregen/internal/ctxlog"
	"github.com/specialistvlad/girregen/internal/fsutil"
	"github.com/specialistvlad/girregen/internal/procrun"
)

const (
	// DefaultGirFilesDir is the gir-files submodule.
	DefaultGirFilesDir = "gir-files"
	// DefaultGirDir is the gir submodule, built in place.
	DefaultGirDir = "gir"
)

// DefaultGirPath is where `cargo build --release` leaves the generator.
var DefaultGirPath = filepath.Join(DefaultGirDir, "target", "release", "gir")

// Bootstrapper runs git and cargo on behalf of the orchestrator.
type Bootstrapper struct {
	Out    io.Writer
	Err    io.Writer
	Prompt *Prompter
	// GitPath and CargoPath default to "git" and "cargo" on PATH.
	GitPath   string
	CargoPath string
}

func (b *Bootstrapper) git() string {
	if b.GitPath == "" {
		return "git"
	}
	return b.GitPath
}

func (b *Bootstrapper) cargo() string {
	if b.CargoPath == "" {
		return "cargo"
	}
	return b.CargoPath
}

func (b *Bootstrapper) run(ctx context.Context, cmd procrun.Command) error {
	return procrun.RunAttached(ctx, cmd, b.Out, b.Err)
}

// Submodule initialises the git submodule at dir when dir is empty or
// missing, then offers to update it to the latest upstream master. It
// reports whether the submodule was updated. A populated dir is left alone.
func (b *Bootstrapper) Submodule(ctx context.Context, dir string) (bool, error) {
	logger := ctxlog.FromContext(ctx)

	empty, err := fsutil.IsEmptyDir(dir)
	if err != nil {
		return false, fmt.Errorf("failed to inspect submodule %s: %w", dir, err)
	}
	if !empty {
		logger.Debug("Submodule already populated.", "dir", dir)
		return false, nil
	}

	fmt.Fprintf(b.Out, "=> Initializing %s submodule...\n", dir)
	if err := b.run(ctx, procrun.Command{Name: b.git(), Args: []string{"submodule", "update", "--init", dir}}); err != nil {
		return false, fmt.Errorf("failed to initialize submodule %s: %w", dir, err)
	}
	fmt.Fprintln(b.Out, "<= Done!")

	update, err := b.Prompt.AskYesNo(fmt.Sprintf("Do you want to update %s submodule?", dir))
	if err != nil {
		return false, err
	}
	if !update {
		return false, nil
	}

	fmt.Fprintln(b.Out, "=> Updating submodule...")
	steps := [][]string{
		{"reset", "--hard", "HEAD"},
		{"pull", "-f", "origin", "master"},
	}
	for _, args := range steps {
		if err := b.run(ctx, procrun.Command{Name: b.git(), Args: args, Dir: dir}); err != nil {
			return false, fmt.Errorf("failed to update submodule %s: %w", dir, err)
		}
	}
	fmt.Fprintln(b.Out, "<= Done!")
	return true, nil
}

// BuildGenerator compiles gir in release mode inside dir.
func (b *Bootstrapper) BuildGenerator(ctx context.Context, dir string) error {
	fmt.Fprintln(b.Out, "=> Building gir...")
	if err := b.run(ctx, procrun.Command{Name: b.cargo(), Args: []string{"build", "--release"}, Dir: dir}); err != nil {
		return fmt.Errorf("failed to build gir: %w", err)
	}
	fmt.Fprintln(b.Out, "<= Done!")
	return nil
}

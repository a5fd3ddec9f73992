package app

import (
	"bufio"
	"context"
	"io"
	"log/slog"

	"github.com/specialistvlad/girregen/internal/bootstrap"
	"github.com/specialistvlad/girregen/internal/ctxlog"
	"github.com/specialistvlad/girregen/internal/procrun"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW         io.Writer
	errW         io.Writer
	logger       *slog.Logger
	config       *Config
	runner       procrun.Runner
	bootstrapper *bootstrap.Bootstrapper
}

// NewApp is the constructor for the main application. User-facing progress
// goes to outW, diagnostics and child stderr to errW, and prompts read from in.
func NewApp(outW, errW io.Writer, in io.Reader, cfg *Config) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, errW)
	logger.Debug("Logger configured successfully.")

	return &App{
		outW:   outW,
		errW:   errW,
		logger: logger,
		config: cfg,
		runner: procrun.Local{},
		bootstrapper: &bootstrap.Bootstrapper{
			Out: outW,
			Err: errW,
			Prompt: &bootstrap.Prompter{
				AutoYes: cfg.AutoYes,
				In:      bufio.NewReader(in),
				Out:     outW,
			},
			GitPath:   cfg.GitPath,
			CargoPath: cfg.CargoPath,
		},
	}
}

func (a *App) context(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}

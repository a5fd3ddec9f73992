package app

import (
	"context"
	"fmt"

	"github.com/specialistvlad/girregen/internal/bootstrap"
	"github.com/specialistvlad/girregen/internal/executor"
	"github.com/specialistvlad/girregen/internal/procrun"
	"github.com/specialistvlad/girregen/internal/regen"
	"github.com/specialistvlad/girregen/internal/workitem"
)

// Run executes the whole regeneration: bootstrap, discovery, the concurrent
// regeneration of every crate and the final reformat. The first failure
// aborts the run; logs of crates that already finished stay printed.
func (a *App) Run(ctx context.Context) error {
	ctx = a.context(ctx)
	a.logger.Debug("App.Run method started.")

	if err := a.bootstrap(ctx); err != nil {
		return err
	}

	fmt.Fprintln(a.outW, "=> Regenerating crates...")
	items, err := workitem.DiscoverAll(ctx, a.config.Paths, workitem.Options{
		GirFilesDirs: a.config.GirFilesDirs,
		DocMode:      a.config.DocMode(),
		DocRoot:      a.config.DocRoot,
		OnRoot: func(root string) {
			fmt.Fprintf(a.outW, "=> Looking in path `%s`\n", root)
		},
	})
	if err != nil {
		return err
	}
	a.logger.Info("Discovered crates.", "count", len(items))

	if err := a.regenerate(ctx, items); err != nil {
		return err
	}

	if !a.config.NoFmt {
		if err := a.format(ctx); err != nil {
			return err
		}
	}

	fmt.Fprintln(a.outW, "<= Done!")
	fmt.Fprintln(a.outW, "Don't forget to check if everything has been correctly generated!")
	a.logger.Debug("App.Run method finished.")
	return nil
}

func (a *App) bootstrap(ctx context.Context) error {
	if len(a.config.GirFilesDirs) == 0 {
		if _, err := a.bootstrapper.Submodule(ctx, bootstrap.DefaultGirFilesDir); err != nil {
			return err
		}
	}
	if a.config.UsesDefaultGir() {
		if _, err := a.bootstrapper.Submodule(ctx, bootstrap.DefaultGirDir); err != nil {
			return err
		}
		if err := a.bootstrapper.BuildGenerator(ctx, bootstrap.DefaultGirDir); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) regenerate(ctx context.Context, items []*workitem.Item) error {
	builder := regen.NewBuilder(a.runner, regen.Options{
		GirPath:      a.config.GirPath,
		StripperPath: a.config.StripperPath,
		EmbedDocs:    a.config.EmbedDocs,
		StripDocs:    a.config.StripDocs,
	})

	set := executor.Launch(ctx, builder.Tasks(items), executor.Options{Jobs: a.config.Jobs})
	err := executor.Drain(set, func(res executor.Result) {
		a.logger.Debug("Crate regenerated.", "config", res.Name, "duration", res.Duration)
		fmt.Fprint(a.outW, res.Log)
	})
	if err != nil {
		a.logger.Debug("Regeneration aborted.", "error", err)
		return err
	}
	return nil
}

func (a *App) format(ctx context.Context) error {
	cmd := procrun.Command{Name: a.config.FmtCommand[0], Args: a.config.FmtCommand[1:]}
	if err := procrun.RunAttached(ctx, cmd, a.outW, a.errW); err != nil {
		return fmt.Errorf("failed to format crates: %w", err)
	}
	return nil
}

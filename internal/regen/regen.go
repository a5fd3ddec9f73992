package regen

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/specialistvlad/girregen/internal/ctxlog"
	"github.com/specialistvlad/girregen/internal/executor"
	"github.com/specialistvlad/girregen/internal/procrun"
	"github.com/specialistvlad/girregen/internal/workitem"
)

// DefaultStripperPath is looked up on PATH.
const DefaultStripperPath = "rustdoc-stripper"

// Options selects the tools and the documentation sub-steps.
type Options struct {
	GirPath      string
	StripperPath string
	EmbedDocs    bool
	StripDocs    bool
}

// DocMode reports whether items are processed for documentation rather than
// code generation.
func (o Options) DocMode() bool {
	return o.EmbedDocs || o.StripDocs
}

// UnexpectedStdoutError is returned when gir wrote to stdout.
type UnexpectedStdoutError struct {
	Command string
	Stdout  string
}

func (e *UnexpectedStdoutError) Error() string {
	return fmt.Sprintf("`gir` printed unexpected stdout: %s", e.Stdout)
}

// Builder creates tasks that run through a procrun.Runner.
type Builder struct {
	runner procrun.Runner
	opts   Options
}

// NewBuilder returns a Builder. A nil runner runs local processes.
func NewBuilder(runner procrun.Runner, opts Options) *Builder {
	if runner == nil {
		runner = procrun.Local{}
	}
	if opts.StripperPath == "" {
		opts.StripperPath = DefaultStripperPath
	}
	return &Builder{runner: runner, opts: opts}
}

// Tasks returns one task per item, in item order.
func (b *Builder) Tasks(items []*workitem.Item) []executor.Task {
	tasks := make([]executor.Task, 0, len(items))
	for _, it := range items {
		tasks = append(tasks, b.Task(it))
	}
	return tasks
}

// Task returns the task for a single item.
func (b *Builder) Task(it *workitem.Item) executor.Task {
	run := b.regenerate
	if b.opts.DocMode() {
		run = b.regenerateDocs
	}
	return executor.Task{
		Name: it.ConfigPath,
		Run: func(ctx context.Context) (executor.Report, error) {
			ctx, _ = ctxlog.With(ctx, "config", it.ConfigPath)
			var l taskLog
			err := run(ctx, it, &l)
			if err != nil {
				err = fmt.Errorf("`%s`: %w", it.ConfigPath, err)
			}
			return l.report(), err
		},
	}
}

func (b *Builder) regenerate(ctx context.Context, it *workitem.Item, l *taskLog) error {
	l.header(fmt.Sprintf("==> Regenerating `%s`...\n", it.ConfigPath))
	out, err := b.spawnGir(ctx, it.Args)
	l.capture(out, false)
	return err
}

func (b *Builder) regenerateDocs(ctx context.Context, it *workitem.Item, l *taskLog) error {
	crateDir := it.OutputDir
	docFile := it.DocFile()
	stripperArgs := []string{"-m", "-d", it.SourceDir()}

	if b.opts.StripDocs {
		l.header(fmt.Sprintf("==> Stripping documentation from `%s`...\n", crateDir))
		// -n dumps the stripped docs to stdout; nobody wants them.
		out, err := b.spawn(ctx, b.opts.StripperPath, slices.Concat(stripperArgs, []string{"-s", "-n"}))
		l.capture(out, false)
		if err != nil {
			return err
		}
	}

	if b.opts.EmbedDocs {
		l.header(fmt.Sprintf("==> Regenerating documentation for `%s` into `%s`...\n", crateDir, docFile))
		out, err := b.spawnGir(ctx, it.Args)
		l.capture(out, false)
		if err != nil {
			return err
		}

		l.header(fmt.Sprintf("==> Embedding documentation from `%s` into `%s`...\n", docFile, crateDir))
		out, err = b.spawn(ctx, b.opts.StripperPath, slices.Concat(stripperArgs, []string{"-g", "-o", docFile}))
		l.capture(out, true)
		if err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) spawn(ctx context.Context, exe string, args []string) (*procrun.Output, error) {
	return b.runner.Run(ctx, procrun.Command{Name: exe, Args: args})
}

func (b *Builder) spawnGir(ctx context.Context, args []string) (*procrun.Output, error) {
	cmd := procrun.Command{Name: b.opts.GirPath, Args: args}
	out, err := b.runner.Run(ctx, cmd)
	if err != nil {
		return out, err
	}
	if out.Stdout != "" {
		return out, &UnexpectedStdoutError{Command: cmd.String(), Stdout: out.Stdout}
	}
	return out, nil
}

// taskLog accumulates one task's log text; it is only handed out whole.
type taskLog struct {
	first  string
	log    strings.Builder
	stdout strings.Builder
	stderr strings.Builder
}

func (l *taskLog) header(h string) {
	if l.first == "" {
		l.first = h
	}
	l.log.WriteString(h)
}

func (l *taskLog) capture(out *procrun.Output, withStdout bool) {
	if out == nil {
		return
	}
	l.stdout.WriteString(out.Stdout)
	l.stderr.WriteString(out.Stderr)
	if withStdout && out.Stdout != "" {
		l.log.WriteString("===> stdout:\n\n" + out.Stdout + "\n")
	}
	if out.Stderr != "" {
		l.log.WriteString("===> stderr:\n\n" + out.Stderr + "\n")
	}
}

func (l *taskLog) report() executor.Report {
	return executor.Report{
		Header: l.first,
		Stdout: l.stdout.String(),
		Stderr: l.stderr.String(),
		Log:    l.log.String(),
	}
}

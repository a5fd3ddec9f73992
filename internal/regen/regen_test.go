package regen

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/specialistvlad/girregen/internal/executor"
	"github.com/specialistvlad/girregen/internal/procrun"
	"github.com/specialistvlad/girregen/internal/testutil"
	"github.com/specialistvlad/girregen/internal/workitem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	testutil.RunFakeToolIfRequested()
	os.Exit(m.Run())
}

// scriptedRunner answers commands from a script keyed on the first argument
// that identifies the sub-step, and records every command it sees.
type scriptedRunner struct {
	mu     sync.Mutex
	calls  []procrun.Command
	script func(cmd procrun.Command) (*procrun.Output, error)
}

func (r *scriptedRunner) Run(ctx context.Context, cmd procrun.Command) (*procrun.Output, error) {
	r.mu.Lock()
	r.calls = append(r.calls, cmd)
	r.mu.Unlock()
	if r.script == nil {
		return &procrun.Output{}, nil
	}
	return r.script(cmd)
}

func (r *scriptedRunner) commands() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	for i, c := range r.calls {
		out[i] = c.String()
	}
	return out
}

func normalItem() *workitem.Item {
	return &workitem.Item{
		ConfigPath: "gtk/Gir.toml",
		OutputDir:  "gtk",
		Args:       []string{"-c", "gtk/Gir.toml", "-o", "gtk"},
	}
}

func docItem() *workitem.Item {
	return &workitem.Item{
		ConfigPath:    "gtk/Gir.toml",
		OutputDir:     "gtk",
		RelDir:        "gtk",
		DocTargetPath: "../docs/gtk/docs.md",
		Args:          []string{"-c", "gtk/Gir.toml", "-o", "gtk", "-m", "doc", "--doc-target-path", "../docs/gtk/docs.md"},
	}
}

func TestTask_Regenerate(t *testing.T) {
	// --- Arrange ---
	runner := &scriptedRunner{script: func(cmd procrun.Command) (*procrun.Output, error) {
		return &procrun.Output{Stderr: "WARN something odd\n"}, nil
	}}
	b := NewBuilder(runner, Options{GirPath: "gir"})

	// --- Act ---
	report, err := b.Task(normalItem()).Run(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, []string{"gir -c gtk/Gir.toml -o gtk"}, runner.commands())
	assert.Equal(t, "==> Regenerating `gtk/Gir.toml`...\n", report.Header)
	assert.Equal(t, "==> Regenerating `gtk/Gir.toml`...\n===> stderr:\n\nWARN something odd\n\n", report.Log)
	assert.Equal(t, "WARN something odd\n", report.Stderr)
}

func TestTask_RegenerateQuiet(t *testing.T) {
	b := NewBuilder(&scriptedRunner{}, Options{GirPath: "gir"})

	report, err := b.Task(normalItem()).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "==> Regenerating `gtk/Gir.toml`...\n", report.Log)
}

func TestTask_GirStdoutFailsDespiteZeroExit(t *testing.T) {
	runner := &scriptedRunner{script: func(cmd procrun.Command) (*procrun.Output, error) {
		return &procrun.Output{Stdout: "oops\n"}, nil
	}}
	b := NewBuilder(runner, Options{GirPath: "gir"})

	_, err := b.Task(normalItem()).Run(context.Background())

	var stdoutErr *UnexpectedStdoutError
	require.True(t, errors.As(err, &stdoutErr), "got %v", err)
	assert.Equal(t, "oops\n", stdoutErr.Stdout)
	assert.Contains(t, err.Error(), "gtk/Gir.toml")
}

func TestTask_ExitErrorKeepsStderr(t *testing.T) {
	runner := &scriptedRunner{script: func(cmd procrun.Command) (*procrun.Output, error) {
		return &procrun.Output{Stderr: "error: bad gir file\n"},
			&procrun.ExitError{Command: cmd.String(), Code: 1, Stderr: "error: bad gir file\n", Err: errors.New("exit status 1")}
	}}
	b := NewBuilder(runner, Options{GirPath: "gir"})

	report, err := b.Task(normalItem()).Run(context.Background())

	var exitErr *procrun.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, "error: bad gir file\n", exitErr.Stderr)
	assert.Contains(t, err.Error(), "error: bad gir file")
	assert.Contains(t, report.Log, "===> stderr:\n\nerror: bad gir file\n")
}

func TestTask_DocStepsRunInOrder(t *testing.T) {
	// --- Arrange ---
	runner := &scriptedRunner{script: func(cmd procrun.Command) (*procrun.Output, error) {
		if cmd.Name == "stripper" && slices.Contains(cmd.Args, "-s") {
			return &procrun.Output{Stdout: "stripped docs dump"}, nil
		}
		if cmd.Name == "stripper" {
			return &procrun.Output{Stdout: "embedded 3 files\n", Stderr: "note\n"}, nil
		}
		return &procrun.Output{}, nil
	}}
	b := NewBuilder(runner, Options{GirPath: "gir", StripperPath: "stripper", StripDocs: true, EmbedDocs: true})
	it := docItem()
	docFile := filepath.Join("docs", "gtk", "docs.md")
	src := filepath.Join("gtk", "src")

	// --- Act ---
	report, err := b.Task(it).Run(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, []string{
		"stripper -m -d " + src + " -s -n",
		"gir -c gtk/Gir.toml -o gtk -m doc --doc-target-path ../docs/gtk/docs.md",
		"stripper -m -d " + src + " -g -o " + docFile,
	}, runner.commands())

	wantLog := "==> Stripping documentation from `gtk`...\n" +
		"==> Regenerating documentation for `gtk` into `" + docFile + "`...\n" +
		"==> Embedding documentation from `" + docFile + "` into `gtk`...\n" +
		"===> stdout:\n\nembedded 3 files\n\n" +
		"===> stderr:\n\nnote\n\n"
	assert.Equal(t, wantLog, report.Log)
	assert.Equal(t, "==> Stripping documentation from `gtk`...\n", report.Header)
}

func TestTask_StripOnlySkipsGir(t *testing.T) {
	runner := &scriptedRunner{}
	b := NewBuilder(runner, Options{GirPath: "gir", StripDocs: true})

	_, err := b.Task(docItem()).Run(context.Background())

	require.NoError(t, err)
	cmds := runner.commands()
	require.Len(t, cmds, 1)
	assert.True(t, strings.HasPrefix(cmds[0], DefaultStripperPath+" -m -d"))
}

func TestTask_DocGirStdoutIsChecked(t *testing.T) {
	runner := &scriptedRunner{script: func(cmd procrun.Command) (*procrun.Output, error) {
		if cmd.Name == "gir" {
			return &procrun.Output{Stdout: "chatty"}, nil
		}
		return &procrun.Output{}, nil
	}}
	b := NewBuilder(runner, Options{GirPath: "gir", EmbedDocs: true})

	_, err := b.Task(docItem()).Run(context.Background())

	var stdoutErr *UnexpectedStdoutError
	require.True(t, errors.As(err, &stdoutErr))
	assert.Len(t, runner.commands(), 1, "embed must not run after a failed doc generation")
}

func TestTask_StripFailureStopsSubsteps(t *testing.T) {
	runner := &scriptedRunner{script: func(cmd procrun.Command) (*procrun.Output, error) {
		return nil, fmt.Errorf("failed to run `%s`: not found", cmd.String())
	}}
	b := NewBuilder(runner, Options{GirPath: "gir", StripDocs: true, EmbedDocs: true})

	_, err := b.Task(docItem()).Run(context.Background())

	require.Error(t, err)
	assert.Len(t, runner.commands(), 1)
}

// End-to-end through real processes: the fake tool plays gir.
func TestTasks_WithProcesses_CompletionOrder(t *testing.T) {
	// --- Arrange ---
	fake := testutil.NewFakeTool(t)
	root := t.TempDir()
	testutil.WriteFiles(t, root, map[string]string{
		"a/Gir.toml": testutil.GirToml("A", testutil.FakeBehavior{SleepMS: 400, Stderr: "a warning\n"}),
		"b/Gir.toml": testutil.GirToml("B", testutil.FakeBehavior{SleepMS: 10}),
		"c/Gir.toml": testutil.GirToml("C", testutil.FakeBehavior{SleepMS: 400}),
	})
	items, err := workitem.Discover(context.Background(), root, workitem.Options{})
	require.NoError(t, err)
	b := NewBuilder(nil, Options{GirPath: fake.Path})

	// --- Act ---
	var order []string
	var logs []string
	err = executor.Drain(executor.Launch(context.Background(), b.Tasks(items), executor.Options{}), func(r executor.Result) {
		order = append(order, filepath.Base(filepath.Dir(r.Name)))
		logs = append(logs, r.Log)
	})

	// --- Assert ---
	require.NoError(t, err)
	require.Len(t, order, 3)
	assert.Equal(t, "b", order[0])
	assert.ElementsMatch(t, []string{"a", "c"}, order[1:])
	for _, dir := range []string{"a", "b", "c"} {
		assert.FileExists(t, filepath.Join(root, dir, testutil.GeneratedFile))
	}
	joined := strings.Join(logs, "")
	assert.Contains(t, joined, "==> Regenerating `"+filepath.Join(root, "a", "Gir.toml")+"`...\n===> stderr:\n\na warning\n\n")
}

func TestTasks_WithProcesses_StdoutAndExitFailures(t *testing.T) {
	fake := testutil.NewFakeTool(t)
	root := t.TempDir()
	testutil.WriteFiles(t, root, map[string]string{
		"loud/Gir.toml":   testutil.GirToml("Loud", testutil.FakeBehavior{Stdout: "hello\n"}),
		"broken/Gir.toml": testutil.GirToml("Broken", testutil.FakeBehavior{Stderr: "cannot parse Gtk-4.0.gir\n", Exit: 1}),
	})
	b := NewBuilder(nil, Options{GirPath: fake.Path})

	loud, err := workitem.Discover(context.Background(), filepath.Join(root, "loud"), workitem.Options{})
	require.NoError(t, err)
	broken, err := workitem.Discover(context.Background(), filepath.Join(root, "broken"), workitem.Options{})
	require.NoError(t, err)

	_, loudErr := b.Task(loud[0]).Run(context.Background())
	_, brokenErr := b.Task(broken[0]).Run(context.Background())

	var stdoutErr *UnexpectedStdoutError
	require.True(t, errors.As(loudErr, &stdoutErr), "got %v", loudErr)
	var exitErr *procrun.ExitError
	require.True(t, errors.As(brokenErr, &exitErr), "got %v", brokenErr)
	assert.Equal(t, "cannot parse Gtk-4.0.gir\n", exitErr.Stderr)
}

func TestTasks_WithProcesses_DocMode(t *testing.T) {
	fake := testutil.NewFakeTool(t)
	root := t.TempDir()
	testutil.WriteFiles(t, root, map[string]string{
		"gtk/Gir.toml":     testutil.GirToml("Gtk", testutil.FakeBehavior{}),
		"gtk/sys/Gir.toml": testutil.GirToml("Gtk", testutil.FakeBehavior{}),
	})
	items, err := workitem.Discover(context.Background(), root, workitem.Options{DocMode: true, DocRoot: "docs"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	b := NewBuilder(nil, Options{GirPath: fake.Path, StripperPath: fake.Path, EmbedDocs: true, StripDocs: true})

	report, err := b.Task(items[0]).Run(context.Background())

	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(root, "docs", "gtk", "docs.md"))
	invs := fake.Invocations(t)
	require.Len(t, invs, 3)
	assert.Contains(t, invs[0].Args, "-s")
	assert.Contains(t, invs[1].Args, "doc")
	assert.Contains(t, invs[2].Args, "-g")
	assert.Contains(t, report.Log, "==> Embedding documentation from `"+filepath.Join(root, "docs", "gtk", "docs.md")+"`")
}

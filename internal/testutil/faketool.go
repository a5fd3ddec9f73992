// Package testutil holds helpers shared by package tests. Its fake tool lets
// the test binary stand in for gir, rustdoc-stripper, git and cargo: a test
// points the orchestrator at os.Executable() and TestMain diverts the child
// process into FakeMain before any test runs.
package testutil

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/require"
)

// Environment understood by the fake tool.
const (
	EnvFakeTool   = "GIRREGEN_FAKE_TOOL"
	EnvFakeLog    = "GIRREGEN_FAKE_LOG"
	EnvFakeStdout = "GIRREGEN_FAKE_STDOUT"
	EnvFakeStderr = "GIRREGEN_FAKE_STDERR"
	EnvFakeFailOn = "GIRREGEN_FAKE_FAIL_ON"
)

// GeneratedFile is written into the output directory by a fake gir run.
const GeneratedFile = "generated.txt"

// FakeBehavior is read from the [fake] table (and [fake_doc] for -m doc) of
// the Gir.toml handed to a fake gir.
type FakeBehavior struct {
	SleepMS int    `toml:"sleep_ms"`
	Stdout  string `toml:"stdout"`
	Stderr  string `toml:"stderr"`
	Exit    int    `toml:"exit"`
}

type fakeConfig struct {
	Fake    *FakeBehavior `toml:"fake"`
	FakeDoc *FakeBehavior `toml:"fake_doc"`
}

// Invocation is one recorded run of the fake tool. Start and End are Unix
// nanoseconds.
type Invocation struct {
	Args  []string `json:"args"`
	Dir   string   `json:"dir"`
	Start int64    `json:"start"`
	End   int64    `json:"end"`
}

// RunFakeToolIfRequested must be the first statement of TestMain in every
// package that uses FakeTool.
func RunFakeToolIfRequested() {
	if os.Getenv(EnvFakeTool) == "" {
		return
	}
	os.Exit(FakeMain(os.Args[1:]))
}

// FakeMain is the fake tool's entry point. Invocations carrying "-c" behave
// like gir; anything else is a generic tool driven by the environment.
func FakeMain(args []string) int {
	start := time.Now()
	var code int
	if slices.Contains(args, "-c") {
		code = fakeGir(args)
	} else {
		code = fakeGeneric(args)
	}
	record(args, start)
	return code
}

func fakeGir(args []string) int {
	config := flagValue(args, "-c")
	outDir := flagValue(args, "-o")
	docMode := flagValue(args, "-m") == "doc"

	data, err := os.ReadFile(config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fake gir: %v\n", err)
		return 2
	}
	var fc fakeConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		fmt.Fprintf(os.Stderr, "fake gir: %v\n", err)
		return 2
	}
	b := FakeBehavior{}
	if fc.Fake != nil {
		b = *fc.Fake
	}
	if docMode && fc.FakeDoc != nil {
		b = *fc.FakeDoc
	}

	time.Sleep(time.Duration(b.SleepMS) * time.Millisecond)
	fmt.Fprint(os.Stdout, b.Stdout)
	fmt.Fprint(os.Stderr, b.Stderr)
	if b.Exit != 0 {
		return b.Exit
	}

	if docMode {
		target := flagValue(args, "--doc-target-path")
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(config), target)
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err == nil {
			_ = os.WriteFile(target, []byte("docs for "+config+"\n"), 0o644)
		}
		return 0
	}
	_ = os.WriteFile(filepath.Join(outDir, GeneratedFile), []byte(strings.Join(args, " ")+"\n"), 0o644)
	return 0
}

func fakeGeneric(args []string) int {
	fmt.Fprint(os.Stdout, os.Getenv(EnvFakeStdout))
	fmt.Fprint(os.Stderr, os.Getenv(EnvFakeStderr))
	if failOn := os.Getenv(EnvFakeFailOn); failOn != "" && slices.Contains(args, failOn) {
		fmt.Fprintf(os.Stderr, "fake failure on %s\n", failOn)
		return 3
	}
	return 0
}

func flagValue(args []string, name string) string {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == name {
			return args[i+1]
		}
	}
	return ""
}

func record(args []string, start time.Time) {
	path := os.Getenv(EnvFakeLog)
	if path == "" {
		return
	}
	dir, _ := os.Getwd()
	line, err := json.Marshal(Invocation{Args: args, Dir: dir, Start: start.UnixNano(), End: time.Now().UnixNano()})
	if err != nil {
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = f.Write(append(line, '\n'))
}

// FakeTool is a handle on the fake tool for one test.
type FakeTool struct {
	// Path is the executable to hand to the code under test.
	Path    string
	logPath string
}

// NewFakeTool enables the fake tool for child processes of this test. It
// uses t.Setenv, so the calling test cannot be parallel.
func NewFakeTool(t *testing.T) *FakeTool {
	t.Helper()
	exe, err := os.Executable()
	require.NoError(t, err)

	logPath := filepath.Join(t.TempDir(), "invocations.jsonl")
	t.Setenv(EnvFakeTool, "1")
	t.Setenv(EnvFakeLog, logPath)
	return &FakeTool{Path: exe, logPath: logPath}
}

// Invocations returns every recorded run, in the order the runs finished.
func (f *FakeTool) Invocations(t *testing.T) []Invocation {
	t.Helper()
	file, err := os.Open(f.logPath)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	defer file.Close()

	var out []Invocation
	sc := bufio.NewScanner(file)
	for sc.Scan() {
		var inv Invocation
		require.NoError(t, json.Unmarshal(sc.Bytes(), &inv))
		out = append(out, inv)
	}
	require.NoError(t, sc.Err())
	return out
}

// GirToml renders a Gir.toml whose fake gir run behaves as b.
func GirToml(library string, b FakeBehavior) string {
	return fmt.Sprintf(`[options]
library = %q

[fake]
sleep_ms = %d
stdout = %q
stderr = %q
exit = %d
`, library, b.SleepMS, b.Stdout, b.Stderr, b.Exit)
}

// WriteFiles writes files (relative path -> content) below root.
func WriteFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

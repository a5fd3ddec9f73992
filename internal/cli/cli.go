package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/girregen/internal/app"
	"github.com/specialistvlad/girregen/internal/config"
	"github.com/specialistvlad/girregen/internal/workitem"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// stringList collects a repeatable flag; every occurrence may also hold a
// comma separated list.
type stringList []string

func (l *stringList) String() string {
	return strings.Join(*l, ",")
}

func (l *stringList) Set(v string) error {
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*l = append(*l, part)
		}
	}
	return nil
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
// Misused flags exit with 2, invalid values with 1.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("girregen", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
girregen - Regenerates gtk-rs style crates with gir.

Usage:
  girregen [options] [PATH...]

Arguments:
  PATH
    Files or directories in which to look for Gir*.toml files (default ".").

Options:
`)
		flagSet.PrintDefaults()
	}

	var girFilesDirs stringList
	flagSet.Var(&girFilesDirs, "gir-files-directories", "Path of a gir-files folder. Repeatable, or comma separated.")
	girPathFlag := flagSet.String("gir-path", "", "Path of the gir executable to run. Built from the gir submodule when unset.")
	yesFlag := flagSet.Bool("yes", false, "Always answer 'yes' to any question asked.")
	noFmtFlag := flagSet.Bool("no-fmt", false, "Do not run 'cargo fmt' after regeneration.")
	embedDocsFlag := flagSet.Bool("embed-docs", false, "Build documentation with 'gir -m doc', and embed it with 'rustdoc-stripper -g'.")
	stripDocsFlag := flagSet.Bool("strip-docs", false, "Remove documentation with 'rustdoc-stripper -s -n'. Can be used in conjunction with --embed-docs.")
	docRootFlag := flagSet.String("doc-root", workitem.DefaultDocRoot, "Directory, relative to each search path, that receives generated docs.md files.")
	stripperFlag := flagSet.String("rustdoc-stripper", "", "Path of the rustdoc-stripper executable (default \"rustdoc-stripper\").")
	jobsFlag := flagSet.Int("jobs", 0, "Maximum number of crates regenerated at once. 0 is unlimited.")
	configFlag := flagSet.String("config", config.DefaultFileName, "Path of the HCL project file. Ignored when the default file does not exist.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "warn", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	set := make(map[string]bool)
	flagSet.Visit(func(f *flag.Flag) { set[f.Name] = true })

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	project, err := config.Load(context.Background(), *configFlag, set["config"])
	if err != nil {
		return nil, false, &ExitError{Code: 1, Message: err.Error()}
	}

	cfg := app.Config{
		Paths:     flagSet.Args(),
		AutoYes:   *yesFlag,
		NoFmt:     *noFmtFlag,
		EmbedDocs: *embedDocsFlag,
		StripDocs: *stripDocsFlag,
		LogFormat: logFormat,
		LogLevel:  logLevel,
	}
	applyProject(&cfg, project)

	if set["gir-files-directories"] {
		cfg.GirFilesDirs = girFilesDirs
	}
	if set["gir-path"] {
		cfg.GirPath = *girPathFlag
	}
	if set["doc-root"] || cfg.DocRoot == "" {
		cfg.DocRoot = *docRootFlag
	}
	if set["rustdoc-stripper"] {
		cfg.StripperPath = *stripperFlag
	}
	if set["jobs"] {
		cfg.Jobs = *jobsFlag
	}
	slog.Debug("Flags merged over project file.", "project", project.Path)

	appConfig, err := app.NewConfig(cfg)
	if err != nil {
		return nil, false, &ExitError{Code: 1, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", appConfig)
	return appConfig, false, nil
}

func applyProject(cfg *app.Config, p *config.Project) {
	cfg.GirFilesDirs = p.GirFilesDirectories
	cfg.FmtCommand = p.FmtCommand
	if p.GirPath != nil {
		cfg.GirPath = *p.GirPath
	}
	if p.DocRoot != nil {
		cfg.DocRoot = *p.DocRoot
	}
	if p.RustdocStripper != nil {
		cfg.StripperPath = *p.RustdocStripper
	}
	if p.Jobs != nil {
		cfg.Jobs = *p.Jobs
	}
}

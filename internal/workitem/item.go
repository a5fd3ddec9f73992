package workitem

import (
	"path/filepath"
	"strings"

	"github.com/specialistvlad/girregen/internal/fsutil"
)

const (
	// Pattern is the base-name glob a configuration file must match.
	Pattern = "Gir*.toml"
	// SysSuffix marks an output directory as a -sys crate.
	SysSuffix = "sys"
	// DocFileName is the file gir -m doc writes into the documentation tree.
	DocFileName = "docs.md"
	// DefaultDocRoot is used when Options.DocRoot is empty.
	DefaultDocRoot = "docs"
)

// Options controls how discovered configuration files become Items.
type Options struct {
	// GirFilesDirs are forwarded to gir as "-d <dir>" pairs, in order.
	GirFilesDirs []string
	// DocMode selects documentation processing instead of code generation.
	// Sys items are skipped entirely in this mode.
	DocMode bool
	// DocRoot is the documentation tree, relative to the search root.
	DocRoot string
	// OnRoot, if set, is called once per search path before it is walked.
	OnRoot func(root string)
}

func (o Options) docRoot() string {
	if o.DocRoot == "" {
		return DefaultDocRoot
	}
	return o.DocRoot
}

// Item is one configuration file scheduled for processing.
type Item struct {
	// ConfigPath is the Gir*.toml file, as discovered (not made absolute).
	ConfigPath string
	// OutputDir is the parent directory of ConfigPath; it always exists.
	OutputDir string
	// SearchRoot is the directory discovery started from.
	SearchRoot string
	// RelDir is OutputDir relative to SearchRoot.
	RelDir string
	// IsSys is true when the base name of OutputDir ends in SysSuffix.
	IsSys bool
	// Library and WorkMode are read from the [options] table, informational.
	Library  string
	WorkMode string
	// DocTargetPath is set in doc mode; it is relative to OutputDir.
	DocTargetPath string
	// Args is the complete gir argument list for this item.
	Args []string
}

// SourceDir is the crate's src directory, the target of rustdoc-stripper.
func (it *Item) SourceDir() string {
	return filepath.Join(it.OutputDir, "src")
}

// DocFile is DocTargetPath resolved against the crate directory.
func (it *Item) DocFile() string {
	if it.DocTargetPath == "" {
		return ""
	}
	if filepath.IsAbs(it.DocTargetPath) {
		return it.DocTargetPath
	}
	return filepath.Join(it.OutputDir, it.DocTargetPath)
}

// MatchesPattern reports whether the base name of path matches Pattern.
func MatchesPattern(path string) bool {
	ok, _ := filepath.Match(Pattern, filepath.Base(path))
	return ok
}

// IsSysDir reports whether dir names a sys crate. The absolute form is used
// so that "." and relative paths resolve to their real directory name.
func IsSysDir(dir string) bool {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return strings.HasSuffix(filepath.Base(dir), SysSuffix)
}

// BaseArgs returns "-c <config> -o <outdir>" followed by one "-d <dir>" pair
// per extra gir-files directory.
func BaseArgs(configPath, outputDir string, girFilesDirs []string) []string {
	args := []string{"-c", configPath, "-o", outputDir}
	for _, dir := range girFilesDirs {
		args = append(args, "-d", dir)
	}
	return args
}

// BuildArgs resolves the full gir argument list for it under opts. It
// returns ok=false when the item must not be processed at all, which is the
// case for sys items in doc mode.
func BuildArgs(it *Item, opts Options) (args []string, ok bool) {
	args = BaseArgs(it.ConfigPath, it.OutputDir, opts.GirFilesDirs)
	switch {
	case opts.DocMode && it.IsSys:
		return nil, false
	case opts.DocMode:
		args = append(args, "-m", "doc", "--doc-target-path", it.DocTargetPath)
	case it.IsSys:
		args = append(args, "-m", "sys")
	}
	return args, true
}

// DocTargetPath computes where gir -m doc writes the documentation of the
// crate at relDir (relative to the search root). gir resolves the path
// against the config file's directory, so it climbs back to the search root
// with one ".." per element of relDir before descending into docRoot.
func DocTargetPath(relDir, docRoot string) string {
	if docRoot == "" {
		docRoot = DefaultDocRoot
	}
	rel := filepath.Clean(relDir)
	if rel == "." {
		rel = ""
	}
	if filepath.IsAbs(docRoot) {
		return filepath.Join(docRoot, rel, DocFileName)
	}
	up := strings.Repeat(".."+string(filepath.Separator), fsutil.Depth(rel))
	return up + filepath.Join(docRoot, rel, DocFileName)
}

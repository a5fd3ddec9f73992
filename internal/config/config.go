package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/girregen/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

// DefaultFileName is looked up in the working directory when no file is
// named explicitly.
const DefaultFileName = "regen.hcl"

// Project is the decoded content of a project file. Nil pointers and nil
// slices mean the attribute was absent.
type Project struct {
	GirPath             *string  `hcl:"gir_path,optional"`
	GirFilesDirectories []string `hcl:"gir_files_directories,optional"`
	DocRoot             *string  `hcl:"doc_root,optional"`
	RustdocStripper     *string  `hcl:"rustdoc_stripper,optional"`
	FmtCommand          []string `hcl:"fmt_command,optional"`
	Jobs                *int     `hcl:"jobs,optional"`

	// Path is the absolute path of the file the project was read from, empty
	// when no file was found.
	Path string
}

// Load reads the project file at path. A missing file is not an error unless
// required is set; an empty Project is returned instead.
//
// Relative filesystem paths in the file (gir_path, rustdoc_stripper when
// they contain a separator, and gir_files_directories) are resolved against
// the file's directory.
func Load(ctx context.Context, path string, required bool) (*Project, error) {
	logger := ctxlog.FromContext(ctx)

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project file %s: %w", path, err)
	}
	if _, err := os.Stat(abs); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			logger.Debug("No project file found.", "path", abs)
			return &Project{}, nil
		}
		return nil, fmt.Errorf("failed to read project file %s: %w", path, err)
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(abs)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse project file %s: %w", path, diags)
	}

	dir := filepath.Dir(abs)
	var p Project
	diags = gohcl.DecodeBody(file.Body, evalContext(dir), &p)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode project file %s: %w", path, diags)
	}
	if p.Jobs != nil && *p.Jobs < 0 {
		return nil, fmt.Errorf("project file %s: jobs must not be negative", path)
	}
	p.Path = abs
	p.resolve(dir)

	logger.Debug("Project file loaded.", "path", abs)
	return &p, nil
}

func (p *Project) resolve(dir string) {
	for i, d := range p.GirFilesDirectories {
		p.GirFilesDirectories[i] = resolvePath(dir, d)
	}
	if p.GirPath != nil && strings.ContainsRune(*p.GirPath, filepath.Separator) {
		v := resolvePath(dir, *p.GirPath)
		p.GirPath = &v
	}
	if p.RustdocStripper != nil && strings.ContainsRune(*p.RustdocStripper, filepath.Separator) {
		v := resolvePath(dir, *p.RustdocStripper)
		p.RustdocStripper = &v
	}
}

func resolvePath(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

func evalContext(dir string) *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"root": cty.StringVal(dir),
		},
		Functions: map[string]function.Function{
			"env": envFunc,
		},
	}
}

// envFunc returns the value of an environment variable, or "" when unset.
var envFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "name", Type: cty.String},
	},
	Type: function.StaticReturnType(cty.String),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		return cty.StringVal(os.Getenv(args[0].AsString())), nil
	},
})

package workitem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/specialistvlad/girregen/internal/ctxlog"
	"github.com/specialistvlad/girregen/internal/fsutil"
)

// InvalidPathError is returned for a search path that does not exist or is a
// file not matching Pattern.
type InvalidPathError struct {
	Path   string
	Reason string
}

func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("`%s` %s", e.Path, e.Reason)
}

// Discover returns the Items found under root. A directory is searched
// recursively for files matching Pattern; a file must itself match Pattern.
// Items are returned in lexical path order, which only determines launch
// order.
func Discover(ctx context.Context, root string, opts Options) ([]*Item, error) {
	logger := ctxlog.FromContext(ctx)

	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &InvalidPathError{Path: root, Reason: "no such file or directory"}
		}
		return nil, fmt.Errorf("failed to access search path %s: %w", root, err)
	}

	var files []string
	searchRoot := root
	if info.IsDir() {
		files, err = fsutil.FindFilesByPattern(root, Pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to search %s: %w", root, err)
		}
	} else {
		if !MatchesPattern(root) {
			return nil, &InvalidPathError{Path: root, Reason: "is not a valid " + Pattern + " file"}
		}
		files = []string{root}
		searchRoot = filepath.Dir(root)
	}
	logger.Debug("Configuration files found.", "root", root, "count", len(files))

	items := make([]*Item, 0, len(files))
	for _, file := range files {
		it, ok, err := newItem(ctx, file, searchRoot, opts)
		if err != nil {
			return nil, err
		}
		if !ok {
			logger.Debug("Skipping sys crate in documentation mode.", "config", file)
			continue
		}
		items = append(items, it)
	}
	return items, nil
}

// DiscoverAll runs Discover for every root before anything is launched, so
// that every configuration error surfaces up front. A config reachable from
// more than one root is kept once, at its first occurrence.
func DiscoverAll(ctx context.Context, roots []string, opts Options) ([]*Item, error) {
	logger := ctxlog.FromContext(ctx)

	var all []*Item
	seen := make(map[string]struct{})
	for _, root := range roots {
		if opts.OnRoot != nil {
			opts.OnRoot(root)
		}
		items, err := Discover(ctx, root, opts)
		if err != nil {
			return nil, err
		}
		for _, it := range items {
			key, err := filepath.Abs(it.ConfigPath)
			if err != nil {
				key = it.ConfigPath
			}
			if _, dup := seen[key]; dup {
				logger.Debug("Configuration reached from several search paths.", "config", it.ConfigPath)
				continue
			}
			seen[key] = struct{}{}
			all = append(all, it)
		}
	}
	return all, nil
}

func newItem(ctx context.Context, file, searchRoot string, opts Options) (*Item, bool, error) {
	outputDir := filepath.Dir(file)
	relDir, err := filepath.Rel(searchRoot, outputDir)
	if err != nil {
		return nil, false, fmt.Errorf("failed to relate %s to %s: %w", outputDir, searchRoot, err)
	}

	it := &Item{
		ConfigPath: file,
		OutputDir:  outputDir,
		SearchRoot: searchRoot,
		RelDir:     relDir,
		IsSys:      IsSysDir(outputDir),
	}

	gc, err := readGirConfig(file)
	if err != nil {
		return nil, false, err
	}
	it.Library = gc.Options.Library
	it.WorkMode = gc.Options.WorkMode
	if (it.WorkMode == "sys") != it.IsSys && it.WorkMode != "" {
		ctxlog.FromContext(ctx).Warn("work_mode disagrees with directory name; using directory name.",
			"config", file, "work_mode", it.WorkMode, "sys_dir", it.IsSys)
	}

	if opts.DocMode && !it.IsSys {
		it.DocTargetPath = DocTargetPath(relDir, opts.docRoot())
	}

	args, ok := BuildArgs(it, opts)
	if !ok {
		return nil, false, nil
	}
	it.Args = args
	return it, true, nil
}

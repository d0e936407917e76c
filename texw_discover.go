package main

import (
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/mitranim/gg"
)

/*
Recursively finds regular files under the root whose extension is allowed.
Ignored paths are skipped entirely, including their subtrees. Any walk error
is returned, since a tree we can't fully read can't be fully watched.

The output consists of absolute paths, sorted.
*/
func Discover(root string, exts FlagExtensions, ignored FlagIgnoredPaths) ([]string, error) {
	var out []string

	err := filepath.WalkDir(toAbsPath(root), func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if entry.IsDir() {
			if ignored.Ignore(path) || gg.Has(DEFAULT_IGNORED, entry.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		if !entry.Type().IsRegular() || ignored.Ignore(path) || !exts.Allow(path) {
			return nil
		}

		out = append(out, path)
		return nil
	})
	if err != nil {
		return nil, gg.Wrapf(err, `unable to discover source files in %q`, root)
	}

	sort.Strings(out)
	return out, nil
}

/*
Targets for the initial set of watchers: every discovered source file, plus
the configured bibliography file, if any. The bibliography is never found by
walking; a tree has many sources but at most one bibliography.
*/
func InitialTargets(opt *Opt) ([]Target, error) {
	paths, err := Discover(opt.Layout.Dir, opt.Extensions, opt.IgnoredPaths)
	if err != nil {
		return nil, err
	}

	bibPath := ``
	if opt.Layout.HasBib() {
		bibPath = opt.Layout.BibPath()
	}

	out := make([]Target, 0, len(paths)+1)
	for _, path := range paths {
		if path == bibPath {
			continue
		}
		tar, err := NewTarget(path, KindPrimary)
		if err != nil {
			return nil, err
		}
		out = append(out, tar)
	}

	if bibPath != `` {
		tar, err := NewTarget(bibPath, KindBib)
		if err != nil {
			return nil, err
		}
		out = append(out, tar)
	}
	return out, nil
}

// Baseline is the file's current modification time.
func NewTarget(path string, kind Kind) (Target, error) {
	path = toAbsPath(path)
	mod, err := ModTime(path)
	if err != nil {
		return Target{}, err
	}
	return Target{Path: path, Kind: kind, Baseline: mod}, nil
}

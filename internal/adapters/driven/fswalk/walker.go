// Package fswalk lists candidate files under a directory tree.
package fswalk

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/custodia-labs/corpus-cli/internal/core/ports/driven"
)

// Ensure Walker implements the interface.
var _ driven.FileWalker = (*Walker)(nil)

// Walker walks a directory tree returning regular files. Hidden
// entries (dot-prefixed) and paths matching exclusion glob patterns
// are skipped. Patterns match against paths relative to the root and
// support doublestar globs like "**/drafts/*.pdf".
type Walker struct {
	excludes []string
}

// New creates a walker with the given exclusion patterns.
func New(excludes []string) *Walker {
	return &Walker{excludes: excludes}
}

// Walk returns the sorted absolute paths of regular files under root.
func (w *Walker) Walk(ctx context.Context, root string) ([]string, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		if entry.IsDir() {
			if rel == "." {
				return nil
			}
			if strings.HasPrefix(entry.Name(), ".") || w.excluded(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		if !entry.Type().IsRegular() {
			return nil
		}
		if strings.HasPrefix(entry.Name(), ".") || w.excluded(rel) {
			return nil
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}

	sort.Strings(files)
	return files, nil
}

func (w *Walker) excluded(rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, pattern := range w.excludes {
		matched, err := doublestar.Match(pattern, rel)
		if err == nil && matched {
			return true
		}
	}
	return false
}

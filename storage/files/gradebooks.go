package files

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"

	"github.com/trezcool/videograder/core/override"
)

// GradebookDir is the folder shared with instructors, holding one gradebook per instructor.
type GradebookDir struct {
	dir string
}

var _ override.Source = (*GradebookDir)(nil)

func NewGradebookDir(dir string) *GradebookDir {
	return &GradebookDir{dir: dir}
}

// Find lists the gradebooks of `instructor`, including the copies left by sync conflicts.
func (gd *GradebookDir) Find(_ context.Context, instructor string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(gd.dir, escapeGlob(instructor)+"*.csv"))
	if err != nil {
		return nil, errors.Wrap(err, "listing gradebooks")
	}
	names := make([]string, 0, len(paths))
	for _, p := range paths {
		names = append(names, filepath.Base(p))
	}
	sort.Strings(names)
	return names, nil
}

func (gd *GradebookDir) Read(_ context.Context, name string) ([][]string, error) {
	return readRows(filepath.Join(gd.dir, name))
}

func (gd *GradebookDir) Remove(_ context.Context, name string) error {
	return errors.Wrapf(os.Remove(filepath.Join(gd.dir, name)), "removing %s", name)
}

func (gd *GradebookDir) Canonical(instructor string) string {
	return instructor + ".csv"
}

// Write saves a gradebook and returns its path.
func (gd *GradebookDir) Write(_ context.Context, name string, rows [][]string) (string, error) {
	path := filepath.Join(gd.dir, name)
	return path, writeRows(path, rows)
}

func escapeGlob(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch r {
		case '*', '?', '[', '\\':
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}

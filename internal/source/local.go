package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Local reads objects from a directory that mirrors the bucket layout.
type Local struct {
	// Root is the directory keys are resolved against.
	Root string
}

// NewLocal creates a Local source rooted at dir.
func NewLocal(dir string) *Local {
	return &Local{Root: dir}
}

func (l *Local) path(key string) string {
	return filepath.Join(l.Root, filepath.FromSlash(key))
}

// Open reads the file at key.
func (l *Local) Open(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(l.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", l.path(key), ErrNotFound)
	}
	return data, err
}

// List walks the directory under prefix and returns slash-separated keys
// relative to Root. A missing prefix directory yields no keys.
func (l *Local) List(ctx context.Context, prefix string) ([]string, error) {
	dir := l.path(prefix)
	var keys []string

	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && p == dir {
				return filepath.SkipAll
			}
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		rel, err := filepath.Rel(l.Root, p)
		if err != nil {
			return err
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}
	return keys, nil
}

// Describe returns the file path of key.
func (l *Local) Describe(key string) string {
	return l.path(key)
}

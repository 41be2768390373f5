package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// ErrUnsupportedFormat is returned by Loaders.For for unknown extensions.
var ErrUnsupportedFormat = errors.New("config: unsupported macro format")

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads the macro at path and returns Default() with the values it
	// sets applied. The model is not validated.
	Load(ctx context.Context, path string) (*Model, error)
}

// Loaders maps lower-case file extensions, dot included, to loaders.
type Loaders map[string]Loader

// For picks the loader matching the extension of path.
func (l Loaders) For(path string) (Loader, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if loader, ok := l[ext]; ok {
		return loader, nil
	}
	known := make([]string, 0, len(l))
	for k := range l {
		known = append(known, k)
	}
	sort.Strings(known)
	return nil, fmt.Errorf("%w: %q (want one of %s)", ErrUnsupportedFormat, path, strings.Join(known, ", "))
}

// Load resolves the loader for path, loads it and validates the result.
func (l Loaders) Load(ctx context.Context, path string) (*Model, error) {
	loader, err := l.For(path)
	if err != nil {
		return nil, err
	}
	m, err := loader.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := Validate(m); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

package streamset

import (
	"context"
	"fmt"

	streamerrors "github.com/tamirms/streamset/errors"
)

// MemoryProvider is a PathProvider backed by in-memory row slices. It is
// intended for tests, examples, and benchmarks; swap it for a provider that
// reads your actual store.
//
// Paths keep the order in which they were added. The provider is read-only
// after construction and therefore safe for concurrent use.
type MemoryProvider struct {
	paths []string
	rows  map[string][]Row
}

// NewMemoryProvider creates an empty MemoryProvider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{rows: make(map[string][]Row)}
}

// AddPath registers a path with its rows, appended after any existing paths.
// Adding a path twice replaces its rows without changing its position. The
// slice is retained, not copied; the caller must not mutate it afterwards.
func (p *MemoryProvider) AddPath(path string, rows []Row) *MemoryProvider {
	if _, ok := p.rows[path]; !ok {
		p.paths = append(p.paths, path)
	}
	p.rows[path] = rows
	return p
}

// Paths returns the ordered path identifiers.
func (p *MemoryProvider) Paths() []string {
	return p.paths
}

// Size reports the shape of path. Width is the column count of the path's
// first row, or zero for an empty path.
func (p *MemoryProvider) Size(_ context.Context, path string) (Size, error) {
	rows, ok := p.rows[path]
	if !ok {
		return Size{}, fmt.Errorf("%s: %w", path, streamerrors.ErrUnknownPath)
	}
	width := 0
	if len(rows) > 0 {
		width = len(rows[0])
	}
	return Size{Width: width, Height: len(rows)}, nil
}

// Slice returns the rows of path in [start, min(end, height)).
func (p *MemoryProvider) Slice(_ context.Context, path string, start, end int) ([]Row, error) {
	rows, ok := p.rows[path]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, streamerrors.ErrUnknownPath)
	}
	if start < 0 || end < start {
		return nil, fmt.Errorf("%s [%d,%d): %w", path, start, end, streamerrors.ErrNegativeRange)
	}
	if start > len(rows) {
		start = len(rows)
	}
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end], nil
}

package streamset

import "context"

// Row is a single record: a mapping from column name to value.
// Rows handed out by a Dataset must be treated as read-only.
type Row = map[string]any

// Size describes the shape of a tabular path: Width columns by Height rows.
type Size struct {
	Width  int
	Height int
}

// PathProvider supplies row data for named paths by row range. Implementations
// wrap a fixed snapshot of some tabular store; for the lifetime of a Dataset
// the path list and per-path sizes must not change.
//
// The loader issues at most one Slice call at a time per Dataset, but nothing
// prevents a provider from being shared across Datasets, so implementations
// should be safe for concurrent use.
type PathProvider interface {
	// Paths returns the ordered path identifiers. The returned slice must
	// not be mutated by the caller.
	Paths() []string

	// Size reports the (columns, rows) shape of path. Called once per path
	// at Dataset construction.
	Size(ctx context.Context, path string) (Size, error)

	// Slice returns the rows of path in [start, min(end, height)), in order.
	// A short (even empty) result at the tail of the path is not an error;
	// errors are reserved for I/O failures and unknown paths.
	Slice(ctx context.Context, path string, start, end int) ([]Row, error)
}

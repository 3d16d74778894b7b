// Package errors defines all exported error sentinels for the streamset library.
//
// This is the single source of truth for error values. Both the top-level
// streamset package and the provider packages import from here, ensuring
// errors.Is checks work across package boundaries.
package errors

import "errors"

// Construction errors
var (
	ErrNilProvider       = errors.New("streamset: provider is nil")
	ErrNoPaths           = errors.New("streamset: provider has no paths")
	ErrNoFeatures        = errors.New("streamset: feature projection is empty")
	ErrInvalidBufferSize = errors.New("streamset: buffer size must be positive")
	ErrInvalidNumBuffers = errors.New("streamset: buffer count must be positive")
)

// Access errors
var (
	ErrClosed          = errors.New("streamset: dataset is closed")
	ErrExhausted       = errors.New("streamset: dataset is exhausted")
	ErrIndexOutOfRange = errors.New("streamset: row index out of range")
	ErrUnknownFeature  = errors.New("streamset: projected feature missing from row")
)

// Provider protocol errors
var (
	ErrUnknownPath    = errors.New("streamset: path not found in provider")
	ErrNegativeRange  = errors.New("streamset: slice range is invalid")
	ErrStalledSlice   = errors.New("streamset: provider returned no rows before path end")
	ErrOversizedSlice = errors.New("streamset: provider returned more rows than requested")
)

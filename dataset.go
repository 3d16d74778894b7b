package streamset

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"sync/atomic"

	streamerrors "github.com/tamirms/streamset/errors"
	"golang.org/x/sync/errgroup"
)

// Dataset streams rows from a PathProvider without materializing the
// underlying data. One background worker prefetches row buffers ahead of the
// consumer; memory use is bounded by numBuffers × bufferSize rows.
//
// Usage:
//
//	ds, err := streamset.New(ctx, provider)
//	if err != nil { return err }
//	defer ds.Close()
//
//	for row, err := range ds.Rows(ctx) {
//	    if err != nil { return err }
//	    // use row
//	}
//
// Thread Safety:
//   - Next and Rows must be driven from a single goroutine
//   - Get is safe to call concurrently with Next
//   - Close is NOT safe to call concurrently with Next; call it after the
//     consuming goroutine is done
//
// The forward cursor is not restartable: once Next has returned ErrExhausted
// the instance stays exhausted. Build a fresh Dataset from the same provider
// to iterate again; for a fixed snapshot both passes yield identical rows.
type Dataset struct {
	provider PathProvider
	cfg      *datasetConfig
	paths    []string
	table    sizeTable
	width    int

	// Prefetch pipeline
	results      chan fetchResult
	workerCtx    context.Context
	workerCancel context.CancelFunc // Cancels workerCtx to unblock a stuck worker
	workerGroup  *errgroup.Group

	// Consumer-side cursor: the head buffer and the position within it.
	// Only the goroutine driving Next touches these.
	head    []Row
	headPos int
	termErr error // sticky terminal state: worker error or ErrExhausted

	// Snapshot fingerprint, written by the worker, readable once it exits
	fingerprint     *fingerprintState
	fingerprintDone atomic.Bool

	rowsRead       atomic.Int64
	buffersFetched atomic.Int64

	closed atomic.Bool // Atomic for lock-free close check
}

// Stats holds dataset statistics.
type Stats struct {
	NumPaths       int
	NumRows        int
	Width          int
	RowsRead       int64
	BuffersFetched int64
}

// New creates a Dataset over provider and starts its prefetch worker.
//
// Size is called synchronously for every path before New returns, so
// construction cost is proportional to the path count; ctx cancels the
// discovery. The provider's path list and sizes must stay fixed for the
// lifetime of the Dataset (a snapshot or pinned revision).
func New(ctx context.Context, provider PathProvider, opts ...Option) (*Dataset, error) {
	if provider == nil {
		return nil, streamerrors.ErrNilProvider
	}

	cfg := defaultDatasetConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.bufferSize <= 0 {
		return nil, streamerrors.ErrInvalidBufferSize
	}
	if cfg.numBuffers <= 0 {
		return nil, streamerrors.ErrInvalidNumBuffers
	}
	if cfg.features != nil && len(cfg.features) == 0 {
		return nil, streamerrors.ErrNoFeatures
	}

	paths := slices.Clone(provider.Paths())
	if len(paths) == 0 {
		return nil, streamerrors.ErrNoPaths
	}

	// Eager size discovery: one Size call per path, aborted by the first
	// error or by ctx.
	heights := make([]int, len(paths))
	width := 0
	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sz, err := provider.Size(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("size %s: %w", path, err)
		}
		heights[i] = sz.Height
		if i == 0 {
			width = sz.Width
		}
	}
	if cfg.features != nil {
		width = len(cfg.features)
	}

	d := &Dataset{
		provider:    provider,
		cfg:         cfg,
		paths:       paths,
		table:       newSizeTable(heights),
		width:       width,
		results:     make(chan fetchResult, cfg.numBuffers),
		fingerprint: newFingerprintState(),
	}

	wctx, cancel := context.WithCancel(ctx)
	d.workerCancel = cancel
	d.workerGroup, d.workerCtx = errgroup.WithContext(wctx)
	d.workerGroup.Go(d.runWorker)

	return d, nil
}

// Size returns the dataset shape: projected column count (native width of the
// first path when no projection is set) by total row count across all paths.
func (d *Dataset) Size() (width, height int) {
	return d.width, d.table.total()
}

// Len returns the total row count.
func (d *Dataset) Len() int {
	return d.table.total()
}

// Next returns the next row of the forward cursor, blocking until the
// prefetch worker has produced it. After the final row every call returns
// ErrExhausted; after a provider failure every call returns that failure
// (a dead worker is always observable, never a hang).
func (d *Dataset) Next(ctx context.Context) (Row, error) {
	if d.closed.Load() {
		return nil, streamerrors.ErrClosed
	}
	if d.termErr != nil {
		return nil, d.termErr
	}

	for d.headPos >= len(d.head) {
		select {
		case res, ok := <-d.results:
			if !ok {
				// A closed channel normally means every path was drained,
				// but the worker also exits when the construction context
				// is cancelled; report that as cancellation, not as a
				// clean end of data.
				if err := d.workerCtx.Err(); err != nil && !d.fingerprintDone.Load() {
					d.termErr = err
				} else {
					d.termErr = streamerrors.ErrExhausted
				}
				return nil, d.termErr
			}
			if res.err != nil {
				d.termErr = res.err
				return nil, d.termErr
			}
			d.head = res.rows
			d.headPos = 0
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	row := d.head[d.headPos]
	d.headPos++
	d.rowsRead.Add(1)
	return d.project(row)
}

// Rows returns a forward-only iterator over the remaining rows, driving Next.
// Iteration stops after the final row; a terminal error is yielded once as
// the last pair. ErrExhausted itself is not yielded.
func (d *Dataset) Rows(ctx context.Context) iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		for {
			row, err := d.Next(ctx)
			if errors.Is(err, streamerrors.ErrExhausted) {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(row, nil) {
				return
			}
		}
	}
}

// Get returns the row at the global index, independent of the forward cursor:
// the index is translated through the cumulative size table and fetched with
// a dedicated single-row Slice. Random access therefore never disturbs the
// prefetch window, at the cost of one provider call per row.
func (d *Dataset) Get(ctx context.Context, index int) (Row, error) {
	if d.closed.Load() {
		return nil, streamerrors.ErrClosed
	}
	if index < 0 || index >= d.table.total() {
		return nil, fmt.Errorf("index %d with %d rows: %w", index, d.table.total(), streamerrors.ErrIndexOutOfRange)
	}

	pathIdx, local := d.table.locate(index)
	path := d.paths[pathIdx]
	rows, err := d.provider.Slice(ctx, path, local, local+1)
	if err != nil {
		return nil, fmt.Errorf("slice %s row %d: %w", path, local, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("slice %s row %d: %w", path, local, streamerrors.ErrStalledSlice)
	}
	return d.project(rows[0])
}

// project applies the feature projection, if any, to a row.
func (d *Dataset) project(row Row) (Row, error) {
	if d.cfg.features == nil {
		return row, nil
	}
	out := make(Row, len(d.cfg.features))
	for _, name := range d.cfg.features {
		val, ok := row[name]
		if !ok {
			return nil, fmt.Errorf("feature %q: %w", name, streamerrors.ErrUnknownFeature)
		}
		out[name] = val
	}
	return out, nil
}

// Fingerprint returns the streaming hash-of-hashes of every buffer fetched
// from the provider, folded in fetch order. It is available (ok == true) only
// after the worker has drained all paths; two Datasets over the same snapshot
// report equal fingerprints.
func (d *Dataset) Fingerprint() (sum uint64, ok bool) {
	if !d.fingerprintDone.Load() {
		return 0, false
	}
	return d.fingerprint.sum(), true
}

// Stats returns dataset statistics.
func (d *Dataset) Stats() Stats {
	return Stats{
		NumPaths:       len(d.paths),
		NumRows:        d.table.total(),
		Width:          d.width,
		RowsRead:       d.rowsRead.Load(),
		BuffersFetched: d.buffersFetched.Load(),
	}
}

// Close cancels the prefetch worker and waits for it to exit. Safe to call
// multiple times. Close returns the worker's terminal provider error, if it
// died from one; cancellation caused by Close itself is not an error.
func (d *Dataset) Close() error {
	if d.closed.Swap(true) {
		return nil
	}
	d.workerCancel()
	err := d.workerGroup.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

package streamset

import (
	"fmt"

	streamerrors "github.com/tamirms/streamset/errors"
)

// fetchResult is the tagged value the prefetch worker publishes: one fetched
// buffer of rows or a terminal error. Exhaustion is signalled by channel
// close, so the consumer always observes one of buffer, error, or done — a
// failed worker can never strand the consumer. Buffers are immutable once
// fetched: the worker hands them over the channel and never touches them
// again.
type fetchResult struct {
	rows []Row
	err  error
}

// runWorker walks the provider's paths in order, fetching bufferSize-row
// windows and publishing them on the results channel. The channel's capacity
// is the backpressure bound: at most numBuffers buffers sit fetched but
// unconsumed, plus the one in flight here.
//
// A single Slice call is outstanding at any time, so rows are delivered in
// strict path order, then strict in-path row order.
func (d *Dataset) runWorker() error {
	defer close(d.results)

	ctx := d.workerCtx
	for pathIdx, path := range d.paths {
		height := d.table.heights[pathIdx]
		for local := 0; local < height; {
			end := local + d.cfg.bufferSize
			if end > height {
				end = height
			}

			rows, err := d.provider.Slice(ctx, path, local, end)
			if err != nil {
				err = fmt.Errorf("slice %s [%d,%d): %w", path, local, end, err)
				d.publishError(err)
				return err
			}

			// Providers may return short buffers at the tail of a path, but
			// an empty result before the declared height would loop forever
			// and a long result would corrupt the cursor arithmetic. Both
			// are protocol violations and terminate the worker.
			if len(rows) == 0 {
				err = fmt.Errorf("slice %s at row %d of %d: %w", path, local, height, streamerrors.ErrStalledSlice)
				d.publishError(err)
				return err
			}
			if len(rows) > end-local {
				err = fmt.Errorf("slice %s [%d,%d) returned %d rows: %w", path, local, end, len(rows), streamerrors.ErrOversizedSlice)
				d.publishError(err)
				return err
			}

			d.fingerprint.fold(bufferDigest(rows))
			d.buffersFetched.Add(1)

			select {
			case d.results <- fetchResult{rows: rows}:
			case <-ctx.Done():
				return ctx.Err()
			}

			local += len(rows)
		}
	}

	// All paths drained. The store happens before the deferred close, so a
	// consumer that sees the channel closed also sees the completed flag.
	d.fingerprintDone.Store(true)
	return nil
}

// publishError delivers a terminal error to the consumer. Close may have
// already cancelled the worker, in which case nobody is listening and the
// send is abandoned.
func (d *Dataset) publishError(err error) {
	select {
	case d.results <- fetchResult{err: err}:
	case <-d.workerCtx.Done():
	}
}

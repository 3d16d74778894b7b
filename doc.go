// Package streamset implements a buffered streaming dataset loader: row-by-row
// iteration over one or more large tabular sources with bounded memory use.
//
// A Dataset wraps a PathProvider (a snapshot of some tabular store, addressed
// by path and row range) and runs one background prefetch worker that keeps a
// bounded window of row buffers fetched ahead of the consumer.
//
// # Basic Usage
//
// Streaming a dataset:
//
//	ds, err := streamset.New(ctx, provider,
//	    streamset.WithBufferSize(256),
//	    streamset.WithFeatures([]string{"prompt", "label"}))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ds.Close()
//
//	for row, err := range ds.Rows(ctx) {
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(row["prompt"], row["label"])
//	}
//
// Random access (independent of the streaming cursor):
//
//	row, err := ds.Get(ctx, 41_999)
//
// # Package Structure
//
// The implementation is organized as follows:
//
//   - Public API: dataset.go (New, Next, Rows, Get, Close), provider.go (PathProvider, Row, Size)
//   - Configuration: dataset_options.go (Option, With* functions)
//   - Prefetch pipeline: worker.go (bounded-channel producer loop)
//   - Index translation: table.go (cumulative size table)
//   - Snapshot fingerprint: digest.go (row/buffer digests, streaming fold)
//   - Providers: memory.go (in-memory), jsonl/ (memory-mapped JSONL files)
//   - Errors: errors/ (exported sentinels)
package streamset

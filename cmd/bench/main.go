// Bench is a benchmarking tool for measuring streamset streaming throughput
// and memory usage.
//
// Usage:
//
//	go run ./cmd/bench -rows 1000000 -paths 8 -buffer 256 -window 3
//
// Flags:
//
//	-rows      Total number of rows across all paths (default: 1,000,000)
//	-paths     Number of paths the rows are split across (default: 4)
//	-cols      Number of columns per row (default: 8)
//	-buffer    Rows fetched per provider call (default: 128)
//	-window    Prefetched buffers held ahead of the consumer (default: 3)
//	-provider  Provider backend: memory or jsonl (default: memory)
package main

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spaolacci/murmur3"

	"github.com/tamirms/streamset"
	"github.com/tamirms/streamset/jsonl"
)

// getMaxRSS returns the maximum resident set size in bytes.
// Uses getrusage(RUSAGE_SELF) which tracks peak RSS since process start.
func getMaxRSS() uint64 {
	var rusage syscall.Rusage
	if err := syscall.Getrusage(syscall.RUSAGE_SELF, &rusage); err != nil {
		return 0
	}
	// On macOS, MaxRss is in bytes. On Linux, it's in kilobytes.
	maxRSS := uint64(rusage.Maxrss)
	if runtime.GOOS == "linux" {
		maxRSS *= 1024 // Convert KB to bytes on Linux
	}
	return maxRSS
}

// cellValue derives a deterministic synthetic value for (row, col).
func cellValue(row, col int) string {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[0:8], uint64(row))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(col))
	h1, h2 := murmur3.Sum128WithSeed(buf[:], 0x1234)
	return fmt.Sprintf("%016x%016x", h1, h2)
}

// buildRows generates n synthetic rows of the given width.
func buildRows(base, n, cols int) []streamset.Row {
	rows := make([]streamset.Row, n)
	for i := range rows {
		row := make(streamset.Row, cols)
		for c := range cols {
			row[fmt.Sprintf("col_%d", c)] = cellValue(base+i, c)
		}
		rows[i] = row
	}
	return rows
}

func main() {
	rowsFlag := flag.Int("rows", 1_000_000, "total number of rows")
	pathsFlag := flag.Int("paths", 4, "number of paths")
	colsFlag := flag.Int("cols", 8, "columns per row")
	bufferFlag := flag.Int("buffer", 128, "rows per provider call")
	windowFlag := flag.Int("window", 3, "prefetched buffers")
	providerFlag := flag.String("provider", "memory", "provider backend: memory or jsonl")
	flag.Parse()

	numRows := *rowsFlag
	numPaths := *pathsFlag
	cols := *colsFlag
	perPath := numRows / numPaths
	numRows = perPath * numPaths

	fmt.Printf("Generating %d rows across %d paths...\n", numRows, numPaths)
	genStart := time.Now()

	var provider streamset.PathProvider
	var closeProvider func() error

	switch *providerFlag {
	case "memory":
		mem := streamset.NewMemoryProvider()
		for p := range numPaths {
			mem.AddPath(fmt.Sprintf("shard_%03d.jsonl", p), buildRows(p*perPath, perPath, cols))
		}
		provider = mem
		closeProvider = func() error { return nil }

	case "jsonl":
		tmpDir, err := os.MkdirTemp("", "streamset-bench-")
		if err != nil {
			fmt.Printf("Failed to create temp dir: %v\n", err)
			return
		}
		defer func() { _ = os.RemoveAll(tmpDir) }()

		paths := make([]string, numPaths)
		for p := range numPaths {
			paths[p] = filepath.Join(tmpDir, fmt.Sprintf("shard_%03d.jsonl", p))
			if err := writeJSONL(paths[p], p*perPath, perPath, cols); err != nil {
				fmt.Printf("Failed to write %s: %v\n", paths[p], err)
				return
			}
		}
		jp, err := jsonl.Open(paths...)
		if err != nil {
			fmt.Printf("jsonl.Open failed: %v\n", err)
			return
		}
		provider = jp
		closeProvider = jp.Close

	default:
		fmt.Printf("Unknown provider: %s (use 'memory' or 'jsonl')\n", *providerFlag)
		return
	}
	fmt.Printf("Generated in %v\n", time.Since(genStart))

	runtime.GC()
	time.Sleep(50 * time.Millisecond)
	baselineRSS := getMaxRSS()

	// Sample peak RSS while streaming to show the window bound holding.
	var peakRSS atomic.Uint64
	peakRSS.Store(baselineRSS)
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				rss := getMaxRSS()
				for {
					old := peakRSS.Load()
					if rss <= old || peakRSS.CompareAndSwap(old, rss) {
						break
					}
				}
			}
		}
	}()

	fmt.Println("Streaming...")
	ctx := context.Background()
	streamStart := time.Now()

	ds, err := streamset.New(ctx, provider,
		streamset.WithBufferSize(*bufferFlag),
		streamset.WithNumBuffers(*windowFlag))
	if err != nil {
		fmt.Printf("New failed: %v\n", err)
		return
	}

	count := 0
	for _, err := range ds.Rows(ctx) {
		if err != nil {
			fmt.Printf("Stream failed: %v\n", err)
			return
		}
		count++
	}
	streamDuration := time.Since(streamStart)
	close(done)

	fingerprint, ok := ds.Fingerprint()
	stats := ds.Stats()

	if err := ds.Close(); err != nil {
		fmt.Printf("Close failed: %v\n", err)
	}
	if err := closeProvider(); err != nil {
		fmt.Printf("Provider close failed: %v\n", err)
	}

	fmt.Printf("\nRows streamed:    %d (declared %d)\n", count, stats.NumRows)
	fmt.Printf("Buffers fetched:  %d\n", stats.BuffersFetched)
	fmt.Printf("Elapsed:          %v\n", streamDuration)
	fmt.Printf("Throughput:       %.0f rows/sec\n", float64(count)/streamDuration.Seconds())
	if ok {
		fmt.Printf("Fingerprint:      %016x\n", fingerprint)
	}
	fmt.Printf("Baseline max RSS: %.1f MiB\n", float64(baselineRSS)/(1<<20))
	fmt.Printf("Peak max RSS:     %.1f MiB\n", float64(peakRSS.Load())/(1<<20))
}

// writeJSONL writes n synthetic rows to path, one JSON object per line.
func writeJSONL(path string, base, n, cols int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	for i := range n {
		row := make(map[string]string, cols)
		for c := range cols {
			row[fmt.Sprintf("col_%d", c)] = cellValue(base+i, c)
		}
		if err := enc.Encode(row); err != nil {
			return errors.Join(err, f.Close())
		}
	}
	return f.Close()
}

package streamset

import (
	"context"
	"encoding/binary"
	"fmt"
	"hash/fnv"
	randv2 "math/rand/v2"
	"sync"
	"testing"
)

// Named seeds for deterministic reproduction.
const (
	testSeed1 = 0x1234567890ABCDEF
	testSeed2 = 0xFEDCBA9876543210
)

func newTestRNG(t testing.TB) *randv2.Rand {
	t.Helper()
	h := fnv.New128a()
	h.Write([]byte(t.Name()))
	sum := h.Sum(nil)
	s1 := binary.LittleEndian.Uint64(sum[:8])
	s2 := binary.LittleEndian.Uint64(sum[8:])
	return randv2.New(randv2.NewPCG(testSeed1^s1, testSeed2^s2))
}

// xyRows builds n rows in the shape the scenario tests expect: global row i
// carries x="x_i", y="y_i", plus the originating path name.
func xyRows(path string, base, n int) []Row {
	rows := make([]Row, n)
	for i := range rows {
		rows[i] = Row{
			"x":    fmt.Sprintf("x_%d", base+i),
			"y":    fmt.Sprintf("y_%d", base+i),
			"path": path,
		}
	}
	return rows
}

// xyProvider builds a MemoryProvider with the given per-path heights and
// globally numbered x/y values.
func xyProvider(heights ...int) *MemoryProvider {
	p := NewMemoryProvider()
	base := 0
	for i, h := range heights {
		name := fmt.Sprintf("file_%d.parquet", i)
		p.AddPath(name, xyRows(name, base, h))
		base += h
	}
	return p
}

// collectRows drains a dataset's forward cursor, failing the test on error.
func collectRows(t *testing.T, ds *Dataset) []Row {
	t.Helper()
	var rows []Row
	for row, err := range ds.Rows(context.Background()) {
		if err != nil {
			t.Fatalf("Rows: unexpected error %v", err)
		}
		rows = append(rows, row)
	}
	return rows
}

// sliceCall records one Slice invocation.
type sliceCall struct {
	path       string
	start, end int
	returned   int
}

// recordingProvider wraps a PathProvider and records every Slice call.
type recordingProvider struct {
	PathProvider

	mu    sync.Mutex
	calls []sliceCall
}

func (p *recordingProvider) Slice(ctx context.Context, path string, start, end int) ([]Row, error) {
	rows, err := p.PathProvider.Slice(ctx, path, start, end)
	p.mu.Lock()
	p.calls = append(p.calls, sliceCall{path: path, start: start, end: end, returned: len(rows)})
	p.mu.Unlock()
	return rows, err
}

func (p *recordingProvider) sliceCalls() []sliceCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]sliceCall(nil), p.calls...)
}

// failingProvider wraps a PathProvider and fails the Nth Slice call (1-based).
type failingProvider struct {
	PathProvider

	failOn int
	err    error

	mu    sync.Mutex
	calls int
}

func (p *failingProvider) Slice(ctx context.Context, path string, start, end int) ([]Row, error) {
	p.mu.Lock()
	p.calls++
	n := p.calls
	p.mu.Unlock()
	if n == p.failOn {
		return nil, p.err
	}
	return p.PathProvider.Slice(ctx, path, start, end)
}

// mangledProvider wraps a PathProvider and rewrites Slice results to simulate
// protocol violations: truncate to zero rows or pad past the requested range.
type mangledProvider struct {
	PathProvider

	emptyFrom int // 1-based call number from which to return empty slices
	oversize  bool
	calls     int
}

func (p *mangledProvider) Slice(ctx context.Context, path string, start, end int) ([]Row, error) {
	p.calls++
	rows, err := p.PathProvider.Slice(ctx, path, start, end)
	if err != nil {
		return nil, err
	}
	if p.emptyFrom > 0 && p.calls >= p.emptyFrom {
		return nil, nil
	}
	if p.oversize {
		rows = append(append([]Row(nil), rows...), Row{"x": "extra", "y": "extra", "path": path})
	}
	return rows, err
}

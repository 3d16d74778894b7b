// Package jsonl implements a streamset.PathProvider over local
// newline-delimited JSON files.
//
// Each file is memory-mapped read-only and indexed by line at Open time, so
// Slice calls parse only the requested row range. One JSON object per line;
// the column set of the first line determines the path's width.
package jsonl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"

	"github.com/tamirms/streamset"
	streamerrors "github.com/tamirms/streamset/errors"
)

// span is the byte range of one line, newline excluded.
type span struct {
	start, end int
}

type file struct {
	mmap  mmap.MMap
	data  []byte
	lines []span
	width int
}

// Provider serves rows from a fixed set of JSONL files. It is read-only
// after Open and safe for concurrent use until Close.
type Provider struct {
	paths []string
	files map[string]*file
}

// Open memory-maps the given files and builds their line indexes. The path
// order given here is the path order the provider reports.
func Open(paths ...string) (*Provider, error) {
	if len(paths) == 0 {
		return nil, streamerrors.ErrNoPaths
	}

	p := &Provider{
		paths: append([]string(nil), paths...),
		files: make(map[string]*file, len(paths)),
	}
	for _, path := range paths {
		f, err := openFile(path)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("open %s: %w", path, err), p.Close())
		}
		p.files[path] = f
	}
	return p, nil
}

// openFile maps one JSONL file and scans its line boundaries.
func openFile(path string) (*file, error) {
	osf, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer osf.Close()

	stat, err := osf.Stat()
	if err != nil {
		return nil, err
	}
	if stat.Size() == 0 {
		// Empty file: zero rows, zero width. Nothing to map.
		return &file{}, nil
	}

	fadviseSequential(int(osf.Fd()), 0, stat.Size())

	mm, err := mmap.Map(osf, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("mmap: %w", err)
	}

	f := &file{mmap: mm, data: []byte(mm)}
	f.scanLines()

	if len(f.lines) > 0 {
		first, err := f.row(0)
		if err != nil {
			return nil, errors.Join(err, mm.Unmap())
		}
		f.width = len(first)
	}
	return f, nil
}

// scanLines records the byte span of every non-empty line.
func (f *file) scanLines() {
	start := 0
	for i, b := range f.data {
		if b != '\n' {
			continue
		}
		end := i
		if end > start && f.data[end-1] == '\r' {
			end--
		}
		if end > start {
			f.lines = append(f.lines, span{start: start, end: end})
		}
		start = i + 1
	}
	if start < len(f.data) {
		f.lines = append(f.lines, span{start: start, end: len(f.data)})
	}
}

// row parses line i into a Row.
func (f *file) row(i int) (streamset.Row, error) {
	sp := f.lines[i]
	var row streamset.Row
	if err := json.Unmarshal(f.data[sp.start:sp.end], &row); err != nil {
		return nil, fmt.Errorf("parse line %d: %w", i+1, err)
	}
	return row, nil
}

// Paths returns the ordered file paths.
func (p *Provider) Paths() []string {
	return p.paths
}

// Size reports the shape of path: first-line column count by line count.
func (p *Provider) Size(_ context.Context, path string) (streamset.Size, error) {
	f, ok := p.files[path]
	if !ok {
		return streamset.Size{}, fmt.Errorf("%s: %w", path, streamerrors.ErrUnknownPath)
	}
	return streamset.Size{Width: f.width, Height: len(f.lines)}, nil
}

// Slice parses and returns the rows of path in [start, min(end, height)).
func (p *Provider) Slice(ctx context.Context, path string, start, end int) ([]streamset.Row, error) {
	f, ok := p.files[path]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, streamerrors.ErrUnknownPath)
	}
	if start < 0 || end < start {
		return nil, fmt.Errorf("%s [%d,%d): %w", path, start, end, streamerrors.ErrNegativeRange)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if start > len(f.lines) {
		start = len(f.lines)
	}
	if end > len(f.lines) {
		end = len(f.lines)
	}

	rows := make([]streamset.Row, 0, end-start)
	for i := start; i < end; i++ {
		row, err := f.row(i)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Close unmaps every file. The provider must not be used afterwards, and no
// Row obtained from it may be retained past Close if row values alias the
// mapped data (they do not: json.Unmarshal copies).
func (p *Provider) Close() error {
	var errs []error
	for path, f := range p.files {
		if f.mmap != nil {
			if err := f.mmap.Unmap(); err != nil {
				errs = append(errs, fmt.Errorf("unmap %s: %w", path, err))
			}
			f.mmap = nil
			f.data = nil
		}
	}
	return errors.Join(errs...)
}

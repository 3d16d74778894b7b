package streamset

import (
	"encoding/binary"
	"fmt"
	"slices"

	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/xxh3"
)

// rowDigest computes a canonical 64-bit digest of a row. Columns are visited
// in sorted name order with every field length-prefixed, so adjacent fields
// cannot alias and map iteration order does not leak into the digest.
func rowDigest(row Row) uint64 {
	names := make([]string, 0, len(row))
	for name := range row {
		names = append(names, name)
	}
	slices.Sort(names)

	var lenBuf [4]byte
	h := xxh3.New()
	for _, name := range names {
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(name)))
		_, _ = h.Write(lenBuf[:])
		_, _ = h.WriteString(name)

		val := fmt.Sprint(row[name])
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(val)))
		_, _ = h.Write(lenBuf[:])
		_, _ = h.WriteString(val)
	}
	return h.Sum64()
}

// bufferDigest folds the digests of a buffer's rows, in order, into one value.
func bufferDigest(rows []Row) uint64 {
	var word [8]byte
	h := xxh3.New()
	for _, row := range rows {
		binary.LittleEndian.PutUint64(word[:], rowDigest(row))
		_, _ = h.Write(word[:])
	}
	return h.Sum64()
}

// fingerprintState accumulates buffer digests in fetch order into a streaming
// hash-of-hashes. Only the prefetch worker writes to it; the consumer reads
// the final sum after the worker has exited.
type fingerprintState struct {
	digest *xxhash.Digest
}

func newFingerprintState() *fingerprintState {
	return &fingerprintState{digest: xxhash.New()}
}

// fold mixes one buffer digest into the running fingerprint. Order matters:
// buffers must be folded in fetch order for deterministic results.
func (f *fingerprintState) fold(d uint64) {
	var word [8]byte
	binary.LittleEndian.PutUint64(word[:], d)
	_, _ = f.digest.Write(word[:])
}

func (f *fingerprintState) sum() uint64 {
	return f.digest.Sum64()
}

package streamset

import "sort"

// sizeTable holds per-path heights and their prefix sums. It translates a
// global row index into a (path index, local offset) pair.
type sizeTable struct {
	heights []int
	cum     []int // cum[i] = heights[0] + ... + heights[i]
}

func newSizeTable(heights []int) sizeTable {
	cum := make([]int, len(heights))
	total := 0
	for i, h := range heights {
		total += h
		cum[i] = total
	}
	return sizeTable{heights: heights, cum: cum}
}

// total returns the row count across all paths.
func (t sizeTable) total() int {
	if len(t.cum) == 0 {
		return 0
	}
	return t.cum[len(t.cum)-1]
}

// rowsBefore returns the cumulative row count of all paths prior to pathIdx.
func (t sizeTable) rowsBefore(pathIdx int) int {
	if pathIdx == 0 {
		return 0
	}
	return t.cum[pathIdx-1]
}

// locate maps a global row index to the owning path and its local offset.
// The caller must ensure 0 <= global < total(); zero-height paths are never
// returned because cum is strictly greater than global at the owning entry.
func (t sizeTable) locate(global int) (pathIdx, local int) {
	pathIdx = sort.SearchInts(t.cum, global+1)
	return pathIdx, global - t.rowsBefore(pathIdx)
}

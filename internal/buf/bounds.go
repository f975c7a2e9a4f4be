package buf

import (
	"fmt"
	"math"
)

// AddOverflowSafe adds a and b, returning ok = false when the result would overflow int64.
func AddOverflowSafe(a, b int64) (int64, bool) {
	switch {
	case b > 0 && a > math.MaxInt64-b:
		return 0, false
	case b < 0 && a < math.MinInt64-b:
		return 0, false
	default:
		return a + b, true
	}
}

// MulOverflowSafe multiplies two non-negative values, returning ok = false
// when the result would overflow int64. Negative inputs are rejected.
func MulOverflowSafe(a, b int64) (int64, bool) {
	if a < 0 || b < 0 {
		return 0, false
	}
	if a == 0 || b == 0 {
		return 0, true
	}
	if a > math.MaxInt64/b {
		return 0, false
	}
	return a * b, true
}

// CheckListBounds validates that count elements of at least elementSize bytes
// fit in a buffer of bufLen bytes starting at offset. Returns the end offset
// if valid, or an error describing the specific failure (overflow or out of
// bounds).
//
//	endOff, err := buf.CheckListBounds(tableLen, pos, int64(count), format.BlockInfoSize)
//	if err != nil {
//	    return fmt.Errorf("block infos: %w", err)
//	}
func CheckListBounds(bufLen, offset, count, elementSize int64) (int64, error) {
	if offset < 0 {
		return 0, fmt.Errorf("negative offset: %d", offset)
	}
	if count < 0 {
		return 0, fmt.Errorf("negative count: %d", count)
	}
	if elementSize < 0 {
		return 0, fmt.Errorf("negative element size: %d", elementSize)
	}

	totalSize, ok := MulOverflowSafe(count, elementSize)
	if !ok {
		return 0, fmt.Errorf("overflow: count=%d * elemSize=%d", count, elementSize)
	}

	endOffset, ok := AddOverflowSafe(offset, totalSize)
	if !ok {
		return 0, fmt.Errorf("overflow: offset=%d + size=%d", offset, totalSize)
	}

	if endOffset > bufLen {
		return 0, fmt.Errorf("bounds: end=%d > len=%d", endOffset, bufLen)
	}

	return endOffset, nil
}

// InRange reports whether [off, off+n) lies inside [0, limit).
func InRange(off, n, limit int64) bool {
	if off < 0 || n < 0 || off > limit {
		return false
	}
	end, ok := AddOverflowSafe(off, n)
	return ok && end <= limit
}

package format

// Align16 returns n aligned up to the next 16-byte boundary.
//
// Example:
//
//	Align16(1)  = 16
//	Align16(16) = 16
//	Align16(17) = 32
func Align16(n int64) int64 {
	return (n + Align16Mask) & ^int64(Align16Mask)
}

// AlignTo returns n rounded up to a multiple of align. An align of 0 or 1
// returns n unchanged.
func AlignTo(n, align int64) int64 {
	if align <= 1 {
		return n
	}
	if r := n % align; r != 0 {
		return n + align - r
	}
	return n
}

// Padding returns how many bytes are needed to bring n up to a multiple of
// align.
func Padding(n, align int64) int64 {
	return AlignTo(n, align) - n
}

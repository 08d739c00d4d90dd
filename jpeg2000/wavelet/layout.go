package wavelet

// SplitLengths returns the low-pass and high-pass sample counts of a
// length-n signal whose origin has the given parity.
func SplitLengths(n int, odd bool) (low, high int) {
	return splitCounts(n, odd)
}

// LLDimensions returns the LL subband dimensions after a multilevel
// decomposition of a window anchored at origin (0,0).
func LLDimensions(width, height, levels int) (llWidth, llHeight int) {
	return LLDimensionsAt(width, height, levels, 0, 0)
}

// LLDimensionsAt returns the LL subband dimensions after a multilevel
// decomposition of a window anchored at (x0,y0) on the reference grid.
func LLDimensionsAt(width, height, levels, x0, y0 int) (llWidth, llHeight int) {
	if width <= 0 || height <= 0 {
		return 0, 0
	}
	w, h, cx, cy := width, height, x0, y0
	for level := 0; level < levels; level++ {
		if w <= 1 && h <= 1 {
			break
		}
		w, h, cx, cy = nextLowpassWindow(w, h, cx, cy)
	}
	return w, h
}

// nextLowpassWindow maps a window on the reference grid to its LL
// window after one decomposition level.
func nextLowpassWindow(width, height, x0, y0 int) (nextWidth, nextHeight, nextX0, nextY0 int) {
	nextWidth, _ = splitCounts(width, !isEven(x0))
	nextHeight, _ = splitCounts(height, !isEven(y0))
	return nextWidth, nextHeight, nextCoord(x0), nextCoord(y0)
}

func isEven(v int) bool {
	return v&1 == 0
}

func nextCoord(v int) int {
	return (v + 1) >> 1
}

package wavelet

import "testing"

func TestSplitLengths(t *testing.T) {
	cases := []struct {
		n         int
		odd       bool
		low, high int
	}{
		{8, false, 4, 4},
		{9, false, 5, 4},
		{9, true, 4, 5},
		{1, false, 1, 0},
		{1, true, 0, 1},
	}
	for _, tc := range cases {
		low, high := SplitLengths(tc.n, tc.odd)
		if low != tc.low || high != tc.high {
			t.Errorf("SplitLengths(%d, odd=%v) = (%d,%d), want (%d,%d)",
				tc.n, tc.odd, low, high, tc.low, tc.high)
		}
	}
}

func TestLLDimensions(t *testing.T) {
	cases := []struct {
		w, h, levels int
		llW, llH     int
	}{
		{64, 64, 0, 64, 64},
		{64, 64, 1, 32, 32},
		{64, 64, 5, 2, 2},
		{33, 17, 3, 5, 3},
		{1, 1, 4, 1, 1},
	}
	for _, tc := range cases {
		w, h := LLDimensions(tc.w, tc.h, tc.levels)
		if w != tc.llW || h != tc.llH {
			t.Errorf("LLDimensions(%d,%d,%d) = (%d,%d), want (%d,%d)",
				tc.w, tc.h, tc.levels, w, h, tc.llW, tc.llH)
		}
	}
}

func TestLLDimensionsAtOddOrigin(t *testing.T) {
	// A width-9 window starting at x=3 has 4 low-pass columns after one
	// level (odd origin keeps the high-pass phase first).
	w, h := LLDimensionsAt(9, 9, 1, 3, 3)
	if w != 4 || h != 4 {
		t.Errorf("LLDimensionsAt(9,9,1,3,3) = (%d,%d), want (4,4)", w, h)
	}
}

// Package wavelet implements the discrete wavelet transforms of
// ISO/IEC 15444-1 Annex F: the reversible 5/3 integer transform and the
// irreversible 9/7 float transform, with symmetric boundary extension
// and odd-origin (parity) handling.
package wavelet

// The 1D kernels work on interleaved signals: even positions hold one
// phase, odd positions the other. Which phase carries the low-pass
// samples depends on the parity of the signal origin (cas). External
// callers exchange deinterleaved [L | H] buffers.

func clampIdx(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// forward53 applies the forward 5/3 lifting to an interleaved signal.
// sn low-pass and dn high-pass samples; odd means the low-pass phase
// starts on an odd coordinate.
func forward53(a []int32, dn, sn int, odd bool) {
	s := func(i int) int32 { return a[2*i] }
	d := func(i int) int32 { return a[2*i+1] }
	if !odd {
		if dn <= 0 && sn <= 1 {
			return
		}
		for i := 0; i < dn; i++ {
			a[2*i+1] -= (s(clampIdx(i, sn)) + s(clampIdx(i+1, sn))) >> 1
		}
		for i := 0; i < sn; i++ {
			a[2*i] += (d(clampIdx(i-1, dn)) + d(clampIdx(i, dn)) + 2) >> 2
		}
		return
	}
	if sn == 0 && dn == 1 {
		a[0] *= 2
		return
	}
	for i := 0; i < dn; i++ {
		a[2*i] -= (d(clampIdx(i, sn)) + d(clampIdx(i-1, sn))) >> 1
	}
	for i := 0; i < sn; i++ {
		a[2*i+1] += (s(clampIdx(i, dn)) + s(clampIdx(i+1, dn)) + 2) >> 2
	}
}

// inverse53 undoes forward53 exactly.
func inverse53(a []int32, dn, sn int, odd bool) {
	s := func(i int) int32 { return a[2*i] }
	d := func(i int) int32 { return a[2*i+1] }
	if !odd {
		if dn <= 0 && sn <= 1 {
			return
		}
		for i := 0; i < sn; i++ {
			a[2*i] -= (d(clampIdx(i-1, dn)) + d(clampIdx(i, dn)) + 2) >> 2
		}
		for i := 0; i < dn; i++ {
			a[2*i+1] += (s(clampIdx(i, sn)) + s(clampIdx(i+1, sn))) >> 1
		}
		return
	}
	if sn == 0 && dn == 1 {
		a[0] /= 2
		return
	}
	for i := 0; i < sn; i++ {
		a[2*i+1] -= (s(clampIdx(i, dn)) + s(clampIdx(i+1, dn)) + 2) >> 2
	}
	for i := 0; i < dn; i++ {
		a[2*i] += (d(clampIdx(i, sn)) + d(clampIdx(i-1, sn))) >> 1
	}
}

// splitCounts returns the low-pass and high-pass sample counts of a
// length-n signal whose origin parity is given by odd.
func splitCounts(n int, odd bool) (sn, dn int) {
	if odd {
		sn = n / 2
	} else {
		sn = (n + 1) / 2
	}
	return sn, n - sn
}

// interleave53 rebuilds the interleaved signal from [L | H] order.
func interleave53(data []int32, sn, dn int, odd bool) []int32 {
	a := make([]int32, len(data))
	lo, hi := 0, 1
	if odd {
		lo, hi = 1, 0
	}
	for i := 0; i < sn; i++ {
		a[2*i+lo] = data[i]
	}
	for i := 0; i < dn; i++ {
		a[2*i+hi] = data[sn+i]
	}
	return a
}

// deinterleave53 splits an interleaved signal into [L | H] order.
func deinterleave53(a []int32, sn, dn int, odd bool) []int32 {
	out := make([]int32, len(a))
	lo, hi := 0, 1
	if odd {
		lo, hi = 1, 0
	}
	for i := 0; i < sn; i++ {
		out[i] = a[2*i+lo]
	}
	for i := 0; i < dn; i++ {
		out[sn+i] = a[2*i+hi]
	}
	return out
}

// Forward53_1D transforms a signal in place into [L | H] order,
// assuming an even origin.
func Forward53_1D(data []int32) {
	Forward53_1DWithParity(data, false)
}

// Forward53_1DWithParity transforms a signal in place into [L | H]
// order. odd selects the odd-origin variant.
func Forward53_1DWithParity(data []int32, odd bool) {
	n := len(data)
	if n <= 1 && !odd {
		return
	}
	sn, dn := splitCounts(n, odd)
	a := make([]int32, n)
	copy(a, data)
	forward53(a, dn, sn, odd)
	copy(data, deinterleave53(a, sn, dn, odd))
}

// Inverse53_1D reconstructs a signal in place from [L | H] order,
// assuming an even origin.
func Inverse53_1D(data []int32) {
	Inverse53_1DWithParity(data, false)
}

// Inverse53_1DWithParity reconstructs a signal in place from [L | H]
// order. odd selects the odd-origin variant.
func Inverse53_1DWithParity(data []int32, odd bool) {
	n := len(data)
	if n <= 1 && !odd {
		return
	}
	sn, dn := splitCounts(n, odd)
	a := interleave53(data, sn, dn, odd)
	inverse53(a, dn, sn, odd)
	copy(data, a)
}

// Forward53_2D runs one decomposition level over a width x height
// window of a stride-spaced buffer: columns first, then rows, leaving
// the four subbands in quadrant layout.
func Forward53_2D(data []int32, width, height, stride int, oddX, oddY bool) {
	if height > 1 || oddY {
		col := make([]int32, height)
		for x := 0; x < width; x++ {
			for y := 0; y < height; y++ {
				col[y] = data[y*stride+x]
			}
			Forward53_1DWithParity(col, oddY)
			for y := 0; y < height; y++ {
				data[y*stride+x] = col[y]
			}
		}
	}
	if width > 1 || oddX {
		row := make([]int32, width)
		for y := 0; y < height; y++ {
			copy(row, data[y*stride:y*stride+width])
			Forward53_1DWithParity(row, oddX)
			copy(data[y*stride:y*stride+width], row)
		}
	}
}

// Inverse53_2D undoes Forward53_2D: rows first, then columns.
func Inverse53_2D(data []int32, width, height, stride int, oddX, oddY bool) {
	if width > 1 || oddX {
		row := make([]int32, width)
		for y := 0; y < height; y++ {
			copy(row, data[y*stride:y*stride+width])
			Inverse53_1DWithParity(row, oddX)
			copy(data[y*stride:y*stride+width], row)
		}
	}
	if height > 1 || oddY {
		col := make([]int32, height)
		for x := 0; x < width; x++ {
			for y := 0; y < height; y++ {
				col[y] = data[y*stride+x]
			}
			Inverse53_1DWithParity(col, oddY)
			for y := 0; y < height; y++ {
				data[y*stride+x] = col[y]
			}
		}
	}
}

// ForwardMultilevel53 decomposes levels times, re-decomposing only the
// LL window each level. x0/y0 give the window origin on the reference
// grid, which drives the parity of every level.
func ForwardMultilevel53(data []int32, width, height, levels, x0, y0 int) {
	stride := width
	w, h, cx, cy := width, height, x0, y0
	for level := 0; level < levels; level++ {
		if w <= 1 && h <= 1 {
			break
		}
		Forward53_2D(data, w, h, stride, !isEven(cx), !isEven(cy))
		w, h, cx, cy = nextLowpassWindow(w, h, cx, cy)
	}
}

// InverseMultilevel53 reconstructs from the coarsest level out.
func InverseMultilevel53(data []int32, width, height, levels, x0, y0 int) {
	stride := width
	ws := make([]int, levels+1)
	hs := make([]int, levels+1)
	xs := make([]int, levels+1)
	ys := make([]int, levels+1)
	ws[0], hs[0], xs[0], ys[0] = width, height, x0, y0
	for i := 1; i <= levels; i++ {
		ws[i], hs[i], xs[i], ys[i] = nextLowpassWindow(ws[i-1], hs[i-1], xs[i-1], ys[i-1])
	}
	for level := levels - 1; level >= 0; level-- {
		Inverse53_2D(data, ws[level], hs[level], stride, !isEven(xs[level]), !isEven(ys[level]))
	}
}

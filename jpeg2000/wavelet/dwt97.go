package wavelet

// 9/7 irreversible filter constants (Table F.4) and the normalization
// pair applied after the four lifting steps.
const (
	alpha97 = -1.586134342
	beta97  = -0.052980118
	gamma97 = 0.882911075
	delta97 = 0.443506852

	k97    = 1.230174105
	invK97 = 0.812893066
)

// liftStep97 applies one lifting step to an interleaved signal:
// data[fw-1] += (left + right) * c over the working phase, with the
// doubled-sample boundary case when the opposite phase runs short.
func liftStep97(data []float64, flStart, fwStart, end, m int, c float64) {
	imax := m
	if end < imax {
		imax = end
	}
	if imax > 0 {
		fw := fwStart
		data[fw-1] += (data[flStart] + data[fw]) * c
		fw += 2
		for i := 1; i < imax; i++ {
			data[fw-1] += (data[fw-2] + data[fw]) * c
			fw += 2
		}
	}
	if m < end {
		fw := fwStart + 2*m
		data[fw-1] += 2 * data[fw-2] * c
	}
}

// scale97 multiplies the two phases of an interleaved signal by c1/c2.
func scale97(data []float64, n1, n2 int, c1, c2 float64) {
	common := n1
	if n2 < common {
		common = n2
	}
	fw := 0
	i := 0
	for ; i < common; i++ {
		data[fw] *= c1
		data[fw+1] *= c2
		fw += 2
	}
	if i < n1 {
		data[fw] *= c1
	} else if i < n2 {
		data[fw+1] *= c2
	}
}

// unscale97 divides the two phases of an interleaved signal by c1/c2.
func unscale97(data []float64, n1, n2 int, c1, c2 float64) {
	common := n1
	if n2 < common {
		common = n2
	}
	fw := 0
	i := 0
	for ; i < common; i++ {
		data[fw] /= c1
		data[fw+1] /= c2
		fw += 2
	}
	if i < n1 {
		data[fw] /= c1
	} else if i < n2 {
		data[fw+1] /= c2
	}
}

func interleave97(data []float64, sn, dn int, odd bool) {
	tmp := make([]float64, len(data))
	lo, hi := 0, 1
	if odd {
		lo, hi = 1, 0
	}
	for i := 0; i < sn; i++ {
		tmp[2*i+lo] = data[i]
	}
	for i := 0; i < dn; i++ {
		tmp[2*i+hi] = data[sn+i]
	}
	copy(data, tmp)
}

func deinterleave97(data []float64, sn, dn int, odd bool) {
	tmp := make([]float64, len(data))
	lo, hi := 0, 1
	if odd {
		lo, hi = 1, 0
	}
	for i := 0; i < sn; i++ {
		tmp[i] = data[2*i+lo]
	}
	for i := 0; i < dn; i++ {
		tmp[sn+i] = data[2*i+hi]
	}
	copy(data, tmp)
}

// Forward97_1D transforms a signal in place into [L | H] order,
// assuming an even origin.
func Forward97_1D(data []float64) {
	Forward97_1DWithParity(data, false)
}

// Forward97_1DWithParity runs the four forward lifting steps plus
// normalization, then deinterleaves to [L | H] order.
func Forward97_1DWithParity(data []float64, odd bool) {
	n := len(data)
	if n <= 1 {
		return
	}
	sn, dn := splitCounts(n, odd)

	a, b := 0, 1
	if odd {
		a, b = 1, 0
	}

	liftStep97(data, a, b+1, dn, minInt(dn, sn-b), alpha97)
	liftStep97(data, b, a+1, sn, minInt(sn, dn-a), beta97)
	liftStep97(data, a, b+1, dn, minInt(dn, sn-b), gamma97)
	liftStep97(data, b, a+1, sn, minInt(sn, dn-a), delta97)

	if a == 0 {
		scale97(data, sn, dn, invK97, k97)
	} else {
		scale97(data, dn, sn, k97, invK97)
	}

	deinterleave97(data, sn, dn, odd)
}

// Inverse97_1D reconstructs a signal in place from [L | H] order,
// assuming an even origin.
func Inverse97_1D(data []float64) {
	Inverse97_1DWithParity(data, false)
}

// Inverse97_1DWithParity interleaves [L | H] data and unwinds the
// forward transform: normalization first, then the lifting steps with
// negated constants in reverse order.
func Inverse97_1DWithParity(data []float64, odd bool) {
	n := len(data)
	if n <= 1 {
		return
	}
	sn, dn := splitCounts(n, odd)

	a, b := 0, 1
	if odd {
		a, b = 1, 0
	}

	interleave97(data, sn, dn, odd)

	if a == 0 {
		unscale97(data, sn, dn, invK97, k97)
	} else {
		unscale97(data, dn, sn, k97, invK97)
	}

	liftStep97(data, b, a+1, sn, minInt(sn, dn-a), -delta97)
	liftStep97(data, a, b+1, dn, minInt(dn, sn-b), -gamma97)
	liftStep97(data, b, a+1, sn, minInt(sn, dn-a), -beta97)
	liftStep97(data, a, b+1, dn, minInt(dn, sn-b), -alpha97)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Forward97_2D runs one decomposition level over a width x height
// window of a stride-spaced buffer: columns first, then rows.
func Forward97_2D(data []float64, width, height, stride int, oddX, oddY bool) {
	if height > 1 {
		col := make([]float64, height)
		for x := 0; x < width; x++ {
			for y := 0; y < height; y++ {
				col[y] = data[y*stride+x]
			}
			Forward97_1DWithParity(col, oddY)
			for y := 0; y < height; y++ {
				data[y*stride+x] = col[y]
			}
		}
	}
	if width > 1 {
		row := make([]float64, width)
		for y := 0; y < height; y++ {
			copy(row, data[y*stride:y*stride+width])
			Forward97_1DWithParity(row, oddX)
			copy(data[y*stride:y*stride+width], row)
		}
	}
}

// Inverse97_2D undoes Forward97_2D: rows first, then columns.
func Inverse97_2D(data []float64, width, height, stride int, oddX, oddY bool) {
	if width > 1 {
		row := make([]float64, width)
		for y := 0; y < height; y++ {
			copy(row, data[y*stride:y*stride+width])
			Inverse97_1DWithParity(row, oddX)
			copy(data[y*stride:y*stride+width], row)
		}
	}
	if height > 1 {
		col := make([]float64, height)
		for x := 0; x < width; x++ {
			for y := 0; y < height; y++ {
				col[y] = data[y*stride+x]
			}
			Inverse97_1DWithParity(col, oddY)
			for y := 0; y < height; y++ {
				data[y*stride+x] = col[y]
			}
		}
	}
}

// ForwardMultilevel97 decomposes levels times, re-decomposing only the
// LL window each level.
func ForwardMultilevel97(data []float64, width, height, levels, x0, y0 int) {
	stride := width
	w, h, cx, cy := width, height, x0, y0
	for level := 0; level < levels; level++ {
		if w <= 1 && h <= 1 {
			break
		}
		Forward97_2D(data, w, h, stride, !isEven(cx), !isEven(cy))
		w, h, cx, cy = nextLowpassWindow(w, h, cx, cy)
	}
}

// InverseMultilevel97 reconstructs from the coarsest level out.
func InverseMultilevel97(data []float64, width, height, levels, x0, y0 int) {
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
		Inverse97_2D(data, ws[level], hs[level], stride, !isEven(xs[level]), !isEven(ys[level]))
	}
}

// Int32ToFloat64 widens coefficients for the irreversible path.
func Int32ToFloat64(data []int32) []float64 {
	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = float64(v)
	}
	return out
}

// Float64ToInt32 rounds reconstructed samples to the nearest integer.
func Float64ToInt32(data []float64) []int32 {
	out := make([]int32, len(data))
	for i, v := range data {
		if v >= 0 {
			out[i] = int32(v + 0.5)
		} else {
			out[i] = int32(v - 0.5)
		}
	}
	return out
}

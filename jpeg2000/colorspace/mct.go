// Package colorspace implements the two JPEG 2000 multiple component
// transforms (ISO/IEC 15444-1 Annex G): the reversible RCT paired with
// the 5/3 wavelet and the irreversible ICT paired with the 9/7. Both
// operate on level-shifted samples; there is no chroma offset.
package colorspace

import "math"

// RCTForward maps RGB to the reversible YUV-like components.
func RCTForward(r, g, b int32) (y, cb, cr int32) {
	y = (r + 2*g + b) >> 2
	cb = b - g
	cr = r - g
	return
}

// RCTInverse is the exact inverse of RCTForward.
func RCTInverse(y, cb, cr int32) (r, g, b int32) {
	g = y - ((cb + cr) >> 2)
	r = cr + g
	b = cb + g
	return
}

// ICTForward maps RGB to YCbCr with the standard irreversible weights.
func ICTForward(r, g, b int32) (y, cb, cr int32) {
	y = int32(math.Round(0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)))
	cb = int32(math.Round(-0.16875*float64(r) - 0.331260*float64(g) + 0.5*float64(b)))
	cr = int32(math.Round(0.5*float64(r) - 0.41869*float64(g) - 0.08131*float64(b)))
	return
}

// ICTInverse maps YCbCr back to RGB, rounding to nearest.
func ICTInverse(y, cb, cr int32) (r, g, b int32) {
	r = int32(math.Round(float64(y) + 1.402*float64(cr)))
	g = int32(math.Round(float64(y) - 0.34413*float64(cb) - 0.71414*float64(cr)))
	b = int32(math.Round(float64(y) + 1.772*float64(cb)))
	return
}

// InverseRCT rewrites the three planes from (Y,Cb,Cr) to (R,G,B) in
// place. Planes must have equal length.
func InverseRCT(c0, c1, c2 []int32) {
	for i := range c0 {
		c0[i], c1[i], c2[i] = RCTInverse(c0[i], c1[i], c2[i])
	}
}

// ForwardRCT rewrites the three planes from (R,G,B) to (Y,Cb,Cr) in
// place.
func ForwardRCT(c0, c1, c2 []int32) {
	for i := range c0 {
		c0[i], c1[i], c2[i] = RCTForward(c0[i], c1[i], c2[i])
	}
}

// InverseICT rewrites the three planes from (Y,Cb,Cr) to (R,G,B) in
// place.
func InverseICT(c0, c1, c2 []int32) {
	for i := range c0 {
		c0[i], c1[i], c2[i] = ICTInverse(c0[i], c1[i], c2[i])
	}
}

// ForwardICT rewrites the three planes from (R,G,B) to (Y,Cb,Cr) in
// place.
func ForwardICT(c0, c1, c2 []int32) {
	for i := range c0 {
		c0[i], c1[i], c2[i] = ICTForward(c0[i], c1[i], c2[i])
	}
}

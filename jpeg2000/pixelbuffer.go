package jpeg2000

// PixelBuffer is a fully decoded image: a flat, component-interleaved
// sample buffer plus the geometry and precision the codestream
// declared. Samples hold the final values after DC level shift and
// clamping, one int32 per sample regardless of precision.
type PixelBuffer struct {
	Width      int
	Height     int
	Components int
	BitDepth   int
	Signed     bool
	Samples    []int32
}

// newPixelBuffer interleaves per-component planes pixel by pixel.
func newPixelBuffer(planes [][]int32, width, height, bitDepth int, signed bool) *PixelBuffer {
	pb := &PixelBuffer{
		Width:      width,
		Height:     height,
		Components: len(planes),
		BitDepth:   bitDepth,
		Signed:     signed,
		Samples:    make([]int32, width*height*len(planes)),
	}
	n := width * height
	for c, plane := range planes {
		for i := 0; i < n; i++ {
			pb.Samples[i*pb.Components+c] = plane[i]
		}
	}
	return pb
}

// Interleaved8 returns the samples as one byte each, clamped to
// [0, 255]. Suitable for 8-bit imagery.
func (pb *PixelBuffer) Interleaved8() []byte {
	out := make([]byte, len(pb.Samples))
	for i, v := range pb.Samples {
		if v < 0 {
			v = 0
		} else if v > 255 {
			v = 255
		}
		out[i] = byte(v)
	}
	return out
}

// Interleaved16 returns the samples as little-endian uint16 pairs,
// clamped to the declared precision. Signed samples are offset into
// the unsigned range first.
func (pb *PixelBuffer) Interleaved16() []byte {
	offset := int32(0)
	if pb.Signed {
		offset = 1 << (pb.BitDepth - 1)
	}
	max := int32(1<<pb.BitDepth - 1)
	out := make([]byte, len(pb.Samples)*2)
	for i, v := range pb.Samples {
		v += offset
		if v < 0 {
			v = 0
		} else if v > max {
			v = max
		}
		out[i*2] = byte(v)
		out[i*2+1] = byte(v >> 8)
	}
	return out
}

package colorspace

import (
	"math/rand/v2"
	"testing"
)

func TestRCTRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 10000; i++ {
		r := int32(rng.IntN(65536) - 32768)
		g := int32(rng.IntN(65536) - 32768)
		b := int32(rng.IntN(65536) - 32768)
		y, cb, cr := RCTForward(r, g, b)
		rr, gg, bb := RCTInverse(y, cb, cr)
		if rr != r || gg != g || bb != b {
			t.Fatalf("RCT not reversible for (%d,%d,%d): got (%d,%d,%d)", r, g, b, rr, gg, bb)
		}
	}
}

func TestRCTKnownValues(t *testing.T) {
	y, cb, cr := RCTForward(100, 100, 100)
	if y != 100 || cb != 0 || cr != 0 {
		t.Errorf("gray input: got (%d,%d,%d), want (100,0,0)", y, cb, cr)
	}
	y, cb, cr = RCTForward(4, 0, 0)
	if y != 1 || cb != 0 || cr != 4 {
		t.Errorf("red input: got (%d,%d,%d), want (1,0,4)", y, cb, cr)
	}
}

func TestICTRoundTripApproximate(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	for i := 0; i < 10000; i++ {
		r := int32(rng.IntN(256) - 128)
		g := int32(rng.IntN(256) - 128)
		b := int32(rng.IntN(256) - 128)
		y, cb, cr := ICTForward(r, g, b)
		rr, gg, bb := ICTInverse(y, cb, cr)
		if absDiff(rr, r) > 2 || absDiff(gg, g) > 2 || absDiff(bb, b) > 2 {
			t.Fatalf("ICT drift for (%d,%d,%d): got (%d,%d,%d)", r, g, b, rr, gg, bb)
		}
	}
}

func TestICTGrayPassThrough(t *testing.T) {
	y, cb, cr := ICTForward(50, 50, 50)
	if y != 50 || cb != 0 || cr != 0 {
		t.Errorf("gray input: got (%d,%d,%d), want (50,0,0)", y, cb, cr)
	}
	r, g, b := ICTInverse(50, 0, 0)
	if r != 50 || g != 50 || b != 50 {
		t.Errorf("gray inverse: got (%d,%d,%d), want (50,50,50)", r, g, b)
	}
}

func TestInverseRCTPlanes(t *testing.T) {
	r := []int32{10, -20, 300}
	g := []int32{5, 15, -25}
	b := []int32{0, 1, 2}
	c0 := append([]int32(nil), r...)
	c1 := append([]int32(nil), g...)
	c2 := append([]int32(nil), b...)

	ForwardRCT(c0, c1, c2)
	InverseRCT(c0, c1, c2)

	for i := range r {
		if c0[i] != r[i] || c1[i] != g[i] || c2[i] != b[i] {
			t.Fatalf("plane round trip mismatch at %d", i)
		}
	}
}

func absDiff(a, b int32) int32 {
	if a > b {
		return a - b
	}
	return b - a
}

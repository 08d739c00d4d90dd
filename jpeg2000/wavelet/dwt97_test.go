package wavelet

import (
	"math"
	"math/rand/v2"
	"testing"
)

const eps97 = 1e-6

func TestForwardInverse97_1D(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 13))
	for _, size := range []int{2, 3, 4, 5, 8, 16, 33, 100, 127} {
		original := make([]float64, size)
		for i := range original {
			original[i] = float64(rng.IntN(2000) - 1000)
		}
		data := append([]float64(nil), original...)

		Forward97_1D(data)
		Inverse97_1D(data)

		for i := range data {
			if math.Abs(data[i]-original[i]) > eps97 {
				t.Errorf("size %d: mismatch at %d: got %g, want %g",
					size, i, data[i], original[i])
			}
		}
	}
}

func TestForwardInverse97_1DOddOrigin(t *testing.T) {
	rng := rand.New(rand.NewPCG(19, 31))
	for _, size := range []int{2, 3, 5, 8, 64} {
		original := make([]float64, size)
		for i := range original {
			original[i] = float64(rng.IntN(2000) - 1000)
		}
		data := append([]float64(nil), original...)

		Forward97_1DWithParity(data, true)
		Inverse97_1DWithParity(data, true)

		for i := range data {
			if math.Abs(data[i]-original[i]) > eps97 {
				t.Errorf("size %d odd origin: mismatch at %d: got %g, want %g",
					size, i, data[i], original[i])
			}
		}
	}
}

func TestForwardInverse97Multilevel(t *testing.T) {
	cases := []struct {
		w, h, levels int
		x0, y0       int
	}{
		{16, 16, 2, 0, 0},
		{64, 64, 5, 0, 0},
		{33, 17, 3, 0, 0},
		{24, 24, 2, 3, 5},
	}
	rng := rand.New(rand.NewPCG(23, 41))
	for _, tc := range cases {
		original := make([]float64, tc.w*tc.h)
		for i := range original {
			original[i] = float64(rng.IntN(4096) - 2048)
		}
		data := append([]float64(nil), original...)

		ForwardMultilevel97(data, tc.w, tc.h, tc.levels, tc.x0, tc.y0)
		InverseMultilevel97(data, tc.w, tc.h, tc.levels, tc.x0, tc.y0)

		for i := range data {
			if math.Abs(data[i]-original[i]) > 1e-4 {
				t.Fatalf("%dx%d levels=%d: mismatch at %d: got %g, want %g",
					tc.w, tc.h, tc.levels, i, data[i], original[i])
			}
		}
	}
}

func TestFloat64Int32Rounding(t *testing.T) {
	in := []float64{0.4, 0.6, -0.4, -0.6, 2.5, -2.5}
	want := []int32{0, 1, 0, -1, 3, -3}
	got := Float64ToInt32(in)
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("round %g: got %d, want %d", in[i], got[i], want[i])
		}
	}
	back := Int32ToFloat64(got)
	if back[4] != 3 {
		t.Errorf("widening lost value: %g", back[4])
	}
}

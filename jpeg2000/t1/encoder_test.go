package t1

import (
	"math/rand"
	"testing"

	"github.com/openmedimg/go-jpeg2000/jpeg2000/codestream"
)

func roundTripBlock(t *testing.T, width, height, orient int, style uint8, coeffs []int32) {
	t.Helper()

	enc := NewEncoder(width, height, orient, style)
	data, numPasses, maxBitplane, segEnds := enc.Encode(coeffs)

	dec := NewDecoder(width, height, orient, style)
	rep, err := dec.Decode(data, numPasses, maxBitplane, segEnds)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rep.PassesDecoded != numPasses {
		t.Fatalf("decoded %d of %d passes", rep.PassesDecoded, numPasses)
	}

	got := dec.Data()
	for i := range coeffs {
		if got[i] != coeffs[i] {
			t.Fatalf("coefficient %d: got %d, want %d", i, got[i], coeffs[i])
		}
	}
}

func TestEncodeAllZero(t *testing.T) {
	enc := NewEncoder(8, 8, 0, 0)
	data, numPasses, maxBitplane, segEnds := enc.Encode(make([]int32, 64))
	if data != nil || numPasses != 0 || maxBitplane != -1 || segEnds != nil {
		t.Fatalf("all-zero block: got (%v, %d, %d, %v)", data, numPasses, maxBitplane, segEnds)
	}
}

func TestRoundTripSingleCoefficient(t *testing.T) {
	coeffs := make([]int32, 64)
	coeffs[27] = -5
	roundTripBlock(t, 8, 8, 0, 0, coeffs)
}

func TestRoundTripSparse(t *testing.T) {
	coeffs := make([]int32, 16*16)
	coeffs[0] = 1
	coeffs[15] = -128
	coeffs[16*7+3] = 42
	coeffs[16*15+15] = -1
	roundTripBlock(t, 16, 16, 1, 0, coeffs)
}

func TestRoundTripDense(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, orient := range []int{0, 1, 2, 3} {
		coeffs := make([]int32, 32*32)
		for i := range coeffs {
			coeffs[i] = int32(rng.Intn(511) - 255)
		}
		roundTripBlock(t, 32, 32, orient, 0, coeffs)
	}
}

func TestRoundTripNarrowBlocks(t *testing.T) {
	// Widths and heights that leave partial four-row stripes.
	shapes := []struct{ w, h int }{{1, 1}, {3, 5}, {7, 2}, {5, 9}, {64, 3}}
	rng := rand.New(rand.NewSource(11))
	for _, s := range shapes {
		coeffs := make([]int32, s.w*s.h)
		for i := range coeffs {
			coeffs[i] = int32(rng.Intn(63) - 31)
		}
		roundTripBlock(t, s.w, s.h, 2, 0, coeffs)
	}
}

func TestRoundTripLargeMagnitudes(t *testing.T) {
	coeffs := make([]int32, 8*8)
	coeffs[0] = 1 << 14
	coeffs[9] = -(1<<14 - 1)
	coeffs[63] = 1
	roundTripBlock(t, 8, 8, 3, 0, coeffs)
}

// denseBlock fills a block with enough bit-planes that the bypass style
// actually reaches raw-coded passes.
func denseBlock(seed int64, n int) []int32 {
	rng := rand.New(rand.NewSource(seed))
	coeffs := make([]int32, n)
	for i := range coeffs {
		coeffs[i] = int32(rng.Intn(511) - 255)
	}
	return coeffs
}

func TestRoundTripBypass(t *testing.T) {
	roundTripBlock(t, 16, 16, 1, codestream.CBStyleBypass, denseBlock(21, 16*16))
}

func TestRoundTripTermAll(t *testing.T) {
	roundTripBlock(t, 16, 16, 2, codestream.CBStyleTermAll, denseBlock(22, 16*16))
}

func TestRoundTripSegmentationSymbols(t *testing.T) {
	roundTripBlock(t, 16, 16, 0, codestream.CBStyleSegSym, denseBlock(23, 16*16))
}

func TestRoundTripResetContexts(t *testing.T) {
	roundTripBlock(t, 16, 16, 3, codestream.CBStyleResetCtx, denseBlock(24, 16*16))
}

func TestRoundTripVerticallyCausal(t *testing.T) {
	// A height that leaves a partial last stripe exercises the
	// end-of-block causal row as well.
	roundTripBlock(t, 16, 13, 2, codestream.CBStyleVSC, denseBlock(25, 16*13))
}

func TestRoundTripCombinedStyles(t *testing.T) {
	style := codestream.CBStyleBypass | codestream.CBStyleResetCtx |
		codestream.CBStyleTermAll | codestream.CBStyleVSC |
		codestream.CBStylePredictTerm | codestream.CBStyleSegSym
	roundTripBlock(t, 16, 16, 1, style, denseBlock(26, 16*16))
}

func TestBypassSplitsSegments(t *testing.T) {
	enc := NewEncoder(16, 16, 1, codestream.CBStyleBypass)
	data, numPasses, maxBitplane, segEnds := enc.Encode(denseBlock(27, 16*16))
	if maxBitplane < 4 {
		t.Fatalf("block too shallow for bypass: maxBitplane %d", maxBitplane)
	}
	want := segmentSpans(codestream.CBStyleBypass, numPasses)
	if len(want) < 2 {
		t.Fatalf("expected multiple segments for %d passes", numPasses)
	}
	if len(segEnds) != len(want) {
		t.Fatalf("segment ends %d, want %d", len(segEnds), len(want))
	}
	if segEnds[len(segEnds)-1] != len(data) {
		t.Fatalf("last segment end %d, data length %d", segEnds[len(segEnds)-1], len(data))
	}
}

func TestSegmentationSymbolCatchesCorruption(t *testing.T) {
	coeffs := denseBlock(28, 16*16)
	enc := NewEncoder(16, 16, 0, codestream.CBStyleSegSym)
	data, numPasses, maxBitplane, segEnds := enc.Encode(coeffs)

	corrupt := make([]byte, len(data))
	copy(corrupt, data)
	corrupt[len(corrupt)/2] ^= 0x55

	dec := NewDecoder(16, 16, 0, codestream.CBStyleSegSym)
	if _, err := dec.Decode(corrupt, numPasses, maxBitplane, segEnds); err == nil {
		// A single flipped bit can still produce a valid symbol
		// sequence, but the decoded coefficients must then differ.
		clean := NewDecoder(16, 16, 0, codestream.CBStyleSegSym)
		if _, err := clean.Decode(data, numPasses, maxBitplane, segEnds); err != nil {
			t.Fatalf("clean decode: %v", err)
		}
		same := true
		for i, v := range clean.Data() {
			if dec.Data()[i] != v {
				same = false
				break
			}
		}
		if same {
			t.Fatal("corrupted data decoded identically without an error")
		}
	}
}

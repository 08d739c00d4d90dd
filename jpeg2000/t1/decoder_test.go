package t1

import (
	"errors"
	"testing"

	"github.com/openmedimg/go-jpeg2000/jpeg2000/codestream"
)

func TestSegmentSpansTermAll(t *testing.T) {
	spans := segmentSpans(codestream.CBStyleTermAll, 7)
	if len(spans) != 7 {
		t.Fatalf("expected 7 segments, got %d", len(spans))
	}
	for i, n := range spans {
		if n != 1 {
			t.Errorf("segment %d: expected 1 pass, got %d", i, n)
		}
	}
}

func TestSegmentSpansBypass(t *testing.T) {
	cases := []struct {
		passes int
		want   []int
	}{
		{4, []int{4}},
		{10, []int{10}},
		{12, []int{10, 2}},
		{16, []int{10, 2, 1, 2, 1}},
		{13, []int{10, 2, 1}},
	}
	for _, tc := range cases {
		got := segmentSpans(codestream.CBStyleBypass, tc.passes)
		if len(got) != len(tc.want) {
			t.Errorf("passes=%d: got %v, want %v", tc.passes, got, tc.want)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("passes=%d: got %v, want %v", tc.passes, got, tc.want)
				break
			}
		}
	}
}

func TestSegmentSpansDefault(t *testing.T) {
	spans := segmentSpans(0, 9)
	if len(spans) != 1 || spans[0] != 9 {
		t.Fatalf("expected single 9-pass segment, got %v", spans)
	}
}

func TestZeroCodingContextQuiet(t *testing.T) {
	for orient := 0; orient < 4; orient++ {
		if ctx := zcContext(0, orient); ctx != 0 {
			t.Errorf("orient %d: quiet neighborhood should map to context 0, got %d", orient, ctx)
		}
	}
}

func TestZeroCodingContextRange(t *testing.T) {
	flags := []uint32{fSigN, fSigN | fSigS, fSigNeighbors, fSigW | fSigE | fSigNW}
	for orient := 0; orient < 4; orient++ {
		for _, f := range flags {
			ctx := zcContext(f, orient)
			if ctx < 0 || ctx > 8 {
				t.Errorf("orient %d flags %#x: context %d out of range", orient, f, ctx)
			}
		}
	}
}

func TestSignCodingContextRange(t *testing.T) {
	flags := []uint32{
		0,
		fSigN | fSignN,
		fSigW | fSigE | fSignE,
		fSigN | fSigS | fSignN | fSignS,
	}
	for _, f := range flags {
		ctx := scContext(f)
		if ctx < ctxSCBase || ctx > ctxSCBase+4 {
			t.Errorf("flags %#x: sign context %d out of range", f, ctx)
		}
	}
	if scContext(0) != ctxSCBase {
		t.Errorf("no significant neighbors should use the base sign context")
	}
	if signPrediction(0) != 0 {
		t.Errorf("no significant neighbors should predict a positive sign")
	}
}

func TestSignPredictionAntisymmetry(t *testing.T) {
	// A single positive horizontal neighbor predicts positive; the same
	// neighbor negative predicts negative.
	if signPrediction(fSigW) != 0 {
		t.Errorf("positive west neighbor: expected prediction 0")
	}
	if signPrediction(fSigW|fSignW) != 1 {
		t.Errorf("negative west neighbor: expected prediction 1")
	}
}

func TestMagRefinementContext(t *testing.T) {
	if ctx := mrContext(0); ctx != ctxMRBase {
		t.Errorf("isolated first refinement: got %d, want %d", ctx, ctxMRBase)
	}
	if ctx := mrContext(fSigE); ctx != ctxMRBase+1 {
		t.Errorf("neighbored first refinement: got %d, want %d", ctx, ctxMRBase+1)
	}
	if ctx := mrContext(fRefine | fSigE); ctx != ctxMRBase+2 {
		t.Errorf("repeat refinement: got %d, want %d", ctx, ctxMRBase+2)
	}
}

func TestDecodeNoPopulatedBitplanes(t *testing.T) {
	d := NewDecoder(8, 8, 0, 0)
	rep, err := d.Decode([]byte{0x12, 0x34}, 5, -1, nil)
	if err != nil {
		t.Fatalf("all-zero bit-planes should decode to nothing: %v", err)
	}
	if rep.PassesDecoded != 0 {
		t.Errorf("expected 0 passes decoded, got %d", rep.PassesDecoded)
	}
	for _, v := range d.Data() {
		if v != 0 {
			t.Fatal("expected all-zero coefficients")
		}
	}
}

func TestDecodeMissingSegmentLengths(t *testing.T) {
	d := NewDecoder(8, 8, 0, codestream.CBStyleTermAll)
	_, err := d.Decode(make([]byte, 32), 4, 3, nil)
	if !errors.Is(err, ErrCorruptCodeblock) {
		t.Fatalf("expected ErrCorruptCodeblock, got %v", err)
	}
}

func TestDecodeBadSegmentEnds(t *testing.T) {
	d := NewDecoder(8, 8, 0, codestream.CBStyleTermAll)
	_, err := d.Decode(make([]byte, 8), 3, 3, []int{4, 2, 8})
	if !errors.Is(err, ErrCorruptCodeblock) {
		t.Fatalf("non-monotonic segment ends: expected ErrCorruptCodeblock, got %v", err)
	}
	_, err = d.Decode(make([]byte, 8), 3, 3, []int{4, 6, 99})
	if !errors.Is(err, ErrCorruptCodeblock) {
		t.Fatalf("segment end past data: expected ErrCorruptCodeblock, got %v", err)
	}
}

func TestDecodeLenientAbandonsAllOnBadSegments(t *testing.T) {
	d := NewDecoder(8, 8, 0, codestream.CBStyleTermAll)
	d.SetLenient(true)
	rep, err := d.Decode(make([]byte, 8), 5, 3, nil)
	if err != nil {
		t.Fatalf("lenient decode should not fail: %v", err)
	}
	if rep.PassesDecoded != 0 || rep.PassesAbandoned != 5 {
		t.Errorf("expected 0 decoded / 5 abandoned, got %+v", rep)
	}
}

func TestDecodeEmptyDataDetected(t *testing.T) {
	// An empty codeword segment cannot carry sixteen coding passes; the
	// decoder must notice it is running on sentinel fill.
	d := NewDecoder(16, 16, 0, 0)
	_, err := d.Decode(nil, 16, 5, nil)
	if !errors.Is(err, ErrCorruptCodeblock) {
		t.Fatalf("expected ErrCorruptCodeblock, got %v", err)
	}
}

func TestDecodeEmptyDataLenient(t *testing.T) {
	d := NewDecoder(16, 16, 0, 0)
	d.SetLenient(true)
	rep, err := d.Decode(nil, 16, 5, nil)
	if err != nil {
		t.Fatalf("lenient decode should not fail: %v", err)
	}
	if rep.PassesDecoded+rep.PassesAbandoned != 16 {
		t.Errorf("pass accounting mismatch: %+v", rep)
	}
	if rep.PassesAbandoned == 0 {
		t.Errorf("expected abandoned passes on empty data")
	}
}

package mqc

import (
	"math/rand"
	"testing"
)

func TestRoundTripSingleContext(t *testing.T) {
	bits := []int{1, 0, 1, 1, 0, 0, 0, 1, 1, 1, 0, 1, 0, 0, 1, 1}

	enc := NewEncoder(1)
	for _, b := range bits {
		enc.Encode(b, 0)
	}
	data := enc.Flush()

	dec := NewDecoder(data, 1)
	for i, want := range bits {
		if got := dec.Decode(0); got != want {
			t.Fatalf("bit %d: got %d, want %d", i, got, want)
		}
	}
	if dec.Violated() {
		t.Error("decoder overran a correctly terminated segment")
	}
}

func TestRoundTripManyContexts(t *testing.T) {
	const numContexts = 19
	rng := rand.New(rand.NewSource(3))

	type coded struct{ bit, ctx int }
	seq := make([]coded, 4096)
	for i := range seq {
		seq[i] = coded{bit: rng.Intn(2), ctx: rng.Intn(numContexts)}
	}

	enc := NewEncoder(numContexts)
	enc.SetContextState(18, 46)
	enc.SetContextState(17, 3)
	enc.SetContextState(0, 4)
	for _, c := range seq {
		enc.Encode(c.bit, c.ctx)
	}
	data := enc.Flush()

	dec := NewDecoder(data, numContexts)
	dec.SetContextState(18, 46)
	dec.SetContextState(17, 3)
	dec.SetContextState(0, 4)
	for i, c := range seq {
		if got := dec.Decode(c.ctx); got != c.bit {
			t.Fatalf("symbol %d (context %d): got %d, want %d", i, c.ctx, got, c.bit)
		}
	}
	if dec.Violated() {
		t.Error("decoder overran a correctly terminated segment")
	}
}

func TestRoundTripSkewedDistribution(t *testing.T) {
	// Mostly-MPS input drives the state machine into its low-probability
	// tail and exercises carry propagation and byte stuffing.
	rng := rand.New(rand.NewSource(9))
	bits := make([]int, 8192)
	for i := range bits {
		if rng.Intn(100) == 0 {
			bits[i] = 1
		}
	}

	enc := NewEncoder(2)
	for i, b := range bits {
		enc.Encode(b, i&1)
	}
	data := enc.Flush()

	if n := len(data); n == 0 || n > 1024 {
		t.Fatalf("skewed input should compress well, got %d bytes", n)
	}
	if data[len(data)-1] == 0xFF {
		t.Fatal("terminated segment must not end in 0xFF")
	}

	dec := NewDecoder(data, 2)
	for i, want := range bits {
		if got := dec.Decode(i & 1); got != want {
			t.Fatalf("bit %d: got %d, want %d", i, got, want)
		}
	}
}

func TestRoundTripContextCarryover(t *testing.T) {
	// Two terminated segments with context states carried across, the
	// way TERMALL decodes consecutive passes.
	first := []int{1, 1, 0, 1, 0, 0, 1, 0}
	second := []int{0, 1, 1, 1, 0, 1, 0, 0}

	enc := NewEncoder(3)
	for _, b := range first {
		enc.Encode(b, 1)
	}
	seg1 := enc.Flush()
	carried := enc.Contexts()
	enc.Restart()
	for _, b := range second {
		enc.Encode(b, 1)
	}
	seg2 := enc.Flush()

	dec := NewDecoder(seg1, 3)
	for i, want := range first {
		if got := dec.Decode(1); got != want {
			t.Fatalf("segment 1 bit %d: got %d, want %d", i, got, want)
		}
	}
	if carriedDec := dec.Contexts(); carriedDec[1] != carried[1] {
		t.Fatalf("context state diverged: decoder %#x, encoder %#x", carriedDec[1], carried[1])
	}

	dec2 := NewDecoderWithContexts(seg2, carried)
	for i, want := range second {
		if got := dec2.Decode(1); got != want {
			t.Fatalf("segment 2 bit %d: got %d, want %d", i, got, want)
		}
	}
}

func TestRawRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	bits := make([]int, 1000)
	for i := range bits {
		bits[i] = rng.Intn(2)
	}

	enc := NewRawEncoder()
	for _, b := range bits {
		enc.Encode(b)
	}
	data := enc.Flush()
	if len(data) > 0 && data[len(data)-1] == 0xFF {
		t.Fatal("raw segment must not end in 0xFF")
	}

	dec := NewRawDecoder(data)
	for i, want := range bits {
		if got := dec.Decode(); got != want {
			t.Fatalf("bit %d: got %d, want %d", i, got, want)
		}
	}
}

func TestRawRoundTripAllOnes(t *testing.T) {
	// All-ones input produces 0xFF bytes and exercises the seven-bit
	// stuffing rule on both sides.
	enc := NewRawEncoder()
	for i := 0; i < 64; i++ {
		enc.Encode(1)
	}
	data := enc.Flush()

	dec := NewRawDecoder(data)
	for i := 0; i < 64; i++ {
		if got := dec.Decode(); got != 1 {
			t.Fatalf("bit %d: got %d, want 1", i, got)
		}
	}
}

func TestDecoderSentinelAccounting(t *testing.T) {
	dec := NewDecoder(nil, 1)
	for i := 0; i < 64; i++ {
		dec.Decode(0)
	}
	if !dec.Exhausted() {
		t.Error("draining an empty segment should mark the decoder exhausted")
	}
	if !dec.Violated() {
		t.Error("64 symbols from an empty segment should violate the termination bound")
	}
}

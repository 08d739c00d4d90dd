package t2

import (
	"errors"
	"testing"
)

// bitBuffer records bits on encode and replays them on decode.
type bitBuffer struct {
	bits []int
	pos  int
}

func (b *bitBuffer) WriteBit(bit int) error {
	b.bits = append(b.bits, bit)
	return nil
}

func (b *bitBuffer) ReadBit() (int, error) {
	if b.pos >= len(b.bits) {
		return 0, errors.New("bit buffer exhausted")
	}
	bit := b.bits[b.pos]
	b.pos++
	return bit, nil
}

func TestTagTreeSingleLeaf(t *testing.T) {
	enc := NewTagTree(1, 1)
	enc.SetValue(0, 0, 2)

	buf := &bitBuffer{}
	for th := 1; th <= 3; th++ {
		if err := enc.Encode(buf, 0, 0, th); err != nil {
			t.Fatalf("encode threshold %d: %v", th, err)
		}
	}

	dec := NewTagTree(1, 1)
	want := []bool{false, false, true}
	for th := 1; th <= 3; th++ {
		ok, err := dec.Decode(buf, 0, 0, th)
		if err != nil {
			t.Fatalf("decode threshold %d: %v", th, err)
		}
		if ok != want[th-1] {
			t.Errorf("threshold %d: got %v, want %v", th, ok, want[th-1])
		}
	}
	if v := dec.Value(0, 0); v != 2 {
		t.Errorf("decoded value = %d, want 2", v)
	}
}

func TestTagTreeGridRoundTrip(t *testing.T) {
	values := [][]int{
		{1, 0, 2},
		{3, 1, 0},
		{0, 4, 2},
	}
	enc := NewTagTree(3, 3)
	for y := range values {
		for x, v := range values[y] {
			enc.SetValue(x, y, v)
		}
	}

	maxTh := 6
	buf := &bitBuffer{}
	for th := 1; th <= maxTh; th++ {
		for y := 0; y < 3; y++ {
			for x := 0; x < 3; x++ {
				if err := enc.Encode(buf, x, y, th); err != nil {
					t.Fatalf("encode (%d,%d) threshold %d: %v", x, y, th, err)
				}
			}
		}
	}

	dec := NewTagTree(3, 3)
	for th := 1; th <= maxTh; th++ {
		for y := 0; y < 3; y++ {
			for x := 0; x < 3; x++ {
				ok, err := dec.Decode(buf, x, y, th)
				if err != nil {
					t.Fatalf("decode (%d,%d) threshold %d: %v", x, y, th, err)
				}
				if want := values[y][x] < th; ok != want {
					t.Errorf("(%d,%d) threshold %d: got %v, want %v", x, y, th, ok, want)
				}
			}
		}
	}
	for y := range values {
		for x, v := range values[y] {
			if got := dec.Value(x, y); got != v {
				t.Errorf("value (%d,%d) = %d, want %d", x, y, got, v)
			}
		}
	}
	if buf.pos != len(buf.bits) {
		t.Errorf("decoder consumed %d of %d bits", buf.pos, len(buf.bits))
	}
}

func TestTagTreeReset(t *testing.T) {
	tree := NewTagTree(2, 2)
	tree.SetValue(0, 0, 0)
	tree.Reset()
	if v := tree.Value(0, 0); v != tagTreeUnset {
		t.Errorf("value after reset = %d, want %d", v, tagTreeUnset)
	}
}

func TestTagTreeNonSquare(t *testing.T) {
	enc := NewTagTree(5, 2)
	for y := 0; y < 2; y++ {
		for x := 0; x < 5; x++ {
			enc.SetValue(x, y, (x+y)%3)
		}
	}
	buf := &bitBuffer{}
	for y := 0; y < 2; y++ {
		for x := 0; x < 5; x++ {
			if err := enc.Encode(buf, x, y, 3); err != nil {
				t.Fatalf("encode (%d,%d): %v", x, y, err)
			}
		}
	}
	dec := NewTagTree(5, 2)
	for y := 0; y < 2; y++ {
		for x := 0; x < 5; x++ {
			ok, err := dec.Decode(buf, x, y, 3)
			if err != nil {
				t.Fatalf("decode (%d,%d): %v", x, y, err)
			}
			if !ok {
				t.Errorf("(%d,%d) not resolved below threshold 3", x, y)
			}
			if got, want := dec.Value(x, y), (x+y)%3; got != want {
				t.Errorf("value (%d,%d) = %d, want %d", x, y, got, want)
			}
		}
	}
}

package codestream

import (
	"errors"
	"testing"
)

func TestBitReaderBasic(t *testing.T) {
	br := NewBitReader([]byte{0xA5, 0x3C})

	want := []int{1, 0, 1, 0, 0, 1, 0, 1, 0, 0, 1, 1, 1, 1, 0, 0}
	for i, w := range want {
		bit, err := br.ReadBit()
		if err != nil {
			t.Fatalf("ReadBit %d failed: %v", i, err)
		}
		if bit != w {
			t.Errorf("bit %d = %d, want %d", i, bit, w)
		}
	}
}

func TestBitReaderReadBits(t *testing.T) {
	br := NewBitReader([]byte{0xA5, 0x3C})
	v, err := br.ReadBits(12)
	if err != nil {
		t.Fatalf("ReadBits failed: %v", err)
	}
	if v != 0xA53 {
		t.Errorf("ReadBits(12) = 0x%X, want 0xA53", v)
	}
}

// After a 0xFF byte only seven bits of the next byte carry data.
func TestBitReaderStuffing(t *testing.T) {
	br := NewBitReader([]byte{0xFF, 0xFF})

	for i := 0; i < 8; i++ {
		bit, err := br.ReadBit()
		if err != nil {
			t.Fatalf("ReadBit failed: %v", err)
		}
		if bit != 1 {
			t.Fatalf("bit %d of 0xFF = %d, want 1", i, bit)
		}
	}

	// Second byte: stuffed high bit skipped, seven 1-bits remain.
	for i := 0; i < 7; i++ {
		bit, err := br.ReadBit()
		if err != nil {
			t.Fatalf("ReadBit failed: %v", err)
		}
		if bit != 1 {
			t.Fatalf("stuffed byte bit %d = %d, want 1", i, bit)
		}
	}

	if _, err := br.ReadBit(); !errors.Is(err, ErrTruncatedStream) {
		t.Fatalf("expected ErrTruncatedStream past end, got %v", err)
	}
}

func TestBitReaderAlignConsumesStuffedByte(t *testing.T) {
	// 0xFF then a stuffed byte, then a plain byte.
	br := NewBitReader([]byte{0xFF, 0x00, 0xAB})
	if _, err := br.ReadBits(8); err != nil {
		t.Fatalf("ReadBits failed: %v", err)
	}
	if err := br.Align(); err != nil {
		t.Fatalf("Align failed: %v", err)
	}
	b, err := br.ReadByte()
	if err != nil {
		t.Fatalf("ReadByte failed: %v", err)
	}
	if b != 0xAB {
		t.Errorf("ReadByte = 0x%02X, want 0xAB", b)
	}
}

func TestBitReaderAtMarker(t *testing.T) {
	br := NewBitReader([]byte{0xFF, 0x91, 0x00})
	if !br.AtMarker() {
		t.Error("expected AtMarker at SOP code")
	}

	br = NewBitReader([]byte{0xFF, 0x7F, 0x00})
	if br.AtMarker() {
		t.Error("0xFF 0x7F is stuffed data, not a marker")
	}
}

func TestBitReaderTruncation(t *testing.T) {
	br := NewBitReader([]byte{0x80})
	if _, err := br.ReadBits(16); !errors.Is(err, ErrTruncatedStream) {
		t.Fatalf("expected ErrTruncatedStream, got %v", err)
	}
}

func TestBitReaderPosition(t *testing.T) {
	br := NewBitReader([]byte{0x12, 0x34, 0x56})
	if br.Position() != 0 {
		t.Errorf("initial Position = %d", br.Position())
	}
	_, _ = br.ReadBits(4)
	if br.Position() != 1 {
		t.Errorf("Position after 4 bits = %d, want 1", br.Position())
	}
	_, _ = br.ReadBits(8)
	if br.Position() != 2 {
		t.Errorf("Position after 12 bits = %d, want 2", br.Position())
	}
}

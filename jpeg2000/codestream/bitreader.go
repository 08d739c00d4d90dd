package codestream

import "fmt"

// BitReader is a bit-level cursor over entropy-coded codestream bytes.
// It transparently strips the bit-stuffing rule of ISO/IEC 15444-1 B.10.1:
// a 0xFF byte is followed by a byte whose most significant bit is a stuffed
// zero, so only seven of its bits carry data. Two-byte sequences 0xFF
// followed by a value above 0x8F are markers and never appear inside
// stuffed data.
type BitReader struct {
	data   []byte
	pos    int
	buf    byte
	ct     int // bits still available in buf
	prevFF bool
}

// NewBitReader creates a reader positioned at the start of data.
func NewBitReader(data []byte) *BitReader {
	return &BitReader{data: data}
}

// Position returns the byte offset of the next unread byte.
func (br *BitReader) Position() int {
	return br.pos
}

// AtMarker reports whether the next two bytes form a marker code
// (0xFF followed by a non-stuffed byte above 0x8F).
func (br *BitReader) AtMarker() bool {
	if br.pos+1 >= len(br.data) {
		return false
	}
	return br.data[br.pos] == 0xFF && br.data[br.pos+1] > 0x8F
}

func (br *BitReader) byteIn() error {
	if br.pos >= len(br.data) {
		return fmt.Errorf("%w: bit read past end at offset %d", ErrTruncatedStream, br.pos)
	}
	b := br.data[br.pos]
	br.pos++
	br.buf = b
	if br.prevFF {
		// High bit of this byte is the stuffed zero.
		br.ct = 7
	} else {
		br.ct = 8
	}
	br.prevFF = b == 0xFF
	return nil
}

// ReadBit returns the next bit, most significant first.
func (br *BitReader) ReadBit() (int, error) {
	if br.ct == 0 {
		if err := br.byteIn(); err != nil {
			return 0, err
		}
	}
	br.ct--
	return int(br.buf>>uint(br.ct)) & 1, nil
}

// ReadBits reads n bits (n <= 32) as a big-endian value.
func (br *BitReader) ReadBits(n int) (uint32, error) {
	if n < 0 || n > 32 {
		return 0, fmt.Errorf("invalid bit count %d", n)
	}
	var v uint32
	for i := 0; i < n; i++ {
		bit, err := br.ReadBit()
		if err != nil {
			return 0, err
		}
		v = (v << 1) | uint32(bit)
	}
	return v, nil
}

// Align discards the unread bits of the current byte. If the last byte
// consumed was 0xFF its trailing stuffed byte is consumed as well, so the
// reader lands on the first byte after the stuffed run.
func (br *BitReader) Align() error {
	if br.prevFF {
		if err := br.byteIn(); err != nil {
			return err
		}
	}
	br.ct = 0
	br.prevFF = false
	return nil
}

// ReadByte returns the next byte at a byte boundary, bypassing the
// bit-stuffing layer. Pending partial bits are discarded.
func (br *BitReader) ReadByte() (byte, error) {
	br.ct = 0
	br.prevFF = false
	if br.pos >= len(br.data) {
		return 0, fmt.Errorf("%w: byte read past end at offset %d", ErrTruncatedStream, br.pos)
	}
	b := br.data[br.pos]
	br.pos++
	return b, nil
}

// ReadBytes returns the next n bytes at a byte boundary, bypassing the
// bit-stuffing layer. Pending partial bits are discarded.
func (br *BitReader) ReadBytes(n int) ([]byte, error) {
	br.ct = 0
	br.prevFF = false
	if n < 0 || br.pos+n > len(br.data) {
		return nil, fmt.Errorf("%w: %d-byte read past end at offset %d", ErrTruncatedStream, n, br.pos)
	}
	b := br.data[br.pos : br.pos+n]
	br.pos += n
	return b, nil
}

// Remaining returns the unread bytes from the current byte boundary.
func (br *BitReader) Remaining() []byte {
	return br.data[br.pos:]
}

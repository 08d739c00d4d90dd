package enctest

import "fmt"

// headerWriter emits packet header bits with the byte stuffing rule of
// ISO/IEC 15444-1 B.10.1: after a 0xFF byte the next byte carries only
// seven bits. Flush never leaves a trailing 0xFF.
type headerWriter struct {
	out []byte
	cur byte
	ct  int
}

func newHeaderWriter() *headerWriter {
	return &headerWriter{ct: 8}
}

func (w *headerWriter) emitByte() {
	w.out = append(w.out, w.cur)
	if w.cur == 0xFF {
		w.ct = 7
	} else {
		w.ct = 8
	}
	w.cur = 0
}

// WriteBit satisfies the bit sink the tag tree encoder drives.
func (w *headerWriter) WriteBit(bit int) error {
	if w.ct == 0 {
		w.emitByte()
	}
	w.ct--
	w.cur |= byte(bit&1) << uint(w.ct)
	return nil
}

func (w *headerWriter) writeBits(v uint32, n int) {
	for i := n - 1; i >= 0; i-- {
		_ = w.WriteBit(int(v>>uint(i)) & 1)
	}
}

// flush pads the current byte with zero bits and returns the header.
// A 0xFF final byte is followed by an explicit zero byte, matching the
// alignment rule the reader applies.
func (w *headerWriter) flush() []byte {
	w.ct = 0
	w.emitByte()
	if w.ct == 7 {
		w.ct = 0
		w.emitByte()
	}
	return w.out
}

// writeNumPasses emits the coding-pass count codeword (B.10.6).
func (w *headerWriter) writeNumPasses(n int) error {
	switch {
	case n == 1:
		w.writeBits(0, 1)
	case n == 2:
		w.writeBits(2, 2) // 10
	case n >= 3 && n <= 5:
		w.writeBits(3, 2) // 11
		w.writeBits(uint32(n-3), 2)
	case n >= 6 && n <= 36:
		w.writeBits(3, 2)
		w.writeBits(3, 2)
		w.writeBits(uint32(n-6), 5)
	case n >= 37 && n <= 164:
		w.writeBits(3, 2)
		w.writeBits(3, 2)
		w.writeBits(31, 5)
		w.writeBits(uint32(n-37), 7)
	default:
		return fmt.Errorf("cannot code %d passes", n)
	}
	return nil
}

func bitLen(v int) int {
	n := 0
	for v > 0 {
		v >>= 1
		n++
	}
	return n
}

func floorLog2(n int) int {
	k := 0
	for n > 1 {
		n >>= 1
		k++
	}
	return k
}

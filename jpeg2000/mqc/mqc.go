// Package mqc implements the MQ arithmetic coder of ISO/IEC 15444-1
// Annex C: a multiplication-free, table-driven binary arithmetic decoder
// plus the raw (bypass) bit decoder used by the selective-bypass
// code-block style.
package mqc

// Decoder is the MQ arithmetic decoder. One instance decodes one
// terminated segment of code-block data; contexts may be carried over
// between segments for the TERMALL style.
type Decoder struct {
	data     []byte
	origLen  int
	pos      int  // next unread byte
	lastByte byte // last byte consumed (for 0xFF stuffing)

	a  uint32 // probability interval
	c  uint32 // code register
	ct int    // bit counter

	fills  int  // sentinel fills performed after data ran out
	noData bool // code register was initialized from the sentinel

	contexts []uint8 // packed context states (bit 7 = MPS, bits 0-6 = state)
}

// NewDecoder creates a decoder over data with numContexts fresh contexts.
// A 0xFF 0xFF sentinel is appended so the byte-in routine always
// terminates on a marker instead of running off the buffer.
func NewDecoder(data []byte, numContexts int) *Decoder {
	d := &Decoder{
		origLen:  len(data),
		contexts: make([]uint8, numContexts),
	}
	d.setData(data)
	return d
}

// NewDecoderWithContexts creates a decoder that inherits context states
// from a previous terminated segment.
func NewDecoderWithContexts(data []byte, prevContexts []uint8) *Decoder {
	d := &Decoder{
		origLen:  len(data),
		contexts: make([]uint8, len(prevContexts)),
	}
	copy(d.contexts, prevContexts)
	d.setData(data)
	return d
}

func (d *Decoder) setData(data []byte) {
	buf := make([]byte, len(data)+2)
	copy(buf, data)
	buf[len(data)] = 0xFF
	buf[len(data)+1] = 0xFF

	d.data = buf
	d.origLen = len(data)
	d.pos = 0
	d.lastByte = 0
	d.a = 0x8000
	d.c = 0
	d.ct = 0
	d.fills = 0
	d.noData = false
	d.init()
}

// Contexts returns a copy of the current context states.
func (d *Decoder) Contexts() []uint8 {
	out := make([]uint8, len(d.contexts))
	copy(out, d.contexts)
	return out
}

// ResetContexts resets every context to its initial state.
func (d *Decoder) ResetContexts() {
	for i := range d.contexts {
		d.contexts[i] = 0
	}
}

// SetContextState seeds one context with a packed state byte.
func (d *Decoder) SetContextState(contextID int, state uint8) {
	d.contexts[contextID] = state
}

// init loads the code register (ISO/IEC 15444-1 C.3.4).
func (d *Decoder) init() {
	firstByte := d.data[d.pos]
	d.c = uint32(firstByte) << 16
	d.lastByte = firstByte
	d.pos++

	if firstByte == 0xFF {
		secondByte := d.data[d.pos]
		if secondByte > 0x8F {
			// Marker: feed 1-bits, do not consume.
			d.c += 0xFF00
			d.ct = 8
			if d.pos >= d.origLen {
				// The register loaded nothing but sentinel padding; the
				// segment has no usable bytes and every decoded symbol
				// would be fabricated.
				d.fills++
				d.noData = true
			}
		} else {
			d.lastByte = secondByte
			d.pos++
			d.c += uint32(secondByte) << 9
			d.ct = 7
		}
	} else {
		d.bytein()
	}

	d.c <<= 7
	d.ct -= 7
	d.a = 0x8000
}

// Decode decodes one bit in the given context. Hot path: table lookups
// and shifts only, no allocation.
func (d *Decoder) Decode(contextID int) int {
	cx := &d.contexts[contextID]
	state := *cx & 0x7F
	mps := int(*cx >> 7)

	qe := qeTable[state]
	d.a -= qe

	var bit int

	if (d.c >> 16) < qe {
		// LPS exchange path (C register untouched).
		if d.a < qe {
			d.a = qe
			bit = mps
			*cx = nmpsTable[state] | (uint8(mps) << 7)
		} else {
			d.a = qe
			bit = 1 - mps
			newMPS := mps
			if switchTable[state] == 1 {
				newMPS = 1 - mps
			}
			*cx = nlpsTable[state] | (uint8(newMPS) << 7)
		}
		d.renormd()
	} else {
		d.c -= qe << 16

		if d.a >= 0x8000 {
			return mps
		}

		if d.a < qe {
			bit = 1 - mps
			newMPS := mps
			if switchTable[state] == 1 {
				newMPS = 1 - mps
			}
			*cx = nlpsTable[state] | (uint8(newMPS) << 7)
		} else {
			bit = mps
			*cx = nmpsTable[state] | (uint8(mps) << 7)
		}
		d.renormd()
	}

	return bit
}

func (d *Decoder) renormd() {
	for d.a < 0x8000 {
		if d.ct == 0 {
			d.bytein()
		}
		d.a <<= 1
		d.c <<= 1
		d.ct--
	}
}

// bytein feeds the code register. After a 0xFF byte the next byte either
// carries seven stuffed bits (<= 0x8F) or is a marker, in which case the
// register is padded with 1-bits and the cursor stays put.
func (d *Decoder) bytein() {
	nextByte := d.data[d.pos]

	if d.lastByte == 0xFF {
		if nextByte > 0x8F {
			d.c += 0xFF00
			d.ct = 8
			if d.pos >= d.origLen {
				d.fills++
			}
		} else {
			d.lastByte = nextByte
			d.pos++
			d.c += uint32(nextByte) << 9
			d.ct = 7
		}
	} else {
		d.lastByte = nextByte
		d.pos++
		d.c += uint32(nextByte) << 8
		d.ct = 8
	}
}

// Exhausted reports whether decoding has drained the segment and is now
// running on sentinel padding. A small amount of padding is normal after
// a correct termination; see Violated for the corruption bound.
func (d *Decoder) Exhausted() bool {
	return d.fills > 0
}

// Violated reports whether the decoder has consumed more sentinel
// padding than a correctly terminated segment can produce: either the
// code register was initialized from the sentinel (an empty or dangling
// segment) or the byte-ins ran past the flush slack. Used to flag
// truncated or corrupt code-blocks. The MPS short path decodes without
// renormalizing, so the fill count alone cannot bound an empty segment.
func (d *Decoder) Violated() bool {
	// A clean MQ flush leaves at most two spare byte-ins of slack.
	return d.noData || d.fills > 3
}

// MQ-coder state tables
// Reference: ISO/IEC 15444-1:2019 Table C.2

// qeTable - Qe values for each state
var qeTable = [47]uint32{
	0x5601, 0x3401, 0x1801, 0x0AC1, 0x0521, 0x0221, 0x5601, 0x5401,
	0x4801, 0x3801, 0x3001, 0x2401, 0x1C01, 0x1601, 0x5601, 0x5401,
	0x5101, 0x4801, 0x3801, 0x3401, 0x3001, 0x2801, 0x2401, 0x2201,
	0x1C01, 0x1801, 0x1601, 0x1401, 0x1201, 0x1101, 0x0AC1, 0x09C1,
	0x08A1, 0x0521, 0x0441, 0x02A1, 0x0221, 0x0141, 0x0111, 0x0085,
	0x0049, 0x0025, 0x0015, 0x0009, 0x0005, 0x0001, 0x5601,
}

// nmpsTable - Next state for MPS
var nmpsTable = [47]uint8{
	1, 2, 3, 4, 5, 38, 7, 8,
	9, 10, 11, 12, 13, 29, 15, 16,
	17, 18, 19, 20, 21, 22, 23, 24,
	25, 26, 27, 28, 29, 30, 31, 32,
	33, 34, 35, 36, 37, 38, 39, 40,
	41, 42, 43, 44, 45, 45, 46,
}

// nlpsTable - Next state for LPS
var nlpsTable = [47]uint8{
	1, 6, 9, 12, 29, 33, 6, 14,
	14, 14, 17, 18, 20, 21, 14, 14,
	15, 16, 17, 18, 19, 19, 20, 21,
	22, 23, 24, 25, 26, 27, 28, 29,
	30, 31, 32, 33, 34, 35, 36, 37,
	38, 39, 40, 41, 42, 43, 46,
}

// switchTable - MPS/LPS switch indicator
var switchTable = [47]uint8{
	1, 0, 0, 0, 0, 0, 1, 0,
	0, 0, 0, 0, 0, 0, 1, 0,
	0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0,
}

package mqc

// RawDecoder reads unstuffed raw bits for bypass-coded passes
// (ISO/IEC 15444-1 C.3.6). After a 0xFF byte only seven bits of the next
// byte carry data. Once the segment is drained it yields 1-bits, matching
// the MQ decoder's sentinel behavior, and counts the overrun.
type RawDecoder struct {
	data  []byte
	pos   int
	c     uint32 // current byte value
	ct    int    // bits remaining in c
	fills int
}

// NewRawDecoder creates a raw decoder over a bypass segment.
func NewRawDecoder(data []byte) *RawDecoder {
	return &RawDecoder{data: data, c: 0, ct: 0}
}

// Decode returns the next raw bit.
func (r *RawDecoder) Decode() int {
	if r.ct == 0 {
		if r.c == 0xFF {
			if r.pos >= len(r.data) || r.data[r.pos] > 0x8F {
				// Marker or end of segment: feed 1-bits.
				r.c = 0xFF
				r.ct = 8
				r.fills++
				r.ct--
				return 1
			}
			r.c = uint32(r.data[r.pos])
			r.pos++
			r.ct = 7
		} else {
			if r.pos >= len(r.data) {
				r.c = 0xFF
				r.ct = 8
				r.fills++
				r.ct--
				return 1
			}
			r.c = uint32(r.data[r.pos])
			r.pos++
			r.ct = 8
		}
	}
	r.ct--
	return int(r.c>>uint(r.ct)) & 1
}

// Exhausted reports whether the decoder has read past the segment end.
func (r *RawDecoder) Exhausted() bool {
	return r.fills > 0
}

// RawEncoder writes the unstuffed raw bits of bypass-coded passes.
// After emitting a 0xFF byte only seven bits go into the next byte.
type RawEncoder struct {
	out []byte
	c   uint32
	ct  int
}

// NewRawEncoder creates an empty raw encoder.
func NewRawEncoder() *RawEncoder {
	return &RawEncoder{ct: 8}
}

// Encode appends one raw bit.
func (r *RawEncoder) Encode(bit int) {
	r.ct--
	r.c |= uint32(bit&1) << uint(r.ct)
	if r.ct == 0 {
		r.out = append(r.out, byte(r.c))
		if r.c == 0xFF {
			r.ct = 7
		} else {
			r.ct = 8
		}
		r.c = 0
	}
}

// Flush pads the final byte with zero bits and returns the segment.
// A segment never ends on 0xFF.
func (r *RawEncoder) Flush() []byte {
	capacity := 8
	if len(r.out) > 0 && r.out[len(r.out)-1] == 0xFF {
		capacity = 7
	}
	if r.ct != capacity {
		r.out = append(r.out, byte(r.c))
	}
	if len(r.out) > 0 && r.out[len(r.out)-1] == 0xFF {
		r.out = append(r.out, 0)
	}
	return r.out
}

// Violated reports an overrun beyond the slack a correctly terminated
// bypass segment can produce. A segment with no bytes at all is only
// violated once something is decoded from it: raw passes with no
// eligible samples legitimately flush to zero bytes.
func (r *RawDecoder) Violated() bool {
	return r.fills > 3 || (len(r.data) == 0 && r.fills > 0)
}

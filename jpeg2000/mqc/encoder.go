package mqc

// Encoder is the MQ arithmetic encoder (ISO/IEC 15444-1 C.2). It is the
// exact counterpart of Decoder: a segment produced by Flush decodes back
// to the encoded bit sequence under the same context states.
type Encoder struct {
	a  uint32
	c  uint32
	ct int

	// buf[0] is a scratch byte standing in for the byte before the
	// segment start; output bytes begin at buf[1]. bp indexes the byte
	// currently being composed.
	buf []byte
	bp  int

	contexts []uint8
}

// NewEncoder creates an encoder with numContexts fresh contexts.
func NewEncoder(numContexts int) *Encoder {
	e := &Encoder{contexts: make([]uint8, numContexts)}
	e.Restart()
	return e
}

// Restart rearms the coder for a new codeword segment. Context states
// are kept; callers reset them separately when a style requires it.
func (e *Encoder) Restart() {
	e.a = 0x8000
	e.c = 0
	e.ct = 12
	e.buf = e.buf[:0]
	e.buf = append(e.buf, 0)
	e.bp = 0
}

// ResetContexts resets every context to its initial state.
func (e *Encoder) ResetContexts() {
	for i := range e.contexts {
		e.contexts[i] = 0
	}
}

// SetContextState seeds one context with a packed state byte.
func (e *Encoder) SetContextState(contextID int, state uint8) {
	e.contexts[contextID] = state
}

// Contexts returns a copy of the current context states.
func (e *Encoder) Contexts() []uint8 {
	out := make([]uint8, len(e.contexts))
	copy(out, e.contexts)
	return out
}

// Encode codes one bit in the given context.
func (e *Encoder) Encode(bit, contextID int) {
	cx := &e.contexts[contextID]
	state := *cx & 0x7F
	mps := int(*cx >> 7)

	qe := qeTable[state]
	if bit == mps {
		e.a -= qe
		if e.a&0x8000 == 0 {
			if e.a < qe {
				e.a = qe
			} else {
				e.c += qe
			}
			*cx = nmpsTable[state] | (uint8(mps) << 7)
			e.renorme()
		} else {
			e.c += qe
		}
	} else {
		e.a -= qe
		if e.a < qe {
			e.c += qe
		} else {
			e.a = qe
		}
		newMPS := mps
		if switchTable[state] == 1 {
			newMPS = 1 - mps
		}
		*cx = nlpsTable[state] | (uint8(newMPS) << 7)
		e.renorme()
	}
}

func (e *Encoder) renorme() {
	for {
		e.a <<= 1
		e.c <<= 1
		e.ct--
		if e.ct == 0 {
			e.byteout()
		}
		if e.a&0x8000 != 0 {
			return
		}
	}
}

// byteout transfers the top of the code register to the output, folding
// carries into the previous byte and stuffing after 0xFF (C.2.6).
func (e *Encoder) byteout() {
	if e.buf[e.bp] == 0xFF {
		e.push(byte(e.c >> 20))
		e.c &= 0xFFFFF
		e.ct = 7
		return
	}
	if e.c < 0x8000000 {
		e.push(byte(e.c >> 19))
		e.c &= 0x7FFFF
		e.ct = 8
		return
	}
	e.buf[e.bp]++
	if e.buf[e.bp] == 0xFF {
		e.c &= 0x7FFFFFF
		e.push(byte(e.c >> 20))
		e.c &= 0xFFFFF
		e.ct = 7
	} else {
		e.push(byte(e.c >> 19))
		e.c &= 0x7FFFF
		e.ct = 8
	}
}

func (e *Encoder) push(b byte) {
	e.buf = append(e.buf, b)
	e.bp++
}

// Flush terminates the codeword segment (C.2.9) and returns its bytes.
// A trailing 0xFF is dropped so the segment never ends on a stuffed
// byte. The encoder must be Restarted before coding another segment.
func (e *Encoder) Flush() []byte {
	// Set as many C bits to 1 as the interval allows.
	tempC := e.c + e.a
	e.c |= 0xFFFF
	if e.c >= tempC {
		e.c -= 0x8000
	}

	e.c <<= uint(e.ct)
	e.byteout()
	e.c <<= uint(e.ct)
	e.byteout()

	end := e.bp + 1
	if e.buf[e.bp] == 0xFF {
		end = e.bp
	}
	out := make([]byte, end-1)
	copy(out, e.buf[1:end])
	return out
}

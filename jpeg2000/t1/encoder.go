package t1

import (
	"github.com/openmedimg/go-jpeg2000/jpeg2000/codestream"
	"github.com/openmedimg/go-jpeg2000/jpeg2000/mqc"
)

// Encoder codes one code-block of integer coefficients. It shares the
// context model, pass structure and code-block style handling with
// Decoder, so a full set of passes round-trips exactly under any style
// combination.
type Encoder struct {
	width  int
	height int
	orient int
	style  uint8

	data  []int32
	flags []uint32

	mq  *mqc.Encoder
	raw *mqc.RawEncoder
}

// NewEncoder creates an encoder for a width x height code-block in a
// subband of the given orientation, honoring the COD/COC code-block
// style bits.
func NewEncoder(width, height, orient int, style uint8) *Encoder {
	pw, ph := width+2, height+2
	return &Encoder{
		width:  width,
		height: height,
		orient: orient,
		style:  style,
		data:   make([]int32, pw*ph),
		flags:  make([]uint32, pw*ph),
	}
}

// Encode codes coeffs (row-major, width*height) down to bit-plane zero
// and returns the terminated codeword bytes, the number of coding
// passes, the most significant populated bit-plane and the cumulative
// segment ends when the style splits the data (nil for one segment).
// An all-zero block yields numPasses 0; such a block is simply not
// included in any packet.
func (e *Encoder) Encode(coeffs []int32) (data []byte, numPasses, maxBitplane int, segEnds []int) {
	pw := e.width + 2
	for i := range e.data {
		e.data[i] = 0
	}
	for i := range e.flags {
		e.flags[i] = 0
	}

	var maxMag int32
	for y := 0; y < e.height; y++ {
		for x := 0; x < e.width; x++ {
			v := coeffs[y*e.width+x]
			e.data[(y+1)*pw+x+1] = v
			if v < 0 {
				v = -v
			}
			if v > maxMag {
				maxMag = v
			}
		}
	}
	if maxMag == 0 {
		return nil, 0, -1, nil
	}

	maxBitplane = 0
	for maxMag > 1 {
		maxMag >>= 1
		maxBitplane++
	}
	numPasses = 3*maxBitplane + 1

	e.mq = mqc.NewEncoder(NumContexts)
	resetEncoderStates(e.mq)

	spans := segmentSpans(e.style, numPasses)
	resetctx := e.style&codestream.CBStyleResetCtx != 0
	segsym := e.style&codestream.CBStyleSegSym != 0

	passType := 2
	bitplane := maxBitplane
	for _, span := range spans {
		raw := e.isRawSegment(bitplane, maxBitplane, passType)
		if raw {
			e.raw = mqc.NewRawEncoder()
		} else {
			e.mq.Restart()
		}

		for i := 0; i < span; i++ {
			if passType == 0 {
				e.clearVisit()
			}
			switch passType {
			case 0:
				e.sigPass(raw, bitplane)
			case 1:
				e.refPass(raw, bitplane)
			case 2:
				e.cleanupPass(bitplane)
				if segsym {
					e.segmentMark()
				}
			}
			if resetctx {
				resetEncoderStates(e.mq)
			}
			if passType == 2 {
				passType = 0
				bitplane--
			} else {
				passType++
			}
		}

		var seg []byte
		if raw {
			seg = e.raw.Flush()
		} else {
			seg = e.mq.Flush()
		}
		data = append(data, seg...)
		if len(spans) > 1 {
			segEnds = append(segEnds, len(data))
		}
	}

	return data, numPasses, maxBitplane, segEnds
}

// isRawSegment mirrors the decoder's bypass predicate: raw coding
// starts with the significance pass of the fifth most significant
// bit-plane; cleanup passes stay MQ-coded.
func (e *Encoder) isRawSegment(bitplane, maxBitplane, passType int) bool {
	if e.style&codestream.CBStyleBypass == 0 {
		return false
	}
	return passType != 2 && bitplane <= maxBitplane-4
}

func resetEncoderStates(m *mqc.Encoder) {
	m.ResetContexts()
	m.SetContextState(ctxUni, 46)
	m.SetContextState(ctxRunLen, 3)
	m.SetContextState(ctxZCBase, 4)
}

func (e *Encoder) clearVisit() {
	for i := range e.flags {
		e.flags[i] &^= fVisit
	}
}

func (e *Encoder) vscAt(dy, y int) bool {
	return e.style&codestream.CBStyleVSC != 0 && (dy == 3 || y == e.height-1)
}

func (e *Encoder) magBit(idx, bitplane int) int {
	v := e.data[idx]
	if v < 0 {
		v = -v
	}
	return int(v>>uint(bitplane)) & 1
}

func (e *Encoder) sigPass(raw bool, bitplane int) {
	pw := e.width + 2
	for k := 0; k < e.height; k += 4 {
		for x := 0; x < e.width; x++ {
			for dy := 0; dy < 4 && k+dy < e.height; dy++ {
				y := k + dy
				idx := (y+1)*pw + x + 1
				flags := e.flags[idx]
				if flags&fSig != 0 {
					continue
				}
				eff := flags
				if e.vscAt(dy, y) {
					eff &^= vscMask
				}
				if eff&fSigNeighbors == 0 {
					continue
				}

				bit := e.magBit(idx, bitplane)
				if raw {
					e.raw.Encode(bit)
				} else {
					e.mq.Encode(bit, zcContext(eff, e.orient))
				}
				e.flags[idx] |= fVisit
				if bit != 0 {
					e.becomeSignificant(raw, x, y, idx, eff)
				}
			}
		}
	}
}

func (e *Encoder) refPass(raw bool, bitplane int) {
	pw := e.width + 2
	for k := 0; k < e.height; k += 4 {
		for x := 0; x < e.width; x++ {
			for dy := 0; dy < 4 && k+dy < e.height; dy++ {
				y := k + dy
				idx := (y+1)*pw + x + 1
				flags := e.flags[idx]
				if flags&fSig == 0 || flags&fVisit != 0 {
					continue
				}
				eff := flags
				if e.vscAt(dy, y) {
					eff &^= vscMask
				}
				if raw {
					e.raw.Encode(e.magBit(idx, bitplane))
				} else {
					e.mq.Encode(e.magBit(idx, bitplane), mrContext(eff))
				}
				e.flags[idx] |= fRefine
			}
		}
	}
}

func (e *Encoder) cleanupPass(bitplane int) {
	pw := e.width + 2
	for k := 0; k < e.height; k += 4 {
		for x := 0; x < e.width; x++ {
			runStart := 0
			if k+3 < e.height && e.columnQuiet(k, x) {
				run := -1
				for dy := 0; dy < 4; dy++ {
					if e.magBit((k+dy+1)*pw+x+1, bitplane) != 0 {
						run = dy
						break
					}
				}
				if run < 0 {
					e.mq.Encode(0, ctxRunLen)
					continue
				}
				e.mq.Encode(1, ctxRunLen)
				e.mq.Encode(run>>1, ctxUni)
				e.mq.Encode(run&1, ctxUni)

				y := k + run
				idx := (y+1)*pw + x + 1
				eff := e.flags[idx]
				if e.vscAt(run, y) {
					eff &^= vscMask
				}
				e.becomeSignificant(false, x, y, idx, eff)
				e.flags[idx] &^= fVisit
				runStart = run + 1
			}

			for dy := runStart; dy < 4 && k+dy < e.height; dy++ {
				y := k + dy
				idx := (y+1)*pw + x + 1
				flags := e.flags[idx]
				if flags&(fVisit|fSig) != 0 {
					e.flags[idx] &^= fVisit
					continue
				}
				eff := flags
				if e.vscAt(dy, y) {
					eff &^= vscMask
				}
				bit := e.magBit(idx, bitplane)
				e.mq.Encode(bit, zcContext(eff, e.orient))
				if bit != 0 {
					e.becomeSignificant(false, x, y, idx, eff)
				}
				e.flags[idx] &^= fVisit
			}
		}
	}
}

func (e *Encoder) columnQuiet(k, x int) bool {
	pw := e.width + 2
	for dy := 0; dy < 4; dy++ {
		flags := e.flags[(k+dy+1)*pw+x+1]
		if e.vscAt(dy, k+dy) {
			flags &^= vscMask
		}
		if flags&(fSig|fVisit|fSigNeighbors) != 0 {
			return false
		}
	}
	return true
}

// becomeSignificant codes the sign of a newly significant sample against
// its neighborhood prediction and propagates neighbor flags, mirroring
// the decoder's state transitions exactly. eff carries the
// stripe-causal masked flags used for sign context.
func (e *Encoder) becomeSignificant(raw bool, x, y, idx int, eff uint32) {
	sign := 0
	if e.data[idx] < 0 {
		sign = 1
		e.flags[idx] |= fSign
	}
	if raw {
		e.raw.Encode(sign)
	} else {
		e.mq.Encode(sign^signPrediction(eff), scContext(eff))
	}
	e.flags[idx] |= fSig
	e.propagate(x, y, idx)
}

// segmentMark codes the four-bit 1010 segmentation symbol in the
// uniform context at the end of a cleanup pass.
func (e *Encoder) segmentMark() {
	for i := 3; i >= 0; i-- {
		e.mq.Encode((0xA>>uint(i))&1, ctxUni)
	}
}

func (e *Encoder) propagate(x, y, idx int) {
	pw := e.width + 2
	neg := e.flags[idx]&fSign != 0

	n := y*pw + x + 1
	e.flags[n] |= fSigS
	if neg {
		e.flags[n] |= fSignS
	}
	s := (y+2)*pw + x + 1
	e.flags[s] |= fSigN
	if neg {
		e.flags[s] |= fSignN
	}
	w := (y+1)*pw + x
	e.flags[w] |= fSigE
	if neg {
		e.flags[w] |= fSignE
	}
	eIdx := (y+1)*pw + x + 2
	e.flags[eIdx] |= fSigW
	if neg {
		e.flags[eIdx] |= fSignW
	}

	e.flags[y*pw+x] |= fSigSE
	e.flags[y*pw+x+2] |= fSigSW
	e.flags[(y+2)*pw+x] |= fSigNE
	e.flags[(y+2)*pw+x+2] |= fSigNW
}

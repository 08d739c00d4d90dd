// Package t1 implements the EBCOT Tier-1 coefficient bit-plane decoder
// (ISO/IEC 15444-1 Annex D). Each code-block is decoded independently:
// coding passes run cleanup first on the most significant populated
// bit-plane, then significance propagation, magnitude refinement and
// cleanup on every lower bit-plane, over stripes of four rows.
package t1

import (
	"errors"
	"fmt"

	"github.com/openmedimg/go-jpeg2000/jpeg2000/codestream"
	"github.com/openmedimg/go-jpeg2000/jpeg2000/mqc"
)

// ErrCorruptCodeblock reports that a code-block's compressed data is
// inconsistent with its signaled pass structure.
var ErrCorruptCodeblock = errors.New("corrupt code-block")

// LenientReport summarizes a lenient decode: how many coding passes
// produced coefficients and how many were abandoned after corruption
// was detected. Abandoned passes leave the already decoded prefix in
// place and the remaining refinements at zero.
type LenientReport struct {
	PassesDecoded   int
	PassesAbandoned int
}

// Decoder decodes one code-block. It is not safe for concurrent use;
// callers decode independent blocks on independent Decoders.
type Decoder struct {
	width   int
	height  int
	orient  int
	style   uint8
	lenient bool

	// Coefficient and flag planes carry a one sample border so neighbor
	// lookups never need bounds checks.
	data  []int32
	flags []uint32

	mq  *mqc.Decoder
	raw *mqc.RawDecoder
}

// NewDecoder creates a decoder for a width x height code-block in a
// subband of the given orientation (0=LL, 1=HL, 2=LH, 3=HH), honoring
// the COD/COC code-block style bits.
func NewDecoder(width, height, orient int, style uint8) *Decoder {
	pw, ph := width+2, height+2
	return &Decoder{
		width:  width,
		height: height,
		orient: orient,
		style:  style,
		data:   make([]int32, pw*ph),
		flags:  make([]uint32, pw*ph),
	}
}

// SetLenient switches corruption handling from hard failure to
// truncating recovery.
func (d *Decoder) SetLenient(on bool) {
	d.lenient = on
}

// Data returns the decoded coefficients in row-major order, border
// stripped. Magnitudes are exact bit-plane sums; sign is applied.
func (d *Decoder) Data() []int32 {
	out := make([]int32, d.width*d.height)
	pw := d.width + 2
	for y := 0; y < d.height; y++ {
		copy(out[y*d.width:(y+1)*d.width], d.data[(y+1)*pw+1:(y+1)*pw+1+d.width])
	}
	return out
}

// segment is a contiguous run of coding passes sharing one arithmetic
// (or raw) codeword segment.
type segment struct {
	data   []byte
	passes int
}

// Decode runs numPasses coding passes over the block data. maxBitplane
// is the most significant populated bit-plane (band bit-planes minus
// the signaled zero bit-planes, minus one). segEnds lists the
// cumulative end offset of each terminated codeword segment when the
// TERMALL or bypass style splits the data; nil means one segment.
func (d *Decoder) Decode(data []byte, numPasses, maxBitplane int, segEnds []int) (LenientReport, error) {
	var rep LenientReport
	if numPasses <= 0 || maxBitplane < 0 {
		return rep, nil
	}

	spans := segmentSpans(d.style, numPasses)
	segs, err := sliceSegments(data, spans, segEnds)
	if err != nil {
		if d.lenient {
			rep.PassesAbandoned = numPasses
			return rep, nil
		}
		return rep, err
	}

	resetctx := d.style&codestream.CBStyleResetCtx != 0
	segsym := d.style&codestream.CBStyleSegSym != 0

	passType := 2
	bitplane := maxBitplane
	var snapshot []uint8

	for _, seg := range segs {
		if bitplane < 0 {
			break
		}
		raw := d.isRawPass(bitplane, maxBitplane, passType)
		if raw {
			d.raw = mqc.NewRawDecoder(seg.data)
			d.mq = nil
		} else {
			if snapshot == nil || resetctx {
				d.mq = freshMQ(seg.data)
			} else {
				d.mq = mqc.NewDecoderWithContexts(seg.data, snapshot)
			}
			d.raw = nil
		}
		// A segment whose coder starts out on sentinel padding carries
		// none of its signaled passes.
		if d.violated() {
			return d.fail(rep, numPasses, "codeword segment has no usable data")
		}

		for i := 0; i < seg.passes; i++ {
			if bitplane < 0 {
				return d.fail(rep, numPasses, "pass count exceeds bit-plane budget")
			}
			if passType == 0 {
				d.clearVisit()
			}
			switch passType {
			case 0:
				d.sigPass(raw, bitplane)
			case 1:
				d.refPass(raw, bitplane)
			case 2:
				d.cleanupPass(bitplane)
				if segsym && !d.segmentMarkOK() {
					return d.fail(rep, numPasses, "segmentation symbol mismatch")
				}
			}
			if d.violated() {
				return d.fail(rep, numPasses, "arithmetic decoder ran past segment end")
			}
			rep.PassesDecoded++

			if resetctx && d.mq != nil {
				resetStates(d.mq)
			}
			if passType == 2 {
				passType = 0
				bitplane--
			} else {
				passType++
			}
		}

		if d.mq != nil && !resetctx {
			snapshot = d.mq.Contexts()
		}
	}

	return rep, nil
}

// fail either aborts with ErrCorruptCodeblock or, in lenient mode,
// abandons the remaining passes and reports a successful prefix.
func (d *Decoder) fail(rep LenientReport, numPasses int, reason string) (LenientReport, error) {
	if d.lenient {
		rep.PassesAbandoned = numPasses - rep.PassesDecoded
		return rep, nil
	}
	return rep, fmt.Errorf("%w: %s", ErrCorruptCodeblock, reason)
}

func (d *Decoder) violated() bool {
	if d.raw != nil {
		return d.raw.Violated()
	}
	return d.mq.Violated()
}

// isRawPass reports whether the selective bypass style codes this pass
// with the raw decoder. Bypass starts with the significance pass of the
// fifth most significant bit-plane; cleanup passes stay MQ-coded.
func (d *Decoder) isRawPass(bitplane, maxBitplane, passType int) bool {
	if d.style&codestream.CBStyleBypass == 0 {
		return false
	}
	return passType != 2 && bitplane <= maxBitplane-4
}

// segmentSpans returns the pass count of each codeword segment.
// TERMALL terminates every pass. Bypass terminates before and after
// each raw run: ten MQ passes, then alternating raw pairs (sig+ref)
// and single MQ cleanups. Otherwise all passes share one segment.
func segmentSpans(style uint8, numPasses int) []int {
	switch {
	case style&codestream.CBStyleTermAll != 0:
		spans := make([]int, numPasses)
		for i := range spans {
			spans[i] = 1
		}
		return spans
	case style&codestream.CBStyleBypass != 0:
		var spans []int
		remaining := numPasses
		n := 10
		next := 2
		for remaining > 0 {
			if n > remaining {
				n = remaining
			}
			spans = append(spans, n)
			remaining -= n
			n = next
			next = 3 - next
		}
		return spans
	default:
		return []int{numPasses}
	}
}

func sliceSegments(data []byte, spans, segEnds []int) ([]segment, error) {
	if len(spans) == 1 {
		return []segment{{data: data, passes: spans[0]}}, nil
	}
	if len(segEnds) != len(spans) {
		return nil, fmt.Errorf("%w: %d codeword segments but %d segment lengths",
			ErrCorruptCodeblock, len(spans), len(segEnds))
	}
	segs := make([]segment, len(spans))
	prev := 0
	for i, end := range segEnds {
		if end < prev || end > len(data) {
			return nil, fmt.Errorf("%w: segment end %d out of range (prev %d, data %d)",
				ErrCorruptCodeblock, end, prev, len(data))
		}
		segs[i] = segment{data: data[prev:end], passes: spans[i]}
		prev = end
	}
	return segs, nil
}

func freshMQ(data []byte) *mqc.Decoder {
	m := mqc.NewDecoder(data, NumContexts)
	resetStates(m)
	return m
}

// resetStates applies the standard initial context states: UNI at 46,
// run-length at 3, the all-zero-neighbor ZC context at 4.
func resetStates(m *mqc.Decoder) {
	m.ResetContexts()
	m.SetContextState(ctxUni, 46)
	m.SetContextState(ctxRunLen, 3)
	m.SetContextState(ctxZCBase, 4)
}

func (d *Decoder) clearVisit() {
	for i := range d.flags {
		d.flags[i] &^= fVisit
	}
}

// vscAt reports whether stripe-causal masking applies to stripe row dy
// at absolute row y.
func (d *Decoder) vscAt(dy, y int) bool {
	return d.style&codestream.CBStyleVSC != 0 && (dy == 3 || y == d.height-1)
}

// sigPass decodes the significance propagation pass for one bit-plane:
// samples that are not yet significant but have a significant neighbor.
func (d *Decoder) sigPass(raw bool, bitplane int) {
	pw := d.width + 2
	for k := 0; k < d.height; k += 4 {
		for x := 0; x < d.width; x++ {
			for dy := 0; dy < 4 && k+dy < d.height; dy++ {
				y := k + dy
				idx := (y+1)*pw + x + 1
				flags := d.flags[idx]
				if flags&fSig != 0 {
					continue
				}
				eff := flags
				if d.vscAt(dy, y) {
					eff &^= vscMask
				}
				if eff&fSigNeighbors == 0 {
					continue
				}

				var bit int
				if raw {
					bit = d.raw.Decode()
				} else {
					bit = d.mq.Decode(zcContext(eff, d.orient))
				}
				d.flags[idx] |= fVisit
				if bit != 0 {
					d.becomeSignificant(raw, x, y, idx, eff, bitplane)
				}
			}
		}
	}
}

// refPass decodes the magnitude refinement pass: significant samples
// not visited in this bit-plane gain one more magnitude bit.
func (d *Decoder) refPass(raw bool, bitplane int) {
	pw := d.width + 2
	for k := 0; k < d.height; k += 4 {
		for x := 0; x < d.width; x++ {
			for dy := 0; dy < 4 && k+dy < d.height; dy++ {
				y := k + dy
				idx := (y+1)*pw + x + 1
				flags := d.flags[idx]
				if flags&fSig == 0 || flags&fVisit != 0 {
					continue
				}
				eff := flags
				if d.vscAt(dy, y) {
					eff &^= vscMask
				}

				var bit int
				if raw {
					bit = d.raw.Decode()
				} else {
					bit = d.mq.Decode(mrContext(eff))
				}
				if bit != 0 {
					if d.data[idx] >= 0 {
						d.data[idx] += 1 << uint(bitplane)
					} else {
						d.data[idx] -= 1 << uint(bitplane)
					}
				}
				d.flags[idx] |= fRefine
			}
		}
	}
}

// cleanupPass decodes all samples left over by the two earlier passes,
// with vertical run-length coding over all-quiet four-sample columns.
func (d *Decoder) cleanupPass(bitplane int) {
	pw := d.width + 2
	for k := 0; k < d.height; k += 4 {
		for x := 0; x < d.width; x++ {
			runStart := 0
			if k+3 < d.height && d.columnQuiet(k, x) {
				if d.mq.Decode(ctxRunLen) == 0 {
					continue
				}
				runStart = d.mq.Decode(ctxUni)<<1 | d.mq.Decode(ctxUni)
				// The sample at runStart is significant by definition of
				// the run-length symbol; only its sign is coded.
				y := k + runStart
				idx := (y+1)*pw + x + 1
				eff := d.flags[idx]
				if d.vscAt(runStart, y) {
					eff &^= vscMask
				}
				d.becomeSignificant(false, x, y, idx, eff, bitplane)
				d.flags[idx] &^= fVisit
				runStart++
			}

			for dy := runStart; dy < 4 && k+dy < d.height; dy++ {
				y := k + dy
				idx := (y+1)*pw + x + 1
				flags := d.flags[idx]
				if flags&(fVisit|fSig) != 0 {
					d.flags[idx] &^= fVisit
					continue
				}
				eff := flags
				if d.vscAt(dy, y) {
					eff &^= vscMask
				}
				if d.mq.Decode(zcContext(eff, d.orient)) != 0 {
					d.becomeSignificant(false, x, y, idx, eff, bitplane)
				}
				d.flags[idx] &^= fVisit
			}
		}
	}
}

// columnQuiet reports whether the four-sample column starting at row k
// is eligible for run-length coding: no sample significant, visited or
// adjacent to a significant sample.
func (d *Decoder) columnQuiet(k, x int) bool {
	pw := d.width + 2
	for dy := 0; dy < 4; dy++ {
		flags := d.flags[(k+dy+1)*pw+x+1]
		if d.vscAt(dy, k+dy) {
			flags &^= vscMask
		}
		if flags&(fSig|fVisit|fSigNeighbors) != 0 {
			return false
		}
	}
	return true
}

// becomeSignificant decodes the sign bit for a newly significant
// sample, stores the signed magnitude and propagates neighbor flags.
// eff carries the stripe-causal masked flags used for sign context.
func (d *Decoder) becomeSignificant(raw bool, x, y, idx int, eff uint32, bitplane int) {
	var sign int
	if raw {
		sign = d.raw.Decode()
	} else {
		bit := d.mq.Decode(scContext(eff))
		sign = bit ^ signPrediction(eff)
	}

	val := int32(1) << uint(bitplane)
	if sign != 0 {
		d.flags[idx] |= fSign
		val = -val
	}
	d.data[idx] = val
	d.flags[idx] |= fSig
	d.propagate(x, y, idx)
}

// segmentMarkOK consumes the four-bit segmentation symbol coded in the
// uniform context at the end of each cleanup pass and checks it equals
// the standard 1010 pattern.
func (d *Decoder) segmentMarkOK() bool {
	v := 0
	for i := 0; i < 4; i++ {
		v = v<<1 | d.mq.Decode(ctxUni)
	}
	return v == 0xA
}

// propagate marks the eight neighbors of a newly significant sample.
// The border rows and columns absorb out-of-block writes.
func (d *Decoder) propagate(x, y, idx int) {
	pw := d.width + 2
	neg := d.flags[idx]&fSign != 0

	n := y*pw + x + 1
	d.flags[n] |= fSigS
	if neg {
		d.flags[n] |= fSignS
	}
	s := (y+2)*pw + x + 1
	d.flags[s] |= fSigN
	if neg {
		d.flags[s] |= fSignN
	}
	w := (y+1)*pw + x
	d.flags[w] |= fSigE
	if neg {
		d.flags[w] |= fSignE
	}
	e := (y+1)*pw + x + 2
	d.flags[e] |= fSigW
	if neg {
		d.flags[e] |= fSignW
	}

	d.flags[y*pw+x] |= fSigSE
	d.flags[y*pw+x+2] |= fSigSW
	d.flags[(y+2)*pw+x] |= fSigNE
	d.flags[(y+2)*pw+x+2] |= fSigNW
}

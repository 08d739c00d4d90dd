package jpeg2000

import (
	"fmt"
	"math"

	"github.com/openmedimg/go-jpeg2000/jpeg2000/codestream"
)

// Log2 subband gains in raster order LL, HL, LH, HH (Table E.1).
var subbandGains = [4]int{0, 1, 1, 2}

// subbandIndex returns the position of a band's entry in the SPqcd /
// SPqcc value list: LL first, then HL, LH, HH per resolution level.
func subbandIndex(resLevel, orient int) int {
	if resLevel == 0 {
		return 0
	}
	return 3*(resLevel-1) + orient
}

// bandQuant is one band's signaled exponent and mantissa.
type bandQuant struct {
	expn int
	mant int
}

// Quantizer resolves the QCD/QCC segment governing one tile-component
// into per-band bit-plane counts and dequantization step sizes.
type Quantizer struct {
	style     int
	guardBits int
	derived   bool
	bands     []bandQuant // indexed by subbandIndex
}

// NewQuantizer parses the step-size list of a quantization segment for
// a component with the given decomposition level count.
func NewQuantizer(q *codestream.QCDSegment, numLevels int) (*Quantizer, error) {
	if q == nil {
		return nil, fmt.Errorf("%w: missing quantization segment", ErrInvalidMarker)
	}
	qz := &Quantizer{
		style:     int(q.QuantizationType()),
		guardBits: int(q.GuardBits()),
	}
	numBands := 3*numLevels + 1

	switch qz.style {
	case codestream.QuantNone:
		if len(q.SPqcd) < numBands {
			return nil, fmt.Errorf("%w: %d quantization exponents for %d subbands",
				ErrInvalidMarker, len(q.SPqcd), numBands)
		}
		qz.bands = make([]bandQuant, numBands)
		for i := 0; i < numBands; i++ {
			qz.bands[i] = bandQuant{expn: int(q.SPqcd[i] >> 3)}
		}

	case codestream.QuantScalarDerived:
		if len(q.SPqcd) < 2 {
			return nil, fmt.Errorf("%w: truncated derived quantization values", ErrInvalidMarker)
		}
		qz.derived = true
		base := bandQuant{
			expn: int(q.SPqcd[0] >> 3),
			mant: int(q.SPqcd[0]&0x07)<<8 | int(q.SPqcd[1]),
		}
		// All bands derive from the LL entry: the exponent drops by
		// one per resolution level, the mantissa is shared (E.1.1).
		qz.bands = make([]bandQuant, numBands)
		for i := 0; i < numBands; i++ {
			expn := base.expn
			if i > 0 {
				expn -= (i - 1) / 3
			}
			qz.bands[i] = bandQuant{expn: expn, mant: base.mant}
		}

	case codestream.QuantScalarExpounded:
		if len(q.SPqcd) < 2*numBands {
			return nil, fmt.Errorf("%w: %d quantization bytes for %d subbands",
				ErrInvalidMarker, len(q.SPqcd), numBands)
		}
		qz.bands = make([]bandQuant, numBands)
		for i := 0; i < numBands; i++ {
			hi, lo := q.SPqcd[2*i], q.SPqcd[2*i+1]
			qz.bands[i] = bandQuant{
				expn: int(hi >> 3),
				mant: int(hi&0x07)<<8 | int(lo),
			}
		}

	default:
		return nil, fmt.Errorf("%w: quantization style %d", ErrUnsupportedFeature, qz.style)
	}
	return qz, nil
}

// NumBitplanes returns Mb, the magnitude bit-plane count of a band:
// guard bits plus the band exponent minus one (E.1).
func (qz *Quantizer) NumBitplanes(resLevel, orient int) int {
	b := qz.bands[subbandIndex(resLevel, orient)]
	return qz.guardBits + b.expn - 1
}

// StepSize returns the dequantization step of a band for the given
// component bit depth, or 1 when the reversible no-quantization style
// is in effect.
func (qz *Quantizer) StepSize(resLevel, orient, bitDepth int) float64 {
	if qz.style == codestream.QuantNone {
		return 1
	}
	b := qz.bands[subbandIndex(resLevel, orient)]
	rb := bitDepth + subbandGains[orient]
	return math.Ldexp(1.0+float64(b.mant)/2048.0, rb-b.expn)
}

// Reversible reports whether the style carries no quantization.
func (qz *Quantizer) Reversible() bool {
	return qz.style == codestream.QuantNone
}

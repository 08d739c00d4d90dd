package jpeg2000

import (
	"fmt"

	"github.com/openmedimg/go-jpeg2000/jpeg2000/codestream"
	"github.com/openmedimg/go-jpeg2000/jpeg2000/colorspace"
	"github.com/openmedimg/go-jpeg2000/jpeg2000/t1"
	"github.com/openmedimg/go-jpeg2000/jpeg2000/t2"
	"github.com/openmedimg/go-jpeg2000/jpeg2000/wavelet"
)

func ceilDivPow2(a, n int) int {
	return (a + (1 << n) - 1) >> n
}

// tileDecoder reconstructs one tile: Tier-2 packet parsing, Tier-1
// block decoding, dequantization, inverse DWT, inverse MCT, DC level
// shift and clamping.
type tileDecoder struct {
	cs      *codestream.Codestream
	tile    *codestream.Tile
	lenient bool
	report  DecodeReport
}

func (td *tileDecoder) decode() ([][]int32, error) {
	comps, err := t2.DecodeTile(td.cs, td.tile)
	if err != nil {
		return nil, err
	}

	planes := make([][]int32, len(comps))
	for c, tc := range comps {
		planes[c], err = td.decodeComponent(tc, c)
		if err != nil {
			return nil, fmt.Errorf("tile %d component %d: %w", td.tile.SOT.Isot, c, err)
		}
	}

	params := td.cs.CodingFor(td.tile, 0)
	if params.MCT {
		if len(planes) < 3 {
			return nil, fmt.Errorf("%w: component transform on %d components",
				ErrInvalidMarker, len(planes))
		}
		if len(planes[0]) != len(planes[1]) || len(planes[0]) != len(planes[2]) {
			return nil, fmt.Errorf("%w: component transform across unequal planes",
				ErrUnsupportedFeature)
		}
		if params.Transform == 1 {
			colorspace.InverseRCT(planes[0], planes[1], planes[2])
		} else {
			colorspace.InverseICT(planes[0], planes[1], planes[2])
		}
	}

	for c := range planes {
		cs := td.cs.SIZ.Components[c]
		levelShiftClamp(planes[c], cs.BitDepth(), cs.IsSigned())
	}
	return planes, nil
}

// decodeComponent rebuilds one tile-component sample plane.
func (td *tileDecoder) decodeComponent(tc *t2.TileComponent, c int) ([]int32, error) {
	depth := td.cs.SIZ.Components[c].BitDepth()
	qz, err := NewQuantizer(td.cs.QuantFor(td.tile, uint16(c)), tc.Params.NumLevels)
	if err != nil {
		return nil, err
	}

	w, h := tc.Width(), tc.Height()
	if w <= 0 || h <= 0 {
		return nil, nil
	}

	reversible := tc.Params.Transform == 1
	var plane []int32
	var fplane []float64
	if reversible {
		plane = make([]int32, w*h)
	} else {
		fplane = make([]float64, w*h)
	}

	for r, res := range tc.Resolutions {
		for _, sb := range res.Bands {
			if sb.X1 <= sb.X0 || sb.Y1 <= sb.Y0 {
				continue
			}
			offX, offY := bandOffset(tc, r, sb.Orient)
			mb := qz.NumBitplanes(r, sb.Orient)
			step := qz.StepSize(r, sb.Orient, depth)

			for _, cb := range sb.Blocks {
				if cb.NumPasses == 0 {
					continue
				}
				dec := t1.NewDecoder(cb.Width(), cb.Height(), sb.Orient, tc.Params.Style)
				if td.lenient {
					dec.SetLenient(true)
				}
				rep, err := dec.Decode(cb.Data, cb.NumPasses, mb-1-cb.ZeroBitplanes, cb.SegEnds)
				if err != nil {
					return nil, err
				}
				td.report.add(rep)

				coeffs := dec.Data()
				bw := cb.Width()
				for y := 0; y < cb.Height(); y++ {
					dst := (offY+cb.Y0-sb.Y0+y)*w + offX + cb.X0 - sb.X0
					row := coeffs[y*bw : (y+1)*bw]
					if reversible {
						copy(plane[dst:dst+bw], row)
					} else {
						for x, v := range row {
							fplane[dst+x] = float64(v) * step
						}
					}
				}
			}
		}
	}

	if reversible {
		wavelet.InverseMultilevel53(plane, w, h, tc.Params.NumLevels, tc.X0, tc.Y0)
		return plane, nil
	}
	wavelet.InverseMultilevel97(fplane, w, h, tc.Params.NumLevels, tc.X0, tc.Y0)
	return wavelet.Float64ToInt32(fplane), nil
}

// bandOffset locates a band's quadrant inside the subband-layout
// coefficient plane: highpass quadrants sit to the right of and below
// the lowpass split of their parent window.
func bandOffset(tc *t2.TileComponent, r, orient int) (offX, offY int) {
	if orient == t2.OrientLL {
		return 0, 0
	}
	wi := tc.Params.NumLevels - r // window the band's decomposition split
	wx0 := ceilDivPow2(tc.X0, wi)
	wx1 := ceilDivPow2(tc.X1, wi)
	wy0 := ceilDivPow2(tc.Y0, wi)
	wy1 := ceilDivPow2(tc.Y1, wi)
	snW, _ := wavelet.SplitLengths(wx1-wx0, wx0&1 == 1)
	snH, _ := wavelet.SplitLengths(wy1-wy0, wy0&1 == 1)
	switch orient {
	case t2.OrientHL:
		return snW, 0
	case t2.OrientLH:
		return 0, snH
	default:
		return snW, snH
	}
}

// levelShiftClamp undoes the DC level shift for unsigned data and
// clamps every sample to the declared precision.
func levelShiftClamp(plane []int32, depth int, signed bool) {
	var lo, hi, shift int32
	if signed {
		lo = -(1 << (depth - 1))
		hi = 1<<(depth-1) - 1
	} else {
		shift = 1 << (depth - 1)
		hi = 1<<depth - 1
	}
	for i, v := range plane {
		v += shift
		if v < lo {
			v = lo
		} else if v > hi {
			v = hi
		}
		plane[i] = v
	}
}

// Package enctest builds small but standard-conforming JPEG 2000
// codestreams for the round-trip test suite: reversible 5/3 wavelet by
// default, or the irreversible 9/7 wavelet with expounded scalar
// quantization, single quality layer, single precinct. It is
// deliberately free of rate control; every coding pass of every
// code-block is emitted.
package enctest

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/openmedimg/go-jpeg2000/jpeg2000/codestream"
	"github.com/openmedimg/go-jpeg2000/jpeg2000/colorspace"
	"github.com/openmedimg/go-jpeg2000/jpeg2000/t1"
	"github.com/openmedimg/go-jpeg2000/jpeg2000/t2"
	"github.com/openmedimg/go-jpeg2000/jpeg2000/wavelet"
)

// Image is the raw input: one full-resolution plane per component,
// row-major, samples in the natural range of the declared precision.
type Image struct {
	Width    int
	Height   int
	BitDepth int
	Signed   bool
	Planes   [][]int32
}

// Params selects the codestream structure.
type Params struct {
	TileWidth  int // 0 = one tile covering the image
	TileHeight int

	NumLevels  int
	CodeBlockW int // actual size, power of two; 0 = 64
	CodeBlockH int

	Progression  uint8
	Irreversible bool // 9/7 wavelet with scalar expounded quantization
	UseMCT       bool // component transform over the first three planes
	UseSOP       bool
	UseEPH       bool
}

const guardBits = 2

// lossyMant is the mantissa signaled for every band in irreversible
// mode; with an exponent one above the band's dynamic range it yields a
// step of three quarters, fine enough that quantization error stays
// within a few sample values after synthesis.
const lossyMant = 1024

var bandGains = [4]int{0, 1, 1, 2}

// EncodeCodestream produces a complete SOC..EOC codestream for img.
func EncodeCodestream(img Image, p Params) ([]byte, error) {
	if len(img.Planes) == 0 {
		return nil, fmt.Errorf("no component planes")
	}
	for c, plane := range img.Planes {
		if len(plane) != img.Width*img.Height {
			return nil, fmt.Errorf("component %d: plane size %d does not cover %dx%d",
				c, len(plane), img.Width, img.Height)
		}
	}
	if p.UseMCT && len(img.Planes) < 3 {
		return nil, fmt.Errorf("component transform needs three planes, have %d", len(img.Planes))
	}
	if p.TileWidth == 0 {
		p.TileWidth = img.Width
	}
	if p.TileHeight == 0 {
		p.TileHeight = img.Height
	}
	if p.CodeBlockW == 0 {
		p.CodeBlockW = 64
	}
	if p.CodeBlockH == 0 {
		p.CodeBlockH = 64
	}

	transform := uint8(1)
	if p.Irreversible {
		transform = 0
	}
	siz := buildSIZ(img, p)
	params := codestream.CodingParams{
		NumLevels:   p.NumLevels,
		CodeBlockW:  p.CodeBlockW,
		CodeBlockH:  p.CodeBlockH,
		Transform:   transform,
		Progression: p.Progression,
		Layers:      1,
		MCT:         p.UseMCT,
		UseSOP:      p.UseSOP,
		UseEPH:      p.UseEPH,
	}

	var buf bytes.Buffer
	writeMainHeader(&buf, siz, img, p)

	numTiles := siz.NumTilesX() * siz.NumTilesY()
	for ti := 0; ti < numTiles; ti++ {
		body, err := encodeTile(siz, img, params, ti)
		if err != nil {
			return nil, fmt.Errorf("tile %d: %w", ti, err)
		}
		writeTilePart(&buf, ti, body)
	}

	be(&buf, codestream.MarkerEOC)
	return buf.Bytes(), nil
}

func be(buf *bytes.Buffer, v interface{}) {
	_ = binary.Write(buf, binary.BigEndian, v)
}

func buildSIZ(img Image, p Params) *codestream.SIZSegment {
	siz := &codestream.SIZSegment{
		Xsiz:  uint32(img.Width),
		Ysiz:  uint32(img.Height),
		XTsiz: uint32(p.TileWidth),
		YTsiz: uint32(p.TileHeight),
		Csiz:  uint16(len(img.Planes)),
	}
	ssiz := uint8(img.BitDepth - 1)
	if img.Signed {
		ssiz |= 0x80
	}
	siz.Components = make([]codestream.ComponentSize, len(img.Planes))
	for i := range siz.Components {
		siz.Components[i] = codestream.ComponentSize{Ssiz: ssiz, XRsiz: 1, YRsiz: 1}
	}
	return siz
}

func writeMainHeader(buf *bytes.Buffer, siz *codestream.SIZSegment, img Image, p Params) {
	be(buf, codestream.MarkerSOC)

	be(buf, codestream.MarkerSIZ)
	be(buf, uint16(38+3*len(siz.Components)))
	be(buf, siz.Rsiz)
	be(buf, siz.Xsiz)
	be(buf, siz.Ysiz)
	be(buf, siz.XOsiz)
	be(buf, siz.YOsiz)
	be(buf, siz.XTsiz)
	be(buf, siz.YTsiz)
	be(buf, siz.XTOsiz)
	be(buf, siz.YTOsiz)
	be(buf, siz.Csiz)
	for _, c := range siz.Components {
		be(buf, c.Ssiz)
		be(buf, c.XRsiz)
		be(buf, c.YRsiz)
	}

	var scod uint8
	if p.UseSOP {
		scod |= 0x02
	}
	if p.UseEPH {
		scod |= 0x04
	}
	var mct uint8
	if p.UseMCT {
		mct = 1
	}
	be(buf, codestream.MarkerCOD)
	be(buf, uint16(12))
	be(buf, scod)
	be(buf, p.Progression)
	be(buf, uint16(1)) // layers
	be(buf, mct)
	be(buf, uint8(p.NumLevels))
	be(buf, uint8(floorLog2(p.CodeBlockW)-2))
	be(buf, uint8(floorLog2(p.CodeBlockH)-2))
	be(buf, uint8(0)) // code-block style
	if p.Irreversible {
		be(buf, uint8(0)) // 9/7 irreversible
	} else {
		be(buf, uint8(1)) // 5/3 reversible
	}

	numBands := 1 + 3*p.NumLevels
	be(buf, codestream.MarkerQCD)
	if p.Irreversible {
		be(buf, uint16(3+2*numBands))
		be(buf, uint8(guardBits<<5|2)) // scalar expounded
		for i := 0; i < numBands; i++ {
			be(buf, uint8(bandExponent(img.BitDepth, i)<<3|lossyMant>>8))
			be(buf, uint8(lossyMant&0xFF))
		}
	} else {
		be(buf, uint16(3+numBands))
		be(buf, uint8(guardBits<<5)) // no quantization
		for i := 0; i < numBands; i++ {
			be(buf, uint8(bandExponent(img.BitDepth, i)<<3))
		}
	}
}

// bandExponent chooses the signaled exponent for band index i (LL
// first, then HL, LH, HH per level): nominal precision plus the band
// gain plus one headroom bit for the component transform.
func bandExponent(depth, i int) int {
	orient := 0
	if i > 0 {
		orient = (i-1)%3 + 1
	}
	return depth + bandGains[orient] + 1
}

// numBitplanes mirrors the dequantizer's bit-plane budget for the QCD
// written above.
func numBitplanes(depth, orient int) int {
	return guardBits + depth + bandGains[orient] + 1 - 1
}

// lossyStep is the quantization step the expounded QCD above signals
// for a band: (1 + mant/2048) * 2^(Rb - expn).
func lossyStep(depth, orient int) float64 {
	rb := depth + bandGains[orient]
	return math.Ldexp(1.0+float64(lossyMant)/2048.0, rb-bandExponentOrient(depth, orient))
}

func bandExponentOrient(depth, orient int) int {
	return depth + bandGains[orient] + 1
}

func writeTilePart(buf *bytes.Buffer, index int, body []byte) {
	be(buf, codestream.MarkerSOT)
	be(buf, uint16(10))
	be(buf, uint16(index))
	be(buf, uint32(12+2+len(body))) // Psot
	be(buf, uint8(0))               // TPsot
	be(buf, uint8(1))               // TNsot
	be(buf, codestream.MarkerSOD)
	buf.Write(body)
}

// encodeTile runs the forward pipeline for one tile and returns its
// packet bytes.
func encodeTile(siz *codestream.SIZSegment, img Image, params codestream.CodingParams, tileIndex int) ([]byte, error) {
	tx0, ty0, tx1, ty1 := t2.TileBounds(siz, tileIndex)
	tw, th := tx1-tx0, ty1-ty0
	if tw <= 0 || th <= 0 {
		return nil, nil
	}

	// Extract tile planes and apply the DC level shift.
	planes := make([][]int32, len(img.Planes))
	shift := int32(0)
	if !img.Signed {
		shift = 1 << uint(img.BitDepth-1)
	}
	for c, src := range img.Planes {
		plane := make([]int32, tw*th)
		for y := 0; y < th; y++ {
			for x := 0; x < tw; x++ {
				plane[y*tw+x] = src[(ty0+y)*img.Width+tx0+x] - shift
			}
		}
		planes[c] = plane
	}

	reversible := params.Transform == 1
	if params.MCT {
		if reversible {
			colorspace.ForwardRCT(planes[0], planes[1], planes[2])
		} else {
			colorspace.ForwardICT(planes[0], planes[1], planes[2])
		}
	}

	comps := make([]*tileComp, len(planes))
	for c, plane := range planes {
		tc, err := t2.BuildTileComponent(siz, tileIndex, c, params)
		if err != nil {
			return nil, err
		}
		if reversible {
			wavelet.ForwardMultilevel53(plane, tw, th, params.NumLevels, tx0, ty0)
			comps[c] = encodeBlocks(tc, plane, nil, img.BitDepth)
		} else {
			fplane := make([]float64, len(plane))
			for i, v := range plane {
				fplane[i] = float64(v)
			}
			wavelet.ForwardMultilevel97(fplane, tw, th, params.NumLevels, tx0, ty0)
			comps[c] = encodeBlocks(tc, nil, fplane, img.BitDepth)
		}
	}

	return writePackets(comps, params)
}

// tileComp pairs the tile-component geometry with the coded blocks.
type tileComp struct {
	tc     *t2.TileComponent
	blocks map[*t2.CodeBlock]*codedBlock
}

type codedBlock struct {
	data      []byte
	numPasses int
	zbp       int
}

// encodeBlocks extracts every band from the transformed plane and runs
// the block coder over its code-block grid. Exactly one of plane and
// fplane is set; float coefficients are quantized with the band step
// the QCD signals.
func encodeBlocks(tc *t2.TileComponent, plane []int32, fplane []float64, depth int) *tileComp {
	out := &tileComp{tc: tc, blocks: make(map[*t2.CodeBlock]*codedBlock)}
	w := tc.Width()

	for r, res := range tc.Resolutions {
		for _, sb := range res.Bands {
			if sb.X1 <= sb.X0 || sb.Y1 <= sb.Y0 {
				continue
			}
			offX, offY := bandOffset(tc, r, sb.Orient)
			mb := numBitplanes(depth, sb.Orient)
			step := lossyStep(depth, sb.Orient)

			for _, cb := range sb.Blocks {
				bw, bh := cb.Width(), cb.Height()
				coeffs := make([]int32, bw*bh)
				for y := 0; y < bh; y++ {
					src := (offY+cb.Y0-sb.Y0+y)*w + offX + cb.X0 - sb.X0
					if fplane != nil {
						for x := 0; x < bw; x++ {
							coeffs[y*bw+x] = int32(fplane[src+x] / step)
						}
					} else {
						copy(coeffs[y*bw:(y+1)*bw], plane[src:src+bw])
					}
				}

				enc := t1.NewEncoder(bw, bh, sb.Orient, 0)
				data, numPasses, maxBP, _ := enc.Encode(coeffs)
				if numPasses == 0 {
					continue
				}
				out.blocks[cb] = &codedBlock{
					data:      data,
					numPasses: numPasses,
					zbp:       mb - 1 - maxBP,
				}
			}
		}
	}
	return out
}

// bandOffset locates a band's quadrant inside the subband-layout plane,
// the same mapping the tile reconstruction applies in reverse.
func bandOffset(tc *t2.TileComponent, r, orient int) (offX, offY int) {
	if orient == t2.OrientLL {
		return 0, 0
	}
	wi := tc.Params.NumLevels - r
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

func ceilDivPow2(a, n int) int {
	return (a + (1 << n) - 1) >> n
}

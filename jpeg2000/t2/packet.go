package t2

import (
	"errors"
	"fmt"

	"github.com/openmedimg/go-jpeg2000/jpeg2000/codestream"
)

// ErrCorruptPacket reports a packet header whose structure cannot be
// reconciled with the tile geometry.
var ErrCorruptPacket = errors.New("corrupt packet header")

// Progression order values from the COD segment.
const (
	ProgressionLRCP = 0
	ProgressionRLCP = 1
	ProgressionRPCL = 2
	ProgressionPCRL = 3
	ProgressionCPRL = 4
)

// A block carries at most three coding passes per magnitude bit plane,
// so totals past this bound mark a damaged header.
const maxTotalPasses = 109

// piece is a run of new coding passes that extend a single codeword
// segment of one code block within one layer.
type piece struct {
	seg    int
	passes int
	length int
}

// pendingBlock queues a block's body reads until the whole packet
// header has been parsed.
type pendingBlock struct {
	cb     *CodeBlock
	pieces []piece
}

// segmentIndexForPass maps a zero-based coding pass index to the
// codeword segment it lives in under the given code-block style.
// Termination on every pass gives each pass its own segment; selective
// bypass terminates around the raw pass pairs, giving segment spans of
// 10, 2, 1, 2, 1 and so on; otherwise one segment holds everything.
func segmentIndexForPass(style uint8, passIdx int) int {
	if style&codestream.CBStyleTermAll != 0 {
		return passIdx
	}
	if style&codestream.CBStyleBypass != 0 {
		if passIdx < 10 {
			return 0
		}
		q := passIdx - 10
		return 1 + 2*(q/3) + (q%3)/2
	}
	return 0
}

// passPieces splits newPasses passes starting at firstPass into runs
// that share a codeword segment.
func passPieces(style uint8, firstPass, newPasses int) []piece {
	var out []piece
	for i := 0; i < newPasses; i++ {
		s := segmentIndexForPass(style, firstPass+i)
		if n := len(out); n > 0 && out[n-1].seg == s {
			out[n-1].passes++
			continue
		}
		out = append(out, piece{seg: s, passes: 1})
	}
	return out
}

// readNumPasses decodes the coding-pass count codeword.
func readNumPasses(br *codestream.BitReader) (int, error) {
	bit, err := br.ReadBit()
	if err != nil {
		return 0, err
	}
	if bit == 0 {
		return 1, nil
	}
	if bit, err = br.ReadBit(); err != nil {
		return 0, err
	}
	if bit == 0 {
		return 2, nil
	}
	v, err := br.ReadBits(2)
	if err != nil {
		return 0, err
	}
	if v < 3 {
		return 3 + int(v), nil
	}
	if v, err = br.ReadBits(5); err != nil {
		return 0, err
	}
	if v < 31 {
		return 6 + int(v), nil
	}
	if v, err = br.ReadBits(7); err != nil {
		return 0, err
	}
	return 37 + int(v), nil
}

func floorLog2(n int) int {
	k := 0
	for n > 1 {
		n >>= 1
		k++
	}
	return k
}

// skipMarker consumes an in-stream marker of the given total byte
// length if it is next in the data. Returns whether it was present.
func skipMarker(br *codestream.BitReader, code byte, size int) (bool, error) {
	rem := br.Remaining()
	if len(rem) < 2 || rem[0] != 0xFF || rem[1] != code {
		return false, nil
	}
	if _, err := br.ReadBytes(size); err != nil {
		return false, err
	}
	return true, nil
}

// decodePacket reads one packet: the header bits covering every code
// block of every band at resolution r, then the codeword bytes in the
// same block order.
func decodePacket(br *codestream.BitReader, tc *TileComponent, r, layer int, useSOP, useEPH bool) error {
	if useSOP {
		if _, err := skipMarker(br, 0x91, 6); err != nil {
			return err
		}
	}

	res := tc.Resolutions[r]

	present, err := br.ReadBit()
	if err != nil {
		return err
	}
	var pending []pendingBlock
	if present == 1 {
		for _, sb := range res.Bands {
			for by := 0; by < sb.BlocksH; by++ {
				for bx := 0; bx < sb.BlocksW; bx++ {
					pb, err := decodeBlockHeader(br, tc, sb, bx, by, layer)
					if err != nil {
						return err
					}
					if pb != nil {
						pending = append(pending, *pb)
					}
				}
			}
		}
	}

	if err := br.Align(); err != nil {
		return err
	}
	if useEPH {
		present, err := skipMarker(br, 0x92, 2)
		if err != nil {
			return err
		}
		if !present {
			return fmt.Errorf("%w: missing EPH after header at offset %d", ErrCorruptPacket, br.Position())
		}
	}

	for _, pb := range pending {
		for _, p := range pb.pieces {
			body, err := br.ReadBytes(p.length)
			if err != nil {
				return err
			}
			pb.cb.Data = append(pb.cb.Data, body...)
			for len(pb.cb.segLens) <= p.seg {
				pb.cb.segLens = append(pb.cb.segLens, 0)
			}
			pb.cb.segLens[p.seg] += p.length
			pb.cb.NumPasses += p.passes
		}
	}
	return nil
}

// decodeBlockHeader reads one code block's share of a packet header
// and returns its queued body reads, or nil if the block does not
// contribute to this layer.
func decodeBlockHeader(br *codestream.BitReader, tc *TileComponent, sb *Subband, bx, by, layer int) (*pendingBlock, error) {
	cb := sb.Block(bx, by)

	var included bool
	if !cb.Included {
		ok, err := sb.inclusion.Decode(br, bx, by, layer+1)
		if err != nil {
			return nil, err
		}
		included = ok
	} else {
		bit, err := br.ReadBit()
		if err != nil {
			return nil, err
		}
		included = bit == 1
	}
	if !included {
		return nil, nil
	}

	if !cb.Included {
		// First appearance carries the missing bit-plane count.
		k := 1
		for {
			ok, err := sb.zeroBP.Decode(br, bx, by, k)
			if err != nil {
				return nil, err
			}
			if ok {
				break
			}
			k++
		}
		cb.ZeroBitplanes = k - 1
		cb.Included = true
	}

	newPasses, err := readNumPasses(br)
	if err != nil {
		return nil, err
	}
	if cb.NumPasses+newPasses > maxTotalPasses {
		return nil, fmt.Errorf("%w: %d coding passes on one code-block",
			ErrCorruptPacket, cb.NumPasses+newPasses)
	}

	for {
		bit, err := br.ReadBit()
		if err != nil {
			return nil, err
		}
		if bit == 0 {
			break
		}
		cb.lblock++
		if cb.lblock > 32 {
			return nil, fmt.Errorf("%w: runaway length indicator", ErrCorruptPacket)
		}
	}

	pb := &pendingBlock{cb: cb, pieces: passPieces(tc.Params.Style, cb.NumPasses, newPasses)}
	for i := range pb.pieces {
		bits := cb.lblock + floorLog2(pb.pieces[i].passes)
		v, err := br.ReadBits(bits)
		if err != nil {
			return nil, err
		}
		pb.pieces[i].length = int(v)
	}
	return pb, nil
}

// DecodeTile parses the packet stream of one tile into per-code-block
// codeword segments, following the tile's progression order. Layers
// and precincts collapse to simple loops because only single-precinct
// codestreams are accepted.
func DecodeTile(cs *codestream.Codestream, tile *codestream.Tile) ([]*TileComponent, error) {
	numComps := int(cs.SIZ.Csiz)
	comps := make([]*TileComponent, numComps)
	maxRes := 0
	for c := 0; c < numComps; c++ {
		params := cs.CodingFor(tile, uint16(c))
		tc, err := BuildTileComponent(cs.SIZ, int(tile.SOT.Isot), c, params)
		if err != nil {
			return nil, err
		}
		comps[c] = tc
		if n := params.NumLevels; n > maxRes {
			maxRes = n
		}
	}

	base := cs.CodingFor(tile, 0)
	layers := base.Layers
	br := codestream.NewBitReader(tile.Data)

	packet := func(c, r, l int) error {
		if r >= len(comps[c].Resolutions) {
			return nil
		}
		return decodePacket(br, comps[c], r, l, base.UseSOP, base.UseEPH)
	}

	var err error
	switch base.Progression {
	case ProgressionLRCP:
		for l := 0; l < layers && err == nil; l++ {
			for r := 0; r <= maxRes && err == nil; r++ {
				for c := 0; c < numComps && err == nil; c++ {
					err = packet(c, r, l)
				}
			}
		}
	case ProgressionRLCP:
		for r := 0; r <= maxRes && err == nil; r++ {
			for l := 0; l < layers && err == nil; l++ {
				for c := 0; c < numComps && err == nil; c++ {
					err = packet(c, r, l)
				}
			}
		}
	case ProgressionRPCL:
		for r := 0; r <= maxRes && err == nil; r++ {
			for c := 0; c < numComps && err == nil; c++ {
				for l := 0; l < layers && err == nil; l++ {
					err = packet(c, r, l)
				}
			}
		}
	case ProgressionPCRL, ProgressionCPRL:
		for c := 0; c < numComps && err == nil; c++ {
			for r := 0; r <= maxRes && err == nil; r++ {
				for l := 0; l < layers && err == nil; l++ {
					err = packet(c, r, l)
				}
			}
		}
	default:
		return nil, fmt.Errorf("%w: progression order %d",
			codestream.ErrUnsupportedFeature, base.Progression)
	}
	if err != nil {
		return nil, err
	}

	for _, tc := range comps {
		for _, res := range tc.Resolutions {
			for _, sb := range res.Bands {
				for _, cb := range sb.Blocks {
					cb.finalize()
				}
			}
		}
	}
	return comps, nil
}

// finalize turns the per-segment byte counts into the cumulative
// segment end offsets Tier-1 consumes.
func (cb *CodeBlock) finalize() {
	end := 0
	for _, n := range cb.segLens {
		end += n
		cb.SegEnds = append(cb.SegEnds, end)
	}
}

package enctest

import (
	"bytes"
	"fmt"

	"github.com/openmedimg/go-jpeg2000/jpeg2000/codestream"
	"github.com/openmedimg/go-jpeg2000/jpeg2000/t2"
)

// writePackets serializes one packet per (resolution, component) pair
// in the tile's progression order. With a single layer and a single
// precinct every progression collapses to one of two loop nests.
func writePackets(comps []*tileComp, params codestream.CodingParams) ([]byte, error) {
	var out bytes.Buffer
	maxRes := params.NumLevels
	sop := 0

	emit := func(c, r int) {
		writePacket(&out, comps[c], r, params, sop)
		sop++
	}

	switch params.Progression {
	case t2.ProgressionLRCP, t2.ProgressionRLCP, t2.ProgressionRPCL:
		for r := 0; r <= maxRes; r++ {
			for c := range comps {
				emit(c, r)
			}
		}
	case t2.ProgressionPCRL, t2.ProgressionCPRL:
		for c := range comps {
			for r := 0; r <= maxRes; r++ {
				emit(c, r)
			}
		}
	default:
		return nil, fmt.Errorf("progression order %d", params.Progression)
	}
	return out.Bytes(), nil
}

// writePacket emits one packet: optional SOP, the header bits for every
// code-block of every band at resolution r, optional EPH, then the
// codeword segments in header order.
func writePacket(out *bytes.Buffer, tcmp *tileComp, r int, params codestream.CodingParams, sop int) {
	if params.UseSOP {
		out.Write([]byte{0xFF, 0x91, 0x00, 0x04, byte(sop >> 8), byte(sop)})
	}

	res := tcmp.tc.Resolutions[r]
	w := newHeaderWriter()
	var bodies [][]byte

	present := 0
	for _, sb := range res.Bands {
		for _, cb := range sb.Blocks {
			if tcmp.blocks[cb] != nil {
				present = 1
				break
			}
		}
	}
	_ = w.WriteBit(present)

	if present == 1 {
		for _, sb := range res.Bands {
			inclusion := t2.NewTagTree(sb.BlocksW, sb.BlocksH)
			zeroBP := t2.NewTagTree(sb.BlocksW, sb.BlocksH)
			for by := 0; by < sb.BlocksH; by++ {
				for bx := 0; bx < sb.BlocksW; bx++ {
					if eb := tcmp.blocks[sb.Block(bx, by)]; eb != nil {
						inclusion.SetValue(bx, by, 0)
						zeroBP.SetValue(bx, by, eb.zbp)
					} else {
						inclusion.SetValue(bx, by, 1)
					}
				}
			}

			for by := 0; by < sb.BlocksH; by++ {
				for bx := 0; bx < sb.BlocksW; bx++ {
					eb := tcmp.blocks[sb.Block(bx, by)]
					_ = inclusion.Encode(w, bx, by, 1)
					if eb == nil {
						continue
					}
					for k := 1; ; k++ {
						_ = zeroBP.Encode(w, bx, by, k)
						if eb.zbp < k {
							break
						}
					}
					_ = w.writeNumPasses(eb.numPasses)
					writeLength(w, len(eb.data), eb.numPasses)
					bodies = append(bodies, eb.data)
				}
			}
		}
	}

	out.Write(w.flush())
	if params.UseEPH {
		out.Write([]byte{0xFF, 0x92})
	}
	for _, b := range bodies {
		out.Write(b)
	}
}

// writeLength emits the Lblock escalation commas followed by the
// codeword segment length (B.10.7.1). Each block appears in exactly one
// packet here, so the indicator always starts at its initial value.
func writeLength(w *headerWriter, length, numPasses int) {
	lblock := 3
	bits := lblock + floorLog2(numPasses)
	for bitLen(length) > bits {
		_ = w.WriteBit(1)
		lblock++
		bits++
	}
	_ = w.WriteBit(0)
	w.writeBits(uint32(length), bits)
}

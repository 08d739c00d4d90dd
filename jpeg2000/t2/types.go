// Package t2 implements Tier-2 decoding of a JPEG 2000 tile: packet
// headers, tag trees, and the progression orders that assign codeword
// segments to individual code blocks.
package t2

import "github.com/openmedimg/go-jpeg2000/jpeg2000/codestream"

// Subband orientations. The orient value doubles as the zero-coding
// context table selector in Tier-1.
const (
	OrientLL = 0
	OrientHL = 1
	OrientLH = 2
	OrientHH = 3
)

// CodeBlock accumulates what Tier-2 learns about one code block across
// the layers of a tile: its codeword bytes, the boundaries of its
// coding-pass segments, and the header state threaded between layers.
type CodeBlock struct {
	X0, Y0, X1, Y1 int // bounds on the band grid

	Included      bool // appeared in some earlier layer
	ZeroBitplanes int
	NumPasses     int // total passes contributed so far

	Data    []byte // concatenated codeword segments
	SegEnds []int  // cumulative end offset in Data per terminated segment

	lblock  int   // length-indicator state, starts at 3
	segLens []int // byte count per codeword segment, indexed by segment
}

// Width returns the code-block width in samples.
func (cb *CodeBlock) Width() int { return cb.X1 - cb.X0 }

// Height returns the code-block height in samples.
func (cb *CodeBlock) Height() int { return cb.Y1 - cb.Y0 }

// Subband is one frequency band of a resolution level, carrying its
// code-block grid and the two per-precinct tag trees.
type Subband struct {
	Orient         int
	X0, Y0, X1, Y1 int // band coordinates

	BlocksW, BlocksH int
	Blocks           []*CodeBlock

	inclusion *TagTree
	zeroBP    *TagTree
}

// Block returns the code block at grid position (x, y).
func (sb *Subband) Block(x, y int) *CodeBlock {
	return sb.Blocks[y*sb.BlocksW+x]
}

// Resolution is one level of the multi-resolution pyramid: level 0
// holds the single LL band, every higher level the HL, LH and HH bands
// that refine it.
type Resolution struct {
	Level          int
	X0, Y0, X1, Y1 int
	Bands          []*Subband
}

// TileComponent is the full Tier-2 geometry of one component of one
// tile, from the LL root up to the component's own resolution.
type TileComponent struct {
	Comp           int
	X0, Y0, X1, Y1 int
	Params         codestream.CodingParams
	Resolutions    []*Resolution
}

// Width returns the tile-component width in samples.
func (tc *TileComponent) Width() int { return tc.X1 - tc.X0 }

// Height returns the tile-component height in samples.
func (tc *TileComponent) Height() int { return tc.Y1 - tc.Y0 }

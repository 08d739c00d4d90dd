package t2

import (
	"fmt"

	"github.com/openmedimg/go-jpeg2000/jpeg2000/codestream"
)

// Maximal precinct exponent. Without user-defined precinct sizes every
// resolution level has a single precinct of 2^15 x 2^15, so the packet
// iteration below runs with exactly one precinct per (r, c) pair.
const defaultPrecinctExp = 15

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// ceilDivPow2 computes ceil(a / 2^n) for non-negative a.
func ceilDivPow2(a, n int) int {
	return (a + (1 << n) - 1) >> n
}

func floorDiv(a, b int) int {
	return a / b
}

// TileBounds returns the reference-grid rectangle of tile tileIndex,
// clipped to the image area.
func TileBounds(siz *codestream.SIZSegment, tileIndex int) (x0, y0, x1, y1 int) {
	ntx := siz.NumTilesX()
	p := tileIndex % ntx
	q := tileIndex / ntx

	x0 = int(siz.XTOsiz) + p*int(siz.XTsiz)
	y0 = int(siz.YTOsiz) + q*int(siz.YTsiz)
	x1 = x0 + int(siz.XTsiz)
	y1 = y0 + int(siz.YTsiz)

	x0 = maxInt(x0, int(siz.XOsiz))
	y0 = maxInt(y0, int(siz.YOsiz))
	x1 = minInt(x1, int(siz.Xsiz))
	y1 = minInt(y1, int(siz.Ysiz))
	return
}

// componentBounds maps a reference-grid rectangle into a component's
// sample grid using its subsampling factors.
func componentBounds(siz *codestream.SIZSegment, comp, tx0, ty0, tx1, ty1 int) (x0, y0, x1, y1 int) {
	cs := siz.Components[comp]
	x0 = ceilDiv(tx0, int(cs.XRsiz))
	y0 = ceilDiv(ty0, int(cs.YRsiz))
	x1 = ceilDiv(tx1, int(cs.XRsiz))
	y1 = ceilDiv(ty1, int(cs.YRsiz))
	return
}

// bandOrigin offsets per orientation, in half-units of the parent
// decomposition. LL has no offset, HL selects the horizontal highpass,
// LH the vertical one, HH both.
var bandOffsets = [4][2]int{
	OrientLL: {0, 0},
	OrientHL: {1, 0},
	OrientLH: {0, 1},
	OrientHH: {1, 1},
}

// bandBounds computes the coordinates of one band of resolution r in a
// tile-component with n decomposition levels.
func bandBounds(tcx0, tcy0, tcx1, tcy1, n, r, orient int) (x0, y0, x1, y1 int) {
	if r == 0 {
		x0 = ceilDivPow2(tcx0, n)
		y0 = ceilDivPow2(tcy0, n)
		x1 = ceilDivPow2(tcx1, n)
		y1 = ceilDivPow2(tcy1, n)
		return
	}
	d := n - r + 1 // decomposition count feeding this band
	xo := bandOffsets[orient][0] << (d - 1)
	yo := bandOffsets[orient][1] << (d - 1)
	x0 = ceilDivPow2(tcx0-xo, d)
	y0 = ceilDivPow2(tcy0-yo, d)
	x1 = ceilDivPow2(tcx1-xo, d)
	y1 = ceilDivPow2(tcy1-yo, d)
	return
}

// buildBand lays the code-block grid over a band. The partition is
// anchored at the band-grid origin, so edge blocks can be smaller than
// the nominal size.
func buildBand(orient, x0, y0, x1, y1, cbw, cbh int) *Subband {
	sb := &Subband{Orient: orient, X0: x0, Y0: y0, X1: x1, Y1: y1}
	if x1 <= x0 || y1 <= y0 {
		return sb
	}

	gx0 := floorDiv(x0, cbw) * cbw
	gy0 := floorDiv(y0, cbh) * cbh
	sb.BlocksW = ceilDiv(x1-gx0, cbw)
	sb.BlocksH = ceilDiv(y1-gy0, cbh)

	sb.Blocks = make([]*CodeBlock, 0, sb.BlocksW*sb.BlocksH)
	for by := 0; by < sb.BlocksH; by++ {
		for bx := 0; bx < sb.BlocksW; bx++ {
			cb := &CodeBlock{
				X0:     maxInt(gx0+bx*cbw, x0),
				Y0:     maxInt(gy0+by*cbh, y0),
				X1:     minInt(gx0+(bx+1)*cbw, x1),
				Y1:     minInt(gy0+(by+1)*cbh, y1),
				lblock: 3,
			}
			sb.Blocks = append(sb.Blocks, cb)
		}
	}
	sb.inclusion = NewTagTree(sb.BlocksW, sb.BlocksH)
	sb.zeroBP = NewTagTree(sb.BlocksW, sb.BlocksH)
	return sb
}

// BuildTileComponent computes the full resolution pyramid, bands, and
// code-block grids for one component of one tile.
func BuildTileComponent(siz *codestream.SIZSegment, tileIndex, comp int, params codestream.CodingParams) (*TileComponent, error) {
	tx0, ty0, tx1, ty1 := TileBounds(siz, tileIndex)
	cx0, cy0, cx1, cy1 := componentBounds(siz, comp, tx0, ty0, tx1, ty1)

	tc := &TileComponent{
		Comp:   comp,
		X0:     cx0,
		Y0:     cy0,
		X1:     cx1,
		Y1:     cy1,
		Params: params,
	}

	n := params.NumLevels
	tc.Resolutions = make([]*Resolution, n+1)
	for r := 0; r <= n; r++ {
		res := &Resolution{Level: r}
		res.X0 = ceilDivPow2(cx0, n-r)
		res.Y0 = ceilDivPow2(cy0, n-r)
		res.X1 = ceilDivPow2(cx1, n-r)
		res.Y1 = ceilDivPow2(cy1, n-r)

		npw := ceilDivPow2(res.X1, defaultPrecinctExp) - res.X0>>defaultPrecinctExp
		nph := ceilDivPow2(res.Y1, defaultPrecinctExp) - res.Y0>>defaultPrecinctExp
		if res.X1 <= res.X0 || res.Y1 <= res.Y0 {
			npw, nph = 0, 0
		}
		if npw > 1 || nph > 1 {
			return nil, fmt.Errorf("%w: resolution %dx%d spans multiple precincts",
				codestream.ErrUnsupportedFeature, res.X1-res.X0, res.Y1-res.Y0)
		}

		if r == 0 {
			x0, y0, x1, y1 := bandBounds(cx0, cy0, cx1, cy1, n, 0, OrientLL)
			res.Bands = []*Subband{buildBand(OrientLL, x0, y0, x1, y1, params.CodeBlockW, params.CodeBlockH)}
		} else {
			res.Bands = make([]*Subband, 0, 3)
			for _, orient := range []int{OrientHL, OrientLH, OrientHH} {
				x0, y0, x1, y1 := bandBounds(cx0, cy0, cx1, cy1, n, r, orient)
				res.Bands = append(res.Bands, buildBand(orient, x0, y0, x1, y1, params.CodeBlockW, params.CodeBlockH))
			}
		}
		tc.Resolutions[r] = res
	}
	return tc, nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

package jpeg2000

import (
	"fmt"

	"github.com/openmedimg/go-jpeg2000/jpeg2000/codestream"
)

// TileLayout is the tile grid read from the SIZ segment, in image
// coordinates (reference grid minus the image offset).
type TileLayout struct {
	imageWidth  int
	imageHeight int
	imageX0     int
	imageY0     int
	imageX1     int
	imageY1     int

	tileWidth   int
	tileHeight  int
	tileOffsetX int
	tileOffsetY int

	numTilesX int
	numTilesY int
}

// NewTileLayout builds the tile grid for a parsed SIZ segment.
func NewTileLayout(siz *codestream.SIZSegment) *TileLayout {
	tl := &TileLayout{
		imageX0:     int(siz.XOsiz),
		imageY0:     int(siz.YOsiz),
		imageX1:     int(siz.Xsiz),
		imageY1:     int(siz.Ysiz),
		tileWidth:   int(siz.XTsiz),
		tileHeight:  int(siz.YTsiz),
		tileOffsetX: int(siz.XTOsiz),
		tileOffsetY: int(siz.YTOsiz),
	}
	tl.imageWidth = tl.imageX1 - tl.imageX0
	tl.imageHeight = tl.imageY1 - tl.imageY0
	tl.numTilesX = siz.NumTilesX()
	tl.numTilesY = siz.NumTilesY()
	return tl
}

// TileCount returns the number of tiles in the grid.
func (tl *TileLayout) TileCount() int {
	return tl.numTilesX * tl.numTilesY
}

// TileBounds returns a tile's rectangle in image-local coordinates,
// clipped to the image area. Edge tiles can be smaller than the
// nominal tile size.
func (tl *TileLayout) TileBounds(tileIdx int) (x0, y0, x1, y1 int) {
	tx := tileIdx % tl.numTilesX
	ty := tileIdx / tl.numTilesX

	gx0 := tx*tl.tileWidth + tl.tileOffsetX
	gy0 := ty*tl.tileHeight + tl.tileOffsetY
	gx1 := gx0 + tl.tileWidth
	gy1 := gy0 + tl.tileHeight

	if gx0 < tl.imageX0 {
		gx0 = tl.imageX0
	}
	if gy0 < tl.imageY0 {
		gy0 = tl.imageY0
	}
	if gx1 > tl.imageX1 {
		gx1 = tl.imageX1
	}
	if gy1 > tl.imageY1 {
		gy1 = tl.imageY1
	}
	return gx0 - tl.imageX0, gy0 - tl.imageY0, gx1 - tl.imageX0, gy1 - tl.imageY0
}

// TileAssembler writes decoded tile planes into the full-image planes.
type TileAssembler struct {
	layout     *TileLayout
	components int
	imageData  [][]int32 // per component, row-major
}

// NewTileAssembler allocates image planes for every component.
func NewTileAssembler(siz *codestream.SIZSegment) *TileAssembler {
	layout := NewTileLayout(siz)
	ta := &TileAssembler{
		layout:     layout,
		components: int(siz.Csiz),
	}
	ta.imageData = make([][]int32, ta.components)
	for i := range ta.imageData {
		ta.imageData[i] = make([]int32, layout.imageWidth*layout.imageHeight)
	}
	return ta
}

// AssembleTile copies a tile's component planes into the image at the
// tile's offset. Plane sizes that disagree with the tile bounds mean
// the reconstruction diverged from the header geometry.
func (ta *TileAssembler) AssembleTile(tileIdx int, planes [][]int32) error {
	if tileIdx < 0 || tileIdx >= ta.layout.TileCount() {
		return fmt.Errorf("%w: tile index %d of %d", ErrGeometryMismatch, tileIdx, ta.layout.TileCount())
	}
	if len(planes) != ta.components {
		return fmt.Errorf("%w: tile %d carries %d components, header declares %d",
			ErrGeometryMismatch, tileIdx, len(planes), ta.components)
	}

	x0, y0, x1, y1 := ta.layout.TileBounds(tileIdx)
	tw, th := x1-x0, y1-y0
	for c := 0; c < ta.components; c++ {
		if len(planes[c]) != tw*th {
			return fmt.Errorf("%w: tile %d component %d has %d samples, bounds give %d",
				ErrGeometryMismatch, tileIdx, c, len(planes[c]), tw*th)
		}
	}

	for c := 0; c < ta.components; c++ {
		for ty := 0; ty < th; ty++ {
			src := ty * tw
			dst := (y0+ty)*ta.layout.imageWidth + x0
			copy(ta.imageData[c][dst:dst+tw], planes[c][src:src+tw])
		}
	}
	return nil
}

// ImageData returns the assembled per-component planes.
func (ta *TileAssembler) ImageData() [][]int32 {
	return ta.imageData
}

// ImageDimensions returns the assembled width and height.
func (ta *TileAssembler) ImageDimensions() (width, height int) {
	return ta.layout.imageWidth, ta.layout.imageHeight
}

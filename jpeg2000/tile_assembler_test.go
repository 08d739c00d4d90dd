package jpeg2000

import (
	"errors"
	"testing"

	"github.com/openmedimg/go-jpeg2000/jpeg2000/codestream"
)

func assemblerSIZ(w, h, tw, th uint32, comps uint16) *codestream.SIZSegment {
	siz := &codestream.SIZSegment{
		Xsiz: w, Ysiz: h, XTsiz: tw, YTsiz: th, Csiz: comps,
	}
	siz.Components = make([]codestream.ComponentSize, comps)
	for i := range siz.Components {
		siz.Components[i] = codestream.ComponentSize{Ssiz: 7, XRsiz: 1, YRsiz: 1}
	}
	return siz
}

func TestTileLayoutGrid(t *testing.T) {
	tl := NewTileLayout(assemblerSIZ(100, 100, 48, 48, 1))
	if tl.TileCount() != 9 {
		t.Fatalf("TileCount() = %d, want 9", tl.TileCount())
	}

	// Interior tile.
	x0, y0, x1, y1 := tl.TileBounds(4)
	if x0 != 48 || y0 != 48 || x1 != 96 || y1 != 96 {
		t.Errorf("tile 4 bounds = (%d,%d)-(%d,%d), want (48,48)-(96,96)", x0, y0, x1, y1)
	}

	// Bottom-right edge tile is clipped to 4x4.
	x0, y0, x1, y1 = tl.TileBounds(8)
	if x0 != 96 || y0 != 96 || x1 != 100 || y1 != 100 {
		t.Errorf("tile 8 bounds = (%d,%d)-(%d,%d), want (96,96)-(100,100)", x0, y0, x1, y1)
	}
}

func TestAssembleTilePlacesPlanes(t *testing.T) {
	ta := NewTileAssembler(assemblerSIZ(8, 8, 4, 8, 1))

	left := make([]int32, 32)
	right := make([]int32, 32)
	for i := range left {
		left[i] = 1
		right[i] = 2
	}
	if err := ta.AssembleTile(0, [][]int32{left}); err != nil {
		t.Fatalf("AssembleTile(0): %v", err)
	}
	if err := ta.AssembleTile(1, [][]int32{right}); err != nil {
		t.Fatalf("AssembleTile(1): %v", err)
	}

	img := ta.ImageData()[0]
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			want := int32(1)
			if x >= 4 {
				want = 2
			}
			if img[y*8+x] != want {
				t.Fatalf("sample (%d,%d) = %d, want %d", x, y, img[y*8+x], want)
			}
		}
	}
}

func TestAssembleTileGeometryMismatches(t *testing.T) {
	ta := NewTileAssembler(assemblerSIZ(8, 8, 4, 8, 2))

	plane := make([]int32, 32)
	cases := []struct {
		name   string
		idx    int
		planes [][]int32
	}{
		{"index out of range", 5, [][]int32{plane, plane}},
		{"component count", 0, [][]int32{plane}},
		{"plane size", 0, [][]int32{plane, make([]int32, 7)}},
	}
	for _, tc := range cases {
		if err := ta.AssembleTile(tc.idx, tc.planes); !errors.Is(err, ErrGeometryMismatch) {
			t.Errorf("%s: expected ErrGeometryMismatch, got %v", tc.name, err)
		}
	}
}

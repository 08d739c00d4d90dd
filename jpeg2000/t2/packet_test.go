package t2

import (
	"bytes"
	"testing"

	"github.com/openmedimg/go-jpeg2000/jpeg2000/codestream"
)

func TestReadNumPasses(t *testing.T) {
	cases := []struct {
		data []byte
		want int
	}{
		{[]byte{0x00}, 1},               // 0
		{[]byte{0x80}, 2},               // 10
		{[]byte{0xC0}, 3},               // 11 00
		{[]byte{0xD0}, 4},               // 11 01
		{[]byte{0xE0}, 5},               // 11 10
		{[]byte{0xF0, 0x00}, 6},         // 11 11 00000
		{[]byte{0xFF, 0x00}, 36},        // 11 11 11110 (stuffed)
		{[]byte{0xFF, 0x40, 0x00}, 37},  // 11 11 11111 0000000
		{[]byte{0xFF, 0x7F, 0x80}, 164}, // 11 11 11111 1111111
	}
	for _, tc := range cases {
		br := codestream.NewBitReader(tc.data)
		got, err := readNumPasses(br)
		if err != nil {
			t.Errorf("% x: %v", tc.data, err)
			continue
		}
		if got != tc.want {
			t.Errorf("% x: got %d passes, want %d", tc.data, got, tc.want)
		}
	}
}

func TestSegmentIndexForPass(t *testing.T) {
	for i := 0; i < 8; i++ {
		if got := segmentIndexForPass(codestream.CBStyleTermAll, i); got != i {
			t.Errorf("termall pass %d: segment %d", i, got)
		}
	}
	// Bypass segments span 10, 2, 1, 2, 1 passes.
	want := []int{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 2, 3, 3, 4, 5, 5, 6}
	for i, w := range want {
		if got := segmentIndexForPass(codestream.CBStyleBypass, i); got != w {
			t.Errorf("bypass pass %d: segment %d, want %d", i, got, w)
		}
	}
	for i := 0; i < 20; i++ {
		if got := segmentIndexForPass(0, i); got != 0 {
			t.Errorf("default pass %d: segment %d", i, got)
		}
	}
}

func TestPassPieces(t *testing.T) {
	got := passPieces(0, 0, 6)
	if len(got) != 1 || got[0].seg != 0 || got[0].passes != 6 {
		t.Errorf("default: %+v", got)
	}

	got = passPieces(codestream.CBStyleTermAll, 2, 3)
	if len(got) != 3 {
		t.Fatalf("termall: %+v", got)
	}
	for i, p := range got {
		if p.seg != 2+i || p.passes != 1 {
			t.Errorf("termall piece %d: %+v", i, p)
		}
	}

	// Passes 9 through 12 straddle the first two bypass terminations.
	got = passPieces(codestream.CBStyleBypass, 9, 4)
	want := []piece{{seg: 0, passes: 1}, {seg: 1, passes: 2}, {seg: 2, passes: 1}}
	if len(got) != len(want) {
		t.Fatalf("bypass: %+v", got)
	}
	for i := range want {
		if got[i].seg != want[i].seg || got[i].passes != want[i].passes {
			t.Errorf("bypass piece %d: %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestFloorLog2(t *testing.T) {
	cases := map[int]int{1: 0, 2: 1, 3: 1, 4: 2, 7: 2, 8: 3, 36: 5}
	for n, want := range cases {
		if got := floorLog2(n); got != want {
			t.Errorf("floorLog2(%d) = %d, want %d", n, got, want)
		}
	}
}

func singleBlockComponent(t *testing.T) *TileComponent {
	t.Helper()
	siz := testSIZ(8, 8, 8, 8, 1)
	params := codestream.CodingParams{
		NumLevels:  0,
		CodeBlockW: 64,
		CodeBlockH: 64,
		Layers:     1,
	}
	tc, err := BuildTileComponent(siz, 0, 0, params)
	if err != nil {
		t.Fatalf("BuildTileComponent: %v", err)
	}
	return tc
}

func TestDecodePacketEmpty(t *testing.T) {
	tc := singleBlockComponent(t)
	br := codestream.NewBitReader([]byte{0x00})
	if err := decodePacket(br, tc, 0, 0, false, false); err != nil {
		t.Fatalf("decodePacket: %v", err)
	}
	cb := tc.Resolutions[0].Bands[0].Block(0, 0)
	if cb.Included || cb.NumPasses != 0 || len(cb.Data) != 0 {
		t.Errorf("empty packet touched the block: %+v", cb)
	}
}

func TestDecodePacketSingleBlock(t *testing.T) {
	tc := singleBlockComponent(t)

	// Header bits: packet present (1), inclusion tag tree (1),
	// two missing bit planes (001), one pass (0), no length-indicator
	// growth (0), then a 3-bit length of 5 (101). That packs into
	// 0xC9 0x40 followed by the five body bytes.
	body := []byte{0x11, 0x22, 0x33, 0x44, 0x55}
	data := append([]byte{0xC9, 0x40}, body...)
	br := codestream.NewBitReader(data)
	if err := decodePacket(br, tc, 0, 0, false, false); err != nil {
		t.Fatalf("decodePacket: %v", err)
	}

	cb := tc.Resolutions[0].Bands[0].Block(0, 0)
	if !cb.Included {
		t.Fatal("block not included")
	}
	if cb.ZeroBitplanes != 2 {
		t.Errorf("zero bit planes = %d, want 2", cb.ZeroBitplanes)
	}
	if cb.NumPasses != 1 {
		t.Errorf("passes = %d, want 1", cb.NumPasses)
	}
	if !bytes.Equal(cb.Data, body) {
		t.Errorf("data = % x, want % x", cb.Data, body)
	}
	cb.finalize()
	if len(cb.SegEnds) != 1 || cb.SegEnds[0] != 5 {
		t.Errorf("segment ends = %v, want [5]", cb.SegEnds)
	}
	if br.Position() != len(data) {
		t.Errorf("reader at %d, want %d", br.Position(), len(data))
	}
}

func TestDecodePacketWithMarkers(t *testing.T) {
	tc := singleBlockComponent(t)

	var data []byte
	data = append(data, 0xFF, 0x91, 0x00, 0x04, 0x00, 0x00) // SOP
	data = append(data, 0xC9, 0x40)                         // header
	body := []byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE}
	dataWithEPH := append(append(data[:8:8], 0xFF, 0x92), body...)

	br := codestream.NewBitReader(dataWithEPH)
	if err := decodePacket(br, tc, 0, 0, true, true); err != nil {
		t.Fatalf("decodePacket: %v", err)
	}
	cb := tc.Resolutions[0].Bands[0].Block(0, 0)
	if !bytes.Equal(cb.Data, body) {
		t.Errorf("data = % x, want % x", cb.Data, body)
	}
}

func TestDecodePacketTruncatedBody(t *testing.T) {
	tc := singleBlockComponent(t)
	data := []byte{0xC9, 0x40, 0x11, 0x22} // promises 5 body bytes
	br := codestream.NewBitReader(data)
	err := decodePacket(br, tc, 0, 0, false, false)
	if err == nil {
		t.Fatal("expected truncation error")
	}
}

package codestream

// Codestream is the parsed structural description of a JPEG 2000
// codestream: the main header segments plus one merged Tile per tile
// index. The underlying byte slice is borrowed, never copied.
type Codestream struct {
	// Main header
	SIZ *SIZSegment            // Image and tile size
	COD *CODSegment            // Coding style default
	QCD *QCDSegment            // Quantization default
	COC map[uint16]*COCSegment // Per-component coding overrides (optional)
	QCC map[uint16]*QCCSegment // Per-component quantization overrides (optional)
	COM []COMSegment           // Comments (optional)

	// Tiles in first-tile-part order, tile-parts already merged
	Tiles []*Tile
}

// SIZSegment - Image and tile size marker segment
// ISO/IEC 15444-1 A.5.1
type SIZSegment struct {
	Rsiz   uint16 // Capabilities (0 = baseline)
	Xsiz   uint32 // Width of reference grid
	Ysiz   uint32 // Height of reference grid
	XOsiz  uint32 // Horizontal offset
	YOsiz  uint32 // Vertical offset
	XTsiz  uint32 // Width of one reference tile
	YTsiz  uint32 // Height of one reference tile
	XTOsiz uint32 // Horizontal offset of first tile
	YTOsiz uint32 // Vertical offset of first tile
	Csiz   uint16 // Number of components

	// Per-component parameters
	Components []ComponentSize
}

// NumTilesX returns the number of tile columns.
func (s *SIZSegment) NumTilesX() int {
	if s.XTsiz == 0 {
		return 0
	}
	return int((s.Xsiz - s.XTOsiz + s.XTsiz - 1) / s.XTsiz)
}

// NumTilesY returns the number of tile rows.
func (s *SIZSegment) NumTilesY() int {
	if s.YTsiz == 0 {
		return 0
	}
	return int((s.Ysiz - s.YTOsiz + s.YTsiz - 1) / s.YTsiz)
}

// ComponentSize holds per-component sizing information
type ComponentSize struct {
	Ssiz  uint8 // Precision and sign (bit 7 = sign, bits 0-6 = depth-1)
	XRsiz uint8 // Horizontal separation
	YRsiz uint8 // Vertical separation
}

// BitDepth returns the bit depth of the component
func (c *ComponentSize) BitDepth() int {
	return int(c.Ssiz&0x7F) + 1
}

// IsSigned returns true if the component is signed
func (c *ComponentSize) IsSigned() bool {
	return (c.Ssiz & 0x80) != 0
}

// CODSegment - Coding style default marker segment
// ISO/IEC 15444-1 A.6.1
type CODSegment struct {
	Scod uint8 // Coding style for all components
	// Scod bit interpretation:
	//   0: Entropy coder with user-defined precincts
	//   1: SOP marker segments used
	//   2: EPH marker segments used

	// SGcod - General coding style parameters
	ProgressionOrder           uint8  // 0=LRCP, 1=RLCP, 2=RPCL, 3=PCRL, 4=CPRL
	NumberOfLayers             uint16 // Number of quality layers
	MultipleComponentTransform uint8  // 0=none, 1=RCT or ICT

	// SPcod - Coding style parameters
	NumberOfDecompositionLevels uint8 // Number of decomposition levels
	CodeBlockWidth              uint8 // Code-block width exponent minus 2
	CodeBlockHeight             uint8 // Code-block height exponent minus 2
	CodeBlockStyle              uint8 // Code-block style
	Transformation              uint8 // 0=9-7 irreversible, 1=5-3 reversible
}

// Code-block style bits (SPcod byte 4)
const (
	CBStyleBypass      uint8 = 0x01 // Selective arithmetic coding bypass
	CBStyleResetCtx    uint8 = 0x02 // Reset context probabilities between passes
	CBStyleTermAll     uint8 = 0x04 // Termination on each coding pass
	CBStyleVSC         uint8 = 0x08 // Vertically stripe-causal context
	CBStylePredictTerm uint8 = 0x10 // Predictable termination
	CBStyleSegSym      uint8 = 0x20 // Segmentation symbols
)

// CodeBlockSize returns the actual code-block dimensions
func (c *CODSegment) CodeBlockSize() (width, height int) {
	width = 1 << (c.CodeBlockWidth + 2)
	height = 1 << (c.CodeBlockHeight + 2)
	return
}

// UsesSOP reports whether packets are preceded by SOP marker segments.
func (c *CODSegment) UsesSOP() bool {
	return (c.Scod & 0x02) != 0
}

// UsesEPH reports whether packet headers end with an EPH marker.
func (c *CODSegment) UsesEPH() bool {
	return (c.Scod & 0x04) != 0
}

// COCSegment - Coding style component marker segment
// ISO/IEC 15444-1 A.6.2
type COCSegment struct {
	Component                   uint16 // Component index
	Scoc                        uint8  // Coding style for this component
	NumberOfDecompositionLevels uint8
	CodeBlockWidth              uint8
	CodeBlockHeight             uint8
	CodeBlockStyle              uint8
	Transformation              uint8
}

// QCDSegment - Quantization default marker segment
// ISO/IEC 15444-1 A.6.4
type QCDSegment struct {
	Sqcd uint8 // Quantization style
	// Sqcd interpretation:
	//   bits 0-4: Quantization type (0=none, 1=scalar derived, 2=scalar expounded)
	//   bits 5-7: Number of guard bits

	SPqcd []byte // Quantization step size values
}

// Quantization styles (Sqcd/Sqcc bits 0-4)
const (
	QuantNone            = 0 // No quantization, 8-bit exponents
	QuantScalarDerived   = 1 // Scalar derived, one step for all subbands
	QuantScalarExpounded = 2 // Scalar expounded, one step per subband
)

// QuantizationType returns the quantization type
func (q *QCDSegment) QuantizationType() int {
	return int(q.Sqcd & 0x1F)
}

// GuardBits returns the number of guard bits
func (q *QCDSegment) GuardBits() int {
	return int(q.Sqcd >> 5)
}

// QCCSegment - Quantization component marker segment
// ISO/IEC 15444-1 A.6.5
type QCCSegment struct {
	Component uint16 // Component index
	Sqcc      uint8  // Quantization style for this component
	SPqcc     []byte // Quantization step size values
}

// QuantizationType returns the quantization type
func (q *QCCSegment) QuantizationType() int {
	return int(q.Sqcc & 0x1F)
}

// GuardBits returns the number of guard bits
func (q *QCCSegment) GuardBits() int {
	return int(q.Sqcc >> 5)
}

// AsQCD returns the override as an equivalent QCDSegment.
func (q *QCCSegment) AsQCD() *QCDSegment {
	return &QCDSegment{Sqcd: q.Sqcc, SPqcd: q.SPqcc}
}

// COMSegment - Comment marker segment
type COMSegment struct {
	Rcom uint16 // Registration value (0=binary, 1=ISO/IEC 8859-15)
	Data []byte // Comment data
}

// Tile represents one tile of the codestream with all of its tile-parts
// merged. Data is the concatenated packet stream that followed the SOD
// markers, ready for Tier-2 decoding.
type Tile struct {
	Index int         // Tile index (Isot)
	SOT   *SOTSegment // First tile-part SOT
	COD   *CODSegment // Coding style override (optional)
	QCD   *QCDSegment // Quantization override (optional)
	COC   map[uint16]*COCSegment
	QCC   map[uint16]*QCCSegment
	Data  []byte // Concatenated tile-part data
}

// SOTSegment - Start of tile-part marker segment
// ISO/IEC 15444-1 A.4.2
type SOTSegment struct {
	Isot  uint16 // Tile index
	Psot  uint32 // Tile-part length (0 = to EOC or next SOT)
	TPsot uint8  // Tile-part index
	TNsot uint8  // Number of tile-parts (0 = not signaled here)
}

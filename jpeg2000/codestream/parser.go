package codestream

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Parser parses JPEG 2000 codestreams
type Parser struct {
	data   []byte
	offset int
}

// NewParser creates a new codestream parser
func NewParser(data []byte) *Parser {
	return &Parser{
		data:   data,
		offset: 0,
	}
}

// Parse parses the entire codestream: SOC, the main header, every
// SOT..SOD tile-part span, and the trailing EOC. Tile-parts of one tile
// are merged in TPsot order.
func (p *Parser) Parse() (*Codestream, error) {
	cs := &Codestream{}

	marker, err := p.readMarker()
	if err != nil {
		return nil, fmt.Errorf("failed to read SOC: %w", err)
	}
	if marker != MarkerSOC {
		return nil, fmt.Errorf("%w: expected SOC (0x%04X), got 0x%04X", ErrInvalidMarker, MarkerSOC, marker)
	}

	if err := p.parseMainHeader(cs); err != nil {
		return nil, fmt.Errorf("failed to parse main header: %w", err)
	}

	// Parse tiles (including multi-tile-part concatenation)
	tileByIndex := make(map[int]*Tile)
	tileStates := make(map[int]*tilePartState)
	for {
		marker, err := p.peekMarker()
		if err == io.EOF {
			// Stream ended exactly at a tile-part boundary without EOC.
			break
		}
		if err != nil {
			return nil, err
		}

		if marker == MarkerEOC {
			_, _ = p.readMarker() // consume EOC
			break
		}

		if marker != MarkerSOT {
			return nil, fmt.Errorf("%w: unexpected marker in tile sequence: 0x%04X (%s)",
				ErrInvalidMarker, marker, MarkerName(marker))
		}

		part, err := p.parseTilePart(cs)
		if err != nil {
			return nil, fmt.Errorf("failed to parse tile-part: %w", err)
		}
		if err := mergeTilePart(cs, tileByIndex, tileStates, part); err != nil {
			return nil, fmt.Errorf("failed to merge tile-part: %w", err)
		}
	}

	if len(cs.Tiles) == 0 {
		return nil, fmt.Errorf("%w: codestream contains no tile-parts", ErrInvalidMarker)
	}
	for idx, state := range tileStates {
		if state.total != 0 && state.nextTP < state.total {
			return nil, fmt.Errorf("%w: tile %d has %d of %d tile-parts",
				ErrTruncatedStream, idx, state.nextTP, state.total)
		}
	}

	return cs, nil
}

// parseMainHeader parses the main header segments
func (p *Parser) parseMainHeader(cs *Codestream) error {
	seenSIZ := false
	seenCOD := false
	seenQCD := false

	for {
		marker, err := p.peekMarker()
		if err == io.EOF {
			return fmt.Errorf("%w: codestream ends inside main header", ErrTruncatedStream)
		}
		if err != nil {
			return err
		}

		// Main header ends when we hit SOT or EOC
		if marker == MarkerSOT || marker == MarkerEOC {
			break
		}

		marker, err = p.readMarker()
		if err != nil {
			return err
		}

		switch marker {
		case MarkerSIZ:
			if seenSIZ {
				return fmt.Errorf("%w: duplicate SIZ segment", ErrInvalidMarker)
			}
			siz, err := p.parseSIZ()
			if err != nil {
				return fmt.Errorf("failed to parse SIZ: %w", err)
			}
			cs.SIZ = siz
			seenSIZ = true

		case MarkerCOD:
			if !seenSIZ {
				return fmt.Errorf("%w: COD encountered before SIZ", ErrInvalidMarker)
			}
			if seenCOD {
				return fmt.Errorf("%w: duplicate COD segment", ErrInvalidMarker)
			}
			cod, err := p.parseCOD()
			if err != nil {
				return fmt.Errorf("failed to parse COD: %w", err)
			}
			cs.COD = cod
			seenCOD = true

		case MarkerCOC:
			if !seenCOD {
				return fmt.Errorf("%w: COC encountered before COD", ErrInvalidMarker)
			}
			coc, err := p.parseCOC(cs.SIZ)
			if err != nil {
				return fmt.Errorf("failed to parse COC: %w", err)
			}
			if cs.COC == nil {
				cs.COC = make(map[uint16]*COCSegment)
			}
			if _, ok := cs.COC[coc.Component]; ok {
				return fmt.Errorf("%w: duplicate COC for component %d", ErrInvalidMarker, coc.Component)
			}
			cs.COC[coc.Component] = coc

		case MarkerQCD:
			if !seenSIZ {
				return fmt.Errorf("%w: QCD encountered before SIZ", ErrInvalidMarker)
			}
			if seenQCD {
				return fmt.Errorf("%w: duplicate QCD segment", ErrInvalidMarker)
			}
			qcd, err := p.parseQCD()
			if err != nil {
				return fmt.Errorf("failed to parse QCD: %w", err)
			}
			cs.QCD = qcd
			seenQCD = true

		case MarkerQCC:
			if !seenQCD {
				return fmt.Errorf("%w: QCC encountered before QCD", ErrInvalidMarker)
			}
			qcc, err := p.parseQCC(cs.SIZ)
			if err != nil {
				return fmt.Errorf("failed to parse QCC: %w", err)
			}
			if cs.QCC == nil {
				cs.QCC = make(map[uint16]*QCCSegment)
			}
			if _, ok := cs.QCC[qcc.Component]; ok {
				return fmt.Errorf("%w: duplicate QCC for component %d", ErrInvalidMarker, qcc.Component)
			}
			cs.QCC[qcc.Component] = qcc

		case MarkerCOM:
			if !seenSIZ {
				return fmt.Errorf("%w: COM encountered before SIZ", ErrInvalidMarker)
			}
			com, err := p.parseCOM()
			if err != nil {
				return fmt.Errorf("failed to parse COM: %w", err)
			}
			cs.COM = append(cs.COM, *com)

		case MarkerRGN, MarkerPOC, MarkerPPM:
			return fmt.Errorf("%w: %s segment", ErrUnsupportedFeature, MarkerName(marker))

		case MarkerTLM, MarkerPLM, MarkerCRG:
			// Pointer and registration segments carry no decoding state.
			if err := p.skipSegment(); err != nil {
				return fmt.Errorf("failed to skip %s: %w", MarkerName(marker), err)
			}

		default:
			if !seenSIZ {
				return fmt.Errorf("%w: unexpected marker before SIZ: 0x%04X (%s)",
					ErrInvalidMarker, marker, MarkerName(marker))
			}
			if !HasLength(marker) {
				return fmt.Errorf("%w: unexpected marker in main header: 0x%04X (%s)",
					ErrInvalidMarker, marker, MarkerName(marker))
			}
			if err := p.skipSegment(); err != nil {
				return fmt.Errorf("failed to skip segment 0x%04X: %w", marker, err)
			}
		}
	}

	// Verify required segments
	if cs.SIZ == nil {
		return fmt.Errorf("%w: missing required SIZ segment", ErrInvalidMarker)
	}
	if cs.COD == nil {
		return fmt.Errorf("%w: missing required COD segment", ErrInvalidMarker)
	}
	if cs.QCD == nil {
		return fmt.Errorf("%w: missing required QCD segment", ErrInvalidMarker)
	}

	return nil
}

// parseTilePart parses one SOT..SOD span plus its tile data.
func (p *Parser) parseTilePart(cs *Codestream) (*Tile, error) {
	tileStart := p.offset
	marker, err := p.readMarker()
	if err != nil {
		return nil, err
	}
	if marker != MarkerSOT {
		return nil, fmt.Errorf("%w: expected SOT, got 0x%04X", ErrInvalidMarker, marker)
	}

	sot, err := p.parseSOT()
	if err != nil {
		return nil, err
	}
	numTiles := cs.SIZ.NumTilesX() * cs.SIZ.NumTilesY()
	if int(sot.Isot) >= numTiles {
		return nil, fmt.Errorf("%w: tile index %d outside %d-tile grid",
			ErrInvalidMarker, sot.Isot, numTiles)
	}

	tile := &Tile{
		Index: int(sot.Isot),
		SOT:   sot,
	}

	// Parse tile-part header
	for {
		marker, err := p.peekMarker()
		if err == io.EOF {
			return nil, fmt.Errorf("%w: codestream ends inside tile-part header", ErrTruncatedStream)
		}
		if err != nil {
			return nil, err
		}

		if marker == MarkerSOD {
			_, _ = p.readMarker() // consume SOD
			break
		}

		marker, err = p.readMarker()
		if err != nil {
			return nil, err
		}

		switch marker {
		case MarkerCOD:
			cod, err := p.parseCOD()
			if err != nil {
				return nil, err
			}
			tile.COD = cod

		case MarkerCOC:
			coc, err := p.parseCOC(cs.SIZ)
			if err != nil {
				return nil, err
			}
			if tile.COC == nil {
				tile.COC = make(map[uint16]*COCSegment)
			}
			tile.COC[coc.Component] = coc

		case MarkerQCD:
			qcd, err := p.parseQCD()
			if err != nil {
				return nil, err
			}
			tile.QCD = qcd

		case MarkerQCC:
			qcc, err := p.parseQCC(cs.SIZ)
			if err != nil {
				return nil, err
			}
			if tile.QCC == nil {
				tile.QCC = make(map[uint16]*QCCSegment)
			}
			tile.QCC[qcc.Component] = qcc

		case MarkerRGN, MarkerPOC, MarkerPPT:
			return nil, fmt.Errorf("%w: %s segment in tile-part header", ErrUnsupportedFeature, MarkerName(marker))

		case MarkerPLT, MarkerCOM:
			if err := p.skipSegment(); err != nil {
				return nil, err
			}

		default:
			if !HasLength(marker) {
				return nil, fmt.Errorf("%w: unexpected marker in tile-part header: 0x%04X (%s)",
					ErrInvalidMarker, marker, MarkerName(marker))
			}
			if err := p.skipSegment(); err != nil {
				return nil, err
			}
		}
	}

	// Read tile data using Psot length when available.
	tile.Data = p.readTileDataWithLength(tileStart, sot.Psot)

	return tile, nil
}

type tilePartState struct {
	nextTP uint8
	total  uint8
}

func mergeTilePart(cs *Codestream, tiles map[int]*Tile, states map[int]*tilePartState, part *Tile) error {
	if part == nil || part.SOT == nil {
		return fmt.Errorf("%w: missing SOT for tile-part", ErrInvalidMarker)
	}
	idx := part.Index
	state, ok := states[idx]
	if !ok {
		if part.SOT.TPsot != 0 {
			return fmt.Errorf("%w: tile %d: first tile-part index is %d",
				ErrInvalidMarker, idx, part.SOT.TPsot)
		}
		state = &tilePartState{
			nextTP: 1,
			total:  part.SOT.TNsot,
		}
		states[idx] = state
	} else {
		if part.SOT.TPsot != state.nextTP {
			return fmt.Errorf("%w: tile %d: unexpected tile-part index %d (expected %d)",
				ErrInvalidMarker, idx, part.SOT.TPsot, state.nextTP)
		}
		if state.total != 0 && part.SOT.TNsot != 0 && part.SOT.TNsot != state.total {
			return fmt.Errorf("%w: tile %d: mismatched TNsot %d (expected %d)",
				ErrInvalidMarker, idx, part.SOT.TNsot, state.total)
		}
		if state.total == 0 && part.SOT.TNsot != 0 {
			state.total = part.SOT.TNsot
		}
		state.nextTP++
	}
	if state.total != 0 && state.nextTP > state.total {
		return fmt.Errorf("%w: tile %d: tile-part count exceeded (TNsot=%d)",
			ErrInvalidMarker, idx, state.total)
	}

	existing := tiles[idx]
	if existing == nil {
		tiles[idx] = part
		cs.Tiles = append(cs.Tiles, part)
		return nil
	}
	if existing.SOT.TNsot == 0 && state.total != 0 {
		existing.SOT.TNsot = state.total
	}

	// Later tile-parts may only add headers the first part did not carry.
	if part.COD != nil && existing.COD == nil {
		existing.COD = part.COD
	}
	if part.QCD != nil && existing.QCD == nil {
		existing.QCD = part.QCD
	}
	for comp, coc := range part.COC {
		if existing.COC == nil {
			existing.COC = make(map[uint16]*COCSegment)
		}
		if _, ok := existing.COC[comp]; !ok {
			existing.COC[comp] = coc
		}
	}
	for comp, qcc := range part.QCC {
		if existing.QCC == nil {
			existing.QCC = make(map[uint16]*QCCSegment)
		}
		if _, ok := existing.QCC[comp]; !ok {
			existing.QCC[comp] = qcc
		}
	}

	if len(part.Data) > 0 {
		existing.Data = append(existing.Data, part.Data...)
	}

	return nil
}

// parseSIZ parses the SIZ marker segment
func (p *Parser) parseSIZ() (*SIZSegment, error) {
	length, err := p.readUint16()
	if err != nil {
		return nil, err
	}

	siz := &SIZSegment{}

	if siz.Rsiz, err = p.readUint16(); err != nil {
		return nil, err
	}
	if siz.Xsiz, err = p.readUint32(); err != nil {
		return nil, err
	}
	if siz.Ysiz, err = p.readUint32(); err != nil {
		return nil, err
	}
	if siz.XOsiz, err = p.readUint32(); err != nil {
		return nil, err
	}
	if siz.YOsiz, err = p.readUint32(); err != nil {
		return nil, err
	}
	if siz.XTsiz, err = p.readUint32(); err != nil {
		return nil, err
	}
	if siz.YTsiz, err = p.readUint32(); err != nil {
		return nil, err
	}
	if siz.XTOsiz, err = p.readUint32(); err != nil {
		return nil, err
	}
	if siz.YTOsiz, err = p.readUint32(); err != nil {
		return nil, err
	}
	if siz.Csiz, err = p.readUint16(); err != nil {
		return nil, err
	}

	// Read component sizing information
	siz.Components = make([]ComponentSize, siz.Csiz)
	for i := range siz.Components {
		if siz.Components[i].Ssiz, err = p.readUint8(); err != nil {
			return nil, err
		}
		if siz.Components[i].XRsiz, err = p.readUint8(); err != nil {
			return nil, err
		}
		if siz.Components[i].YRsiz, err = p.readUint8(); err != nil {
			return nil, err
		}
	}

	// Verify length
	expectedLength := 38 + 3*int(siz.Csiz)
	if int(length) != expectedLength {
		return nil, fmt.Errorf("%w: SIZ segment length mismatch: expected %d, got %d",
			ErrInvalidMarker, expectedLength, length)
	}

	return siz, p.validateSIZ(siz)
}

func (p *Parser) validateSIZ(siz *SIZSegment) error {
	// Rsiz bit 14 flags the high-throughput block coder of Part 15.
	if siz.Rsiz&0x4000 != 0 {
		return fmt.Errorf("%w: high-throughput codestream (Rsiz=0x%04X)", ErrUnsupportedFeature, siz.Rsiz)
	}
	if siz.Xsiz == 0 || siz.Ysiz == 0 {
		return fmt.Errorf("%w: zero image dimension %dx%d", ErrInvalidMarker, siz.Xsiz, siz.Ysiz)
	}
	if siz.Csiz == 0 {
		return fmt.Errorf("%w: zero component count", ErrInvalidMarker)
	}
	if siz.XTsiz == 0 || siz.YTsiz == 0 {
		return fmt.Errorf("%w: zero tile dimension %dx%d", ErrInvalidMarker, siz.XTsiz, siz.YTsiz)
	}
	if siz.XOsiz != 0 || siz.YOsiz != 0 || siz.XTOsiz != 0 || siz.YTOsiz != 0 {
		return fmt.Errorf("%w: non-zero reference grid offsets", ErrUnsupportedFeature)
	}
	for i, comp := range siz.Components {
		depth := comp.BitDepth()
		if depth < 1 || depth > 32 {
			return fmt.Errorf("%w: component %d bit depth %d", ErrInvalidMarker, i, depth)
		}
		if comp.XRsiz == 0 || comp.YRsiz == 0 {
			return fmt.Errorf("%w: component %d zero subsampling", ErrInvalidMarker, i)
		}
		if comp.XRsiz != 1 || comp.YRsiz != 1 {
			return fmt.Errorf("%w: component %d subsampling %dx%d",
				ErrUnsupportedFeature, i, comp.XRsiz, comp.YRsiz)
		}
	}
	return nil
}

// parseCOD parses the COD marker segment
func (p *Parser) parseCOD() (*CODSegment, error) {
	length, err := p.readUint16()
	if err != nil {
		return nil, err
	}

	cod := &CODSegment{}
	start := p.offset

	if cod.Scod, err = p.readUint8(); err != nil {
		return nil, err
	}
	if cod.ProgressionOrder, err = p.readUint8(); err != nil {
		return nil, err
	}
	if cod.NumberOfLayers, err = p.readUint16(); err != nil {
		return nil, err
	}
	if cod.MultipleComponentTransform, err = p.readUint8(); err != nil {
		return nil, err
	}
	style, err := p.parseCodingStyleParams(cod.Scod)
	if err != nil {
		return nil, err
	}
	cod.NumberOfDecompositionLevels = style.numLevels
	cod.CodeBlockWidth = style.cbw
	cod.CodeBlockHeight = style.cbh
	cod.CodeBlockStyle = style.cbStyle
	cod.Transformation = style.transform

	if cod.ProgressionOrder > 4 {
		return nil, fmt.Errorf("%w: progression order %d", ErrUnsupportedFeature, cod.ProgressionOrder)
	}
	if cod.NumberOfLayers == 0 {
		return nil, fmt.Errorf("%w: COD signals zero layers", ErrInvalidMarker)
	}
	if cod.MultipleComponentTransform > 1 {
		return nil, fmt.Errorf("%w: multiple component transform %d",
			ErrUnsupportedFeature, cod.MultipleComponentTransform)
	}

	consumed := p.offset - start
	expected := int(length) - 2
	if consumed != expected {
		return nil, fmt.Errorf("%w: COD segment length mismatch: expected %d, got %d",
			ErrInvalidMarker, expected, consumed)
	}

	return cod, nil
}

// parseCOC parses the COC marker segment (component coding style).
func (p *Parser) parseCOC(siz *SIZSegment) (*COCSegment, error) {
	length, err := p.readUint16()
	if err != nil {
		return nil, err
	}
	start := p.offset
	comp, err := p.readComponentIndex(siz)
	if err != nil {
		return nil, err
	}
	if int(comp) >= int(siz.Csiz) {
		return nil, fmt.Errorf("%w: COC component %d out of range", ErrInvalidMarker, comp)
	}
	scoc, err := p.readUint8()
	if err != nil {
		return nil, err
	}
	style, err := p.parseCodingStyleParams(scoc)
	if err != nil {
		return nil, err
	}
	coc := &COCSegment{
		Component:                   comp,
		Scoc:                        scoc,
		NumberOfDecompositionLevels: style.numLevels,
		CodeBlockWidth:              style.cbw,
		CodeBlockHeight:             style.cbh,
		CodeBlockStyle:              style.cbStyle,
		Transformation:              style.transform,
	}
	consumed := p.offset - start
	expected := int(length) - 2
	if consumed != expected {
		return nil, fmt.Errorf("%w: COC segment length mismatch: expected %d, got %d",
			ErrInvalidMarker, expected, consumed)
	}
	return coc, nil
}

type codingStyleParams struct {
	numLevels uint8
	cbw       uint8
	cbh       uint8
	cbStyle   uint8
	transform uint8
}

func (p *Parser) parseCodingStyleParams(scod uint8) (codingStyleParams, error) {
	var style codingStyleParams
	var err error
	if style.numLevels, err = p.readUint8(); err != nil {
		return style, err
	}
	if style.cbw, err = p.readUint8(); err != nil {
		return style, err
	}
	if style.cbh, err = p.readUint8(); err != nil {
		return style, err
	}
	if style.cbStyle, err = p.readUint8(); err != nil {
		return style, err
	}
	if style.transform, err = p.readUint8(); err != nil {
		return style, err
	}

	if (scod & 0x01) != 0 {
		return style, fmt.Errorf("%w: user-defined precinct sizes", ErrUnsupportedFeature)
	}
	if style.numLevels > 32 {
		return style, fmt.Errorf("%w: %d decomposition levels", ErrInvalidMarker, style.numLevels)
	}
	// Code-block exponents: 2^(n+2), product capped at 4096 samples.
	if style.cbw > 8 || style.cbh > 8 || int(style.cbw)+int(style.cbh) > 8 {
		return style, fmt.Errorf("%w: code-block size exponents %d/%d",
			ErrInvalidMarker, style.cbw, style.cbh)
	}
	if style.transform > 1 {
		return style, fmt.Errorf("%w: wavelet transformation %d", ErrInvalidMarker, style.transform)
	}
	return style, nil
}

// parseQCD parses the QCD marker segment
func (p *Parser) parseQCD() (*QCDSegment, error) {
	length, err := p.readUint16()
	if err != nil {
		return nil, err
	}

	qcd := &QCDSegment{}

	if qcd.Sqcd, err = p.readUint8(); err != nil {
		return nil, err
	}

	dataLength := int(length) - 3 // length includes itself (2) and Sqcd (1)
	if dataLength < 0 {
		return nil, fmt.Errorf("%w: invalid QCD length %d", ErrInvalidMarker, length)
	}
	qcd.SPqcd = make([]byte, dataLength)
	if err := p.read(qcd.SPqcd); err != nil {
		return nil, err
	}

	if t := qcd.QuantizationType(); t > QuantScalarExpounded {
		return nil, fmt.Errorf("%w: quantization style %d", ErrUnsupportedFeature, t)
	}

	return qcd, nil
}

// parseQCC parses the QCC marker segment (component quantization).
func (p *Parser) parseQCC(siz *SIZSegment) (*QCCSegment, error) {
	length, err := p.readUint16()
	if err != nil {
		return nil, err
	}
	comp, err := p.readComponentIndex(siz)
	if err != nil {
		return nil, err
	}
	if int(comp) >= int(siz.Csiz) {
		return nil, fmt.Errorf("%w: QCC component %d out of range", ErrInvalidMarker, comp)
	}
	sqcc, err := p.readUint8()
	if err != nil {
		return nil, err
	}
	dataLen := int(length) - 3 - componentIndexSize(siz)
	if dataLen < 0 {
		return nil, fmt.Errorf("%w: invalid QCC length %d", ErrInvalidMarker, length)
	}
	spqcc := make([]byte, dataLen)
	if err := p.read(spqcc); err != nil {
		return nil, err
	}
	qcc := &QCCSegment{Component: comp, Sqcc: sqcc, SPqcc: spqcc}
	if t := qcc.QuantizationType(); t > QuantScalarExpounded {
		return nil, fmt.Errorf("%w: quantization style %d", ErrUnsupportedFeature, t)
	}
	return qcc, nil
}

// parseCOM parses the COM marker segment
func (p *Parser) parseCOM() (*COMSegment, error) {
	length, err := p.readUint16()
	if err != nil {
		return nil, err
	}

	com := &COMSegment{}

	if com.Rcom, err = p.readUint16(); err != nil {
		return nil, err
	}

	dataLength := int(length) - 4 // length includes itself (2) and Rcom (2)
	if dataLength < 0 {
		return nil, fmt.Errorf("%w: invalid COM length %d", ErrInvalidMarker, length)
	}
	com.Data = make([]byte, dataLength)
	if err := p.read(com.Data); err != nil {
		return nil, err
	}

	return com, nil
}

// parseSOT parses the SOT marker segment
func (p *Parser) parseSOT() (*SOTSegment, error) {
	length, err := p.readUint16()
	if err != nil {
		return nil, err
	}

	if length != 10 {
		return nil, fmt.Errorf("%w: invalid SOT segment length %d", ErrInvalidMarker, length)
	}

	sot := &SOTSegment{}

	if sot.Isot, err = p.readUint16(); err != nil {
		return nil, err
	}
	if sot.Psot, err = p.readUint32(); err != nil {
		return nil, err
	}
	if sot.TPsot, err = p.readUint8(); err != nil {
		return nil, err
	}
	if sot.TNsot, err = p.readUint8(); err != nil {
		return nil, err
	}

	return sot, nil
}

// Helper methods for reading data

func (p *Parser) readMarker() (uint16, error) {
	return p.readUint16()
}

func (p *Parser) peekMarker() (uint16, error) {
	if p.offset+2 > len(p.data) {
		return 0, io.EOF
	}
	return binary.BigEndian.Uint16(p.data[p.offset : p.offset+2]), nil
}

func (p *Parser) readUint8() (uint8, error) {
	if p.offset+1 > len(p.data) {
		return 0, fmt.Errorf("%w: need 1 byte at offset %d", ErrTruncatedStream, p.offset)
	}
	val := p.data[p.offset]
	p.offset++
	return val, nil
}

func (p *Parser) readUint16() (uint16, error) {
	if p.offset+2 > len(p.data) {
		return 0, fmt.Errorf("%w: need 2 bytes at offset %d", ErrTruncatedStream, p.offset)
	}
	val := binary.BigEndian.Uint16(p.data[p.offset : p.offset+2])
	p.offset += 2
	return val, nil
}

func (p *Parser) readUint32() (uint32, error) {
	if p.offset+4 > len(p.data) {
		return 0, fmt.Errorf("%w: need 4 bytes at offset %d", ErrTruncatedStream, p.offset)
	}
	val := binary.BigEndian.Uint32(p.data[p.offset : p.offset+4])
	p.offset += 4
	return val, nil
}

func (p *Parser) read(buf []byte) error {
	if p.offset+len(buf) > len(p.data) {
		return fmt.Errorf("%w: need %d bytes at offset %d", ErrTruncatedStream, len(buf), p.offset)
	}
	copy(buf, p.data[p.offset:p.offset+len(buf)])
	p.offset += len(buf)
	return nil
}

func (p *Parser) skipSegment() error {
	length, err := p.readUint16()
	if err != nil {
		return err
	}
	skip := int(length) - 2
	if skip < 0 || p.offset+skip > len(p.data) {
		return fmt.Errorf("%w: segment length %d exceeds remaining data", ErrTruncatedStream, length)
	}
	p.offset += skip
	return nil
}

// readTileData scans forward to the next marker when Psot is absent.
func (p *Parser) readTileData() []byte {
	start := p.offset

	for p.offset < len(p.data) {
		if p.data[p.offset] == 0xFF && p.offset+1 < len(p.data) {
			next := p.data[p.offset+1]
			if next == 0x90 || next == 0xD9 {
				// SOT or EOC terminates the tile-part data.
				break
			}
		}
		p.offset++
	}

	return p.data[start:p.offset]
}

func (p *Parser) readTileDataWithLength(tileStart int, psot uint32) []byte {
	if psot == 0 {
		return p.readTileData()
	}
	consumed := p.offset - tileStart
	if int(psot) < consumed {
		return p.readTileData()
	}
	remaining := int(psot) - consumed
	if p.offset+remaining > len(p.data) {
		// Psot points past the buffer; take what is there.
		return p.readTileData()
	}
	start := p.offset
	p.offset += remaining
	return p.data[start:p.offset]
}

func componentIndexSize(siz *SIZSegment) int {
	if siz != nil && siz.Csiz > 256 {
		return 2
	}
	return 1
}

func (p *Parser) readComponentIndex(siz *SIZSegment) (uint16, error) {
	if componentIndexSize(siz) == 2 {
		return p.readUint16()
	}
	val, err := p.readUint8()
	return uint16(val), err
}

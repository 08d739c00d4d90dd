package codestream

// CodingParams is the merged coding-style view for one tile-component:
// tile-part COC beats tile-part COD beats main COC beats main COD for
// the per-component fields, while the packet-level fields (progression,
// layers, MCT, SOP/EPH) always come from the governing COD.
type CodingParams struct {
	NumLevels   int
	CodeBlockW  int
	CodeBlockH  int
	Style       uint8
	Transform   uint8
	Progression uint8
	Layers      int
	MCT         bool
	UseSOP      bool
	UseEPH      bool
}

// CodingFor resolves the effective coding parameters for a component
// of a tile. tile may be nil to resolve against the main header only.
func (cs *Codestream) CodingFor(tile *Tile, comp uint16) CodingParams {
	cod := cs.COD
	if tile != nil && tile.COD != nil {
		cod = tile.COD
	}

	p := CodingParams{
		NumLevels:   int(cod.NumberOfDecompositionLevels),
		Style:       cod.CodeBlockStyle,
		Transform:   cod.Transformation,
		Progression: cod.ProgressionOrder,
		Layers:      int(cod.NumberOfLayers),
		MCT:         cod.MultipleComponentTransform != 0,
		UseSOP:      cod.UsesSOP(),
		UseEPH:      cod.UsesEPH(),
	}
	p.CodeBlockW, p.CodeBlockH = cod.CodeBlockSize()

	coc := cs.COC[comp]
	if tile != nil {
		if tc, ok := tile.COC[comp]; ok {
			coc = tc
		}
	}
	if coc != nil {
		p.NumLevels = int(coc.NumberOfDecompositionLevels)
		p.CodeBlockW = 1 << (coc.CodeBlockWidth + 2)
		p.CodeBlockH = 1 << (coc.CodeBlockHeight + 2)
		p.Style = coc.CodeBlockStyle
		p.Transform = coc.Transformation
	}
	return p
}

// QuantFor resolves the effective quantization segment for a component
// of a tile: tile QCC beats tile QCD beats main QCC beats main QCD.
func (cs *Codestream) QuantFor(tile *Tile, comp uint16) *QCDSegment {
	if tile != nil {
		if q, ok := tile.QCC[comp]; ok {
			return q.AsQCD()
		}
		if tile.QCD != nil {
			return tile.QCD
		}
	}
	if q, ok := cs.QCC[comp]; ok {
		return q.AsQCD()
	}
	return cs.QCD
}

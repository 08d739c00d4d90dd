package jpeg2000

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"

	"github.com/openmedimg/go-jpeg2000/jpeg2000/codestream"
	"github.com/openmedimg/go-jpeg2000/jpeg2000/t1"
)

// DecodeOptions configures a Decoder.
type DecodeOptions struct {
	// Lenient keeps decoding damaged code-blocks: the decoded prefix is
	// kept, the remaining passes are abandoned and counted in the
	// decode report instead of failing the call.
	Lenient bool

	// Parallel caps the number of tiles decoded concurrently. Zero or
	// one decodes sequentially.
	Parallel int
}

// DecodeReport summarizes what a lenient decode had to recover from.
// All counters are zero after a clean decode.
type DecodeReport struct {
	CorruptBlocks   int
	PassesDecoded   int
	PassesAbandoned int
}

func (r *DecodeReport) add(rep t1.LenientReport) {
	if rep.PassesAbandoned > 0 {
		r.CorruptBlocks++
	}
	r.PassesDecoded += rep.PassesDecoded
	r.PassesAbandoned += rep.PassesAbandoned
}

func (r *DecodeReport) merge(o DecodeReport) {
	r.CorruptBlocks += o.CorruptBlocks
	r.PassesDecoded += o.PassesDecoded
	r.PassesAbandoned += o.PassesAbandoned
}

// Decoder decodes JPEG 2000 codestreams, raw or wrapped in a JP2
// container. A Decoder carries per-call pipeline state and must not be
// shared between concurrent Decode calls.
type Decoder struct {
	opts   DecodeOptions
	log    logrus.FieldLogger
	report DecodeReport
}

// NewDecoder creates a decoder with default options.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// NewDecoderWithOptions creates a decoder with the given options.
func NewDecoderWithOptions(opts DecodeOptions) *Decoder {
	return &Decoder{opts: opts}
}

// SetLogger enables decode tracing. The decoder is silent without one.
func (d *Decoder) SetLogger(log logrus.FieldLogger) {
	d.log = log
}

// Report returns the recovery counters of the last Decode call.
func (d *Decoder) Report() DecodeReport {
	return d.report
}

// Decode decodes buf into a pixel buffer. expectedByteCount guards
// against callers handing over a partially read buffer: when it is
// non-negative, len(buf) must match it exactly. A failed decode never
// returns a partially filled buffer.
func (d *Decoder) Decode(buf []byte, expectedByteCount int) (*PixelBuffer, error) {
	d.report = DecodeReport{}

	if expectedByteCount >= 0 && len(buf) != expectedByteCount {
		return nil, fmt.Errorf("%w: buffer holds %d bytes, caller declared %d",
			ErrTruncatedStream, len(buf), expectedByteCount)
	}

	data := buf
	switch {
	case isJP2(buf):
		var err error
		if data, err = unwrapJP2(buf); err != nil {
			return nil, err
		}
	case bytes.HasPrefix(buf, socMarker):
		// Raw codestream.
	default:
		return nil, fmt.Errorf("%w: neither SOC marker nor JP2 signature", ErrInvalidMarker)
	}

	parser := codestream.NewParser(data)
	cs, err := parser.Parse()
	if err != nil {
		return nil, fmt.Errorf("parse codestream: %w", err)
	}

	siz := cs.SIZ
	for c, comp := range siz.Components {
		if comp.XRsiz != 1 || comp.YRsiz != 1 {
			return nil, fmt.Errorf("%w: component %d subsampled %dx%d",
				ErrUnsupportedFeature, c, comp.XRsiz, comp.YRsiz)
		}
	}
	if d.log != nil {
		d.log.WithFields(logrus.Fields{
			"width":      siz.Xsiz - siz.XOsiz,
			"height":     siz.Ysiz - siz.YOsiz,
			"components": siz.Csiz,
			"tiles":      len(cs.Tiles),
		}).Debug("codestream parsed")
	}

	// Tile-parts were merged in arrival order; assemble in index order.
	tiles := slices.Clone(cs.Tiles)
	slices.SortFunc(tiles, func(a, b *codestream.Tile) int {
		return int(a.SOT.Isot) - int(b.SOT.Isot)
	})

	planes, err := d.decodeTiles(cs, tiles)
	if err != nil {
		return nil, err
	}

	width := int(siz.Xsiz - siz.XOsiz)
	height := int(siz.Ysiz - siz.YOsiz)
	depth := siz.Components[0].BitDepth()
	signed := siz.Components[0].IsSigned()
	return newPixelBuffer(planes, width, height, depth, signed), nil
}

// decodeTiles reconstructs every tile and assembles the image planes,
// fanning tiles out over workers when requested.
func (d *Decoder) decodeTiles(cs *codestream.Codestream, tiles []*codestream.Tile) ([][]int32, error) {
	assembler := NewTileAssembler(cs.SIZ)

	type result struct {
		idx    int
		planes [][]int32
		report DecodeReport
		err    error
	}

	workers := d.opts.Parallel
	if workers <= 1 || len(tiles) == 1 {
		for _, tile := range tiles {
			td := &tileDecoder{cs: cs, tile: tile, lenient: d.opts.Lenient}
			planes, err := td.decode()
			if err != nil {
				return nil, err
			}
			d.report.merge(td.report)
			if err := assembler.AssembleTile(int(tile.SOT.Isot), planes); err != nil {
				return nil, err
			}
			if d.log != nil {
				d.log.WithField("tile", tile.SOT.Isot).Debug("tile decoded")
			}
		}
		return assembler.ImageData(), nil
	}

	if workers > len(tiles) {
		workers = len(tiles)
	}
	jobs := make(chan *codestream.Tile)
	results := make(chan result, len(tiles))
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for tile := range jobs {
				td := &tileDecoder{cs: cs, tile: tile, lenient: d.opts.Lenient}
				planes, err := td.decode()
				results <- result{idx: int(tile.SOT.Isot), planes: planes, report: td.report, err: err}
			}
		}()
	}
	for _, tile := range tiles {
		jobs <- tile
	}
	close(jobs)
	wg.Wait()
	close(results)

	// All tiles joined; assemble only if every one of them succeeded.
	collected := make([]result, 0, len(tiles))
	for res := range results {
		if res.err != nil {
			return nil, res.err
		}
		collected = append(collected, res)
	}
	slices.SortFunc(collected, func(a, b result) int { return a.idx - b.idx })
	for _, res := range collected {
		d.report.merge(res.report)
		if err := assembler.AssembleTile(res.idx, res.planes); err != nil {
			return nil, err
		}
	}
	return assembler.ImageData(), nil
}

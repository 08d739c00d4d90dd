package codec

import (
	"fmt"

	"github.com/cocosip/go-dicom/pkg/dicom/transfer"

	"github.com/openmedimg/go-jpeg2000/jpeg2000"
)

// jpeg2000Decoder serves one JPEG 2000 transfer syntax. The same
// codestream decoder backs both the lossless and the lossy entry; the
// codestream itself declares which transform it carries.
type jpeg2000Decoder struct {
	name string
	ts   *transfer.Syntax
}

var _ Decoder = (*jpeg2000Decoder)(nil)

// NewJPEG2000Lossless returns the decoder entry for transfer syntax
// 1.2.840.10008.1.2.4.90.
func NewJPEG2000Lossless() Decoder {
	return &jpeg2000Decoder{name: "JPEG 2000 Lossless", ts: transfer.JPEG2000Lossless}
}

// NewJPEG2000 returns the decoder entry for transfer syntax
// 1.2.840.10008.1.2.4.91.
func NewJPEG2000() Decoder {
	return &jpeg2000Decoder{name: "JPEG 2000", ts: transfer.JPEG2000}
}

func (c *jpeg2000Decoder) Name() string {
	return c.name
}

func (c *jpeg2000Decoder) UID() string {
	return c.ts.UID().UID()
}

func (c *jpeg2000Decoder) Decode(data []byte) (*DecodeResult, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty frame", ErrInvalidParameter)
	}

	dec := jpeg2000.NewDecoder()
	pb, err := dec.Decode(data, len(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.name, err)
	}

	res := &DecodeResult{
		Width:      pb.Width,
		Height:     pb.Height,
		Components: pb.Components,
		BitDepth:   pb.BitDepth,
		Signed:     pb.Signed,
	}
	if pb.BitDepth <= 8 {
		res.PixelData = pb.Interleaved8()
	} else {
		res.PixelData = pb.Interleaved16()
	}
	return res, nil
}

func init() {
	Register(NewJPEG2000Lossless())
	Register(NewJPEG2000())
}

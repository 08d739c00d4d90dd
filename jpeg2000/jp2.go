package jpeg2000

import (
	"encoding/binary"
	"fmt"
)

// JP2 container signatures.
var (
	jp2Signature = []byte{0x00, 0x00, 0x00, 0x0C, 0x6A, 0x50, 0x20, 0x20, 0x0D, 0x0A, 0x87, 0x0A}
	socMarker    = []byte{0xFF, 0x4F}
)

const jp2CodestreamBox = "jp2c"

// isJP2 reports whether the buffer starts with the JP2 signature box.
func isJP2(data []byte) bool {
	if len(data) < len(jp2Signature) {
		return false
	}
	for i, b := range jp2Signature {
		if data[i] != b {
			return false
		}
	}
	return true
}

// unwrapJP2 walks the JP2 box sequence and returns the payload of the
// first contiguous codestream box. Box contents other than the box
// framing itself are not interpreted.
func unwrapJP2(data []byte) ([]byte, error) {
	pos := 0
	for pos+8 <= len(data) {
		size := int(binary.BigEndian.Uint32(data[pos : pos+4]))
		boxType := string(data[pos+4 : pos+8])
		payload := pos + 8

		switch size {
		case 0:
			// Box extends to the end of the stream.
			size = len(data) - pos
		case 1:
			if pos+16 > len(data) {
				return nil, fmt.Errorf("%w: truncated extended box length", ErrTruncatedStream)
			}
			size64 := binary.BigEndian.Uint64(data[pos+8 : pos+16])
			if size64 > uint64(len(data)-pos) {
				return nil, fmt.Errorf("%w: box %q larger than stream", ErrTruncatedStream, boxType)
			}
			size = int(size64)
			payload = pos + 16
		default:
			if size < 8 {
				return nil, fmt.Errorf("%w: box %q with size %d", ErrInvalidMarker, boxType, size)
			}
		}
		if pos+size > len(data) {
			return nil, fmt.Errorf("%w: box %q overruns stream", ErrTruncatedStream, boxType)
		}

		if boxType == jp2CodestreamBox {
			return data[payload : pos+size], nil
		}
		pos += size
	}
	return nil, fmt.Errorf("%w: no codestream box in JP2 container", ErrInvalidMarker)
}

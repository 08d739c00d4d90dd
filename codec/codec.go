// Package codec binds the JPEG 2000 decoder to imaging toolchains: a
// small decoder interface plus a registry keyed by codec name and
// DICOM transfer syntax UID.
package codec

// Decoder decodes one compressed image format.
type Decoder interface {
	// Decode decodes a complete compressed frame.
	Decode(data []byte) (*DecodeResult, error)

	// UID returns the DICOM transfer syntax UID this decoder serves.
	UID() string

	// Name returns a human-readable codec name.
	Name() string
}

// DecodeResult is a decoded frame.
type DecodeResult struct {
	PixelData  []byte // interleaved samples, little-endian for >8 bit
	Width      int
	Height     int
	Components int
	BitDepth   int
	Signed     bool
}

// Package jpeg2000 decodes JPEG 2000 Part 1 (ISO/IEC 15444-1)
// codestreams into raw pixel buffers. It is decode-only and aimed at
// medical-imaging pipelines; the codec package binds it to DICOM
// transfer syntaxes.
package jpeg2000

import (
	"errors"

	"github.com/openmedimg/go-jpeg2000/jpeg2000/codestream"
	"github.com/openmedimg/go-jpeg2000/jpeg2000/t1"
)

// The decode error taxonomy. Errors returned by Decode wrap one of
// these sentinels; callers classify with errors.Is.
var (
	// ErrTruncatedStream reports that the buffer ended before a
	// required read.
	ErrTruncatedStream = codestream.ErrTruncatedStream

	// ErrInvalidMarker reports a malformed or out-of-order marker
	// segment.
	ErrInvalidMarker = codestream.ErrInvalidMarker

	// ErrUnsupportedFeature reports a recognized codestream feature
	// this decoder does not implement.
	ErrUnsupportedFeature = codestream.ErrUnsupportedFeature

	// ErrCorruptCodeblock reports an entropy-decoder invariant
	// violation inside a code-block.
	ErrCorruptCodeblock = t1.ErrCorruptCodeblock

	// ErrGeometryMismatch reports that the reconstructed sample counts
	// do not agree with the header geometry.
	ErrGeometryMismatch = errors.New("geometry mismatch")
)

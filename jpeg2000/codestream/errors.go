package codestream

import "errors"

// Error taxonomy for codestream-level failures. Higher layers wrap these
// with positional context; callers match with errors.Is.
var (
	// ErrTruncatedStream reports that fewer bytes remained than a
	// required read needed.
	ErrTruncatedStream = errors.New("truncated codestream")

	// ErrInvalidMarker reports a malformed or out-of-order marker.
	ErrInvalidMarker = errors.New("invalid marker")

	// ErrUnsupportedFeature reports a recognized but unimplemented
	// codestream feature.
	ErrUnsupportedFeature = errors.New("unsupported codestream feature")
)

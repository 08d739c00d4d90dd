package codec

import "errors"

var (
	// ErrCodecNotFound is returned when no decoder matches the
	// requested name or UID.
	ErrCodecNotFound = errors.New("codec not found")

	// ErrInvalidParameter is returned for malformed decode inputs.
	ErrInvalidParameter = errors.New("invalid parameter")
)

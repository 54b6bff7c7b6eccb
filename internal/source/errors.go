package source

import "errors"

var (
	// ErrEmptyURI is returned for an empty URI.
	ErrEmptyURI = errors.New("empty uri")

	// ErrUnsupportedScheme is returned for URI schemes the resolver cannot read.
	ErrUnsupportedScheme = errors.New("unsupported uri scheme")

	// ErrRemoteDisabled is returned for http(s) URIs when remote input is off.
	ErrRemoteDisabled = errors.New("remote images are disabled")

	// ErrTooLarge is returned when the image exceeds the size limit.
	ErrTooLarge = errors.New("image exceeds size limit")

	// ErrInvalidDataURI is returned for malformed data: URIs.
	ErrInvalidDataURI = errors.New("invalid data uri")
)

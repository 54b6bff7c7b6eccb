package normalize

import "errors"

var (
	// ErrEmptyImage is returned when the bitmap carries no bytes.
	ErrEmptyImage = errors.New("empty image data")

	// ErrUnsupportedMime is returned when the mime type is not an accepted image type.
	ErrUnsupportedMime = errors.New("unsupported mime type")
)

package pipeline

import "errors"

var (
	// ErrNoResolver is reported when a URI is processed without a resolver.
	ErrNoResolver = errors.New("no image resolver configured")
)

package capability

import "errors"

var (
	// ErrUnavailable is returned when a capability failed to load and the
	// failure is memoized.
	ErrUnavailable = errors.New("capability unavailable")

	// ErrNotConfigured is returned by loaders whose provider has no settings.
	ErrNotConfigured = errors.New("capability not configured")

	// ErrProviderNotBuilt is returned by loaders whose provider was excluded
	// from the binary by build tags.
	ErrProviderNotBuilt = errors.New("capability provider not built into this binary")
)

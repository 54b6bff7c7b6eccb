package normalize

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// supportedMimeTypes lists the accepted input types. HEIC/HEIF is accepted
// even though no decoder is registered: it follows the placeholder path.
var supportedMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
	"image/bmp":  true,
	"image/tiff": true,
	"image/heic": true,
	"image/heif": true,
}

// SupportedMimeTypes returns the accepted mime types.
func SupportedMimeTypes() []string {
	out := make([]string, 0, len(supportedMimeTypes))
	for m := range supportedMimeTypes {
		out = append(out, m)
	}
	return out
}

// IsSupportedMime reports whether mime is an accepted input type.
func IsSupportedMime(mime string) bool {
	return supportedMimeTypes[canonicalMime(mime)]
}

// resolveMime returns the canonical declared mime type, sniffing data when
// nothing was declared.
func resolveMime(declared string, data []byte) string {
	m := canonicalMime(declared)
	if m == "" {
		m = canonicalMime(mimetype.Detect(data).String())
	}
	return m
}

func canonicalMime(m string) string {
	m = strings.ToLower(strings.TrimSpace(m))
	if i := strings.IndexByte(m, ';'); i >= 0 {
		m = strings.TrimSpace(m[:i])
	}
	if m == "image/x-ms-bmp" {
		return "image/bmp"
	}
	return m
}

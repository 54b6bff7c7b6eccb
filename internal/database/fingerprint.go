package database

import (
	"bytes"
	"encoding/hex"
	"image"
	_ "image/gif"  // GIF decoder for perceptual hashing
	_ "image/jpeg" // JPEG decoder for perceptual hashing
	_ "image/png"  // PNG decoder for perceptual hashing

	"github.com/corona10/goimagehash"
	"golang.org/x/crypto/sha3"
	_ "golang.org/x/image/bmp"  // BMP decoder for perceptual hashing
	_ "golang.org/x/image/tiff" // TIFF decoder for perceptual hashing
	_ "golang.org/x/image/webp" // WebP decoder for perceptual hashing
)

// DefaultSimilarDistance is the largest dHash distance at which two images
// count as near-duplicates.
const DefaultSimilarDistance = 10

// Fingerprint identifies image content.
type Fingerprint struct {
	// ID is the hex SHA3-256 of the image bytes.
	ID string

	// PHash is the difference hash of the decoded image, or "" when the
	// bytes could not be decoded.
	PHash string
}

// NewFingerprint computes the fingerprint of data.
func NewFingerprint(data []byte) Fingerprint {
	sum := sha3.Sum256(data)
	fp := Fingerprint{ID: hex.EncodeToString(sum[:])}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fp
	}
	if h, err := goimagehash.DifferenceHash(img); err == nil {
		fp.PHash = h.ToString()
	}
	return fp
}

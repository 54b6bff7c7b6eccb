// Package database provides SQLite-based caption history for captioner.
//
// CaptionDB stores:
//   - images, keyed by the SHA3-256 of their bytes, with a perceptual hash
//     for near-duplicate lookups
//   - every caption produced for an image, with the full pipeline result
//
// The database lives in a single file (modernc.org/sqlite, no cgo) in the
// XDG data directory. Recognized text is never stored: the result JSON
// omits it.
package database

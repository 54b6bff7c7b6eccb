// Package normalize turns raw image bytes into the fixed-size tensor consumed
// by the classification and detection models.
//
// Normalization has exactly two fatal preconditions: empty data and an
// unsupported mime type. Any decoding problem past those checks yields a
// neutral gray placeholder tensor so the pipeline keeps running and the
// confidence scorer ends up reporting the lack of signal.
//
// The normalizer also keeps the decoded pixel buffer and the original encoded
// bytes so that OCR can reuse them without decoding twice.
package normalize

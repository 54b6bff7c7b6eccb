package model

import "image"

// DefaultChannels is the number of color channels in a pipeline tensor (RGB).
const DefaultChannels = 3

// ImageBitmap is the raw image handed to the pipeline.
type ImageBitmap struct {
	// Data holds the encoded image bytes (JPEG, PNG, WebP, ...).
	Data []byte

	// MimeType is the declared mime type. When empty, it is sniffed from Data.
	MimeType string

	// Width and Height are the declared dimensions. They are informational;
	// the decoded dimensions win when decoding succeeds.
	Width  int
	Height int

	// OrientationCorrected reports whether the caller already applied the
	// EXIF orientation. When false, the normalizer applies it.
	OrientationCorrected bool

	// Source names where the bytes came from (path or URI). It is only used
	// for logging and reports.
	Source string
}

// Tensor is a square HWC-interleaved float tensor.
// len(Data) is always Size*Size*Channels.
type Tensor struct {
	Data     []float32
	Size     int
	Channels int

	// SourceWidth and SourceHeight are the dimensions of the image the tensor
	// was produced from. Detectors express boxes in this pixel space.
	SourceWidth  int
	SourceHeight int
}

// Len returns the expected element count of the tensor.
func (t Tensor) Len() int {
	return t.Size * t.Size * t.Channels
}

// Valid reports whether the data length matches the declared shape.
func (t Tensor) Valid() bool {
	return t.Size > 0 && t.Channels > 0 && len(t.Data) == t.Len()
}

// NormalizedImage is the output of the image normalizer.
type NormalizedImage struct {
	Tensor Tensor

	// TargetSize is the square edge length of the tensor.
	TargetSize int

	// OriginalWidth and OriginalHeight are the decoded, orientation-corrected
	// dimensions. For placeholders they fall back to the declared dimensions.
	OriginalWidth  int
	OriginalHeight int

	// Placeholder is true when decoding failed and Tensor is neutral gray.
	Placeholder bool

	// Pixels is the retained decoded pixel buffer. Nil for placeholders.
	Pixels *image.NRGBA

	// Encoded is the original encoded byte form kept for OCR reuse.
	Encoded []byte

	// MimeType is the resolved mime type of Encoded.
	MimeType string
}

// Info summarizes the normalized image for reports.
func (n *NormalizedImage) Info() ImageInfo {
	if n == nil {
		return ImageInfo{}
	}
	return ImageInfo{
		TargetSize:     n.TargetSize,
		OriginalWidth:  n.OriginalWidth,
		OriginalHeight: n.OriginalHeight,
		Placeholder:    n.Placeholder,
		MimeType:       n.MimeType,
	}
}

// ImageInfo is the serializable summary of a NormalizedImage.
type ImageInfo struct {
	TargetSize     int    `json:"target_size"`
	OriginalWidth  int    `json:"original_width"`
	OriginalHeight int    `json:"original_height"`
	Placeholder    bool   `json:"placeholder"`
	MimeType       string `json:"mime_type,omitempty"`
}

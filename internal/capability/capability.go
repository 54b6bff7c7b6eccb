package capability

import (
	"context"

	"github.com/nao1215/captioner/internal/geometry"
	"github.com/nao1215/captioner/internal/model"
)

// Prediction is a raw classifier output.
type Prediction struct {
	Label      string
	Confidence float64
}

// Detection is a raw detector output. Box is in the pixel space of the
// source image (Tensor.SourceWidth x Tensor.SourceHeight).
type Detection struct {
	Label      string
	Confidence float64
	Box        geometry.PixelBox
}

// RecognizedBlock is one raw OCR block. Box is in the pixel space of the
// image passed to Recognize.
type RecognizedBlock struct {
	Text       string
	Confidence float64
	Box        geometry.PixelBox
	Language   string
}

// Recognition is the raw output of a text recognizer.
type Recognition struct {
	Text       string
	Confidence float64
	Blocks     []RecognizedBlock
}

// Classifier labels the content of a normalized tensor.
type Classifier interface {
	Classify(ctx context.Context, tensor model.Tensor) ([]Prediction, error)
}

// Detector locates objects in a normalized tensor.
type Detector interface {
	Detect(ctx context.Context, tensor model.Tensor) ([]Detection, error)
}

// Recognizer extracts text from encoded image bytes.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) (Recognition, error)
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(ctx context.Context, tensor model.Tensor) ([]Prediction, error)

// Classify calls f.
func (f ClassifierFunc) Classify(ctx context.Context, tensor model.Tensor) ([]Prediction, error) {
	return f(ctx, tensor)
}

// DetectorFunc adapts a function to the Detector interface.
type DetectorFunc func(ctx context.Context, tensor model.Tensor) ([]Detection, error)

// Detect calls f.
func (f DetectorFunc) Detect(ctx context.Context, tensor model.Tensor) ([]Detection, error) {
	return f(ctx, tensor)
}

// RecognizerFunc adapts a function to the Recognizer interface.
type RecognizerFunc func(ctx context.Context, image []byte) (Recognition, error)

// Recognize calls f.
func (f RecognizerFunc) Recognize(ctx context.Context, image []byte) (Recognition, error) {
	return f(ctx, image)
}

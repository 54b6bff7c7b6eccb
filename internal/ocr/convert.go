package ocr

import (
	"errors"
	"fmt"

	"github.com/nao1215/captioner/internal/model"
	"github.com/nao1215/captioner/internal/normalize"
)

// Representation names the image form handed to the recognizer.
type Representation string

const (
	// RepresentationPixels is the retained decoded pixel buffer.
	RepresentationPixels Representation = "pixels"

	// RepresentationTensor is the normalized tensor mapped back to pixels.
	RepresentationTensor Representation = "tensor"

	// RepresentationEncoded is the original encoded byte form.
	RepresentationEncoded Representation = "encoded"
)

// ErrNoRepresentation is returned when an image has no usable form for OCR.
var ErrNoRepresentation = errors.New("no image representation available for OCR")

// Transport is the canonical form sent to the recognizer. Width and Height
// are the pixel dimensions the recognizer's boxes refer to.
type Transport struct {
	Data   []byte
	Width  int
	Height int
	Source Representation
}

// ToTransport converts a normalized image into recognizer input. It prefers
// the decoded pixel buffer, then the tensor, then the original bytes. The
// tensor is skipped for placeholders since it carries no content.
func ToTransport(img *model.NormalizedImage) (Transport, error) {
	if img == nil {
		return Transport{}, ErrNoRepresentation
	}

	var errs []error
	if img.Pixels != nil {
		data, err := normalize.EncodePNG(img.Pixels)
		if err == nil {
			b := img.Pixels.Bounds()
			return Transport{Data: data, Width: b.Dx(), Height: b.Dy(), Source: RepresentationPixels}, nil
		}
		errs = append(errs, fmt.Errorf("pixels: %w", err))
	}

	if !img.Placeholder && img.Tensor.Valid() {
		t, err := tensorTransport(img.Tensor)
		if err == nil {
			return t, nil
		}
		errs = append(errs, fmt.Errorf("tensor: %w", err))
	}

	if len(img.Encoded) > 0 {
		return Transport{
			Data:   img.Encoded,
			Width:  img.OriginalWidth,
			Height: img.OriginalHeight,
			Source: RepresentationEncoded,
		}, nil
	}

	errs = append(errs, ErrNoRepresentation)
	return Transport{}, errors.Join(errs...)
}

func tensorTransport(t model.Tensor) (Transport, error) {
	pixels, err := normalize.TensorToImage(t)
	if err != nil {
		return Transport{}, err
	}
	data, err := normalize.EncodePNG(pixels)
	if err != nil {
		return Transport{}, err
	}
	return Transport{Data: data, Width: t.Size, Height: t.Size, Source: RepresentationTensor}, nil
}

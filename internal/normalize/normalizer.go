package normalize

import (
	"fmt"
	"image"
	"log/slog"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/nao1215/captioner/internal/model"
)

// PlaceholderValue is the value of every element of a placeholder tensor.
const PlaceholderValue float32 = 0.5

// Normalizer converts ImageBitmaps into NormalizedImages.
// It is safe for concurrent use.
type Normalizer struct {
	targetSize int
	logger     *slog.Logger
	pool       *sync.Pool
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithLogger sets the logger used for decode warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Normalizer) {
		n.logger = logger
	}
}

// New creates a Normalizer that produces targetSize x targetSize tensors.
func New(targetSize int, opts ...Option) *Normalizer {
	n := &Normalizer{
		targetSize: targetSize,
		pool: &sync.Pool{
			New: func() any {
				buf := make([]float32, 0)
				return &buf
			},
		},
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.logger == nil {
		n.logger = slog.Default()
	}
	return n
}

// TargetSize returns the tensor edge length.
func (n *Normalizer) TargetSize() int {
	return n.targetSize
}

// Normalize validates, decodes, orients and resizes the bitmap.
//
// It returns ErrEmptyImage or ErrUnsupportedMime (wrapped) for invalid input.
// Decode failures are not errors: the result is a placeholder tensor.
func (n *Normalizer) Normalize(bitmap model.ImageBitmap) (*model.NormalizedImage, error) {
	if len(bitmap.Data) == 0 {
		return nil, ErrEmptyImage
	}
	mime := resolveMime(bitmap.MimeType, bitmap.Data)
	if !supportedMimeTypes[mime] {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMime, mime)
	}

	img, err := decode(bitmap.Data)
	if err != nil {
		n.logger.Warn("image decode failed, using placeholder",
			"source", bitmap.Source,
			"mime", mime,
			"error", err,
		)
		return n.placeholder(bitmap, mime), nil
	}

	if !bitmap.OrientationCorrected {
		img = applyOrientation(img, readOrientation(bitmap.Data))
	}

	pixels := imaging.Clone(img)
	bounds := pixels.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return n.placeholder(bitmap, mime), nil
	}
	resized := imaging.Resize(pixels, n.targetSize, n.targetSize, imaging.NearestNeighbor)

	return &model.NormalizedImage{
		Tensor:         n.fillTensor(resized, bounds.Dx(), bounds.Dy()),
		TargetSize:     n.targetSize,
		OriginalWidth:  bounds.Dx(),
		OriginalHeight: bounds.Dy(),
		Pixels:         pixels,
		Encoded:        bitmap.Data,
		MimeType:       mime,
	}, nil
}

// Release returns the tensor buffer of img to the pool and drops the
// retained pixel buffers. img must not be used afterwards.
func (n *Normalizer) Release(img *model.NormalizedImage) {
	if img == nil {
		return
	}
	if img.Tensor.Data != nil {
		buf := img.Tensor.Data[:0]
		n.pool.Put(&buf)
	}
	img.Tensor.Data = nil
	img.Pixels = nil
	img.Encoded = nil
}

func (n *Normalizer) placeholder(bitmap model.ImageBitmap, mime string) *model.NormalizedImage {
	w, h := bitmap.Width, bitmap.Height
	if w <= 0 || h <= 0 {
		w, h = n.targetSize, n.targetSize
	}
	data := n.buffer(n.targetSize * n.targetSize * model.DefaultChannels)
	for i := range data {
		data[i] = PlaceholderValue
	}
	return &model.NormalizedImage{
		Tensor: model.Tensor{
			Data:         data,
			Size:         n.targetSize,
			Channels:     model.DefaultChannels,
			SourceWidth:  w,
			SourceHeight: h,
		},
		TargetSize:     n.targetSize,
		OriginalWidth:  w,
		OriginalHeight: h,
		Placeholder:    true,
		Encoded:        bitmap.Data,
		MimeType:       mime,
	}
}

// fillTensor writes the RGB channels of img as HWC floats in [0,1].
func (n *Normalizer) fillTensor(img *image.NRGBA, srcW, srcH int) model.Tensor {
	size := n.targetSize
	data := n.buffer(size * size * model.DefaultChannels)
	i := 0
	for y := 0; y < size; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+size*4]
		for x := 0; x < size; x++ {
			p := row[x*4 : x*4+4]
			data[i] = float32(p[0]) / 255
			data[i+1] = float32(p[1]) / 255
			data[i+2] = float32(p[2]) / 255
			i += model.DefaultChannels
		}
	}
	return model.Tensor{
		Data:         data,
		Size:         size,
		Channels:     model.DefaultChannels,
		SourceWidth:  srcW,
		SourceHeight: srcH,
	}
}

func (n *Normalizer) buffer(length int) []float32 {
	bufPtr, _ := n.pool.Get().(*[]float32)
	if bufPtr == nil || cap(*bufPtr) < length {
		return make([]float32, length)
	}
	return (*bufPtr)[:length]
}

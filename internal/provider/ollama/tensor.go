package ollama

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"math"

	"github.com/nao1215/captioner/internal/model"
)

// ErrInvalidTensor is returned when a tensor cannot be turned into an image.
var ErrInvalidTensor = errors.New("tensor shape does not match its data")

// EncodeTensor renders an HWC tensor with values in [0,1] as a PNG.
// Tensors with fewer than three channels are rendered as grayscale.
func EncodeTensor(t model.Tensor) ([]byte, error) {
	if !t.Valid() {
		return nil, ErrInvalidTensor
	}

	img := image.NewNRGBA(image.Rect(0, 0, t.Size, t.Size))
	for i := 0; i < t.Size*t.Size; i++ {
		px := t.Data[i*t.Channels : (i+1)*t.Channels]
		r := channelByte(px[0])
		g, b := r, r
		if t.Channels >= 3 {
			g, b = channelByte(px[1]), channelByte(px[2])
		}
		img.Pix[i*4] = r
		img.Pix[i*4+1] = g
		img.Pix[i*4+2] = b
		img.Pix[i*4+3] = 255
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func channelByte(v float32) uint8 {
	if math.IsNaN(float64(v)) || v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(math.Round(float64(v) * 255))
}

package normalize

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/nao1215/captioner/internal/model"
)

// TensorToImage converts a tensor back into pixel space. Tensors in [0,1]
// and tensors in [-1,1] are both supported; the range is inferred from the
// data.
func TensorToImage(t model.Tensor) (*image.NRGBA, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid tensor: size=%d channels=%d len=%d", t.Size, t.Channels, len(t.Data))
	}

	signed := false
	for _, v := range t.Data {
		if v < 0 {
			signed = true
			break
		}
	}

	img := image.NewNRGBA(image.Rect(0, 0, t.Size, t.Size))
	for y := 0; y < t.Size; y++ {
		for x := 0; x < t.Size; x++ {
			src := (y*t.Size + x) * t.Channels
			dst := y*img.Stride + x*4
			for c := 0; c < 3; c++ {
				ch := c
				if ch >= t.Channels {
					ch = t.Channels - 1
				}
				img.Pix[dst+c] = denormalize(t.Data[src+ch], signed)
			}
			img.Pix[dst+3] = 0xff
		}
	}
	return img, nil
}

func denormalize(v float32, signed bool) uint8 {
	if signed {
		v = (v + 1) / 2
	}
	f := v * 255
	switch {
	case f <= 0:
		return 0
	case f >= 255:
		return 255
	default:
		return uint8(f + 0.5)
	}
}

// EncodePNG encodes img as PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}

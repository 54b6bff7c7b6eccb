package geometry

import (
	"image"
	"math"

	"github.com/nao1215/captioner/internal/model"
)

// PixelBox is a bounding box in pixel coordinates of some frame.
type PixelBox struct {
	X, Y, Width, Height float64
}

// FromRect converts an image.Rectangle into a PixelBox.
func FromRect(r image.Rectangle) PixelBox {
	return PixelBox{
		X:      float64(r.Min.X),
		Y:      float64(r.Min.Y),
		Width:  float64(r.Dx()),
		Height: float64(r.Dy()),
	}
}

// Normalize converts a pixel box to an image-relative box for a frame of
// frameW x frameH pixels. The result is clamped to [0,1] and never extends
// past the frame. A non-positive frame yields the zero box.
func Normalize(b PixelBox, frameW, frameH int) model.BoundingBox {
	if frameW <= 0 || frameH <= 0 {
		return model.BoundingBox{}
	}
	fw, fh := float64(frameW), float64(frameH)

	x := clamp01(b.X / fw)
	y := clamp01(b.Y / fh)
	w := clamp01(b.Width / fw)
	h := clamp01(b.Height / fh)

	if x+w > 1 {
		w = 1 - x
	}
	if y+h > 1 {
		h = 1 - y
	}
	return model.BoundingBox{X: x, Y: y, Width: w, Height: h}
}

// Denormalize converts an image-relative box back to pixels of a frame.
func Denormalize(b model.BoundingBox, frameW, frameH int) PixelBox {
	return PixelBox{
		X:      b.X * float64(frameW),
		Y:      b.Y * float64(frameH),
		Width:  b.Width * float64(frameW),
		Height: b.Height * float64(frameH),
	}
}

// ToRect converts a pixel box into an image.Rectangle clamped to bounds.
func ToRect(b PixelBox, bounds image.Rectangle) image.Rectangle {
	r := image.Rect(
		int(math.Floor(b.X)),
		int(math.Floor(b.Y)),
		int(math.Ceil(b.X+b.Width)),
		int(math.Ceil(b.Y+b.Height)),
	)
	return r.Intersect(bounds)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

package normalize

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/nao1215/captioner/internal/model"
)

// pngBytes returns a w x h PNG filled with c.
func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestNormalize_FatalInput(t *testing.T) {
	t.Parallel()

	n := New(32)

	t.Run("empty data", func(t *testing.T) {
		t.Parallel()
		_, err := n.Normalize(model.ImageBitmap{MimeType: "image/png"})
		if !errors.Is(err, ErrEmptyImage) {
			t.Errorf("expected ErrEmptyImage, got %v", err)
		}
	})

	t.Run("unsupported mime", func(t *testing.T) {
		t.Parallel()
		_, err := n.Normalize(model.ImageBitmap{Data: []byte("hello"), MimeType: "text/plain"})
		if !errors.Is(err, ErrUnsupportedMime) {
			t.Errorf("expected ErrUnsupportedMime, got %v", err)
		}
	})

	t.Run("sniffed unsupported mime", func(t *testing.T) {
		t.Parallel()
		_, err := n.Normalize(model.ImageBitmap{Data: []byte("%PDF-1.4 not an image")})
		if !errors.Is(err, ErrUnsupportedMime) {
			t.Errorf("expected ErrUnsupportedMime, got %v", err)
		}
	})
}

func TestNormalize_DecodeFailureYieldsPlaceholder(t *testing.T) {
	t.Parallel()

	n := New(16)
	testCases := []struct {
		name   string
		bitmap model.ImageBitmap
	}{
		{"corrupt jpeg", model.ImageBitmap{Data: []byte{0xff, 0xd8, 0xff, 0x00, 0x01}, MimeType: "image/jpeg", Width: 640, Height: 480}},
		{"heic has no decoder", model.ImageBitmap{Data: []byte("ftypheic...."), MimeType: "image/heic"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			img, err := n.Normalize(tc.bitmap)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !img.Placeholder {
				t.Error("expected placeholder")
			}
			if len(img.Tensor.Data) != 16*16*3 {
				t.Errorf("unexpected tensor length %d", len(img.Tensor.Data))
			}
			for _, v := range img.Tensor.Data {
				if v != PlaceholderValue {
					t.Fatalf("expected gray tensor, got %f", v)
				}
			}
			if img.Pixels != nil {
				t.Error("placeholder must not carry pixels")
			}
			if len(img.Encoded) == 0 {
				t.Error("placeholder should keep encoded bytes")
			}
		})
	}
}

func TestNormalize_Success(t *testing.T) {
	t.Parallel()

	data := pngBytes(t, 40, 20, color.NRGBA{R: 255, G: 0, B: 0, A: 255})
	n := New(224)

	img, err := n.Normalize(model.ImageBitmap{Data: data})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if img.Placeholder {
		t.Fatal("did not expect placeholder")
	}
	if got, want := len(img.Tensor.Data), 224*224*3; got != want {
		t.Errorf("tensor length = %d, want %d", got, want)
	}
	if img.OriginalWidth != 40 || img.OriginalHeight != 20 {
		t.Errorf("original dims = %dx%d", img.OriginalWidth, img.OriginalHeight)
	}
	if img.MimeType != "image/png" {
		t.Errorf("expected sniffed image/png, got %s", img.MimeType)
	}
	for i, v := range img.Tensor.Data {
		if v < 0 || v > 1 {
			t.Fatalf("value %f at %d outside [0,1]", v, i)
		}
	}
	if img.Tensor.Data[0] != 1 || img.Tensor.Data[1] != 0 || img.Tensor.Data[2] != 0 {
		t.Errorf("expected red pixel, got %v", img.Tensor.Data[:3])
	}
	if img.Pixels == nil || img.Pixels.Bounds().Dx() != 40 {
		t.Error("expected retained pixel buffer at original size")
	}
	if img.Tensor.SourceWidth != 40 || img.Tensor.SourceHeight != 20 {
		t.Errorf("unexpected tensor source dims %dx%d", img.Tensor.SourceWidth, img.Tensor.SourceHeight)
	}

	n.Release(img)
	if img.Tensor.Data != nil || img.Pixels != nil || img.Encoded != nil {
		t.Error("Release should drop buffers")
	}
}

func TestNormalize_ReusesPooledBuffers(t *testing.T) {
	t.Parallel()

	data := pngBytes(t, 8, 8, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	n := New(8)
	for i := 0; i < 3; i++ {
		img, err := n.Normalize(model.ImageBitmap{Data: data, MimeType: "image/png"})
		if err != nil {
			t.Fatal(err)
		}
		if len(img.Tensor.Data) != 8*8*3 {
			t.Fatalf("iteration %d: unexpected tensor length %d", i, len(img.Tensor.Data))
		}
		n.Release(img)
	}
}

func TestTensorToImage(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		val  float32
		want uint8
	}{
		{"unit range", 1, 255},
		{"unit range zero", 0, 0},
		{"signed range", -1, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			data := make([]float32, 2*2*3)
			for i := range data {
				data[i] = tc.val
			}
			img, err := TensorToImage(model.Tensor{Data: data, Size: 2, Channels: 3})
			if err != nil {
				t.Fatal(err)
			}
			if got := img.Pix[0]; got != tc.want {
				t.Errorf("pixel = %d, want %d", got, tc.want)
			}
			if img.Pix[3] != 255 {
				t.Error("expected opaque alpha")
			}
		})
	}

	t.Run("signed range midpoint", func(t *testing.T) {
		t.Parallel()
		data := []float32{-1, 0, 1}
		img, err := TensorToImage(model.Tensor{Data: data, Size: 1, Channels: 3})
		if err != nil {
			t.Fatal(err)
		}
		if img.Pix[0] != 0 || img.Pix[1] != 128 || img.Pix[2] != 255 {
			t.Errorf("unexpected pixel %v", img.Pix[:3])
		}
	})

	t.Run("invalid tensor", func(t *testing.T) {
		t.Parallel()
		if _, err := TensorToImage(model.Tensor{Data: []float32{1}, Size: 2, Channels: 3}); err == nil {
			t.Error("expected error")
		}
	})
}

func TestEncodePNG(t *testing.T) {
	t.Parallel()

	data, err := EncodePNG(image.NewNRGBA(image.Rect(0, 0, 3, 3)))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Error("expected PNG signature")
	}
}

func TestApplyOrientation(t *testing.T) {
	t.Parallel()

	src := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	if b := applyOrientation(src, 6).Bounds(); b.Dx() != 2 || b.Dy() != 4 {
		t.Errorf("orientation 6 should swap dimensions, got %v", b)
	}
	if b := applyOrientation(src, 1).Bounds(); b.Dx() != 4 {
		t.Errorf("orientation 1 should be identity, got %v", b)
	}
	if readOrientation([]byte("no exif here")) != 1 {
		t.Error("expected default orientation")
	}
}

func TestIsSupportedMime(t *testing.T) {
	t.Parallel()

	for _, m := range []string{"image/jpeg", "IMAGE/PNG", "image/webp; charset=binary", "image/x-ms-bmp"} {
		if !IsSupportedMime(m) {
			t.Errorf("%s should be supported", m)
		}
	}
	if IsSupportedMime("application/pdf") {
		t.Error("pdf should not be supported")
	}
}

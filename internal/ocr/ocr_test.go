package ocr

import (
	"bytes"
	"context"
	"errors"
	"image"
	"testing"

	"github.com/nao1215/captioner/internal/capability"
	"github.com/nao1215/captioner/internal/geometry"
	"github.com/nao1215/captioner/internal/model"
)

func recognizerLoader(r capability.Recognizer, err error) *capability.Lazy[capability.Recognizer] {
	return capability.NewLazy("recognizer", func(context.Context) (capability.Recognizer, error) {
		return r, err
	})
}

func pixelImage(w, h int) *model.NormalizedImage {
	return &model.NormalizedImage{
		Tensor:         model.Tensor{Data: make([]float32, 2*2*3), Size: 2, Channels: 3},
		TargetSize:     2,
		OriginalWidth:  w,
		OriginalHeight: h,
		Pixels:         image.NewNRGBA(image.Rect(0, 0, w, h)),
		Encoded:        []byte("original"),
	}
}

func TestAdapter_Recognize(t *testing.T) {
	t.Parallel()

	var received []byte
	rec := capability.RecognizerFunc(func(_ context.Context, data []byte) (capability.Recognition, error) {
		received = data
		return capability.Recognition{
			Blocks: []capability.RecognizedBlock{
				{Text: "Total: $12.00", Confidence: 0.8, Box: geometry.PixelBox{X: 0, Y: 80, Width: 50, Height: 10}, Language: "en-us"},
				{Text: "Coffee Shop", Confidence: 0.9, Box: geometry.PixelBox{X: 0, Y: 10, Width: 100, Height: 10}},
				{Text: "~~", Confidence: 0.3, Box: geometry.PixelBox{X: 0, Y: 50, Width: 10, Height: 10}},
			},
		}, nil
	})

	a := New(recognizerLoader(rec, nil), Params{MaxSummaryLength: 100, Language: "en"})
	result := a.Run(context.Background(), pixelImage(100, 100), model.ClassificationResult{
		Labels: []model.Label{{Text: "receipt", Confidence: 0.7}},
	})

	if !result.Triggered || result.TriggerReason != model.TriggerClassificationHint {
		t.Fatalf("expected classification hint trigger, got %+v", result)
	}
	if !result.EngineAvailable || !result.Success {
		t.Fatalf("expected engine available and success, got %+v", result)
	}
	if !bytes.HasPrefix(received, []byte("\x89PNG")) {
		t.Error("expected the pixel buffer to be sent as PNG")
	}
	if got, want := result.ExtractedText, "Coffee Shop ~~ Total: $12.00"; got != want {
		t.Errorf("ExtractedText = %q, want %q", got, want)
	}
	if !result.HasMeaningfulText {
		t.Error("expected meaningful text")
	}
	if result.MeaningfulBlockCount != 2 {
		t.Errorf("expected 2 meaningful blocks, got %d", result.MeaningfulBlockCount)
	}
	if result.Blocks[0].Language != "en-US" {
		t.Errorf("expected canonical language tag, got %q", result.Blocks[0].Language)
	}
	if result.Blocks[1].Language != "en" {
		t.Errorf("expected default language tag, got %q", result.Blocks[1].Language)
	}
	if result.Blocks[0].Box.Y != 0.8 {
		t.Errorf("expected box normalized against transport size, got %+v", result.Blocks[0].Box)
	}
	if diff := result.Confidence - (0.8+0.9+0.3)/3; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("unexpected mean confidence %f", result.Confidence)
	}
}

func TestAdapter_NotTriggered(t *testing.T) {
	t.Parallel()

	called := false
	rec := capability.RecognizerFunc(func(context.Context, []byte) (capability.Recognition, error) {
		called = true
		return capability.Recognition{}, nil
	})
	a := New(recognizerLoader(rec, nil), Params{MaxSummaryLength: 50})
	result := a.Run(context.Background(), pixelImage(10, 10), model.ClassificationResult{
		Labels: []model.Label{{Text: "dog", Confidence: 0.9}},
	})

	if called {
		t.Error("recognizer must not run when OCR is not triggered")
	}
	if result.Triggered || result.TriggerReason != model.TriggerNotTriggered {
		t.Errorf("unexpected result %+v", result)
	}
	if !result.EngineAvailable {
		t.Error("an unloaded but configured engine counts as available")
	}
}

func TestAdapter_Unavailable(t *testing.T) {
	t.Parallel()

	a := New(recognizerLoader(nil, errors.New("tessdata missing")), Params{AlwaysRun: true, MaxSummaryLength: 50})
	result := a.Run(context.Background(), pixelImage(10, 10), model.ClassificationResult{})

	if result.TriggerReason != model.TriggerUserEnabled {
		t.Errorf("expected user_enabled, got %s", result.TriggerReason)
	}
	if result.EngineAvailable || !result.Success || result.HasText() || result.Note == "" {
		t.Errorf("unexpected result %+v", result)
	}
	if a.NotTriggered().EngineAvailable {
		t.Error("a failed engine must not count as available")
	}
}

func TestAdapter_WholeTextWithoutBlocks(t *testing.T) {
	t.Parallel()

	rec := capability.RecognizerFunc(func(context.Context, []byte) (capability.Recognition, error) {
		return capability.Recognition{Text: "  EXIT  ", Confidence: 0.95}, nil
	})
	result := New(recognizerLoader(rec, nil), Params{AlwaysRun: true, MaxSummaryLength: 50}).
		Run(context.Background(), pixelImage(10, 10), model.ClassificationResult{})

	if result.ExtractedText != "EXIT" || len(result.Blocks) != 1 || result.Confidence != 0.95 {
		t.Errorf("unexpected result %+v", result)
	}
}

func TestToTransport(t *testing.T) {
	t.Parallel()

	t.Run("pixels preferred", func(t *testing.T) {
		t.Parallel()
		tr, err := ToTransport(pixelImage(30, 20))
		if err != nil {
			t.Fatal(err)
		}
		if tr.Source != RepresentationPixels || tr.Width != 30 || tr.Height != 20 {
			t.Errorf("unexpected transport %+v", tr.Source)
		}
	})

	t.Run("tensor when no pixels", func(t *testing.T) {
		t.Parallel()
		img := pixelImage(30, 20)
		img.Pixels = nil
		tr, err := ToTransport(img)
		if err != nil {
			t.Fatal(err)
		}
		if tr.Source != RepresentationTensor || tr.Width != 2 {
			t.Errorf("unexpected transport %s %dx%d", tr.Source, tr.Width, tr.Height)
		}
	})

	t.Run("encoded for placeholders", func(t *testing.T) {
		t.Parallel()
		img := pixelImage(30, 20)
		img.Pixels = nil
		img.Placeholder = true
		tr, err := ToTransport(img)
		if err != nil {
			t.Fatal(err)
		}
		if tr.Source != RepresentationEncoded || string(tr.Data) != "original" {
			t.Errorf("unexpected transport %s", tr.Source)
		}
	})

	t.Run("nothing available", func(t *testing.T) {
		t.Parallel()
		if _, err := ToTransport(&model.NormalizedImage{Placeholder: true}); !errors.Is(err, ErrNoRepresentation) {
			t.Errorf("expected ErrNoRepresentation, got %v", err)
		}
		if _, err := ToTransport(nil); !errors.Is(err, ErrNoRepresentation) {
			t.Errorf("expected ErrNoRepresentation, got %v", err)
		}
	})
}

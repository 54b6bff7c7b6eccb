package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/nao1215/captioner/internal/capability"
	"github.com/nao1215/captioner/internal/config"
	"github.com/nao1215/captioner/internal/geometry"
	"github.com/nao1215/captioner/internal/model"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func testBitmap(t *testing.T) model.ImageBitmap {
	t.Helper()
	return model.ImageBitmap{Data: testPNG(t, 120, 120), MimeType: "image/png", Width: 120, Height: 120}
}

func classifierReturning(preds ...capability.Prediction) capability.LoadFunc[capability.Classifier] {
	return func(context.Context) (capability.Classifier, error) {
		return capability.ClassifierFunc(func(context.Context, model.Tensor) ([]capability.Prediction, error) {
			return preds, nil
		}), nil
	}
}

func detectorReturning(dets ...capability.Detection) capability.LoadFunc[capability.Detector] {
	return func(context.Context) (capability.Detector, error) {
		return capability.DetectorFunc(func(context.Context, model.Tensor) ([]capability.Detection, error) {
			return dets, nil
		}), nil
	}
}

func recognizerReturning(rec capability.Recognition) capability.LoadFunc[capability.Recognizer] {
	return func(context.Context) (capability.Recognizer, error) {
		return capability.RecognizerFunc(func(context.Context, []byte) (capability.Recognition, error) {
			return rec, nil
		}), nil
	}
}

func personLaptopProviders() Providers {
	return Providers{
		Classifier: classifierReturning(
			capability.Prediction{Label: "person", Confidence: 0.8},
			capability.Prediction{Label: "laptop", Confidence: 0.6},
		),
		Detector: detectorReturning(capability.Detection{
			Label:      "person",
			Confidence: 0.9,
			Box:        geometry.PixelBox{X: 10, Y: 10, Width: 60, Height: 100},
		}),
		Recognizer: recognizerReturning(capability.Recognition{}),
	}
}

func newTestCaptioner(t *testing.T, cfg config.Config, opts ...CaptionerOption) *Captioner {
	t.Helper()
	c, err := NewCaptioner(cfg, opts...)
	if err != nil {
		t.Fatalf("NewCaptioner() error = %v", err)
	}
	return c
}

func checkInvariants(t *testing.T, res *model.PipelineResult, maxWords int) {
	t.Helper()
	if res == nil {
		t.Fatal("result must never be nil")
	}
	if res.Confidence < 0 || res.Confidence > 1 {
		t.Errorf("confidence %v out of range", res.Confidence)
	}
	if n := len(strings.Fields(res.Caption)); n == 0 || n > maxWords {
		t.Errorf("caption %q has %d words", res.Caption, n)
	}
	if len(res.Timings) != len(model.StageNames()) {
		t.Errorf("expected %d timings, got %d", len(model.StageNames()), len(res.Timings))
	}
	if res.Version != Version {
		t.Errorf("unexpected version %q", res.Version)
	}
}

func TestNewCaptioner_InvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()
	cfg.TargetSize = 0
	if _, err := NewCaptioner(cfg); !errors.Is(err, config.ErrInvalidTargetSize) {
		t.Errorf("expected ErrInvalidTargetSize, got %v", err)
	}
}

func TestProcessImage_PersonWithLaptop(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()
	c := newTestCaptioner(t, cfg, WithProviders(personLaptopProviders()))
	res := c.ProcessImage(context.Background(), testBitmap(t))
	checkInvariants(t, res, cfg.MaxCaptionWords)

	sig := res.Signals
	if sig.Semantic.ImageType != model.ImageTypePhoto || sig.Semantic.PersonCount != 1 {
		t.Errorf("unexpected semantic description %+v", sig.Semantic)
	}
	if sig.Caption.TemplateID != model.TemplatePhotoWithPerson {
		t.Errorf("unexpected template %s", sig.Caption.TemplateID)
	}
	if res.Caption != "A person using a laptop." {
		t.Errorf("unexpected caption %q", res.Caption)
	}
	if sig.OCR.Triggered {
		t.Error("OCR should not be triggered")
	}
	if res.Confidence < 0.5 || !sig.Gate.Passed || res.RecommendCloudEscalation {
		t.Errorf("expected a confident pass, got confidence %v gate %+v", res.Confidence, sig.Gate)
	}
	if tm, _ := res.Timing(model.StageOCR); tm.Status != model.StageSkipped {
		t.Errorf("expected OCR stage skipped, got %+v", tm)
	}
	if tm, _ := res.Timing(model.StageQualityGate); tm.Status != model.StageCompleted {
		t.Errorf("expected gate completed, got %+v", tm)
	}
}

func TestProcessImage_EmptySignals(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()
	c := newTestCaptioner(t, cfg, WithProviders(Providers{
		Classifier: classifierReturning(),
		Detector:   detectorReturning(),
		Recognizer: recognizerReturning(capability.Recognition{}),
	}))
	res := c.ProcessImage(context.Background(), testBitmap(t))
	checkInvariants(t, res, cfg.MaxCaptionWords)

	if !res.Success {
		t.Errorf("expected success, got error %q", res.Error)
	}
	if res.Caption != model.MinimalSafeCaption {
		t.Errorf("expected minimal caption, got %q", res.Caption)
	}
	if !res.RecommendCloudEscalation {
		t.Error("expected escalation")
	}
	if res.Confidence > 0.5 {
		t.Errorf("expected confidence <= 0.5, got %v", res.Confidence)
	}
}

func TestProcessImage_NoProviders(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()
	res := newTestCaptioner(t, cfg).ProcessImage(context.Background(), testBitmap(t))
	checkInvariants(t, res, cfg.MaxCaptionWords)

	if !res.Success || res.Caption != model.MinimalSafeCaption || res.Confidence != 0 {
		t.Errorf("unexpected result %+v", res)
	}
	if res.Signals.Classification.ModelAvailable || res.Signals.Detection.ModelAvailable {
		t.Error("models should be unavailable")
	}
}

func TestProcessImage_UserEnabledOCR(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()
	cfg.AlwaysRunOCR = true
	cfg.MaxOCRSummaryLength = 20
	providers := personLaptopProviders()
	providers.Recognizer = recognizerReturning(capability.Recognition{
		Blocks: []capability.RecognizedBlock{
			{Text: "second line of text", Confidence: 0.8, Box: geometry.PixelBox{X: 5, Y: 50, Width: 80, Height: 10}},
			{Text: "first line of text", Confidence: 0.9, Box: geometry.PixelBox{X: 5, Y: 10, Width: 80, Height: 10}},
			{Text: "third line of text", Confidence: 0.7, Box: geometry.PixelBox{X: 5, Y: 90, Width: 80, Height: 10}},
		},
	})

	c := newTestCaptioner(t, cfg, WithProviders(providers))
	res := c.ProcessImage(context.Background(), testBitmap(t))
	checkInvariants(t, res, cfg.MaxCaptionWords)

	o := res.Signals.OCR
	if !o.Triggered || o.TriggerReason != model.TriggerUserEnabled {
		t.Fatalf("expected user-enabled OCR, got %+v", o)
	}
	want := "first line of text second line of text third line of text"
	if o.ExtractedText != want {
		t.Errorf("ExtractedText = %q, want %q", o.ExtractedText, want)
	}
	if len(o.TextSummary) > cfg.MaxOCRSummaryLength+3 {
		t.Errorf("summary %q exceeds %d+3", o.TextSummary, cfg.MaxOCRSummaryLength)
	}
	if strings.Contains(res.Caption, "line") {
		t.Errorf("caption must not quote recognized text: %q", res.Caption)
	}
}

func TestProcessImage_FatalInput(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		bitmap model.ImageBitmap
	}{
		{"empty data", model.ImageBitmap{MimeType: "image/png"}},
		{"unsupported mime", model.ImageBitmap{Data: []byte("%PDF-1.4"), MimeType: "application/pdf"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			c := newTestCaptioner(t, config.NewConfig(), WithProviders(personLaptopProviders()))
			res := c.ProcessImage(context.Background(), tc.bitmap)
			if res == nil {
				t.Fatal("result must never be nil")
			}
			if res.Success || res.Error == "" {
				t.Errorf("expected failure with error, got %+v", res)
			}
			if res.Caption != model.MinimalSafeCaption || res.Confidence != 0 || !res.RecommendCloudEscalation {
				t.Errorf("expected safe failure, got %+v", res)
			}
			if tm, _ := res.Timing(model.StageNormalize); tm.Status != model.StageFailed {
				t.Errorf("expected normalize failed, got %+v", tm)
			}
			if tm, _ := res.Timing(model.StageQualityGate); tm.Status != model.StageSkipped {
				t.Errorf("expected gate skipped, got %+v", tm)
			}
		})
	}
}

func TestProcessImage_UndecodableUsesPlaceholder(t *testing.T) {
	t.Parallel()

	c := newTestCaptioner(t, config.NewConfig(), WithProviders(personLaptopProviders()))
	res := c.ProcessImage(context.Background(), model.ImageBitmap{Data: []byte("not really a png"), MimeType: "image/png", Width: 10, Height: 10})
	if !res.Success {
		t.Fatalf("decode failure must not be fatal: %q", res.Error)
	}
	if !res.Signals.Image.Placeholder {
		t.Error("expected placeholder image")
	}
}

func TestProcessImage_PanickingClassifier(t *testing.T) {
	t.Parallel()

	providers := personLaptopProviders()
	providers.Classifier = func(context.Context) (capability.Classifier, error) {
		return capability.ClassifierFunc(func(context.Context, model.Tensor) ([]capability.Prediction, error) {
			panic("inference crashed")
		}), nil
	}
	c := newTestCaptioner(t, config.NewConfig(), WithProviders(providers))
	res := c.ProcessImage(context.Background(), testBitmap(t))
	if !res.Success {
		t.Fatalf("classifier panic must not be fatal: %q", res.Error)
	}
	if res.Signals.Classification.ModelAvailable {
		t.Error("crashed classifier should report unavailable")
	}
}

func TestUpdateConfig(t *testing.T) {
	t.Parallel()

	var loads atomic.Int32
	providers := personLaptopProviders()
	inner := providers.Classifier
	providers.Classifier = func(ctx context.Context) (capability.Classifier, error) {
		loads.Add(1)
		return inner(ctx)
	}

	c := newTestCaptioner(t, config.NewConfig(), WithProviders(providers))
	first := c.ProcessImage(context.Background(), testBitmap(t))
	if first.Signals.OCR.Triggered {
		t.Fatal("OCR should not run by default")
	}

	t.Run("invalid config is rejected", func(t *testing.T) {
		bad := c.Config()
		bad.QualityThreshold = 3
		if err := c.UpdateConfig(bad); !errors.Is(err, config.ErrInvalidQualityThreshold) {
			t.Errorf("expected ErrInvalidQualityThreshold, got %v", err)
		}
	})

	updated := c.Config()
	updated.AlwaysRunOCR = true
	updated.QualityThreshold = 0.99
	if err := c.UpdateConfig(updated); err != nil {
		t.Fatalf("UpdateConfig() error = %v", err)
	}

	second := c.ProcessImage(context.Background(), testBitmap(t))
	if second.Signals.OCR.TriggerReason != model.TriggerUserEnabled {
		t.Errorf("update should take effect on the next call, got %+v", second.Signals.OCR)
	}
	if second.Signals.Gate.Threshold != 0.99 {
		t.Errorf("expected threshold 0.99, got %v", second.Signals.Gate.Threshold)
	}
	if got := loads.Load(); got != 1 {
		t.Errorf("classifier should load once across updates, loaded %d times", got)
	}
}

func TestInit(t *testing.T) {
	t.Parallel()

	loadErr := errors.New("model file missing")
	var detectorLoads atomic.Int32
	providers := personLaptopProviders()
	providers.Detector = func(context.Context) (capability.Detector, error) {
		detectorLoads.Add(1)
		return nil, loadErr
	}

	c := newTestCaptioner(t, config.NewConfig(), WithProviders(providers))
	err := c.Init(context.Background())
	if !errors.Is(err, loadErr) {
		t.Fatalf("expected joined load error, got %v", err)
	}

	states := c.ModelStates()
	if states["classifier"] != capability.StateLoaded || states["recognizer"] != capability.StateLoaded {
		t.Errorf("independent loads should succeed, got %v", states)
	}
	if states["detector"] != capability.StateFailed {
		t.Errorf("expected detector failed, got %v", states["detector"])
	}

	res := c.ProcessImage(context.Background(), testBitmap(t))
	if !res.Success || res.Signals.Detection.ModelAvailable {
		t.Errorf("expected success without detection, got %+v", res.Signals.Detection)
	}
	if res.Signals.Confidence.Weights.Detection != 0 {
		t.Errorf("detection weight should be redistributed, got %+v", res.Signals.Confidence.Weights)
	}
	if got := detectorLoads.Load(); got != 1 {
		t.Errorf("failed load should be memoized, loaded %d times", got)
	}
}

type fakeResolver struct {
	resolveFunc func(ctx context.Context, uri string) (model.ImageBitmap, error)
}

func (f *fakeResolver) Resolve(ctx context.Context, uri string) (model.ImageBitmap, error) {
	return f.resolveFunc(ctx, uri)
}

func TestProcessImageFromURI(t *testing.T) {
	t.Parallel()

	t.Run("no resolver", func(t *testing.T) {
		t.Parallel()
		res := newTestCaptioner(t, config.NewConfig()).ProcessImageFromURI(context.Background(), "a.png")
		if res.Success || !strings.Contains(res.Error, ErrNoResolver.Error()) {
			t.Errorf("unexpected result %+v", res)
		}
		if len(res.Timings) != len(model.StageNames()) {
			t.Errorf("expected skipped timings for every stage, got %d", len(res.Timings))
		}
	})

	t.Run("resolve error", func(t *testing.T) {
		t.Parallel()
		r := &fakeResolver{resolveFunc: func(context.Context, string) (model.ImageBitmap, error) {
			return model.ImageBitmap{}, errors.New("no such file")
		}}
		res := newTestCaptioner(t, config.NewConfig(), WithResolver(r)).ProcessImageFromURI(context.Background(), "missing.png")
		if res.Success || res.Caption != model.MinimalSafeCaption {
			t.Errorf("unexpected result %+v", res)
		}
	})

	t.Run("delegates to ProcessImage", func(t *testing.T) {
		t.Parallel()
		bitmap := testBitmap(t)
		r := &fakeResolver{resolveFunc: func(_ context.Context, uri string) (model.ImageBitmap, error) {
			if uri != "photo.png" {
				t.Errorf("unexpected uri %q", uri)
			}
			return bitmap, nil
		}}
		c := newTestCaptioner(t, config.NewConfig(), WithResolver(r), WithProviders(personLaptopProviders()))
		res := c.ProcessImageFromURI(context.Background(), "photo.png")
		if res.Caption != "A person using a laptop." {
			t.Errorf("unexpected caption %q", res.Caption)
		}
	})
}

// identityWords must never appear in a caption.
var identityWords = map[string]bool{
	"man": true, "men": true, "woman": true, "women": true, "boy": true,
	"boys": true, "girl": true, "girls": true, "child": true,
	"children": true, "male": true, "female": true, "old": true,
	"young": true, "elderly": true, "happy": true, "sad": true,
	"angry": true, "smiling": true, "crying": true, "black": true,
	"white": true, "asian": true, "beautiful": true, "ugly": true,
}

func TestProcessImage_FreeFormLabelsStayNeutral(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		label      string
		wantPeople bool
	}{
		{"smiling woman", true},
		{"women", true},
		{"men", true},
		{"children", true},
		{"girls", true},
		{"old man", true},
		{"Young_Boy", true},
		{"happy", false},
		{"beautiful", false},
		{"crying", false},
		{"angry dog", false},
	}
	for _, tc := range testCases {
		t.Run(tc.label, func(t *testing.T) {
			t.Parallel()

			cfg := config.NewConfig()
			c := newTestCaptioner(t, cfg, WithProviders(Providers{
				Classifier: classifierReturning(
					capability.Prediction{Label: tc.label, Confidence: 0.95},
					capability.Prediction{Label: "cup", Confidence: 0.2},
				),
				Detector:   detectorReturning(),
				Recognizer: recognizerReturning(capability.Recognition{}),
			}))
			res := c.ProcessImage(context.Background(), testBitmap(t))
			checkInvariants(t, res, cfg.MaxCaptionWords)

			for _, text := range []string{res.Caption, res.Signals.Caption.Text} {
				for _, w := range strings.Fields(text) {
					if identityWords[strings.ToLower(strings.Trim(w, ".,!?;:"))] {
						t.Errorf("caption %q contains %q", text, w)
					}
				}
			}
			if got := res.Signals.Semantic.PersonCount > 0; got != tc.wantPeople {
				t.Errorf("person present = %v, want %v (caption %q)", got, tc.wantPeople, res.Caption)
			}
		})
	}

	t.Run("plural detector labels are counted", func(t *testing.T) {
		t.Parallel()

		c := newTestCaptioner(t, config.NewConfig(), WithProviders(Providers{
			Classifier: classifierReturning(),
			Detector: detectorReturning(
				capability.Detection{Label: "women", Confidence: 0.9, Box: geometry.PixelBox{X: 0, Y: 0, Width: 40, Height: 80}},
				capability.Detection{Label: "old man", Confidence: 0.8, Box: geometry.PixelBox{X: 50, Y: 0, Width: 40, Height: 80}},
			),
			Recognizer: recognizerReturning(capability.Recognition{}),
		}))
		res := c.ProcessImage(context.Background(), testBitmap(t))
		if res.Signals.Semantic.PersonCount != 2 {
			t.Errorf("expected 2 people, got %d (caption %q)", res.Signals.Semantic.PersonCount, res.Caption)
		}
		if got := res.Signals.Caption.Text; got != "Two people." {
			t.Errorf("synthesized caption = %q, want %q", got, "Two people.")
		}
	})
}

package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/nao1215/captioner/internal/capability"
	"github.com/nao1215/captioner/internal/geometry"
	"github.com/nao1215/captioner/internal/model"
	"golang.org/x/text/language"
	"gonum.org/v1/gonum/stat"
)

// Params are the per-configuration settings of the adapter.
type Params struct {
	AlwaysRun        bool
	MaxSummaryLength int

	// Language is the default language tag of recognized blocks.
	Language string
}

// Adapter runs the text recognition capability.
type Adapter struct {
	loader *capability.Lazy[capability.Recognizer]
	params Params
	logger *slog.Logger
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the adapter logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Adapter) {
		a.logger = logger
	}
}

// New creates an Adapter. loader may be nil.
func New(loader *capability.Lazy[capability.Recognizer], params Params, opts ...Option) *Adapter {
	a := &Adapter{loader: loader, params: params}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	return a
}

// ShouldRun returns the trigger decision for the classification result.
func (a *Adapter) ShouldRun(cls model.ClassificationResult) model.TriggerReason {
	return Trigger(cls, a.params.AlwaysRun)
}

// NotTriggered returns the result for a run where OCR was skipped. The
// engine counts as available unless it is unconfigured or known to have
// failed; a skipped run does not force a load.
func (a *Adapter) NotTriggered() model.OCRResult {
	available := a.loader != nil && a.loader.State() != capability.StateFailed
	return model.NotTriggered(available)
}

// Recognize runs OCR on img. reason must be a triggering reason.
func (a *Adapter) Recognize(ctx context.Context, img *model.NormalizedImage, reason model.TriggerReason) model.OCRResult {
	result := model.OCRResult{
		Triggered:     true,
		TriggerReason: reason,
		Success:       true,
		Blocks:        []model.TextBlock{},
	}

	if a.loader == nil {
		result.Note = "no text recognizer configured"
		return result
	}
	recognizer, err := a.loader.Get(ctx)
	if err != nil {
		result.Note = err.Error()
		return result
	}
	result.EngineAvailable = true

	transport, err := ToTransport(img)
	if err != nil {
		result.Note = err.Error()
		return result
	}

	rec, err := safeRecognize(ctx, recognizer, transport.Data)
	transport.Data = nil
	if err != nil {
		a.logger.Warn("text recognition failed", "error", err, "representation", transport.Source)
		result.EngineAvailable = false
		result.Note = fmt.Sprintf("text recognition failed: %v", err)
		return result
	}

	result.Blocks = a.blocks(rec, transport)
	if len(result.Blocks) > 0 {
		result.ExtractedText = CombineBlocks(result.Blocks)
	} else {
		result.ExtractedText = strings.TrimSpace(rec.Text)
	}
	result.TextSummary = Summarize(result.ExtractedText, a.params.MaxSummaryLength)
	result.HasMeaningfulText = IsMeaningful(Clean(result.ExtractedText))
	result.Confidence = meanConfidence(result.Blocks, rec.Confidence)
	for _, b := range result.Blocks {
		if IsMeaningful(Clean(b.Text)) {
			result.MeaningfulBlockCount++
		}
	}
	return result
}

// Run triggers and runs OCR in one call.
func (a *Adapter) Run(ctx context.Context, img *model.NormalizedImage, cls model.ClassificationResult) model.OCRResult {
	reason := a.ShouldRun(cls)
	if !reason.Triggered() {
		return a.NotTriggered()
	}
	return a.Recognize(ctx, img, reason)
}

func (a *Adapter) blocks(rec capability.Recognition, t Transport) []model.TextBlock {
	out := make([]model.TextBlock, 0, len(rec.Blocks))
	for _, b := range rec.Blocks {
		text := strings.TrimSpace(b.Text)
		if text == "" {
			continue
		}
		out = append(out, model.TextBlock{
			Text:       text,
			Confidence: clamp01(b.Confidence),
			Box:        geometry.Normalize(b.Box, t.Width, t.Height),
			Language:   canonicalLanguage(b.Language, a.params.Language),
		})
	}
	if len(out) == 0 && strings.TrimSpace(rec.Text) != "" {
		out = append(out, model.TextBlock{
			Text:       strings.TrimSpace(rec.Text),
			Confidence: clamp01(rec.Confidence),
			Box:        model.BoundingBox{Width: 1, Height: 1},
			Language:   canonicalLanguage("", a.params.Language),
		})
	}
	return out
}

// canonicalLanguage returns the BCP 47 form of tag, falling back to def and
// finally to "und".
func canonicalLanguage(tag, def string) string {
	for _, candidate := range []string{tag, def} {
		if candidate == "" {
			continue
		}
		if t, err := language.Parse(candidate); err == nil {
			return t.String()
		}
	}
	return language.Und.String()
}

func meanConfidence(blocks []model.TextBlock, fallback float64) float64 {
	if len(blocks) == 0 {
		return clamp01(fallback)
	}
	confs := make([]float64, len(blocks))
	for i, b := range blocks {
		confs[i] = b.Confidence
	}
	return stat.Mean(confs, nil)
}

func safeRecognize(ctx context.Context, r capability.Recognizer, data []byte) (rec capability.Recognition, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("recognizer panicked: %v", p)
		}
	}()
	return r.Recognize(ctx, data)
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

package pipeline

import (
	"context"

	"github.com/nao1215/captioner/internal/gate"
	"github.com/nao1215/captioner/internal/model"
)

// run is the state of one ProcessImage call.
type run struct {
	comps   *components
	bitmap  model.ImageBitmap
	image   *model.NormalizedImage
	signals model.SignalBreakdown
	tmpl    model.TemplateID
	gated   bool
}

func newRun(comps *components, bitmap model.ImageBitmap) *run {
	return &run{
		comps:  comps,
		bitmap: bitmap,
		signals: model.SignalBreakdown{
			Classification: model.ClassificationResult{Labels: []model.Label{}},
			Detection:      model.DetectionResult{Objects: []model.DetectedObject{}},
			OCR:            model.NotTriggered(false),
			Semantic: model.SemanticDescription{
				ImageType:   model.ImageTypeUnknown,
				Environment: model.EnvironmentUnknown,
			},
			Caption: model.SynthesizedCaption{Text: model.MinimalSafeCaption, TemplateID: model.TemplateGeneric},
		},
		tmpl: model.TemplateGeneric,
	}
}

// release returns the normalized image buffers. It is safe to call twice.
func (r *run) release() {
	if r.image != nil {
		r.comps.normalizer.Release(r.image)
		r.image = nil
	}
}

// captionStages returns the nine caption stages in execution order.
// Only normalization is required.
func captionStages() []Stage[run] {
	return []Stage[run]{
		{Name: model.StageNormalize, Required: true, Run: normalizeStage},
		{Name: model.StageClassify, Run: classifyStage},
		{Name: model.StageDetect, Run: detectStage},
		{Name: model.StageOCR, Run: ocrStage},
		{Name: model.StageSemantic, Run: semanticStage},
		{Name: model.StageTemplate, Run: templateStage},
		{Name: model.StageSynthesize, Run: synthesizeStage},
		{Name: model.StageScore, Run: scoreStage},
		{Name: model.StageQualityGate, Run: gateStage},
	}
}

func normalizeStage(_ context.Context, r *run) error {
	img, err := r.comps.normalizer.Normalize(r.bitmap)
	if err != nil {
		return err
	}
	r.image = img
	r.signals.Image = img.Info()
	return nil
}

func classifyStage(ctx context.Context, r *run) error {
	r.signals.Classification = r.comps.classify.Classify(ctx, r.image)
	return nil
}

func detectStage(ctx context.Context, r *run) error {
	r.signals.Detection = r.comps.detect.Detect(ctx, r.image)
	return nil
}

// ocrStage runs OCR when triggered. The normalized image is released when
// the stage ends, since no later stage reads pixels.
func ocrStage(ctx context.Context, r *run) error {
	defer r.release()

	reason := r.comps.ocr.ShouldRun(r.signals.Classification)
	if !reason.Triggered() {
		r.signals.OCR = r.comps.ocr.NotTriggered()
		return ErrStageSkipped
	}
	r.signals.OCR = r.comps.ocr.Recognize(ctx, r.image, reason)
	return nil
}

func semanticStage(_ context.Context, r *run) error {
	s := r.signals
	r.signals.Semantic = r.comps.semantic.Normalize(s.Classification, s.Detection, s.OCR)
	return nil
}

func templateStage(_ context.Context, r *run) error {
	r.tmpl = r.comps.synth.Select(r.signals.Semantic)
	return nil
}

func synthesizeStage(_ context.Context, r *run) error {
	r.signals.Caption = r.comps.synth.Render(r.tmpl, r.signals.Semantic)
	return nil
}

func scoreStage(_ context.Context, r *run) error {
	s := r.signals
	r.signals.Confidence = r.comps.scorer.Score(s.Classification, s.Detection, s.OCR, s.Semantic)
	return nil
}

func gateStage(_ context.Context, r *run) error {
	r.signals.Gate = gate.Evaluate(r.signals.Caption, r.signals.Confidence, r.comps.gate)
	r.gated = true
	return nil
}

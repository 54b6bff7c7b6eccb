// Package classify adapts an external image classifier to the pipeline.
//
// The adapter loads the classifier lazily, filters predictions by the
// configured threshold, normalizes label text and keeps the top N. An
// unavailable or failing model never fails the pipeline: the adapter
// reports success with no labels and a note.
package classify

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/nao1215/captioner/internal/capability"
	"github.com/nao1215/captioner/internal/labels"
	"github.com/nao1215/captioner/internal/model"
)

// Params are the per-configuration settings of the adapter.
type Params struct {
	Threshold float64
	MaxLabels int
}

// Adapter runs the classification capability.
type Adapter struct {
	loader *capability.Lazy[capability.Classifier]
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

// New creates an Adapter. loader may be nil, in which case every call
// reports the model as unavailable.
func New(loader *capability.Lazy[capability.Classifier], params Params, opts ...Option) *Adapter {
	a := &Adapter{loader: loader, params: params}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	return a
}

// Classify labels the normalized image.
func (a *Adapter) Classify(ctx context.Context, img *model.NormalizedImage) model.ClassificationResult {
	if a.loader == nil {
		return unavailable("no classifier configured")
	}
	classifier, err := a.loader.Get(ctx)
	if err != nil {
		return unavailable(err.Error())
	}
	if img == nil {
		return unavailable("no image to classify")
	}

	preds, err := safeClassify(ctx, classifier, img.Tensor)
	if err != nil {
		a.logger.Warn("classification failed", "error", err)
		return unavailable(fmt.Sprintf("classification failed: %v", err))
	}

	result := model.ClassificationResult{
		Labels:         Filter(preds, a.params),
		Success:        true,
		ModelAvailable: true,
	}
	if img.Placeholder {
		result.Note = "image could not be decoded; labels come from a placeholder"
	}
	return result
}

// Filter applies the threshold, normalizes and de-duplicates labels, sorts
// them by descending confidence and keeps at most MaxLabels.
func Filter(preds []capability.Prediction, params Params) []model.Label {
	best := make(map[string]float64, len(preds))
	for _, p := range preds {
		if math.IsNaN(p.Confidence) || p.Confidence < params.Threshold {
			continue
		}
		text := labels.Normalize(p.Label)
		if text == "" {
			continue
		}
		conf := math.Min(1, math.Max(0, p.Confidence))
		if prev, ok := best[text]; !ok || conf > prev {
			best[text] = conf
		}
	}

	out := make([]model.Label, 0, len(best))
	for text, conf := range best {
		out = append(out, model.Label{Text: text, Confidence: conf})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].Text < out[j].Text
	})
	if params.MaxLabels > 0 && len(out) > params.MaxLabels {
		out = out[:params.MaxLabels]
	}
	return out
}

func safeClassify(ctx context.Context, c capability.Classifier, t model.Tensor) (preds []capability.Prediction, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("classifier panicked: %v", r)
		}
	}()
	return c.Classify(ctx, t)
}

func unavailable(note string) model.ClassificationResult {
	return model.ClassificationResult{
		Labels:         []model.Label{},
		Success:        true,
		ModelAvailable: false,
		Note:           note,
	}
}

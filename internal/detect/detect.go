// Package detect adapts an external object detector to the pipeline.
//
// Detector boxes arrive in the pixel space of the original image and leave
// as image-relative boxes in [0,1]. Results are filtered by threshold,
// sorted by confidence and capped.
package detect

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/nao1215/captioner/internal/capability"
	"github.com/nao1215/captioner/internal/geometry"
	"github.com/nao1215/captioner/internal/labels"
	"github.com/nao1215/captioner/internal/model"
)

// Params are the per-configuration settings of the adapter.
type Params struct {
	Threshold  float64
	MaxObjects int
}

// Adapter runs the detection capability.
type Adapter struct {
	loader *capability.Lazy[capability.Detector]
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
func New(loader *capability.Lazy[capability.Detector], params Params, opts ...Option) *Adapter {
	a := &Adapter{loader: loader, params: params}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	return a
}

// Detect finds objects in the normalized image.
func (a *Adapter) Detect(ctx context.Context, img *model.NormalizedImage) model.DetectionResult {
	if a.loader == nil {
		return unavailable("no detector configured")
	}
	detector, err := a.loader.Get(ctx)
	if err != nil {
		return unavailable(err.Error())
	}
	if img == nil {
		return unavailable("no image to run detection on")
	}

	dets, err := safeDetect(ctx, detector, img.Tensor)
	if err != nil {
		a.logger.Warn("detection failed", "error", err)
		return unavailable(fmt.Sprintf("detection failed: %v", err))
	}

	return model.DetectionResult{
		Objects:        Filter(dets, img.OriginalWidth, img.OriginalHeight, a.params),
		Success:        true,
		ModelAvailable: true,
	}
}

// Filter normalizes boxes against the original image dimensions, drops
// detections below the threshold, sorts by descending confidence and caps
// the count.
func Filter(dets []capability.Detection, origW, origH int, params Params) []model.DetectedObject {
	out := make([]model.DetectedObject, 0, len(dets))
	for _, d := range dets {
		if math.IsNaN(d.Confidence) || d.Confidence < params.Threshold {
			continue
		}
		label := labels.Normalize(d.Label)
		if label == "" {
			continue
		}
		out = append(out, model.DetectedObject{
			Label:      label,
			Confidence: math.Min(1, math.Max(0, d.Confidence)),
			Box:        geometry.Normalize(d.Box, origW, origH),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})
	if params.MaxObjects > 0 && len(out) > params.MaxObjects {
		out = out[:params.MaxObjects]
	}
	return out
}

func safeDetect(ctx context.Context, d capability.Detector, t model.Tensor) (dets []capability.Detection, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("detector panicked: %v", r)
		}
	}()
	return d.Detect(ctx, t)
}

func unavailable(note string) model.DetectionResult {
	return model.DetectionResult{
		Objects:        []model.DetectedObject{},
		Success:        true,
		ModelAvailable: false,
		Note:           note,
	}
}

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/nao1215/captioner/internal/capability"
	"github.com/nao1215/captioner/internal/caption"
	"github.com/nao1215/captioner/internal/classify"
	"github.com/nao1215/captioner/internal/config"
	"github.com/nao1215/captioner/internal/detect"
	"github.com/nao1215/captioner/internal/gate"
	"github.com/nao1215/captioner/internal/model"
	"github.com/nao1215/captioner/internal/normalize"
	"github.com/nao1215/captioner/internal/ocr"
	"github.com/nao1215/captioner/internal/scoring"
	"github.com/nao1215/captioner/internal/semantic"
	"golang.org/x/sync/errgroup"
)

// Version is the pipeline version stamped on every result.
const Version = "0.1.0"

// Resolver reads the image behind a URI.
type Resolver interface {
	Resolve(ctx context.Context, uri string) (model.ImageBitmap, error)
}

// Providers are the loaders of the external capabilities. A nil loader
// means the capability is not configured and is reported as unavailable.
type Providers struct {
	Classifier capability.LoadFunc[capability.Classifier]
	Detector   capability.LoadFunc[capability.Detector]
	Recognizer capability.LoadFunc[capability.Recognizer]
}

// components are the per-configuration stage collaborators. A set is built
// for every configuration and swapped as a whole.
type components struct {
	cfg        config.Config
	pipeline   *Pipeline[run]
	normalizer *normalize.Normalizer
	classify   *classify.Adapter
	detect     *detect.Adapter
	ocr        *ocr.Adapter
	semantic   *semantic.Normalizer
	synth      *caption.Synthesizer
	scorer     *scoring.Scorer
	gate       gate.Params
}

// Captioner turns images into captions. It is safe for concurrent use.
type Captioner struct {
	comps atomic.Pointer[components]

	classifier *capability.Lazy[capability.Classifier]
	detector   *capability.Lazy[capability.Detector]
	recognizer *capability.Lazy[capability.Recognizer]

	providers Providers
	resolver  Resolver
	logger    *slog.Logger
	now       func() time.Time
}

// CaptionerOption configures a Captioner.
type CaptionerOption func(*Captioner)

// WithCaptionerLogger sets the logger of the Captioner and its adapters.
func WithCaptionerLogger(logger *slog.Logger) CaptionerOption {
	return func(c *Captioner) {
		c.logger = logger
	}
}

// WithProviders sets the capability loaders.
func WithProviders(p Providers) CaptionerOption {
	return func(c *Captioner) {
		c.providers = p
	}
}

// WithResolver sets the resolver used by ProcessImageFromURI.
func WithResolver(r Resolver) CaptionerOption {
	return func(c *Captioner) {
		c.resolver = r
	}
}

// WithCaptionerClock replaces the clock used for timestamps and timings.
func WithCaptionerClock(now func() time.Time) CaptionerOption {
	return func(c *Captioner) {
		c.now = now
	}
}

// NewCaptioner validates cfg and creates a Captioner. Models are loaded on
// first use, or eagerly with Init. The model retry policy is taken from cfg
// and kept for the lifetime of the Captioner.
func NewCaptioner(cfg config.Config, opts ...CaptionerOption) (*Captioner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	c := &Captioner{}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.now == nil {
		c.now = time.Now
	}

	policy := capability.RetryPolicy{
		MaxRetries: cfg.ModelRetry.MaxRetries,
		Backoff:    cfg.ModelRetry.Backoff,
	}
	if c.providers.Classifier != nil {
		c.classifier = capability.NewLazy("classifier", c.providers.Classifier,
			capability.WithRetryPolicy[capability.Classifier](policy))
	}
	if c.providers.Detector != nil {
		c.detector = capability.NewLazy("detector", c.providers.Detector,
			capability.WithRetryPolicy[capability.Detector](policy))
	}
	if c.providers.Recognizer != nil {
		c.recognizer = capability.NewLazy("recognizer", c.providers.Recognizer,
			capability.WithRetryPolicy[capability.Recognizer](policy))
	}

	c.comps.Store(c.buildComponents(cfg, nil))
	return c, nil
}

// buildComponents creates the stage collaborators for cfg. The normalizer
// of prev is reused when the target size is unchanged so its buffer pool
// survives the update.
func (c *Captioner) buildComponents(cfg config.Config, prev *components) *components {
	normalizer := normalize.New(cfg.TargetSize, normalize.WithLogger(c.logger))
	if prev != nil && prev.normalizer.TargetSize() == cfg.TargetSize {
		normalizer = prev.normalizer
	}
	return &components{
		cfg:        cfg,
		pipeline:   New(captionStages(), WithLogger(c.logger), WithDebug(cfg.Debug), WithClock(c.now)),
		normalizer: normalizer,
		classify: classify.New(c.classifier, classify.Params{
			Threshold: cfg.ClassificationThreshold,
			MaxLabels: cfg.MaxLabels,
		}, classify.WithLogger(c.logger)),
		detect: detect.New(c.detector, detect.Params{
			Threshold:  cfg.DetectionThreshold,
			MaxObjects: cfg.MaxObjects,
		}, detect.WithLogger(c.logger)),
		ocr: ocr.New(c.recognizer, ocr.Params{
			AlwaysRun:        cfg.AlwaysRunOCR,
			MaxSummaryLength: cfg.MaxOCRSummaryLength,
			Language:         cfg.OCRLanguage,
		}, ocr.WithLogger(c.logger)),
		semantic: semantic.New(),
		synth:    caption.New(cfg.MaxCaptionWords),
		scorer:   scoring.New(),
		gate: gate.Params{
			Threshold:      cfg.QualityThreshold,
			BorderlinePass: cfg.BorderlinePass,
		},
	}
}

// Config returns the active configuration.
func (c *Captioner) Config() config.Config {
	return c.comps.Load().cfg
}

// UpdateConfig validates cfg and makes it the active configuration for
// every later call. Calls already running keep the configuration they
// started with. Loaded models are kept.
func (c *Captioner) UpdateConfig(cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	c.comps.Store(c.buildComponents(cfg, c.comps.Load()))
	return nil
}

// Init loads the configured models concurrently. A failed load is logged
// and memoized and does not stop the other loads; the Captioner stays
// usable with the remaining signals. The returned error joins every load
// failure.
func (c *Captioner) Init(ctx context.Context) error {
	var g errgroup.Group
	errs := make([]error, 3)

	g.Go(func() error {
		errs[0] = load(ctx, c.classifier, c.logger)
		return nil
	})
	g.Go(func() error {
		errs[1] = load(ctx, c.detector, c.logger)
		return nil
	})
	g.Go(func() error {
		errs[2] = load(ctx, c.recognizer, c.logger)
		return nil
	})
	_ = g.Wait() //nolint:errcheck // loads report through errs

	return errors.Join(errs...)
}

func load[T any](ctx context.Context, l *capability.Lazy[T], logger *slog.Logger) error {
	if l == nil {
		return nil
	}
	if _, err := l.Get(ctx); err != nil {
		logger.Warn("model load failed", "model", l.Name(), "error", err)
		return err
	}
	logger.Debug("model loaded", "model", l.Name())
	return nil
}

// ProcessImage captions bitmap. It never returns nil. Invalid input gives
// a safe-failure result with the minimal caption and confidence 0.
func (c *Captioner) ProcessImage(ctx context.Context, bitmap model.ImageBitmap) *model.PipelineResult {
	start := c.now()
	comps := c.comps.Load()

	r := newRun(comps, bitmap)
	defer r.release()

	timings, err := comps.pipeline.Execute(ctx, r)
	if err != nil {
		res := model.NewFailureResult(err, Version, timings)
		res.TotalDuration = c.now().Sub(start)
		res.Timestamp = c.now().UTC()
		return res
	}

	res := c.assemble(r)
	res.Timings = timings
	res.TotalDuration = c.now().Sub(start)
	if comps.cfg.Debug {
		c.logger.Debug("caption finished",
			"template", res.Signals.Caption.TemplateID,
			"confidence", res.Confidence,
			"passed", res.Signals.Gate.Passed,
			"duration", res.TotalDuration,
		)
	}
	return res
}

// assemble builds the result of a run whose required stages completed.
// A run whose gate did not complete falls back to the minimal caption.
func (c *Captioner) assemble(r *run) *model.PipelineResult {
	signals := r.signals
	if !r.gated {
		signals.Gate = model.QualityGateResult{
			Threshold:                r.comps.gate.Threshold,
			Confidence:               signals.Confidence.Score,
			RecommendCloudEscalation: true,
			Reason:                   "quality gate did not complete",
			FinalCaption:             model.MinimalSafeCaption,
		}
	}

	text := signals.Gate.FinalCaption
	if text == "" {
		text = model.MinimalSafeCaption
	}
	return &model.PipelineResult{
		Caption:                  text,
		Confidence:               signals.Confidence.Score,
		Signals:                  signals,
		Success:                  true,
		RecommendCloudEscalation: signals.Gate.RecommendCloudEscalation,
		Version:                  Version,
		Timestamp:                c.now().UTC(),
	}
}

// ProcessImageFromURI resolves uri and captions the image. Resolution
// failures give a safe-failure result.
func (c *Captioner) ProcessImageFromURI(ctx context.Context, uri string) *model.PipelineResult {
	if c.resolver == nil {
		return c.FailureResult(fmt.Errorf("%s: %w", uri, ErrNoResolver))
	}
	bitmap, err := c.resolver.Resolve(ctx, uri)
	if err != nil {
		c.logger.Warn("image could not be resolved", "uri", uri, "error", err)
		return c.FailureResult(err)
	}
	return c.ProcessImage(ctx, bitmap)
}

// FailureResult returns the safe-failure result for an image that could
// not be read. Every stage is reported as skipped.
func (c *Captioner) FailureResult(err error) *model.PipelineResult {
	names := c.comps.Load().pipeline.StageNames()
	timings := make([]model.StageTiming, len(names))
	for i, n := range names {
		timings[i] = model.StageTiming{Stage: n, Status: model.StageSkipped}
	}
	res := model.NewFailureResult(err, Version, timings)
	res.Timestamp = c.now().UTC()
	return res
}

// ModelStates reports the load state of each configured model by name.
func (c *Captioner) ModelStates() map[string]capability.State {
	states := make(map[string]capability.State, 3)
	if c.classifier != nil {
		states[c.classifier.Name()] = c.classifier.State()
	}
	if c.detector != nil {
		states[c.detector.Name()] = c.detector.State()
	}
	if c.recognizer != nil {
		states[c.recognizer.Name()] = c.recognizer.State()
	}
	return states
}

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/captioner/internal/model"
)

// ErrStageSkipped is returned by a stage that decided not to do its work.
// The stage is recorded as skipped rather than failed.
var ErrStageSkipped = errors.New("stage skipped")

// Stage describes one step of the pipeline over the run state S.
// Stages are plain values so that the whole stage list of a run can be
// declared in one table.
type Stage[S any] struct {
	// Name identifies the stage in timings and logs.
	Name model.StageName

	// Required stages abort the run when they fail. The remaining stages
	// are recorded as skipped.
	Required bool

	// Run executes the stage. It returns ErrStageSkipped when the stage
	// decided not to do its work, and any other error when it failed. A nil
	// Run counts as skipped.
	Run func(ctx context.Context, state *S) error
}

// Pipeline orchestrates the execution of multiple stages.
// It holds an immutable list of stages and executes them in order.
type Pipeline[S any] struct {
	// stages contains the ordered list of stages to execute.
	stages []Stage[S]

	// logger is used for structured logging during execution.
	logger *slog.Logger

	// debug enables one debug line per finished stage.
	debug bool

	// now is the clock used for stage timings.
	now func() time.Time
}

// Option is a function that configures a Pipeline.
// This follows the functional options pattern.
type Option func(*settings)

// settings collects the options before the Pipeline is built.
type settings struct {
	logger *slog.Logger
	debug  bool
	now    func() time.Time
}

// WithLogger sets a custom logger for the pipeline.
// If not set, slog.Default is used.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithDebug enables a debug line per stage with its status and duration.
func WithDebug(debug bool) Option {
	return func(s *settings) {
		s.debug = debug
	}
}

// WithClock replaces the clock used for timings.
// Tests use it to get deterministic durations.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		s.now = now
	}
}

// New creates a Pipeline with the given stages.
// The stage slice is copied, so later changes by the caller have no effect.
func New[S any](stages []Stage[S], opts ...Option) *Pipeline[S] {
	s := settings{}
	for _, opt := range opts {
		opt(&s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return &Pipeline[S]{
		stages: append([]Stage[S](nil), stages...),
		logger: s.logger,
		debug:  s.debug,
		now:    s.now,
	}
}

// Execute runs every stage in sequence and returns one timing per stage in
// stage order. A panic inside a stage is recovered and treated as a stage
// error. The returned error is the error of the first failed required
// stage, or nil.
func (p *Pipeline[S]) Execute(ctx context.Context, state *S) ([]model.StageTiming, error) {
	timings := make([]model.StageTiming, 0, len(p.stages))
	var fatal error

	for _, stage := range p.stages {
		if fatal != nil {
			timings = append(timings, model.StageTiming{Stage: stage.Name, Status: model.StageSkipped})
			continue
		}

		start := p.now()
		err := runStage(ctx, stage, state)
		timing := model.StageTiming{
			Stage:    stage.Name,
			Status:   model.StageCompleted,
			Duration: p.now().Sub(start),
		}

		switch {
		case err == nil:
		case errors.Is(err, ErrStageSkipped):
			timing.Status = model.StageSkipped
		default:
			timing.Status = model.StageFailed
			timing.Error = err.Error()
			if stage.Required {
				fatal = fmt.Errorf("%s: %w", stage.Name, err)
				p.logger.Error("required stage failed", "stage", stage.Name, "error", err)
			} else {
				p.logger.Warn("stage failed", "stage", stage.Name, "error", err)
			}
		}

		if p.debug {
			p.logger.Debug("stage finished",
				"stage", stage.Name,
				"status", timing.Status,
				"duration", timing.Duration,
			)
		}
		timings = append(timings, timing)
	}

	return timings, fatal
}

// StageCount returns the number of stages.
func (p *Pipeline[S]) StageCount() int {
	return len(p.stages)
}

// StageNames returns the stage names in execution order.
func (p *Pipeline[S]) StageNames() []model.StageName {
	names := make([]model.StageName, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name
	}
	return names
}

// runStage runs one stage and converts a panic into an error.
func runStage[S any](ctx context.Context, stage Stage[S], state *S) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	if stage.Run == nil {
		return ErrStageSkipped
	}
	return stage.Run(ctx, state)
}

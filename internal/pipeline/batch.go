package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/captioner/internal/model"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of images captioned at once when no
// concurrency is configured.
const DefaultConcurrency = 4

// URIProcessor captions the image behind a URI. *Captioner implements it.
type URIProcessor interface {
	ProcessImageFromURI(ctx context.Context, uri string) *model.PipelineResult
}

// BatchProcessor captions many images concurrently.
// Each image runs its own sequential pipeline; only whole images run in
// parallel.
type BatchProcessor struct {
	// processor captions a single URI.
	processor URIProcessor

	// concurrency is the maximum number of images captioned at once.
	concurrency int

	// logger is used for batch progress logging.
	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of images captioned at once.
// Non-positive values keep the default.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a BatchProcessor over processor.
func NewBatchProcessor(processor URIProcessor, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		processor:   processor,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	return bp
}

// ProcessBatch captions every URI and returns the results in input order.
// Images not started before ctx is cancelled have a nil result, and the
// context error is returned.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, uris []string) ([]*model.PipelineResult, error) {
	results := make([]*model.PipelineResult, len(uris))
	err := bp.ProcessBatchWithCallback(ctx, uris, func(res *model.PipelineResult, index int) {
		results[index] = res
	})
	return results, err
}

// ProcessBatchWithCallback captions every URI and calls callback with each
// result and the index of its URI. callback is called from the worker
// goroutine and must be safe for concurrent use.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	uris []string,
	callback func(res *model.PipelineResult, index int),
) error {
	bp.logger.Info("starting batch",
		"total_images", len(uris),
		"concurrency", bp.concurrency,
	)
	startTime := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, uri := range uris {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			res := bp.processor.ProcessImageFromURI(ctx, uri)
			if !res.Success {
				bp.logger.Warn("image failed", "uri", uri, "error", res.Error)
			} else {
				bp.logger.Debug("image captioned",
					"uri", uri,
					"index", i+1,
					"total", len(uris),
					"confidence", res.Confidence,
				)
			}
			callback(res, i)
			return nil
		})
	}

	err := g.Wait()
	bp.logger.Info("batch complete",
		"total_images", len(uris),
		"elapsed", time.Since(startTime),
	)
	return err
}

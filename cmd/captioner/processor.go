package main

import (
	"context"
	"log/slog"
	"sync"

	"github.com/nao1215/captioner/internal/database"
	"github.com/nao1215/captioner/internal/metadata"
	"github.com/nao1215/captioner/internal/model"
	"github.com/nao1215/captioner/internal/pipeline"
)

// imageCaptioner is the part of *pipeline.Captioner the recorder needs.
type imageCaptioner interface {
	ProcessImage(ctx context.Context, bitmap model.ImageBitmap) *model.PipelineResult
	FailureResult(err error) *model.PipelineResult
}

// historyStore is the part of *database.CaptionDB the recorder needs.
type historyStore interface {
	History(ctx context.Context, imageID string) ([]database.HistoryEntry, error)
}

// pendingRecord is what the recorder learned about one input.
type pendingRecord struct {
	record *model.CaptionRecord
	phash  string

	// cached is set when the result was read back from history.
	cached bool
}

// recorder captions URIs and keeps the fingerprint and embedded metadata of
// each input for the report and the history database.
type recorder struct {
	captioner     imageCaptioner
	resolver      pipeline.Resolver
	store         historyStore
	skipProcessed bool
	readMetadata  bool
	logger        *slog.Logger

	mu      sync.Mutex
	records map[string]*pendingRecord
}

var _ pipeline.URIProcessor = (*recorder)(nil)

func newRecorder(c imageCaptioner, r pipeline.Resolver, store historyStore, logger *slog.Logger) *recorder {
	return &recorder{
		captioner:    c,
		resolver:     r,
		store:        store,
		readMetadata: true,
		logger:       logger,
		records:      make(map[string]*pendingRecord),
	}
}

// ProcessImageFromURI resolves uri, fingerprints the bytes and captions the
// image. With skipProcessed set, an image already in history is not
// captioned again and its latest stored result is returned.
func (r *recorder) ProcessImageFromURI(ctx context.Context, uri string) *model.PipelineResult {
	pending := &pendingRecord{record: &model.CaptionRecord{Source: uri}}

	bitmap, err := r.resolver.Resolve(ctx, uri)
	if err != nil {
		r.logger.Warn("image could not be resolved", "uri", uri, "error", err)
		pending.record.Result = r.captioner.FailureResult(err)
		r.put(uri, pending)
		return pending.record.Result
	}

	fp := database.NewFingerprint(bitmap.Data)
	pending.record.ImageID = fp.ID
	pending.phash = fp.PHash
	if r.readMetadata {
		if embedded := metadata.Read(bitmap.Data, bitmap.MimeType); !embedded.Empty() {
			pending.record.EmbeddedDescription = embedded.Description
		}
		pending.record.PrivacyExposures = metadata.ExposureStrings(metadata.Exposures(bitmap.Data))
	}

	if stored := r.stored(ctx, fp.ID); stored != nil {
		r.logger.Debug("image already captioned", "uri", uri, "image_id", fp.ID)
		pending.record.Result = stored
		pending.cached = true
		r.put(uri, pending)
		return stored
	}

	pending.record.Result = r.captioner.ProcessImage(ctx, bitmap)
	r.put(uri, pending)
	return pending.record.Result
}

// stored returns the latest stored result for imageID when skipping is
// enabled, or nil.
func (r *recorder) stored(ctx context.Context, imageID string) *model.PipelineResult {
	if !r.skipProcessed || r.store == nil {
		return nil
	}
	entries, err := r.store.History(ctx, imageID)
	if err != nil {
		r.logger.Warn("failed to read caption history", "image_id", imageID, "error", err)
		return nil
	}
	if len(entries) == 0 {
		return nil
	}
	return entries[len(entries)-1].Result
}

func (r *recorder) put(uri string, p *pendingRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[uri] = p
}

// take returns and forgets the record of uri. A URI that was never
// processed gets a record around res.
func (r *recorder) take(uri string, res *model.PipelineResult) *pendingRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.records[uri]
	if !ok {
		return &pendingRecord{record: &model.CaptionRecord{Source: uri, Result: res}}
	}
	delete(r.records, uri)
	return p
}

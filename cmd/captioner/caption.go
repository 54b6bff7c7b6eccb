package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/nao1215/captioner/internal/config"
	"github.com/nao1215/captioner/internal/database"
	"github.com/nao1215/captioner/internal/model"
	"github.com/nao1215/captioner/internal/pipeline"
	"github.com/nao1215/captioner/internal/report"
	"github.com/nao1215/captioner/internal/source"
	"github.com/spf13/cobra"
)

// NewCaptionCmd creates the caption command.
func NewCaptionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "caption [image...]",
		Short: "Caption one or more images",
		Long: `Caption runs the on-device pipeline on every image and prints the caption,
its confidence and the quality gate decision.

Images are file paths, file:// URIs or data: URIs. http(s) URLs are only
read with --allow-remote.

Captions are stored in the history database unless --no-db is given, so
later runs can be compared with 'captioner history'.

Examples:
  # Caption a single image
  captioner caption photo.jpg

  # Caption a directory of images, four at a time
  captioner caption --batch 4 images/*.png

  # Use a local Ollama vision model for labels and objects
  captioner caption --ollama-host http://127.0.0.1:11434 --ollama-model llava --ollama-detect photo.jpg

  # Write a Markdown report
  captioner caption -m -o reports/captions.md images/*.jpg

  # Skip images already captioned in an earlier run
  captioner caption --skip-processed images/*.jpg`,
		Args: cobra.ArbitraryArgs,
		RunE: runCaptionCmd,
	}

	// Pipeline flags
	cmd.Flags().Int("target-size", config.DefaultTargetSize,
		"Edge length images are resized to before inference")
	cmd.Flags().Float64("classification-threshold", config.DefaultClassificationThreshold,
		"Minimum classifier confidence kept")
	cmd.Flags().Float64("detection-threshold", config.DefaultDetectionThreshold,
		"Minimum detector confidence kept")
	cmd.Flags().Int("max-labels", config.DefaultMaxLabels,
		"Maximum number of classifier labels kept")
	cmd.Flags().Int("max-objects", config.DefaultMaxObjects,
		"Maximum number of detected objects kept")
	cmd.Flags().Float64("quality-threshold", config.DefaultQualityThreshold,
		"Minimum confidence for a caption to pass the quality gate")
	cmd.Flags().Bool("always-ocr", false,
		"Run text recognition on every image")
	cmd.Flags().Int("ocr-summary-length", config.DefaultMaxOCRSummaryLength,
		"Character limit of the recognized text summary")
	cmd.Flags().Int("max-words", config.DefaultMaxCaptionWords,
		"Word limit of a caption")
	cmd.Flags().Bool("borderline-pass", true,
		"Pass captions just below the threshold when a strong signal backs them")
	cmd.Flags().String("ocr-language", config.DefaultOCRLanguage,
		"Language tag assumed for recognized text")
	cmd.Flags().Bool("debug", false,
		"Log every pipeline stage")
	cmd.Flags().Int("model-retries", 0,
		"Number of times a model that failed to load is loaded again")
	cmd.Flags().Duration("model-retry-backoff", config.DefaultModelRetryBackoff,
		"Delay before the first model reload; doubled for every later reload")

	// Provider flags
	cmd.Flags().String("ollama-host", "",
		"Base URL of a local Ollama server (e.g., http://127.0.0.1:11434)")
	cmd.Flags().String("ollama-model", "",
		"Ollama vision model name (e.g., llava)")
	cmd.Flags().Bool("ollama-detect", false,
		"Also detect objects with the Ollama model")
	cmd.Flags().String("onnx-model", "",
		"Path of an ONNX image classification model")
	cmd.Flags().String("onnx-labels", "",
		"Path of the label file of the ONNX model, one label per line")
	cmd.Flags().StringSlice("tesseract-lang", nil,
		"Tesseract language codes (e.g., eng,deu)")

	// Input flags
	cmd.Flags().Bool("allow-remote", false,
		"Allow reading images from http(s) URLs")
	cmd.Flags().Bool("no-metadata", false,
		"Do not read descriptions embedded in image metadata")
	cmd.Flags().Bool("preload", false,
		"Load every configured model before the first image")

	// Batch flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of images captioned concurrently")

	// History flags
	cmd.Flags().Bool("no-db", false,
		"Do not store captions in the history database")
	cmd.Flags().Bool("skip-processed", false,
		"Reuse the stored caption of images already in the history database")
	addConfigFlags(cmd)

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.MarkFlagsMutuallyExclusive("json", "markdown")

	return cmd
}

// captionOptions are the command settings that are not pipeline config.
type captionOptions struct {
	batch         int
	allowRemote   bool
	readMetadata  bool
	preload       bool
	saveToDB      bool
	skipProcessed bool
	jsonReport    bool
	markdown      bool
	reportFile    string
	verbose       bool
}

// runCaptionCmd executes the caption command.
func runCaptionCmd(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd, os.LookupEnv)
	if err != nil {
		return err
	}
	if err := s.pipeline.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	opts, err := readCaptionOptions(cmd)
	if err != nil {
		return err
	}

	logger := setupLogger(cmd)

	// Set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runCaption(ctx, cmd, s, opts, dedupe(args), logger)
}

func readCaptionOptions(cmd *cobra.Command) (captionOptions, error) {
	flags := cmd.Flags()
	var (
		opts captionOptions
		errs []error
		err  error
	)
	opts.batch, err = flags.GetInt("batch")
	errs = append(errs, err)
	opts.allowRemote, err = flags.GetBool("allow-remote")
	errs = append(errs, err)
	noMetadata, err := flags.GetBool("no-metadata")
	errs = append(errs, err)
	opts.readMetadata = !noMetadata
	opts.preload, err = flags.GetBool("preload")
	errs = append(errs, err)
	noDB, err := flags.GetBool("no-db")
	errs = append(errs, err)
	opts.saveToDB = !noDB
	opts.skipProcessed, err = flags.GetBool("skip-processed")
	errs = append(errs, err)
	opts.jsonReport, err = flags.GetBool("json")
	errs = append(errs, err)
	opts.markdown, err = flags.GetBool("markdown")
	errs = append(errs, err)
	opts.reportFile, err = flags.GetString("output")
	errs = append(errs, err)
	opts.verbose = getVerboseFlag(cmd)

	if err := errors.Join(errs...); err != nil {
		return opts, err
	}
	if opts.skipProcessed && !opts.saveToDB {
		return opts, errors.New("--skip-processed needs the history database (remove --no-db)")
	}
	return opts, nil
}

// runCaption captions every target and writes the report.
func runCaption(ctx context.Context, cmd *cobra.Command, s *settings, opts captionOptions, targets []string, logger *slog.Logger) error {
	if len(targets) == 0 {
		return errors.New("no images provided (specify one or more image paths or URIs as arguments)")
	}

	logger.Info("starting caption run",
		"images", len(targets),
		"batchSize", opts.batch,
		"saveToDB", opts.saveToDB,
	)

	// Open database connection if saving is enabled
	var db *database.CaptionDB
	if opts.saveToDB {
		var err error
		db, err = database.Open(s.dbDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "dir", s.dbDir)
	}

	captioner, err := pipeline.NewCaptioner(s.pipeline,
		pipeline.WithCaptionerLogger(logger),
		pipeline.WithProviders(buildProviders(s.providers, logger)),
	)
	if err != nil {
		return fmt.Errorf("failed to create captioner: %w", err)
	}
	if opts.preload {
		if err := captioner.Init(ctx); err != nil {
			logger.Warn("some models are unavailable", "error", err)
		}
	}

	resolver := source.NewResolver(
		source.WithAllowRemote(opts.allowRemote),
		source.WithLogger(logger),
	)
	rec := newRecorder(captioner, resolver, nil, logger)
	rec.readMetadata = opts.readMetadata
	if db != nil {
		rec.store = db
		rec.skipProcessed = opts.skipProcessed
	}

	records, err := captionBatch(ctx, cmd.ErrOrStderr(), rec, targets, db, opts.batch, logger)
	if err != nil && len(records) == 0 {
		return err
	}

	if reportErr := writeReport(cmd.OutOrStdout(), opts, records); reportErr != nil {
		return errors.Join(err, reportErr)
	}
	return err
}

// captionBatch captions targets concurrently and returns the records in
// input order. Targets not started before ctx is cancelled are left out.
func captionBatch(
	ctx context.Context,
	progress io.Writer,
	rec *recorder,
	targets []string,
	db *database.CaptionDB,
	concurrency int,
	logger *slog.Logger,
) ([]*model.CaptionRecord, error) {
	bp := pipeline.NewBatchProcessor(rec,
		pipeline.WithConcurrency(concurrency),
		pipeline.WithBatchLogger(logger),
	)

	startTime := time.Now()
	ordered := make([]*model.CaptionRecord, len(targets))

	var mu sync.Mutex
	done := 0
	err := bp.ProcessBatchWithCallback(ctx, targets, func(res *model.PipelineResult, index int) {
		pending := rec.take(targets[index], res)
		if err := saveRecord(ctx, db, pending, logger); err != nil {
			logger.Error("failed to save caption", "source", targets[index], "error", err)
		}

		mu.Lock()
		defer mu.Unlock()
		ordered[index] = pending.record
		done++
		if len(targets) > 1 {
			fmt.Fprintf(progress, "[%d/%d] %s: %s\n", done, len(targets), status(pending), targets[index])
		}
	})

	if len(targets) > 1 {
		fmt.Fprintf(progress, "Captioned %d images in %s\n\n", done, time.Since(startTime).Round(time.Millisecond))
	}

	records := make([]*model.CaptionRecord, 0, len(ordered))
	for _, r := range ordered {
		if r != nil {
			records = append(records, r)
		}
	}
	return records, err
}

func status(p *pendingRecord) string {
	switch {
	case p.cached:
		return "cached"
	case p.record.Result == nil || !p.record.Result.Success:
		return "failed"
	default:
		return "captioned"
	}
}

// saveRecord saves a freshly captioned image to the database.
// If db is nil, this function is a no-op. Cached results and images that
// could not be read are not saved.
func saveRecord(ctx context.Context, db *database.CaptionDB, p *pendingRecord, logger *slog.Logger) error {
	if db == nil || p.cached || p.record.ImageID == "" || p.record.Result == nil {
		return nil
	}
	if err := db.SaveRecord(ctx, p.record, p.phash); err != nil {
		return fmt.Errorf("failed to save caption: %w", err)
	}
	logger.Debug("caption saved to database", "source", p.record.Source)
	return nil
}

// writeReport writes records in the requested format to the report file,
// or to stdout when no file is set.
func writeReport(stdout io.Writer, opts captionOptions, records []*model.CaptionRecord) error {
	output := stdout
	if opts.reportFile != "" {
		// Create directories if they don't exist
		dir := filepath.Dir(opts.reportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Reports may quote embedded image descriptions, so only the owner
		// can read them.
		f, err := os.OpenFile(opts.reportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	var writer report.Writer
	switch {
	case opts.jsonReport:
		writer = report.NewFullJSONWriter(output, pipeline.Version, report.WithPrettyPrint())
	case opts.markdown:
		writer = report.NewMarkdownWriter(output)
	default:
		writer = report.NewSimpleWriter(output, report.WithVerbose(opts.verbose))
	}
	_, err := writer.Write(records)
	return err
}

// dedupe drops repeated targets, keeping the first occurrence.
func dedupe(targets []string) []string {
	seen := make(map[string]bool, len(targets))
	out := make([]string, 0, len(targets))
	for _, t := range targets {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

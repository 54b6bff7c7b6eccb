package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "captioner"

	// DefaultTargetSize is the square edge length of the model input tensor.
	// 224 matches the input size of common mobile classification models.
	DefaultTargetSize = 224

	// DefaultClassificationThreshold drops classifier labels below this confidence.
	DefaultClassificationThreshold = 0.1

	// DefaultDetectionThreshold drops detections below this confidence.
	DefaultDetectionThreshold = 0.3

	// DefaultMaxLabels caps the number of classifier labels kept.
	DefaultMaxLabels = 10

	// DefaultMaxObjects caps the number of detected objects kept.
	DefaultMaxObjects = 10

	// DefaultQualityThreshold is the minimum fused confidence for a caption
	// to pass the quality gate.
	DefaultQualityThreshold = 0.5

	// DefaultMaxOCRSummaryLength is the character limit of the OCR text summary.
	DefaultMaxOCRSummaryLength = 150

	// DefaultMaxCaptionWords is the word limit of a synthesized caption.
	DefaultMaxCaptionWords = 20

	// DefaultOCRLanguage is the language tag assumed for recognized text.
	DefaultOCRLanguage = "en"

	// DefaultModelRetryBackoff is the base delay between model load retries
	// when retries are enabled.
	DefaultModelRetryBackoff = 30 * time.Second

	// DefaultBatchSize is the number of images captioned concurrently.
	DefaultBatchSize = 4
)

// RetryPolicy controls whether a failed model load is attempted again.
// The zero value memoizes the first failure permanently.
type RetryPolicy struct {
	// MaxRetries is the number of additional load attempts after the first
	// failure. Zero disables retries.
	MaxRetries int `yaml:"maxRetries,omitempty"`

	// Backoff is the delay before the first retry. Each later retry doubles it.
	Backoff time.Duration `yaml:"backoff,omitempty"`
}

// Config holds the pipeline configuration.
type Config struct {
	// TargetSize is the square edge length images are resized to.
	TargetSize int

	// ClassificationThreshold is the minimum classifier confidence kept.
	ClassificationThreshold float64

	// DetectionThreshold is the minimum detector confidence kept.
	DetectionThreshold float64

	// MaxLabels caps the classifier labels after filtering.
	MaxLabels int

	// MaxObjects caps the detected objects after filtering.
	MaxObjects int

	// QualityThreshold is the pass mark of the quality gate.
	QualityThreshold float64

	// AlwaysRunOCR runs OCR on every image regardless of classifier hints.
	AlwaysRunOCR bool

	// MaxOCRSummaryLength is the character limit of the OCR summary.
	MaxOCRSummaryLength int

	// MaxCaptionWords is the word limit of the caption.
	MaxCaptionWords int

	// Debug enables per-stage debug logging in the orchestrator.
	Debug bool

	// BorderlinePass lets captions slightly below QualityThreshold pass
	// with an escalation recommendation when a strong signal backs them.
	BorderlinePass bool

	// OCRLanguage is the default language tag of recognized text.
	OCRLanguage string

	// ModelRetry controls reloading of models that failed to load.
	ModelRetry RetryPolicy
}

// NewConfig creates a new Config with default values.
func NewConfig() Config {
	return Config{
		TargetSize:              DefaultTargetSize,
		ClassificationThreshold: DefaultClassificationThreshold,
		DetectionThreshold:      DefaultDetectionThreshold,
		MaxLabels:               DefaultMaxLabels,
		MaxObjects:              DefaultMaxObjects,
		QualityThreshold:        DefaultQualityThreshold,
		MaxOCRSummaryLength:     DefaultMaxOCRSummaryLength,
		MaxCaptionWords:         DefaultMaxCaptionWords,
		BorderlinePass:          true,
		OCRLanguage:             DefaultOCRLanguage,
		ModelRetry: RetryPolicy{
			MaxRetries: 0,
			Backoff:    DefaultModelRetryBackoff,
		},
	}
}

// XDGDataDir returns the XDG data directory for captioner.
// On Linux: ~/.local/share/captioner
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for captioner.
// On Linux: ~/.config/captioner
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for captioner.
// Model files downloaded by providers are kept here.
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the sentinel error of the first invalid field.
func (c Config) Validate() error {
	if c.TargetSize <= 0 {
		return ErrInvalidTargetSize
	}
	if !inUnitRange(c.ClassificationThreshold) {
		return ErrInvalidClassificationThreshold
	}
	if !inUnitRange(c.DetectionThreshold) {
		return ErrInvalidDetectionThreshold
	}
	if c.MaxLabels <= 0 {
		return ErrInvalidMaxLabels
	}
	if c.MaxObjects <= 0 {
		return ErrInvalidMaxObjects
	}
	if !inUnitRange(c.QualityThreshold) {
		return ErrInvalidQualityThreshold
	}
	if c.MaxOCRSummaryLength <= 0 {
		return ErrInvalidOCRSummaryLength
	}
	if c.MaxCaptionWords <= 0 {
		return ErrInvalidCaptionWords
	}
	if c.ModelRetry.MaxRetries < 0 || c.ModelRetry.Backoff < 0 {
		return ErrInvalidRetryPolicy
	}
	return nil
}

func inUnitRange(v float64) bool {
	return v >= 0 && v <= 1
}

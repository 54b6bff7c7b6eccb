package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable read by captioner.
const EnvPrefix = "CAPTIONER_"

// LookupFunc looks up an environment variable. os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// LoadDotEnv loads variables from the given .env files into the process
// environment. Missing files are ignored; existing variables are not overwritten.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv returns a copy of base with CAPTIONER_* overrides applied.
// It fails on the first value that does not parse.
func ApplyEnv(base Config, lookup LookupFunc) (Config, error) {
	cfg := base
	var err error

	ints := map[string]*int{
		"TARGET_SIZE":            &cfg.TargetSize,
		"MAX_LABELS":             &cfg.MaxLabels,
		"MAX_OBJECTS":            &cfg.MaxObjects,
		"MAX_OCR_SUMMARY_LENGTH": &cfg.MaxOCRSummaryLength,
		"MAX_CAPTION_WORDS":      &cfg.MaxCaptionWords,
		"MODEL_MAX_RETRIES":      &cfg.ModelRetry.MaxRetries,
	}
	for name, dst := range ints {
		if v, ok := lookup(EnvPrefix + name); ok {
			if *dst, err = strconv.Atoi(strings.TrimSpace(v)); err != nil {
				return base, fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
			}
		}
	}

	floats := map[string]*float64{
		"CLASSIFICATION_THRESHOLD": &cfg.ClassificationThreshold,
		"DETECTION_THRESHOLD":      &cfg.DetectionThreshold,
		"QUALITY_THRESHOLD":        &cfg.QualityThreshold,
	}
	for name, dst := range floats {
		if v, ok := lookup(EnvPrefix + name); ok {
			if *dst, err = strconv.ParseFloat(strings.TrimSpace(v), 64); err != nil {
				return base, fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
			}
		}
	}

	bools := map[string]*bool{
		"ALWAYS_RUN_OCR":  &cfg.AlwaysRunOCR,
		"DEBUG":           &cfg.Debug,
		"BORDERLINE_PASS": &cfg.BorderlinePass,
	}
	for name, dst := range bools {
		if v, ok := lookup(EnvPrefix + name); ok {
			if *dst, err = strconv.ParseBool(strings.TrimSpace(v)); err != nil {
				return base, fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
			}
		}
	}

	if v, ok := lookup(EnvPrefix + "OCR_LANGUAGE"); ok {
		cfg.OCRLanguage = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvPrefix + "MODEL_RETRY_BACKOFF"); ok {
		if cfg.ModelRetry.Backoff, err = time.ParseDuration(strings.TrimSpace(v)); err != nil {
			return base, fmt.Errorf("%sMODEL_RETRY_BACKOFF: %w", EnvPrefix, err)
		}
	}
	return cfg, nil
}

// ApplyProviderEnv returns a copy of p with provider overrides applied.
// OLLAMA_HOST is honored when CAPTIONER_OLLAMA_HOST is not set.
func ApplyProviderEnv(p ProvidersConfig, lookup LookupFunc) ProvidersConfig {
	out := p
	if v, ok := lookup(EnvPrefix + "OLLAMA_HOST"); ok {
		out.Ollama.Host = v
	} else if v, ok := lookup("OLLAMA_HOST"); ok && out.Ollama.Host == "" {
		out.Ollama.Host = v
	}
	if v, ok := lookup(EnvPrefix + "OLLAMA_MODEL"); ok {
		out.Ollama.Model = v
	}
	if v, ok := lookup(EnvPrefix + "ONNX_MODEL"); ok {
		out.ONNX.ModelPath = v
	}
	if v, ok := lookup(EnvPrefix + "ONNX_LABELS"); ok {
		out.ONNX.LabelsPath = v
	}
	if v, ok := lookup(EnvPrefix + "ONNX_LIBRARY"); ok {
		out.ONNX.LibraryPath = v
	}
	if v, ok := lookup("TESSDATA_PREFIX"); ok && out.Tesseract.TessdataPrefix == "" {
		out.Tesseract.TessdataPrefix = v
	}
	return out
}

package main

import (
	"errors"
	"fmt"

	"github.com/nao1215/captioner/internal/config"
	"github.com/spf13/cobra"
)

// settings is the resolved configuration of one command run.
// Sources are applied in order: defaults, config file, environment, flags.
type settings struct {
	pipeline   config.Config
	providers  config.ProvidersConfig
	dbDir      string
	configPath string
}

// addConfigFlags adds the flags shared by commands that read the config
// file and the history database.
func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .captioner.yaml in current or home directory)")
	cmd.Flags().String("db-dir", "",
		"Directory of the caption history database (default: XDG data directory)")
}

// loadSettings resolves the settings for cmd. An explicitly named config
// file must exist; otherwise a missing file means defaults.
func loadSettings(cmd *cobra.Command, lookup config.LookupFunc) (*settings, error) {
	s := &settings{
		pipeline: config.NewConfig(),
		dbDir:    config.XDGDataDir(),
	}

	configFlag, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	s.configPath = config.FindConfigFile(configFlag)
	switch {
	case s.configPath != "":
		file, err := config.LoadConfigFile(s.configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", s.configPath, err)
		}
		s.pipeline = file.Pipeline.Apply(s.pipeline)
		s.providers = file.Providers
		if file.DBDir != "" {
			s.dbDir = file.DBDir
		}
	case configFlag != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, configFlag)
	}

	if s.pipeline, err = config.ApplyEnv(s.pipeline, lookup); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}
	s.providers = config.ApplyProviderEnv(s.providers, lookup)
	if v, ok := lookup(config.EnvPrefix + "DB_DIR"); ok && v != "" {
		s.dbDir = v
	}

	if err := applyFlags(cmd, s); err != nil {
		return nil, err
	}
	return s, nil
}

// applyFlags overrides s with every flag the user set explicitly.
// Commands without pipeline flags only get --db-dir applied.
func applyFlags(cmd *cobra.Command, s *settings) error {
	flags := cmd.Flags()
	var errs []error

	str := func(name string, dst *string) {
		if flags.Lookup(name) != nil && flags.Changed(name) {
			v, err := flags.GetString(name)
			errs = append(errs, err)
			*dst = v
		}
	}
	integer := func(name string, dst *int) {
		if flags.Lookup(name) != nil && flags.Changed(name) {
			v, err := flags.GetInt(name)
			errs = append(errs, err)
			*dst = v
		}
	}
	float := func(name string, dst *float64) {
		if flags.Lookup(name) != nil && flags.Changed(name) {
			v, err := flags.GetFloat64(name)
			errs = append(errs, err)
			*dst = v
		}
	}
	boolean := func(name string, dst *bool) {
		if flags.Lookup(name) != nil && flags.Changed(name) {
			v, err := flags.GetBool(name)
			errs = append(errs, err)
			*dst = v
		}
	}

	p := &s.pipeline
	str("db-dir", &s.dbDir)
	integer("target-size", &p.TargetSize)
	float("classification-threshold", &p.ClassificationThreshold)
	float("detection-threshold", &p.DetectionThreshold)
	integer("max-labels", &p.MaxLabels)
	integer("max-objects", &p.MaxObjects)
	float("quality-threshold", &p.QualityThreshold)
	boolean("always-ocr", &p.AlwaysRunOCR)
	integer("ocr-summary-length", &p.MaxOCRSummaryLength)
	integer("max-words", &p.MaxCaptionWords)
	boolean("debug", &p.Debug)
	boolean("borderline-pass", &p.BorderlinePass)
	str("ocr-language", &p.OCRLanguage)
	integer("model-retries", &p.ModelRetry.MaxRetries)
	if flags.Lookup("model-retry-backoff") != nil && flags.Changed("model-retry-backoff") {
		v, err := flags.GetDuration("model-retry-backoff")
		errs = append(errs, err)
		p.ModelRetry.Backoff = v
	}

	pr := &s.providers
	str("ollama-host", &pr.Ollama.Host)
	str("ollama-model", &pr.Ollama.Model)
	boolean("ollama-detect", &pr.Ollama.Detect)
	str("onnx-model", &pr.ONNX.ModelPath)
	str("onnx-labels", &pr.ONNX.LabelsPath)
	if flags.Lookup("tesseract-lang") != nil && flags.Changed("tesseract-lang") {
		v, err := flags.GetStringSlice("tesseract-lang")
		errs = append(errs, err)
		pr.Tesseract.Languages = v
	}

	return errors.Join(errs...)
}

package config

import "time"

// PipelineOverrides holds optional pipeline settings from the config file.
// Nil fields keep the value of the base Config.
type PipelineOverrides struct {
	TargetSize              *int         `yaml:"targetSize,omitempty"`
	ClassificationThreshold *float64     `yaml:"classificationThreshold,omitempty"`
	DetectionThreshold      *float64     `yaml:"detectionThreshold,omitempty"`
	MaxLabels               *int         `yaml:"maxLabels,omitempty"`
	MaxObjects              *int         `yaml:"maxObjects,omitempty"`
	QualityThreshold        *float64     `yaml:"qualityThreshold,omitempty"`
	AlwaysRunOCR            *bool        `yaml:"alwaysRunOCR,omitempty"`
	MaxOCRSummaryLength     *int         `yaml:"maxOCRSummaryLength,omitempty"`
	MaxCaptionWords         *int         `yaml:"maxCaptionWords,omitempty"`
	Debug                   *bool        `yaml:"debug,omitempty"`
	BorderlinePass          *bool        `yaml:"borderlinePass,omitempty"`
	OCRLanguage             *string      `yaml:"ocrLanguage,omitempty"`
	ModelRetry              *RetryPolicy `yaml:"modelRetry,omitempty"`
}

// OllamaConfig configures the local vision-model provider.
type OllamaConfig struct {
	// Host is the base URL of the local Ollama server.
	// Empty disables the provider.
	Host string `yaml:"host,omitempty"`

	// Model is the vision model name, e.g. "llava".
	Model string `yaml:"model,omitempty"`

	// Timeout bounds a single inference request.
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// Detect enables object detection through the same model.
	Detect bool `yaml:"detect,omitempty"`
}

// ONNXConfig configures the ONNX Runtime classifier.
type ONNXConfig struct {
	ModelPath   string `yaml:"modelPath,omitempty"`
	LabelsPath  string `yaml:"labelsPath,omitempty"`
	LibraryPath string `yaml:"libraryPath,omitempty"`
}

// TesseractConfig configures the Tesseract OCR engine.
type TesseractConfig struct {
	// Languages are tesseract language codes, e.g. "eng".
	Languages []string `yaml:"languages,omitempty"`

	// TessdataPrefix overrides the tessdata directory.
	TessdataPrefix string `yaml:"tessdataPrefix,omitempty"`
}

// ProvidersConfig groups the model provider settings.
type ProvidersConfig struct {
	Ollama    OllamaConfig    `yaml:"ollama,omitempty"`
	ONNX      ONNXConfig      `yaml:"onnx,omitempty"`
	Tesseract TesseractConfig `yaml:"tesseract,omitempty"`
}

// File represents the structure of the .captioner.yaml configuration file.
type File struct {
	// Pipeline overrides the default pipeline configuration.
	Pipeline PipelineOverrides `yaml:"pipeline,omitempty"`

	// Providers configures the model providers.
	Providers ProvidersConfig `yaml:"providers,omitempty"`

	// DBDir overrides the directory of the caption history database.
	DBDir string `yaml:"dbDir,omitempty"`
}

// Apply returns a copy of base with every non-nil override applied.
func (o PipelineOverrides) Apply(base Config) Config {
	result := base
	if o.TargetSize != nil {
		result.TargetSize = *o.TargetSize
	}
	if o.ClassificationThreshold != nil {
		result.ClassificationThreshold = *o.ClassificationThreshold
	}
	if o.DetectionThreshold != nil {
		result.DetectionThreshold = *o.DetectionThreshold
	}
	if o.MaxLabels != nil {
		result.MaxLabels = *o.MaxLabels
	}
	if o.MaxObjects != nil {
		result.MaxObjects = *o.MaxObjects
	}
	if o.QualityThreshold != nil {
		result.QualityThreshold = *o.QualityThreshold
	}
	if o.AlwaysRunOCR != nil {
		result.AlwaysRunOCR = *o.AlwaysRunOCR
	}
	if o.MaxOCRSummaryLength != nil {
		result.MaxOCRSummaryLength = *o.MaxOCRSummaryLength
	}
	if o.MaxCaptionWords != nil {
		result.MaxCaptionWords = *o.MaxCaptionWords
	}
	if o.Debug != nil {
		result.Debug = *o.Debug
	}
	if o.BorderlinePass != nil {
		result.BorderlinePass = *o.BorderlinePass
	}
	if o.OCRLanguage != nil {
		result.OCRLanguage = *o.OCRLanguage
	}
	if o.ModelRetry != nil {
		result.ModelRetry = *o.ModelRetry
	}
	return result
}

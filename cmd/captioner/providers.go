package main

import (
	"log/slog"

	"github.com/nao1215/captioner/internal/config"
	"github.com/nao1215/captioner/internal/pipeline"
	"github.com/nao1215/captioner/internal/provider/ollama"
	"github.com/nao1215/captioner/internal/provider/onnx"
	"github.com/nao1215/captioner/internal/provider/tesseract"
)

// buildProviders selects a loader per capability from the provider config.
// An ONNX model takes precedence over Ollama for classification. Detection
// needs Ollama with detection enabled. Text recognition always uses
// Tesseract, which reports itself unavailable when it is not built in.
func buildProviders(p config.ProvidersConfig, logger *slog.Logger) pipeline.Providers {
	var providers pipeline.Providers

	switch {
	case p.ONNX.ModelPath != "":
		providers.Classifier = onnx.Load(p.ONNX)
	case p.Ollama.Host != "":
		providers.Classifier = ollama.LoadClassifier(p.Ollama, ollama.WithLogger(logger))
	}

	if p.Ollama.Host != "" && p.Ollama.Detect {
		providers.Detector = ollama.LoadDetector(p.Ollama, ollama.WithLogger(logger))
	}

	providers.Recognizer = tesseract.Load(p.Tesseract)
	return providers
}

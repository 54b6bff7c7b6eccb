//go:build !onnx

package onnx

import (
	"context"

	"github.com/nao1215/captioner/internal/capability"
	"github.com/nao1215/captioner/internal/config"
)

// Built reports whether the ONNX Runtime binding is compiled in.
const Built = false

// Load returns a loader that always fails with ErrProviderNotBuilt, or
// ErrNotConfigured when no model path is set.
func Load(cfg config.ONNXConfig) capability.LoadFunc[capability.Classifier] {
	return func(context.Context) (capability.Classifier, error) {
		if cfg.ModelPath == "" {
			return nil, capability.ErrNotConfigured
		}
		return nil, capability.ErrProviderNotBuilt
	}
}

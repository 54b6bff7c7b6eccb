//go:build !tesseract

package tesseract

import (
	"context"

	"github.com/nao1215/captioner/internal/capability"
	"github.com/nao1215/captioner/internal/config"
)

// Built reports whether the Tesseract binding is compiled in.
const Built = false

// Load returns a loader that always fails with ErrProviderNotBuilt.
func Load(config.TesseractConfig) capability.LoadFunc[capability.Recognizer] {
	return func(context.Context) (capability.Recognizer, error) {
		return nil, capability.ErrProviderNotBuilt
	}
}

//go:build !tesseract

package tesseract

import (
	"context"
	"errors"
	"testing"

	"github.com/nao1215/captioner/internal/capability"
	"github.com/nao1215/captioner/internal/config"
)

func TestLoad_NotBuilt(t *testing.T) {
	t.Parallel()

	_, err := Load(config.TesseractConfig{})(context.Background())
	if !errors.Is(err, capability.ErrProviderNotBuilt) {
		t.Errorf("expected ErrProviderNotBuilt, got %v", err)
	}
}

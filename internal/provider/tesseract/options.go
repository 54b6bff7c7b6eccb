package tesseract

import (
	"math"
	"strings"

	"github.com/nao1215/captioner/internal/config"
)

// DefaultLanguages are used when the configuration names none.
var DefaultLanguages = []string{"eng"}

// languages returns the configured tesseract languages, or the defaults.
func languages(cfg config.TesseractConfig) []string {
	out := make([]string, 0, len(cfg.Languages))
	for _, l := range cfg.Languages {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	if len(out) == 0 {
		return DefaultLanguages
	}
	return out
}

// scaleConfidence maps a tesseract confidence in [0,100] onto [0,1].
func scaleConfidence(c float64) float64 {
	if math.IsNaN(c) || c <= 0 {
		return 0
	}
	if c >= 100 {
		return 1
	}
	return c / 100
}

//go:build tesseract

package tesseract

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/nao1215/captioner/internal/capability"
	"github.com/nao1215/captioner/internal/config"
	"github.com/nao1215/captioner/internal/geometry"
	"github.com/otiai10/gosseract/v2"
)

// Built reports whether the Tesseract binding is compiled in.
const Built = true

// Recognizer extracts text lines with boxes and confidences.
// Calls are serialized because a gosseract client is not safe for
// concurrent use.
type Recognizer struct {
	mu       sync.Mutex
	client   *gosseract.Client
	language string
}

// Load returns a loader that creates a tesseract client for cfg.
func Load(cfg config.TesseractConfig) capability.LoadFunc[capability.Recognizer] {
	return func(context.Context) (capability.Recognizer, error) {
		r, err := New(cfg)
		if err != nil {
			return nil, err
		}
		return r, nil
	}
}

// New creates a Recognizer for the configured languages.
func New(cfg config.TesseractConfig) (*Recognizer, error) {
	langs := languages(cfg)
	client := gosseract.NewClient()
	if cfg.TessdataPrefix != "" {
		client.TessdataPrefix = cfg.TessdataPrefix
	}
	if err := client.SetLanguage(langs...); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("tesseract language: %w", err)
	}
	return &Recognizer{client: client, language: langs[0]}, nil
}

// Recognize runs OCR on encoded image bytes.
func (r *Recognizer) Recognize(_ context.Context, image []byte) (capability.Recognition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.client.SetImageFromBytes(image); err != nil {
		return capability.Recognition{}, fmt.Errorf("tesseract image: %w", err)
	}
	boxes, err := r.client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return capability.Recognition{}, fmt.Errorf("tesseract lines: %w", err)
	}

	rec := capability.Recognition{Blocks: make([]capability.RecognizedBlock, 0, len(boxes))}
	lines := make([]string, 0, len(boxes))
	var sum float64
	for _, b := range boxes {
		text := strings.TrimSpace(b.Word)
		if text == "" {
			continue
		}
		conf := scaleConfidence(b.Confidence)
		rec.Blocks = append(rec.Blocks, capability.RecognizedBlock{
			Text:       text,
			Confidence: conf,
			Box:        geometry.FromRect(b.Box),
			Language:   r.language,
		})
		lines = append(lines, text)
		sum += conf
	}
	rec.Text = strings.Join(lines, "\n")
	if len(rec.Blocks) > 0 {
		rec.Confidence = sum / float64(len(rec.Blocks))
	}
	return rec, nil
}

// Close releases the tesseract client.
func (r *Recognizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.client.Close()
}

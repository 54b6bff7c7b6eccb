package ocr

import (
	"github.com/nao1215/captioner/internal/labels"
	"github.com/nao1215/captioner/internal/model"
)

// TriggerConfidence is the classifier confidence a text-indicating label
// must exceed to trigger OCR.
const TriggerConfidence = 0.3

// textIndicators are labels and label words that usually mean the image
// shows readable text.
var textIndicators = map[string]bool{
	"text":            true,
	"document":        true,
	"paper":           true,
	"screenshot":      true,
	"sign":            true,
	"signboard":       true,
	"poster":          true,
	"menu":            true,
	"book":            true,
	"page":            true,
	"letter":          true,
	"receipt":         true,
	"invoice":         true,
	"label":           true,
	"newspaper":       true,
	"magazine":        true,
	"whiteboard":      true,
	"blackboard":      true,
	"screen":          true,
	"monitor":         true,
	"website":         true,
	"web site":        true,
	"banner":          true,
	"billboard":       true,
	"font":            true,
	"handwriting":     true,
	"envelope":        true,
	"ticket":          true,
	"calendar":        true,
	"chart":           true,
	"diagram":         true,
	"slide":           true,
	"presentation":    true,
	"brochure":        true,
	"flyer":           true,
	"certificate":     true,
	"form":            true,
	"comic":           true,
	"computer screen": true,
}

// IsTextIndicator reports whether a normalized label, or any of its words,
// indicates visible text.
func IsTextIndicator(label string) bool {
	if textIndicators[label] {
		return true
	}
	for _, w := range labels.Words(label) {
		if textIndicators[w] {
			return true
		}
	}
	return false
}

// Trigger decides whether OCR runs for an image.
func Trigger(cls model.ClassificationResult, alwaysRun bool) model.TriggerReason {
	if alwaysRun {
		return model.TriggerUserEnabled
	}
	for _, l := range cls.Labels {
		if l.Confidence > TriggerConfidence && IsTextIndicator(l.Text) {
			return model.TriggerClassificationHint
		}
	}
	return model.TriggerNotTriggered
}

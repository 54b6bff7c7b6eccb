package model

// BoundingBox is an image-relative box. Every field is in [0,1].
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Label is a normalized classifier label.
type Label struct {
	// Text is lowercase with single spaces, e.g. "cell phone".
	Text string `json:"text"`

	// Confidence is the model score in [0,1].
	Confidence float64 `json:"confidence"`
}

// DetectedObject is a normalized detector output.
type DetectedObject struct {
	// Label is normalized like Label.Text.
	Label string `json:"label"`

	// Confidence is the model score in [0,1].
	Confidence float64 `json:"confidence"`

	// Box is relative to the original image, not to the model input.
	Box BoundingBox `json:"box"`
}

// TextBlock is one recognized text region.
type TextBlock struct {
	// Text is the recognized text. It is never serialized.
	Text string `json:"-"`

	// Confidence is the recognizer score scaled to [0,1].
	Confidence float64 `json:"confidence"`

	// Box is relative to the image handed to the recognizer.
	Box BoundingBox `json:"box"`

	// Language is a BCP 47 tag, "und" when unknown.
	Language string `json:"language,omitempty"`
}

// ClassificationResult is the output of the classification adapter.
type ClassificationResult struct {
	Labels []Label `json:"labels"`

	// Success is false only when the adapter itself could not run.
	// An unavailable model still reports success with no labels.
	Success bool `json:"success"`

	// ModelAvailable reports whether a classifier loaded and ran.
	ModelAvailable bool `json:"model_available"`

	// Note explains an empty result, e.g. why the model is unavailable.
	Note string `json:"note,omitempty"`
}

// TopLabels returns up to n labels from the front of the list.
func (c ClassificationResult) TopLabels(n int) []Label {
	if n >= len(c.Labels) {
		return c.Labels
	}
	return c.Labels[:n]
}

// DetectionResult is the output of the detection adapter.
// Success and ModelAvailable follow the rules of ClassificationResult.
type DetectionResult struct {
	// Objects are sorted by descending confidence.
	Objects        []DetectedObject `json:"objects"`
	Success        bool             `json:"success"`
	ModelAvailable bool             `json:"model_available"`
	Note           string           `json:"note,omitempty"`
}

// TriggerReason explains why OCR did or did not run.
type TriggerReason string

const (
	// TriggerUserEnabled means the always-run-OCR flag was set.
	TriggerUserEnabled TriggerReason = "user_enabled"

	// TriggerClassificationHint means a text-indicating label was seen.
	TriggerClassificationHint TriggerReason = "classification_hint"

	// TriggerNotTriggered means OCR was skipped.
	TriggerNotTriggered TriggerReason = "not_triggered"
)

// String returns the reason code.
func (r TriggerReason) String() string {
	return string(r)
}

// Triggered reports whether the reason means OCR runs.
func (r TriggerReason) Triggered() bool {
	return r == TriggerUserEnabled || r == TriggerClassificationHint
}

// OCRResult is the output of the OCR adapter.
//
// ExtractedText and block texts are excluded from JSON: recognized text may
// carry personal data and only the cleaned summary is exported.
type OCRResult struct {
	Triggered     bool          `json:"triggered"`
	TriggerReason TriggerReason `json:"trigger_reason"`

	// EngineAvailable reports whether a recognizer loaded.
	EngineAvailable bool `json:"engine_available"`

	Success              bool        `json:"success"`
	Blocks               []TextBlock `json:"blocks,omitempty"`
	ExtractedText        string      `json:"-"`
	TextSummary          string      `json:"text_summary,omitempty"`
	Confidence           float64     `json:"confidence"`
	HasMeaningfulText    bool        `json:"has_meaningful_text"`
	MeaningfulBlockCount int         `json:"meaningful_block_count"`
	Note                 string      `json:"note,omitempty"`
}

// HasText reports whether any text was recognized.
func (o OCRResult) HasText() bool {
	return o.ExtractedText != ""
}

// NotTriggered returns the OCR result for a skipped run.
func NotTriggered(engineAvailable bool) OCRResult {
	return OCRResult{
		Triggered:       false,
		TriggerReason:   TriggerNotTriggered,
		EngineAvailable: engineAvailable,
		Success:         true,
	}
}

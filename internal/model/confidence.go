package model

// ConfidenceWeights are the fusion weights of the confidence scorer.
// Active weights always sum to 1, or are all zero when nothing is available.
type ConfidenceWeights struct {
	Classification float64 `json:"classification"`
	Detection      float64 `json:"detection"`
	OCR            float64 `json:"ocr"`
	Consistency    float64 `json:"consistency"`
}

// DefaultConfidenceWeights returns the weights used when every signal is available.
func DefaultConfidenceWeights() ConfidenceWeights {
	return ConfidenceWeights{
		Classification: 0.35,
		Detection:      0.25,
		OCR:            0.15,
		Consistency:    0.25,
	}
}

// Sum returns the total weight.
func (w ConfidenceWeights) Sum() float64 {
	return w.Classification + w.Detection + w.OCR + w.Consistency
}

// ConfidenceBreakdown holds the per-signal sub-scores and the fused score.
type ConfidenceBreakdown struct {
	Classification float64           `json:"classification"`
	Detection      float64           `json:"detection"`
	OCR            float64           `json:"ocr"`
	Consistency    float64           `json:"consistency"`
	Weights        ConfidenceWeights `json:"weights"`
	Score          float64           `json:"score"`
	Note           string            `json:"note,omitempty"`
}

// QualityGateResult is the outcome of the quality gate.
type QualityGateResult struct {
	Passed                   bool    `json:"passed"`
	Borderline               bool    `json:"borderline"`
	Threshold                float64 `json:"threshold"`
	Confidence               float64 `json:"confidence"`
	RecommendCloudEscalation bool    `json:"recommend_cloud_escalation"`
	Reason                   string  `json:"reason"`

	// FinalCaption is the caption to return: the synthesized caption on
	// pass, MinimalSafeCaption on fail.
	FinalCaption string `json:"final_caption"`
}

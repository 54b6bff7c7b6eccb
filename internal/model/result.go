package model

import (
	"time"
)

// StageName names a pipeline stage.
type StageName string

const (
	StageNormalize   StageName = "normalize"
	StageClassify    StageName = "classify"
	StageDetect      StageName = "detect"
	StageOCR         StageName = "ocr"
	StageSemantic    StageName = "semantic"
	StageTemplate    StageName = "template"
	StageSynthesize  StageName = "synthesize"
	StageScore       StageName = "score"
	StageQualityGate StageName = "quality_gate"
)

// StageNames lists every stage in execution order.
func StageNames() []StageName {
	return []StageName{
		StageNormalize,
		StageClassify,
		StageDetect,
		StageOCR,
		StageSemantic,
		StageTemplate,
		StageSynthesize,
		StageScore,
		StageQualityGate,
	}
}

// StageStatus is the terminal status of a stage.
type StageStatus string

const (
	StageCompleted StageStatus = "completed"
	StageFailed    StageStatus = "failed"
	StageSkipped   StageStatus = "skipped"
)

// StageTiming records how one stage ended and how long it took.
type StageTiming struct {
	Stage    StageName     `json:"stage"`
	Status   StageStatus   `json:"status"`
	Duration time.Duration `json:"duration_ns"`
	Error    string        `json:"error,omitempty"`
}

// SignalBreakdown carries every intermediate result of a run.
type SignalBreakdown struct {
	Image          ImageInfo            `json:"image"`
	Classification ClassificationResult `json:"classification"`
	Detection      DetectionResult      `json:"detection"`
	OCR            OCRResult            `json:"ocr"`
	Semantic       SemanticDescription  `json:"semantic"`
	Caption        SynthesizedCaption   `json:"caption"`
	Confidence     ConfidenceBreakdown  `json:"confidence"`
	Gate           QualityGateResult    `json:"gate"`
}

// PipelineResult is the result returned by the orchestrator.
// It is always non-nil, even for fatal input errors.
type PipelineResult struct {
	Caption                  string          `json:"caption"`
	Confidence               float64         `json:"confidence"`
	Signals                  SignalBreakdown `json:"signals"`
	Success                  bool            `json:"success"`
	Error                    string          `json:"error,omitempty"`
	RecommendCloudEscalation bool            `json:"recommend_cloud_escalation"`
	Timings                  []StageTiming   `json:"timings"`
	TotalDuration            time.Duration   `json:"total_duration_ns"`
	Version                  string          `json:"version"`
	Timestamp                time.Time       `json:"timestamp"`
}

// NewFailureResult returns the safe-failure result for a run that could not
// produce any signal. Every sub-result is zeroed and escalation is recommended.
func NewFailureResult(err error, version string, timings []StageTiming) *PipelineResult {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return &PipelineResult{
		Caption:    MinimalSafeCaption,
		Confidence: 0,
		Signals: SignalBreakdown{
			Semantic: SemanticDescription{
				ImageType:   ImageTypeUnknown,
				Environment: EnvironmentUnknown,
			},
			OCR: OCRResult{TriggerReason: TriggerNotTriggered},
			Gate: QualityGateResult{
				Passed:                   false,
				RecommendCloudEscalation: true,
				Reason:                   msg,
				FinalCaption:             MinimalSafeCaption,
			},
		},
		Success:                  false,
		Error:                    msg,
		RecommendCloudEscalation: true,
		Timings:                  timings,
		Version:                  version,
		Timestamp:                time.Now().UTC(),
	}
}

// Timing returns the timing recorded for stage, if any.
func (r *PipelineResult) Timing(stage StageName) (StageTiming, bool) {
	for _, t := range r.Timings {
		if t.Stage == stage {
			return t, true
		}
	}
	return StageTiming{}, false
}

// CaptionRecord is one captioned input as stored in history and reported.
type CaptionRecord struct {
	// Source is the path or URI the image was read from.
	Source string `json:"source"`

	// ImageID is the content-derived id of the image bytes.
	ImageID string `json:"image_id"`

	// EmbeddedDescription is a caption already present in the file metadata.
	EmbeddedDescription string `json:"embedded_description,omitempty"`

	// PrivacyExposures names the kinds of identifying EXIF data the file
	// carries, e.g. "gps" or "serial". Values are never recorded.
	PrivacyExposures []string `json:"privacy_exposures,omitempty"`

	Result *PipelineResult `json:"result"`
}

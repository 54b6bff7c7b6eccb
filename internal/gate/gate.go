package gate

import (
	"fmt"
	"math"
	"strings"

	"github.com/nao1215/captioner/internal/model"
)

const (
	// BorderlineMargin is how far below the threshold a score may be and
	// still pass as borderline.
	BorderlineMargin = 0.1

	// HighSubScore is the sub-score that vouches for a borderline caption.
	// It is below the OCR-specific limit of 0.9, so one check covers both.
	HighSubScore = 0.8

	// Low sub-score limits named in fail reasons.
	LowClassification = 0.3
	LowDetection      = 0.3
	LowConsistency    = 0.4
)

// reliableTemplates are templates whose wording holds even with modest
// confidence.
var reliableTemplates = map[model.TemplateID]bool{
	model.TemplateDocument:   true,
	model.TemplateScreenshot: true,
	model.TemplateTextHeavy:  true,
}

// IsReliable reports whether id is in the reliable template set.
func IsReliable(id model.TemplateID) bool {
	return reliableTemplates[id]
}

// Params configures the gate.
type Params struct {
	// Threshold is the score a caption needs to pass.
	Threshold float64

	// BorderlinePass enables passing scores just below Threshold when one
	// signal is strong or the template is reliable.
	BorderlinePass bool
}

// Evaluate decides whether caption is good enough to return.
func Evaluate(caption model.SynthesizedCaption, b model.ConfidenceBreakdown, p Params) model.QualityGateResult {
	res := model.QualityGateResult{
		Threshold:  p.Threshold,
		Confidence: b.Score,
	}

	if b.Score >= p.Threshold {
		res.Passed = true
		res.FinalCaption = caption.Text
		res.Reason = fmt.Sprintf("confidence %s meets threshold %s", percent(b.Score), percent(p.Threshold))
		return res
	}

	if p.BorderlinePass && b.Score >= p.Threshold-BorderlineMargin {
		if cause := borderlineCause(caption, b); cause != "" {
			res.Passed = true
			res.Borderline = true
			res.RecommendCloudEscalation = true
			res.FinalCaption = caption.Text
			res.Reason = fmt.Sprintf("borderline confidence %s accepted: %s", percent(b.Score), cause)
			return res
		}
	}

	res.RecommendCloudEscalation = true
	res.FinalCaption = model.MinimalSafeCaption
	res.Reason = failReason(b, p.Threshold)
	return res
}

// borderlineCause returns why a borderline score may pass, or "" if it may not.
// Only sub-scores that carry weight are considered.
func borderlineCause(caption model.SynthesizedCaption, b model.ConfidenceBreakdown) string {
	w := b.Weights
	switch {
	case w.Classification > 0 && b.Classification > HighSubScore:
		return "strong classification"
	case w.Detection > 0 && b.Detection > HighSubScore:
		return "strong detection"
	case w.OCR > 0 && b.OCR > HighSubScore:
		return "strong text recognition"
	case w.Consistency > 0 && b.Consistency > HighSubScore:
		return "strong signal agreement"
	case IsReliable(caption.TemplateID):
		return fmt.Sprintf("reliable template %s", caption.TemplateID)
	default:
		return ""
	}
}

func failReason(b model.ConfidenceBreakdown, threshold float64) string {
	var causes []string
	if b.Classification < LowClassification {
		causes = append(causes, fmt.Sprintf("low classification confidence (%s)", percent(b.Classification)))
	}
	if b.Weights.Detection > 0 && b.Detection < LowDetection {
		causes = append(causes, fmt.Sprintf("low detection confidence (%s)", percent(b.Detection)))
	}
	if b.Consistency < LowConsistency {
		causes = append(causes, fmt.Sprintf("low signal consistency (%s)", percent(b.Consistency)))
	}
	if len(causes) == 0 {
		return fmt.Sprintf("confidence %s below threshold %s", percent(b.Score), percent(threshold))
	}
	return strings.Join(causes, "; ")
}

func percent(v float64) string {
	return fmt.Sprintf("%d%%", int(math.Round(v*100)))
}

package report

import (
	"github.com/nao1215/captioner/internal/model"
)

// Summary counts gate outcomes across a set of records.
type Summary struct {
	Total      int `json:"total"`
	Passed     int `json:"passed"`
	Borderline int `json:"borderline"`
	Failed     int `json:"failed"`
	Errors     int `json:"errors"`
	Escalated  int `json:"escalated"`
}

// Summarize counts the outcomes of records. Nil records are ignored.
// Borderline passes are counted in both Passed and Borderline.
func Summarize(records []*model.CaptionRecord) Summary {
	var s Summary
	for _, rec := range records {
		if rec == nil || rec.Result == nil {
			continue
		}
		s.Total++
		res := rec.Result
		switch {
		case !res.Success:
			s.Errors++
		case res.Signals.Gate.Passed:
			s.Passed++
			if res.Signals.Gate.Borderline {
				s.Borderline++
			}
		default:
			s.Failed++
		}
		if res.RecommendCloudEscalation {
			s.Escalated++
		}
	}
	return s
}

// outcome returns a short label for the gate outcome of res.
func outcome(res *model.PipelineResult) string {
	switch {
	case res == nil:
		return "missing"
	case !res.Success:
		return "error"
	case res.Signals.Gate.Borderline:
		return "borderline"
	case res.Signals.Gate.Passed:
		return "passed"
	default:
		return "failed"
	}
}

package scoring

import (
	"math"

	"github.com/nao1215/captioner/internal/model"
	"github.com/nao1215/captioner/internal/semantic"
	"gonum.org/v1/gonum/stat"
)

// Sub-score constants.
const (
	// ClassificationGapFactor scales the gap between the top two labels.
	ClassificationGapFactor = 0.3

	// DetectionCountBonus is added per detected object, up to
	// DetectionCountCap objects.
	DetectionCountBonus = 0.02
	DetectionCountCap   = 5

	// OCRNeutral is the sub-score of OCR that did not run.
	OCRNeutral = 0.5

	// OCREmpty is the sub-score of OCR that ran but found no text.
	OCREmpty = 0.2

	// OCRMeaningfulBonus is added when the recognized text is meaningful.
	OCRMeaningfulBonus = 0.15

	// Consistency components.
	ConsistencyBase      = 0.5
	ConsistencyOverlap   = 0.3
	ConsistencyAgreement = 0.2
	ConsistencyContent   = 0.1

	// ConsistencyOCRFloor is the lowest consistency when recognized text is
	// the only signal.
	ConsistencyOCRFloor = 0.6
)

const (
	ocrOnlyWeight = 0.5

	noteNoSignal         = "no signal source available"
	noteOCROnly          = "classification and detection unavailable, weighting OCR only"
	noteReducedSignalSet = "weights redistributed over available sources"
)

// Scorer computes ConfidenceBreakdowns. It has no state and is safe for
// concurrent use.
type Scorer struct {
	weights model.ConfidenceWeights
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithWeights replaces the default weights. The weights are used as given
// when every source is available and must sum to 1.
func WithWeights(w model.ConfidenceWeights) Option {
	return func(s *Scorer) {
		s.weights = w
	}
}

// New creates a Scorer with the default weights.
func New(opts ...Option) *Scorer {
	s := &Scorer{weights: model.DefaultConfidenceWeights()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score fuses the signals of one run.
func (s *Scorer) Score(
	cls model.ClassificationResult,
	det model.DetectionResult,
	ocr model.OCRResult,
	desc model.SemanticDescription,
) model.ConfidenceBreakdown {
	b := model.ConfidenceBreakdown{
		Classification: ClassificationScore(cls),
		Detection:      DetectionScore(det),
		OCR:            OCRScore(ocr),
		Consistency:    ConsistencyScore(cls, det, ocr, desc),
	}
	b.Weights, b.Note = s.activeWeights(cls, det, ocr)

	score := b.Weights.Classification*b.Classification +
		b.Weights.Detection*b.Detection +
		b.Weights.OCR*b.OCR +
		b.Weights.Consistency*b.Consistency
	b.Score = clamp(score)
	return b
}

// activeWeights returns the weights for the sources that ran.
//
// OCR counts as a source when its engine is available, even if it was not
// triggered. When neither classification nor detection is available, OCR
// only counts if it actually ran.
func (s *Scorer) activeWeights(cls model.ClassificationResult, det model.DetectionResult, ocr model.OCRResult) (model.ConfidenceWeights, string) {
	clsOK := cls.ModelAvailable
	detOK := det.ModelAvailable
	ocrOK := ocr.EngineAvailable

	if !clsOK && !detOK {
		if ocrOK && ocr.Triggered {
			return model.ConfidenceWeights{OCR: ocrOnlyWeight, Consistency: ocrOnlyWeight}, noteOCROnly
		}
		return model.ConfidenceWeights{}, noteNoSignal
	}

	w := s.weights
	if clsOK && detOK && ocrOK {
		return w, ""
	}
	if !clsOK {
		w.Classification = 0
	}
	if !detOK {
		w.Detection = 0
	}
	if !ocrOK {
		w.OCR = 0
	}
	total := w.Sum()
	if total <= 0 {
		return model.ConfidenceWeights{}, noteNoSignal
	}
	w.Classification /= total
	w.Detection /= total
	w.OCR /= total
	w.Consistency /= total
	return w, noteReducedSignalSet
}

// ClassificationScore is the top label confidence plus a share of the gap
// to the second label. It is 0 when classification failed or found nothing.
func ClassificationScore(cls model.ClassificationResult) float64 {
	if !cls.Success || len(cls.Labels) == 0 {
		return 0
	}
	top := cls.Labels[0].Confidence
	second := 0.0
	for i, l := range cls.Labels {
		if l.Confidence > top {
			top, second = l.Confidence, top
			continue
		}
		if i > 0 && l.Confidence > second {
			second = l.Confidence
		}
	}
	return clamp(top + ClassificationGapFactor*(top-second))
}

// DetectionScore is the mean object confidence plus a small bonus per object.
func DetectionScore(det model.DetectionResult) float64 {
	if !det.Success || len(det.Objects) == 0 {
		return 0
	}
	confs := make([]float64, len(det.Objects))
	for i, o := range det.Objects {
		confs[i] = o.Confidence
	}
	n := min(len(det.Objects), DetectionCountCap)
	return clamp(stat.Mean(confs, nil) + DetectionCountBonus*float64(n))
}

// OCRScore scores the OCR result.
func OCRScore(ocr model.OCRResult) float64 {
	if !ocr.Triggered {
		return OCRNeutral
	}
	if !ocr.HasText() || len(ocr.Blocks) == 0 {
		return OCREmpty
	}
	confs := make([]float64, len(ocr.Blocks))
	for i, b := range ocr.Blocks {
		confs[i] = b.Confidence
	}
	score := stat.Mean(confs, nil)
	if ocr.HasMeaningfulText {
		score += OCRMeaningfulBonus
	}
	return clamp(score)
}

// ConsistencyScore measures how well the signals agree with each other and
// with the semantic description.
func ConsistencyScore(cls model.ClassificationResult, det model.DetectionResult, ocr model.OCRResult, desc model.SemanticDescription) float64 {
	score := ConsistencyBase
	score += ConsistencyOverlap * LabelOverlap(cls, det)

	switch {
	case (desc.ImageType == model.ImageTypeDocument || desc.ImageType == model.ImageTypeScreenshot) && ocr.HasMeaningfulText:
		score += ConsistencyAgreement
	case desc.ImageType == model.ImageTypePhoto && (len(desc.PrimarySubjects) > 0 || desc.PersonCount > 0):
		score += ConsistencyAgreement
	}

	if len(desc.PrimarySubjects) > 0 || desc.PersonCount > 0 || desc.HasMeaningfulText {
		score += ConsistencyContent
	}

	if ocr.HasText() && len(cls.Labels) == 0 && len(det.Objects) == 0 {
		score = math.Max(score, ConsistencyOCRFloor)
	}
	return clamp(score)
}

// LabelOverlap returns |C ∩ D| / min(|C|, |D|) over the synonym-collapsed
// label sets of the classifier and the detector, or 0 when either is empty.
func LabelOverlap(cls model.ClassificationResult, det model.DetectionResult) float64 {
	c := canonicalSet(len(cls.Labels), func(i int) string { return cls.Labels[i].Text })
	d := canonicalSet(len(det.Objects), func(i int) string { return det.Objects[i].Label })
	if len(c) == 0 || len(d) == 0 {
		return 0
	}
	overlap := 0
	for l := range c {
		if d[l] {
			overlap++
		}
	}
	return float64(overlap) / float64(min(len(c), len(d)))
}

func canonicalSet(n int, at func(int) string) map[string]bool {
	set := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		if l := semantic.Canonical(at(i)); l != "" {
			set[l] = true
		}
	}
	return set
}

func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

package semantic

import (
	"math"
	"sort"

	"github.com/nao1215/captioner/internal/labels"
	"github.com/nao1215/captioner/internal/model"
)

// Thresholds used by the normalizer.
const (
	// PersonConfidence is the confidence a person signal must exceed to count.
	PersonConfidence = 0.4

	// PrimaryConfidence is the confidence a label must exceed to be a
	// primary subject.
	PrimaryConfidence = 0.6

	// SecondaryConfidence is the lowest confidence of a secondary subject.
	SecondaryConfidence = 0.3

	// EnvironmentMinScore is the weighted score the winning environment
	// must exceed.
	EnvironmentMinScore = 0.3

	// StrongOCRBlocks is the number of meaningful OCR blocks that backs a
	// document decision.
	StrongOCRBlocks = 3

	// MaxPrimarySubjects caps the primary subject list, person included.
	MaxPrimarySubjects = 3

	// MaxSecondarySubjects caps the secondary subject list.
	MaxSecondarySubjects = 5

	// occurrenceBoost is the share of the maximum confidence added for each
	// additional occurrence of a collapsed label.
	occurrenceBoost = 0.1
)

// Normalizer builds SemanticDescriptions. The zero value is ready to use.
type Normalizer struct{}

// New returns a Normalizer.
func New() *Normalizer {
	return &Normalizer{}
}

// Normalize fuses the three signal results into a SemanticDescription.
func (n *Normalizer) Normalize(cls model.ClassificationResult, det model.DetectionResult, ocr model.OCRResult) model.SemanticDescription {
	collapsed := Collapse(cls, det)
	personCount := countPeople(cls, det)

	desc := model.SemanticDescription{
		ImageType:         classifyImageType(collapsed, ocr, personCount),
		Environment:       classifyEnvironment(collapsed),
		PersonCount:       personCount,
		HasText:           ocr.HasText(),
		HasMeaningfulText: ocr.HasMeaningfulText,
		TextSummary:       ocr.TextSummary,
		Labels:            collapsed,
	}
	desc.PrimarySubjects, desc.SecondarySubjects = subjects(collapsed, personCount)
	if personCount > 0 {
		desc.Action = ActionFor(append(append([]string{}, desc.PrimarySubjects...), desc.SecondarySubjects...))
	}
	return desc
}

// Collapse merges classifier and detector labels through the synonym table.
// A collapsed label keeps the maximum confidence plus 10% of that maximum
// for every additional occurrence, capped at 1. The result is sorted by
// descending confidence, ties by label.
func Collapse(cls model.ClassificationResult, det model.DetectionResult) []model.Label {
	type agg struct {
		max   float64
		count int
	}
	groups := make(map[string]*agg)
	add := func(raw string, conf float64) {
		c := Canonical(raw)
		if c == "" {
			return
		}
		g, ok := groups[c]
		if !ok {
			g = &agg{}
			groups[c] = g
		}
		g.count++
		g.max = math.Max(g.max, conf)
	}
	for _, l := range cls.Labels {
		add(l.Text, l.Confidence)
	}
	for _, o := range det.Objects {
		add(o.Label, o.Confidence)
	}

	out := make([]model.Label, 0, len(groups))
	for text, g := range groups {
		conf := g.max + occurrenceBoost*g.max*float64(g.count-1)
		out = append(out, model.Label{Text: text, Confidence: math.Min(1, conf)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].Text < out[j].Text
	})
	return out
}

// ActionFor returns the phrase of the first action rule whose object is in
// subjects, or "" when none matches.
func ActionFor(subjects []string) string {
	present := make(map[string]bool, len(subjects))
	for _, s := range subjects {
		present[s] = true
	}
	for _, rule := range actionTable {
		if present[rule.object] {
			return rule.phrase
		}
	}
	return ""
}

// IsEnvironmentLabel reports whether label names a setting rather than a subject.
func IsEnvironmentLabel(label string) bool {
	return indoorIndicators[label] || outdoorIndicators[label]
}

func classifyImageType(collapsed []model.Label, ocr model.OCRResult, personCount int) model.ImageType {
	strongOCR := ocr.MeaningfulBlockCount >= StrongOCRBlocks
	switch {
	case strongOCR && hasIndicator(collapsed, documentIndicators):
		return model.ImageTypeDocument
	case hasIndicator(collapsed, diagramIndicators):
		return model.ImageTypeDiagram
	case hasIndicator(collapsed, screenIndicators):
		return model.ImageTypeScreenshot
	case ocr.HasMeaningfulText && personCount > 0:
		return model.ImageTypeMixed
	case len(collapsed) == 0 && !ocr.HasMeaningfulText:
		return model.ImageTypeUnknown
	default:
		return model.ImageTypePhoto
	}
}

// hasIndicator matches the full label or any of its words.
func hasIndicator(collapsed []model.Label, set map[string]bool) bool {
	for _, l := range collapsed {
		if set[l.Text] {
			return true
		}
		for _, w := range labels.Words(l.Text) {
			if set[w] {
				return true
			}
		}
	}
	return false
}

func classifyEnvironment(collapsed []model.Label) model.Environment {
	var indoor, outdoor float64
	for _, l := range collapsed {
		if indoorIndicators[l.Text] {
			indoor += l.Confidence
		}
		if outdoorIndicators[l.Text] {
			outdoor += l.Confidence
		}
	}
	switch {
	case indoor > outdoor && indoor > EnvironmentMinScore:
		return model.EnvironmentIndoor
	case outdoor > indoor && outdoor > EnvironmentMinScore:
		return model.EnvironmentOutdoor
	default:
		return model.EnvironmentUnknown
	}
}

// countPeople counts detector person boxes above PersonConfidence and falls
// back to a single person when only the classifier reports one.
func countPeople(cls model.ClassificationResult, det model.DetectionResult) int {
	count := 0
	for _, o := range det.Objects {
		if Canonical(o.Label) == model.PersonLabel && o.Confidence > PersonConfidence {
			count++
		}
	}
	if count > 0 {
		return count
	}
	for _, l := range cls.Labels {
		if Canonical(l.Text) == model.PersonLabel && l.Confidence > PersonConfidence {
			return 1
		}
	}
	return 0
}

func subjects(collapsed []model.Label, personCount int) (primary, secondary []string) {
	primary = make([]string, 0, MaxPrimarySubjects)
	secondary = make([]string, 0, MaxSecondarySubjects)
	if personCount > 0 {
		primary = append(primary, model.PersonLabel)
	}
	for _, l := range collapsed {
		if l.Text == model.PersonLabel || IsEnvironmentLabel(l.Text) || !IsObject(l.Text) {
			continue
		}
		switch {
		case l.Confidence > PrimaryConfidence && len(primary) < MaxPrimarySubjects:
			primary = append(primary, l.Text)
		case l.Confidence >= SecondaryConfidence && len(secondary) < MaxSecondarySubjects:
			secondary = append(secondary, l.Text)
		}
	}
	return primary, secondary
}

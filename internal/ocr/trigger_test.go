package ocr

import (
	"testing"

	"github.com/nao1215/captioner/internal/model"
)

func TestTrigger(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		labels    []model.Label
		alwaysRun bool
		want      model.TriggerReason
	}{
		{"user enabled wins", nil, true, model.TriggerUserEnabled},
		{"document hint", []model.Label{{Text: "document", Confidence: 0.7}}, false, model.TriggerClassificationHint},
		{"word of label", []model.Label{{Text: "street sign", Confidence: 0.5}}, false, model.TriggerClassificationHint},
		{"hint at threshold is ignored", []model.Label{{Text: "document", Confidence: 0.3}}, false, model.TriggerNotTriggered},
		{"unrelated labels", []model.Label{{Text: "person", Confidence: 0.9}, {Text: "dog", Confidence: 0.8}}, false, model.TriggerNotTriggered},
		{"no labels", nil, false, model.TriggerNotTriggered},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := Trigger(model.ClassificationResult{Labels: tc.labels}, tc.alwaysRun)
			if got != tc.want {
				t.Errorf("Trigger() = %s, want %s", got, tc.want)
			}
		})
	}
}

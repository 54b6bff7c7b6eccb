package ollama

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/nao1215/captioner/internal/capability"
	"github.com/nao1215/captioner/internal/geometry"
)

var (
	reBlockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)
	reLineComment  = regexp.MustCompile(`(?m)^\s*//.*$`)
	reTrailing     = regexp.MustCompile(`,(\s*[}\]])`)
)

type labelsReply struct {
	Labels []struct {
		Label      string  `json:"label"`
		Confidence float64 `json:"confidence"`
	} `json:"labels"`
}

type box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

type objectsReply struct {
	Objects []struct {
		Label      string  `json:"label"`
		Confidence float64 `json:"confidence"`
		Box        box     `json:"box"`
	} `json:"objects"`
}

func parseLabels(raw string) ([]capability.Prediction, error) {
	var reply labelsReply
	if err := decode(raw, &reply); err != nil {
		return nil, err
	}
	out := make([]capability.Prediction, 0, len(reply.Labels))
	for _, l := range reply.Labels {
		if strings.TrimSpace(l.Label) == "" {
			continue
		}
		out = append(out, capability.Prediction{Label: l.Label, Confidence: l.Confidence})
	}
	return out, nil
}

// parseObjects decodes detections and converts their relative boxes into
// the srcW x srcH pixel space.
func parseObjects(raw string, srcW, srcH int) ([]capability.Detection, error) {
	var reply objectsReply
	if err := decode(raw, &reply); err != nil {
		return nil, err
	}
	out := make([]capability.Detection, 0, len(reply.Objects))
	for _, o := range reply.Objects {
		if strings.TrimSpace(o.Label) == "" {
			continue
		}
		rel := geometry.Normalize(geometry.PixelBox{X: o.Box.X, Y: o.Box.Y, Width: o.Box.W, Height: o.Box.H}, 1, 1)
		out = append(out, capability.Detection{
			Label:      o.Label,
			Confidence: o.Confidence,
			Box:        geometry.Denormalize(rel, srcW, srcH),
		})
	}
	return out, nil
}

func decode(raw string, v any) error {
	clean := sanitizeModelJSON(raw)
	if !strings.HasPrefix(clean, "{") {
		return fmt.Errorf("model reply is not JSON (%d bytes)", len(raw))
	}
	if err := json.Unmarshal([]byte(clean), v); err != nil {
		return fmt.Errorf("failed to decode model reply: %w", err)
	}
	return nil
}

// sanitizeModelJSON removes code fences, comments and trailing commas and
// keeps only the outermost object.
func sanitizeModelJSON(raw string) string {
	raw = strings.TrimSpace(raw)

	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		}
		if j := strings.LastIndex(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	raw = strings.Trim(strings.TrimSpace(raw), "`")

	raw = reBlockComment.ReplaceAllString(raw, "")
	raw = reLineComment.ReplaceAllString(raw, "")
	raw = reTrailing.ReplaceAllString(raw, "$1")

	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			raw = raw[start : end+1]
		}
	}
	return strings.TrimSpace(raw)
}

package report

import (
	"strings"

	"github.com/arbovm/levenshtein"
	"github.com/codycollier/wer"
)

// CaptionDrift measures how much a caption changed between two runs on the
// same image.
type CaptionDrift struct {
	// Previous is the older caption.
	Previous string `json:"previous"`

	// Current is the newer caption.
	Current string `json:"current"`

	// Distance is the Levenshtein edit distance in characters.
	Distance int `json:"distance"`

	// WordErrorRate is the word error rate of Current against Previous.
	WordErrorRate float64 `json:"word_error_rate"`

	// WordEdits is the number of word-level edits.
	WordEdits int `json:"word_edits"`
}

// Changed reports whether the captions differ.
func (d CaptionDrift) Changed() bool {
	return d.Distance > 0
}

// Drift compares two captions. Word comparison is case-insensitive and
// ignores trailing punctuation.
func Drift(previous, current string) CaptionDrift {
	d := CaptionDrift{
		Previous: previous,
		Current:  current,
		Distance: levenshtein.Distance(previous, current),
	}

	ref, cand := words(previous), words(current)
	switch {
	case len(ref) == 0 && len(cand) == 0:
	case len(ref) == 0:
		d.WordErrorRate = 1
		d.WordEdits = len(cand)
	default:
		d.WordErrorRate, d.WordEdits = wer.WER(ref, cand)
	}
	return d
}

func words(s string) []string {
	fields := strings.Fields(strings.ToLower(s))
	out := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, ".,;:!?\"'")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

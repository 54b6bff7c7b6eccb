package ocr

import (
	"sort"
	"strings"
	"unicode"

	"github.com/nao1215/captioner/internal/model"
)

// Ellipsis is appended to truncated summaries.
const Ellipsis = "..."

// wordBoundaryRatio is the minimum position, relative to the limit, of the
// last space for a word-boundary cut. Earlier spaces produce a hard cut.
const wordBoundaryRatio = 0.7

// CombineBlocks joins block texts top-to-bottom, then left-to-right.
func CombineBlocks(blocks []model.TextBlock) string {
	sorted := make([]model.TextBlock, len(blocks))
	copy(sorted, blocks)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Box.Y != sorted[j].Box.Y {
			return sorted[i].Box.Y < sorted[j].Box.Y
		}
		return sorted[i].Box.X < sorted[j].Box.X
	})

	parts := make([]string, 0, len(sorted))
	for _, b := range sorted {
		if t := strings.TrimSpace(b.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// Clean collapses whitespace runs and repeated punctuation marks.
//
//	Clean("Hello!!!   world..") // "Hello! world."
func Clean(s string) string {
	collapsed := strings.Join(strings.Fields(s), " ")

	var b strings.Builder
	b.Grow(len(collapsed))
	var prev rune
	for _, r := range collapsed {
		if r == prev && isDedupPunct(r) {
			continue
		}
		b.WriteRune(r)
		prev = r
	}
	return b.String()
}

func isDedupPunct(r rune) bool {
	switch r {
	case '.', ',', '!', '?', ';', ':', '-', '_', '*', '~':
		return true
	default:
		return false
	}
}

// Truncate limits s to maxLen runes plus the ellipsis. It cuts at the last
// space when that space lies at or beyond 70% of maxLen, otherwise it cuts
// hard at maxLen.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	cut := runes[:maxLen]
	lastSpace := -1
	for i := len(cut) - 1; i >= 0; i-- {
		if cut[i] == ' ' {
			lastSpace = i
			break
		}
	}
	if lastSpace >= 0 && float64(lastSpace) >= wordBoundaryRatio*float64(maxLen) {
		return strings.TrimRight(string(cut[:lastSpace]), " ") + Ellipsis
	}
	return string(cut) + Ellipsis
}

// Summarize cleans and truncates recognized text.
func Summarize(s string, maxLen int) string {
	return Truncate(Clean(s), maxLen)
}

// IsMeaningful reports whether s looks like real text rather than noise:
// at least one word, an average word length of at least two characters,
// and at least half of the non-space characters alphanumeric.
func IsMeaningful(s string) bool {
	words := strings.Fields(s)
	if len(words) == 0 {
		return false
	}

	var letters, total int
	for _, w := range words {
		for _, r := range w {
			total++
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				letters++
			}
		}
	}
	if float64(total)/float64(len(words)) < 2 {
		return false
	}
	return float64(letters)/float64(total) >= 0.5
}

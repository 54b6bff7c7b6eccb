package caption

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/nao1215/captioner/internal/model"
)

var (
	placeholderPattern   = regexp.MustCompile(`\{[^{}]*\}`)
	spaceBeforePunct     = regexp.MustCompile(`\s+([.,!?;:])`)
	repeatedPeriods      = regexp.MustCompile(`\.{2,}`)
	danglingConjunctions = regexp.MustCompile(`(?i)\s+(with|of|and)\s*([.,!?;:])`)
)

// Synthesizer renders captions. It is safe for concurrent use.
type Synthesizer struct {
	maxWords int
}

// New creates a Synthesizer with the given word limit.
func New(maxWords int) *Synthesizer {
	return &Synthesizer{maxWords: maxWords}
}

// Select picks the template for desc.
func (s *Synthesizer) Select(desc model.SemanticDescription) model.TemplateID {
	return Select(desc)
}

// Synthesize selects a template and renders it.
func (s *Synthesizer) Synthesize(desc model.SemanticDescription) model.SynthesizedCaption {
	return s.Render(Select(desc), desc)
}

// Render fills the placeholders of template id with phrases for desc and
// post-processes the result. Unknown ids render the generic template.
func (s *Synthesizer) Render(id model.TemplateID, desc model.SemanticDescription) model.SynthesizedCaption {
	tmpl, ok := templates[id]
	if !ok {
		id = model.TemplateGeneric
		tmpl = templates[id]
	}

	subs := map[string]string{
		PlaceholderPeople:      PersonDescriptor(desc.PersonCount),
		PlaceholderAction:      ActionPhrase(desc),
		PlaceholderEnvironment: EnvironmentPhrase(desc.Environment),
		PlaceholderEnvAdj:      EnvironmentAdjective(desc.Environment),
		PlaceholderObjects:     ObjectList(objectSubjects(desc)),
		PlaceholderTextClause:  TextClause(desc),
	}

	used := make(map[string]string)
	text := placeholderPattern.ReplaceAllStringFunc(tmpl, func(m string) string {
		name := m[1 : len(m)-1]
		v, ok := subs[name]
		if !ok {
			return ""
		}
		used[name] = v
		return v
	})

	text = PostProcess(text, s.maxWords)
	if text == "" {
		text = model.MinimalSafeCaption
	}
	return model.SynthesizedCaption{
		Text:          text,
		TemplateID:    id,
		Substitutions: used,
		WordCount:     len(strings.Fields(text)),
	}
}

// PostProcess cleans a rendered caption: it strips leftover placeholders,
// collapses whitespace, removes spaces before punctuation, collapses
// repeated periods, capitalizes the first letter and enforces the word
// limit. The result always ends with terminal punctuation unless empty.
func PostProcess(text string, maxWords int) string {
	text = placeholderPattern.ReplaceAllString(text, "")
	text = strings.Join(strings.Fields(text), " ")
	text = danglingConjunctions.ReplaceAllString(text, "$2")
	text = spaceBeforePunct.ReplaceAllString(text, "$1")
	text = repeatedPeriods.ReplaceAllString(text, ".")
	text = strings.TrimLeft(text, " .,;:!?")
	if text == "" {
		return ""
	}

	if words := strings.Fields(text); maxWords > 0 && len(words) > maxWords {
		text = strings.TrimRight(strings.Join(words[:maxWords], " "), ".,;:!?")
	}
	if last, _ := utf8.DecodeLastRuneInString(text); !strings.ContainsRune(".!?", last) {
		text += "."
	}
	return capitalize(text)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

package caption

import (
	"fmt"
	"strings"

	"github.com/nao1215/captioner/internal/model"
	"github.com/nao1215/captioner/internal/semantic"
)

// MaxListedObjects caps the objects named in one object-list phrase.
const MaxListedObjects = 4

// groupThreshold is the person count from which people are described as a group.
const groupThreshold = 10

// PersonDescriptor describes a number of people.
//
//	0 -> ""
//	1 -> "a person"
//	2 -> "two people"
//	3..9 -> "N people"
//	10+ -> "a group of people"
func PersonDescriptor(count int) string {
	switch {
	case count <= 0:
		return ""
	case count == 1:
		return "a person"
	case count == 2:
		return "two people"
	case count >= groupThreshold:
		return "a group of people"
	default:
		return fmt.Sprintf("%d people", count)
	}
}

// ActionPhrase returns the semantic action, or the first object-based action
// when a person is present but no action was recorded.
func ActionPhrase(desc model.SemanticDescription) string {
	if desc.Action != "" {
		return desc.Action
	}
	if desc.PersonCount == 0 {
		return ""
	}
	return semantic.ActionFor(append(append([]string{}, desc.PrimarySubjects...), desc.SecondarySubjects...))
}

// EnvironmentPhrase returns "indoors", "outdoors" or "".
func EnvironmentPhrase(env model.Environment) string {
	switch env {
	case model.EnvironmentIndoor:
		return "indoors"
	case model.EnvironmentOutdoor:
		return "outdoors"
	default:
		return ""
	}
}

// EnvironmentAdjective returns "indoor", "outdoor" or "".
func EnvironmentAdjective(env model.Environment) string {
	switch env {
	case model.EnvironmentIndoor, model.EnvironmentOutdoor:
		return string(env)
	default:
		return ""
	}
}

// TextClause returns "containing text" when any text was recognized.
func TextClause(desc model.SemanticDescription) string {
	if desc.HasText {
		return "containing text"
	}
	return ""
}

// Article returns "an" for vowel-initial words and "a" otherwise.
func Article(word string) string {
	if word == "" {
		return "a"
	}
	switch strings.ToLower(word[:1]) {
	case "a", "e", "i", "o", "u":
		return "an"
	default:
		return "a"
	}
}

// ObjectList joins object labels with articles: "a cup", "a cup and an
// apple", "a cup, an apple, and a book". Labels outside the object
// vocabulary are skipped and at most MaxListedObjects are named.
func ObjectList(objects []string) string {
	items := make([]string, 0, MaxListedObjects)
	for _, o := range objects {
		if len(items) == MaxListedObjects {
			break
		}
		if o = strings.TrimSpace(o); semantic.IsObject(o) {
			items = append(items, Article(o)+" "+o)
		}
	}
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " and " + items[1]
	default:
		return strings.Join(items[:len(items)-1], ", ") + ", and " + items[len(items)-1]
	}
}

// objectSubjects returns the vocabulary objects among the non-person primary
// subjects followed by the secondary subjects, without duplicates.
func objectSubjects(desc model.SemanticDescription) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, len(desc.PrimarySubjects)+len(desc.SecondarySubjects))
	for _, s := range append(desc.NonPersonPrimary(), desc.SecondarySubjects...) {
		if s == model.PersonLabel || seen[s] || !semantic.IsObject(s) {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

package model

// MinimalSafeCaption is the caption used whenever the pipeline cannot vouch
// for a more specific description.
const MinimalSafeCaption = "An image."

// TemplateID identifies a caption template.
type TemplateID string

const (
	TemplatePhotoWithPerson    TemplateID = "photo_with_person"
	TemplatePhotoPersonObjects TemplateID = "photo_person_objects"
	TemplatePhotoObjects       TemplateID = "photo_objects"
	TemplatePhotoScene         TemplateID = "photo_scene"
	TemplatePhotoGeneric       TemplateID = "photo_generic"
	TemplateDocument           TemplateID = "document"
	TemplateScreenshot         TemplateID = "screenshot"
	TemplateDiagram            TemplateID = "diagram"
	TemplateMixed              TemplateID = "mixed"
	TemplateTextHeavy          TemplateID = "text_heavy"
	TemplateGeneric            TemplateID = "generic"
)

// String returns the template id.
func (t TemplateID) String() string {
	return string(t)
}

// SynthesizedCaption is the caption produced by the synthesizer.
type SynthesizedCaption struct {
	Text       string     `json:"text"`
	TemplateID TemplateID `json:"template_id"`

	// Substitutions records the value used for each placeholder.
	Substitutions map[string]string `json:"substitutions,omitempty"`

	// WordCount is the word count of Text after post-processing.
	WordCount int `json:"word_count"`
}

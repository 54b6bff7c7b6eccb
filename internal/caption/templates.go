package caption

import "github.com/nao1215/captioner/internal/model"

// Placeholder names used in templates.
const (
	PlaceholderPeople      = "people"
	PlaceholderAction      = "action"
	PlaceholderEnvironment = "environment"
	PlaceholderEnvAdj      = "environment_adjective"
	PlaceholderObjects     = "objects"
	PlaceholderTextClause  = "text_clause"
)

// templates holds the text of every template.
var templates = map[model.TemplateID]string{
	model.TemplatePhotoWithPerson:    "{people} {action} {environment}.",
	model.TemplatePhotoPersonObjects: "{people} with {objects} {environment}.",
	model.TemplatePhotoObjects:       "A photo of {objects} {environment}.",
	model.TemplatePhotoScene:         "An {environment_adjective} scene.",
	model.TemplatePhotoGeneric:       "A photo.",
	model.TemplateDocument:           "A document {text_clause}.",
	model.TemplateScreenshot:         "A screenshot {text_clause}.",
	model.TemplateDiagram:            "A diagram {text_clause}.",
	model.TemplateMixed:              "{people} with visible text {environment}.",
	model.TemplateTextHeavy:          "An image containing text.",
	model.TemplateGeneric:            "An image.",
}

// Template returns the text of a template and whether it exists.
func Template(id model.TemplateID) (string, bool) {
	t, ok := templates[id]
	return t, ok
}

// TemplateIDs returns every known template id.
func TemplateIDs() []model.TemplateID {
	ids := make([]model.TemplateID, 0, len(templates))
	for id := range templates {
		ids = append(ids, id)
	}
	return ids
}

// Select picks the template for desc.
//
// Photos and mixed images whose meaningful text is the only content (no
// person, no primary object) use text_heavy. Otherwise the image type
// decides, and photos are refined by person, action, objects and setting.
func Select(desc model.SemanticDescription) model.TemplateID {
	if (desc.ImageType == model.ImageTypePhoto || desc.ImageType == model.ImageTypeMixed) &&
		desc.HasMeaningfulText && desc.PersonCount == 0 && len(desc.NonPersonPrimary()) == 0 {
		return model.TemplateTextHeavy
	}

	switch desc.ImageType {
	case model.ImageTypeDocument:
		return model.TemplateDocument
	case model.ImageTypeScreenshot:
		return model.TemplateScreenshot
	case model.ImageTypeDiagram:
		return model.TemplateDiagram
	case model.ImageTypeMixed:
		return model.TemplateMixed
	case model.ImageTypePhoto:
		return selectPhoto(desc)
	default:
		return model.TemplateGeneric
	}
}

func selectPhoto(desc model.SemanticDescription) model.TemplateID {
	objects := objectSubjects(desc)
	switch {
	case desc.PersonCount > 0 && desc.Action != "":
		return model.TemplatePhotoWithPerson
	case desc.PersonCount > 0 && len(objects) > 0:
		return model.TemplatePhotoPersonObjects
	case desc.PersonCount > 0:
		return model.TemplatePhotoWithPerson
	case len(objects) > 0:
		return model.TemplatePhotoObjects
	case desc.Environment == model.EnvironmentIndoor || desc.Environment == model.EnvironmentOutdoor:
		return model.TemplatePhotoScene
	default:
		return model.TemplatePhotoGeneric
	}
}

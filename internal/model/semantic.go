package model

// ImageType is the scene category decided by the semantic normalizer.
type ImageType string

const (
	ImageTypePhoto      ImageType = "photo"
	ImageTypeDocument   ImageType = "document"
	ImageTypeScreenshot ImageType = "screenshot"
	ImageTypeDiagram    ImageType = "diagram"
	ImageTypeMixed      ImageType = "mixed"
	ImageTypeUnknown    ImageType = "unknown"
)

// String returns the type name.
func (t ImageType) String() string {
	return string(t)
}

// Valid reports whether t is a known image type.
func (t ImageType) Valid() bool {
	switch t {
	case ImageTypePhoto, ImageTypeDocument, ImageTypeScreenshot,
		ImageTypeDiagram, ImageTypeMixed, ImageTypeUnknown:
		return true
	default:
		return false
	}
}

// TextCentric reports whether the type is primarily about text content.
func (t ImageType) TextCentric() bool {
	return t == ImageTypeDocument || t == ImageTypeScreenshot || t == ImageTypeDiagram
}

// Environment is the indoor/outdoor setting.
type Environment string

const (
	EnvironmentIndoor  Environment = "indoor"
	EnvironmentOutdoor Environment = "outdoor"
	EnvironmentUnknown Environment = "unknown"
)

// String returns the environment name.
func (e Environment) String() string {
	return string(e)
}

// Valid reports whether e is a known environment.
func (e Environment) Valid() bool {
	switch e {
	case EnvironmentIndoor, EnvironmentOutdoor, EnvironmentUnknown:
		return true
	default:
		return false
	}
}

// SemanticDescription is the fused interpretation of all signals.
type SemanticDescription struct {
	ImageType         ImageType   `json:"image_type"`
	Environment       Environment `json:"environment"`
	PrimarySubjects   []string    `json:"primary_subjects"`
	SecondarySubjects []string    `json:"secondary_subjects"`
	PersonCount       int         `json:"person_count"`
	Action            string      `json:"action,omitempty"`
	HasText           bool        `json:"has_text"`
	HasMeaningfulText bool        `json:"has_meaningful_text"`

	// TextSummary is the cleaned OCR summary. It is never emitted in captions.
	TextSummary string `json:"-"`

	// Labels are the synonym-collapsed labels sorted by confidence.
	Labels []Label `json:"labels"`
}

// HasPerson reports whether at least one person was counted.
func (s SemanticDescription) HasPerson() bool {
	return s.PersonCount > 0
}

// NonPersonPrimary returns primary subjects other than "person".
func (s SemanticDescription) NonPersonPrimary() []string {
	out := make([]string, 0, len(s.PrimarySubjects))
	for _, subj := range s.PrimarySubjects {
		if subj != PersonLabel {
			out = append(out, subj)
		}
	}
	return out
}

// PersonLabel is the canonical label for people.
const PersonLabel = "person"

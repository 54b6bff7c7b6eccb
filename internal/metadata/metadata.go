package metadata

import (
	"bytes"
	"strings"

	"github.com/bep/imagemeta"
)

// Embedded holds the descriptive fields found in an image.
type Embedded struct {
	// Description is the first non-empty of EXIF ImageDescription, XMP
	// description and IPTC caption.
	Description string `json:"description,omitempty"`

	// Title is the XMP title or the IPTC headline.
	Title string `json:"title,omitempty"`

	EXIFDescription string `json:"exif_description,omitempty"`
	IPTCCaption     string `json:"iptc_caption,omitempty"`
	IPTCHeadline    string `json:"iptc_headline,omitempty"`
	XMPDescription  string `json:"xmp_description,omitempty"`
	XMPTitle        string `json:"xmp_title,omitempty"`
}

// Empty reports whether no descriptive field was found.
func (e *Embedded) Empty() bool {
	return e == nil || (e.Description == "" && e.Title == "")
}

// wantedTags maps a metadata source to the tags read from it.
var wantedTags = map[imagemeta.Source]map[string]bool{
	imagemeta.EXIF: {
		"ImageDescription": true,
	},
	imagemeta.IPTC: {
		"Caption-Abstract": true,
		"CaptionAbstract":  true,
		"Caption":          true,
		"Headline":         true,
	},
	imagemeta.XMP: {
		"Description": true,
		"Title":       true,
	},
}

// formats maps sniffed mime types to imagemeta image formats.
var formats = map[string]imagemeta.ImageFormat{
	"image/jpeg": imagemeta.JPEG,
	"image/png":  imagemeta.PNG,
	"image/tiff": imagemeta.TIFF,
	"image/webp": imagemeta.WebP,
}

// Read extracts descriptive metadata from data of the given mime type.
// It returns nil when the format is not supported, the data cannot be
// parsed or no field was found. It never returns an error.
func Read(data []byte, mime string) *Embedded {
	format, ok := formats[mime]
	if len(data) == 0 || !ok {
		return nil
	}

	e := &Embedded{}
	found := false
	_, err := imagemeta.Decode(imagemeta.Options{
		R:           bytes.NewReader(data),
		ImageFormat: format,
		Sources:     imagemeta.EXIF | imagemeta.IPTC | imagemeta.XMP,
		ShouldHandleTag: func(ti imagemeta.TagInfo) bool {
			return wantedTags[ti.Source][ti.Tag]
		},
		HandleTag: func(ti imagemeta.TagInfo) error {
			if handleTag(e, ti) {
				found = true
			}
			return nil
		},
	})
	if err != nil || !found {
		return nil
	}

	e.Description = firstNonEmpty(e.EXIFDescription, e.XMPDescription, e.IPTCCaption)
	e.Title = firstNonEmpty(e.XMPTitle, e.IPTCHeadline)
	if e.Empty() {
		return nil
	}
	return e
}

func handleTag(e *Embedded, ti imagemeta.TagInfo) bool {
	s := strings.TrimSpace(tagValueString(ti.Value))
	if s == "" {
		return false
	}
	switch ti.Source {
	case imagemeta.EXIF:
		e.EXIFDescription = s
	case imagemeta.IPTC:
		if ti.Tag == "Headline" {
			e.IPTCHeadline = s
		} else {
			e.IPTCCaption = s
		}
	case imagemeta.XMP:
		if ti.Tag == "Title" {
			e.XMPTitle = s
		} else {
			e.XMPDescription = s
		}
	default:
		return false
	}
	return true
}

// tagValueString extracts a string from a tag value. XMP values may be
// lists (alt, seq or bag).
func tagValueString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []string:
		if len(val) > 0 {
			return val[0]
		}
	case []any:
		if len(val) > 0 {
			if s, ok := val[0].(string); ok {
				return s
			}
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

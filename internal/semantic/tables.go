package semantic

import "github.com/nao1215/captioner/internal/model"

// synonyms maps label variants to their canonical label.
var synonyms = map[string]string{
	"man":             model.PersonLabel,
	"woman":           model.PersonLabel,
	"boy":             model.PersonLabel,
	"girl":            model.PersonLabel,
	"child":           model.PersonLabel,
	"kid":             model.PersonLabel,
	"baby":            model.PersonLabel,
	"people":          model.PersonLabel,
	"persons":         model.PersonLabel,
	"human":           model.PersonLabel,
	"adult":           model.PersonLabel,
	"lady":            model.PersonLabel,
	"gentleman":       model.PersonLabel,
	"guy":             model.PersonLabel,
	"pedestrian":      model.PersonLabel,
	"face":            model.PersonLabel,
	"faces":           model.PersonLabel,
	"notebook":        "laptop",
	"pc":              "laptop",
	"macbook":         "laptop",
	"laptop computer": "laptop",
	"cellphone":       "phone",
	"cell phone":      "phone",
	"mobile phone":    "phone",
	"smartphone":      "phone",
	"iphone":          "phone",
	"telephone":       "phone",
	"automobile":      "car",
	"sedan":           "car",
	"suv":             "car",
	"vehicle":         "car",
	"puppy":           "dog",
	"kitten":          "cat",
	"bike":            "bicycle",
	"sofa":            "couch",
	"television":      "tv",
}

// documentIndicators are labels that suggest a document when backed by OCR.
var documentIndicators = map[string]bool{
	"document": true, "paper": true, "text": true, "page": true,
	"letter": true, "receipt": true, "invoice": true, "book": true,
	"newspaper": true, "magazine": true, "menu": true, "form": true,
	"handwriting": true, "certificate": true, "brochure": true,
}

// screenIndicators are labels that suggest a screenshot.
var screenIndicators = map[string]bool{
	"screenshot": true, "screen": true, "monitor": true, "display": true,
	"website": true, "web page": true, "user interface": true,
	"software": true, "computer screen": true, "operating system": true,
	"multimedia": true,
}

// diagramIndicators are labels that suggest a diagram or chart.
var diagramIndicators = map[string]bool{
	"diagram": true, "chart": true, "graph": true, "plot": true,
	"flowchart": true, "schematic": true, "infographic": true,
	"blueprint": true, "technical drawing": true,
}

// indoorIndicators and outdoorIndicators drive the environment decision.
// Labels in either set are never subjects.
var indoorIndicators = map[string]bool{
	"indoor": true, "room": true, "living room": true, "bedroom": true,
	"kitchen": true, "bathroom": true, "office": true, "classroom": true,
	"hallway": true, "interior design": true, "ceiling": true,
	"restaurant": true, "cafe": true, "shop": true, "library": true,
	"floor": true, "wall": true, "building interior": true,
}

var outdoorIndicators = map[string]bool{
	"outdoor": true, "sky": true, "cloud": true, "tree": true,
	"grass": true, "street": true, "road": true, "beach": true,
	"mountain": true, "park": true, "field": true, "ocean": true,
	"sea": true, "lake": true, "river": true, "forest": true,
	"garden": true, "snow": true, "sunset": true, "landscape": true,
	"city": true, "nature": true, "water": true,
}

// descriptorLabels describe the image itself rather than its content.
var descriptorLabels = map[string]bool{
	"text": true, "font": true, "screenshot": true, "photo": true,
	"photograph": true, "image": true, "design": true, "pattern": true,
	"line": true, "rectangle": true, "graphics": true, "snapshot": true,
	"darkness": true, "close up": true,
}

// actionRule maps an object seen next to a person to an action phrase.
type actionRule struct {
	object string
	phrase string
}

// actionTable is checked in order; the first object present wins.
var actionTable = []actionRule{
	{"laptop", "using a laptop"},
	{"computer", "using a computer"},
	{"phone", "using a phone"},
	{"book", "reading a book"},
	{"newspaper", "reading a newspaper"},
	{"bicycle", "riding a bicycle"},
	{"motorcycle", "riding a motorcycle"},
	{"horse", "riding a horse"},
	{"skateboard", "riding a skateboard"},
	{"surfboard", "surfing"},
	{"skis", "skiing"},
	{"snowboard", "snowboarding"},
	{"guitar", "playing a guitar"},
	{"piano", "playing the piano"},
	{"tennis racket", "playing tennis"},
	{"sports ball", "playing with a ball"},
	{"ball", "playing with a ball"},
	{"kite", "flying a kite"},
	{"umbrella", "holding an umbrella"},
	{"camera", "holding a camera"},
	{"microphone", "speaking into a microphone"},
	{"pizza", "eating pizza"},
	{"food", "eating"},
	{"dog", "with a dog"},
	{"cat", "with a cat"},
	{"car", "near a car"},
}

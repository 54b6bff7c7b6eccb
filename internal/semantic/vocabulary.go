package semantic

import (
	"strings"

	"github.com/nao1215/captioner/internal/labels"
	"github.com/nao1215/captioner/internal/model"
)

// objectVocabulary is the closed set of object words a caption may name.
// A label outside it can still drive the image type or the environment but
// never becomes a subject. No entry describes a person.
var objectVocabulary = map[string]bool{
	// vehicles and street furniture
	"bicycle": true, "car": true, "motorcycle": true, "airplane": true,
	"bus": true, "train": true, "truck": true, "boat": true, "ship": true,
	"van": true, "scooter": true, "tractor": true, "helicopter": true,
	"traffic light": true, "fire hydrant": true, "stop sign": true,
	"parking meter": true, "bench": true, "sign": true, "fence": true,
	"bridge": true, "building": true, "house": true, "tower": true,
	"statue": true, "fountain": true, "flag": true, "tent": true,

	// animals
	"bird": true, "cat": true, "dog": true, "horse": true, "sheep": true,
	"cow": true, "elephant": true, "bear": true, "zebra": true,
	"giraffe": true, "fish": true, "rabbit": true, "duck": true,
	"chicken": true, "butterfly": true, "insect": true,

	// carried and worn
	"backpack": true, "umbrella": true, "handbag": true, "bag": true,
	"tie": true, "suitcase": true, "hat": true, "shoe": true, "sock": true,
	"jacket": true, "shirt": true, "glasses": true, "sunglasses": true,
	"watch": true, "wallet": true, "key": true,

	// sports and leisure
	"frisbee": true, "skis": true, "snowboard": true, "sports ball": true,
	"ball": true, "kite": true, "baseball bat": true,
	"baseball glove": true, "skateboard": true, "surfboard": true,
	"tennis racket": true, "toy": true, "teddy bear": true,
	"guitar": true, "piano": true,

	// kitchen and food
	"bottle": true, "wine glass": true, "glass": true, "cup": true,
	"mug": true, "fork": true, "knife": true, "spoon": true, "bowl": true,
	"plate": true, "jar": true, "pot": true, "pan": true, "kettle": true,
	"banana": true, "apple": true, "sandwich": true, "orange": true,
	"broccoli": true, "carrot": true, "hot dog": true, "pizza": true,
	"donut": true, "cake": true, "bread": true, "fruit": true,
	"food": true, "coffee": true,

	// furniture and household
	"chair": true, "couch": true, "ottoman": true, "potted plant": true,
	"plant": true, "flower": true, "bed": true, "dining table": true,
	"table": true, "desk": true, "shelf": true, "bookshelf": true,
	"cabinet": true, "lamp": true, "pillow": true, "blanket": true,
	"curtain": true, "mirror": true, "rug": true, "door": true,
	"window": true, "toilet": true, "sink": true, "refrigerator": true,
	"microwave": true, "oven": true, "toaster": true, "stove": true,
	"vase": true, "clock": true, "candle": true, "scissors": true,
	"hair drier": true, "toothbrush": true, "box": true, "basket": true,
	"bucket": true, "ladder": true,

	// electronics
	"tv": true, "laptop": true, "computer": true, "monitor": true,
	"mouse": true, "remote": true, "keyboard": true, "phone": true,
	"tablet": true, "camera": true, "microphone": true,
	"headphones": true, "speaker": true, "printer": true,

	// paper
	"book": true, "newspaper": true, "magazine": true, "menu": true,
	"letter": true, "envelope": true, "receipt": true, "document": true,
	"map": true, "calendar": true, "poster": true, "painting": true,
	"whiteboard": true, "pen": true, "pencil": true, "paper": true,
}

// personWords are words that name a person. A label containing one of them
// collapses to the person label whatever its other words are.
var personWords = map[string]bool{
	"person": true, "persons": true, "people": true,
	"human": true, "humans": true,
	"man": true, "men": true, "woman": true, "women": true,
	"boy": true, "boys": true, "girl": true, "girls": true,
	"child": true, "children": true, "kid": true, "kids": true,
	"baby": true, "babies": true, "toddler": true, "toddlers": true,
	"teen": true, "teens": true, "teenager": true, "teenagers": true,
	"adult": true, "adults": true, "lady": true, "ladies": true,
	"gentleman": true, "gentlemen": true, "guy": true, "guys": true,
	"male": true, "males": true, "female": true, "females": true,
	"mother": true, "father": true, "mom": true, "dad": true,
	"son": true, "daughter": true, "brother": true, "sister": true,
	"husband": true, "wife": true, "bride": true, "groom": true,
	"grandmother": true, "grandfather": true,
	"pedestrian": true, "pedestrians": true, "player": true,
	"players": true, "worker": true, "workers": true,
	"tourist": true, "tourists": true, "crowd": true,
}

// IsObject reports whether a canonical label may be named in a caption.
func IsObject(label string) bool {
	return objectVocabulary[label]
}

// Canonical maps a label to its canonical form after normalization.
//
// Exact synonyms and known labels win. Otherwise a label naming a person
// becomes the person label, plurals fold to a known singular and an
// adjective phrase such as "red car" folds to its known last word. Labels
// matching none of these are returned normalized.
func Canonical(label string) string {
	n := labels.Normalize(label)
	if n == "" {
		return ""
	}
	if c, ok := known(n); ok {
		return c
	}
	words := labels.Words(n)
	for _, w := range words {
		if personWords[w] {
			return model.PersonLabel
		}
	}
	if c, ok := knownSingular(n); ok {
		return c
	}
	if len(words) > 1 {
		last := words[len(words)-1]
		if c, ok := known(last); ok {
			return c
		}
		if c, ok := knownSingular(last); ok {
			return c
		}
	}
	return n
}

// known resolves n against the synonym table and every label set the
// normalizer understands.
func known(n string) (string, bool) {
	if c, ok := synonyms[n]; ok {
		return c, true
	}
	if objectVocabulary[n] || indoorIndicators[n] || outdoorIndicators[n] ||
		documentIndicators[n] || screenIndicators[n] || diagramIndicators[n] ||
		descriptorLabels[n] {
		return n, true
	}
	return "", false
}

func knownSingular(n string) (string, bool) {
	for _, s := range singulars(n) {
		if c, ok := known(s); ok {
			return c, true
		}
	}
	return "", false
}

// singulars returns candidate singular forms of the last word of n.
func singulars(n string) []string {
	i := strings.LastIndexByte(n, ' ')
	head, last := n[:i+1], n[i+1:]
	out := make([]string, 0, 2)
	switch {
	case len(last) > 3 && strings.HasSuffix(last, "ies"):
		out = append(out, head+last[:len(last)-3]+"y")
	case len(last) > 2 && strings.HasSuffix(last, "es"):
		out = append(out, head+last[:len(last)-2])
	}
	if len(last) > 1 && strings.HasSuffix(last, "s") && !strings.HasSuffix(last, "ss") {
		out = append(out, head+last[:len(last)-1])
	}
	return out
}

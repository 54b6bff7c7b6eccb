package ollama

const classifyPrompt = `Describe the content of this image as JSON only, with no prose.
Return {"labels":[{"label":"<noun>","confidence":<0..1>}]} with at most 10 labels,
most confident first. Use short common nouns for objects, scenes and image kinds
(for example "laptop", "street", "document", "screenshot", "person").
Never identify people. Never guess age, gender, ethnicity or emotion.`

const detectPrompt = `List the distinct objects visible in this image as JSON only, with no prose.
Return {"objects":[{"label":"<noun>","confidence":<0..1>,"box":{"x":<0..1>,"y":<0..1>,"w":<0..1>,"h":<0..1>}}]}
where box is the top-left corner and size relative to the image.
Use short common nouns. A human is always labeled "person".
Never identify people. Never guess age, gender, ethnicity or emotion.`

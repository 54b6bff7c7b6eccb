// Package ollama provides a Classifier and a Detector backed by a vision
// model served by a local Ollama instance.
//
// The model is prompted for JSON only. Replies are sanitized (code fences,
// comments and trailing commas removed) before decoding. Prompts ask for
// objects and scene content and forbid identity, age, gender and emotion
// guesses; labels that slip through are dropped later by the semantic
// normalizer.
package ollama

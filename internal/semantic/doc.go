// Package semantic fuses classifier labels, detections and recognized text
// into a single SemanticDescription: what kind of image it is, where it was
// taken, who or what is in it and what is happening.
//
// Every decision is table driven and deterministic. Output only ever
// contains canonical labels (the right-hand side of the synonym table) and
// phrases from the action table, never demographic or identity terms.
package semantic

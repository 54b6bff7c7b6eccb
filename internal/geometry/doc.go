// Package geometry holds the single transform between pixel-space and
// image-relative bounding boxes. Detection, OCR and the model providers all
// go through it so boxes are converted exactly one way.
package geometry

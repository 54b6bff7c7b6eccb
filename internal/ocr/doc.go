// Package ocr decides whether text recognition should run, runs it through
// the external recognizer and turns the raw blocks into a cleaned,
// length-limited summary.
//
// OCR is triggered when the user asked for it on every image, or when the
// classifier reports a label that usually means visible text (a document, a
// sign, a screen) with confidence above TriggerConfidence. Recognized text
// stays inside OCRResult; captions never quote it.
package ocr

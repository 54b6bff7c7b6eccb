// Package tesseract provides a text Recognizer backed by the Tesseract OCR
// engine through gosseract.
//
// The cgo binding is only compiled with the "tesseract" build tag. Without
// the tag, Load reports capability.ErrProviderNotBuilt and OCR is treated as
// unavailable.
package tesseract

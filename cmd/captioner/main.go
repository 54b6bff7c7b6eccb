// Package main provides the entry point for the captioner CLI.
//
// captioner turns images into short, privacy-safe captions with a
// calibrated confidence, entirely on the local machine.
//
// Usage:
//
//	captioner caption photo.jpg
//	captioner caption --batch 8 *.png
//	captioner history photo.jpg
//
// See --help for all available options.
package main

// main is the entry point for captioner.
func main() {
	Execute()
}

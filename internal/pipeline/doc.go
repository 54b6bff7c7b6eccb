// Package pipeline provides a framework for executing caption stages in
// sequence, for one image and for batches of images.
//
// A Pipeline is a static, ordered list of Stage descriptors executed by a
// generic runner. Every stage reads and writes a shared run state and gets
// one StageTiming, whether it completed, failed or was skipped:
//
//	normalize -> classify -> detect -> ocr -> semantic ->
//	template -> synthesize -> score -> gate
//
// Only normalize is required. A failing optional stage is recorded and the
// run continues with whatever signals are left; a failing required stage
// marks the remaining stages as skipped.
//
// The Captioner owns the stage list, the configuration and the lazily loaded
// model adapters, and is the public entry point. ProcessImage and
// ProcessImageFromURI never return an error and never return a nil result:
// failures become a result with the minimal safe caption. The configuration
// is swapped atomically by UpdateConfig and read once per run.
//
// The pipeline supports both individual images and batch processing with
// concurrency control using errgroup. Each image still runs its stages
// sequentially; only whole images run in parallel.
package pipeline

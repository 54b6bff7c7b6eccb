// Package model defines the data structures shared by every stage of the
// caption pipeline.
//
// This package contains the following main types:
//   - ImageBitmap: the raw input handed to the pipeline
//   - NormalizedImage: the fixed-size tensor plus retained pixel buffers
//   - ClassificationResult, DetectionResult, OCRResult: per-signal outputs
//   - SemanticDescription: the fused scene interpretation
//   - SynthesizedCaption: the templated caption before gating
//   - ConfidenceBreakdown and QualityGateResult: scoring and gating
//   - PipelineResult: the externally returned result of one run
//
// Models live in their own package so that stage packages can share them
// without import cycles. Everything except raw buffers serializes to JSON
// for reports and the caption history database.
package model

package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrInvalidTargetSize is returned when the tensor size is not positive.
	ErrInvalidTargetSize = errors.New("invalid target size: must be positive")

	// ErrInvalidClassificationThreshold is returned when the classification
	// threshold is outside [0,1].
	ErrInvalidClassificationThreshold = errors.New("invalid classification threshold: must be within [0,1]")

	// ErrInvalidDetectionThreshold is returned when the detection threshold
	// is outside [0,1].
	ErrInvalidDetectionThreshold = errors.New("invalid detection threshold: must be within [0,1]")

	// ErrInvalidMaxLabels is returned when the label cap is not positive.
	ErrInvalidMaxLabels = errors.New("invalid max labels: must be positive")

	// ErrInvalidMaxObjects is returned when the object cap is not positive.
	ErrInvalidMaxObjects = errors.New("invalid max objects: must be positive")

	// ErrInvalidQualityThreshold is returned when the quality threshold is
	// outside [0,1].
	ErrInvalidQualityThreshold = errors.New("invalid quality threshold: must be within [0,1]")

	// ErrInvalidOCRSummaryLength is returned when the OCR summary limit is not positive.
	ErrInvalidOCRSummaryLength = errors.New("invalid OCR summary length: must be positive")

	// ErrInvalidCaptionWords is returned when the caption word limit is not positive.
	ErrInvalidCaptionWords = errors.New("invalid caption word limit: must be positive")

	// ErrInvalidRetryPolicy is returned when retry count or backoff is negative.
	ErrInvalidRetryPolicy = errors.New("invalid model retry policy: values must be non-negative")
)

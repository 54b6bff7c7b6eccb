// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// This package extends slog to provide:
//   - Automatic sanitization of what an image says or shows (recognized text,
//     OCR summaries, embedded descriptions)
//   - Configurable log levels with verbose mode support
//   - Text and JSON output through the same handler
//   - Consistent log formatting across the pipeline and the CLI
//
// # Security Features
//
// The SecureHandler sanitizes log output before it reaches the wrapped handler:
//   - Attributes that carry recognized text (text, extracted_text,
//     text_summary, description)
//   - E-mail addresses and phone numbers detected by pattern
//   - Long digit runs such as card or account numbers
//   - Provider credentials (api_key, token, authorization, JWT and bearer
//     values)
//   - Inline base64 image payloads
//
// Masked values are replaced by MaskValue.
//
// Even in verbose mode these values are masked, so logs can be shared or
// attached to bug reports without leaking what was written in a captioned
// image.
//
// # Usage
//
//	// Create a secure logger
//	logger := log.NewSecureLogger(os.Stderr, true) // verbose=true
//
//	// Use as a standard slog.Logger
//	logger.Debug("ocr finished",
//	    "text_summary", "Call me at +1 555 123 4567", // masked
//	    "blocks", 3,
//	)
//
//	// Set as default logger
//	slog.SetDefault(logger)
//
// # JSON Output
//
// NewSecureJSONLogger wraps slog.JSONHandler with the same sanitization for
// log collectors:
//
//	logger := log.NewSecureJSONLogger(os.Stderr, verbose)
//	captioner, err := pipeline.NewCaptioner(cfg, pipeline.WithCaptionerLogger(logger))
package log

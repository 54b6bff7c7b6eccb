// Package capability defines the contracts of the external model
// capabilities (image classification, object detection, text recognition)
// and the lazy loader that initializes them.
//
// Each capability is loaded at most once. A successful load is memoized. A
// failed load is memoized too, permanently by default or until the retry
// backoff elapses when a RetryPolicy allows more attempts. Callers only see
// "available" or "unavailable"; adapters convert unavailability into an
// empty, successful result.
package capability

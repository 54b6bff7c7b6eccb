// Package gate makes the final accept or fallback decision for a caption.
//
// Evaluate is a pure function of the caption, the confidence breakdown and
// the gate parameters. A caption that fails is replaced by
// model.MinimalSafeCaption and cloud escalation is recommended.
package gate

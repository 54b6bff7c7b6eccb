package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/captioner/internal/model"
)

// SimpleWriter outputs human-readable text reports for terminal display.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether empty signal sections are shown.
	showEmpty bool

	// verbose adds signals and stage timings to each record.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		showEmpty:  false,
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the records in human-readable format.
func (w *SimpleWriter) Write(records []*model.CaptionRecord) (int, error) {
	var sb strings.Builder

	for _, rec := range records {
		if rec == nil {
			continue
		}
		w.writeRecord(&sb, rec)
	}

	if len(records) > 1 {
		w.writeSummary(&sb, Summarize(records))
	}

	return w.output.Write([]byte(sb.String()))
}

// writeRecord writes one captioned image.
func (w *SimpleWriter) writeRecord(sb *strings.Builder, rec *model.CaptionRecord) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Source:     %s\n", rec.Source))

	res := rec.Result
	if res == nil {
		sb.WriteString("Status:     no result\n\n")
		return
	}

	sb.WriteString(fmt.Sprintf("Caption:    %s\n", res.Caption))
	sb.WriteString(fmt.Sprintf("Confidence: %s\n", formatPercent(res.Confidence)))
	sb.WriteString(fmt.Sprintf("Status:     %s\n", outcome(res)))
	if res.Error != "" {
		sb.WriteString(fmt.Sprintf("Error:      %s\n", res.Error))
	}
	if res.Signals.Gate.Reason != "" {
		sb.WriteString(fmt.Sprintf("Reason:     %s\n", res.Signals.Gate.Reason))
	}
	if res.RecommendCloudEscalation {
		sb.WriteString("Escalate:   yes\n")
	}
	if rec.EmbeddedDescription != "" {
		sb.WriteString(fmt.Sprintf("Embedded:   %s\n", rec.EmbeddedDescription))
	}
	if len(rec.PrivacyExposures) > 0 {
		sb.WriteString(fmt.Sprintf("Privacy:    file carries %s metadata\n", strings.Join(rec.PrivacyExposures, ", ")))
	}

	if w.verbose {
		w.writeSignals(sb, res)
		w.writeTimings(sb, res)
	}
	sb.WriteString("\n")
}

// writeSignals writes the intermediate signals of a run.
func (w *SimpleWriter) writeSignals(sb *strings.Builder, res *model.PipelineResult) {
	sig := res.Signals

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  Type:        %s (%s)\n", sig.Semantic.ImageType, sig.Semantic.Environment))
	sb.WriteString(fmt.Sprintf("  Template:    %s\n", sig.Caption.TemplateID))

	if len(sig.Classification.Labels) > 0 || w.showEmpty {
		sb.WriteString("  Labels:\n")
		if len(sig.Classification.Labels) == 0 {
			sb.WriteString("    none\n")
		}
		for _, l := range sig.Classification.Labels {
			sb.WriteString(fmt.Sprintf("    [+] %s %s\n", l.Text, formatPercent(l.Confidence)))
		}
	}

	if len(sig.Detection.Objects) > 0 || w.showEmpty {
		sb.WriteString("  Objects:\n")
		if len(sig.Detection.Objects) == 0 {
			sb.WriteString("    none\n")
		}
		for _, o := range sig.Detection.Objects {
			sb.WriteString(fmt.Sprintf("    [+] %s %s\n", o.Label, formatPercent(o.Confidence)))
		}
	}

	if sig.OCR.Triggered || w.showEmpty {
		sb.WriteString(fmt.Sprintf("  OCR:         %s, %d block(s)\n", sig.OCR.TriggerReason, len(sig.OCR.Blocks)))
	}

	c := sig.Confidence
	sb.WriteString(fmt.Sprintf("  Scores:      classification %.2f, detection %.2f, ocr %.2f, consistency %.2f\n",
		c.Classification, c.Detection, c.OCR, c.Consistency))
	if c.Note != "" {
		sb.WriteString(fmt.Sprintf("  Note:        %s\n", c.Note))
	}
}

// writeTimings writes the per-stage status and duration.
func (w *SimpleWriter) writeTimings(sb *strings.Builder, res *model.PipelineResult) {
	if len(res.Timings) == 0 {
		return
	}
	sb.WriteString("  Stages:\n")
	for _, t := range res.Timings {
		line := fmt.Sprintf("    %-13s %-9s %s", t.Stage, t.Status, t.Duration)
		if t.Error != "" {
			line += " (" + t.Error + ")"
		}
		sb.WriteString(line + "\n")
	}
	sb.WriteString(fmt.Sprintf("  Total:       %s\n", res.TotalDuration))
}

// writeSummary writes the outcome counts of a batch.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, s Summary) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  IMAGES:     %d\n", s.Total))
	sb.WriteString(fmt.Sprintf("  PASSED:     %d (borderline %d)\n", s.Passed, s.Borderline))
	sb.WriteString(fmt.Sprintf("  FAILED:     %d\n", s.Failed))
	sb.WriteString(fmt.Sprintf("  ERRORS:     %d\n", s.Errors))
	sb.WriteString(fmt.Sprintf("  ESCALATE:   %d\n", s.Escalated))
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}

// formatPercent renders a [0,1] value as a whole percentage.
func formatPercent(v float64) string {
	return fmt.Sprintf("%.0f%%", v*100)
}

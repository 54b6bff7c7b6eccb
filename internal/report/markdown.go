package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/captioner/internal/model"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// MarkdownWriter outputs records in Markdown format for documentation
// and sharing.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the records in Markdown format.
func (w *MarkdownWriter) Write(records []*model.CaptionRecord) (int, error) {
	md := markdown.NewMarkdown(w.output)
	records = compact(records)

	md.H1("Caption Report")
	md.PlainText("")

	w.writeSummary(md, Summarize(records))
	w.writeCaptions(md, records)

	for _, rec := range records {
		w.writeDetails(md, rec)
	}

	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeSummary writes the outcome counts section.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, s Summary) {
	md.H2("Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Outcome", "Count"},
		Rows: [][]string{
			{"✅ Passed", strconv.Itoa(s.Passed - s.Borderline)},
			{"🟡 Borderline", strconv.Itoa(s.Borderline)},
			{"❌ Failed", strconv.Itoa(s.Failed)},
			{"⚠️ Error", strconv.Itoa(s.Errors)},
			{"**Total**", "**" + strconv.Itoa(s.Total) + "**"},
		},
	})
	md.PlainText("")

	if s.Total > 1 {
		w.writePieChart(md, s)
	}

	w.writeAlert(md, s)
}

// writePieChart writes a mermaid pie chart of gate outcomes.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, s Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Quality Gate Outcomes"),
		piechart.WithShowData(true),
	)

	if n := s.Passed - s.Borderline; n > 0 {
		chart.LabelAndIntValue("Passed", uint64(n))
	}
	if s.Borderline > 0 {
		chart.LabelAndIntValue("Borderline", uint64(s.Borderline))
	}
	if s.Failed > 0 {
		chart.LabelAndIntValue("Failed", uint64(s.Failed))
	}
	if s.Errors > 0 {
		chart.LabelAndIntValue("Error", uint64(s.Errors))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an alert summarizing how many captions need escalation.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, s Summary) {
	switch {
	case s.Errors > 0:
		md.Cautionf("%d image(s) could not be captioned.", s.Errors)
	case s.Escalated > 0:
		md.Warningf("%d caption(s) are recommended for cloud escalation.", s.Escalated)
	case s.Total == 0:
		md.Note("No images were captioned.")
	default:
		md.Tip("Every caption passed the quality gate.")
	}
	md.PlainText("")
}

// writeCaptions writes one table row per record.
func (w *MarkdownWriter) writeCaptions(md *markdown.Markdown, records []*model.CaptionRecord) {
	md.H2("Captions")
	md.PlainText("")

	if len(records) == 0 {
		md.PlainText("No captions.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(records))
	for i, rec := range records {
		caption, confidence := "-", "-"
		if rec.Result != nil {
			caption = rec.Result.Caption
			confidence = formatPercent(rec.Result.Confidence)
		}
		rows[i] = []string{
			"`" + truncateString(rec.Source, 40) + "`",
			caption,
			confidence,
			outcome(rec.Result),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Source", "Caption", "Confidence", "Status"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeDetails writes the gate reason and signal scores of one record in a
// collapsible block.
func (w *MarkdownWriter) writeDetails(md *markdown.Markdown, rec *model.CaptionRecord) {
	res := rec.Result
	if res == nil {
		return
	}
	c := res.Signals.Confidence
	text := fmt.Sprintf(
		"reason: %s<br>template: %s<br>type: %s, environment: %s<br>classification %.2f, detection %.2f, ocr %.2f, consistency %.2f",
		res.Signals.Gate.Reason,
		res.Signals.Caption.TemplateID,
		res.Signals.Semantic.ImageType,
		res.Signals.Semantic.Environment,
		c.Classification, c.Detection, c.OCR, c.Consistency,
	)
	if rec.EmbeddedDescription != "" {
		text += "<br>embedded description: " + rec.EmbeddedDescription
	}
	if len(rec.PrivacyExposures) > 0 {
		text += "<br>privacy: file carries " + strings.Join(rec.PrivacyExposures, ", ") + " metadata"
	}
	md.Details(truncateString(rec.Source, 60), text)
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.PlainText("")
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [captioner](https://github.com/nao1215/captioner)*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

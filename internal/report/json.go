package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/captioner/internal/model"
)

// JSONWriter outputs records as a JSON array.
// This format is designed for tool integration and programmatic processing.
//
// Records are written with per-stage timings and the confidence breakdown.
// The full recognized text is never part of the output; only the cleaned OCR
// summary is, as defined by the JSON tags of model.OCRResult.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
// This is a convenience wrapper for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = ""
		w.indentString = "  "
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter:   newBaseWriter(output),
		indent:       false,
		indentPrefix: "",
		indentString: "",
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the records as a JSON array. Nil records are dropped.
func (w *JSONWriter) Write(records []*model.CaptionRecord) (int, error) {
	return w.writeJSON(compact(records))
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}

// JSONReport wraps records with the producing version and outcome counts.
// This is used when writing the complete report with contextual information.
//
// The envelope keeps output-only fields such as the summary out of
// CaptionRecord, which is also what the history database stores.
type JSONReport struct {
	// Version is the captioner version that produced the records.
	Version string `json:"version"`

	// Summary counts the gate outcomes.
	Summary Summary `json:"summary"`

	// Records are the captioned images.
	Records []*model.CaptionRecord `json:"records"`
}

// NewJSONReport creates a JSONReport wrapper with version information.
func NewJSONReport(records []*model.CaptionRecord, version string) *JSONReport {
	return &JSONReport{
		Version: version,
		Summary: Summarize(records),
		Records: compact(records),
	}
}

// FullJSONWriter outputs records inside a JSONReport envelope.
// The captioner CLI uses it for --json.
type FullJSONWriter struct {
	*JSONWriter

	// version is the captioner version string.
	version string
}

// NewFullJSONWriter creates a writer for complete reports with metadata.
func NewFullJSONWriter(output io.Writer, version string, opts ...JSONWriterOption) *FullJSONWriter {
	return &FullJSONWriter{
		JSONWriter: NewJSONWriter(output, opts...),
		version:    version,
	}
}

// Write outputs the records wrapped with metadata.
func (w *FullJSONWriter) Write(records []*model.CaptionRecord) (int, error) {
	return w.writeJSON(NewJSONReport(records, w.version))
}

// compact returns records without nil entries. It never returns nil so that
// an empty set encodes as [].
func compact(records []*model.CaptionRecord) []*model.CaptionRecord {
	out := make([]*model.CaptionRecord, 0, len(records))
	for _, rec := range records {
		if rec != nil {
			out = append(out, rec)
		}
	}
	return out
}

// Package report renders caption records for people and tools.
//
// This package contains writers for different output formats:
//   - SimpleWriter: Human-readable text output for terminal display
//   - JSONWriter and FullJSONWriter: Structured JSON output for tool integration
//   - MarkdownWriter: Markdown with summary tables and a mermaid chart
//
// Writers implement the Writer interface, allowing them to be used
// interchangeably and composed for multi-format output. Drift compares two
// captions of the same image across runs.
//
// Writers never print recognized text. The OCR section shows only the
// trigger reason and block count.
package report

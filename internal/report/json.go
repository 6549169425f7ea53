package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/clfetch/internal/model"
)

// JSONWriter outputs reports in JSON format.
// This format is designed for tool integration and programmatic processing.
//
// Design decision: We use standard encoding/json rather than a third-party
// JSON library because:
// 1. It's part of the standard library (no extra dependencies)
// 2. It's sufficient for our needs
// 3. It provides consistent behavior across Go versions
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

// WriteSearch outputs the search report in JSON format.
func (w *JSONWriter) WriteSearch(report *model.SearchReport) (int, error) {
	return w.writeJSON(report)
}

// WriteFetch outputs the fetch report in JSON format.
func (w *JSONWriter) WriteFetch(report *model.FetchReport) (int, error) {
	return w.writeJSON(report)
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v interface{}) (int, error) {
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

// JSONReport is a wrapper for a report with additional metadata.
// This is used when writing a report with contextual information.
//
// Design decision: We wrap the report rather than adding fields to the
// model types because this allows us to add output-specific fields without
// polluting the core data structures.
type JSONReport struct {
	// Version is the clfetch version that generated this report.
	Version string `json:"version"`

	// Search is the search report, if this run was a search.
	Search *model.SearchReport `json:"search,omitempty"`

	// Fetch is the fetch report, if this run fetched explicit URLs.
	Fetch *model.FetchReport `json:"fetch,omitempty"`
}

// FullJSONWriter outputs reports wrapped with version metadata.
type FullJSONWriter struct {
	*JSONWriter

	// version is the clfetch version string.
	version string
}

// NewFullJSONWriter creates a writer for reports with metadata.
func NewFullJSONWriter(output io.Writer, version string, opts ...JSONWriterOption) *FullJSONWriter {
	return &FullJSONWriter{
		JSONWriter: NewJSONWriter(output, opts...),
		version:    version,
	}
}

// WriteSearch outputs the search report wrapped with metadata.
func (w *FullJSONWriter) WriteSearch(report *model.SearchReport) (int, error) {
	return w.writeJSON(&JSONReport{Version: w.version, Search: report})
}

// WriteFetch outputs the fetch report wrapped with metadata.
func (w *FullJSONWriter) WriteFetch(report *model.FetchReport) (int, error) {
	return w.writeJSON(&JSONReport{Version: w.version, Fetch: report})
}

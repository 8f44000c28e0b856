// Package report renders link reports, document analyses and harvest results
// as JSON, YAML or Markdown.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Supported output formats
const (
	FormatJSON     = "json"
	FormatYAML     = "yaml"
	FormatMarkdown = "markdown"
)

var (
	ErrUnknownFormat   = errors.New("unknown output format")
	ErrUnsupportedType = errors.New("value cannot be rendered in this format")
)

// Writer renders one value to its output
type Writer interface {
	Write(v any) error
}

// NewWriter returns the writer for format
func NewWriter(format string, out io.Writer) (Writer, error) {
	switch format {
	case FormatJSON, "":
		return &JSONWriter{output: out, indent: "  "}, nil
	case FormatYAML:
		return &YAMLWriter{output: out}, nil
	case FormatMarkdown, "md":
		return &MarkdownWriter{output: out}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
}

// JSONWriter writes indented JSON
type JSONWriter struct {
	output io.Writer
	indent string
}

func (w *JSONWriter) Write(v any) error {
	enc := json.NewEncoder(w.output)
	enc.SetIndent("", w.indent)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// YAMLWriter writes YAML documents
type YAMLWriter struct {
	output io.Writer
}

func (w *YAMLWriter) Write(v any) error {
	enc := yaml.NewEncoder(w.output)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return nil
}

// Render is a convenience returning the rendered value as a string
func Render(format string, v any) (string, error) {
	var buf strings.Builder
	w, err := NewWriter(format, &buf)
	if err != nil {
		return "", err
	}
	if err := w.Write(v); err != nil {
		return "", err
	}
	return buf.String(), nil
}

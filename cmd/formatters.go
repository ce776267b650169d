package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"gfmclip/pkg/errors"
	"gfmclip/pkg/markdown"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"gopkg.in/yaml.v3"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	// FormatGFM prints the markdown alone
	FormatGFM OutputFormat = "gfm"
	// FormatJSON outputs as JSON
	FormatJSON OutputFormat = "json"
	// FormatYAML outputs as YAML
	FormatYAML OutputFormat = "yaml"
)

// NewOutputFormat validates a --format value.
func NewOutputFormat(format string) (OutputFormat, error) {
	f := OutputFormat(strings.ToLower(format))
	for _, valid := range ValidFormats() {
		if string(f) == valid {
			return f, nil
		}
	}
	return "", errors.NewWithSuggestion(errors.ExitCodeValidation,
		fmt.Sprintf("unknown output format %q", format),
		"Use one of: "+strings.Join(ValidFormats(), ", "))
}

// OutputWriter handles structured output formatting
type OutputWriter struct {
	format OutputFormat
	writer io.Writer
}

// NewOutputWriter creates a new output writer with the specified format
func NewOutputWriter(format string) *OutputWriter {
	f, err := NewOutputFormat(format)
	if err != nil {
		f = FormatGFM // default
	}
	return &OutputWriter{
		format: f,
		writer: os.Stdout,
	}
}

// SetWriter sets a custom writer (used in tests)
func (w *OutputWriter) SetWriter(writer io.Writer) {
	w.writer = writer
}

// GetFormat returns the current format
func (w *OutputWriter) GetFormat() OutputFormat {
	return w.format
}

// IsStructured returns true if the format is JSON or YAML
func (w *OutputWriter) IsStructured() bool {
	return w.format == FormatJSON || w.format == FormatYAML
}

// Write outputs the data in the configured format
func (w *OutputWriter) Write(data interface{}) error {
	switch w.format {
	case FormatJSON:
		encoder := json.NewEncoder(w.writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(data)
	case FormatYAML:
		encoder := yaml.NewEncoder(w.writer)
		defer encoder.Close()
		return encoder.Encode(data)
	default:
		// GFM output is handled by individual commands
		return nil
	}
}

// WriteText writes text followed by a newline when it lacks one.
func (w *OutputWriter) WriteText(text string) error {
	if text != "" && !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	_, err := io.WriteString(w.writer, text)
	return err
}

// WriteMarkup prints markup, rendered for the terminal when preview is set
// and the writer is a terminal.
func (w *OutputWriter) WriteMarkup(markup string, preview bool) error {
	if preview && isTerminal(w.writer) {
		rendered, err := markdown.Preview(markup, terminalWidth)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w.writer, rendered)
		return err
	}
	return w.WriteText(markup)
}

// ValidFormats returns a list of valid output formats
func ValidFormats() []string {
	return []string{string(FormatGFM), string(FormatJSON), string(FormatYAML)}
}

const terminalWidth = 100

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// notify prints a confirmation on stderr so stdout stays clean for markup.
func notify(format string, args ...interface{}) {
	fmt.Fprintln(os.Stderr, color.GreenString("✓ "+format, args...))
}

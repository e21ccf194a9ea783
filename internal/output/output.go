// Package output renders CLI results in text, JSON, or YAML, the same
// Printer/Format shape the teacher's CLI uses for its own resource tables.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format represents an output format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat parses a format string, defaulting to FormatText.
func ParseFormat(s string) Format {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON
	case "yaml", "yml":
		return FormatYAML
	default:
		return FormatText
	}
}

// Printer handles formatted output.
type Printer struct {
	format  Format
	writer  io.Writer
	noColor bool
}

// NewPrinter creates a new printer for format, writing to stdout.
func NewPrinter(format Format) *Printer {
	return &Printer{
		format:  format,
		writer:  os.Stdout,
		noColor: os.Getenv("NO_COLOR") != "",
	}
}

// SetWriter sets the output writer.
func (p *Printer) SetWriter(w io.Writer) {
	p.writer = w
}

func (p *Printer) printJSON(data any) error {
	enc := json.NewEncoder(p.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func (p *Printer) printYAML(data any) error {
	enc := yaml.NewEncoder(p.writer)
	enc.SetIndent(2)
	return enc.Encode(data)
}

// Color codes.
const (
	Reset  = "\033[0m"
	Bold   = "\033[1m"
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Blue   = "\033[34m"
	Cyan   = "\033[36m"
	Gray   = "\033[90m"
)

// Colorize wraps text in color unless NO_COLOR is set.
func (p *Printer) Colorize(color, text string) string {
	if p.noColor {
		return text
	}
	return color + text + Reset
}

// GetResult is the rendered shape of a CondDB.Get call.
type GetResult struct {
	Tag     string `json:"tag" yaml:"tag"`
	Path    string `json:"path" yaml:"path"`
	Time    uint64 `json:"time" yaml:"time"`
	Payload string `json:"payload" yaml:"payload"`
	Since   uint64 `json:"since" yaml:"since"`
	Until   uint64 `json:"until" yaml:"until"`
	Valid   bool   `json:"valid" yaml:"valid"`
}

// PrintGetResult renders a get result.
func (p *Printer) PrintGetResult(r GetResult) error {
	if p.format == FormatJSON {
		return p.printJSON(r)
	}
	if p.format == FormatYAML {
		return p.printYAML(r)
	}

	fmt.Fprintf(p.writer, "%s %s:%s @ %d\n", p.Colorize(Bold, "key:"), r.Tag, r.Path, r.Time)
	if !r.Valid {
		fmt.Fprintf(p.writer, "%s\n", p.Colorize(Yellow, "iov: invalid (no entry at this time)"))
		return nil
	}
	fmt.Fprintf(p.writer, "%s [%d, %d)\n", p.Colorize(Bold, "iov:"), r.Since, r.Until)
	fmt.Fprintf(p.writer, "%s\n%s\n", p.Colorize(Bold, "payload:"), r.Payload)
	return nil
}

// BoundariesResult is the rendered shape of a CondDB.IOVBoundaries call.
type BoundariesResult struct {
	Tag        string   `json:"tag" yaml:"tag"`
	Path       string   `json:"path" yaml:"path"`
	Boundaries []uint64 `json:"boundaries" yaml:"boundaries"`
}

// PrintBoundariesResult renders an iov_boundaries result.
func (p *Printer) PrintBoundariesResult(r BoundariesResult) error {
	if p.format == FormatJSON {
		return p.printJSON(r)
	}
	if p.format == FormatYAML {
		return p.printYAML(r)
	}

	fmt.Fprintf(p.writer, "%s %s:%s\n", p.Colorize(Bold, "key:"), r.Tag, r.Path)
	if len(r.Boundaries) == 0 {
		fmt.Fprintln(p.writer, p.Colorize(Gray, "(no boundaries)"))
		return nil
	}
	strs := make([]string, len(r.Boundaries))
	for i, b := range r.Boundaries {
		strs[i] = fmt.Sprintf("%d", b)
	}
	fmt.Fprintf(p.writer, "%s [%s]\n", p.Colorize(Bold, "boundaries:"), strings.Join(strs, ", "))
	return nil
}

// CommitTimeResult is the rendered shape of a CondDB.CommitTime call.
type CommitTimeResult struct {
	Ref        string `json:"ref" yaml:"ref"`
	CommitTime uint64 `json:"commit_time" yaml:"commit_time"`
}

// PrintCommitTimeResult renders a commit_time result.
func (p *Printer) PrintCommitTimeResult(r CommitTimeResult) error {
	if p.format == FormatJSON {
		return p.printJSON(r)
	}
	if p.format == FormatYAML {
		return p.printYAML(r)
	}
	fmt.Fprintf(p.writer, "%s %s\n%s %d\n", p.Colorize(Bold, "ref:"), r.Ref, p.Colorize(Bold, "commit_time:"), r.CommitTime)
	return nil
}

// Success prints a success message.
func (p *Printer) Success(format string, args ...any) {
	fmt.Fprintln(p.writer, p.Colorize(Green, "✓ ")+fmt.Sprintf(format, args...))
}

// Error prints an error message.
func (p *Printer) Error(format string, args ...any) {
	fmt.Fprintln(p.writer, p.Colorize(Red, "✗ ")+fmt.Sprintf(format, args...))
}

// Warning prints a warning message.
func (p *Printer) Warning(format string, args ...any) {
	fmt.Fprintln(p.writer, p.Colorize(Yellow, "⚠ ")+fmt.Sprintf(format, args...))
}

// Info prints an info message.
func (p *Printer) Info(format string, args ...any) {
	fmt.Fprintln(p.writer, p.Colorize(Blue, "ℹ ")+fmt.Sprintf(format, args...))
}

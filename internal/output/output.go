// Package output renders command results as aligned tables, JSON or YAML.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// Format selects how results are rendered
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat accepts table, json or yaml (case-insensitive); empty means table
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatTable:
		return FormatTable, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown output format %q (want table, json or yaml)", s)
}

// Printer writes results to w in one format
type Printer struct {
	w      io.Writer
	format Format
}

// NewPrinter creates a printer
func NewPrinter(w io.Writer, format Format) *Printer {
	return &Printer{w: w, format: format}
}

// Format returns the printer's format
func (p *Printer) Format() Format {
	return p.format
}

// Render writes v as JSON or YAML, or calls table for the table format.
// YAML keys follow the JSON field names.
func (p *Printer) Render(v interface{}, table func(t *Table)) error {
	switch p.format {
	case FormatJSON:
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode json: %w", err)
		}
		return nil
	case FormatYAML:
		return p.yaml(v)
	}

	t := newTable(p.w)
	table(t)
	return t.flush()
}

// Message prints a line in table mode; structured formats get v instead
func (p *Printer) Message(v interface{}, format string, args ...interface{}) error {
	return p.Render(v, func(t *Table) {
		t.Line(fmt.Sprintf(format, args...))
	})
}

func (p *Printer) yaml(v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode yaml: %w", err)
	}
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return fmt.Errorf("failed to encode yaml: %w", err)
	}

	enc := yaml.NewEncoder(p.w)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return fmt.Errorf("failed to encode yaml: %w", err)
	}
	return enc.Close()
}

// Table collects tab-separated rows and aligns them on flush
type Table struct {
	tw  *tabwriter.Writer
	err error
}

func newTable(w io.Writer) *Table {
	return &Table{tw: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

// Row writes one aligned row
func (t *Table) Row(cells ...string) {
	t.write(strings.Join(cells, "\t") + "\n")
}

// Line writes text outside the column layout
func (t *Table) Line(text string) {
	t.write(text + "\n")
}

// Field writes a "key: value" row; an empty key continues the previous field
func (t *Table) Field(key, value string) {
	if key != "" {
		key += ":"
	}
	t.Row(key, value)
}

func (t *Table) write(s string) {
	if t.err != nil {
		return
	}
	_, t.err = io.WriteString(t.tw, s)
}

func (t *Table) flush() error {
	if t.err != nil {
		return fmt.Errorf("failed to write table: %w", t.err)
	}
	if err := t.tw.Flush(); err != nil {
		return fmt.Errorf("failed to write table: %w", err)
	}
	return nil
}

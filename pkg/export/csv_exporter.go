package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Section is one captioned table within a document, with optional
// summary lines rendered after the rows.
type Section struct {
	Caption string
	Rows    [][]string
	Footer  []string
}

// Document is a multi-section tabular export, such as a transcript with
// one table per academic session.
type Document struct {
	Title    string
	Subtitle string
	Meta     [][2]string
	Headers  []string
	Sections []Section
	Summary  []string
}

// CSVExporter renders a Document into CSV bytes. Captions, meta lines
// and summaries become single-cell rows between the tables.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV encoded bytes for the document.
func (e *CSVExporter) Render(doc Document) ([]byte, error) {
	if len(doc.Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}

	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)

	if doc.Title != "" {
		if err := writer.Write([]string{doc.Title}); err != nil {
			return nil, fmt.Errorf("write csv title: %w", err)
		}
	}
	for _, meta := range doc.Meta {
		if err := writer.Write([]string{meta[0], meta[1]}); err != nil {
			return nil, fmt.Errorf("write csv meta: %w", err)
		}
	}

	for _, section := range doc.Sections {
		if section.Caption != "" {
			if err := writer.Write([]string{section.Caption}); err != nil {
				return nil, fmt.Errorf("write csv caption: %w", err)
			}
		}
		if err := writer.Write(doc.Headers); err != nil {
			return nil, fmt.Errorf("write csv headers: %w", err)
		}
		for _, row := range section.Rows {
			if err := writer.Write(row); err != nil {
				return nil, fmt.Errorf("write csv row: %w", err)
			}
		}
		for _, line := range section.Footer {
			if err := writer.Write([]string{line}); err != nil {
				return nil, fmt.Errorf("write csv footer: %w", err)
			}
		}
	}

	for _, line := range doc.Summary {
		if err := writer.Write([]string{line}); err != nil {
			return nil, fmt.Errorf("write csv summary: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

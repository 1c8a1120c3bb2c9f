package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// PDFExporter renders a Document into a sectioned A4 PDF.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates the PDF. Each section gets its own table under a bold
// caption, with the section footer and document summary as plain lines.
func (e *PDFExporter) Render(doc Document) ([]byte, error) {
	if len(doc.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if doc.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(doc.Title), "", 1, "C", false, 0, "")
	}
	if doc.Subtitle != "" {
		pdf.SetFont("Arial", "", 11)
		pdf.CellFormat(0, 7, doc.Subtitle, "", 1, "C", false, 0, "")
	}
	pdf.Ln(3)

	pdf.SetFont("Arial", "", 10)
	for _, meta := range doc.Meta {
		pdf.CellFormat(45, 6, meta[0]+":", "", 0, "", false, 0, "")
		pdf.CellFormat(0, 6, meta[1], "", 1, "", false, 0, "")
	}
	if len(doc.Meta) > 0 {
		pdf.Ln(3)
	}

	colWidth := 190.0 / float64(len(doc.Headers))
	for _, section := range doc.Sections {
		if section.Caption != "" {
			pdf.SetFont("Arial", "B", 11)
			pdf.CellFormat(0, 8, section.Caption, "", 1, "", false, 0, "")
		}

		pdf.SetFont("Arial", "B", 9)
		for _, header := range doc.Headers {
			pdf.CellFormat(colWidth, 7, header, "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Arial", "", 9)
		for _, row := range section.Rows {
			for i := range doc.Headers {
				value := ""
				if i < len(row) {
					value = row[i]
				}
				pdf.CellFormat(colWidth, 6, value, "1", 0, "", false, 0, "")
			}
			pdf.Ln(-1)
		}

		pdf.SetFont("Arial", "I", 9)
		for _, line := range section.Footer {
			pdf.CellFormat(0, 6, line, "", 1, "R", false, 0, "")
		}
		pdf.Ln(4)
	}

	if len(doc.Summary) > 0 {
		pdf.SetFont("Arial", "B", 10)
		for _, line := range doc.Summary {
			pdf.CellFormat(0, 7, line, "", 1, "", false, 0, "")
		}
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

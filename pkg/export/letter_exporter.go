package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// Letter holds the content of a single-page admission letter.
type Letter struct {
	SchoolName string
	Title      string
	Recipient  string
	Paragraphs []string
	Fields     [][2]string
	IssuedBy   string
	IssuedAt   string
}

// LetterExporter renders admission letters as PDF documents.
type LetterExporter struct{}

// NewLetterExporter constructs a letter exporter.
func NewLetterExporter() *LetterExporter {
	return &LetterExporter{}
}

// Render creates a one-page PDF for the letter.
func (e *LetterExporter) Render(letter Letter) ([]byte, error) {
	if letter.Title == "" {
		return nil, fmt.Errorf("letter requires a title")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	if letter.SchoolName != "" {
		pdf.SetFont("Arial", "B", 16)
		pdf.CellFormat(0, 10, letter.SchoolName, "", 1, "C", false, 0, "")
		pdf.Ln(2)
	}

	pdf.SetFont("Arial", "B", 13)
	pdf.CellFormat(0, 9, letter.Title, "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "", 11)
	if letter.Recipient != "" {
		pdf.CellFormat(0, 7, "Dear "+letter.Recipient+",", "", 1, "", false, 0, "")
		pdf.Ln(2)
	}

	for _, para := range letter.Paragraphs {
		pdf.MultiCell(0, 6, para, "", "", false)
		pdf.Ln(2)
	}

	if len(letter.Fields) > 0 {
		pdf.Ln(2)
		pdf.SetFont("Arial", "B", 10)
		for _, field := range letter.Fields {
			pdf.CellFormat(50, 7, field[0], "1", 0, "", false, 0, "")
			pdf.SetFont("Arial", "", 10)
			pdf.CellFormat(0, 7, field[1], "1", 1, "", false, 0, "")
			pdf.SetFont("Arial", "B", 10)
		}
		pdf.Ln(4)
	}

	pdf.SetFont("Arial", "", 11)
	if letter.IssuedBy != "" {
		pdf.CellFormat(0, 7, "Issued by: "+letter.IssuedBy, "", 1, "", false, 0, "")
	}
	if letter.IssuedAt != "" {
		pdf.CellFormat(0, 7, "Date: "+letter.IssuedAt, "", 1, "", false, 0, "")
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render letter pdf: %w", err)
	}
	return buf.Bytes(), nil
}

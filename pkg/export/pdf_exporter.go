package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfMargin     = 10.0
	pdfRowHeight  = 7.0
	pdfHeadHeight = 8.0
	landscapeCols = 6
)

// PDFExporter lays the dataset out as a bordered table on A4.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render draws the title, then the table. Wide tables switch to landscape and
// the header row repeats on every page.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if err := data.validate(); err != nil {
		return nil, fmt.Errorf("pdf: %w", err)
	}

	orientation := "P"
	if len(data.Headers) >= landscapeCols {
		orientation = "L"
	}
	pdf := gofpdf.New(orientation, "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)
	pdf.AddPage()

	pageW, pageH := pdf.GetPageSize()
	widths := columnWidths(pdf, data, pageW-2*pdfMargin)

	if title != "" {
		pdf.SetFont("Arial", "B", 13)
		pdf.CellFormat(0, 10, title, "", 1, "L", false, 0, "")
		pdf.Ln(2)
	}

	header := func() {
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		for i, h := range data.Headers {
			pdf.CellFormat(widths[i], pdfHeadHeight, h, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 9)
	}
	header()

	for _, row := range data.Rows {
		if pdf.GetY()+pdfRowHeight > pageH-pdfMargin {
			pdf.AddPage()
			header()
		}
		for i, cell := range row {
			pdf.CellFormat(widths[i], pdfRowHeight, cell, "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if data.Footer != nil {
		if pdf.GetY()+pdfRowHeight > pageH-pdfMargin {
			pdf.AddPage()
		}
		pdf.SetFont("Arial", "B", 9)
		for i, cell := range data.Footer {
			pdf.CellFormat(widths[i], pdfRowHeight, cell, "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// columnWidths shares the usable width in proportion to the widest cell of
// each column, with every column getting at least an equal minimum share.
func columnWidths(pdf *gofpdf.Fpdf, data Dataset, usable float64) []float64 {
	pdf.SetFont("Arial", "", 9)
	natural := make([]float64, len(data.Headers))
	measure := func(row []string) {
		for i, cell := range row {
			if w := pdf.GetStringWidth(cell) + 4; w > natural[i] {
				natural[i] = w
			}
		}
	}
	measure(data.Headers)
	for _, row := range data.Rows {
		measure(row)
	}
	if data.Footer != nil {
		measure(data.Footer)
	}

	minShare := usable / float64(len(natural)) / 2
	total := 0.0
	for i := range natural {
		if natural[i] < minShare {
			natural[i] = minShare
		}
		total += natural[i]
	}
	for i := range natural {
		natural[i] = natural[i] / total * usable
	}
	return natural
}

package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const defaultSheet = "Sheet1"

// XLSXExporter renders the dataset into a single-sheet workbook.
type XLSXExporter struct{}

// NewXLSXExporter constructs an XLSX exporter.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// Render names the sheet after the title, writes a bold frozen header row,
// the body, then the footer in bold.
func (e *XLSXExporter) Render(data Dataset, title string) ([]byte, error) {
	if err := data.validate(); err != nil {
		return nil, fmt.Errorf("xlsx: %w", err)
	}
	f := excelize.NewFile()
	defer f.Close()

	sheet := defaultSheet
	if title != "" {
		sheet = sheetName(title)
		if err := f.SetSheetName(defaultSheet, sheet); err != nil {
			return nil, fmt.Errorf("rename sheet: %w", err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}

	writeRow := func(line int, cells []string, style int) error {
		values := make([]interface{}, len(cells))
		for i, c := range cells {
			values[i] = c
		}
		start, err := excelize.CoordinatesToCellName(1, line)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, start, &values); err != nil {
			return err
		}
		if style == 0 {
			return nil
		}
		end, err := excelize.CoordinatesToCellName(len(cells), line)
		if err != nil {
			return err
		}
		return f.SetCellStyle(sheet, start, end, style)
	}

	if err := writeRow(1, data.Headers, bold); err != nil {
		return nil, fmt.Errorf("write xlsx headers: %w", err)
	}
	for i, row := range data.Rows {
		if err := writeRow(i+2, row, 0); err != nil {
			return nil, fmt.Errorf("write xlsx row %d: %w", i+1, err)
		}
	}
	if data.Footer != nil {
		if err := writeRow(len(data.Rows)+2, data.Footer, bold); err != nil {
			return nil, fmt.Errorf("write xlsx footer: %w", err)
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return nil, fmt.Errorf("freeze header: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

// Excel caps sheet names at 31 characters and rejects a few symbols.
func sheetName(title string) string {
	out := make([]rune, 0, len(title))
	for _, r := range title {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			continue
		}
		out = append(out, r)
		if len(out) == 31 {
			break
		}
	}
	if len(out) == 0 {
		return defaultSheet
	}
	return string(out)
}

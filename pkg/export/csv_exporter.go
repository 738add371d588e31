package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// CSVExporter writes RFC 4180 CSV with a header line.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render encodes the dataset. The footer, when present, is the last record.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if err := data.validate(); err != nil {
		return nil, fmt.Errorf("csv: %w", err)
	}
	records := make([][]string, 0, len(data.Rows)+2)
	records = append(records, data.Headers)
	records = append(records, data.Rows...)
	if data.Footer != nil {
		records = append(records, data.Footer)
	}

	var buf bytes.Buffer
	if err := csv.NewWriter(&buf).WriteAll(records); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return buf.Bytes(), nil
}

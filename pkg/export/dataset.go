package export

import "fmt"

// Dataset is a rectangular table. Footer is an optional summary row rendered
// after the body.
type Dataset struct {
	Headers []string
	Rows    [][]string
	Footer  []string
}

// AddRow appends one body row.
func (d *Dataset) AddRow(cells ...string) {
	d.Rows = append(d.Rows, cells)
}

func (d Dataset) validate() error {
	if len(d.Headers) == 0 {
		return fmt.Errorf("dataset requires at least one header")
	}
	for i, row := range d.Rows {
		if len(row) != len(d.Headers) {
			return fmt.Errorf("row %d has %d cells, want %d", i+1, len(row), len(d.Headers))
		}
	}
	if d.Footer != nil && len(d.Footer) != len(d.Headers) {
		return fmt.Errorf("footer has %d cells, want %d", len(d.Footer), len(d.Headers))
	}
	return nil
}

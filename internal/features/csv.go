package features

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"burnout-risk/internal/common"
)

// WriteCSV writes the table with a user_id column followed by the features.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	header := append([]string{UserIDColumn}, t.Columns...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	record := make([]string, len(header))
	for _, row := range t.Rows {
		record[0] = row.UserID
		for i, v := range row.Values {
			record[i+1] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %s: %w", row.UserID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadCSV reads a table written by WriteCSV. Feature columns are taken from
// the header so tables from other extractor versions load unchanged.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: read feature csv: %v", common.ErrInputValidation, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: feature csv is empty", common.ErrInputValidation)
	}

	header := records[0]
	idCol := -1
	for i, h := range header {
		if h == UserIDColumn {
			idCol = i
			break
		}
	}
	if idCol < 0 {
		return nil, fmt.Errorf("%w: feature csv has no %s column", common.ErrInputValidation, UserIDColumn)
	}

	table := &Table{}
	for i, h := range header {
		if i != idCol {
			table.Columns = append(table.Columns, h)
		}
	}

	for line, rec := range records[1:] {
		row := Row{UserID: rec[idCol], Values: make([]float64, 0, len(table.Columns))}
		for i, cell := range rec {
			if i == idCol {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: feature csv line %d column %s: %v", common.ErrInputValidation, line+2, header[i], err)
			}
			row.Values = append(row.Values, v)
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

package csvx

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Write renders rows as CSV with a header line. Fields containing commas,
// quotes or newlines are quoted so a standard parser round-trips them.
func Write(headers []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(headers); err != nil {
		return nil, fmt.Errorf("csv write header: %w", err)
	}
	for i, row := range rows {
		if len(row) != len(headers) {
			return nil, fmt.Errorf("csv row %d has %d fields, want %d", i, len(row), len(headers))
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("csv write row %d: %w", i, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("csv flush: %w", err)
	}
	return buf.Bytes(), nil
}

// Read parses CSV produced by Write back into header and rows.
func Read(data []byte) ([]string, [][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("csv read: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, nil
	}
	return records[0], records[1:], nil
}

// Package loader turns raw bytes from a file path, stdin, or a remote URL
// into the (header, rows) shape internal/table.Load consumes. Parsing and
// type inference stay in internal/table; this package only knows how to
// decode a container format.
package loader

import (
	"encoding/csv"
	"io"

	"github.com/gridwalk-cli/gridwalk"
)

// DecodeCSV reads an RFC 4180 CSV stream: a mandatory header row, quoted
// fields, and embedded newlines inside quoted fields. Row-width mismatches
// are left for internal/table.Load to reject uniformly with Load/Json/Remote
// failures, so FieldsPerRecord is disabled here.
func DecodeCSV(r io.Reader) ([]string, [][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = false

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil, gridwalk.NewLoadError("empty_csv", "CSV input has no header row")
	}
	if err != nil {
		return nil, nil, gridwalk.NewLoadError("csv_header_read_failed", err.Error())
	}

	var rows [][]string
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, gridwalk.NewLoadError("csv_row_read_failed", err.Error())
		}
		rows = append(rows, record)
	}
	return header, rows, nil
}

package ingest

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/lastmile-ops/depot-cli/internal/model"
)

// CSVOptions configures the CSV reader.
type CSVOptions struct {
	Delimiter  rune // default ','
	LazyQuotes bool
}

// ReadCSV reads a CSV export into raw records, first row as headers.
// Variable-width rows are tolerated.
func ReadCSV(r io.Reader, opts CSVOptions) ([]model.RawRecord, error) {
	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.LazyQuotes = opts.LazyQuotes
	reader.FieldsPerRecord = -1

	var headers []string
	var records []model.RawRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, eris.Wrap(err, "ingest: read csv row")
		}
		for i, field := range row {
			row[i] = strings.TrimSpace(field)
		}
		if headers == nil {
			headers = row
			continue
		}
		records = append(records, toRecord(headers, row))
	}
}

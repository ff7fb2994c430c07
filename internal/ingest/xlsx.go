// Package ingest reads spreadsheet exports into raw record batches. The
// first row is treated as the header row; remaining rows become ordered
// field/value pairs. Cell values stay strings; typed parsing is the
// pipeline's job.
package ingest

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/lastmile-ops/depot-cli/internal/model"
)

// XLSXOptions configures the XLSX reader.
type XLSXOptions struct {
	SheetIndex int    // default 0
	SheetName  string // if set, overrides SheetIndex
}

// ReadXLSX reads one sheet of an XLSX file into raw records.
func ReadXLSX(path string, opts XLSXOptions) ([]model.RawRecord, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: open xlsx")
	}

	sheet, err := getSheet(f, opts)
	if err != nil {
		return nil, err
	}

	var headers []string
	var records []model.RawRecord
	for i, row := range sheet.Rows {
		cells := rowToStrings(row)
		if i == 0 {
			headers = cells
			continue
		}
		records = append(records, toRecord(headers, cells))
	}
	return records, nil
}

func getSheet(f *xlsx.File, opts XLSXOptions) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		sheet, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("ingest: sheet %q not found", opts.SheetName)
		}
		return sheet, nil
	}
	if opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("ingest: sheet index %d out of range (file has %d sheets)", opts.SheetIndex, len(f.Sheets))
	}
	return f.Sheets[opts.SheetIndex], nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}

// toRecord zips headers with a row's cells. Short rows are common in
// hand-edited exports; missing cells simply produce no field.
func toRecord(headers, cells []string) model.RawRecord {
	rec := make(model.RawRecord, 0, len(headers))
	for i, h := range headers {
		if h == "" {
			continue
		}
		value := ""
		if i < len(cells) {
			value = cells[i]
		}
		rec = append(rec, model.Field{Name: h, Value: value})
	}
	return rec
}

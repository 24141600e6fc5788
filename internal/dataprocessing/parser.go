package dataprocessing

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"prepstats/pkg/contracts/domain"
)

// ParseCSV reads header-plus-rows CSV content into a dataset. The first
// record defines the column names; every following non-empty record
// becomes one row, values paired positionally with the header.
//
// Ragged rows never abort the file: a short record is padded with empty
// values for its missing trailing columns, and values beyond the header
// width are dropped. Records that fail CSV decoding are skipped and the
// remainder of the file is still parsed.
func ParseCSV(r io.Reader) (domain.Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return domain.Dataset{}, nil
	}
	if err != nil {
		return domain.Dataset{}, fmt.Errorf("failed to read header: %w", err)
	}

	columns := make([]string, len(header))
	for i, name := range header {
		columns[i] = strings.TrimSpace(name)
	}

	ds := domain.Dataset{Columns: columns}
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Skip the offending record, keep the rest of the file.
			continue
		}
		if isEmptyRecord(record) {
			continue
		}
		ds.Rows = append(ds.Rows, rowFromRecord(columns, record))
	}

	return ds, nil
}

// rowFromRecord pairs values with column names, padding missing trailing
// values with "" and ignoring values beyond the header width.
func rowFromRecord(columns, record []string) domain.Row {
	row := make(domain.Row, len(columns))
	for i, col := range columns {
		if i < len(record) {
			row[col] = record[i]
		} else {
			row[col] = ""
		}
	}
	return row
}

func isEmptyRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

package dataprocessing

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"prepstats/pkg/contracts/domain"
)

// ParseXLSX reads an Excel workbook and extracts a dataset from the first
// sheet that contains at least a header row. The same header-driven row
// mapping and ragged-row policy as ParseCSV applies.
func ParseXLSX(r io.Reader) (domain.Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return domain.Dataset{}, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	var rows [][]string
	for _, name := range f.GetSheetList() {
		sheetRows, err := f.GetRows(name)
		if err != nil || len(sheetRows) == 0 {
			continue
		}
		rows = sheetRows
		break
	}
	if rows == nil {
		return domain.Dataset{}, fmt.Errorf("no populated sheet in workbook")
	}

	columns := make([]string, len(rows[0]))
	for i, name := range rows[0] {
		columns[i] = strings.TrimSpace(name)
	}

	ds := domain.Dataset{Columns: columns}
	for _, record := range rows[1:] {
		if isEmptyRecord(record) {
			continue
		}
		ds.Rows = append(ds.Rows, rowFromRecord(columns, record))
	}

	return ds, nil
}

package ingest

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// LoadWorkbook reads a raw ingestion workbook where each sheet is named after
// an asset symbol and holds that asset's wide metric table. The first row is
// the header (date column first), remaining rows are data.
func LoadWorkbook(path string) (map[string]*RawTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	tables := make(map[string]*RawTable)
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		table := &RawTable{Symbol: sheet}
		if len(rows) > 0 {
			table.Header = rows[0]
			table.Rows = rows[1:]
		}
		tables[sheet] = table
	}
	return tables, nil
}

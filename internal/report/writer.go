// Package report renders the run's headline output, one summary row per
// asset, into an Excel workbook tab.
package report

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/seamark-project/backend/internal/contracts"
	"github.com/seamark-project/backend/pkg/logger"
)

// Row is one asset's summary line.
type Row struct {
	Symbol        string
	Date          time.Time
	Price         *float64
	Believability *float64
	Confidence    *float64
}

// Writer renders summary rows into a workbook tab, replacing the tab's
// previous contents. The rest of the workbook is left untouched so readers
// can keep their own sheets alongside.
type Writer struct {
	path   string
	tab    string
	logger *logger.Logger
}

// NewWriter creates a report writer for the given workbook path and tab.
func NewWriter(path, tab string, log *logger.Logger) *Writer {
	return &Writer{path: path, tab: tab, logger: log}
}

var header = []interface{}{"Symbol", "Date", "Price", "Believability", "Confidence"}

// Write replaces the tab with a header, one row per asset, and a trailing
// last-updated stamp. A missing workbook is created.
func (w *Writer) Write(ctx context.Context, rows []Row) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	book, err := w.open()
	if err != nil {
		return err
	}
	defer book.Close()

	// Drop and recreate the tab rather than clearing cell ranges; stale rows
	// from a longer previous run must not survive.
	if idx, _ := book.GetSheetIndex(w.tab); idx >= 0 {
		if err := book.DeleteSheet(w.tab); err != nil {
			return fmt.Errorf("reset report tab: %w", err)
		}
	}
	if _, err := book.NewSheet(w.tab); err != nil {
		return fmt.Errorf("create report tab: %w", err)
	}

	if err := book.SetSheetRow(w.tab, "A1", &header); err != nil {
		return fmt.Errorf("write report header: %w", err)
	}

	for i, row := range rows {
		cell := fmt.Sprintf("A%d", i+2)
		values := []interface{}{
			row.Symbol,
			row.Date.Format(contracts.DateFormat),
			cellValue(row.Price),
			cellValue(row.Believability),
			cellValue(row.Confidence),
		}
		if err := book.SetSheetRow(w.tab, cell, &values); err != nil {
			return fmt.Errorf("write report row %d: %w", i, err)
		}
	}

	stamp := fmt.Sprintf("A%d", len(rows)+3)
	updated := fmt.Sprintf("Last updated %s", time.Now().Format("2006-01-02 15:04:05"))
	if err := book.SetCellValue(w.tab, stamp, updated); err != nil {
		return fmt.Errorf("write report stamp: %w", err)
	}

	if err := book.SaveAs(w.path); err != nil {
		return fmt.Errorf("save report workbook: %w", err)
	}

	w.logger.WithFields(map[string]interface{}{
		"path": w.path,
		"rows": len(rows),
	}).Info("Report written")
	return nil
}

func (w *Writer) open() (*excelize.File, error) {
	if _, err := os.Stat(w.path); os.IsNotExist(err) {
		return excelize.NewFile(), nil
	}
	book, err := excelize.OpenFile(w.path)
	if err != nil {
		return nil, fmt.Errorf("open report workbook: %w", err)
	}
	return book, nil
}

// cellValue maps a nil numeric to an empty cell instead of zero.
func cellValue(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

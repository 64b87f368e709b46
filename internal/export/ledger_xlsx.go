// Package export renders ledger data as spreadsheets.
package export

import (
	"fmt"
	"io"

	"digital-ondu/internal/core"

	"github.com/xuri/excelize/v2"
)

const (
	LedgerSheet = "Stock Ledger"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var ledgerHeadings = []any{
	"Date", "Product", "Type", "Quantity", "Balance After", "Batch", "Serial", "Reference", "Notes",
}

// WriteLedgerXLSX writes entries, in the given order, as a single-sheet workbook.
func WriteLedgerXLSX(w io.Writer, entries []core.LedgerEntry) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", LedgerSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := f.SetSheetRow(LedgerSheet, "A1", &ledgerHeadings); err != nil {
		return fmt.Errorf("failed to write headings: %w", err)
	}

	for i, e := range entries {
		ref := e.ReferenceType
		if e.ReferenceID != nil {
			ref = fmt.Sprintf("%s %s", e.ReferenceType, e.ReferenceID)
		}
		row := []any{
			e.CreatedAt.Format("2006-01-02 15:04:05"),
			e.ProductName,
			string(e.TransactionType),
			e.Quantity,
			e.BalanceAfter,
			e.BatchNumber,
			e.SerialNumber,
			ref,
			e.Notes,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(LedgerSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

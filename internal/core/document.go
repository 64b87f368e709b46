package core

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// DocInvoice is the sequence key used for sale invoices.
const DocInvoice = "INV"

// FormatDocumentNumber renders a gapless sequence value, e.g. INV-2026-00042.
func FormatDocumentNumber(prefix string, year int, n int64) string {
	return fmt.Sprintf("%s-%d-%05d", prefix, year, n)
}

// nextDocumentNumberTx draws the next number of docType for the store and year.
// The draw happens inside the caller's transaction, so a rolled back sale leaves no gap.
func nextDocumentNumberTx(ctx context.Context, q Queries, storeID uuid.UUID, docType, prefix string, year int) (string, error) {
	n, err := q.NextSequence(ctx, storeID, docType, year)
	if err != nil {
		return "", fmt.Errorf("failed to generate gapless sequence number: %w", err)
	}
	return FormatDocumentNumber(prefix, year, n), nil
}

package cli

import (
	"fmt"
	"io"
	"strings"

	"digital-ondu/internal/app"
	"digital-ondu/internal/core"
)

const rule = 78

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func printProducts(w io.Writer, result *app.ProductListResult) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", rule))
	fmt.Fprintf(w, "  PRODUCTS  (%d, %d low on stock)\n", len(result.Products), result.LowStockCount)
	fmt.Fprintln(w, strings.Repeat("=", rule))
	if len(result.Products) == 0 {
		fmt.Fprintln(w, "  No products found.")
		fmt.Fprintln(w, strings.Repeat("=", rule))
		return
	}
	fmt.Fprintf(w, "  %-10s %-32s %8s %12s %12s\n", "SKU", "NAME", "STOCK", "COST", "PRICE")
	fmt.Fprintln(w, strings.Repeat("-", rule))
	for _, p := range result.Products {
		flag := ""
		if p.IsLowStock() {
			flag = " !"
		}
		fmt.Fprintf(w, "  %-10s %-32s %8d %12s %12s%s\n",
			p.SKU, truncate(p.Name, 32), p.CurrentStock, p.PurchaseCost.StringFixed(2), p.SalePrice.StringFixed(2), flag)
	}
	fmt.Fprintln(w, strings.Repeat("=", rule))
}

func printMovement(w io.Writer, e *core.LedgerEntry) {
	fmt.Fprintf(w, "%s %+d %s. Stock now %d.\n", e.TransactionType, e.Quantity, e.ProductName, e.BalanceAfter)
}

func printLedger(w io.Writer, result *app.LedgerResult) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", rule))
	fmt.Fprintf(w, "  STOCK LEDGER  (%d entries, newest first)\n", result.Count)
	fmt.Fprintln(w, strings.Repeat("=", rule))
	if result.Count == 0 {
		fmt.Fprintln(w, "  No entries.")
		fmt.Fprintln(w, strings.Repeat("=", rule))
		return
	}
	fmt.Fprintf(w, "  %-16s %-28s %-11s %7s %8s\n", "DATE", "PRODUCT", "TYPE", "QTY", "BALANCE")
	fmt.Fprintln(w, strings.Repeat("-", rule))
	for _, e := range result.Entries {
		fmt.Fprintf(w, "  %-16s %-28s %-11s %+7d %8d\n",
			e.CreatedAt.Local().Format("2006-01-02 15:04"), truncate(e.ProductName, 28), e.TransactionType, e.Quantity, e.BalanceAfter)
	}
	fmt.Fprintln(w, strings.Repeat("=", rule))
}

func printCashStatement(w io.Writer, result *app.CashStatementResult) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", rule))
	fmt.Fprintf(w, "  CASH BOOK  balance %s\n", result.Balance.StringFixed(2))
	fmt.Fprintln(w, strings.Repeat("=", rule))
	fmt.Fprintf(w, "  %-16s %-18s %14s %14s  %s\n", "DATE", "TYPE", "AMOUNT", "BALANCE", "NOTES")
	fmt.Fprintln(w, strings.Repeat("-", rule))
	for _, e := range result.Entries {
		fmt.Fprintf(w, "  %-16s %-18s %14s %14s  %s\n",
			e.CreatedAt.Local().Format("2006-01-02 15:04"), e.EntryType,
			e.Amount.StringFixed(2), e.BalanceAfter.StringFixed(2), truncate(e.Notes, 20))
	}
	fmt.Fprintln(w, strings.Repeat("=", rule))
}

func printStockSummary(w io.Writer, s *core.StockSummary) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", rule))
	fmt.Fprintln(w, "  STOCK SUMMARY")
	fmt.Fprintln(w, strings.Repeat("=", rule))
	fmt.Fprintf(w, "  Products      : %d\n", s.ProductCount)
	fmt.Fprintf(w, "  Units on hand : %d\n", s.TotalUnits)
	fmt.Fprintf(w, "  Cost value    : %s\n", s.CostValue.StringFixed(2))
	fmt.Fprintf(w, "  Retail value  : %s\n", s.RetailValue.StringFixed(2))
	fmt.Fprintf(w, "  Cash on hand  : %s\n", s.CashOnHand.StringFixed(2))
	if len(s.LowStock) > 0 {
		fmt.Fprintln(w, strings.Repeat("-", rule))
		fmt.Fprintln(w, "  Low stock:")
		for _, p := range s.LowStock {
			fmt.Fprintf(w, "    %-10s %-40s %5d\n", p.SKU, truncate(p.Name, 40), p.CurrentStock)
		}
	}
	fmt.Fprintln(w, strings.Repeat("=", rule))
}

func printReconciliation(w io.Writer, r *core.ReconciliationReport) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", rule))
	status := "OK"
	if !r.OK() {
		status = "MISMATCH"
	}
	fmt.Fprintf(w, "  RECONCILIATION  %s\n", status)
	fmt.Fprintln(w, strings.Repeat("=", rule))
	fmt.Fprintf(w, "  Products checked : %d\n", r.ProductsChecked)
	fmt.Fprintf(w, "  Entries checked  : %d\n", r.EntriesChecked)
	fmt.Fprintf(w, "  Cash balance     : %s (cash book %s)\n", r.CashBalance.StringFixed(2), r.CashLedgerTotal.StringFixed(2))
	for _, m := range r.StockMismatches {
		fmt.Fprintf(w, "  STOCK  %-32s stored %d, ledger %d\n", truncate(m.ProductName, 32), m.CurrentStock, m.LedgerBalance)
	}
	for _, b := range r.ChainBreaks {
		fmt.Fprintf(w, "  CHAIN  %s\n", b)
	}
	fmt.Fprintln(w, strings.Repeat("=", rule))
}

// PrintSale renders a receipt. Shared with the interactive terminal.
func PrintSale(w io.Writer, s *core.Sale) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", rule))
	fmt.Fprintf(w, "  INVOICE %s   %s\n", s.InvoiceNumber, s.CreatedAt.Local().Format("2006-01-02 15:04"))
	if s.CustomerName != "" {
		fmt.Fprintf(w, "  Customer: %s\n", s.CustomerName)
	}
	fmt.Fprintln(w, strings.Repeat("-", rule))
	for _, it := range s.Items {
		fmt.Fprintf(w, "  %-40s %4d x %10s %12s\n", truncate(it.ProductName, 40), it.Quantity, it.UnitPrice.StringFixed(2), it.LineTotal.StringFixed(2))
	}
	fmt.Fprintln(w, strings.Repeat("-", rule))
	fmt.Fprintf(w, "  %-58s %12s\n", "Subtotal", s.Subtotal.StringFixed(2))
	if s.Discount.IsPositive() {
		fmt.Fprintf(w, "  %-58s %12s\n", "Discount", s.Discount.Neg().StringFixed(2))
	}
	fmt.Fprintf(w, "  %-58s %12s\n", "Total", s.Total.StringFixed(2))
	fmt.Fprintf(w, "  %-58s %12s\n", "Paid ("+string(s.PaymentMethod)+")", s.PaidAmount.StringFixed(2))
	if s.ChangeAmount.IsPositive() {
		fmt.Fprintf(w, "  %-58s %12s\n", "Change", s.ChangeAmount.StringFixed(2))
	}
	if s.DueAmount.IsPositive() {
		fmt.Fprintf(w, "  %-58s %12s\n", "Due", s.DueAmount.StringFixed(2))
		for _, in := range s.Installments {
			fmt.Fprintf(w, "    #%-2d %s  %12s\n", in.Seq, in.DueDate.Format("2006-01-02"), in.Amount.StringFixed(2))
		}
	}
	fmt.Fprintln(w, strings.Repeat("=", rule))
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  products [search]             list the catalog")
	fmt.Fprintln(w, "  stock-in <sku> <qty> [notes]  receive stock")
	fmt.Fprintln(w, "  stock-out <sku> <qty> [notes] remove stock")
	fmt.Fprintln(w, "  ledger [type]                 latest stock ledger entries")
	fmt.Fprintln(w, "  balance                       cash on hand")
	fmt.Fprintln(w, "  cash [type]                   latest cash book entries")
	fmt.Fprintln(w, "  summary                       stock valuation")
	fmt.Fprintln(w, "  reconcile                     check stock and cash against their ledgers")
	fmt.Fprintln(w, "  export <file.xlsx> [type]     write the stock ledger as a spreadsheet")
}

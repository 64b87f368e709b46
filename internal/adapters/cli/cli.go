package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"digital-ondu/internal/app"
	"digital-ondu/internal/core"

	"github.com/google/uuid"
)

// ErrMismatch is returned by the reconcile command when the report is not clean.
var ErrMismatch = errors.New("reconciliation found mismatches")

// ErrUsage is returned for unknown commands and missing arguments.
var ErrUsage = errors.New("usage error")

// Run executes one command against storeID and writes its output to w.
// args[0] is the subcommand name.
func Run(ctx context.Context, w io.Writer, svc app.ApplicationService, actor core.Actor, storeID uuid.UUID, args []string) error {
	if len(args) == 0 {
		printHelp(w)
		return nil
	}

	switch strings.ToLower(args[0]) {
	case "products", "prod", "p":
		search := strings.Join(args[1:], " ")
		result, err := svc.ListProducts(ctx, actor, storeID, core.ProductFilter{Search: search})
		if err != nil {
			return err
		}
		printProducts(w, result)

	case "stock-in", "in":
		entry, err := move(ctx, svc.StockIn, actor, storeID, args)
		if err != nil {
			return err
		}
		printMovement(w, entry)

	case "stock-out", "out":
		entry, err := move(ctx, svc.StockOut, actor, storeID, args)
		if err != nil {
			return err
		}
		printMovement(w, entry)

	case "ledger", "l":
		q := app.LedgerQuery{Limit: 50}
		if len(args) > 1 {
			q.Type = args[1]
		}
		result, err := svc.LedgerEntries(ctx, actor, storeID, q)
		if err != nil {
			return err
		}
		printLedger(w, result)

	case "balance", "bal":
		result, err := svc.CashBalance(ctx, actor, storeID)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Cash on hand: %s %s\n", result.Balance.StringFixed(2), result.Currency)

	case "cash":
		q := app.CashQuery{Limit: 50}
		if len(args) > 1 {
			q.Type = args[1]
		}
		result, err := svc.CashEntries(ctx, actor, storeID, q)
		if err != nil {
			return err
		}
		printCashStatement(w, result)

	case "summary":
		result, err := svc.StockSummary(ctx, actor, storeID)
		if err != nil {
			return err
		}
		printStockSummary(w, result)

	case "reconcile", "rec":
		report, err := svc.Reconcile(ctx, actor, storeID)
		if err != nil {
			return err
		}
		printReconciliation(w, report)
		if !report.OK() {
			return ErrMismatch
		}

	case "export":
		if len(args) < 2 {
			return fmt.Errorf("%w: app export <file.xlsx> [type]", ErrUsage)
		}
		q := app.LedgerQuery{}
		if len(args) > 2 {
			q.Type = args[2]
		}
		if err := exportLedger(ctx, svc, actor, storeID, q, args[1]); err != nil {
			return err
		}
		fmt.Fprintf(w, "Ledger written to %s\n", args[1])

	case "help", "h":
		printHelp(w)

	default:
		return fmt.Errorf("%w: unknown command %q (available: products, stock-in, stock-out, ledger, balance, cash, summary, reconcile, export)", ErrUsage, args[0])
	}
	return nil
}

type movementFunc func(ctx context.Context, actor core.Actor, storeID uuid.UUID, req app.StockMovementRequest) (*core.LedgerEntry, error)

// move parses "<cmd> <sku> <qty> [notes...]" and posts the movement.
func move(ctx context.Context, fn movementFunc, actor core.Actor, storeID uuid.UUID, args []string) (*core.LedgerEntry, error) {
	if len(args) < 3 {
		return nil, fmt.Errorf("%w: app %s <sku> <qty> [notes]", ErrUsage, args[0])
	}
	qty, err := strconv.Atoi(args[2])
	if err != nil {
		return nil, fmt.Errorf("%w: quantity %q is not a whole number", ErrUsage, args[2])
	}
	return fn(ctx, actor, storeID, app.StockMovementRequest{
		SKU:      args[1],
		Quantity: qty,
		Notes:    strings.Join(args[3:], " "),
	})
}

func exportLedger(ctx context.Context, svc app.ApplicationService, actor core.Actor, storeID uuid.UUID, q app.LedgerQuery, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()
	return svc.ExportLedger(ctx, actor, storeID, q, f)
}

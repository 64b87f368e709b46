package main

import (
	"context"
	"fmt"
	"os"

	"digital-ondu/internal/app"
	"digital-ondu/internal/bootstrap"
	"digital-ondu/internal/config"
	"digital-ondu/internal/core"
	"digital-ondu/internal/logging"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// reconcile checks every store (or only STORE_ID) and exits 1 when any product's
// stock or any cash balance disagrees with its ledger.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	if cfg.AdminPassword == "" {
		log.Fatal("ADMIN_PASSWORD is required to reconcile")
	}

	ctx := context.Background()
	services, err := bootstrap.Open(ctx, cfg, log)
	if err != nil {
		log.Fatalf("startup: %v", err)
	}
	defer services.Close()

	admin, err := services.App.AuthenticateUser(ctx, app.LoginRequest{Username: cfg.AdminUsername, Password: cfg.AdminPassword})
	if err != nil {
		log.Fatalf("login: %v", err)
	}
	actor := admin.Actor()

	var storeIDs []uuid.UUID
	if cfg.StoreID != uuid.Nil {
		storeIDs = append(storeIDs, cfg.StoreID)
	} else {
		stores, err := services.App.ListStores(ctx, actor)
		if err != nil {
			log.Fatalf("list stores: %v", err)
		}
		for _, s := range stores {
			storeIDs = append(storeIDs, s.ID)
		}
	}

	failed := 0
	for _, id := range storeIDs {
		report, err := services.App.Reconcile(ctx, actor, id)
		if err != nil {
			log.WithError(err).WithField("store_id", id).Error("reconcile failed")
			failed++
			continue
		}
		printReport(report)
		if !report.OK() {
			failed++
		}
	}

	if failed > 0 {
		fmt.Printf("%d of %d stores need attention\n", failed, len(storeIDs))
		services.Close()
		os.Exit(1)
	}
	fmt.Printf("%d stores reconciled, no mismatches\n", len(storeIDs))
}

func printReport(r *core.ReconciliationReport) {
	status := "OK"
	if !r.OK() {
		status = "MISMATCH"
	}
	fmt.Printf("%s  store %s  products=%d entries=%d cash=%s book=%s\n",
		status, r.StoreID, r.ProductsChecked, r.EntriesChecked,
		r.CashBalance.StringFixed(2), r.CashLedgerTotal.StringFixed(2))
	for _, m := range r.StockMismatches {
		fmt.Printf("  stock  %s (%s): stored %d, ledger %d\n", m.ProductName, m.ProductID, m.CurrentStock, m.LedgerBalance)
	}
	for _, b := range r.ChainBreaks {
		fmt.Printf("  chain  %s\n", b)
	}
}

package main

import (
	"context"
	"fmt"

	"digital-ondu/internal/app"
	"digital-ondu/internal/config"
	"digital-ondu/internal/db"
	"digital-ondu/internal/lock"
	"digital-ondu/internal/logging"
	"digital-ondu/internal/seed"
	"digital-ondu/internal/store/postgres"

	"github.com/sirupsen/logrus"
)

// seed writes the demo store to the database named by DATABASE_URL.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	if cfg.AdminPassword == "" {
		log.Fatal("ADMIN_PASSWORD is required to seed")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	svc := app.NewAppService(postgres.NewRepository(pool), lock.NewLocal(), log)
	res, err := seed.Demo(ctx, svc, cfg.AdminUsername, cfg.AdminPassword)
	if err != nil {
		log.Fatalf("seed: %v", err)
	}
	if !res.Created {
		fmt.Printf("Demo store already present: %s\n", res.Store.ID)
		return
	}
	fmt.Printf("Demo store created: %s (%d products)\n", res.Store.ID, len(res.Products))
	fmt.Printf("  STORE_ID=%s\n", res.Store.ID)
	fmt.Printf("  owner login: %s / %s\n", seed.DemoOwnerUsername, seed.DemoOwnerPassword)
	fmt.Printf("  cashier login: %s / %s\n", seed.DemoStaffUsername, seed.DemoStaffPassword)
}

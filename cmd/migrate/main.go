package main

import (
	"context"
	"errors"

	"digital-ondu/internal/config"
	"digital-ondu/internal/db"
	"digital-ondu/internal/logging"
	"digital-ondu/migrations"

	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	applied, err := migrations.Apply(ctx, pool, log)
	if errors.Is(err, migrations.ErrLocked) {
		log.Fatal("another migration run holds the lock, try again shortly")
	}
	if err != nil {
		log.Fatalf("migrate: %v", err)
	}
	log.WithField("applied", len(applied)).Info("migrations up to date")
}

// Package bootstrap wires storage, locking and the application service from config.
// It is shared by every command under cmd/.
package bootstrap

import (
	"context"
	"fmt"

	"digital-ondu/internal/app"
	"digital-ondu/internal/config"
	"digital-ondu/internal/core"
	"digital-ondu/internal/db"
	"digital-ondu/internal/lock"
	"digital-ondu/internal/seed"
	"digital-ondu/internal/store/memory"
	"digital-ondu/internal/store/postgres"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// Services is the running application and the resources behind it.
type Services struct {
	App  app.ApplicationService
	Pool *pgxpool.Pool // nil when running on the in-memory store
	// Demo is set when the demo store was seeded or found at startup.
	Demo *seed.Result

	closers []func()
}

// Close releases every resource opened by Open, newest first.
func (s *Services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// Open connects to Postgres when DATABASE_URL is set and falls back to the in-memory
// store otherwise. REDIS_ADDRESS switches the store lock from in-process to redis.
// In demo mode the demo store is seeded; otherwise the super admin is provisioned
// when ADMIN_PASSWORD is set.
func Open(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*Services, error) {
	s := &Services{}
	ok := false
	defer func() {
		if !ok {
			s.Close()
		}
	}()

	var repo core.Repository
	if cfg.DatabaseURL != "" {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		s.Pool = pool
		s.closers = append(s.closers, pool.Close)
		repo = postgres.NewRepository(pool)
		log.Info("using postgres store")
	} else {
		repo = memory.New()
		log.Warn("DATABASE_URL not set, using in-memory store; data is lost on exit")
	}

	var locker core.Locker
	if cfg.RedisAddress != "" {
		rdb, err := lock.Connect(ctx, cfg.RedisAddress)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		s.closers = append(s.closers, func() { _ = rdb.Close() })
		locker = lock.NewRedis(rdb, log)
		log.WithField("address", cfg.RedisAddress).Info("using redis store lock")
	} else {
		locker = lock.NewLocal()
	}

	s.App = app.NewAppService(repo, locker, log)

	switch {
	case cfg.DemoMode:
		res, err := seed.Demo(ctx, s.App, cfg.AdminUsername, cfg.AdminPassword)
		if err != nil {
			return nil, fmt.Errorf("demo seed: %w", err)
		}
		s.Demo = res
		log.WithFields(logrus.Fields{
			"store_id": res.Store.ID,
			"created":  res.Created,
		}).Info("demo store ready")
	case cfg.AdminPassword != "":
		if _, err := s.App.EnsureSuperAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
			return nil, fmt.Errorf("super admin: %w", err)
		}
	}

	ok = true
	return s, nil
}

// TerminalSession resolves who a terminal command acts as and on which store.
// In demo mode that is the demo owner. Otherwise APP_USERNAME and APP_PASSWORD
// are checked, and STORE_ID picks the store when the login is not tied to one.
func (s *Services) TerminalSession(ctx context.Context, cfg *config.Config) (core.Actor, uuid.UUID, error) {
	if s.Demo != nil && cfg.AppUsername == "" {
		storeID := s.Demo.Store.ID
		if cfg.StoreID != uuid.Nil {
			storeID = cfg.StoreID
		}
		return s.Demo.Owner, storeID, nil
	}
	if cfg.AppUsername == "" || cfg.AppPassword == "" {
		return core.Actor{}, uuid.Nil, fmt.Errorf("APP_USERNAME and APP_PASSWORD are required outside demo mode")
	}
	session, err := s.App.AuthenticateUser(ctx, app.LoginRequest{Username: cfg.AppUsername, Password: cfg.AppPassword})
	if err != nil {
		return core.Actor{}, uuid.Nil, err
	}
	storeID := cfg.StoreID
	if storeID == uuid.Nil && session.StoreID != nil {
		storeID = *session.StoreID
	}
	if storeID == uuid.Nil {
		return core.Actor{}, uuid.Nil, fmt.Errorf("STORE_ID is required for %s", session.Username)
	}
	return session.Actor(), storeID, nil
}

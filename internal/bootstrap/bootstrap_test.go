package bootstrap

import (
	"context"
	"testing"

	"digital-ondu/internal/config"
	"digital-ondu/internal/core"
	"digital-ondu/internal/logging"
	"digital-ondu/internal/seed"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_DemoMemory(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{DemoMode: true, AdminUsername: "admin", AdminPassword: "admin-password"}

	s, err := Open(ctx, cfg, logging.Discard())
	require.NoError(t, err)
	defer s.Close()
	assert.Nil(t, s.Pool)
	require.NotNil(t, s.Demo)

	actor, storeID, err := s.TerminalSession(ctx, cfg)
	require.NoError(t, err)
	assert.Equal(t, s.Demo.Store.ID, storeID)
	assert.Equal(t, core.RoleOwner, actor.Role)

	// An explicit login overrides the demo owner.
	cfg.AppUsername, cfg.AppPassword = seed.DemoStaffUsername, seed.DemoStaffPassword
	actor, storeID, err = s.TerminalSession(ctx, cfg)
	require.NoError(t, err)
	assert.Equal(t, core.RoleStaff, actor.Role)
	assert.Equal(t, s.Demo.Store.ID, storeID)

	cfg.AppPassword = "wrong-password"
	_, _, err = s.TerminalSession(ctx, cfg)
	assert.ErrorIs(t, err, core.ErrInvalidCredentials)
}

func TestTerminalSession_AdminNeedsStore(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{AdminUsername: "root", AdminPassword: "root-password"}

	s, err := Open(ctx, cfg, logging.Discard())
	require.NoError(t, err)
	defer s.Close()
	assert.Nil(t, s.Demo)

	cfg.AppUsername, cfg.AppPassword = "root", "root-password"
	_, _, err = s.TerminalSession(ctx, cfg)
	assert.ErrorContains(t, err, "STORE_ID is required")

	cfg.StoreID = uuid.New()
	actor, storeID, err := s.TerminalSession(ctx, cfg)
	require.NoError(t, err)
	assert.Equal(t, core.RoleSuperAdmin, actor.Role)
	assert.Equal(t, cfg.StoreID, storeID)

	_, _, err = s.TerminalSession(ctx, &config.Config{})
	assert.ErrorContains(t, err, "APP_USERNAME and APP_PASSWORD")
}

package core

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// PolicyEngine resolves the per-store settings that steer ledger behaviour.
// It replaces hardcoded stock-out and cash rules in the domain services.
type PolicyEngine interface {
	Resolve(ctx context.Context, q Queries, storeID uuid.UUID) (StoreSettings, error)
}

type policyEngine struct{}

// NewPolicyEngine constructs a PolicyEngine backed by the stores table.
func NewPolicyEngine() PolicyEngine {
	return policyEngine{}
}

// Resolve reads the store's settings through q, so a caller inside a transaction
// sees the settings as of that transaction. Unknown policies fall back to reject.
func (policyEngine) Resolve(ctx context.Context, q Queries, storeID uuid.UUID) (StoreSettings, error) {
	store, err := q.GetStore(ctx, storeID)
	if err != nil {
		return StoreSettings{}, fmt.Errorf("failed to resolve store policy (store_id=%s): %w", storeID, err)
	}
	settings := store.Settings
	if !settings.StockOutPolicy.Valid() {
		settings.StockOutPolicy = StockOutReject
	}
	return settings, nil
}

package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StoreInput describes a new tenant and its first owner login.
type StoreInput struct {
	Name          string
	Currency      string
	InvoicePrefix string
	Settings      *StoreSettings
	OwnerUsername string
	OwnerPassword string
	OpeningCash   decimal.Decimal
}

type StoreService interface {
	// CreateStore provisions a store, its owner and, if given, the opening cash entry.
	CreateStore(ctx context.Context, actor Actor, in StoreInput) (*Store, *User, error)
	GetStore(ctx context.Context, id uuid.UUID) (*Store, error)
	ListStores(ctx context.Context) ([]Store, error)
	UpdateSettings(ctx context.Context, id uuid.UUID, settings StoreSettings) (*Store, error)
}

type storeService struct {
	repo Repository
	cash CashBook
}

func NewStoreService(repo Repository, cash CashBook) StoreService {
	return &storeService{repo: repo, cash: cash}
}

func (s *storeService) CreateStore(ctx context.Context, actor Actor, in StoreInput) (*Store, *User, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, nil, invalidf("store name is required")
	}
	if in.OpeningCash.IsNegative() {
		return nil, nil, invalidf("opening cash cannot be negative")
	}
	settings := DefaultStoreSettings()
	if in.Settings != nil {
		if err := validateSettings(*in.Settings); err != nil {
			return nil, nil, err
		}
		settings = *in.Settings
	}

	store := &Store{
		ID:            uuid.New(),
		Name:          in.Name,
		Currency:      strings.ToUpper(strings.TrimSpace(in.Currency)),
		InvoicePrefix: strings.ToUpper(strings.TrimSpace(in.InvoicePrefix)),
		Settings:      settings,
		CreatedAt:     now(),
	}
	if store.Currency == "" {
		store.Currency = "BDT"
	}
	if store.InvoicePrefix == "" {
		store.InvoicePrefix = "INV"
	}

	var owner *User
	err := s.repo.InTx(ctx, func(q Queries) error {
		if err := q.InsertStore(ctx, store); err != nil {
			return fmt.Errorf("failed to insert store: %w", err)
		}
		var err error
		owner, err = createUserTx(ctx, q, &store.ID, in.OwnerUsername, in.OwnerPassword, RoleOwner)
		if err != nil {
			return err
		}
		if in.OpeningCash.IsPositive() {
			_, err = s.cash.AddTx(ctx, q, actor, store.ID, CashMovement{
				Type:   CashOpening,
				Amount: in.OpeningCash,
				Notes:  "Opening balance",
			})
		}
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return store, owner, nil
}

func (s *storeService) GetStore(ctx context.Context, id uuid.UUID) (*Store, error) {
	return s.repo.GetStore(ctx, id)
}

func (s *storeService) ListStores(ctx context.Context) ([]Store, error) {
	return s.repo.ListStores(ctx)
}

func (s *storeService) UpdateSettings(ctx context.Context, id uuid.UUID, settings StoreSettings) (*Store, error) {
	if err := validateSettings(settings); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStoreSettings(ctx, id, settings); err != nil {
		return nil, err
	}
	return s.repo.GetStore(ctx, id)
}

func validateSettings(st StoreSettings) error {
	if !st.StockOutPolicy.Valid() {
		return invalidf("stock_out_policy must be %q or %q", StockOutReject, StockOutClamp)
	}
	if st.LowStockDefault < 0 {
		return invalidf("low_stock_default cannot be negative")
	}
	return nil
}

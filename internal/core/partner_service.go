package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SupplierInput struct {
	Name    string
	Phone   string
	Email   string
	Address string
}

type CustomerInput struct {
	Name    string
	Phone   string
	Address string
}

// PartnerService manages suppliers and customers. Their due balances are moved only
// by purchases, settlements, sales and due collections.
type PartnerService interface {
	CreateSupplier(ctx context.Context, storeID uuid.UUID, in SupplierInput) (*Supplier, error)
	GetSupplier(ctx context.Context, storeID, id uuid.UUID) (*Supplier, error)
	ListSuppliers(ctx context.Context, storeID uuid.UUID) ([]Supplier, error)
	ListSupplierPayments(ctx context.Context, storeID, supplierID uuid.UUID) ([]SupplierPayment, error)

	CreateCustomer(ctx context.Context, storeID uuid.UUID, in CustomerInput) (*Customer, error)
	GetCustomer(ctx context.Context, storeID, id uuid.UUID) (*Customer, error)
	ListCustomers(ctx context.Context, storeID uuid.UUID) ([]Customer, error)
}

type partnerService struct {
	repo Repository
}

func NewPartnerService(repo Repository) PartnerService {
	return &partnerService{repo: repo}
}

func (s *partnerService) CreateSupplier(ctx context.Context, storeID uuid.UUID, in SupplierInput) (*Supplier, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if in.Name == "" {
		return nil, invalidf("supplier name is required")
	}
	if _, err := s.repo.GetStore(ctx, storeID); err != nil {
		return nil, err
	}
	sup := &Supplier{
		ID:        uuid.New(),
		StoreID:   storeID,
		Name:      in.Name,
		Phone:     strings.TrimSpace(in.Phone),
		Email:     in.Email,
		Address:   strings.TrimSpace(in.Address),
		DueAmount: decimal.Zero,
		IsActive:  true,
		CreatedAt: now(),
	}
	if err := s.repo.InsertSupplier(ctx, sup); err != nil {
		return nil, fmt.Errorf("failed to insert supplier: %w", err)
	}
	return sup, nil
}

func (s *partnerService) GetSupplier(ctx context.Context, storeID, id uuid.UUID) (*Supplier, error) {
	return s.repo.GetSupplier(ctx, storeID, id)
}

func (s *partnerService) ListSuppliers(ctx context.Context, storeID uuid.UUID) ([]Supplier, error) {
	return s.repo.ListSuppliers(ctx, storeID)
}

func (s *partnerService) ListSupplierPayments(ctx context.Context, storeID, supplierID uuid.UUID) ([]SupplierPayment, error) {
	if _, err := s.repo.GetSupplier(ctx, storeID, supplierID); err != nil {
		return nil, err
	}
	return s.repo.ListSupplierPayments(ctx, storeID, supplierID)
}

func (s *partnerService) CreateCustomer(ctx context.Context, storeID uuid.UUID, in CustomerInput) (*Customer, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, invalidf("customer name is required")
	}
	if _, err := s.repo.GetStore(ctx, storeID); err != nil {
		return nil, err
	}
	c := &Customer{
		ID:        uuid.New(),
		StoreID:   storeID,
		Name:      in.Name,
		Phone:     strings.TrimSpace(in.Phone),
		Address:   strings.TrimSpace(in.Address),
		DueAmount: decimal.Zero,
		CreatedAt: now(),
	}
	if err := s.repo.InsertCustomer(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to insert customer: %w", err)
	}
	return c, nil
}

func (s *partnerService) GetCustomer(ctx context.Context, storeID, id uuid.UUID) (*Customer, error) {
	return s.repo.GetCustomer(ctx, storeID, id)
}

func (s *partnerService) ListCustomers(ctx context.Context, storeID uuid.UUID) ([]Customer, error) {
	return s.repo.ListCustomers(ctx, storeID)
}

package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductInput carries the catalog metadata of a product. Stock is never part of it.
type ProductInput struct {
	Name              string
	SKU               string
	Category          string
	Brand             string
	Unit              string
	PurchaseCost      decimal.Decimal
	SalePrice         decimal.Decimal
	LowStockThreshold *int
	WarrantyMonths    int
}

func (in *ProductInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.SKU = strings.ToUpper(strings.TrimSpace(in.SKU))
	in.Category = strings.TrimSpace(in.Category)
	in.Brand = strings.TrimSpace(in.Brand)
	in.Unit = strings.TrimSpace(in.Unit)
	if in.Unit == "" {
		in.Unit = "pcs"
	}
	if in.Name == "" {
		return invalidf("product name is required")
	}
	if in.PurchaseCost.IsNegative() || in.SalePrice.IsNegative() {
		return invalidf("prices cannot be negative")
	}
	if in.WarrantyMonths < 0 {
		return invalidf("warranty months cannot be negative")
	}
	if in.LowStockThreshold != nil && *in.LowStockThreshold < 0 {
		return invalidf("low stock threshold cannot be negative")
	}
	return nil
}

// ProductService manages the catalog. Creating a product with opening stock posts
// that stock through the ledger so the balance invariant holds from the first row.
type ProductService interface {
	CreateProduct(ctx context.Context, actor Actor, storeID uuid.UUID, in ProductInput, openingStock int) (*Product, error)
	// UpdateProduct changes metadata only. A non-zero version must match the stored one.
	UpdateProduct(ctx context.Context, storeID, id uuid.UUID, in ProductInput, version int) (*Product, error)
	GetProduct(ctx context.Context, storeID, id uuid.UUID) (*Product, error)
	GetProductBySKU(ctx context.Context, storeID uuid.UUID, sku string) (*Product, error)
	ListProducts(ctx context.Context, storeID uuid.UUID, f ProductFilter) ([]Product, error)
	// DeactivateProduct hides a product from sale while keeping its ledger history.
	DeactivateProduct(ctx context.Context, storeID, id uuid.UUID) error
}

type productService struct {
	repo   Repository
	ledger StockLedger
}

func NewProductService(repo Repository, ledger StockLedger) ProductService {
	return &productService{repo: repo, ledger: ledger}
}

func (s *productService) CreateProduct(ctx context.Context, actor Actor, storeID uuid.UUID, in ProductInput, openingStock int) (*Product, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	if openingStock < 0 {
		return nil, invalidf("opening stock cannot be negative")
	}

	var created *Product
	err := s.repo.InTx(ctx, func(q Queries) error {
		store, err := q.GetStore(ctx, storeID)
		if err != nil {
			return err
		}
		if err := ensureSKUFree(ctx, q, storeID, in.SKU, uuid.Nil); err != nil {
			return err
		}

		ts := now()
		p := &Product{
			ID:                uuid.New(),
			StoreID:           storeID,
			IsActive:          true,
			LowStockThreshold: store.Settings.LowStockDefault,
			CreatedAt:         ts,
			UpdatedAt:         ts,
		}
		applyProductInput(p, in)
		if err := q.InsertProduct(ctx, p); err != nil {
			return fmt.Errorf("failed to insert product: %w", err)
		}
		created = p

		if openingStock > 0 {
			_, updated, err := s.ledger.ApplyTx(ctx, q, actor, storeID, Movement{
				ProductID:     p.ID,
				Type:          TxStockIn,
				Quantity:      openingStock,
				ReferenceType: RefOpening,
				Notes:         "Opening stock",
			}, StockOutReject)
			if err != nil {
				return err
			}
			created = updated
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *productService) UpdateProduct(ctx context.Context, storeID, id uuid.UUID, in ProductInput, version int) (*Product, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	var updated *Product
	err := s.repo.InTx(ctx, func(q Queries) error {
		p, err := q.GetProductForUpdate(ctx, storeID, id)
		if err != nil {
			return err
		}
		if version != 0 && version != p.Version {
			return fmt.Errorf("%w: product %s is at version %d, not %d", ErrConcurrentModification, p.Name, p.Version, version)
		}
		if in.SKU != p.SKU {
			if err := ensureSKUFree(ctx, q, storeID, in.SKU, p.ID); err != nil {
				return err
			}
		}
		applyProductInput(p, in)
		p.UpdatedAt = now()
		if err := q.UpdateProduct(ctx, p); err != nil {
			return fmt.Errorf("failed to update product: %w", err)
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *productService) GetProduct(ctx context.Context, storeID, id uuid.UUID) (*Product, error) {
	return s.repo.GetProduct(ctx, storeID, id)
}

func (s *productService) GetProductBySKU(ctx context.Context, storeID uuid.UUID, sku string) (*Product, error) {
	return s.repo.GetProductBySKU(ctx, storeID, strings.ToUpper(strings.TrimSpace(sku)))
}

func (s *productService) ListProducts(ctx context.Context, storeID uuid.UUID, f ProductFilter) ([]Product, error) {
	products, err := s.repo.ListProducts(ctx, storeID, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (s *productService) DeactivateProduct(ctx context.Context, storeID, id uuid.UUID) error {
	return s.repo.InTx(ctx, func(q Queries) error {
		p, err := q.GetProductForUpdate(ctx, storeID, id)
		if err != nil {
			return err
		}
		if !p.IsActive {
			return nil
		}
		p.IsActive = false
		p.UpdatedAt = now()
		return q.UpdateProduct(ctx, p)
	})
}

func applyProductInput(p *Product, in ProductInput) {
	p.Name = in.Name
	p.SKU = in.SKU
	p.Category = in.Category
	p.Brand = in.Brand
	p.Unit = in.Unit
	p.PurchaseCost = in.PurchaseCost
	p.SalePrice = in.SalePrice
	p.WarrantyMonths = in.WarrantyMonths
	if in.LowStockThreshold != nil {
		p.LowStockThreshold = *in.LowStockThreshold
	}
}

// ensureSKUFree fails with ErrDuplicateSKU when another product of the store owns sku.
// Empty SKUs are not unique.
func ensureSKUFree(ctx context.Context, q Queries, storeID uuid.UUID, sku string, self uuid.UUID) error {
	if sku == "" {
		return nil
	}
	existing, err := q.GetProductBySKU(ctx, storeID, sku)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to check sku: %w", err)
	}
	if existing.ID != self {
		return fmt.Errorf("%w: %s", ErrDuplicateSKU, sku)
	}
	return nil
}

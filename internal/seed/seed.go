// Package seed provisions the demo store used by demo mode and cmd/seed.
package seed

import (
	"context"
	"fmt"

	"digital-ondu/internal/app"
	"digital-ondu/internal/core"

	"github.com/shopspring/decimal"
)

const (
	DemoStoreName     = "Ondu Electronics"
	DemoOwnerUsername = "owner"
	DemoOwnerPassword = "owner-demo-1234"
	DemoStaffUsername = "cashier"
	DemoStaffPassword = "cashier-demo-1234"
)

// Result carries what Demo created, or found from an earlier run.
type Result struct {
	Admin    *app.UserSession
	Store    *core.Store
	Owner    core.Actor
	Products []core.Product
	// Created is false when the demo store already existed and nothing was written.
	Created bool
}

type demoProduct struct {
	name, sku, category, brand string
	cost, price                string
	warranty, opening          int
}

var demoProducts = []demoProduct{
	{"Walton Primo H9 Smartphone", "WLT-H9", "Phones", "Walton", "9800", "11500", 12, 15},
	{"Xiaomi Redmi Note 12", "XMI-RN12", "Phones", "Xiaomi", "17200", "19999", 12, 8},
	{"Anker 20W USB-C Charger", "ANK-20W", "Accessories", "Anker", "950", "1350", 18, 40},
	{"Baseus 1m Type-C Cable", "BSU-C1M", "Accessories", "Baseus", "180", "350", 0, 60},
	{"JBL Tune 510BT Headphones", "JBL-510", "Audio", "JBL", "3600", "4500", 12, 6},
	{"Transcend 32GB microSD", "TRN-32G", "Storage", "Transcend", "420", "650", 60, 3},
}

// Demo makes sure the super admin exists and creates the demo store with its owner,
// a cashier, the catalog above with opening stock, one supplier and one customer.
// Running it again finds the existing store and returns without writing.
func Demo(ctx context.Context, svc app.ApplicationService, adminUsername, adminPassword string) (*Result, error) {
	admin, err := svc.EnsureSuperAdmin(ctx, adminUsername, adminPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure super admin: %w", err)
	}
	adminActor := admin.Actor()

	stores, err := svc.ListStores(ctx, adminActor)
	if err != nil {
		return nil, fmt.Errorf("failed to list stores: %w", err)
	}
	for i := range stores {
		if stores[i].Name == DemoStoreName {
			return existing(ctx, svc, admin, &stores[i])
		}
	}

	created, err := svc.CreateStore(ctx, adminActor, app.CreateStoreRequest{
		Name:          DemoStoreName,
		Currency:      "BDT",
		InvoicePrefix: "OND",
		OwnerUsername: DemoOwnerUsername,
		OwnerPassword: DemoOwnerPassword,
		OpeningCash:   decimal.NewFromInt(50000),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create demo store: %w", err)
	}
	storeID := created.Store.ID
	owner := created.Owner.Actor()

	if _, err := svc.CreateUser(ctx, owner, storeID, app.CreateUserRequest{
		Username: DemoStaffUsername,
		Password: DemoStaffPassword,
		Role:     string(core.RoleStaff),
	}); err != nil {
		return nil, fmt.Errorf("failed to create demo cashier: %w", err)
	}

	res := &Result{Admin: admin, Store: created.Store, Owner: owner, Created: true}
	for _, dp := range demoProducts {
		p, err := svc.CreateProduct(ctx, owner, storeID, app.ProductRequest{
			Name:           dp.name,
			SKU:            dp.sku,
			Category:       dp.category,
			Brand:          dp.brand,
			Unit:           "pcs",
			PurchaseCost:   decimal.RequireFromString(dp.cost),
			SalePrice:      decimal.RequireFromString(dp.price),
			WarrantyMonths: dp.warranty,
			OpeningStock:   dp.opening,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create product %s: %w", dp.sku, err)
		}
		res.Products = append(res.Products, *p)
	}

	if _, err := svc.CreateSupplier(ctx, owner, storeID, app.SupplierRequest{
		Name:    "Dhaka Mobile Distributors",
		Phone:   "+8801711000000",
		Address: "Bashundhara City, Dhaka",
	}); err != nil {
		return nil, fmt.Errorf("failed to create demo supplier: %w", err)
	}
	if _, err := svc.CreateCustomer(ctx, owner, storeID, app.CustomerRequest{
		Name:  "Rahim Uddin",
		Phone: "+8801819000000",
	}); err != nil {
		return nil, fmt.Errorf("failed to create demo customer: %w", err)
	}
	return res, nil
}

func existing(ctx context.Context, svc app.ApplicationService, admin *app.UserSession, store *core.Store) (*Result, error) {
	owner, err := svc.AuthenticateUser(ctx, app.LoginRequest{Username: DemoOwnerUsername, Password: DemoOwnerPassword})
	if err != nil {
		return nil, fmt.Errorf("demo store exists but owner login failed: %w", err)
	}
	list, err := svc.ListProducts(ctx, owner.Actor(), store.ID, core.ProductFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list demo products: %w", err)
	}
	return &Result{Admin: admin, Store: store, Owner: owner.Actor(), Products: list.Products}, nil
}

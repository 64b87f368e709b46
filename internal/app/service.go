package app

import (
	"context"
	"io"

	"digital-ondu/internal/core"

	"github.com/google/uuid"
)

// ApplicationService is the single interface all UI adapters (CLI, Web) call.
// It decouples presentation from business logic. Every store-scoped method checks
// that actor may act on storeID before touching the store. Implementations must
// contain no fmt.Println and no display logic of any kind.
type ApplicationService interface {
	// ── Sessions & users ──

	// AuthenticateUser verifies credentials and returns a session on success.
	AuthenticateUser(ctx context.Context, req LoginRequest) (*UserSession, error)
	// GetUser returns the profile of a logged in user.
	GetUser(ctx context.Context, userID uuid.UUID) (*UserSession, error)
	// CreateUser adds a staff or owner login to a store. Owners only.
	CreateUser(ctx context.Context, actor core.Actor, storeID uuid.UUID, req CreateUserRequest) (*UserSession, error)
	// EnsureSuperAdmin creates the platform administrator, or verifies the existing one.
	EnsureSuperAdmin(ctx context.Context, username, password string) (*UserSession, error)

	// ── Stores ──

	// CreateStore provisions a tenant with its owner. Super admins only.
	CreateStore(ctx context.Context, actor core.Actor, req CreateStoreRequest) (*StoreResult, error)
	ListStores(ctx context.Context, actor core.Actor) ([]core.Store, error)
	GetStore(ctx context.Context, actor core.Actor, storeID uuid.UUID) (*core.Store, error)
	UpdateStoreSettings(ctx context.Context, actor core.Actor, storeID uuid.UUID, req UpdateSettingsRequest) (*core.Store, error)

	// ── Catalog ──

	CreateProduct(ctx context.Context, actor core.Actor, storeID uuid.UUID, req ProductRequest) (*core.Product, error)
	UpdateProduct(ctx context.Context, actor core.Actor, storeID, productID uuid.UUID, req ProductRequest) (*core.Product, error)
	GetProduct(ctx context.Context, actor core.Actor, storeID, productID uuid.UUID) (*core.Product, error)
	ListProducts(ctx context.Context, actor core.Actor, storeID uuid.UUID, f core.ProductFilter) (*ProductListResult, error)
	DeactivateProduct(ctx context.Context, actor core.Actor, storeID, productID uuid.UUID) error

	// ── Stock ledger ──

	StockIn(ctx context.Context, actor core.Actor, storeID uuid.UUID, req StockMovementRequest) (*core.LedgerEntry, error)
	StockOut(ctx context.Context, actor core.Actor, storeID uuid.UUID, req StockMovementRequest) (*core.LedgerEntry, error)
	// RecordMovement posts returns, damage and losses. req.Type selects the kind.
	RecordMovement(ctx context.Context, actor core.Actor, storeID uuid.UUID, req StockMovementRequest) (*core.LedgerEntry, error)
	CreateAdjustment(ctx context.Context, actor core.Actor, storeID uuid.UUID, req AdjustmentRequest) (*core.StockAdjustment, error)
	GetAdjustment(ctx context.Context, actor core.Actor, storeID, adjustmentID uuid.UUID) (*core.StockAdjustment, error)
	ListAdjustments(ctx context.Context, actor core.Actor, storeID uuid.UUID) ([]core.StockAdjustment, error)
	LedgerEntries(ctx context.Context, actor core.Actor, storeID uuid.UUID, q LedgerQuery) (*LedgerResult, error)
	ProductLedger(ctx context.Context, actor core.Actor, storeID, productID uuid.UUID) (*LedgerResult, error)
	// ExportLedger writes the filtered ledger to w as an xlsx workbook.
	ExportLedger(ctx context.Context, actor core.Actor, storeID uuid.UUID, q LedgerQuery, w io.Writer) error

	// ── Cash book ──

	CashBalance(ctx context.Context, actor core.Actor, storeID uuid.UUID) (*CashBalanceResult, error)
	CashEntries(ctx context.Context, actor core.Actor, storeID uuid.UUID, q CashQuery) (*CashStatementResult, error)
	Deposit(ctx context.Context, actor core.Actor, storeID uuid.UUID, req CashRequest) (*core.CashEntry, error)
	Withdraw(ctx context.Context, actor core.Actor, storeID uuid.UUID, req CashRequest) (*core.CashEntry, error)

	// ── Suppliers & customers ──

	CreateSupplier(ctx context.Context, actor core.Actor, storeID uuid.UUID, req SupplierRequest) (*core.Supplier, error)
	GetSupplier(ctx context.Context, actor core.Actor, storeID, supplierID uuid.UUID) (*core.Supplier, error)
	ListSuppliers(ctx context.Context, actor core.Actor, storeID uuid.UUID) ([]core.Supplier, error)
	ListSupplierPayments(ctx context.Context, actor core.Actor, storeID, supplierID uuid.UUID) ([]core.SupplierPayment, error)
	// PaySupplier settles part or all of a supplier's payable.
	PaySupplier(ctx context.Context, actor core.Actor, storeID, supplierID uuid.UUID, req SupplierPaymentRequest) (*core.SupplierPayment, error)
	CreateCustomer(ctx context.Context, actor core.Actor, storeID uuid.UUID, req CustomerRequest) (*core.Customer, error)
	GetCustomer(ctx context.Context, actor core.Actor, storeID, customerID uuid.UUID) (*core.Customer, error)
	ListCustomers(ctx context.Context, actor core.Actor, storeID uuid.UUID) ([]core.Customer, error)

	// ── Purchases & sales ──

	CreatePurchase(ctx context.Context, actor core.Actor, storeID uuid.UUID, req PurchaseRequest) (*core.Purchase, error)
	GetPurchase(ctx context.Context, actor core.Actor, storeID, purchaseID uuid.UUID) (*core.Purchase, error)
	ListPurchases(ctx context.Context, actor core.Actor, storeID uuid.UUID, q PurchaseQuery) ([]core.Purchase, error)
	Checkout(ctx context.Context, actor core.Actor, storeID uuid.UUID, req CheckoutRequest) (*core.Sale, error)
	GetSale(ctx context.Context, actor core.Actor, storeID, saleID uuid.UUID) (*core.Sale, error)
	ListSales(ctx context.Context, actor core.Actor, storeID uuid.UUID, q SaleQuery) ([]core.Sale, error)
	CollectDue(ctx context.Context, actor core.Actor, storeID, saleID uuid.UUID, req CollectDueRequest) (*core.Sale, error)
	WarrantyLookup(ctx context.Context, actor core.Actor, storeID uuid.UUID, serial string) (*core.WarrantyInfo, error)

	// ── Reports ──

	StockSummary(ctx context.Context, actor core.Actor, storeID uuid.UUID) (*core.StockSummary, error)
	Reconcile(ctx context.Context, actor core.Actor, storeID uuid.UUID) (*core.ReconciliationReport, error)
}

package core

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Queries is the persistence surface used by the domain services. Both a plain
// connection and an open transaction satisfy it; ForUpdate reads take a row lock
// that is held until the surrounding transaction ends.
type Queries interface {
	InsertStore(ctx context.Context, s *Store) error
	GetStore(ctx context.Context, id uuid.UUID) (*Store, error)
	ListStores(ctx context.Context) ([]Store, error)
	UpdateStoreSettings(ctx context.Context, id uuid.UUID, settings StoreSettings) error

	InsertUser(ctx context.Context, u *User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	InsertProduct(ctx context.Context, p *Product) error
	GetProduct(ctx context.Context, storeID, id uuid.UUID) (*Product, error)
	GetProductForUpdate(ctx context.Context, storeID, id uuid.UUID) (*Product, error)
	GetProductBySKU(ctx context.Context, storeID uuid.UUID, sku string) (*Product, error)
	ListProducts(ctx context.Context, storeID uuid.UUID, f ProductFilter) ([]Product, error)
	// UpdateProduct writes every mutable column if p.Version still matches the stored
	// row, then increments p.Version. A mismatch yields ErrConcurrentModification.
	UpdateProduct(ctx context.Context, p *Product) error

	InsertLedgerEntry(ctx context.Context, e *LedgerEntry) error
	// ListLedgerEntries returns matching entries newest first.
	ListLedgerEntries(ctx context.Context, storeID uuid.UUID, f LedgerFilter) ([]LedgerEntry, error)

	InsertAdjustment(ctx context.Context, a *StockAdjustment) error
	GetAdjustment(ctx context.Context, storeID, id uuid.UUID) (*StockAdjustment, error)
	ListAdjustments(ctx context.Context, storeID uuid.UUID) ([]StockAdjustment, error)

	// GetCashBalanceForUpdate returns the store's running balance, creating a zero
	// balance row on first use.
	GetCashBalanceForUpdate(ctx context.Context, storeID uuid.UUID) (*CashBalance, error)
	GetCashBalance(ctx context.Context, storeID uuid.UUID) (*CashBalance, error)
	UpdateCashBalance(ctx context.Context, b *CashBalance) error
	InsertCashEntry(ctx context.Context, e *CashEntry) error
	ListCashEntries(ctx context.Context, storeID uuid.UUID, f CashFilter) ([]CashEntry, error)
	SumCashEntries(ctx context.Context, storeID uuid.UUID) (decimal.Decimal, error)

	InsertSupplier(ctx context.Context, s *Supplier) error
	GetSupplier(ctx context.Context, storeID, id uuid.UUID) (*Supplier, error)
	GetSupplierForUpdate(ctx context.Context, storeID, id uuid.UUID) (*Supplier, error)
	ListSuppliers(ctx context.Context, storeID uuid.UUID) ([]Supplier, error)
	UpdateSupplierDue(ctx context.Context, storeID, id uuid.UUID, due decimal.Decimal) error
	InsertSupplierPayment(ctx context.Context, p *SupplierPayment) error
	ListSupplierPayments(ctx context.Context, storeID, supplierID uuid.UUID) ([]SupplierPayment, error)

	InsertCustomer(ctx context.Context, c *Customer) error
	GetCustomer(ctx context.Context, storeID, id uuid.UUID) (*Customer, error)
	GetCustomerForUpdate(ctx context.Context, storeID, id uuid.UUID) (*Customer, error)
	ListCustomers(ctx context.Context, storeID uuid.UUID) ([]Customer, error)
	UpdateCustomerDue(ctx context.Context, storeID, id uuid.UUID, due decimal.Decimal) error

	InsertPurchase(ctx context.Context, p *Purchase) error
	GetPurchase(ctx context.Context, storeID, id uuid.UUID) (*Purchase, error)
	ListPurchases(ctx context.Context, storeID uuid.UUID, f PurchaseFilter) ([]Purchase, error)

	// NextSequence returns the next gapless number of docType for (store, year),
	// starting at 1.
	NextSequence(ctx context.Context, storeID uuid.UUID, docType string, year int) (int64, error)
	InsertSale(ctx context.Context, s *Sale) error
	GetSale(ctx context.Context, storeID, id uuid.UUID) (*Sale, error)
	GetSaleForUpdate(ctx context.Context, storeID, id uuid.UUID) (*Sale, error)
	ListSales(ctx context.Context, storeID uuid.UUID, f SaleFilter) ([]Sale, error)
	// UpdateSalePayment persists PaidAmount, DueAmount and installment payments.
	UpdateSalePayment(ctx context.Context, s *Sale) error
	FindSaleBySerial(ctx context.Context, storeID uuid.UUID, serial string) (*Sale, error)
}

// Repository is a Queries bound to a connection pool that can also open transactions.
// InTx commits when fn returns nil and rolls back every write otherwise.
type Repository interface {
	Queries
	InTx(ctx context.Context, fn func(q Queries) error) error
}

// Locker serializes store-scoped mutations across processes.
type Locker interface {
	// Obtain blocks until key is held or ctx ends, returning ErrBusy on timeout.
	Obtain(ctx context.Context, key string) (release func(), err error)
}

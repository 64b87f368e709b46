package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"digital-ondu/internal/core"
	"digital-ondu/internal/export"
	"digital-ondu/internal/lock"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type appService struct {
	users     core.UserService
	stores    core.StoreService
	products  core.ProductService
	ledger    core.StockLedger
	cash      core.CashBook
	partners  core.PartnerService
	purchases core.PurchaseService
	sales     core.SaleService
	reports   core.ReportingService
	locker    core.Locker
	log       *logrus.Logger
}

// NewAppService wires the domain services over repo. A nil locker falls back to an
// in-process lock, which is only correct for a single server instance.
func NewAppService(repo core.Repository, locker core.Locker, log *logrus.Logger) ApplicationService {
	if locker == nil {
		locker = lock.NewLocal()
	}
	policies := core.NewPolicyEngine()
	ledger := core.NewStockLedger(repo, policies, log)
	cash := core.NewCashBook(repo, policies, log)
	return &appService{
		users:     core.NewUserService(repo),
		stores:    core.NewStoreService(repo, cash),
		products:  core.NewProductService(repo, ledger),
		ledger:    ledger,
		cash:      cash,
		partners:  core.NewPartnerService(repo),
		purchases: core.NewPurchaseService(repo, ledger, cash, log),
		sales:     core.NewSaleService(repo, ledger, cash, log),
		reports:   core.NewReportingService(repo),
		locker:    locker,
		log:       log,
	}
}

func (s *appService) authorize(actor core.Actor, storeID uuid.UUID, min core.Role) error {
	if actor.CanAccess(storeID, min) {
		return nil
	}
	s.log.WithFields(logrus.Fields{
		"user_id":  actor.UserID,
		"role":     actor.Role,
		"store_id": storeID,
		"required": min,
	}).Warn("access denied")
	return fmt.Errorf("%w: %s access to store %s required", core.ErrForbidden, min, storeID)
}

// withStoreLock runs fn while holding the store's named lock.
func withStoreLock[T any](ctx context.Context, s *appService, storeID uuid.UUID, fn func() (T, error)) (T, error) {
	var zero T
	release, err := s.locker.Obtain(ctx, lock.StoreKey(storeID))
	if err != nil {
		return zero, err
	}
	defer release()
	return fn()
}

// ── Sessions & users ──────────────────────────────────────────────────────────

func (s *appService) AuthenticateUser(ctx context.Context, req LoginRequest) (*UserSession, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	u, err := s.users.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}
	return sessionOf(u), nil
}

func (s *appService) GetUser(ctx context.Context, userID uuid.UUID) (*UserSession, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return sessionOf(u), nil
}

func (s *appService) CreateUser(ctx context.Context, actor core.Actor, storeID uuid.UUID, req CreateUserRequest) (*UserSession, error) {
	if err := s.authorize(actor, storeID, core.RoleOwner); err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if _, err := s.stores.GetStore(ctx, storeID); err != nil {
		return nil, err
	}
	u, err := s.users.CreateUser(ctx, &storeID, req.Username, req.Password, core.Role(req.Role))
	if err != nil {
		return nil, err
	}
	return sessionOf(u), nil
}

// EnsureSuperAdmin creates the platform administrator login unless the username is
// already taken, in which case the existing account must accept password.
func (s *appService) EnsureSuperAdmin(ctx context.Context, username, password string) (*UserSession, error) {
	u, err := s.users.CreateUser(ctx, nil, username, password, core.RoleSuperAdmin)
	if errors.Is(err, core.ErrDuplicateUsername) {
		u, err = s.users.Authenticate(ctx, strings.ToLower(strings.TrimSpace(username)), password)
	}
	if err != nil {
		return nil, err
	}
	if u.Role != core.RoleSuperAdmin {
		return nil, fmt.Errorf("%w: %s is not a super admin", core.ErrForbidden, u.Username)
	}
	return sessionOf(u), nil
}

// ── Stores ────────────────────────────────────────────────────────────────────

func (s *appService) CreateStore(ctx context.Context, actor core.Actor, req CreateStoreRequest) (*StoreResult, error) {
	if actor.Role != core.RoleSuperAdmin {
		return nil, fmt.Errorf("%w: only a super admin can create stores", core.ErrForbidden)
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	var settings *core.StoreSettings
	if req.StockOutPolicy != "" || req.AllowNegativeCash || req.LowStockDefault != nil {
		st := core.DefaultStoreSettings()
		if req.StockOutPolicy != "" {
			st.StockOutPolicy = core.StockOutPolicy(req.StockOutPolicy)
		}
		st.AllowNegativeCash = req.AllowNegativeCash
		if req.LowStockDefault != nil {
			st.LowStockDefault = *req.LowStockDefault
		}
		settings = &st
	}
	store, owner, err := s.stores.CreateStore(ctx, actor, core.StoreInput{
		Name:          req.Name,
		Currency:      req.Currency,
		InvoicePrefix: req.InvoicePrefix,
		Settings:      settings,
		OwnerUsername: req.OwnerUsername,
		OwnerPassword: req.OwnerPassword,
		OpeningCash:   req.OpeningCash,
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"store_id": store.ID, "name": store.Name}).Info("store created")
	return &StoreResult{Store: store, Owner: sessionOf(owner)}, nil
}

func (s *appService) ListStores(ctx context.Context, actor core.Actor) ([]core.Store, error) {
	if actor.Role != core.RoleSuperAdmin {
		st, err := s.GetStore(ctx, actor, actor.StoreID)
		if err != nil {
			return nil, err
		}
		return []core.Store{*st}, nil
	}
	return s.stores.ListStores(ctx)
}

func (s *appService) GetStore(ctx context.Context, actor core.Actor, storeID uuid.UUID) (*core.Store, error) {
	if err := s.authorize(actor, storeID, core.RoleStaff); err != nil {
		return nil, err
	}
	return s.stores.GetStore(ctx, storeID)
}

func (s *appService) UpdateStoreSettings(ctx context.Context, actor core.Actor, storeID uuid.UUID, req UpdateSettingsRequest) (*core.Store, error) {
	if err := s.authorize(actor, storeID, core.RoleOwner); err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	return s.stores.UpdateSettings(ctx, storeID, core.StoreSettings{
		StockOutPolicy:    core.StockOutPolicy(req.StockOutPolicy),
		AllowNegativeCash: req.AllowNegativeCash,
		LowStockDefault:   req.LowStockDefault,
	})
}

// ── Catalog ───────────────────────────────────────────────────────────────────

func (req ProductRequest) input() core.ProductInput {
	return core.ProductInput{
		Name:              req.Name,
		SKU:               req.SKU,
		Category:          req.Category,
		Brand:             req.Brand,
		Unit:              req.Unit,
		PurchaseCost:      req.PurchaseCost,
		SalePrice:         req.SalePrice,
		LowStockThreshold: req.LowStockThreshold,
		WarrantyMonths:    req.WarrantyMonths,
	}
}

func (s *appService) CreateProduct(ctx context.Context, actor core.Actor, storeID uuid.UUID, req ProductRequest) (*core.Product, error) {
	if err := s.authorize(actor, storeID, core.RoleOwner); err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	return withStoreLock(ctx, s, storeID, func() (*core.Product, error) {
		return s.products.CreateProduct(ctx, actor, storeID, req.input(), req.OpeningStock)
	})
}

func (s *appService) UpdateProduct(ctx context.Context, actor core.Actor, storeID, productID uuid.UUID, req ProductRequest) (*core.Product, error) {
	if err := s.authorize(actor, storeID, core.RoleOwner); err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	return s.products.UpdateProduct(ctx, storeID, productID, req.input(), req.Version)
}

func (s *appService) GetProduct(ctx context.Context, actor core.Actor, storeID, productID uuid.UUID) (*core.Product, error) {
	if err := s.authorize(actor, storeID, core.RoleStaff); err != nil {
		return nil, err
	}
	return s.products.GetProduct(ctx, storeID, productID)
}

func (s *appService) ListProducts(ctx context.Context, actor core.Actor, storeID uuid.UUID, f core.ProductFilter) (*ProductListResult, error) {
	if err := s.authorize(actor, storeID, core.RoleStaff); err != nil {
		return nil, err
	}
	products, err := s.products.ListProducts(ctx, storeID, f)
	if err != nil {
		return nil, err
	}
	res := &ProductListResult{Products: products}
	for _, p := range products {
		if p.IsLowStock() {
			res.LowStockCount++
		}
	}
	return res, nil
}

func (s *appService) DeactivateProduct(ctx context.Context, actor core.Actor, storeID, productID uuid.UUID) error {
	if err := s.authorize(actor, storeID, core.RoleOwner); err != nil {
		return err
	}
	return s.products.DeactivateProduct(ctx, storeID, productID)
}

// ── Stock ledger ──────────────────────────────────────────────────────────────

func (s *appService) movement(ctx context.Context, storeID uuid.UUID, req StockMovementRequest, typ core.TransactionType) (core.Movement, error) {
	if err := validateStruct(req); err != nil {
		return core.Movement{}, err
	}
	productID := req.ProductID
	if productID == uuid.Nil {
		sku := strings.ToUpper(strings.TrimSpace(req.SKU))
		if sku == "" {
			return core.Movement{}, fieldError("product_id", "required")
		}
		p, err := s.products.GetProductBySKU(ctx, storeID, sku)
		if err != nil {
			return core.Movement{}, err
		}
		productID = p.ID
	}
	return core.Movement{
		ProductID:    productID,
		Type:         typ,
		Quantity:     req.Quantity,
		BatchNumber:  strings.TrimSpace(req.BatchNumber),
		SerialNumber: strings.TrimSpace(req.SerialNumber),
		Notes:        req.Notes,
	}, nil
}

func (s *appService) StockIn(ctx context.Context, actor core.Actor, storeID uuid.UUID, req StockMovementRequest) (*core.LedgerEntry, error) {
	if err := s.authorize(actor, storeID, core.RoleStaff); err != nil {
		return nil, err
	}
	m, err := s.movement(ctx, storeID, req, core.TxStockIn)
	if err != nil {
		return nil, err
	}
	return withStoreLock(ctx, s, storeID, func() (*core.LedgerEntry, error) {
		return s.ledger.StockIn(ctx, actor, storeID, m)
	})
}

func (s *appService) StockOut(ctx context.Context, actor core.Actor, storeID uuid.UUID, req StockMovementRequest) (*core.LedgerEntry, error) {
	if err := s.authorize(actor, storeID, core.RoleStaff); err != nil {
		return nil, err
	}
	m, err := s.movement(ctx, storeID, req, core.TxStockOut)
	if err != nil {
		return nil, err
	}
	return withStoreLock(ctx, s, storeID, func() (*core.LedgerEntry, error) {
		return s.ledger.StockOut(ctx, actor, storeID, m)
	})
}

func (s *appService) RecordMovement(ctx context.Context, actor core.Actor, storeID uuid.UUID, req StockMovementRequest) (*core.LedgerEntry, error) {
	if err := s.authorize(actor, storeID, core.RoleStaff); err != nil {
		return nil, err
	}
	typ := core.TransactionType(strings.ToLower(strings.TrimSpace(req.Type)))
	if !typ.Valid() || typ == core.TxAdjustment {
		return nil, fieldError("type", "oneof")
	}
	m, err := s.movement(ctx, storeID, req, typ)
	if err != nil {
		return nil, err
	}
	return withStoreLock(ctx, s, storeID, func() (*core.LedgerEntry, error) {
		return s.ledger.Record(ctx, actor, storeID, m)
	})
}

func (s *appService) CreateAdjustment(ctx context.Context, actor core.Actor, storeID uuid.UUID, req AdjustmentRequest) (*core.StockAdjustment, error) {
	if err := s.authorize(actor, storeID, core.RoleOwner); err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	in := core.AdjustmentInput{Reason: strings.TrimSpace(req.Reason), Notes: req.Notes}
	date, err := parseTime("adjustment_date", req.AdjustmentDate, false)
	if err != nil {
		return nil, err
	}
	if date != nil {
		in.AdjustmentDate = *date
	}
	for _, it := range req.Items {
		in.Items = append(in.Items, core.AdjustmentLine{ProductID: it.ProductID, NewStock: it.NewStock})
	}
	return withStoreLock(ctx, s, storeID, func() (*core.StockAdjustment, error) {
		return s.ledger.Adjust(ctx, actor, storeID, in)
	})
}

func (s *appService) GetAdjustment(ctx context.Context, actor core.Actor, storeID, adjustmentID uuid.UUID) (*core.StockAdjustment, error) {
	if err := s.authorize(actor, storeID, core.RoleStaff); err != nil {
		return nil, err
	}
	return s.ledger.GetAdjustment(ctx, storeID, adjustmentID)
}

func (s *appService) ListAdjustments(ctx context.Context, actor core.Actor, storeID uuid.UUID) ([]core.StockAdjustment, error) {
	if err := s.authorize(actor, storeID, core.RoleStaff); err != nil {
		return nil, err
	}
	return s.ledger.ListAdjustments(ctx, storeID)
}

func (s *appService) LedgerEntries(ctx context.Context, actor core.Actor, storeID uuid.UUID, q LedgerQuery) (*LedgerResult, error) {
	if err := s.authorize(actor, storeID, core.RoleStaff); err != nil {
		return nil, err
	}
	f, err := q.filter()
	if err != nil {
		return nil, err
	}
	entries, err := s.ledger.Entries(ctx, storeID, f)
	if err != nil {
		return nil, err
	}
	return &LedgerResult{Entries: entries, Count: len(entries)}, nil
}

func (s *appService) ProductLedger(ctx context.Context, actor core.Actor, storeID, productID uuid.UUID) (*LedgerResult, error) {
	if err := s.authorize(actor, storeID, core.RoleStaff); err != nil {
		return nil, err
	}
	entries, err := s.ledger.ProductHistory(ctx, storeID, productID)
	if err != nil {
		return nil, err
	}
	return &LedgerResult{Entries: entries, Count: len(entries)}, nil
}

func (s *appService) ExportLedger(ctx context.Context, actor core.Actor, storeID uuid.UUID, q LedgerQuery, w io.Writer) error {
	res, err := s.LedgerEntries(ctx, actor, storeID, q)
	if err != nil {
		return err
	}
	return export.WriteLedgerXLSX(w, res.Entries)
}

// ── Cash book ─────────────────────────────────────────────────────────────────

func (s *appService) CashBalance(ctx context.Context, actor core.Actor, storeID uuid.UUID) (*CashBalanceResult, error) {
	store, err := s.GetStore(ctx, actor, storeID)
	if err != nil {
		return nil, err
	}
	bal, err := s.cash.Balance(ctx, storeID)
	if err != nil {
		return nil, err
	}
	return &CashBalanceResult{StoreID: storeID, Balance: bal, Currency: store.Currency}, nil
}

func (s *appService) CashEntries(ctx context.Context, actor core.Actor, storeID uuid.UUID, q CashQuery) (*CashStatementResult, error) {
	if err := s.authorize(actor, storeID, core.RoleStaff); err != nil {
		return nil, err
	}
	f, err := q.filter()
	if err != nil {
		return nil, err
	}
	entries, err := s.cash.Entries(ctx, storeID, f)
	if err != nil {
		return nil, err
	}
	bal, err := s.cash.Balance(ctx, storeID)
	if err != nil {
		return nil, err
	}
	return &CashStatementResult{Balance: bal, Entries: entries}, nil
}

func (s *appService) Deposit(ctx context.Context, actor core.Actor, storeID uuid.UUID, req CashRequest) (*core.CashEntry, error) {
	return s.manualCash(ctx, actor, storeID, req, core.CashDeposit)
}

func (s *appService) Withdraw(ctx context.Context, actor core.Actor, storeID uuid.UUID, req CashRequest) (*core.CashEntry, error) {
	return s.manualCash(ctx, actor, storeID, req, core.CashWithdrawal)
}

func (s *appService) manualCash(ctx context.Context, actor core.Actor, storeID uuid.UUID, req CashRequest, typ core.CashEntryType) (*core.CashEntry, error) {
	if err := s.authorize(actor, storeID, core.RoleOwner); err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	m := core.CashMovement{Type: typ, Amount: req.Amount, Notes: req.Notes}
	return withStoreLock(ctx, s, storeID, func() (*core.CashEntry, error) {
		if typ.Inflow() {
			return s.cash.Add(ctx, actor, storeID, m)
		}
		return s.cash.Deduct(ctx, actor, storeID, m)
	})
}

// ── Suppliers & customers ─────────────────────────────────────────────────────

func (s *appService) CreateSupplier(ctx context.Context, actor core.Actor, storeID uuid.UUID, req SupplierRequest) (*core.Supplier, error) {
	if err := s.authorize(actor, storeID, core.RoleOwner); err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	return s.partners.CreateSupplier(ctx, storeID, core.SupplierInput{
		Name: req.Name, Phone: req.Phone, Email: req.Email, Address: req.Address,
	})
}

func (s *appService) GetSupplier(ctx context.Context, actor core.Actor, storeID, supplierID uuid.UUID) (*core.Supplier, error) {
	if err := s.authorize(actor, storeID, core.RoleStaff); err != nil {
		return nil, err
	}
	return s.partners.GetSupplier(ctx, storeID, supplierID)
}

func (s *appService) ListSuppliers(ctx context.Context, actor core.Actor, storeID uuid.UUID) ([]core.Supplier, error) {
	if err := s.authorize(actor, storeID, core.RoleStaff); err != nil {
		return nil, err
	}
	return s.partners.ListSuppliers(ctx, storeID)
}

func (s *appService) ListSupplierPayments(ctx context.Context, actor core.Actor, storeID, supplierID uuid.UUID) ([]core.SupplierPayment, error) {
	if err := s.authorize(actor, storeID, core.RoleStaff); err != nil {
		return nil, err
	}
	return s.partners.ListSupplierPayments(ctx, storeID, supplierID)
}

func (s *appService) PaySupplier(ctx context.Context, actor core.Actor, storeID, supplierID uuid.UUID, req SupplierPaymentRequest) (*core.SupplierPayment, error) {
	if err := s.authorize(actor, storeID, core.RoleOwner); err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	return withStoreLock(ctx, s, storeID, func() (*core.SupplierPayment, error) {
		return s.purchases.SettleSupplierDue(ctx, actor, storeID, supplierID, req.Amount, req.DeductFromBalance, req.Notes)
	})
}

func (s *appService) CreateCustomer(ctx context.Context, actor core.Actor, storeID uuid.UUID, req CustomerRequest) (*core.Customer, error) {
	if err := s.authorize(actor, storeID, core.RoleStaff); err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	return s.partners.CreateCustomer(ctx, storeID, core.CustomerInput{
		Name: req.Name, Phone: req.Phone, Address: req.Address,
	})
}

func (s *appService) GetCustomer(ctx context.Context, actor core.Actor, storeID, customerID uuid.UUID) (*core.Customer, error) {
	if err := s.authorize(actor, storeID, core.RoleStaff); err != nil {
		return nil, err
	}
	return s.partners.GetCustomer(ctx, storeID, customerID)
}

func (s *appService) ListCustomers(ctx context.Context, actor core.Actor, storeID uuid.UUID) ([]core.Customer, error) {
	if err := s.authorize(actor, storeID, core.RoleStaff); err != nil {
		return nil, err
	}
	return s.partners.ListCustomers(ctx, storeID)
}

// ── Purchases & sales ─────────────────────────────────────────────────────────

func (s *appService) CreatePurchase(ctx context.Context, actor core.Actor, storeID uuid.UUID, req PurchaseRequest) (*core.Purchase, error) {
	if err := s.authorize(actor, storeID, core.RoleOwner); err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	in := core.PurchaseInput{
		SupplierID:        req.SupplierID,
		PaidAmount:        req.PaidAmount,
		DeductFromBalance: req.DeductFromBalance,
		Notes:             req.Notes,
	}
	date, err := parseTime("purchase_date", req.PurchaseDate, false)
	if err != nil {
		return nil, err
	}
	if date != nil {
		in.PurchaseDate = *date
	}
	for _, it := range req.Items {
		in.Items = append(in.Items, core.PurchaseLine{ProductID: it.ProductID, Quantity: it.Quantity, UnitCost: it.UnitCost})
	}
	return withStoreLock(ctx, s, storeID, func() (*core.Purchase, error) {
		return s.purchases.CreatePurchase(ctx, actor, storeID, in)
	})
}

func (s *appService) GetPurchase(ctx context.Context, actor core.Actor, storeID, purchaseID uuid.UUID) (*core.Purchase, error) {
	if err := s.authorize(actor, storeID, core.RoleStaff); err != nil {
		return nil, err
	}
	return s.purchases.GetPurchase(ctx, storeID, purchaseID)
}

func (s *appService) ListPurchases(ctx context.Context, actor core.Actor, storeID uuid.UUID, q PurchaseQuery) ([]core.Purchase, error) {
	if err := s.authorize(actor, storeID, core.RoleStaff); err != nil {
		return nil, err
	}
	f, err := q.filter()
	if err != nil {
		return nil, err
	}
	return s.purchases.ListPurchases(ctx, storeID, f)
}

func (s *appService) Checkout(ctx context.Context, actor core.Actor, storeID uuid.UUID, req CheckoutRequest) (*core.Sale, error) {
	if err := s.authorize(actor, storeID, core.RoleStaff); err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	in := core.CheckoutInput{
		CustomerID:      req.CustomerID,
		Discount:        req.Discount,
		DiscountPercent: req.DiscountPercent,
		PaidAmount:      req.PaidAmount,
		PaymentMethod:   core.PaymentMethod(req.PaymentMethod),
		Installments:    req.Installments,
	}
	if in.PaymentMethod == "" {
		in.PaymentMethod = core.PaymentCash
	}
	var err error
	if in.FirstDueDate, err = parseTime("first_due_date", req.FirstDueDate, false); err != nil {
		return nil, err
	}
	for _, it := range req.Items {
		in.Items = append(in.Items, core.CheckoutLine{
			ProductID:    it.ProductID,
			Quantity:     it.Quantity,
			UnitPrice:    it.UnitPrice,
			SerialNumber: strings.TrimSpace(it.SerialNumber),
		})
	}
	return withStoreLock(ctx, s, storeID, func() (*core.Sale, error) {
		return s.sales.Checkout(ctx, actor, storeID, in)
	})
}

func (s *appService) GetSale(ctx context.Context, actor core.Actor, storeID, saleID uuid.UUID) (*core.Sale, error) {
	if err := s.authorize(actor, storeID, core.RoleStaff); err != nil {
		return nil, err
	}
	return s.sales.GetSale(ctx, storeID, saleID)
}

func (s *appService) ListSales(ctx context.Context, actor core.Actor, storeID uuid.UUID, q SaleQuery) ([]core.Sale, error) {
	if err := s.authorize(actor, storeID, core.RoleStaff); err != nil {
		return nil, err
	}
	f, err := q.filter()
	if err != nil {
		return nil, err
	}
	return s.sales.ListSales(ctx, storeID, f)
}

func (s *appService) CollectDue(ctx context.Context, actor core.Actor, storeID, saleID uuid.UUID, req CollectDueRequest) (*core.Sale, error) {
	if err := s.authorize(actor, storeID, core.RoleStaff); err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	return withStoreLock(ctx, s, storeID, func() (*core.Sale, error) {
		return s.sales.CollectDue(ctx, actor, storeID, saleID, req.Amount, req.Notes)
	})
}

func (s *appService) WarrantyLookup(ctx context.Context, actor core.Actor, storeID uuid.UUID, serial string) (*core.WarrantyInfo, error) {
	if err := s.authorize(actor, storeID, core.RoleStaff); err != nil {
		return nil, err
	}
	return s.sales.WarrantyLookup(ctx, storeID, serial)
}

// ── Reports ───────────────────────────────────────────────────────────────────

func (s *appService) StockSummary(ctx context.Context, actor core.Actor, storeID uuid.UUID) (*core.StockSummary, error) {
	if err := s.authorize(actor, storeID, core.RoleStaff); err != nil {
		return nil, err
	}
	return s.reports.StockSummary(ctx, storeID)
}

func (s *appService) Reconcile(ctx context.Context, actor core.Actor, storeID uuid.UUID) (*core.ReconciliationReport, error) {
	if err := s.authorize(actor, storeID, core.RoleOwner); err != nil {
		return nil, err
	}
	report, err := s.reports.Reconcile(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if !report.OK() {
		s.log.WithFields(logrus.Fields{
			"store_id":         storeID,
			"stock_mismatches": len(report.StockMismatches),
			"chain_breaks":     len(report.ChainBreaks),
			"cash_balanced":    report.CashBalanced,
		}).Warn("reconciliation found discrepancies")
	}
	return report, nil
}

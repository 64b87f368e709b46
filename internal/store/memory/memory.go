// Package memory is an in-process core.Repository used for demo mode and tests.
// Transactions are serialized by a single mutex and roll back by restoring a
// snapshot of the state taken when the transaction began.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"digital-ondu/internal/core"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Store struct {
	mu sync.RWMutex
	*queries
}

var _ core.Repository = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	s := &Store{}
	s.queries = &queries{st: newState(), mu: &s.mu}
	return s
}

// InTx runs fn with exclusive access to the state. Any error, or a panic, restores
// the state as it was before fn ran.
func (s *Store) InTx(ctx context.Context, fn func(q core.Queries) error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}

	snapshot := s.st.clone()
	defer func() {
		if rv := recover(); rv != nil {
			*s.st = *snapshot
			panic(rv)
		}
		if err != nil {
			*s.st = *snapshot
		}
	}()
	return fn(&queries{st: s.st})
}

type state struct {
	stores           map[uuid.UUID]core.Store
	users            map[uuid.UUID]core.User
	products         map[uuid.UUID]core.Product
	ledger           []core.LedgerEntry
	adjustments      []core.StockAdjustment
	cash             map[uuid.UUID]core.CashBalance
	cashEntries      []core.CashEntry
	suppliers        map[uuid.UUID]core.Supplier
	supplierPayments []core.SupplierPayment
	customers        map[uuid.UUID]core.Customer
	purchases        []core.Purchase
	sales            map[uuid.UUID]core.Sale
	saleOrder        []uuid.UUID
	sequences        map[string]int64
	seq              int64
}

func newState() *state {
	return &state{
		stores:    make(map[uuid.UUID]core.Store),
		users:     make(map[uuid.UUID]core.User),
		products:  make(map[uuid.UUID]core.Product),
		cash:      make(map[uuid.UUID]core.CashBalance),
		suppliers: make(map[uuid.UUID]core.Supplier),
		customers: make(map[uuid.UUID]core.Customer),
		sales:     make(map[uuid.UUID]core.Sale),
		sequences: make(map[string]int64),
	}
}

// clone copies every map and slice header. Stored values are never mutated in
// place (nested slices are copied on write), so element-wise copies are enough.
func (st *state) clone() *state {
	return &state{
		stores:           cloneMap(st.stores),
		users:            cloneMap(st.users),
		products:         cloneMap(st.products),
		ledger:           append([]core.LedgerEntry(nil), st.ledger...),
		adjustments:      append([]core.StockAdjustment(nil), st.adjustments...),
		cash:             cloneMap(st.cash),
		cashEntries:      append([]core.CashEntry(nil), st.cashEntries...),
		suppliers:        cloneMap(st.suppliers),
		supplierPayments: append([]core.SupplierPayment(nil), st.supplierPayments...),
		customers:        cloneMap(st.customers),
		purchases:        append([]core.Purchase(nil), st.purchases...),
		sales:            cloneMap(st.sales),
		saleOrder:        append([]uuid.UUID(nil), st.saleOrder...),
		sequences:        cloneMap(st.sequences),
		seq:              st.seq,
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// queries implements core.Queries over a state. Outside a transaction mu is set and
// every call takes the lock itself; inside InTx the lock is already held and mu is nil.
type queries struct {
	st *state
	mu *sync.RWMutex
}

func (q *queries) rlock() func() {
	if q.mu == nil {
		return func() {}
	}
	q.mu.RLock()
	return q.mu.RUnlock
}

func (q *queries) lock() func() {
	if q.mu == nil {
		return func() {}
	}
	q.mu.Lock()
	return q.mu.Unlock
}

func notFound(kind string, id any) error {
	return fmt.Errorf("%s %v: %w", kind, id, core.ErrNotFound)
}

// ── Stores & users ────────────────────────────────────────────────────────────

func (q *queries) InsertStore(_ context.Context, s *core.Store) error {
	defer q.lock()()
	if _, ok := q.st.stores[s.ID]; ok {
		return fmt.Errorf("store %s already exists", s.ID)
	}
	q.st.stores[s.ID] = *s
	return nil
}

func (q *queries) GetStore(_ context.Context, id uuid.UUID) (*core.Store, error) {
	defer q.rlock()()
	s, ok := q.st.stores[id]
	if !ok {
		return nil, notFound("store", id)
	}
	return &s, nil
}

func (q *queries) ListStores(_ context.Context) ([]core.Store, error) {
	defer q.rlock()()
	out := make([]core.Store, 0, len(q.st.stores))
	for _, s := range q.st.stores {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (q *queries) UpdateStoreSettings(_ context.Context, id uuid.UUID, settings core.StoreSettings) error {
	defer q.lock()()
	s, ok := q.st.stores[id]
	if !ok {
		return notFound("store", id)
	}
	s.Settings = settings
	q.st.stores[id] = s
	return nil
}

func (q *queries) InsertUser(_ context.Context, u *core.User) error {
	defer q.lock()()
	for _, existing := range q.st.users {
		if existing.Username == u.Username {
			return fmt.Errorf("%w: %s", core.ErrDuplicateUsername, u.Username)
		}
	}
	q.st.users[u.ID] = *u
	return nil
}

func (q *queries) GetUserByID(_ context.Context, id uuid.UUID) (*core.User, error) {
	defer q.rlock()()
	u, ok := q.st.users[id]
	if !ok {
		return nil, notFound("user", id)
	}
	return &u, nil
}

func (q *queries) GetUserByUsername(_ context.Context, username string) (*core.User, error) {
	defer q.rlock()()
	for _, u := range q.st.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, notFound("user", username)
}

// ── Products ──────────────────────────────────────────────────────────────────

func (q *queries) InsertProduct(_ context.Context, p *core.Product) error {
	defer q.lock()()
	if p.SKU != "" {
		for _, existing := range q.st.products {
			if existing.StoreID == p.StoreID && existing.SKU == p.SKU {
				return fmt.Errorf("%w: %s", core.ErrDuplicateSKU, p.SKU)
			}
		}
	}
	q.st.products[p.ID] = *p
	return nil
}

func (q *queries) GetProduct(_ context.Context, storeID, id uuid.UUID) (*core.Product, error) {
	defer q.rlock()()
	p, ok := q.st.products[id]
	if !ok || p.StoreID != storeID {
		return nil, fmt.Errorf("%w: %s", core.ErrProductNotFound, id)
	}
	return &p, nil
}

func (q *queries) GetProductForUpdate(ctx context.Context, storeID, id uuid.UUID) (*core.Product, error) {
	return q.GetProduct(ctx, storeID, id)
}

func (q *queries) GetProductBySKU(_ context.Context, storeID uuid.UUID, sku string) (*core.Product, error) {
	defer q.rlock()()
	for _, p := range q.st.products {
		if p.StoreID == storeID && p.SKU == sku {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("%w: sku %s", core.ErrProductNotFound, sku)
}

func (q *queries) ListProducts(_ context.Context, storeID uuid.UUID, f core.ProductFilter) ([]core.Product, error) {
	defer q.rlock()()
	out := []core.Product{}
	for _, p := range q.st.products {
		if p.StoreID == storeID && f.Match(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (q *queries) UpdateProduct(_ context.Context, p *core.Product) error {
	defer q.lock()()
	stored, ok := q.st.products[p.ID]
	if !ok || stored.StoreID != p.StoreID {
		return fmt.Errorf("%w: %s", core.ErrProductNotFound, p.ID)
	}
	if stored.Version != p.Version {
		return fmt.Errorf("%w: product %s", core.ErrConcurrentModification, p.Name)
	}
	p.Version++
	q.st.products[p.ID] = *p
	return nil
}

// ── Stock ledger ──────────────────────────────────────────────────────────────

func (q *queries) InsertLedgerEntry(_ context.Context, e *core.LedgerEntry) error {
	defer q.lock()()
	q.st.seq++
	e.Seq = q.st.seq
	q.st.ledger = append(q.st.ledger, *e)
	return nil
}

func (q *queries) ListLedgerEntries(_ context.Context, storeID uuid.UUID, f core.LedgerFilter) ([]core.LedgerEntry, error) {
	defer q.rlock()()
	var entries []core.LedgerEntry
	for i := len(q.st.ledger) - 1; i >= 0; i-- {
		e := q.st.ledger[i]
		if e.StoreID != storeID {
			continue
		}
		if p, ok := q.st.products[e.ProductID]; ok {
			e.ProductName = p.Name
		}
		entries = append(entries, e)
	}
	return core.FilterEntries(entries, f), nil
}

func (q *queries) InsertAdjustment(_ context.Context, a *core.StockAdjustment) error {
	defer q.lock()()
	q.st.adjustments = append(q.st.adjustments, cloneAdjustment(*a))
	return nil
}

func (q *queries) GetAdjustment(_ context.Context, storeID, id uuid.UUID) (*core.StockAdjustment, error) {
	defer q.rlock()()
	for _, a := range q.st.adjustments {
		if a.ID == id && a.StoreID == storeID {
			c := cloneAdjustment(a)
			return &c, nil
		}
	}
	return nil, notFound("stock adjustment", id)
}

func (q *queries) ListAdjustments(_ context.Context, storeID uuid.UUID) ([]core.StockAdjustment, error) {
	defer q.rlock()()
	out := []core.StockAdjustment{}
	for i := len(q.st.adjustments) - 1; i >= 0; i-- {
		if a := q.st.adjustments[i]; a.StoreID == storeID {
			out = append(out, cloneAdjustment(a))
		}
	}
	return out, nil
}

// ── Cash book ─────────────────────────────────────────────────────────────────

func (q *queries) GetCashBalanceForUpdate(_ context.Context, storeID uuid.UUID) (*core.CashBalance, error) {
	defer q.lock()()
	b, ok := q.st.cash[storeID]
	if !ok {
		if _, exists := q.st.stores[storeID]; !exists {
			return nil, notFound("store", storeID)
		}
		b = core.CashBalance{StoreID: storeID, Balance: decimal.Zero}
		q.st.cash[storeID] = b
	}
	return &b, nil
}

func (q *queries) GetCashBalance(_ context.Context, storeID uuid.UUID) (*core.CashBalance, error) {
	defer q.rlock()()
	b, ok := q.st.cash[storeID]
	if !ok {
		b = core.CashBalance{StoreID: storeID, Balance: decimal.Zero}
	}
	return &b, nil
}

func (q *queries) UpdateCashBalance(_ context.Context, b *core.CashBalance) error {
	defer q.lock()()
	stored, ok := q.st.cash[b.StoreID]
	if !ok {
		return notFound("cash balance", b.StoreID)
	}
	if stored.Version != b.Version {
		return fmt.Errorf("%w: cash balance of store %s", core.ErrConcurrentModification, b.StoreID)
	}
	b.Version++
	q.st.cash[b.StoreID] = *b
	return nil
}

func (q *queries) InsertCashEntry(_ context.Context, e *core.CashEntry) error {
	defer q.lock()()
	q.st.seq++
	e.Seq = q.st.seq
	q.st.cashEntries = append(q.st.cashEntries, *e)
	return nil
}

func (q *queries) ListCashEntries(_ context.Context, storeID uuid.UUID, f core.CashFilter) ([]core.CashEntry, error) {
	defer q.rlock()()
	out := []core.CashEntry{}
	for i := len(q.st.cashEntries) - 1; i >= 0; i-- {
		e := q.st.cashEntries[i]
		if e.StoreID != storeID || !f.Match(e) {
			continue
		}
		out = append(out, e)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

func (q *queries) SumCashEntries(_ context.Context, storeID uuid.UUID) (decimal.Decimal, error) {
	defer q.rlock()()
	total := decimal.Zero
	for _, e := range q.st.cashEntries {
		if e.StoreID == storeID {
			total = total.Add(e.Amount)
		}
	}
	return total, nil
}

// ── Suppliers & customers ─────────────────────────────────────────────────────

func (q *queries) InsertSupplier(_ context.Context, s *core.Supplier) error {
	defer q.lock()()
	q.st.suppliers[s.ID] = *s
	return nil
}

func (q *queries) GetSupplier(_ context.Context, storeID, id uuid.UUID) (*core.Supplier, error) {
	defer q.rlock()()
	s, ok := q.st.suppliers[id]
	if !ok || s.StoreID != storeID {
		return nil, notFound("supplier", id)
	}
	return &s, nil
}

func (q *queries) GetSupplierForUpdate(ctx context.Context, storeID, id uuid.UUID) (*core.Supplier, error) {
	return q.GetSupplier(ctx, storeID, id)
}

func (q *queries) ListSuppliers(_ context.Context, storeID uuid.UUID) ([]core.Supplier, error) {
	defer q.rlock()()
	out := []core.Supplier{}
	for _, s := range q.st.suppliers {
		if s.StoreID == storeID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (q *queries) UpdateSupplierDue(_ context.Context, storeID, id uuid.UUID, due decimal.Decimal) error {
	defer q.lock()()
	s, ok := q.st.suppliers[id]
	if !ok || s.StoreID != storeID {
		return notFound("supplier", id)
	}
	s.DueAmount = due
	q.st.suppliers[id] = s
	return nil
}

func (q *queries) InsertSupplierPayment(_ context.Context, p *core.SupplierPayment) error {
	defer q.lock()()
	q.st.supplierPayments = append(q.st.supplierPayments, *p)
	return nil
}

func (q *queries) ListSupplierPayments(_ context.Context, storeID, supplierID uuid.UUID) ([]core.SupplierPayment, error) {
	defer q.rlock()()
	out := []core.SupplierPayment{}
	for i := len(q.st.supplierPayments) - 1; i >= 0; i-- {
		p := q.st.supplierPayments[i]
		if p.StoreID == storeID && p.SupplierID == supplierID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (q *queries) InsertCustomer(_ context.Context, c *core.Customer) error {
	defer q.lock()()
	q.st.customers[c.ID] = *c
	return nil
}

func (q *queries) GetCustomer(_ context.Context, storeID, id uuid.UUID) (*core.Customer, error) {
	defer q.rlock()()
	c, ok := q.st.customers[id]
	if !ok || c.StoreID != storeID {
		return nil, notFound("customer", id)
	}
	return &c, nil
}

func (q *queries) GetCustomerForUpdate(ctx context.Context, storeID, id uuid.UUID) (*core.Customer, error) {
	return q.GetCustomer(ctx, storeID, id)
}

func (q *queries) ListCustomers(_ context.Context, storeID uuid.UUID) ([]core.Customer, error) {
	defer q.rlock()()
	out := []core.Customer{}
	for _, c := range q.st.customers {
		if c.StoreID == storeID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (q *queries) UpdateCustomerDue(_ context.Context, storeID, id uuid.UUID, due decimal.Decimal) error {
	defer q.lock()()
	c, ok := q.st.customers[id]
	if !ok || c.StoreID != storeID {
		return notFound("customer", id)
	}
	c.DueAmount = due
	q.st.customers[id] = c
	return nil
}

// ── Purchases ─────────────────────────────────────────────────────────────────

func (q *queries) InsertPurchase(_ context.Context, p *core.Purchase) error {
	defer q.lock()()
	q.st.purchases = append(q.st.purchases, clonePurchase(*p))
	return nil
}

func (q *queries) GetPurchase(_ context.Context, storeID, id uuid.UUID) (*core.Purchase, error) {
	defer q.rlock()()
	for _, p := range q.st.purchases {
		if p.ID == id && p.StoreID == storeID {
			c := clonePurchase(p)
			return &c, nil
		}
	}
	return nil, notFound("purchase", id)
}

func (q *queries) ListPurchases(_ context.Context, storeID uuid.UUID, f core.PurchaseFilter) ([]core.Purchase, error) {
	defer q.rlock()()
	out := []core.Purchase{}
	for i := len(q.st.purchases) - 1; i >= 0; i-- {
		p := q.st.purchases[i]
		if p.StoreID == storeID && f.Match(p) {
			out = append(out, clonePurchase(p))
		}
	}
	return out, nil
}

// ── Sales ─────────────────────────────────────────────────────────────────────

func (q *queries) NextSequence(_ context.Context, storeID uuid.UUID, docType string, year int) (int64, error) {
	defer q.lock()()
	key := fmt.Sprintf("%s|%s|%d", storeID, docType, year)
	q.st.sequences[key]++
	return q.st.sequences[key], nil
}

func (q *queries) InsertSale(_ context.Context, s *core.Sale) error {
	defer q.lock()()
	if _, ok := q.st.sales[s.ID]; ok {
		return fmt.Errorf("sale %s already exists", s.ID)
	}
	q.st.sales[s.ID] = cloneSale(*s)
	q.st.saleOrder = append(q.st.saleOrder, s.ID)
	return nil
}

func (q *queries) GetSale(_ context.Context, storeID, id uuid.UUID) (*core.Sale, error) {
	defer q.rlock()()
	s, ok := q.st.sales[id]
	if !ok || s.StoreID != storeID {
		return nil, notFound("sale", id)
	}
	c := cloneSale(s)
	return &c, nil
}

func (q *queries) GetSaleForUpdate(ctx context.Context, storeID, id uuid.UUID) (*core.Sale, error) {
	return q.GetSale(ctx, storeID, id)
}

func (q *queries) ListSales(_ context.Context, storeID uuid.UUID, f core.SaleFilter) ([]core.Sale, error) {
	defer q.rlock()()
	out := []core.Sale{}
	for i := len(q.st.saleOrder) - 1; i >= 0; i-- {
		s := q.st.sales[q.st.saleOrder[i]]
		if s.StoreID != storeID || !f.Match(s) {
			continue
		}
		out = append(out, cloneSale(s))
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

func (q *queries) UpdateSalePayment(_ context.Context, s *core.Sale) error {
	defer q.lock()()
	stored, ok := q.st.sales[s.ID]
	if !ok || stored.StoreID != s.StoreID {
		return notFound("sale", s.ID)
	}
	stored.PaidAmount = s.PaidAmount
	stored.DueAmount = s.DueAmount
	stored.Installments = append([]core.Installment(nil), s.Installments...)
	q.st.sales[s.ID] = stored
	return nil
}

func (q *queries) FindSaleBySerial(_ context.Context, storeID uuid.UUID, serial string) (*core.Sale, error) {
	defer q.rlock()()
	for i := len(q.st.saleOrder) - 1; i >= 0; i-- {
		s := q.st.sales[q.st.saleOrder[i]]
		if s.StoreID != storeID {
			continue
		}
		for _, it := range s.Items {
			if it.SerialNumber != "" && strings.EqualFold(it.SerialNumber, serial) {
				c := cloneSale(s)
				return &c, nil
			}
		}
	}
	return nil, notFound("serial", serial)
}

func cloneAdjustment(a core.StockAdjustment) core.StockAdjustment {
	a.Items = append([]core.AdjustmentItem(nil), a.Items...)
	return a
}

func clonePurchase(p core.Purchase) core.Purchase {
	p.Items = append([]core.PurchaseItem(nil), p.Items...)
	return p
}

func cloneSale(s core.Sale) core.Sale {
	s.Items = append([]core.SaleItem(nil), s.Items...)
	s.Installments = append([]core.Installment(nil), s.Installments...)
	return s
}

package core

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// PurchaseService records supplier deliveries and the settlement of supplier dues.
// Cash on hand is touched only when the caller asks for the payment to be deducted
// from the balance.
type PurchaseService interface {
	CreatePurchase(ctx context.Context, actor Actor, storeID uuid.UUID, in PurchaseInput) (*Purchase, error)
	GetPurchase(ctx context.Context, storeID, id uuid.UUID) (*Purchase, error)
	ListPurchases(ctx context.Context, storeID uuid.UUID, f PurchaseFilter) ([]Purchase, error)
	// SettleSupplierDue pays down a supplier's payable. The amount may not exceed the due.
	SettleSupplierDue(ctx context.Context, actor Actor, storeID, supplierID uuid.UUID, amount decimal.Decimal, deductFromBalance bool, notes string) (*SupplierPayment, error)
}

type purchaseService struct {
	repo   Repository
	ledger StockLedger
	cash   CashBook
	log    *logrus.Logger
}

func NewPurchaseService(repo Repository, ledger StockLedger, cash CashBook, log *logrus.Logger) PurchaseService {
	return &purchaseService{repo: repo, ledger: ledger, cash: cash, log: log}
}

func (s *purchaseService) CreatePurchase(ctx context.Context, actor Actor, storeID uuid.UUID, in PurchaseInput) (*Purchase, error) {
	if len(in.Items) == 0 {
		return nil, invalidf("purchase must contain at least one item")
	}
	if in.PaidAmount.IsNegative() {
		return nil, invalidf("paid amount cannot be negative")
	}
	if !WholeCents(in.PaidAmount) {
		return nil, fmt.Errorf("%w: paid amount %s is not a whole number of cents", ErrInvalidAmount, in.PaidAmount)
	}

	total := decimal.Zero
	seen := make(map[uuid.UUID]bool, len(in.Items))
	items := make([]PurchaseItem, len(in.Items))
	for i, l := range in.Items {
		if l.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		if l.UnitCost.IsNegative() {
			return nil, invalidf("unit cost cannot be negative, got %s", l.UnitCost)
		}
		if seen[l.ProductID] {
			return nil, fmt.Errorf("%w: product %s appears more than once", ErrDuplicateItem, l.ProductID)
		}
		seen[l.ProductID] = true
		lineTotal := l.UnitCost.Mul(decimal.NewFromInt(int64(l.Quantity))).Round(2)
		items[i] = PurchaseItem{ProductID: l.ProductID, Quantity: l.Quantity, UnitCost: l.UnitCost, LineTotal: lineTotal}
		total = total.Add(lineTotal)
	}
	if in.PaidAmount.GreaterThan(total) {
		return nil, invalidf("paid amount %s exceeds purchase total %s", in.PaidAmount.StringFixed(2), total.StringFixed(2))
	}

	ts := now()
	p := &Purchase{
		ID:                  uuid.New(),
		StoreID:             storeID,
		SupplierID:          in.SupplierID,
		PurchaseDate:        in.PurchaseDate,
		Items:               items,
		TotalAmount:         total,
		PaidAmount:          in.PaidAmount,
		DueAmount:           total.Sub(in.PaidAmount),
		DeductedFromBalance: in.DeductFromBalance && in.PaidAmount.IsPositive(),
		Notes:               strings.TrimSpace(in.Notes),
		CreatedBy:           actor.UserID,
		CreatedAt:           ts,
	}
	if p.PurchaseDate.IsZero() {
		p.PurchaseDate = ts
	}

	err := s.repo.InTx(ctx, func(q Queries) error {
		sup, err := q.GetSupplierForUpdate(ctx, storeID, in.SupplierID)
		if err != nil {
			return err
		}
		p.SupplierName = sup.Name

		order := make([]int, len(p.Items))
		for i := range order {
			order[i] = i
		}
		sort.Slice(order, func(a, b int) bool {
			return p.Items[order[a]].ProductID.String() < p.Items[order[b]].ProductID.String()
		})
		for _, i := range order {
			item := &p.Items[i]
			cost := item.UnitCost
			_, prod, err := s.ledger.ApplyTx(ctx, q, actor, storeID, Movement{
				ProductID:     item.ProductID,
				Type:          TxPurchase,
				Quantity:      item.Quantity,
				ReferenceType: RefPurchase,
				ReferenceID:   &p.ID,
				Notes:         "Purchase from " + sup.Name,
				UnitCost:      &cost,
			}, StockOutReject)
			if err != nil {
				return err
			}
			item.ProductName = prod.Name
		}

		if err := q.InsertPurchase(ctx, p); err != nil {
			return fmt.Errorf("failed to insert purchase: %w", err)
		}
		if p.DueAmount.IsPositive() {
			if err := q.UpdateSupplierDue(ctx, storeID, sup.ID, sup.DueAmount.Add(p.DueAmount)); err != nil {
				return fmt.Errorf("failed to update supplier due: %w", err)
			}
		}
		if p.DeductedFromBalance {
			_, err := s.cash.DeductTx(ctx, q, actor, storeID, CashMovement{
				Type:          CashPurchasePayment,
				Amount:        p.PaidAmount,
				ReferenceType: RefPurchase,
				ReferenceID:   &p.ID,
				Notes:         "Payment to " + sup.Name,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"store_id":    storeID,
		"purchase_id": p.ID,
		"total":       p.TotalAmount.StringFixed(2),
		"due":         p.DueAmount.StringFixed(2),
	}).Info("purchase recorded")
	return p, nil
}

func (s *purchaseService) GetPurchase(ctx context.Context, storeID, id uuid.UUID) (*Purchase, error) {
	return s.repo.GetPurchase(ctx, storeID, id)
}

func (s *purchaseService) ListPurchases(ctx context.Context, storeID uuid.UUID, f PurchaseFilter) ([]Purchase, error) {
	return s.repo.ListPurchases(ctx, storeID, f)
}

func (s *purchaseService) SettleSupplierDue(ctx context.Context, actor Actor, storeID, supplierID uuid.UUID, amount decimal.Decimal, deductFromBalance bool, notes string) (*SupplierPayment, error) {
	if !amount.IsPositive() || !WholeCents(amount) {
		return nil, fmt.Errorf("%w: supplier payment must be a positive number of cents, got %s", ErrInvalidAmount, amount)
	}

	var pay *SupplierPayment
	err := s.repo.InTx(ctx, func(q Queries) error {
		sup, err := q.GetSupplierForUpdate(ctx, storeID, supplierID)
		if err != nil {
			return err
		}
		if amount.GreaterThan(sup.DueAmount) {
			return invalidf("payment %s exceeds the amount due to %s (%s)", amount.StringFixed(2), sup.Name, sup.DueAmount.StringFixed(2))
		}
		if err := q.UpdateSupplierDue(ctx, storeID, sup.ID, sup.DueAmount.Sub(amount)); err != nil {
			return fmt.Errorf("failed to update supplier due: %w", err)
		}

		pay = &SupplierPayment{
			ID:                  uuid.New(),
			StoreID:             storeID,
			SupplierID:          sup.ID,
			Amount:              amount,
			DeductedFromBalance: deductFromBalance,
			Notes:               strings.TrimSpace(notes),
			CreatedBy:           actor.UserID,
			CreatedAt:           now(),
		}
		if err := q.InsertSupplierPayment(ctx, pay); err != nil {
			return fmt.Errorf("failed to insert supplier payment: %w", err)
		}

		if deductFromBalance {
			_, err := s.cash.DeductTx(ctx, q, actor, storeID, CashMovement{
				Type:          CashSupplierPayment,
				Amount:        amount,
				ReferenceType: "supplier_payment",
				ReferenceID:   &pay.ID,
				Notes:         "Due settlement to " + sup.Name,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pay, nil
}

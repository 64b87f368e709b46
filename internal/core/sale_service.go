package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// SaleService runs POS checkouts. A checkout posts one sale entry per line to the
// stock ledger, credits the received amount to the cash book, raises the customer's
// due and assigns a gapless invoice number, all in one transaction.
type SaleService interface {
	Checkout(ctx context.Context, actor Actor, storeID uuid.UUID, in CheckoutInput) (*Sale, error)
	// CollectDue records a later payment against a sale's due amount.
	CollectDue(ctx context.Context, actor Actor, storeID, saleID uuid.UUID, amount decimal.Decimal, notes string) (*Sale, error)
	GetSale(ctx context.Context, storeID, id uuid.UUID) (*Sale, error)
	ListSales(ctx context.Context, storeID uuid.UUID, f SaleFilter) ([]Sale, error)
	WarrantyLookup(ctx context.Context, storeID uuid.UUID, serial string) (*WarrantyInfo, error)
}

type saleService struct {
	repo   Repository
	ledger StockLedger
	cash   CashBook
	log    *logrus.Logger
}

func NewSaleService(repo Repository, ledger StockLedger, cash CashBook, log *logrus.Logger) SaleService {
	return &saleService{repo: repo, ledger: ledger, cash: cash, log: log}
}

func (s *saleService) Checkout(ctx context.Context, actor Actor, storeID uuid.UUID, in CheckoutInput) (*Sale, error) {
	if len(in.Items) == 0 {
		return nil, invalidf("checkout must contain at least one item")
	}
	if in.PaymentMethod == "" {
		in.PaymentMethod = PaymentCash
	}
	if !in.PaymentMethod.Valid() {
		return nil, invalidf("unknown payment method %q", in.PaymentMethod)
	}
	for _, l := range in.Items {
		if l.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		if l.UnitPrice != nil && l.UnitPrice.IsNegative() {
			return nil, invalidf("unit price cannot be negative")
		}
	}

	ts := now()
	sale := &Sale{
		ID:            uuid.New(),
		StoreID:       storeID,
		CustomerID:    in.CustomerID,
		PaymentMethod: in.PaymentMethod,
		Items:         make([]SaleItem, len(in.Items)),
		CreatedBy:     actor.UserID,
		CreatedAt:     ts,
	}

	err := s.repo.InTx(ctx, func(q Queries) error {
		store, err := q.GetStore(ctx, storeID)
		if err != nil {
			return err
		}

		var customer *Customer
		if in.CustomerID != nil {
			customer, err = q.GetCustomerForUpdate(ctx, storeID, *in.CustomerID)
			if err != nil {
				return err
			}
			sale.CustomerName = customer.Name
		}

		order := make([]int, len(in.Items))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool {
			return in.Items[order[a]].ProductID.String() < in.Items[order[b]].ProductID.String()
		})

		// Sales never backorder: a shortfall rejects the whole checkout.
		priced := make([]PricedLine, len(in.Items))
		for _, i := range order {
			l := in.Items[i]
			_, prod, err := s.ledger.ApplyTx(ctx, q, actor, storeID, Movement{
				ProductID:     l.ProductID,
				Type:          TxSale,
				Quantity:      l.Quantity,
				SerialNumber:  l.SerialNumber,
				ReferenceType: RefSale,
				ReferenceID:   &sale.ID,
				Notes:         "POS sale",
			}, StockOutReject)
			if err != nil {
				return err
			}
			price := prod.SalePrice
			if l.UnitPrice != nil {
				price = *l.UnitPrice
			}
			priced[i] = PricedLine{Quantity: l.Quantity, UnitPrice: price}
			sale.Items[i] = SaleItem{
				ProductID:         prod.ID,
				ProductName:       prod.Name,
				Quantity:          l.Quantity,
				UnitPrice:         price,
				LineTotal:         price.Mul(decimal.NewFromInt(int64(l.Quantity))).Round(2),
				SerialNumber:      strings.TrimSpace(l.SerialNumber),
				WarrantyExpiresAt: WarrantyExpiry(ts, prod.WarrantyMonths),
			}
		}

		firstDue := ts.AddDate(0, 1, 0)
		if in.FirstDueDate != nil {
			firstDue = *in.FirstDueDate
		}
		totals, err := CalculateCheckout(priced, CheckoutTerms{
			Discount:        in.Discount,
			DiscountPercent: in.DiscountPercent,
			Paid:            in.PaidAmount,
			Installments:    in.Installments,
			FirstDueDate:    firstDue,
		})
		if err != nil {
			return err
		}
		if totals.Due.IsPositive() && customer == nil {
			return ErrCustomerRequired
		}
		sale.Subtotal = totals.Subtotal
		sale.Discount = totals.Discount
		sale.Total = totals.Total
		sale.PaidAmount = totals.Paid
		sale.ChangeAmount = totals.Change
		sale.DueAmount = totals.Due
		sale.Installments = totals.Installments

		year := ts.Year()
		sale.InvoiceNumber, err = nextDocumentNumberTx(ctx, q, storeID, DocInvoice, store.InvoicePrefix, year)
		if err != nil {
			return err
		}
		if err := q.InsertSale(ctx, sale); err != nil {
			return fmt.Errorf("failed to insert sale: %w", err)
		}

		if customer != nil && sale.DueAmount.IsPositive() {
			if err := q.UpdateCustomerDue(ctx, storeID, customer.ID, customer.DueAmount.Add(sale.DueAmount)); err != nil {
				return fmt.Errorf("failed to update customer due: %w", err)
			}
		}

		if received := totals.CashReceived(); received.IsPositive() {
			_, err := s.cash.AddTx(ctx, q, actor, storeID, CashMovement{
				Type:          CashSalePayment,
				Amount:        received,
				ReferenceType: RefSale,
				ReferenceID:   &sale.ID,
				Notes:         "Invoice " + sale.InvoiceNumber,
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
		"store_id": storeID,
		"invoice":  sale.InvoiceNumber,
		"total":    sale.Total.StringFixed(2),
		"due":      sale.DueAmount.StringFixed(2),
	}).Info("sale completed")
	return sale, nil
}

func (s *saleService) CollectDue(ctx context.Context, actor Actor, storeID, saleID uuid.UUID, amount decimal.Decimal, notes string) (*Sale, error) {
	if !amount.IsPositive() || !WholeCents(amount) {
		return nil, fmt.Errorf("%w: collection must be a positive number of cents, got %s", ErrInvalidAmount, amount)
	}

	var sale *Sale
	err := s.repo.InTx(ctx, func(q Queries) error {
		var err error
		sale, err = q.GetSaleForUpdate(ctx, storeID, saleID)
		if err != nil {
			return err
		}
		if amount.GreaterThan(sale.DueAmount) {
			return invalidf("collection %s exceeds the amount due on %s (%s)", amount.StringFixed(2), sale.InvoiceNumber, sale.DueAmount.StringFixed(2))
		}

		sale.Installments, _ = ApplyToInstallments(sale.Installments, amount)
		sale.PaidAmount = sale.PaidAmount.Add(amount)
		sale.DueAmount = sale.DueAmount.Sub(amount)
		if err := q.UpdateSalePayment(ctx, sale); err != nil {
			return fmt.Errorf("failed to update sale payment: %w", err)
		}

		if sale.CustomerID != nil {
			customer, err := q.GetCustomerForUpdate(ctx, storeID, *sale.CustomerID)
			if err != nil {
				return err
			}
			due := decimal.Max(decimal.Zero, customer.DueAmount.Sub(amount))
			if err := q.UpdateCustomerDue(ctx, storeID, customer.ID, due); err != nil {
				return fmt.Errorf("failed to update customer due: %w", err)
			}
		}

		if notes = strings.TrimSpace(notes); notes == "" {
			notes = "Due collection " + sale.InvoiceNumber
		}
		_, err = s.cash.AddTx(ctx, q, actor, storeID, CashMovement{
			Type:          CashDueCollection,
			Amount:        amount,
			ReferenceType: RefSale,
			ReferenceID:   &sale.ID,
			Notes:         notes,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

func (s *saleService) GetSale(ctx context.Context, storeID, id uuid.UUID) (*Sale, error) {
	return s.repo.GetSale(ctx, storeID, id)
}

func (s *saleService) ListSales(ctx context.Context, storeID uuid.UUID, f SaleFilter) ([]Sale, error) {
	return s.repo.ListSales(ctx, storeID, f)
}

func (s *saleService) WarrantyLookup(ctx context.Context, storeID uuid.UUID, serial string) (*WarrantyInfo, error) {
	serial = strings.TrimSpace(serial)
	if serial == "" {
		return nil, invalidf("serial number is required")
	}
	sale, err := s.repo.FindSaleBySerial(ctx, storeID, serial)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("serial %s: %w", serial, ErrNotFound)
		}
		return nil, err
	}
	for _, it := range sale.Items {
		if !strings.EqualFold(it.SerialNumber, serial) {
			continue
		}
		info := &WarrantyInfo{
			SerialNumber:  it.SerialNumber,
			InvoiceNumber: sale.InvoiceNumber,
			SaleID:        sale.ID,
			ProductID:     it.ProductID,
			ProductName:   it.ProductName,
			SoldAt:        sale.CreatedAt,
			ExpiresAt:     it.WarrantyExpiresAt,
		}
		info.Active = it.WarrantyExpiresAt != nil && time.Now().Before(*it.WarrantyExpiresAt)
		return info, nil
	}
	return nil, fmt.Errorf("serial %s: %w", serial, ErrNotFound)
}

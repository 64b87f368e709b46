package core

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MaxInstallments caps the length of a repayment schedule.
const MaxInstallments = 24

var hundred = decimal.NewFromInt(100)

// PricedLine is a checkout line once its unit price is known.
type PricedLine struct {
	Quantity  int
	UnitPrice decimal.Decimal
}

// CheckoutTotals is the arithmetic outcome of a checkout.
type CheckoutTotals struct {
	Subtotal     decimal.Decimal
	Discount     decimal.Decimal
	Total        decimal.Decimal
	Paid         decimal.Decimal
	Change       decimal.Decimal
	Due          decimal.Decimal
	Installments []Installment
}

// WholeCents reports whether d has no fraction of a cent. Money that moves cash or
// dues must be whole cents so a stored entry equals the amount that was asked for.
func WholeCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}

// CashReceived is the part of the tendered amount that stays in the drawer.
func (t CheckoutTotals) CashReceived() decimal.Decimal {
	return t.Paid.Sub(t.Change)
}

// CheckoutTerms carries the price modifiers of a checkout.
// At most one of Discount and DiscountPercent may be set.
type CheckoutTerms struct {
	Discount        decimal.Decimal
	DiscountPercent decimal.Decimal
	Paid            decimal.Decimal
	Installments    int
	FirstDueDate    time.Time
}

// CalculateCheckout computes subtotal, discount, total, change and due for a sale.
//
// The discount is capped at the subtotal so the total never goes negative.
// When Installments > 1 and something remains due, the due amount is split into
// equal installments rounded down to the cent; the last one absorbs the remainder
// so the schedule always sums to the due amount exactly.
func CalculateCheckout(lines []PricedLine, terms CheckoutTerms) (CheckoutTotals, error) {
	if len(lines) == 0 {
		return CheckoutTotals{}, invalidf("checkout must contain at least one item")
	}
	if terms.Discount.IsNegative() || terms.DiscountPercent.IsNegative() {
		return CheckoutTotals{}, invalidf("discount cannot be negative")
	}
	if !terms.Discount.IsZero() && !terms.DiscountPercent.IsZero() {
		return CheckoutTotals{}, invalidf("give either a discount amount or a discount percent, not both")
	}
	if terms.DiscountPercent.GreaterThan(hundred) {
		return CheckoutTotals{}, invalidf("discount percent cannot exceed 100, got %s", terms.DiscountPercent)
	}
	if terms.Paid.IsNegative() {
		return CheckoutTotals{}, invalidf("paid amount cannot be negative")
	}
	if !WholeCents(terms.Paid) || !WholeCents(terms.Discount) {
		return CheckoutTotals{}, fmt.Errorf("%w: paid and discount amounts must be whole cents", ErrInvalidAmount)
	}
	if terms.Installments < 0 || terms.Installments > MaxInstallments {
		return CheckoutTotals{}, invalidf("installments must be between 0 and %d", MaxInstallments)
	}

	subtotal := decimal.Zero
	for _, l := range lines {
		if l.Quantity <= 0 {
			return CheckoutTotals{}, ErrInvalidQuantity
		}
		if l.UnitPrice.IsNegative() {
			return CheckoutTotals{}, invalidf("unit price cannot be negative")
		}
		subtotal = subtotal.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	subtotal = subtotal.Round(2)

	discount := terms.Discount
	if !terms.DiscountPercent.IsZero() {
		discount = subtotal.Mul(terms.DiscountPercent).Div(hundred).Round(2)
	}
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}

	total := subtotal.Sub(discount)
	t := CheckoutTotals{
		Subtotal: subtotal,
		Discount: discount,
		Total:    total,
		Paid:     terms.Paid,
		Change:   decimal.Max(decimal.Zero, terms.Paid.Sub(total)),
		Due:      decimal.Max(decimal.Zero, total.Sub(terms.Paid)),
	}

	if terms.Installments > 1 && t.Due.IsPositive() {
		t.Installments = SplitInstallments(t.Due, terms.Installments, terms.FirstDueDate)
	}
	return t, nil
}

// SplitInstallments divides due into n monthly installments starting at first.
func SplitInstallments(due decimal.Decimal, n int, first time.Time) []Installment {
	base := due.Div(decimal.NewFromInt(int64(n))).Truncate(2)
	out := make([]Installment, n)
	allocated := decimal.Zero
	for i := 0; i < n; i++ {
		amount := base
		if i == n-1 {
			amount = due.Sub(allocated)
		}
		allocated = allocated.Add(amount)
		out[i] = Installment{
			Seq:        i + 1,
			DueDate:    first.AddDate(0, i, 0),
			Amount:     amount,
			PaidAmount: decimal.Zero,
		}
	}
	return out
}

// ApplyToInstallments allocates a collected amount across the schedule in order
// and returns the updated copy together with any amount left unallocated.
func ApplyToInstallments(schedule []Installment, amount decimal.Decimal) ([]Installment, decimal.Decimal) {
	out := make([]Installment, len(schedule))
	copy(out, schedule)
	remaining := amount
	for i := range out {
		if !remaining.IsPositive() {
			break
		}
		open := out[i].Outstanding()
		if !open.IsPositive() {
			continue
		}
		pay := decimal.Min(open, remaining)
		out[i].PaidAmount = out[i].PaidAmount.Add(pay)
		remaining = remaining.Sub(pay)
	}
	return out, remaining
}

// WarrantyExpiry returns the expiry of a warranty of months starting at soldAt,
// or nil when the product carries none.
func WarrantyExpiry(soldAt time.Time, months int) *time.Time {
	if months <= 0 {
		return nil
	}
	exp := soldAt.AddDate(0, months, 0)
	return &exp
}

package core_test

import (
	"testing"
	"time"

	"digital-ondu/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(qty int, price string) core.PricedLine {
	return core.PricedLine{Quantity: qty, UnitPrice: dec(price)}
}

func TestCalculateCheckout(t *testing.T) {
	tests := []struct {
		name         string
		lines        []core.PricedLine
		terms        core.CheckoutTerms
		wantSubtotal string
		wantDiscount string
		wantTotal    string
		wantChange   string
		wantDue      string
	}{
		{
			name:         "exact payment",
			lines:        []core.PricedLine{line(2, "450"), line(1, "100")},
			terms:        core.CheckoutTerms{Paid: dec("1000")},
			wantSubtotal: "1000", wantDiscount: "0", wantTotal: "1000", wantChange: "0", wantDue: "0",
		},
		{
			name:         "change returned",
			lines:        []core.PricedLine{line(1, "650")},
			terms:        core.CheckoutTerms{Paid: dec("1000")},
			wantSubtotal: "650", wantDiscount: "0", wantTotal: "650", wantChange: "350", wantDue: "0",
		},
		{
			name:         "amount discount with due",
			lines:        []core.PricedLine{line(1, "12000")},
			terms:        core.CheckoutTerms{Discount: dec("500"), Paid: dec("5000")},
			wantSubtotal: "12000", wantDiscount: "500", wantTotal: "11500", wantChange: "0", wantDue: "6500",
		},
		{
			name:         "percent discount rounds to cents",
			lines:        []core.PricedLine{line(3, "33.33")},
			terms:        core.CheckoutTerms{DiscountPercent: dec("7.5"), Paid: dec("100")},
			wantSubtotal: "99.99", wantDiscount: "7.5", wantTotal: "92.49", wantChange: "7.51", wantDue: "0",
		},
		{
			name:         "discount capped at subtotal",
			lines:        []core.PricedLine{line(1, "80")},
			terms:        core.CheckoutTerms{Discount: dec("100")},
			wantSubtotal: "80", wantDiscount: "80", wantTotal: "0", wantChange: "0", wantDue: "0",
		},
		{
			name:         "nothing paid",
			lines:        []core.PricedLine{line(4, "25")},
			terms:        core.CheckoutTerms{},
			wantSubtotal: "100", wantDiscount: "0", wantTotal: "100", wantChange: "0", wantDue: "100",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := core.CalculateCheckout(tt.lines, tt.terms)
			require.NoError(t, err)
			assert.True(t, dec(tt.wantSubtotal).Equal(got.Subtotal), "subtotal %s", got.Subtotal)
			assert.True(t, dec(tt.wantDiscount).Equal(got.Discount), "discount %s", got.Discount)
			assert.True(t, dec(tt.wantTotal).Equal(got.Total), "total %s", got.Total)
			assert.True(t, dec(tt.wantChange).Equal(got.Change), "change %s", got.Change)
			assert.True(t, dec(tt.wantDue).Equal(got.Due), "due %s", got.Due)
			assert.True(t, got.Total.Add(got.Change).Equal(got.Paid.Add(got.Due)))
			assert.False(t, got.Total.IsNegative())
		})
	}
}

func TestCalculateCheckout_Rejects(t *testing.T) {
	one := []core.PricedLine{line(1, "10")}
	tests := []struct {
		name  string
		lines []core.PricedLine
		terms core.CheckoutTerms
		want  error
	}{
		{"no lines", nil, core.CheckoutTerms{}, core.ErrInvalidInput},
		{"zero quantity", []core.PricedLine{line(0, "10")}, core.CheckoutTerms{}, core.ErrInvalidQuantity},
		{"negative price", []core.PricedLine{line(1, "-1")}, core.CheckoutTerms{}, core.ErrInvalidInput},
		{"both discounts", one, core.CheckoutTerms{Discount: dec("1"), DiscountPercent: dec("5")}, core.ErrInvalidInput},
		{"negative discount", one, core.CheckoutTerms{Discount: dec("-1")}, core.ErrInvalidInput},
		{"percent over 100", one, core.CheckoutTerms{DiscountPercent: dec("101")}, core.ErrInvalidInput},
		{"negative paid", one, core.CheckoutTerms{Paid: dec("-5")}, core.ErrInvalidInput},
		{"fraction of a cent paid", one, core.CheckoutTerms{Paid: dec("10.005")}, core.ErrInvalidAmount},
		{"fraction of a cent discount", one, core.CheckoutTerms{Discount: dec("0.001")}, core.ErrInvalidAmount},
		{"too many installments", one, core.CheckoutTerms{Installments: core.MaxInstallments + 1}, core.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := core.CalculateCheckout(tt.lines, tt.terms)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestWholeCents(t *testing.T) {
	assert.True(t, core.WholeCents(dec("10")))
	assert.True(t, core.WholeCents(dec("10.5")))
	assert.True(t, core.WholeCents(dec("10.050")))
	assert.False(t, core.WholeCents(dec("10.005")))
	assert.False(t, core.WholeCents(dec("-0.001")))
}

func TestCalculateCheckout_Installments(t *testing.T) {
	first := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	got, err := core.CalculateCheckout([]core.PricedLine{line(1, "1000")}, core.CheckoutTerms{
		Paid:         dec("0"),
		Installments: 3,
		FirstDueDate: first,
	})
	require.NoError(t, err)
	require.Len(t, got.Installments, 3)

	sum := decimal.Zero
	for i, in := range got.Installments {
		assert.Equal(t, i+1, in.Seq)
		sum = sum.Add(in.Amount)
	}
	assert.True(t, dec("333.33").Equal(got.Installments[0].Amount))
	assert.True(t, dec("333.34").Equal(got.Installments[2].Amount), "last installment absorbs the remainder")
	assert.True(t, sum.Equal(got.Due))
	assert.Equal(t, first, got.Installments[0].DueDate)
	assert.Equal(t, first.AddDate(0, 2, 0), got.Installments[2].DueDate)

	// A single installment or a fully paid sale has no schedule.
	got, err = core.CalculateCheckout([]core.PricedLine{line(1, "1000")}, core.CheckoutTerms{Installments: 1})
	require.NoError(t, err)
	assert.Empty(t, got.Installments)
	got, err = core.CalculateCheckout([]core.PricedLine{line(1, "1000")}, core.CheckoutTerms{Paid: dec("1000"), Installments: 6})
	require.NoError(t, err)
	assert.Empty(t, got.Installments)
}

func TestSplitInstallments_SumsToDue(t *testing.T) {
	for _, due := range []string{"0.05", "10", "99.99", "1234.57", "100000.01"} {
		for n := 2; n <= core.MaxInstallments; n++ {
			parts := core.SplitInstallments(dec(due), n, time.Now())
			sum := decimal.Zero
			for _, p := range parts {
				assert.False(t, p.Amount.IsNegative())
				sum = sum.Add(p.Amount)
			}
			assert.True(t, sum.Equal(dec(due)), "due %s split %d ways sums to %s", due, n, sum)
		}
	}
}

func TestApplyToInstallments(t *testing.T) {
	schedule := core.SplitInstallments(dec("300"), 3, time.Now())

	updated, left := core.ApplyToInstallments(schedule, dec("150"))
	assert.True(t, left.IsZero())
	assert.True(t, updated[0].Outstanding().IsZero())
	assert.True(t, dec("50").Equal(updated[1].Outstanding()))
	assert.True(t, dec("100").Equal(updated[2].Outstanding()))
	assert.True(t, schedule[0].PaidAmount.IsZero(), "input schedule is not mutated")

	_, left = core.ApplyToInstallments(updated, dec("200"))
	assert.True(t, dec("50").Equal(left))
}

func TestCheckoutTotals_CashReceived(t *testing.T) {
	got, err := core.CalculateCheckout([]core.PricedLine{line(1, "650")}, core.CheckoutTerms{Paid: dec("1000")})
	require.NoError(t, err)
	assert.True(t, dec("650").Equal(got.CashReceived()))
}

func TestWeightedAverageCost(t *testing.T) {
	assert.True(t, dec("110").Equal(core.WeightedAverageCost(10, dec("100"), 10, dec("120"))))
	assert.True(t, dec("95").Equal(core.WeightedAverageCost(0, dec("0"), 4, dec("95"))))
	assert.True(t, dec("103.3333").Equal(core.WeightedAverageCost(20, dec("100"), 10, dec("110"))))
	assert.True(t, dec("50").Equal(core.WeightedAverageCost(-3, dec("80"), 2, dec("50"))), "negative stock counts as none")
}

func TestWarrantyExpiry(t *testing.T) {
	sold := time.Date(2026, 2, 10, 15, 0, 0, 0, time.UTC)
	assert.Nil(t, core.WarrantyExpiry(sold, 0))
	exp := core.WarrantyExpiry(sold, 12)
	require.NotNil(t, exp)
	assert.Equal(t, 2027, exp.Year())
}

func TestFormatDocumentNumber(t *testing.T) {
	assert.Equal(t, "OND-2026-00042", core.FormatDocumentNumber("OND", 2026, 42))
}

package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"digital-ondu/internal/adapters/cli"
	"digital-ondu/internal/app"
	"digital-ondu/internal/core"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func prompt(reader *bufio.Reader, w io.Writer, label string) string {
	s, _ := promptLine(reader, w, label)
	return s
}

// promptLine is prompt that also reports end of input.
func promptLine(reader *bufio.Reader, w io.Writer, label string) (string, error) {
	fmt.Fprint(w, label)
	s, err := reader.ReadString('\n')
	return strings.TrimSpace(s), err
}

// findBySKU resolves an exact SKU through the catalog search.
func findBySKU(ctx context.Context, svc app.ApplicationService, actor core.Actor, storeID uuid.UUID, sku string) (*core.Product, error) {
	res, err := svc.ListProducts(ctx, actor, storeID, core.ProductFilter{Search: sku})
	if err != nil {
		return nil, err
	}
	for i := range res.Products {
		if strings.EqualFold(res.Products[i].SKU, sku) {
			return &res.Products[i], nil
		}
	}
	return nil, fmt.Errorf("%w: sku %s", core.ErrProductNotFound, strings.ToUpper(sku))
}

func findCustomerByPhone(ctx context.Context, svc app.ApplicationService, actor core.Actor, storeID uuid.UUID, phone string) (*core.Customer, error) {
	list, err := svc.ListCustomers(ctx, actor, storeID)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].Phone == phone {
			return &list[i], nil
		}
	}
	return nil, fmt.Errorf("customer with phone %s %w", phone, core.ErrNotFound)
}

// handleSale runs an interactive checkout session.
func handleSale(ctx context.Context, reader *bufio.Reader, w io.Writer, svc app.ApplicationService, actor core.Actor, storeID uuid.UUID) {
	fmt.Fprintln(w, "Enter sale lines. Type 'done' when finished, 'cancel' to abort.")
	fmt.Fprintln(w, "Format per line: <sku> <quantity> [unit-price]")
	fmt.Fprintln(w, "  Example: ANK-20W 2")
	fmt.Fprintln(w, "  Example: WLT-H9 1 11000   (overrides the listed price)")

	var lines []app.CheckoutLineRequest
	var priced []core.PricedLine
	lineNum := 1
	for {
		raw, err := promptLine(reader, w, fmt.Sprintf("  Line %d: ", lineNum))
		if err != nil && raw == "" {
			fmt.Fprintln(w, "Sale cancelled.")
			return
		}
		switch strings.ToLower(raw) {
		case "cancel":
			fmt.Fprintln(w, "Sale cancelled.")
			return
		case "done":
		case "":
			continue
		default:
			parts := strings.Fields(raw)
			if len(parts) < 2 {
				fmt.Fprintln(w, "  Invalid format. Use: <sku> <quantity> [unit-price]")
				continue
			}
			qty, err := strconv.Atoi(parts[1])
			if err != nil || qty <= 0 {
				fmt.Fprintln(w, "  Invalid quantity.")
				continue
			}
			p, err := findBySKU(ctx, svc, actor, storeID, parts[0])
			if err != nil {
				fmt.Fprintf(w, "  %v\n", err)
				continue
			}
			line := app.CheckoutLineRequest{ProductID: p.ID, Quantity: qty}
			price := p.SalePrice
			if len(parts) >= 3 {
				price, err = decimal.NewFromString(parts[2])
				if err != nil || price.IsNegative() {
					fmt.Fprintln(w, "  Invalid price.")
					continue
				}
				line.UnitPrice = &price
			}
			lines = append(lines, line)
			priced = append(priced, core.PricedLine{Quantity: qty, UnitPrice: price})
			fmt.Fprintf(w, "  + %s x%d @ %s\n", p.Name, qty, price.StringFixed(2))
			lineNum++
			continue
		}
		break
	}

	if len(lines) == 0 {
		fmt.Fprintln(w, "No lines entered. Sale not created.")
		return
	}

	req := app.CheckoutRequest{Items: lines}
	if d := prompt(reader, w, "Discount (amount, or percent like 5%): "); d != "" {
		if strings.HasSuffix(d, "%") {
			pct, err := decimal.NewFromString(strings.TrimSuffix(d, "%"))
			if err != nil {
				fmt.Fprintln(w, "Invalid discount. Sale not created.")
				return
			}
			req.DiscountPercent = pct
		} else {
			amt, err := decimal.NewFromString(d)
			if err != nil {
				fmt.Fprintln(w, "Invalid discount. Sale not created.")
				return
			}
			req.Discount = amt
		}
	}

	paid := prompt(reader, w, "Paid amount (blank = pay in full): ")
	if paid == "" {
		totals, err := core.CalculateCheckout(priced, core.CheckoutTerms{
			Discount:        req.Discount,
			DiscountPercent: req.DiscountPercent,
		})
		if err != nil {
			fmt.Fprintf(w, "%v. Sale not created.\n", err)
			return
		}
		req.PaidAmount = totals.Total
	} else {
		amt, err := decimal.NewFromString(paid)
		if err != nil {
			fmt.Fprintln(w, "Invalid amount. Sale not created.")
			return
		}
		req.PaidAmount = amt
	}
	req.PaymentMethod = strings.ToLower(prompt(reader, w, "Payment method [cash|card|mobile]: "))

	if phone := prompt(reader, w, "Customer phone (optional): "); phone != "" {
		c, err := findCustomerByPhone(ctx, svc, actor, storeID, phone)
		if err != nil {
			fmt.Fprintf(w, "%v. Sale not created.\n", err)
			return
		}
		req.CustomerID = &c.ID
		if n := prompt(reader, w, "Installments for the due amount (0 = none): "); n != "" {
			count, err := strconv.Atoi(n)
			if err != nil {
				fmt.Fprintln(w, "Invalid installment count. Sale not created.")
				return
			}
			req.Installments = count
		}
	}

	sale, err := svc.Checkout(ctx, actor, storeID, req)
	if err != nil {
		fmt.Fprintf(w, "Error creating sale: %v\n", err)
		return
	}
	cli.PrintSale(w, sale)
}

package repl

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"digital-ondu/internal/app"
	"digital-ondu/internal/logging"
	"digital-ondu/internal/seed"
	"digital-ondu/internal/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func session(t *testing.T, script ...string) (string, app.ApplicationService, *seed.Result) {
	t.Helper()
	ctx := context.Background()
	svc := app.NewAppService(memory.New(), nil, logging.Discard())
	demo, err := seed.Demo(ctx, svc, "admin", "admin-password")
	require.NoError(t, err)

	var out bytes.Buffer
	reader := bufio.NewReader(strings.NewReader(strings.Join(script, "\n")))
	require.NoError(t, Run(ctx, svc, demo.Owner, demo.Store.ID, reader, &out))
	return out.String(), svc, demo
}

func TestRun_ExitAndEOF(t *testing.T) {
	out, _, _ := session(t, "/balance", "/exit", "/balance")
	assert.Contains(t, out, "Store: Ondu Electronics (BDT)")
	assert.Equal(t, 1, strings.Count(out, "Cash on hand"), "input after exit is not read")
	assert.Contains(t, out, "Goodbye!")

	// No trailing newline: the last command still runs before EOF ends the loop.
	out, _, _ = session(t, "balance")
	assert.Contains(t, out, "Cash on hand: 50000.00 BDT")
	assert.NotContains(t, out, "Goodbye!")
}

func TestRun_ErrorsDoNotEndSession(t *testing.T) {
	out, _, _ := session(t, "/refund", "/out TRN-32G 9", "/help", "/q")
	assert.Contains(t, out, `Error: usage error: unknown command "refund"`)
	assert.Contains(t, out, "Error: ")
	assert.Contains(t, out, "interactive checkout")
	assert.Contains(t, out, "Goodbye!")
}

func TestSaleWizard_PayInFull(t *testing.T) {
	out, svc, demo := session(t,
		"/sale",
		"ANK-20W 2",
		"NOPE-1 1",
		"BSU-C1M zero",
		"done",
		"",
		"",
		"",
		"",
		"/exit",
	)
	assert.Contains(t, out, "+ Anker 20W USB-C Charger x2 @ 1350.00")
	assert.Contains(t, out, "Invalid quantity.")
	assert.Contains(t, out, fmt.Sprintf("INVOICE OND-%d-00001", time.Now().UTC().Year()))
	assert.NotContains(t, out, "Due")

	bal, err := svc.CashBalance(context.Background(), demo.Owner, demo.Store.ID)
	require.NoError(t, err)
	assert.Equal(t, "52700", bal.Balance.String())
}

func TestSaleWizard_DueWithInstallments(t *testing.T) {
	out, svc, demo := session(t,
		"/sale",
		"WLT-H9 1",
		"done",
		"500",
		"5000",
		"cash",
		"+8801819000000",
		"3",
		"/exit",
	)
	assert.Contains(t, out, "Discount")
	assert.Contains(t, out, "6000.00")
	assert.Contains(t, out, "#3 ")

	sales, err := svc.ListSales(context.Background(), demo.Owner, demo.Store.ID, app.SaleQuery{})
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, "6000", sales[0].DueAmount.String())
	assert.Len(t, sales[0].Installments, 3)
}

func TestSaleWizard_Cancel(t *testing.T) {
	out, svc, demo := session(t, "/sale", "ANK-20W 1", "cancel", "/exit")
	assert.Contains(t, out, "Sale cancelled.")

	sales, err := svc.ListSales(context.Background(), demo.Owner, demo.Store.ID, app.SaleQuery{})
	require.NoError(t, err)
	assert.Empty(t, sales)

	out, _, _ = session(t, "/sale", "done", "/exit")
	assert.Contains(t, out, "No lines entered.")
}

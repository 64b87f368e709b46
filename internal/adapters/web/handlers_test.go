package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"digital-ondu/internal/app"
	"digital-ondu/internal/core"
	"digital-ondu/internal/export"
	"digital-ondu/internal/logging"
	"digital-ondu/internal/seed"
	"digital-ondu/internal/store/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	handler http.Handler
	demo    *seed.Result
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	svc := app.NewAppService(memory.New(), nil, logging.Discard())
	demo, err := seed.Demo(context.Background(), svc, "admin", "admin-password")
	require.NoError(t, err)
	return &testServer{
		handler: NewHandler(svc, "", "test-secret", logging.Discard()),
		demo:    demo,
	}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) login(t *testing.T, username, password string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": username, "password": password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func (s *testServer) storePath(format string, args ...any) string {
	return fmt.Sprintf("/api/stores/%s", s.demo.Store.ID) + fmt.Sprintf(format, args...)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRequireAuth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", decodeError(t, rec).Code)

	rec = s.do(t, http.MethodGet, "/api/auth/me", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": seed.DemoOwnerUsername, "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "VALIDATION_FAILED", resp.Code)
	assert.Equal(t, map[string]string{"username": "required", "password": "required"}, resp.Fields)

	rec = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": seed.DemoOwnerUsername, "password": seed.DemoOwnerPassword})
	require.Equal(t, http.StatusOK, rec.Code)
	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == authCookie {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)

	// The cookie alone authenticates.
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(cookie)
	me := httptest.NewRecorder()
	s.handler.ServeHTTP(me, req)
	require.Equal(t, http.StatusOK, me.Code)
	var session app.UserSession
	require.NoError(t, json.Unmarshal(me.Body.Bytes(), &session))
	assert.Equal(t, seed.DemoOwnerUsername, session.Username)
	assert.Equal(t, core.RoleOwner, session.Role)

	rec = s.do(t, http.MethodPost, "/api/auth/logout", "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestStockMovements(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, seed.DemoStaffUsername, seed.DemoStaffPassword)

	rec := s.do(t, http.MethodPost, s.storePath("/stock/in"), token, map[string]any{"sku": "BSU-C1M", "quantity": 5, "notes": "restock"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var entry core.LedgerEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entry))
	assert.Equal(t, core.TxStockIn, entry.TransactionType)
	assert.Equal(t, 65, entry.BalanceAfter)

	rec = s.do(t, http.MethodPost, s.storePath("/stock/out"), token, map[string]any{"sku": "TRN-32G", "quantity": 10})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "INSUFFICIENT_STOCK", decodeError(t, rec).Code)

	rec = s.do(t, http.MethodGet, s.storePath("/stock/ledger?type=stock_in"), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var ledger app.LedgerResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ledger))
	assert.Equal(t, len(s.demo.Products)+1, ledger.Count)
	for _, e := range ledger.Entries {
		assert.Equal(t, core.TxStockIn, e.TransactionType)
	}

	rec = s.do(t, http.MethodGet, s.storePath("/stock/ledger?limit=-1"), token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, map[string]string{"limit": "min"}, decodeError(t, rec).Fields)
}

func TestStoreIsolation(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, "admin", "admin-password")

	rec := s.do(t, http.MethodPost, "/api/stores", admin, map[string]any{
		"name":           "Second Branch",
		"owner_username": "branch-owner",
		"owner_password": "branch-password",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created app.StoreResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	cashier := s.login(t, seed.DemoStaffUsername, seed.DemoStaffPassword)
	rec = s.do(t, http.MethodGet, fmt.Sprintf("/api/stores/%s/products", created.Store.ID), cashier, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/stores", cashier, map[string]any{
		"name":           "Rogue",
		"owner_username": "rogue-owner",
		"owner_password": "rogue-password",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/stores", cashier, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stores []core.Store
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stores))
	require.Len(t, stores, 1)
	assert.Equal(t, s.demo.Store.ID, stores[0].ID)
}

func TestRequestErrors(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, seed.DemoStaffUsername, seed.DemoStaffPassword)

	rec := s.do(t, http.MethodPost, s.storePath("/sales/checkout"), token, map[string]any{"items": []any{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, map[string]string{"items": "min"}, decodeError(t, rec).Fields)

	rec = s.do(t, http.MethodGet, s.storePath("/products/%s", uuid.New()), token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, s.storePath("/products/not-a-uuid"), token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "BAD_REQUEST", decodeError(t, rec).Code)

	req := httptest.NewRequest(http.MethodPost, s.storePath("/stock/in"), strings.NewReader("{"))
	req.Header.Set("Authorization", "Bearer "+token)
	bad := httptest.NewRecorder()
	s.handler.ServeHTTP(bad, req)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestCheckout(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, seed.DemoStaffUsername, seed.DemoStaffPassword)
	var charger core.Product
	for _, p := range s.demo.Products {
		if p.SKU == "ANK-20W" {
			charger = p
		}
	}
	require.NotEqual(t, uuid.Nil, charger.ID)

	rec := s.do(t, http.MethodPost, s.storePath("/sales/checkout"), token, map[string]any{
		"items":       []map[string]any{{"product_id": charger.ID, "quantity": 2}},
		"paid_amount": "3000",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, s.storePath("/cash/balance"), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var bal app.CashBalanceResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bal))
	assert.Equal(t, "52700", bal.Balance.String())
}

func TestExportLedger(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, seed.DemoOwnerUsername, seed.DemoOwnerPassword)

	rec := s.do(t, http.MethodGet, s.storePath("/stock/ledger/export"), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.ContentType, rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Disposition"), `attachment; filename="stock-ledger-`))
	assert.NotZero(t, rec.Body.Len())
}

func TestReconcile(t *testing.T) {
	s := newTestServer(t)

	owner := s.login(t, seed.DemoOwnerUsername, seed.DemoOwnerPassword)
	rec := s.do(t, http.MethodGet, s.storePath("/reports/reconcile"), owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var report core.ReconciliationReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.True(t, report.OK())

	cashier := s.login(t, seed.DemoStaffUsername, seed.DemoStaffPassword)
	rec = s.do(t, http.MethodGet, s.storePath("/reports/reconcile"), cashier, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{core.ErrInvalidCredentials, http.StatusUnauthorized, "UNAUTHORIZED"},
		{core.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{fmt.Errorf("failed to get product: %w", core.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{&core.InsufficientStockError{Requested: 5, Available: 2}, http.StatusUnprocessableEntity, "INSUFFICIENT_STOCK"},
		{core.ErrInsufficientBalance, http.StatusUnprocessableEntity, "INSUFFICIENT_BALANCE"},
		{core.ErrProductInactive, http.StatusUnprocessableEntity, "PRODUCT_INACTIVE"},
		{core.ErrConcurrentModification, http.StatusConflict, "CONFLICT"},
		{core.ErrBusy, http.StatusConflict, "BUSY"},
		{core.ErrDuplicateSKU, http.StatusConflict, "DUPLICATE"},
		{core.ErrCustomerRequired, http.StatusBadRequest, "BAD_REQUEST"},
		{core.ErrInvalidQuantity, http.StatusBadRequest, "BAD_REQUEST"},
		{errors.New("disk on fire"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			status, code := errorStatus(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestCORS(t *testing.T) {
	h := CORS("https://pos.example.com")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/health", nil)
	req.Header.Set("Origin", "https://pos.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://pos.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

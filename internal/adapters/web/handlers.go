package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"digital-ondu/internal/app"
	"digital-ondu/internal/core"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Handler serves the ApplicationService over HTTP.
type Handler struct {
	svc       app.ApplicationService
	jwtSecret string
	log       *logrus.Logger
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, allowedOrigins, jwtSecret string, log *logrus.Logger) http.Handler {
	h := &Handler{
		svc:       svc,
		jwtSecret: jwtSecret,
		log:       log,
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(log))
	r.Use(Recoverer(log))
	r.Use(CORS(allowedOrigins))

	// ── Health (public) ───────────────────────────────────────────────────────
	r.Get("/api/health", h.health)

	// ── Auth (public API) ─────────────────────────────────────────────────────
	r.With(RequestBodyLimit(1<<16)).Post("/api/auth/login", h.login)
	r.Post("/api/auth/logout", h.logout)

	// ── Protected API routes (return 401 JSON if unauthenticated) ────────────
	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)
		r.Use(RequestBodyLimit(1 << 20)) // 1 MB

		r.Get("/api/auth/me", h.me)

		r.Get("/api/stores", h.listStores)
		r.Post("/api/stores", h.createStore)

		r.Route("/api/stores/{storeID}", func(r chi.Router) {
			r.Get("/", h.getStore)
			r.Put("/settings", h.updateSettings)
			r.Post("/users", h.createUser)

			// ── Catalog ───────────────────────────────────────────────────────────
			r.Get("/products", h.listProducts)
			r.Post("/products", h.createProduct)
			r.Get("/products/{productID}", h.getProduct)
			r.Put("/products/{productID}", h.updateProduct)
			r.Delete("/products/{productID}", h.deactivateProduct)
			r.Get("/products/{productID}/ledger", h.productLedger)

			// ── Stock ledger ──────────────────────────────────────────────────────
			r.Post("/stock/in", h.movement(h.svc.StockIn))
			r.Post("/stock/out", h.movement(h.svc.StockOut))
			r.Post("/stock/movements", h.movement(h.svc.RecordMovement)) // returns, damage, loss
			r.Get("/stock/adjustments", h.listAdjustments)
			r.Post("/stock/adjustments", h.createAdjustment)
			r.Get("/stock/adjustments/{adjustmentID}", h.getAdjustment)
			r.Get("/stock/ledger", h.ledgerEntries)
			r.Get("/stock/ledger/export", h.exportLedger)

			// ── Cash book ─────────────────────────────────────────────────────────
			r.Get("/cash/balance", h.cashBalance)
			r.Get("/cash/entries", h.cashEntries)
			r.Post("/cash/deposit", h.deposit)
			r.Post("/cash/withdraw", h.withdraw)

			// ── Suppliers & customers ─────────────────────────────────────────────
			r.Get("/suppliers", h.listSuppliers)
			r.Post("/suppliers", h.createSupplier)
			r.Get("/suppliers/{supplierID}", h.getSupplier)
			r.Get("/suppliers/{supplierID}/payments", h.listSupplierPayments)
			r.Post("/suppliers/{supplierID}/payments", h.paySupplier)
			r.Get("/customers", h.listCustomers)
			r.Post("/customers", h.createCustomer)
			r.Get("/customers/{customerID}", h.getCustomer)

			// ── Purchases & sales ─────────────────────────────────────────────────
			r.Get("/purchases", h.listPurchases)
			r.Post("/purchases", h.createPurchase)
			r.Get("/purchases/{purchaseID}", h.getPurchase)
			r.Post("/sales/checkout", h.checkout)
			r.Get("/sales", h.listSales)
			r.Get("/sales/{saleID}", h.getSale)
			r.Post("/sales/{saleID}/collect", h.collectDue)
			r.Get("/warranty/{serial}", h.warrantyLookup)

			// ── Reports ───────────────────────────────────────────────────────────
			r.Get("/reports/stock-summary", h.stockSummary)
			r.Get("/reports/reconcile", h.reconcile)
		})
	})

	return r
}

// health returns service status.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}

// uuidParam parses the named URL parameter and reports a 400 when it is malformed.
func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, r, "invalid "+name, "BAD_REQUEST", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

// scope returns the actor and the {storeID} of a store-scoped route.
func scope(w http.ResponseWriter, r *http.Request) (core.Actor, uuid.UUID, bool) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeError(w, r, "authentication required", "UNAUTHORIZED", http.StatusUnauthorized)
		return core.Actor{}, uuid.Nil, false
	}
	storeID, ok := uuidParam(w, r, "storeID")
	return actor, storeID, ok
}

// limitParam reads ?limit=. An absent value means no limit.
func limitParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		writeErrorResponse(w, http.StatusBadRequest, errorResponse{
			Error:     "validation failed",
			Code:      "VALIDATION_FAILED",
			RequestID: requestIDFromContext(r.Context()),
			Fields:    map[string]string{"limit": "min"},
		})
		return 0, false
	}
	return n, true
}

func boolParam(r *http.Request, name string) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return v
}

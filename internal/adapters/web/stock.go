package web

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"digital-ondu/internal/app"
	"digital-ondu/internal/core"
	"digital-ondu/internal/export"

	"github.com/google/uuid"
)

// ── Catalog ───────────────────────────────────────────────────────────────────

// listProducts handles GET .../products?search=&category=&low_stock=&include_inactive=
func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	actor, storeID, ok := scope(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	res, err := h.svc.ListProducts(r.Context(), actor, storeID, core.ProductFilter{
		Search:          q.Get("search"),
		Category:        q.Get("category"),
		LowStockOnly:    boolParam(r, "low_stock"),
		IncludeInactive: boolParam(r, "include_inactive"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, res)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	actor, storeID, ok := scope(w, r)
	if !ok {
		return
	}
	var req app.ProductRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.svc.CreateProduct(r.Context(), actor, storeID, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, p)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	actor, storeID, ok := scope(w, r)
	if !ok {
		return
	}
	productID, ok := uuidParam(w, r, "productID")
	if !ok {
		return
	}
	p, err := h.svc.GetProduct(r.Context(), actor, storeID, productID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, p)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	actor, storeID, ok := scope(w, r)
	if !ok {
		return
	}
	productID, ok := uuidParam(w, r, "productID")
	if !ok {
		return
	}
	var req app.ProductRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.svc.UpdateProduct(r.Context(), actor, storeID, productID, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, p)
}

func (h *Handler) deactivateProduct(w http.ResponseWriter, r *http.Request) {
	actor, storeID, ok := scope(w, r)
	if !ok {
		return
	}
	productID, ok := uuidParam(w, r, "productID")
	if !ok {
		return
	}
	if err := h.svc.DeactivateProduct(r.Context(), actor, storeID, productID); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) productLedger(w http.ResponseWriter, r *http.Request) {
	actor, storeID, ok := scope(w, r)
	if !ok {
		return
	}
	productID, ok := uuidParam(w, r, "productID")
	if !ok {
		return
	}
	res, err := h.svc.ProductLedger(r.Context(), actor, storeID, productID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, res)
}

// ── Stock ledger ──────────────────────────────────────────────────────────────

type movementFunc func(ctx context.Context, actor core.Actor, storeID uuid.UUID, req app.StockMovementRequest) (*core.LedgerEntry, error)

// movement adapts a single-product stock operation to an HTTP handler.
func (h *Handler) movement(fn movementFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, storeID, ok := scope(w, r)
		if !ok {
			return
		}
		var req app.StockMovementRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		entry, err := fn(r.Context(), actor, storeID, req)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSONStatus(w, http.StatusCreated, entry)
	}
}

func (h *Handler) createAdjustment(w http.ResponseWriter, r *http.Request) {
	actor, storeID, ok := scope(w, r)
	if !ok {
		return
	}
	var req app.AdjustmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	adj, err := h.svc.CreateAdjustment(r.Context(), actor, storeID, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, adj)
}

func (h *Handler) listAdjustments(w http.ResponseWriter, r *http.Request) {
	actor, storeID, ok := scope(w, r)
	if !ok {
		return
	}
	list, err := h.svc.ListAdjustments(r.Context(), actor, storeID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, list)
}

func (h *Handler) getAdjustment(w http.ResponseWriter, r *http.Request) {
	actor, storeID, ok := scope(w, r)
	if !ok {
		return
	}
	adjustmentID, ok := uuidParam(w, r, "adjustmentID")
	if !ok {
		return
	}
	adj, err := h.svc.GetAdjustment(r.Context(), actor, storeID, adjustmentID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, adj)
}

func ledgerQuery(w http.ResponseWriter, r *http.Request) (app.LedgerQuery, bool) {
	limit, ok := limitParam(w, r)
	if !ok {
		return app.LedgerQuery{}, false
	}
	q := r.URL.Query()
	return app.LedgerQuery{
		Search:    q.Get("search"),
		Type:      q.Get("type"),
		ProductID: q.Get("product_id"),
		From:      q.Get("from"),
		To:        q.Get("to"),
		Limit:     limit,
	}, true
}

// ledgerEntries handles GET .../stock/ledger?search=&type=&from=&to=&product_id=&limit=
func (h *Handler) ledgerEntries(w http.ResponseWriter, r *http.Request) {
	actor, storeID, ok := scope(w, r)
	if !ok {
		return
	}
	q, ok := ledgerQuery(w, r)
	if !ok {
		return
	}
	res, err := h.svc.LedgerEntries(r.Context(), actor, storeID, q)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, res)
}

// exportLedger streams the filtered ledger as an xlsx download. The workbook is
// built in memory first so that a failure can still be reported as JSON.
func (h *Handler) exportLedger(w http.ResponseWriter, r *http.Request) {
	actor, storeID, ok := scope(w, r)
	if !ok {
		return
	}
	q, ok := ledgerQuery(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := h.svc.ExportLedger(r.Context(), actor, storeID, q, &buf); err != nil {
		h.fail(w, r, err)
		return
	}
	filename := "stock-ledger-" + time.Now().UTC().Format("20060102") + ".xlsx"
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	_, _ = w.Write(buf.Bytes())
}

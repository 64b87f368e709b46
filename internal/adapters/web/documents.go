package web

import (
	"net/http"

	"digital-ondu/internal/app"

	"github.com/go-chi/chi/v5"
)

// ── Purchases ─────────────────────────────────────────────────────────────────

// listPurchases handles GET .../purchases?supplier_id=&from=&to=
func (h *Handler) listPurchases(w http.ResponseWriter, r *http.Request) {
	actor, storeID, ok := scope(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	list, err := h.svc.ListPurchases(r.Context(), actor, storeID, app.PurchaseQuery{
		SupplierID: q.Get("supplier_id"),
		From:       q.Get("from"),
		To:         q.Get("to"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, list)
}

func (h *Handler) createPurchase(w http.ResponseWriter, r *http.Request) {
	actor, storeID, ok := scope(w, r)
	if !ok {
		return
	}
	var req app.PurchaseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.svc.CreatePurchase(r.Context(), actor, storeID, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, p)
}

func (h *Handler) getPurchase(w http.ResponseWriter, r *http.Request) {
	actor, storeID, ok := scope(w, r)
	if !ok {
		return
	}
	purchaseID, ok := uuidParam(w, r, "purchaseID")
	if !ok {
		return
	}
	p, err := h.svc.GetPurchase(r.Context(), actor, storeID, purchaseID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, p)
}

// ── Sales ─────────────────────────────────────────────────────────────────────

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	actor, storeID, ok := scope(w, r)
	if !ok {
		return
	}
	var req app.CheckoutRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sale, err := h.svc.Checkout(r.Context(), actor, storeID, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, sale)
}

// listSales handles GET .../sales?customer_id=&from=&to=&limit=
func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	actor, storeID, ok := scope(w, r)
	if !ok {
		return
	}
	limit, ok := limitParam(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	list, err := h.svc.ListSales(r.Context(), actor, storeID, app.SaleQuery{
		CustomerID: q.Get("customer_id"),
		From:       q.Get("from"),
		To:         q.Get("to"),
		Limit:      limit,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, list)
}

func (h *Handler) getSale(w http.ResponseWriter, r *http.Request) {
	actor, storeID, ok := scope(w, r)
	if !ok {
		return
	}
	saleID, ok := uuidParam(w, r, "saleID")
	if !ok {
		return
	}
	sale, err := h.svc.GetSale(r.Context(), actor, storeID, saleID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, sale)
}

func (h *Handler) collectDue(w http.ResponseWriter, r *http.Request) {
	actor, storeID, ok := scope(w, r)
	if !ok {
		return
	}
	saleID, ok := uuidParam(w, r, "saleID")
	if !ok {
		return
	}
	var req app.CollectDueRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sale, err := h.svc.CollectDue(r.Context(), actor, storeID, saleID, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, sale)
}

func (h *Handler) warrantyLookup(w http.ResponseWriter, r *http.Request) {
	actor, storeID, ok := scope(w, r)
	if !ok {
		return
	}
	info, err := h.svc.WarrantyLookup(r.Context(), actor, storeID, chi.URLParam(r, "serial"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, info)
}

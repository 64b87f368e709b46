package web

import (
	"net/http"

	"digital-ondu/internal/app"
)

// ── Suppliers ─────────────────────────────────────────────────────────────────

func (h *Handler) listSuppliers(w http.ResponseWriter, r *http.Request) {
	actor, storeID, ok := scope(w, r)
	if !ok {
		return
	}
	list, err := h.svc.ListSuppliers(r.Context(), actor, storeID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, list)
}

func (h *Handler) createSupplier(w http.ResponseWriter, r *http.Request) {
	actor, storeID, ok := scope(w, r)
	if !ok {
		return
	}
	var req app.SupplierRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s, err := h.svc.CreateSupplier(r.Context(), actor, storeID, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, s)
}

func (h *Handler) getSupplier(w http.ResponseWriter, r *http.Request) {
	actor, storeID, ok := scope(w, r)
	if !ok {
		return
	}
	supplierID, ok := uuidParam(w, r, "supplierID")
	if !ok {
		return
	}
	s, err := h.svc.GetSupplier(r.Context(), actor, storeID, supplierID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, s)
}

func (h *Handler) listSupplierPayments(w http.ResponseWriter, r *http.Request) {
	actor, storeID, ok := scope(w, r)
	if !ok {
		return
	}
	supplierID, ok := uuidParam(w, r, "supplierID")
	if !ok {
		return
	}
	list, err := h.svc.ListSupplierPayments(r.Context(), actor, storeID, supplierID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, list)
}

func (h *Handler) paySupplier(w http.ResponseWriter, r *http.Request) {
	actor, storeID, ok := scope(w, r)
	if !ok {
		return
	}
	supplierID, ok := uuidParam(w, r, "supplierID")
	if !ok {
		return
	}
	var req app.SupplierPaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	payment, err := h.svc.PaySupplier(r.Context(), actor, storeID, supplierID, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, payment)
}

// ── Customers ─────────────────────────────────────────────────────────────────

func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	actor, storeID, ok := scope(w, r)
	if !ok {
		return
	}
	list, err := h.svc.ListCustomers(r.Context(), actor, storeID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, list)
}

func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	actor, storeID, ok := scope(w, r)
	if !ok {
		return
	}
	var req app.CustomerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := h.svc.CreateCustomer(r.Context(), actor, storeID, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, c)
}

func (h *Handler) getCustomer(w http.ResponseWriter, r *http.Request) {
	actor, storeID, ok := scope(w, r)
	if !ok {
		return
	}
	customerID, ok := uuidParam(w, r, "customerID")
	if !ok {
		return
	}
	c, err := h.svc.GetCustomer(r.Context(), actor, storeID, customerID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, c)
}

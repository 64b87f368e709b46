package web

import (
	"net/http"

	"digital-ondu/internal/app"
)

// ── Stores & users ────────────────────────────────────────────────────────────

func (h *Handler) listStores(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromContext(r.Context())
	stores, err := h.svc.ListStores(r.Context(), actor)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, stores)
}

func (h *Handler) createStore(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromContext(r.Context())
	var req app.CreateStoreRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.CreateStore(r.Context(), actor, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, res)
}

func (h *Handler) getStore(w http.ResponseWriter, r *http.Request) {
	actor, storeID, ok := scope(w, r)
	if !ok {
		return
	}
	store, err := h.svc.GetStore(r.Context(), actor, storeID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, store)
}

func (h *Handler) updateSettings(w http.ResponseWriter, r *http.Request) {
	actor, storeID, ok := scope(w, r)
	if !ok {
		return
	}
	var req app.UpdateSettingsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	store, err := h.svc.UpdateStoreSettings(r.Context(), actor, storeID, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, store)
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	actor, storeID, ok := scope(w, r)
	if !ok {
		return
	}
	var req app.CreateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := h.svc.CreateUser(r.Context(), actor, storeID, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, user)
}

// ── Reports ───────────────────────────────────────────────────────────────────

func (h *Handler) stockSummary(w http.ResponseWriter, r *http.Request) {
	actor, storeID, ok := scope(w, r)
	if !ok {
		return
	}
	summary, err := h.svc.StockSummary(r.Context(), actor, storeID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, summary)
}

// reconcile returns the reconciliation report. A mismatch is still a 200: the
// report itself says which products or balances disagree.
func (h *Handler) reconcile(w http.ResponseWriter, r *http.Request) {
	actor, storeID, ok := scope(w, r)
	if !ok {
		return
	}
	report, err := h.svc.Reconcile(r.Context(), actor, storeID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, report)
}

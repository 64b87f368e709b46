package web

import (
	"context"
	"net/http"

	"digital-ondu/internal/app"
	"digital-ondu/internal/core"

	"github.com/google/uuid"
)

// ── Cash book ─────────────────────────────────────────────────────────────────

func (h *Handler) cashBalance(w http.ResponseWriter, r *http.Request) {
	actor, storeID, ok := scope(w, r)
	if !ok {
		return
	}
	res, err := h.svc.CashBalance(r.Context(), actor, storeID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, res)
}

// cashEntries handles GET .../cash/entries?type=&from=&to=&limit=
func (h *Handler) cashEntries(w http.ResponseWriter, r *http.Request) {
	actor, storeID, ok := scope(w, r)
	if !ok {
		return
	}
	limit, ok := limitParam(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	res, err := h.svc.CashEntries(r.Context(), actor, storeID, app.CashQuery{
		Type:  q.Get("type"),
		From:  q.Get("from"),
		To:    q.Get("to"),
		Limit: limit,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, res)
}

type cashFunc func(ctx context.Context, actor core.Actor, storeID uuid.UUID, req app.CashRequest) (*core.CashEntry, error)

func (h *Handler) cashMovement(fn cashFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, storeID, ok := scope(w, r)
		if !ok {
			return
		}
		var req app.CashRequest
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

func (h *Handler) deposit(w http.ResponseWriter, r *http.Request) {
	h.cashMovement(h.svc.Deposit)(w, r)
}

func (h *Handler) withdraw(w http.ResponseWriter, r *http.Request) {
	h.cashMovement(h.svc.Withdraw)(w, r)
}

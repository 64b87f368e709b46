package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"digital-ondu/internal/app"
	"digital-ondu/internal/core"
	"digital-ondu/internal/logging"
)

type errorResponse struct {
	Error     string            `json:"error"`
	Code      string            `json:"code"`
	RequestID string            `json:"request_id,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	writeErrorResponse(w, status, errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	})
}

func writeErrorResponse(w http.ResponseWriter, status int, resp errorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorStatus maps a domain error to an HTTP status and machine-readable code.
// Order matters: the more specific sentinels are checked before ErrInvalidInput.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrInvalidCredentials):
		return http.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, core.ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, core.ErrInsufficientStock):
		return http.StatusUnprocessableEntity, "INSUFFICIENT_STOCK"
	case errors.Is(err, core.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity, "INSUFFICIENT_BALANCE"
	case errors.Is(err, core.ErrProductInactive):
		return http.StatusUnprocessableEntity, "PRODUCT_INACTIVE"
	case errors.Is(err, core.ErrConcurrentModification):
		return http.StatusConflict, "CONFLICT"
	case errors.Is(err, core.ErrBusy):
		return http.StatusConflict, "BUSY"
	case errors.Is(err, core.ErrDuplicateSKU), errors.Is(err, core.ErrDuplicateUsername):
		return http.StatusConflict, "DUPLICATE"
	case errors.Is(err, core.ErrInvalidQuantity),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrDuplicateItem),
		errors.Is(err, core.ErrCustomerRequired),
		errors.Is(err, core.ErrInvalidInput):
		return http.StatusBadRequest, "BAD_REQUEST"
	}
	return http.StatusInternalServerError, "INTERNAL_ERROR"
}

// fail writes the response for an error returned by the application service.
// Internal errors are logged and replaced with a generic message.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *app.ValidationError
	if errors.As(err, &verr) {
		writeErrorResponse(w, http.StatusBadRequest, errorResponse{
			Error:     "validation failed",
			Code:      "VALIDATION_FAILED",
			RequestID: requestIDFromContext(r.Context()),
			Fields:    verr.Fields,
		})
		return
	}

	status, code := errorStatus(err)
	if status == http.StatusInternalServerError {
		logging.LogError(h.log, "web", "fail", r.Method+" "+r.URL.Path,
			map[string]string{"request_id": requestIDFromContext(r.Context())}, err)
		writeError(w, r, "internal server error", code, status)
		return
	}
	writeError(w, r, err.Error(), code, status)
}

// Package handlers exposes the back office over JSON/HTTP.
package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/diewo77/multisarl/internal/gate"
	"github.com/diewo77/multisarl/internal/httpx"
	"github.com/diewo77/multisarl/internal/policy"
	"github.com/diewo77/multisarl/internal/services"
	"gorm.io/gorm"
)

// writeError maps service and storage errors to JSON error responses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", verr.Violations)
	case errors.Is(err, services.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		httpx.JSONError(w, http.StatusConflict, "conflict", nil)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		httpx.JSONError(w, http.StatusBadRequest, "invalid_reference", nil)
	case errors.Is(err, gate.ErrForbidden), errors.Is(err, gate.ErrUnauthorized):
		policy.WriteError(w, err)
	case errors.Is(err, services.ErrInvalidMonth):
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"month": "invalid_month"})
	case errors.Is(err, services.ErrNoPurchases):
		httpx.JSONError(w, http.StatusNotFound, "no_purchases", nil)
	case errors.Is(err, services.ErrPDFGeneration):
		log.Printf("[PDF] %s %s: %v", r.Method, r.URL.Path, err)
		httpx.JSONError(w, http.StatusInternalServerError, "pdf_generation_failed", err.Error())
	default:
		log.Printf("[API] %s %s: %v", r.Method, r.URL.Path, err)
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}

// decodeBody reads the JSON body, answering 400 invalid_json on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpx.Decode(r, dst); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, ok := httpx.PathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
	}
	return id, ok
}

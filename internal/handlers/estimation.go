package handlers

import (
	"net/http"

	"github.com/diewo77/multisarl/internal/httpx"
	"github.com/diewo77/multisarl/internal/models"
	"github.com/diewo77/multisarl/internal/services"
)

// EstimationHandler serves the HR estimation sheet: plain row CRUD plus a
// whole-sheet replace and clear.
type EstimationHandler struct {
	*Resource[models.EstimationRow, *models.EstimationRow]
	svc *services.EstimationService
}

func NewEstimationHandler(env Env, svc *services.EstimationService) *EstimationHandler {
	res := newResource[models.EstimationRow](env, models.ModuleHREstimation, nil)
	res.Unpaginated = true
	return &EstimationHandler{Resource: res, svc: svc}
}

// BulkUpdate replaces every row with {"rows": [...]}. Nothing changes when a row is invalid.
func (h *EstimationHandler) BulkUpdate(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Rows []models.EstimationRow `json:"rows"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	rows, err := h.svc.BulkReplace(r.Context(), in.Rows)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, rows)
}

func (h *EstimationHandler) ClearAll(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Clear(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	httpx.NoContent(w)
}

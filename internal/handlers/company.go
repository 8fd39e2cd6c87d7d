package handlers

import (
	"errors"
	"net/http"

	"github.com/diewo77/multisarl/internal/audit"
	"github.com/diewo77/multisarl/internal/httpx"
	"github.com/diewo77/multisarl/internal/models"
	"github.com/diewo77/multisarl/internal/services"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CompanyHandler edits the single letterhead row printed on documents.
type CompanyHandler struct {
	db    *gorm.DB
	audit *audit.Recorder
}

func NewCompanyHandler(db *gorm.DB, rec *audit.Recorder) *CompanyHandler {
	return &CompanyHandler{db: db, audit: rec}
}

func (h *CompanyHandler) load(r *http.Request) (models.CompanySettings, error) {
	var settings models.CompanySettings
	err := h.db.WithContext(r.Context()).Order("id").First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.DefaultCompany(), nil
	}
	return settings, err
}

// Edit returns the settings, or the defaults when none were saved yet.
func (h *CompanyHandler) Edit(w http.ResponseWriter, r *http.Request) {
	settings, err := h.load(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, settings)
}

// Update saves the settings, creating the row on first use.
func (h *CompanyHandler) Update(w http.ResponseWriter, r *http.Request) {
	settings, err := h.load(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id := settings.ID
	if !decodeBody(w, r, &settings) {
		return
	}
	settings.ID = id
	if err := services.Validate(&settings); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.db.WithContext(r.Context()).Omit(clause.Associations).Save(&settings).Error; err != nil {
		writeError(w, r, err)
		return
	}
	action := models.AuditUpdate
	if id == 0 {
		action = models.AuditCreate
	}
	h.audit.Record(r.Context(), &settings, action)
	httpx.JSON(w, http.StatusOK, settings)
}

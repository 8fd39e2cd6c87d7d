package handlers

import (
	"io"
	"log"
	"net/http"
	"path"
	"strconv"

	"github.com/diewo77/multisarl/internal/gate"
	"github.com/diewo77/multisarl/internal/httpx"
	"github.com/diewo77/multisarl/internal/models"
	"github.com/diewo77/multisarl/internal/services"
)

const maxUploadBytes = 32 << 20

// DocumentHandler stores project files in the blob store. Rows are listed,
// read and deleted like any resource; creation takes a multipart upload.
type DocumentHandler struct {
	*Resource[models.Document, *models.Document]
	docs *services.DocumentService
}

func NewDocumentHandler(env Env, docs *services.DocumentService) *DocumentHandler {
	res := newResource[models.Document](env, models.ModuleDocuments, map[string]string{
		"project": "project_id", "type_document": "type_document",
	})
	res.Order = "created_at DESC, id DESC"
	res.Delete = docs.Delete
	return &DocumentHandler{Resource: res, docs: docs}
}

// Create expects multipart/form-data with a "file" part, a "project" id and
// an optional "name" and "type_document".
func (h *DocumentHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_form", err.Error())
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"file": "required"})
		return
	}
	defer file.Close()

	projectID, _ := strconv.ParseUint(r.FormValue("project"), 10, 64)
	d := &models.Document{
		Name:         r.FormValue("name"),
		TypeDocument: r.FormValue("type_document"),
		ProjectID:    uint(projectID),
	}
	if d.Name == "" {
		d.Name = path.Base(header.Filename)
	}
	if d.TypeDocument == "" {
		d.TypeDocument = models.DocumentTypeFor(header.Filename)
	}
	if ctype := header.Header.Get("Content-Type"); ctype != "" && ctype != "application/octet-stream" {
		d.ContentType = ctype
	}
	if err := h.docs.Upload(r.Context(), d, file); err != nil {
		writeError(w, r, err)
		return
	}
	h.Audit.Record(r.Context(), d, models.AuditCreate)
	httpx.JSON(w, http.StatusCreated, d)
}

// Update only renames or retypes a document; the stored file is immutable.
func (h *DocumentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	action := gate.ActionUpdate
	if r.Method == http.MethodPatch {
		action = gate.ActionPartialUpdate
	}
	d, err := h.load(r, id, action)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in struct {
		Name         *string `json:"name"`
		TypeDocument *string `json:"type_document"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	if in.Name != nil {
		d.Name = *in.Name
	}
	if in.TypeDocument != nil {
		d.TypeDocument = *in.TypeDocument
	}
	if err := saveRecord(r.Context(), h.DB, d, false); err != nil {
		writeError(w, r, err)
		return
	}
	h.Audit.Record(r.Context(), d, models.AuditUpdate)
	httpx.JSON(w, http.StatusOK, d)
}

// Download streams the stored file.
func (h *DocumentHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if _, err := h.load(r, id, gate.ActionRetrieve); err != nil {
		writeError(w, r, err)
		return
	}
	d, rc, err := h.docs.Open(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer rc.Close()

	ctype := d.ContentType
	if ctype == "" {
		ctype = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ctype)
	w.Header().Set("Content-Disposition", `attachment; filename="`+path.Base(d.FileURL)+`"`)
	if d.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(d.Size, 10))
	}
	if _, err := io.Copy(w, rc); err != nil {
		log.Printf("[DOCUMENTS] download %d: %v", id, err)
	}
}

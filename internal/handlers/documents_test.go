package handlers

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/diewo77/multisarl/internal/auth"
	"github.com/diewo77/multisarl/internal/blob"
	"github.com/diewo77/multisarl/internal/models"
	"github.com/diewo77/multisarl/internal/services"
)

func uploadRequest(t *testing.T, uid uint, fields map[string]string, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		part.Write(content)
	}
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/api/documents", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req.WithContext(auth.WithUserID(req.Context(), uid))
}

func TestDocumentHandler_UploadDownload(t *testing.T) {
	f := setup(t)
	p := seedProject(t, f.db)
	store := blob.NewMemory()
	h := NewDocumentHandler(f.env, services.NewDocumentService(f.db, store))
	uid := f.admin.ID

	rec := httptest.NewRecorder()
	h.Create(rec, uploadRequest(t, uid, map[string]string{"project": fmt.Sprint(p.ID)}, "plan rdc.pdf", []byte("%PDF-1.4 plan")))
	expectStatus(t, rec, http.StatusCreated)
	var d models.Document
	decodeJSON(t, rec, &d)
	if d.Name != "plan rdc.pdf" || d.TypeDocument != models.DocumentPDF || d.Size != 13 {
		t.Fatalf("document = %+v", d)
	}
	if d.ContentType != "application/pdf" {
		t.Errorf("content type = %q, want application/pdf", d.ContentType)
	}
	if _, err := store.Head(t.Context(), d.FileURL); err != nil {
		t.Errorf("blob missing: %v", err)
	}

	rec = call(t, h.Download, http.MethodGet, "/api/documents/x/download", uid, d.ID, nil)
	expectStatus(t, rec, http.StatusOK)
	if rec.Body.String() != "%PDF-1.4 plan" {
		t.Errorf("download body = %q", rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "application/pdf" {
		t.Errorf("download Content-Type = %q", got)
	}

	rec = call(t, h.Update, http.MethodPatch, "/api/documents/x", uid, d.ID, map[string]string{"name": "Plan RDC", "file_url": "elsewhere"})
	expectStatus(t, rec, http.StatusOK)
	var renamed models.Document
	f.db.First(&renamed, d.ID)
	if renamed.Name != "Plan RDC" || renamed.FileURL != d.FileURL {
		t.Errorf("update = %+v", renamed)
	}

	rec = call(t, h.Destroy, http.MethodDelete, "/api/documents/x", uid, d.ID, nil)
	expectStatus(t, rec, http.StatusNoContent)
	if _, err := store.Head(t.Context(), d.FileURL); err == nil {
		t.Error("blob survived document deletion")
	}
}

func TestDocumentHandler_UploadValidation(t *testing.T) {
	f := setup(t)
	p := seedProject(t, f.db)
	h := NewDocumentHandler(f.env, services.NewDocumentService(f.db, blob.NewMemory()))

	tests := []struct {
		name     string
		fields   map[string]string
		filename string
		want     int
	}{
		{"missing file", map[string]string{"project": fmt.Sprint(p.ID)}, "", http.StatusBadRequest},
		{"unknown project", map[string]string{"project": "9999"}, "a.txt", http.StatusBadRequest},
		{"no project", nil, "a.txt", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Create(rec, uploadRequest(t, f.admin.ID, tt.fields, tt.filename, []byte("x")))
			expectStatus(t, rec, tt.want)
		})
	}
}

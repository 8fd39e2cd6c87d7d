package handlers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/diewo77/multisarl/internal/models"
	"github.com/diewo77/multisarl/internal/services"
)

func newQuoteHandler(f *fixture) *QuoteHandler {
	quotes := services.NewQuoteService(f.db)
	trackings := services.NewTrackingService(f.db)
	gen := services.NewGenerator(f.db, nil, trackings)
	return NewQuoteHandler(f.env, quotes, trackings, gen)
}

func TestQuoteHandler_TotalsFollowLines(t *testing.T) {
	f := setup(t)
	p := seedProject(t, f.db)
	h := newQuoteHandler(f)
	uid := f.admin.ID

	rec := call(t, h.Create, http.MethodPost, "/api/quotes", uid, nil, map[string]any{
		"numero_devis":   "D-001",
		"objet":          "Gros oeuvre",
		"date_livraison": "2024-05-01",
		"project":        p.ID,
		"lines": []map[string]any{
			{"designation": "Béton", "quantite": 2, "prix_unitaire": "100"},
		},
	})
	expectStatus(t, rec, http.StatusCreated)
	var q models.Quote
	decodeJSON(t, rec, &q)
	if !q.TotalHT.Equal(dec("200")) || !q.TotalTTC.Equal(dec("240")) {
		t.Fatalf("totals = %s/%s, want 200/240", q.TotalHT, q.TotalTTC)
	}
	if !q.TVA.Equal(models.DefaultTVA) {
		t.Errorf("tva = %s, want default", q.TVA)
	}

	rec = call(t, h.Update, http.MethodPatch, "/api/quotes/x", uid, q.ID, map[string]any{
		"lines": []map[string]any{{"designation": "Enduit", "quantite": 1, "prix_unitaire": "50"}},
	})
	expectStatus(t, rec, http.StatusOK)
	decodeJSON(t, rec, &q)
	if !q.TotalHT.Equal(dec("50")) || !q.TotalTTC.Equal(dec("60")) || len(q.Lines) != 1 {
		t.Fatalf("after line replace: %s/%s lines=%d", q.TotalHT, q.TotalTTC, len(q.Lines))
	}

	rec = call(t, h.Update, http.MethodPatch, "/api/quotes/x", uid, q.ID, map[string]any{"objet": "Finitions"})
	expectStatus(t, rec, http.StatusOK)
	decodeJSON(t, rec, &q)
	if q.Objet != "Finitions" || len(q.Lines) != 1 || !q.TotalHT.Equal(dec("50")) {
		t.Errorf("header-only patch touched lines: %+v", q)
	}

	rec = call(t, h.Create, http.MethodPost, "/api/quotes", uid, nil, map[string]any{
		"numero_devis": "D-001", "objet": "Bis", "date_livraison": "2024-05-02", "project": p.ID,
	})
	expectStatus(t, rec, http.StatusConflict)
}

func TestQuoteHandler_Documents(t *testing.T) {
	f := setup(t)
	p := seedProject(t, f.db)
	q := &models.Quote{NumeroDevis: "D-7", Objet: "Villa", DateLivraison: models.NewDate(2024, 6, 1), TVA: models.DefaultTVA, ProjectID: p.ID}
	mustCreate(t, f.db, q)
	mustCreate(t, f.db, &models.QuoteLine{QuoteID: q.ID, Designation: "Carrelage", Quantite: 3, PrixUnitaire: dec("40"), MontantHT: dec("120")})
	h := newQuoteHandler(f)
	uid := f.admin.ID

	rec := call(t, h.PDF, http.MethodGet, "/api/quotes/x/pdf", uid, q.ID, nil)
	expectStatus(t, rec, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.HasPrefix(rec.Body.String(), "%PDF") {
		t.Error("body is not a PDF")
	}

	rec = call(t, h.PDF, http.MethodGet, "/api/quotes/x/pdf", uid, 9999, nil)
	expectStatus(t, rec, http.StatusNotFound)

	rec = call(t, h.DeliveryPreview, http.MethodGet, "/api/quotes/x/delivery-preview", uid, q.ID, nil)
	expectStatus(t, rec, http.StatusOK)
	var preview struct {
		Lines []models.QuoteTrackingLine `json:"lines"`
	}
	decodeJSON(t, rec, &preview)
	if len(preview.Lines) != 1 || preview.Lines[0].Designation != "Carrelage" {
		t.Errorf("preview = %+v", preview.Lines)
	}

	rec = call(t, h.GenerateDeliveryNote, http.MethodPost, "/api/quotes/x/generate-delivery-note", uid, q.ID, map[string]string{"bl_number": "BL-9"})
	expectStatus(t, rec, http.StatusOK)
	tracking, err := services.NewTrackingService(f.db).Latest(t.Context(), q.ID)
	if err != nil || tracking == nil {
		t.Fatalf("tracking not created: %v", err)
	}
	if tracking.BLNumber != "BL-9" {
		t.Errorf("bl_number = %q, want BL-9", tracking.BLNumber)
	}

	rec = call(t, h.GenerateInvoice, http.MethodPost, "/api/quotes/x/generate-invoice", uid, q.ID, nil)
	expectStatus(t, rec, http.StatusOK)

	rec = call(t, h.ResetTracking, http.MethodPost, "/api/quotes/x/reset-tracking", uid, q.ID, nil)
	expectStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), "(1 supprimé(s))") {
		t.Errorf("reset message = %s", rec.Body.String())
	}
}

func TestQuoteGroups_RequireExistingQuote(t *testing.T) {
	f := setup(t)
	groups := QuoteGroups(f.env, services.NewQuoteService(f.db))

	rec := call(t, groups.Create, http.MethodPost, "/api/quote-groups", f.admin.ID, nil, map[string]any{
		"quote": 999, "name": "Orpheline",
	})
	expectStatus(t, rec, http.StatusBadRequest)
	if !strings.Contains(rec.Body.String(), "does_not_exist") {
		t.Errorf("body = %s", rec.Body.String())
	}
	var n int64
	f.db.Model(&models.QuoteGroup{}).Count(&n)
	if n != 0 {
		t.Errorf("groups = %d, want 0", n)
	}
}

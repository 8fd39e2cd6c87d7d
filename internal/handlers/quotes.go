package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/diewo77/multisarl/internal/gate"
	"github.com/diewo77/multisarl/internal/httpx"
	"github.com/diewo77/multisarl/internal/models"
	"github.com/diewo77/multisarl/internal/services"
)

// QuoteHandler serves quotes, whose totals are kept by QuoteService, and the
// document actions built on them.
type QuoteHandler struct {
	*Resource[models.Quote, *models.Quote]
	quotes    *services.QuoteService
	trackings *services.TrackingService
	gen       *services.Generator
}

func NewQuoteHandler(env Env, quotes *services.QuoteService, trackings *services.TrackingService, gen *services.Generator) *QuoteHandler {
	res := newResource[models.Quote](env, models.ModuleQuotes, map[string]string{
		"project": "project_id", "numero_devis": "numero_devis",
	})
	res.Order = "date_livraison DESC, id DESC"
	res.Get = quotes.Get
	res.New = func(*http.Request) *models.Quote {
		return &models.Quote{TVA: models.DefaultTVA}
	}
	res.Save = func(ctx context.Context, q *models.Quote, created bool) error {
		if created {
			return quotes.Create(ctx, q)
		}
		return quotes.Update(ctx, q, nil)
	}
	res.Delete = quotes.Delete
	return &QuoteHandler{Resource: res, quotes: quotes, trackings: trackings, gen: gen}
}

type quoteUpdate struct {
	*models.Quote
	Lines *[]models.QuoteLine `json:"lines"`
}

// Update saves the header; a "lines" array in the body replaces every line.
func (h *QuoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	action := gate.ActionUpdate
	if r.Method == http.MethodPatch {
		action = gate.ActionPartialUpdate
	}
	q, err := h.load(r, id, action)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q.Lines, q.Groups = nil, nil
	in := quoteUpdate{Quote: q}
	if !decodeBody(w, r, &in) {
		return
	}
	q.ID = id
	if err := h.quotes.Update(r.Context(), q, in.Lines); err != nil {
		writeError(w, r, err)
		return
	}
	h.Audit.Record(r.Context(), q, models.AuditUpdate)
	httpx.JSON(w, http.StatusOK, q)
}

// authorizeQuote resolves {id} and checks the quote exists and may be read.
func (h *QuoteHandler) authorizeQuote(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, ok := pathID(w, r)
	if !ok {
		return 0, false
	}
	if _, err := h.load(r, id, gate.ActionRetrieve); err != nil {
		writeError(w, r, err)
		return 0, false
	}
	return id, true
}

func (h *QuoteHandler) writePDF(w http.ResponseWriter, r *http.Request, out *services.Rendered, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.Binary(w, "application/pdf", out.Filename, out.Data)
}

// PDF renders the devis.
func (h *QuoteHandler) PDF(w http.ResponseWriter, r *http.Request) {
	id, ok := h.authorizeQuote(w, r)
	if !ok {
		return
	}
	out, err := h.gen.QuotePDF(r.Context(), id)
	h.writePDF(w, r, out, err)
}

// DeliveryPreview lists the lines the next delivery note would print.
func (h *QuoteHandler) DeliveryPreview(w http.ResponseWriter, r *http.Request) {
	id, ok := h.authorizeQuote(w, r)
	if !ok {
		return
	}
	lines, err := h.trackings.DeliveryPreview(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"quote": id, "lines": lines})
}

type documentNumbers struct {
	BLNumber      string `json:"bl_number"`
	BCNumber      string `json:"bc_number"`
	InvoiceNumber string `json:"invoice_number"`
}

// decodeNumbers reads an optional body; an empty body means no overrides.
func decodeNumbers(w http.ResponseWriter, r *http.Request) (documentNumbers, bool) {
	var in documentNumbers
	if r.ContentLength == 0 {
		return in, true
	}
	if err := httpx.Decode(r, &in); err != nil && err != httpx.ErrEmptyBody {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return in, false
	}
	return in, true
}

func (h *QuoteHandler) GenerateDeliveryNote(w http.ResponseWriter, r *http.Request) {
	id, ok := h.authorizeQuote(w, r)
	if !ok {
		return
	}
	in, ok := decodeNumbers(w, r)
	if !ok {
		return
	}
	out, err := h.gen.DeliveryNote(r.Context(), id, in.BLNumber)
	h.writePDF(w, r, out, err)
}

func (h *QuoteHandler) GenerateInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := h.authorizeQuote(w, r)
	if !ok {
		return
	}
	in, ok := decodeNumbers(w, r)
	if !ok {
		return
	}
	out, err := h.gen.Invoice(r.Context(), id, in.InvoiceNumber, in.BCNumber)
	h.writePDF(w, r, out, err)
}

// ResetTracking drops every tracking so documents restart from the quote's lines.
func (h *QuoteHandler) ResetTracking(w http.ResponseWriter, r *http.Request) {
	id, ok := h.authorizeQuote(w, r)
	if !ok {
		return
	}
	deleted, err := h.trackings.Reset(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{
		"message": "Suivi réinitialisé (" + strconv.FormatInt(deleted, 10) + " supprimé(s))",
	})
}

func QuoteLines(env Env, quotes *services.QuoteService) CRUD {
	res := newResource[models.QuoteLine](env, models.ModuleQuoteLines, map[string]string{
		"quote": "quote_id", "group": "group_id",
	})
	res.Save = func(ctx context.Context, l *models.QuoteLine, _ bool) error {
		return quotes.SaveLine(ctx, l)
	}
	res.Delete = quotes.DeleteLine
	return res
}

func QuoteGroups(env Env, quotes *services.QuoteService) CRUD {
	res := newResource[models.QuoteGroup](env, models.ModuleQuoteGroups, map[string]string{"quote": "quote_id"})
	res.Order = "sort_order, id"
	res.Save = func(ctx context.Context, g *models.QuoteGroup, _ bool) error {
		return quotes.SaveGroup(ctx, g)
	}
	res.Delete = quotes.DeleteGroup
	return res
}

func Trackings(env Env, trackings *services.TrackingService) CRUD {
	res := newResource[models.QuoteTracking](env, models.ModuleQuoteTrackings, map[string]string{"quote": "quote_id"})
	res.Order = "created_at DESC, id DESC"
	res.Get = trackings.Get
	res.Save = func(ctx context.Context, t *models.QuoteTracking, created bool) error {
		if created {
			return trackings.Create(ctx, t)
		}
		return saveRecord(ctx, env.DB, t, false)
	}
	res.Delete = trackings.Delete
	return res
}

func TrackingLines(env Env, trackings *services.TrackingService) CRUD {
	res := newResource[models.QuoteTrackingLine](env, models.ModuleQuoteTrackingLines, map[string]string{
		"tracking": "tracking_id",
	})
	res.Save = func(ctx context.Context, l *models.QuoteTrackingLine, _ bool) error {
		return trackings.SaveLine(ctx, l)
	}
	return res
}

package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/diewo77/multisarl/internal/config"
	"github.com/diewo77/multisarl/internal/db"
	"github.com/diewo77/multisarl/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := db.Open(config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()),
	}, false)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := db.Migrate(conn); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return conn
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func mustCreate(t *testing.T, conn *gorm.DB, v any) {
	t.Helper()
	if err := conn.Create(v).Error; err != nil {
		t.Fatalf("create %T: %v", v, err)
	}
}

func seedProject(t *testing.T, conn *gorm.DB) *models.Project {
	t.Helper()
	c := &models.Client{NomClient: "ACME"}
	mustCreate(t, conn, c)
	p := &models.Project{
		NomProjet:   "Villa",
		ClientID:    c.ID,
		DateDebut:   models.NewDate(2024, 3, 1),
		BudgetTotal: dec("1000"),
	}
	mustCreate(t, conn, p)
	return p
}

func newQuote(projectID uint, numero string, lines ...models.QuoteLine) *models.Quote {
	return &models.Quote{
		NumeroDevis:   numero,
		Objet:         "Travaux",
		DateLivraison: models.NewDate(2024, 3, 10),
		TVA:           models.DefaultTVA,
		ProjectID:     projectID,
		Lines:         lines,
	}
}

func line(designation string, qty int, price string) models.QuoteLine {
	return models.QuoteLine{Designation: designation, Quantite: qty, PrixUnitaire: dec(price)}
}

func assertTotals(t *testing.T, q *models.Quote, ht, ttc string) {
	t.Helper()
	if !q.TotalHT.Equal(dec(ht)) || !q.TotalTTC.Equal(dec(ttc)) {
		t.Errorf("totals = %s/%s, want %s/%s", q.TotalHT, q.TotalTTC, ht, ttc)
	}
}

func TestQuoteService_CreateComputesTotals(t *testing.T) {
	conn := openTestDB(t)
	p := seedProject(t, conn)
	svc := NewQuoteService(conn)
	ctx := context.Background()

	q := newQuote(p.ID, "D-001", line("Ciment", 2, "100"), line("Sable", 1, "50"))
	if err := svc.Create(ctx, q); err != nil {
		t.Fatalf("Create: %v", err)
	}
	assertTotals(t, q, "250", "300")
	if len(q.Lines) != 2 || !q.Lines[0].MontantHT.Equal(dec("200")) {
		t.Errorf("lines = %+v", q.Lines)
	}
}

func TestQuoteService_LineWritesRecalculate(t *testing.T) {
	conn := openTestDB(t)
	p := seedProject(t, conn)
	svc := NewQuoteService(conn)
	ctx := context.Background()

	q := newQuote(p.ID, "D-002", line("Ciment", 2, "100"))
	if err := svc.Create(ctx, q); err != nil {
		t.Fatal(err)
	}

	extra := line("Sable", 1, "50")
	extra.QuoteID = q.ID
	if err := svc.SaveLine(ctx, &extra); err != nil {
		t.Fatalf("SaveLine: %v", err)
	}
	got, _ := svc.Get(ctx, q.ID)
	assertTotals(t, got, "250", "300")

	// re-saving an unchanged line keeps everything stable
	if err := svc.SaveLine(ctx, &extra); err != nil {
		t.Fatal(err)
	}
	got, _ = svc.Get(ctx, q.ID)
	assertTotals(t, got, "250", "300")
	if !extra.MontantHT.Equal(dec("50")) {
		t.Errorf("montant_ht = %s", extra.MontantHT)
	}

	extra.Quantite = 3
	if err := svc.SaveLine(ctx, &extra); err != nil {
		t.Fatal(err)
	}
	got, _ = svc.Get(ctx, q.ID)
	assertTotals(t, got, "350", "420")

	if _, err := svc.DeleteLine(ctx, extra.ID); err != nil {
		t.Fatalf("DeleteLine: %v", err)
	}
	got, _ = svc.Get(ctx, q.ID)
	assertTotals(t, got, "200", "240")

	if _, err := svc.DeleteLine(ctx, extra.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteLine err = %v", err)
	}
}

func TestQuoteService_LineMovedBetweenQuotes(t *testing.T) {
	conn := openTestDB(t)
	p := seedProject(t, conn)
	svc := NewQuoteService(conn)
	ctx := context.Background()

	a := newQuote(p.ID, "D-A", line("Ciment", 2, "100"))
	b := newQuote(p.ID, "D-B")
	if err := svc.Create(ctx, a); err != nil {
		t.Fatal(err)
	}
	if err := svc.Create(ctx, b); err != nil {
		t.Fatal(err)
	}
	moved := a.Lines[0]
	moved.QuoteID = b.ID
	if err := svc.SaveLine(ctx, &moved); err != nil {
		t.Fatal(err)
	}
	gotA, _ := svc.Get(ctx, a.ID)
	gotB, _ := svc.Get(ctx, b.ID)
	assertTotals(t, gotA, "0", "0")
	assertTotals(t, gotB, "200", "240")
}

func TestQuoteService_UpdateReplacesLinesOnlyWhenGiven(t *testing.T) {
	conn := openTestDB(t)
	p := seedProject(t, conn)
	svc := NewQuoteService(conn)
	ctx := context.Background()

	q := newQuote(p.ID, "D-003", line("Ciment", 2, "100"))
	if err := svc.Create(ctx, q); err != nil {
		t.Fatal(err)
	}

	q.Objet = "Nouveau"
	q.Lines = nil
	if err := svc.Update(ctx, q, nil); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if q.Objet != "Nouveau" || len(q.Lines) != 1 {
		t.Errorf("header update changed lines: %+v", q)
	}
	assertTotals(t, q, "200", "240")

	q.TVA = dec("10")
	replacement := []models.QuoteLine{line("Fer", 4, "25")}
	if err := svc.Update(ctx, q, &replacement); err != nil {
		t.Fatal(err)
	}
	if len(q.Lines) != 1 || q.Lines[0].Designation != "Fer" {
		t.Errorf("lines = %+v", q.Lines)
	}
	assertTotals(t, q, "100", "110")
}

func TestQuoteService_Validation(t *testing.T) {
	conn := openTestDB(t)
	svc := NewQuoteService(conn)

	err := svc.Create(context.Background(), &models.Quote{TVA: dec("-1")})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	for _, field := range []string{"numero_devis", "objet", "project", "tva", "date_livraison"} {
		if _, ok := verr.Violations[field]; !ok {
			t.Errorf("missing violation for %s in %v", field, verr.Violations)
		}
	}

	orphan := line("X", 1, "1")
	orphan.QuoteID = 999
	if err := svc.SaveLine(context.Background(), &orphan); !errors.As(err, &verr) || verr.Violations["quote"] != "does_not_exist" {
		t.Errorf("orphan line err = %v", err)
	}
}

func TestQuoteService_DeleteGroupKeepsLines(t *testing.T) {
	conn := openTestDB(t)
	p := seedProject(t, conn)
	svc := NewQuoteService(conn)
	ctx := context.Background()

	q := newQuote(p.ID, "D-004")
	if err := svc.Create(ctx, q); err != nil {
		t.Fatal(err)
	}
	g := &models.QuoteGroup{QuoteID: q.ID, Name: "Gros oeuvre"}
	mustCreate(t, conn, g)
	l := line("Ciment", 1, "10")
	l.QuoteID = q.ID
	l.GroupID = &g.ID
	if err := svc.SaveLine(ctx, &l); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.DeleteGroup(ctx, g.ID); err != nil {
		t.Fatalf("DeleteGroup: %v", err)
	}
	got, _ := svc.Get(ctx, q.ID)
	if len(got.Lines) != 1 || got.Lines[0].GroupID != nil {
		t.Errorf("lines after group delete = %+v", got.Lines)
	}
	assertTotals(t, got, "10", "12")
}

func TestRecalculateQuote_MissingQuoteIsNoop(t *testing.T) {
	conn := openTestDB(t)
	if err := RecalculateQuote(conn, 42); err != nil {
		t.Errorf("RecalculateQuote(missing) = %v", err)
	}
}

func TestQuoteService_GroupsBelongToTheirQuote(t *testing.T) {
	conn := openTestDB(t)
	p := seedProject(t, conn)
	svc := NewQuoteService(conn)
	ctx := context.Background()

	first := newQuote(p.ID, "D-005")
	second := newQuote(p.ID, "D-006")
	for _, q := range []*models.Quote{first, second} {
		if err := svc.Create(ctx, q); err != nil {
			t.Fatal(err)
		}
	}
	foreign := &models.QuoteGroup{QuoteID: second.ID, Name: "Finitions"}
	if err := svc.SaveGroup(ctx, foreign); err != nil {
		t.Fatalf("SaveGroup: %v", err)
	}
	missing := uint(999)

	tests := []struct {
		name    string
		groupID *uint
		want    string
	}{
		{"group of another quote", &foreign.ID, "quote_mismatch"},
		{"unknown group", &missing, "does_not_exist"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := line("Peinture", 1, "10")
			l.QuoteID = first.ID
			l.GroupID = tt.groupID
			err := svc.SaveLine(ctx, &l)
			var verr *ValidationError
			if !errors.As(err, &verr) || verr.Violations["group"] != tt.want {
				t.Errorf("err = %v, want group %s", err, tt.want)
			}
		})
	}

	err := svc.SaveGroup(ctx, &models.QuoteGroup{QuoteID: 999, Name: "Orpheline"})
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Violations["quote"] != "does_not_exist" {
		t.Errorf("orphan group err = %v", err)
	}
	var lines int64
	conn.Model(&models.QuoteLine{}).Count(&lines)
	if lines != 0 {
		t.Errorf("lines = %d, want 0", lines)
	}
}

package services

import (
	"context"
	"errors"
	"testing"

	"github.com/diewo77/multisarl/internal/models"
)

func TestTrackingService_CopiesQuoteLines(t *testing.T) {
	conn := openTestDB(t)
	p := seedProject(t, conn)
	quotes := NewQuoteService(conn)
	svc := NewTrackingService(conn)
	ctx := context.Background()

	q := newQuote(p.ID, "D-010", line("Ciment", 2, "100"), line("Sable", 1, "50"))
	if err := quotes.Create(ctx, q); err != nil {
		t.Fatal(err)
	}

	preview, err := svc.DeliveryPreview(ctx, q.ID)
	if err != nil || len(preview) != 2 {
		t.Fatalf("preview before tracking = %v, %v", preview, err)
	}

	tr := &models.QuoteTracking{QuoteID: q.ID}
	if err := svc.Create(ctx, tr); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(tr.Lines) != 2 || !tr.Total().Equal(dec("250")) {
		t.Fatalf("tracking lines = %+v", tr.Lines)
	}

	edited := tr.Lines[0]
	edited.Quantite = 1
	if err := svc.SaveLine(ctx, &edited); err != nil {
		t.Fatal(err)
	}
	if !edited.MontantHT.Equal(dec("100")) {
		t.Errorf("tracking line montant_ht = %s", edited.MontantHT)
	}
	got, _ := quotes.Get(ctx, q.ID)
	assertTotals(t, got, "250", "300")

	preview, err = svc.DeliveryPreview(ctx, q.ID)
	if err != nil || len(preview) != 2 || !preview[0].MontantHT.Equal(dec("100")) {
		t.Errorf("preview after edit = %+v, %v", preview, err)
	}
}

func TestTrackingService_EnsureAndReset(t *testing.T) {
	conn := openTestDB(t)
	p := seedProject(t, conn)
	quotes := NewQuoteService(conn)
	svc := NewTrackingService(conn)
	ctx := context.Background()

	q := newQuote(p.ID, "D-011", line("Ciment", 2, "100"))
	if err := quotes.Create(ctx, q); err != nil {
		t.Fatal(err)
	}

	first, err := svc.Ensure(ctx, q.ID)
	if err != nil || first == nil {
		t.Fatalf("Ensure = %v, %v", first, err)
	}
	again, err := svc.Ensure(ctx, q.ID)
	if err != nil || again.ID != first.ID {
		t.Errorf("second Ensure created a new tracking: %v, %v", again, err)
	}

	if err := svc.SetNumbers(ctx, again, "BL-1", "", ""); err != nil {
		t.Fatal(err)
	}
	latest, _ := svc.Latest(ctx, q.ID)
	if latest.BLNumber != "BL-1" {
		t.Errorf("bl_number = %q", latest.BLNumber)
	}

	n, err := svc.Reset(ctx, q.ID)
	if err != nil || n != 1 {
		t.Fatalf("Reset = %d, %v", n, err)
	}
	var lines int64
	conn.Model(&models.QuoteTrackingLine{}).Count(&lines)
	if lines != 0 {
		t.Errorf("%d tracking lines left after reset", lines)
	}
	if latest, _ := svc.Latest(ctx, q.ID); latest != nil {
		t.Errorf("tracking survived reset: %+v", latest)
	}

	if _, err := svc.Reset(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("Reset(missing) err = %v", err)
	}
	if _, err := svc.DeliveryPreview(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeliveryPreview(missing) err = %v", err)
	}
}

func TestQuoteService_DeleteRemovesTrackings(t *testing.T) {
	conn := openTestDB(t)
	p := seedProject(t, conn)
	quotes := NewQuoteService(conn)
	trackings := NewTrackingService(conn)
	ctx := context.Background()

	q := newQuote(p.ID, "D-012", line("Ciment", 1, "10"))
	if err := quotes.Create(ctx, q); err != nil {
		t.Fatal(err)
	}
	if _, err := trackings.Ensure(ctx, q.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := quotes.Delete(ctx, q.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	for _, model := range []any{&models.QuoteLine{}, &models.QuoteTracking{}, &models.QuoteTrackingLine{}} {
		var n int64
		conn.Model(model).Count(&n)
		if n != 0 {
			t.Errorf("%T rows left: %d", model, n)
		}
	}
}

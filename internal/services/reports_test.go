package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/diewo77/multisarl/internal/models"
)

func TestSupplierService_MonthlyReport(t *testing.T) {
	conn := openTestDB(t)
	zeta := &models.Supplier{Name: "Zeta", TypeSupplier: models.SupplierLarge}
	alpha := &models.Supplier{Name: "Alpha"}
	mustCreate(t, conn, zeta)
	mustCreate(t, conn, alpha)
	for _, inv := range []*models.SupplierInvoice{
		{SupplierID: zeta.ID, Date: models.NewDate(2024, 3, 1), Amount: dec("100")},
		{SupplierID: zeta.ID, Date: models.NewDate(2024, 3, 31), Amount: dec("50.25")},
		{SupplierID: alpha.ID, Date: models.NewDate(2024, 3, 15), Amount: dec("10")},
		{SupplierID: alpha.ID, Date: models.NewDate(2024, 4, 1), Amount: dec("999")},
	} {
		mustCreate(t, conn, inv)
	}
	svc := NewSupplierService(conn)
	ctx := context.Background()

	report, err := svc.MonthlyReport(ctx, 2024, 3)
	if err != nil {
		t.Fatalf("MonthlyReport: %v", err)
	}
	if len(report.Suppliers) != 2 || report.Suppliers[0].Name != "Alpha" || report.Suppliers[1].Name != "Zeta" {
		t.Fatalf("suppliers = %+v", report.Suppliers)
	}
	if report.Suppliers[1].Invoices != 2 || !report.Suppliers[1].Total.Equal(dec("150.25")) {
		t.Errorf("zeta row = %+v", report.Suppliers[1])
	}
	if report.Invoices != 3 || !report.Total.Equal(dec("160.25")) {
		t.Errorf("report totals = %d / %s", report.Invoices, report.Total)
	}

	for _, month := range []int{0, 13} {
		if _, err := svc.MonthlyReport(ctx, 2024, month); !errors.Is(err, ErrInvalidMonth) {
			t.Errorf("month %d err = %v", month, err)
		}
	}
	if _, err := svc.MonthlyReport(ctx, 2024, 6); !errors.Is(err, ErrNoPurchases) {
		t.Errorf("empty month err = %v", err)
	}

	stats, err := svc.MonthlyStats(ctx, time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if !stats.MonthlyTotal.Equal(dec("160.25")) || !stats.YearlyTotal.Equal(dec("1159.25")) {
		t.Errorf("stats = %+v", stats)
	}
}

func TestBudgetService_MonthlyDashboard(t *testing.T) {
	conn := openTestDB(t)
	for _, e := range []*models.GeneralExpense{
		{Date: models.NewDate(2024, 3, 2), Amount: dec("40"), Category: models.ExpenseFuel},
		{Date: models.NewDate(2024, 3, 9), Amount: dec("60"), Category: models.ExpenseFuel},
		{Date: models.NewDate(2024, 3, 9), Amount: dec("15"), Category: models.ExpenseOffice},
		{Date: models.NewDate(2024, 2, 28), Amount: dec("500"), Category: models.ExpenseOffice},
	} {
		mustCreate(t, conn, e)
	}

	d, err := NewBudgetService(conn).MonthlyDashboard(context.Background(), 2024, time.March)
	if err != nil {
		t.Fatal(err)
	}
	if !d.Total.Equal(dec("115")) || len(d.Expenses) != 3 {
		t.Errorf("total = %s, expenses = %d", d.Total, len(d.Expenses))
	}
	if !d.ByCategory[models.ExpenseFuel].Equal(dec("100")) || !d.ByCategory[models.ExpenseOffice].Equal(dec("15")) {
		t.Errorf("by category = %v", d.ByCategory)
	}
	if len(d.ByCategory) != len(models.ExpenseCategories) || !d.ByCategory[models.ExpenseTransport].IsZero() {
		t.Errorf("categories not all present: %v", d.ByCategory)
	}
}

func TestEstimationService_BulkReplace(t *testing.T) {
	conn := openTestDB(t)
	svc := NewEstimationService(conn)
	ctx := context.Background()
	row := func(fonction string) models.EstimationRow {
		return models.EstimationRow{
			Fonction:          fonction,
			NbrSalaries:       2,
			TauxAffectation:   dec("50"),
			DureeTravailMois:  dec("1"),
			JoursParMois:      dec("26"),
			SalaireJournalier: dec("100"),
		}
	}

	if _, err := svc.BulkReplace(ctx, []models.EstimationRow{row("Maçon"), row("Manoeuvre")}); err != nil {
		t.Fatal(err)
	}
	saved, err := svc.BulkReplace(ctx, []models.EstimationRow{row("Chef")})
	if err != nil {
		t.Fatal(err)
	}
	if len(saved) != 1 || !saved[0].Cout.Equal(dec("2600")) {
		t.Errorf("saved = %+v", saved)
	}
	var n int64
	conn.Model(&models.EstimationRow{}).Count(&n)
	if n != 1 {
		t.Errorf("rows after replace = %d, want 1", n)
	}

	bad := row("")
	_, err = svc.BulkReplace(ctx, []models.EstimationRow{row("Ok"), bad})
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Violations["rows[1].fonction"] != "required" {
		t.Errorf("invalid bulk err = %v", err)
	}
	conn.Model(&models.EstimationRow{}).Count(&n)
	if n != 1 {
		t.Errorf("invalid bulk touched the table: %d rows", n)
	}

	if err := svc.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	conn.Model(&models.EstimationRow{}).Count(&n)
	if n != 0 {
		t.Errorf("rows after clear = %d", n)
	}
}

package pdf

import (
	"bytes"
	"testing"
	"time"

	"github.com/diewo77/multisarl/internal/models"
	"github.com/shopspring/decimal"
)

func sampleQuote() QuoteData {
	company := models.DefaultCompany()
	company.ICE = "001234567000089"
	return QuoteData{
		Company: company,
		Number:  "DEV-2024-001",
		Date:    models.NewDate(2024, time.March, 4),
		Client:  "Atlas BTP",
		Project: "Villa Anfa",
		Objet:   "Réseau électrique",
		TVA:     decimal.NewFromInt(20),
		Lines: []Line{
			{Designation: "Câble 3x2.5", Quantite: 2, PrixUnitaire: decimal.NewFromInt(100), MontantHT: decimal.NewFromInt(200)},
			{Designation: "Tableau", Quantite: 1, PrixUnitaire: decimal.NewFromInt(50), MontantHT: decimal.NewFromInt(50)},
		},
	}
}

func TestRenderers(t *testing.T) {
	d := sampleQuote()
	d.BLNumber, d.BCNumber, d.InvoiceNumber = "BL-1", "BC-7", "FAC-3"
	renderers := map[string]func(QuoteData) ([]byte, error){
		"quote":    Quote,
		"delivery": DeliveryNote,
		"invoice":  Invoice,
	}
	for name, fn := range renderers {
		t.Run(name, func(t *testing.T) {
			b, err := fn(d)
			if err != nil {
				t.Fatalf("render: %v", err)
			}
			if !bytes.HasPrefix(b, []byte("%PDF")) {
				t.Errorf("output is not a PDF: %q", b[:min(len(b), 8)])
			}
		})
	}
}

func TestSupplierReport(t *testing.T) {
	rows := []SupplierRow{
		{Name: "Sonasid", Type: models.SupplierLarge, Invoices: 2, Total: decimal.RequireFromString("1500.50")},
		{Name: "Quincaillerie Amal", Type: models.SupplierSmall, Invoices: 1, Total: decimal.NewFromInt(300)},
	}
	b, err := SupplierReport(models.DefaultCompany(), 2024, time.May, rows)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(b, []byte("%PDF")) {
		t.Error("output is not a PDF")
	}
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0.00"},
		{"250", "250.00"},
		{"1234.5", "1,234.50"},
		{"1234567.891", "1,234,567.89"},
		{"-9876.1", "-9,876.10"},
	}
	for _, tt := range tests {
		if got := FormatMoney(decimal.RequireFromString(tt.in)); got != tt.want {
			t.Errorf("FormatMoney(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/diewo77/multisarl/internal/models"
	"github.com/diewo77/multisarl/internal/pdf"
	"gorm.io/gorm"
)

// Rendered is a generated PDF and, when it was filed, its Document row.
type Rendered struct {
	Filename string
	Data     []byte
	Document *models.Document
}

// Generator renders commercial documents and files them under the quote's project.
type Generator struct {
	db        *gorm.DB
	docs      *DocumentService
	trackings *TrackingService
}

func NewGenerator(db *gorm.DB, docs *DocumentService, trackings *TrackingService) *Generator {
	return &Generator{db: db, docs: docs, trackings: trackings}
}

// Company returns the letterhead settings, or the defaults when none are stored.
func (g *Generator) Company(ctx context.Context) models.CompanySettings {
	var c models.CompanySettings
	err := g.db.WithContext(ctx).Order("id").First(&c).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[PDF] load company settings: %v", err)
		}
		return models.DefaultCompany()
	}
	return c
}

func (g *Generator) loadQuote(ctx context.Context, id uint) (*models.Quote, error) {
	var q models.Quote
	err := g.db.WithContext(ctx).
		Preload("Project.Client").
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&q, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &q, nil
}

func (g *Generator) quoteData(ctx context.Context, q *models.Quote) pdf.QuoteData {
	d := pdf.QuoteData{
		Company: g.Company(ctx),
		Number:  q.NumeroDevis,
		Date:    q.DateLivraison,
		Objet:   q.Objet,
		TVA:     q.TVA,
	}
	if q.Project != nil {
		d.Project = q.Project.NomProjet
		if q.Project.Client != nil {
			d.Client = q.Project.Client.NomClient
		}
	}
	return d
}

// file stores the rendered PDF as a project document. Filing failures are
// logged; the caller still gets the PDF.
func (g *Generator) file(ctx context.Context, q *models.Quote, name string, out *Rendered) {
	if q.ProjectID == 0 || g.docs == nil {
		return
	}
	doc, err := g.docs.Save(ctx, q.ProjectID, name, out.Filename, out.Data)
	if err != nil {
		log.Printf("[PDF] file %s: %v", out.Filename, err)
		return
	}
	out.Document = doc
}

// QuotePDF renders the devis from the quote's own lines.
func (g *Generator) QuotePDF(ctx context.Context, quoteID uint) (*Rendered, error) {
	q, err := g.loadQuote(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	d := g.quoteData(ctx, q)
	for _, l := range q.Lines {
		d.Lines = append(d.Lines, pdf.Line{Designation: l.Designation, Quantite: l.Quantite, PrixUnitaire: l.PrixUnitaire, MontantHT: l.MontantHT})
	}
	data, err := pdf.Quote(d)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}
	out := &Rendered{Filename: "devis_" + q.NumeroDevis + ".pdf", Data: data}
	g.file(ctx, q, "Devis "+q.NumeroDevis, out)
	return out, nil
}

func (g *Generator) trackedData(ctx context.Context, quoteID uint) (*models.Quote, *models.QuoteTracking, pdf.QuoteData, error) {
	q, err := g.loadQuote(ctx, quoteID)
	if err != nil {
		return nil, nil, pdf.QuoteData{}, err
	}
	t, err := g.trackings.Ensure(ctx, quoteID)
	if err != nil {
		return nil, nil, pdf.QuoteData{}, err
	}
	d := g.quoteData(ctx, q)
	for _, l := range t.Lines {
		d.Lines = append(d.Lines, pdf.Line{Designation: l.Designation, Quantite: l.Quantite, PrixUnitaire: l.PrixUnitaire, MontantHT: l.MontantHT})
	}
	return q, t, d, nil
}

// DeliveryNote renders the bon de livraison from the latest tracking, creating
// one from the quote when none exists. An empty blNumber keeps the stored one
// or defaults to BL-<numero_devis>.
func (g *Generator) DeliveryNote(ctx context.Context, quoteID uint, blNumber string) (*Rendered, error) {
	q, t, d, err := g.trackedData(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if blNumber == "" {
		blNumber = t.BLNumber
	}
	if blNumber == "" {
		blNumber = "BL-" + q.NumeroDevis
	}
	if err := g.trackings.SetNumbers(ctx, t, blNumber, "", ""); err != nil {
		return nil, err
	}
	d.BLNumber = t.BLNumber
	d.BCNumber = t.BCNumber
	d.Date = models.DateOf(time.Now())

	data, err := pdf.DeliveryNote(d)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}
	out := &Rendered{Filename: "BL_" + q.NumeroDevis + ".pdf", Data: data}
	g.file(ctx, q, "Bon de Livraison - "+q.NumeroDevis, out)
	return out, nil
}

// Invoice renders the facture from the latest tracking. Empty numbers keep
// the stored ones; the invoice number defaults to FAC-<numero_devis>.
func (g *Generator) Invoice(ctx context.Context, quoteID uint, invoiceNumber, bcNumber string) (*Rendered, error) {
	q, t, d, err := g.trackedData(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if invoiceNumber == "" {
		invoiceNumber = t.InvoiceNumber
	}
	if invoiceNumber == "" {
		invoiceNumber = "FAC-" + q.NumeroDevis
	}
	if err := g.trackings.SetNumbers(ctx, t, "", bcNumber, invoiceNumber); err != nil {
		return nil, err
	}
	d.InvoiceNumber = t.InvoiceNumber
	d.BCNumber = t.BCNumber
	d.BLNumber = t.BLNumber
	d.Date = models.DateOf(time.Now())

	data, err := pdf.Invoice(d)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}
	out := &Rendered{Filename: "Facture_" + q.NumeroDevis + ".pdf", Data: data}
	g.file(ctx, q, "Facture "+q.NumeroDevis, out)
	return out, nil
}

// SupplierReport renders the monthly purchase report. It is not filed.
func (g *Generator) SupplierReport(ctx context.Context, report *SupplierReport) (*Rendered, error) {
	rows := make([]pdf.SupplierRow, 0, len(report.Suppliers))
	for _, s := range report.Suppliers {
		rows = append(rows, pdf.SupplierRow{Name: s.Name, Type: s.TypeSupplier, Invoices: int(s.Invoices), Total: s.Total})
	}
	data, err := pdf.SupplierReport(g.Company(ctx), report.Year, time.Month(report.Month), rows)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}
	return &Rendered{
		Filename: fmt.Sprintf("Achats_Fournisseurs_%04d_%02d.pdf", report.Year, report.Month),
		Data:     data,
	}, nil
}

// Package pdf renders quotes, delivery notes, invoices and supplier reports with maroto.
package pdf

import (
	"fmt"
	"strings"
	"time"

	"github.com/diewo77/multisarl/internal/models"
	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
)

var (
	headerColor = &props.Color{Red: 44, Green: 62, Blue: 80}
	white       = &props.Color{Red: 255, Green: 255, Blue: 255}
	stripe      = &props.Color{Red: 248, Green: 249, Blue: 250}
)

// Line is one priced row of a quote, delivery note or invoice.
type Line struct {
	Designation  string
	Quantite     int
	PrixUnitaire decimal.Decimal
	MontantHT    decimal.Decimal
}

// QuoteData is the content shared by the three commercial documents.
type QuoteData struct {
	Company       models.CompanySettings
	Number        string
	Date          models.Date
	Client        string
	Project       string
	Objet         string
	BLNumber      string
	BCNumber      string
	InvoiceNumber string
	TVA           decimal.Decimal
	Lines         []Line
}

func (d QuoteData) totalHT() decimal.Decimal {
	total := decimal.Zero
	for _, l := range d.Lines {
		total = total.Add(l.MontantHT)
	}
	return total.Round(2)
}

func newDocument(company models.CompanySettings) (core.Maroto, error) {
	cfg := config.NewBuilder().
		WithLeftMargin(10).
		WithTopMargin(10).
		WithRightMargin(10).
		Build()
	m := maroto.New(cfg)
	if footer := company.FooterLine(); footer != "" {
		if err := m.RegisterFooter(text.NewRow(8, footer, props.Text{Size: 7, Align: align.Center})); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func generate(m core.Maroto) ([]byte, error) {
	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate pdf: %w", err)
	}
	return doc.GetBytes(), nil
}

// letterhead prints the company name on the left and the document fields on the right.
func letterhead(m core.Maroto, company models.CompanySettings, title string, fields [][2]string) {
	name := company.Name
	if name == "" {
		name = models.DefaultCompany().Name
	}
	m.AddRow(10,
		text.NewCol(6, name, props.Text{Size: 13, Style: fontstyle.Bold}),
		text.NewCol(6, title, props.Text{Size: 13, Style: fontstyle.Bold, Align: align.Right}),
	)
	if company.Address != "" || company.City != "" {
		m.AddRows(text.NewRow(5, strings.TrimSpace(company.Address+" "+company.City), props.Text{Size: 8}))
	}
	for _, f := range fields {
		if f[1] == "" {
			continue
		}
		m.AddRow(5,
			text.NewCol(6, ""),
			text.NewCol(6, f[0]+": "+f[1], props.Text{Size: 9, Align: align.Right}),
		)
	}
	m.AddRows(line.NewRow(6))
}

func linesTable(m core.Maroto, lines []Line) {
	head := props.Text{Size: 9, Style: fontstyle.Bold, Color: white, Top: 1.5}
	m.AddRows(row.New(8).Add(
		text.NewCol(6, "Désignation", head),
		text.NewCol(1, "Qté", withAlign(head, align.Right)),
		text.NewCol(2, "P.U. (DH)", withAlign(head, align.Right)),
		text.NewCol(3, "Montant HT (DH)", withAlign(head, align.Right)),
	).WithStyle(&props.Cell{BackgroundColor: headerColor}))

	cell := props.Text{Size: 9, Top: 1.5}
	for i, l := range lines {
		r := row.New(7).Add(
			text.NewCol(6, l.Designation, cell),
			text.NewCol(1, fmt.Sprintf("%d", l.Quantite), withAlign(cell, align.Right)),
			text.NewCol(2, FormatMoney(l.PrixUnitaire), withAlign(cell, align.Right)),
			text.NewCol(3, FormatMoney(l.MontantHT), withAlign(cell, align.Right)),
		)
		if i%2 == 1 {
			r = r.WithStyle(&props.Cell{BackgroundColor: stripe})
		}
		m.AddRows(r)
	}
}

func totals(m core.Maroto, ht, tva decimal.Decimal) decimal.Decimal {
	ttc := models.TTC(ht, tva)
	rows := [][2]string{
		{"Total HT", FormatMoney(ht) + " DH"},
		{"TVA (" + tva.String() + "%)", FormatMoney(ttc.Sub(ht)) + " DH"},
		{"Total TTC", FormatMoney(ttc) + " DH"},
	}
	m.AddRows(row.New(4))
	for i, r := range rows {
		style := props.Text{Size: 10, Align: align.Right}
		if i == len(rows)-1 {
			style.Style = fontstyle.Bold
		}
		m.AddRow(6,
			text.NewCol(8, ""),
			text.NewCol(2, r[0], style),
			text.NewCol(2, r[1], style),
		)
	}
	return ttc
}

func signatures(m core.Maroto) {
	bold := props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Center}
	m.AddRows(row.New(15))
	m.AddRow(6,
		text.NewCol(6, "Signature Client", bold),
		text.NewCol(6, "Signature Entreprise", bold),
	)
	m.AddRows(row.New(25))
}

func withAlign(p props.Text, a align.Type) props.Text {
	p.Align = a
	return p
}

func withStyle(p props.Text, s fontstyle.Type) props.Text {
	p.Style = s
	return p
}

func render(d QuoteData, title string, fields [][2]string, closing string) ([]byte, error) {
	m, err := newDocument(d.Company)
	if err != nil {
		return nil, err
	}
	letterhead(m, d.Company, title, fields)
	if d.Objet != "" {
		m.AddRows(text.NewRow(8, "Objet : "+d.Objet, props.Text{Size: 10, Top: 1}))
	}
	linesTable(m, d.Lines)
	ttc := totals(m, d.totalHT(), d.TVA)
	if closing != "" {
		m.AddRows(row.New(6))
		m.AddRows(text.NewRow(8, fmt.Sprintf(closing, FormatMoney(ttc)), props.Text{Size: 10}))
	}
	signatures(m)
	return generate(m)
}

// Quote renders a devis.
func Quote(d QuoteData) ([]byte, error) {
	return render(d, "DEVIS N° "+d.Number, [][2]string{
		{"Date", d.Date.String()},
		{"Client", d.Client},
		{"Projet", d.Project},
	}, "Arrêté le présent devis à la somme de : %s Dirhams TTC")
}

// DeliveryNote renders a bon de livraison from tracking lines.
func DeliveryNote(d QuoteData) ([]byte, error) {
	return render(d, "BON DE LIVRAISON", [][2]string{
		{"N° BL", d.BLNumber},
		{"Réf Devis", d.Number},
		{"Date", d.Date.String()},
		{"Client", d.Client},
		{"Projet", d.Project},
	}, "")
}

// Invoice renders a facture from tracking lines.
func Invoice(d QuoteData) ([]byte, error) {
	return render(d, "FACTURE N° "+d.InvoiceNumber, [][2]string{
		{"Réf Devis", d.Number},
		{"N° BC", d.BCNumber},
		{"N° BL", d.BLNumber},
		{"Date", d.Date.String()},
		{"Client", d.Client},
		{"Projet", d.Project},
	}, "Arrêtée la présente facture à la somme de : %s Dirhams TTC")
}

// SupplierRow is one supplier's purchases in a month.
type SupplierRow struct {
	Name     string
	Type     string
	Invoices int
	Total    decimal.Decimal
}

// SupplierReport renders the monthly purchases per supplier.
func SupplierReport(company models.CompanySettings, year int, month time.Month, rows []SupplierRow) ([]byte, error) {
	m, err := newDocument(company)
	if err != nil {
		return nil, err
	}
	letterhead(m, company, "RAPPORT FOURNISSEURS", [][2]string{
		{"Période", fmt.Sprintf("%02d/%d", int(month), year)},
		{"Édité le", time.Now().Format("2006-01-02")},
	})

	head := props.Text{Size: 9, Style: fontstyle.Bold, Color: white, Top: 1.5}
	m.AddRows(row.New(8).Add(
		text.NewCol(6, "Fournisseur", head),
		text.NewCol(2, "Type", head),
		text.NewCol(1, "Fact.", withAlign(head, align.Right)),
		text.NewCol(3, "Total TTC (DH)", withAlign(head, align.Right)),
	).WithStyle(&props.Cell{BackgroundColor: headerColor}))

	cell := props.Text{Size: 9, Top: 1.5}
	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(r.Total)
		m.AddRow(7,
			text.NewCol(6, r.Name, cell),
			text.NewCol(2, r.Type, cell),
			text.NewCol(1, fmt.Sprintf("%d", r.Invoices), withAlign(cell, align.Right)),
			text.NewCol(3, FormatMoney(r.Total), withAlign(cell, align.Right)),
		)
	}
	m.AddRows(line.NewRow(4))
	m.AddRow(7,
		text.NewCol(9, "Total du mois", withStyle(cell, fontstyle.Bold)),
		text.NewCol(3, FormatMoney(total)+" DH", withAlign(withStyle(cell, fontstyle.Bold), align.Right)),
	)
	return generate(m)
}

// FormatMoney prints an amount with two decimals and comma thousand separators.
func FormatMoney(d decimal.Decimal) string {
	s := d.StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return sign + b.String() + "." + frac
}

package models

import (
	"fmt"
	"time"

	"github.com/diewo77/multisarl/internal/validation"
	"github.com/shopspring/decimal"
)

// DefaultTVA is the VAT rate applied to new quotes, in percent.
var DefaultTVA = decimal.NewFromInt(20)

var hundred = decimal.NewFromInt(100)

// Quote (devis) for a project. TotalHT and TotalTTC are derived from the lines.
type Quote struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	NumeroDevis   string          `gorm:"size:50;not null;uniqueIndex" json:"numero_devis"`
	Objet         string          `gorm:"size:255;not null" json:"objet"`
	DateLivraison Date            `gorm:"not null;index" json:"date_livraison"`
	TVA           decimal.Decimal `gorm:"column:tva;type:numeric(5,2);not null" json:"tva"`
	TotalHT       decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"total_ht"`
	TotalTTC      decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"total_ttc"`
	ProjectID     uint            `gorm:"index;not null" json:"project"`
	Project       *Project        `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"-"`
	Lines         []QuoteLine     `gorm:"foreignKey:QuoteID;constraint:OnDelete:CASCADE" json:"lines,omitempty"`
	Groups        []QuoteGroup    `gorm:"foreignKey:QuoteID;constraint:OnDelete:CASCADE" json:"groups,omitempty"`
}

func (Quote) TableName() string   { return "quotes" }
func (q *Quote) PrimaryKey() uint { return q.ID }
func (q *Quote) String() string   { return q.NumeroDevis }

func (q *Quote) Validate() validation.Violations {
	v := validation.Violations{}
	validation.Required("numero_devis", q.NumeroDevis, v)
	validation.MaxLen("numero_devis", q.NumeroDevis, 50, v)
	validation.Required("objet", q.Objet, v)
	validation.RequiredID("project", q.ProjectID, v)
	validation.NonNegative("tva", q.TVA, v)
	if q.DateLivraison.IsZero() {
		v["date_livraison"] = "required"
	}
	for i := range q.Lines {
		for field, code := range q.Lines[i].Validate() {
			if field == "quote" {
				continue
			}
			v[fmt.Sprintf("lines[%d].%s", i, field)] = code
		}
	}
	return v
}

// ApplyTotals sets TotalHT to the sum of amounts and TotalTTC to TotalHT × (1 + TVA/100).
func (q *Quote) ApplyTotals(amounts []decimal.Decimal) {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	q.TotalHT = total.Round(2)
	q.TotalTTC = TTC(q.TotalHT, q.TVA)
}

// TTC applies a VAT percentage to a pre-tax amount, rounded to cents.
func TTC(ht, tva decimal.Decimal) decimal.Decimal {
	return ht.Mul(decimal.NewFromInt(1).Add(tva.Div(hundred))).Round(2)
}

// QuoteGroup is an optional section organizing the lines of a quote.
type QuoteGroup struct {
	ID      uint        `gorm:"primaryKey" json:"id"`
	QuoteID uint        `gorm:"index;not null" json:"quote"`
	Name    string      `gorm:"size:255;not null" json:"name"`
	Order   int         `gorm:"column:sort_order;not null" json:"order"`
	Lines   []QuoteLine `gorm:"foreignKey:GroupID;constraint:OnDelete:SET NULL" json:"-"`
}

func (QuoteGroup) TableName() string   { return "quote_groups" }
func (g *QuoteGroup) PrimaryKey() uint { return g.ID }
func (g *QuoteGroup) String() string   { return g.Name }

func (g *QuoteGroup) Validate() validation.Violations {
	v := validation.Violations{}
	validation.RequiredID("quote", g.QuoteID, v)
	validation.Required("name", g.Name, v)
	validation.NonNegativeInt("order", g.Order, v)
	return v
}

// Total is the pre-tax sum of the group's loaded lines.
func (g *QuoteGroup) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range g.Lines {
		total = total.Add(l.MontantHT)
	}
	return total
}

// Line change markers used by the quote editor for display.
const (
	ChangeUnchanged = "unchanged"
	ChangeModified  = "modified"
	ChangeNew       = "new"
)

// LineChange is display-only metadata describing how a line differs from the
// version the client last saw. It never takes part in any total.
type LineChange struct {
	ChangeStatus         string           `gorm:"size:20" json:"change_status,omitempty"`
	OriginalDesignation  string           `gorm:"size:255" json:"original_designation,omitempty"`
	OriginalQuantite     *int             `json:"original_quantite,omitempty"`
	OriginalPrixUnitaire *decimal.Decimal `gorm:"type:numeric(12,2)" json:"original_prix_unitaire,omitempty"`
}

// QuoteLine is one priced line of a quote. MontantHT = Quantite × PrixUnitaire.
type QuoteLine struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	QuoteID      uint            `gorm:"index;not null" json:"quote"`
	GroupID      *uint           `gorm:"index" json:"group"`
	Designation  string          `gorm:"size:255;not null" json:"designation"`
	Quantite     int             `gorm:"not null" json:"quantite"`
	PrixUnitaire decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"prix_unitaire"`
	MontantHT    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"montant_ht"`
	LineChange   `gorm:"embedded"`
}

func (QuoteLine) TableName() string   { return "quote_lines" }
func (l *QuoteLine) PrimaryKey() uint { return l.ID }
func (l *QuoteLine) String() string   { return fmt.Sprintf("QuoteLine object (%d)", l.ID) }

func (l *QuoteLine) Validate() validation.Violations {
	v := validation.Violations{}
	validation.RequiredID("quote", l.QuoteID, v)
	validation.Required("designation", l.Designation, v)
	validation.NonNegativeInt("quantite", l.Quantite, v)
	validation.NonNegative("prix_unitaire", l.PrixUnitaire, v)
	if l.ChangeStatus != "" {
		validation.OneOf("change_status", l.ChangeStatus, v, ChangeUnchanged, ChangeModified, ChangeNew)
	}
	return v
}

// Amount computes quantity × unit price.
func (l *QuoteLine) Amount() decimal.Decimal {
	return decimal.NewFromInt(int64(l.Quantite)).Mul(l.PrixUnitaire).Round(2)
}

// QuoteTracking is a frozen copy of a quote's lines used for delivery notes and invoices.
type QuoteTracking struct {
	ID            uint                `gorm:"primaryKey" json:"id"`
	QuoteID       uint                `gorm:"index;not null" json:"quote"`
	Quote         *Quote              `gorm:"foreignKey:QuoteID;constraint:OnDelete:CASCADE" json:"-"`
	BLNumber      string              `gorm:"column:bl_number;size:50" json:"bl_number,omitempty"`
	BCNumber      string              `gorm:"column:bc_number;size:50" json:"bc_number,omitempty"`
	InvoiceNumber string              `gorm:"size:50" json:"invoice_number,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
	Lines         []QuoteTrackingLine `gorm:"foreignKey:TrackingID;constraint:OnDelete:CASCADE" json:"lines"`
}

func (QuoteTracking) TableName() string   { return "quote_tracking" }
func (t *QuoteTracking) PrimaryKey() uint { return t.ID }
func (t *QuoteTracking) String() string   { return fmt.Sprintf("QuoteTracking object (%d)", t.ID) }

func (t *QuoteTracking) Validate() validation.Violations {
	v := validation.Violations{}
	validation.RequiredID("quote", t.QuoteID, v)
	validation.MaxLen("bl_number", t.BLNumber, 50, v)
	validation.MaxLen("bc_number", t.BCNumber, 50, v)
	validation.MaxLen("invoice_number", t.InvoiceNumber, 50, v)
	return v
}

// Total is the pre-tax sum of the tracking's loaded lines.
func (t *QuoteTracking) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range t.Lines {
		total = total.Add(l.MontantHT)
	}
	return total
}

// QuoteTrackingLine is a line of a tracking. Edits never flow back to the quote.
type QuoteTrackingLine struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	TrackingID   uint            `gorm:"index;not null" json:"tracking"`
	Designation  string          `gorm:"size:255;not null" json:"designation"`
	Quantite     int             `gorm:"not null" json:"quantite"`
	PrixUnitaire decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"prix_unitaire"`
	MontantHT    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"montant_ht"`
}

func (QuoteTrackingLine) TableName() string   { return "quote_tracking_lines" }
func (l *QuoteTrackingLine) PrimaryKey() uint { return l.ID }
func (l *QuoteTrackingLine) String() string {
	return fmt.Sprintf("QuoteTrackingLine object (%d)", l.ID)
}

func (l *QuoteTrackingLine) Validate() validation.Violations {
	v := validation.Violations{}
	validation.RequiredID("tracking", l.TrackingID, v)
	validation.Required("designation", l.Designation, v)
	validation.NonNegativeInt("quantite", l.Quantite, v)
	validation.NonNegative("prix_unitaire", l.PrixUnitaire, v)
	return v
}

// Amount computes quantity × unit price.
func (l *QuoteTrackingLine) Amount() decimal.Decimal {
	return decimal.NewFromInt(int64(l.Quantite)).Mul(l.PrixUnitaire).Round(2)
}

package models

import (
	"fmt"

	"github.com/diewo77/multisarl/internal/validation"
	"github.com/shopspring/decimal"
)

// Invoice is a purchase invoice booked against a project.
// Dashboard KPIs sum Montant across all invoices.
type Invoice struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Date        Date            `gorm:"not null;index" json:"date"`
	Fournisseur string          `gorm:"size:255;not null" json:"fournisseur"`
	Montant     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"montant"`
	ProjectID   uint            `gorm:"index;not null" json:"project"`
	Project     *Project        `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Invoice) TableName() string   { return "invoices" }
func (i *Invoice) PrimaryKey() uint { return i.ID }
func (i *Invoice) String() string   { return fmt.Sprintf("Invoice object (%d)", i.ID) }

func (i *Invoice) Validate() validation.Violations {
	v := validation.Violations{}
	if i.Date.IsZero() {
		v["date"] = "required"
	}
	validation.Required("fournisseur", i.Fournisseur, v)
	validation.NonNegative("montant", i.Montant, v)
	validation.RequiredID("project", i.ProjectID, v)
	return v
}

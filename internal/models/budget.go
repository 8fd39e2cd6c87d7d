package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/diewo77/multisarl/internal/validation"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	EmployeeTypeMain       = "principale"
	EmployeeTypeBrocoleurs = "brocoleurs"
)

// Employee is a salaried worker. SalaireSemaine drives salary periods.
type Employee struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	Nom            string          `gorm:"size:255;not null" json:"nom"`
	Prenom         string          `gorm:"size:255;not null" json:"prenom"`
	Telephone      string          `gorm:"size:50" json:"telephone,omitempty"`
	CIN            string          `gorm:"column:cin;size:50;not null;uniqueIndex" json:"cin"`
	DateDebut      Date            `json:"date_debut"`
	SalaireSemaine decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"salaire_semaine"`
	Fonction       string          `gorm:"size:100" json:"fonction,omitempty"`
	Type           string          `gorm:"size:20;not null" json:"type"`
}

func (Employee) TableName() string   { return "employees" }
func (e *Employee) PrimaryKey() uint { return e.ID }
func (e *Employee) String() string   { return strings.TrimSpace(e.Nom + " " + e.Prenom) }

func (e *Employee) BeforeSave(*gorm.DB) error {
	if e.Type == "" {
		e.Type = EmployeeTypeMain
	}
	if e.CIN == "" {
		e.CIN = "000000"
	}
	return nil
}

func (e *Employee) Validate() validation.Violations {
	v := validation.Violations{}
	validation.Required("nom", e.Nom, v)
	validation.NonNegative("salaire_semaine", e.SalaireSemaine, v)
	if e.Type != "" {
		validation.OneOf("type", e.Type, v, EmployeeTypeMain, EmployeeTypeBrocoleurs)
	}
	return v
}

// Material is a building material referenced by material costs.
type Material struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Nom   string `gorm:"size:255;not null" json:"nom"`
	Unite string `gorm:"size:50;not null" json:"unite"`
}

func (Material) TableName() string   { return "materials" }
func (m *Material) PrimaryKey() uint { return m.ID }
func (m *Material) String() string   { return m.Nom }

func (m *Material) Validate() validation.Violations {
	v := validation.Violations{}
	validation.Required("nom", m.Nom, v)
	validation.Required("unite", m.Unite, v)
	return v
}

// MaterialCost breaks down the delivered cost of a material.
type MaterialCost struct {
	ID                  uint            `gorm:"primaryKey" json:"id"`
	MaterialID          uint            `gorm:"index;not null" json:"material"`
	Material            *Material       `gorm:"foreignKey:MaterialID;constraint:OnDelete:CASCADE" json:"-"`
	PrixUsine           decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"prix_usine"`
	Transport           decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"transport"`
	Distance            decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"distance"`
	ManutentionOuvriers decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"manutention_ouvriers"`
	PrixOuvrier         decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"prix_ouvrier"`
	TU                  decimal.Decimal `gorm:"column:tu;type:numeric(12,2);not null" json:"tu"`
	TauxPerte           decimal.Decimal `gorm:"type:numeric(5,2);not null" json:"taux_perte"`
	VRCTotal            decimal.Decimal `gorm:"column:vrc_total;type:numeric(12,2);not null" json:"vrc_total"`
}

func (MaterialCost) TableName() string   { return "material_costs" }
func (c *MaterialCost) PrimaryKey() uint { return c.ID }
func (c *MaterialCost) String() string   { return fmt.Sprintf("MaterialCost object (%d)", c.ID) }

func (c *MaterialCost) Validate() validation.Violations {
	v := validation.Violations{}
	validation.RequiredID("material", c.MaterialID, v)
	validation.NonNegative("prix_usine", c.PrixUsine, v)
	validation.NonNegative("transport", c.Transport, v)
	validation.NonNegative("distance", c.Distance, v)
	validation.NonNegative("manutention_ouvriers", c.ManutentionOuvriers, v)
	validation.NonNegative("prix_ouvrier", c.PrixOuvrier, v)
	validation.NonNegative("taux_perte", c.TauxPerte, v)
	validation.NonNegative("vrc_total", c.VRCTotal, v)
	return v
}

// General expense categories.
const (
	ExpenseTransport = "TRANSPORT"
	ExpenseFuel      = "FUEL"
	ExpenseLogistics = "LOGISTICS"
	ExpenseOffice    = "OFFICE"
	ExpenseOther     = "OTHER"
)

// ExpenseCategories lists the categories in display order.
var ExpenseCategories = []string{ExpenseTransport, ExpenseFuel, ExpenseLogistics, ExpenseOffice, ExpenseOther}

// GeneralExpense is an overhead expense not tied to a project.
type GeneralExpense struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Date        Date            `gorm:"not null;index" json:"date"`
	Amount      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Category    string          `gorm:"size:20;not null" json:"category"`
	Description string          `gorm:"type:text" json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (GeneralExpense) TableName() string   { return "general_expenses" }
func (e *GeneralExpense) PrimaryKey() uint { return e.ID }
func (e *GeneralExpense) String() string {
	return fmt.Sprintf("%s - %s - %s", e.Category, e.Amount.StringFixed(2), e.Date)
}

func (e *GeneralExpense) BeforeSave(*gorm.DB) error {
	if e.Category == "" {
		e.Category = ExpenseOther
	}
	return nil
}

func (e *GeneralExpense) Validate() validation.Violations {
	v := validation.Violations{}
	if e.Date.IsZero() {
		v["date"] = "required"
	}
	validation.NonNegative("amount", e.Amount, v)
	if e.Category != "" {
		validation.OneOf("category", e.Category, v, ExpenseCategories...)
	}
	return v
}

// MonthlyLabourCost is the manually entered labour cost of one month.
type MonthlyLabourCost struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Year        int             `gorm:"not null;uniqueIndex:idx_labour_year_month" json:"year"`
	Month       int             `gorm:"not null;uniqueIndex:idx_labour_year_month" json:"month"`
	Amount      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Description string          `gorm:"type:text" json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (MonthlyLabourCost) TableName() string   { return "monthly_labour_costs" }
func (c *MonthlyLabourCost) PrimaryKey() uint { return c.ID }
func (c *MonthlyLabourCost) String() string {
	return fmt.Sprintf("%02d/%d - %s", c.Month, c.Year, c.Amount.StringFixed(2))
}

func (c *MonthlyLabourCost) Validate() validation.Violations {
	v := validation.Violations{}
	validation.Month("month", c.Month, v)
	if c.Year < 1900 || c.Year > 9999 {
		v["year"] = "invalid_year"
	}
	validation.NonNegative("amount", c.Amount, v)
	return v
}

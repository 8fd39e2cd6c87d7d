package models

import (
	"fmt"
	"time"

	"github.com/diewo77/multisarl/internal/validation"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	SupplierLarge = "GRAND"
	SupplierSmall = "PETIT"
)

// Supplier is a vendor the firm buys materials and services from.
type Supplier struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:255;not null;index" json:"name"`
	TypeSupplier string    `gorm:"size:10;not null" json:"type_supplier"`
	Address      string    `gorm:"type:text" json:"address,omitempty"`
	Phone        string    `gorm:"size:50" json:"phone,omitempty"`
	Email        string    `gorm:"size:254" json:"email,omitempty"`
	Website      string    `gorm:"size:255" json:"website,omitempty"`
	ICE          string    `gorm:"column:ice;size:50" json:"ice,omitempty"`
	RC           string    `gorm:"column:rc;size:50" json:"rc,omitempty"`
	Patente      string    `gorm:"size:50" json:"patente,omitempty"`
	CNSS         string    `gorm:"column:cnss;size:50" json:"cnss,omitempty"`
	IFFiscal     string    `gorm:"column:if_fiscal;size:50" json:"if_fiscal,omitempty"`
	Category     string    `gorm:"size:100" json:"category,omitempty"`
	Notes        string    `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Supplier) TableName() string   { return "suppliers" }
func (s *Supplier) PrimaryKey() uint { return s.ID }
func (s *Supplier) String() string   { return s.Name }

func (s *Supplier) BeforeSave(*gorm.DB) error {
	if s.TypeSupplier == "" {
		s.TypeSupplier = SupplierSmall
	}
	return nil
}

func (s *Supplier) Validate() validation.Violations {
	v := validation.Violations{}
	validation.Required("name", s.Name, v)
	validation.MaxLen("name", s.Name, 255, v)
	if s.TypeSupplier != "" {
		validation.OneOf("type_supplier", s.TypeSupplier, v, SupplierLarge, SupplierSmall)
	}
	return v
}

const (
	SupplierInvoicePaid   = "PAYE"
	SupplierInvoiceUnpaid = "IMPAYE"
)

// SupplierInvoice is a purchase from a supplier. Amount includes taxes.
type SupplierInvoice struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	SupplierID  uint            `gorm:"index;not null" json:"supplier"`
	Supplier    *Supplier       `gorm:"foreignKey:SupplierID;constraint:OnDelete:CASCADE" json:"-"`
	Date        Date            `gorm:"not null;index" json:"date"`
	Amount      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Reference   string          `gorm:"size:100" json:"reference,omitempty"`
	Status      string          `gorm:"size:10;not null" json:"status"`
	Description string          `gorm:"type:text" json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`

	SupplierName string `gorm:"-" json:"supplier_name,omitempty"`
}

func (SupplierInvoice) TableName() string   { return "supplier_invoices" }
func (i *SupplierInvoice) PrimaryKey() uint { return i.ID }
func (i *SupplierInvoice) String() string {
	if i.Reference != "" {
		return i.Reference
	}
	return fmt.Sprintf("SupplierInvoice object (%d)", i.ID)
}

func (i *SupplierInvoice) BeforeSave(*gorm.DB) error {
	if i.Status == "" {
		i.Status = SupplierInvoiceUnpaid
	}
	return nil
}

func (i *SupplierInvoice) AfterFind(*gorm.DB) error {
	if i.Supplier != nil {
		i.SupplierName = i.Supplier.Name
	}
	return nil
}

func (i *SupplierInvoice) Validate() validation.Violations {
	v := validation.Violations{}
	validation.RequiredID("supplier", i.SupplierID, v)
	if i.Date.IsZero() {
		v["date"] = "required"
	}
	validation.NonNegative("amount", i.Amount, v)
	if i.Status != "" {
		validation.OneOf("status", i.Status, v, SupplierInvoicePaid, SupplierInvoiceUnpaid)
	}
	return v
}

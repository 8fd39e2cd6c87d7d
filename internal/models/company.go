package models

import (
	"strings"
	"time"

	"github.com/diewo77/multisarl/internal/validation"
)

// CompanySettings holds the letterhead printed on generated documents.
// A single row is expected; the first one wins.
type CompanySettings struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name    string `gorm:"size:255;not null" json:"name"`
	Email   string `gorm:"size:255" json:"email,omitempty"`
	Phone   string `gorm:"size:50" json:"phone,omitempty"`
	Website string `gorm:"size:255" json:"website,omitempty"`

	Address string `gorm:"size:500" json:"address,omitempty"`
	City    string `gorm:"size:100" json:"city,omitempty"`
	Country string `gorm:"size:100" json:"country,omitempty"`

	// Moroccan legal identifiers
	ICE      string `gorm:"column:ice;size:50" json:"ice,omitempty"`
	RC       string `gorm:"column:rc;size:50" json:"rc,omitempty"`
	IFFiscal string `gorm:"column:if_fiscal;size:50" json:"if_fiscal,omitempty"`
	Patente  string `gorm:"size:50" json:"patente,omitempty"`
	CNSS     string `gorm:"column:cnss;size:50" json:"cnss,omitempty"`
	Capital  string `gorm:"size:100" json:"capital,omitempty"`
}

func (CompanySettings) TableName() string   { return "company_settings" }
func (c *CompanySettings) PrimaryKey() uint { return c.ID }
func (c *CompanySettings) String() string   { return c.Name }

func (c *CompanySettings) Validate() validation.Violations {
	v := validation.Violations{}
	validation.Required("name", c.Name, v)
	validation.MaxLen("name", c.Name, 255, v)
	return v
}

// DefaultCompany is used when no settings row exists yet.
func DefaultCompany() CompanySettings {
	return CompanySettings{Name: "MULTI SARL", Country: "Maroc"}
}

// FooterLine joins the legal identifiers for document footers.
func (c CompanySettings) FooterLine() string {
	parts := []string{}
	add := func(label, value string) {
		if value != "" {
			parts = append(parts, label+": "+value)
		}
	}
	add("ICE", c.ICE)
	add("RC", c.RC)
	add("IF", c.IFFiscal)
	add("Patente", c.Patente)
	add("CNSS", c.CNSS)
	add("Capital", c.Capital)
	return strings.Join(parts, " - ")
}

package models

import (
	"time"

	"github.com/diewo77/multisarl/internal/validation"
	"gorm.io/gorm"
)

const (
	ClientTypeIndividual = "PARTICULIER"
	ClientTypeCompany    = "ENTREPRISE"

	ClientStatusActive   = "ACTIF"
	ClientStatusInactive = "INACTIF"
)

// Client is a customer of the firm; projects belong to a client.
type Client struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	NomClient  string    `gorm:"size:255;not null" json:"nom_client"`
	TypeClient string    `gorm:"size:20;not null" json:"type_client"`
	Telephone  string    `gorm:"size:50" json:"telephone,omitempty"`
	Email      string    `gorm:"size:254" json:"email,omitempty"`
	Adresse    string    `gorm:"type:text" json:"adresse,omitempty"`
	Ville      string    `gorm:"size:100" json:"ville,omitempty"`
	Statut     string    `gorm:"size:20;not null" json:"statut"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Client) TableName() string   { return "clients" }
func (c *Client) PrimaryKey() uint { return c.ID }
func (c *Client) String() string   { return c.NomClient }

// BeforeSave fills the enum defaults.
func (c *Client) BeforeSave(*gorm.DB) error {
	if c.TypeClient == "" {
		c.TypeClient = ClientTypeCompany
	}
	if c.Statut == "" {
		c.Statut = ClientStatusActive
	}
	return nil
}

func (c *Client) Validate() validation.Violations {
	v := validation.Violations{}
	validation.Required("nom_client", c.NomClient, v)
	validation.MaxLen("nom_client", c.NomClient, 255, v)
	if c.TypeClient != "" {
		validation.OneOf("type_client", c.TypeClient, v, ClientTypeIndividual, ClientTypeCompany)
	}
	if c.Statut != "" {
		validation.OneOf("statut", c.Statut, v, ClientStatusActive, ClientStatusInactive)
	}
	return v
}

package models

import (
	"time"

	"github.com/diewo77/multisarl/internal/validation"
)

// Notification is a message addressed to one user.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Message   string    `gorm:"type:text" json:"message"`
	IsRead    bool      `gorm:"not null" json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

func (Notification) TableName() string   { return "notifications" }
func (n *Notification) PrimaryKey() uint { return n.ID }
func (n *Notification) String() string   { return n.Title }

// GetUserID identifies the owner for ownership checks.
func (n *Notification) GetUserID() uint { return n.UserID }

func (n *Notification) Validate() validation.Violations {
	v := validation.Violations{}
	validation.RequiredID("user", n.UserID, v)
	validation.Required("title", n.Title, v)
	return v
}

package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	AuditCreate = "CREATE"
	AuditUpdate = "UPDATE"
	AuditDelete = "DELETE"
)

// AuditLog is an append-only trace of a write made through the API.
type AuditLog struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Table     string         `gorm:"column:table_name;size:100;not null;index" json:"table_name"`
	RecordID  string         `gorm:"size:100;not null" json:"record_id"`
	Action    string         `gorm:"size:10;not null" json:"action"`
	UserID    *uint          `gorm:"index" json:"user"`
	User      *User          `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL" json:"-"`
	Timestamp time.Time      `gorm:"autoCreateTime;index" json:"timestamp"`
	Details   datatypes.JSON `json:"details,omitempty"`
}

func (AuditLog) TableName() string   { return "audit_logs" }
func (a *AuditLog) PrimaryKey() uint { return a.ID }
func (a *AuditLog) String() string   { return a.Action + " " + a.Table + "#" + a.RecordID }

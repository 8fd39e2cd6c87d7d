package models

import (
	"path"
	"strings"
	"time"

	"github.com/diewo77/multisarl/internal/validation"
	"gorm.io/gorm"
)

const (
	DocumentPDF   = "PDF"
	DocumentImage = "IMAGE"
	DocumentOther = "OTHER"
)

// Document is a file attached to a project. FileURL is the blob store key.
type Document struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	TypeDocument string    `gorm:"size:10;not null" json:"type_document"`
	FileURL      string    `gorm:"size:500" json:"file_url"`
	ContentType  string    `gorm:"size:100" json:"content_type,omitempty"`
	Size         int64     `json:"size"`
	ProjectID    uint      `gorm:"index;not null" json:"project"`
	Project      *Project  `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

func (Document) TableName() string   { return "documents" }
func (d *Document) PrimaryKey() uint { return d.ID }
func (d *Document) String() string   { return d.Name }

func (d *Document) BeforeSave(*gorm.DB) error {
	if d.TypeDocument == "" {
		d.TypeDocument = DocumentTypeFor(d.Name)
	}
	return nil
}

func (d *Document) Validate() validation.Violations {
	v := validation.Violations{}
	validation.Required("name", d.Name, v)
	validation.RequiredID("project", d.ProjectID, v)
	if d.TypeDocument != "" {
		validation.OneOf("type_document", d.TypeDocument, v, DocumentPDF, DocumentImage, DocumentOther)
	}
	return v
}

// DocumentTypeFor guesses the document type from a file name extension.
func DocumentTypeFor(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".pdf":
		return DocumentPDF
	case ".png", ".jpg", ".jpeg", ".gif", ".webp":
		return DocumentImage
	default:
		return DocumentOther
	}
}

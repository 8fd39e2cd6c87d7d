package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path"
	"strings"

	"github.com/diewo77/multisarl/internal/blob"
	"github.com/diewo77/multisarl/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DocumentService keeps Document rows and their stored files together.
type DocumentService struct {
	db    *gorm.DB
	store blob.Store
}

func NewDocumentService(db *gorm.DB, store blob.Store) *DocumentService {
	return &DocumentService{db: db, store: store}
}

// documentKey builds a unique storage key under the project's prefix.
func documentKey(projectID uint, name string) string {
	base := strings.ReplaceAll(path.Base(name), " ", "_")
	if base == "." || base == "/" || base == "" {
		base = "document"
	}
	return fmt.Sprintf("documents/%d/%s-%s", projectID, uuid.NewString(), base)
}

// Upload stores the file and inserts its Document row. The stored file is
// removed again if the row cannot be written.
func (s *DocumentService) Upload(ctx context.Context, d *models.Document, r io.Reader) error {
	return s.put(ctx, d, d.Name, r)
}

func (s *DocumentService) put(ctx context.Context, d *models.Document, filename string, r io.Reader) error {
	if d.TypeDocument == "" {
		d.TypeDocument = models.DocumentTypeFor(filename)
	}
	if err := Validate(d); err != nil {
		return err
	}
	db := s.db.WithContext(ctx)
	if err := ensureExists(db, &models.Project{}, d.ProjectID, "project"); err != nil {
		return err
	}
	if d.ContentType == "" {
		d.ContentType = contentTypeFor(filename)
	}
	key := documentKey(d.ProjectID, filename)
	info, err := s.store.Put(ctx, key, r, blob.PutOptions{
		ContentType: d.ContentType,
		Metadata:    map[string]string{"name": d.Name, "project": fmt.Sprint(d.ProjectID)},
	})
	if err != nil {
		return fmt.Errorf("store document: %w", err)
	}
	d.ID = 0
	d.FileURL = info.Key
	d.Size = info.Size
	if err := db.Create(d).Error; err != nil {
		if _, derr := s.store.Delete(ctx, key); derr != nil {
			log.Printf("[DOCUMENTS] cleanup of %s failed: %v", key, derr)
		}
		return err
	}
	return nil
}

// Save stores generated bytes as a project document titled name.
func (s *DocumentService) Save(ctx context.Context, projectID uint, name, filename string, data []byte) (*models.Document, error) {
	d := &models.Document{Name: name, ProjectID: projectID}
	if err := s.put(ctx, d, filename, bytes.NewReader(data)); err != nil {
		return nil, err
	}
	return d, nil
}

// Open returns the document row and a reader over its file. The caller closes the reader.
func (s *DocumentService) Open(ctx context.Context, id uint) (*models.Document, io.ReadCloser, error) {
	var d models.Document
	if err := s.db.WithContext(ctx).First(&d, id).Error; err != nil {
		return nil, nil, notFound(err)
	}
	if d.FileURL == "" {
		return nil, nil, ErrNotFound
	}
	_, rc, err := s.store.Get(ctx, d.FileURL)
	if errors.Is(err, blob.ErrNotFound) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	return &d, rc, nil
}

// Delete removes the row, then its file. A missing file is not an error.
func (s *DocumentService) Delete(ctx context.Context, id uint) (*models.Document, error) {
	var d models.Document
	db := s.db.WithContext(ctx)
	if err := db.First(&d, id).Error; err != nil {
		return nil, notFound(err)
	}
	if err := db.Delete(&d).Error; err != nil {
		return nil, err
	}
	if d.FileURL != "" {
		if _, err := s.store.Delete(ctx, d.FileURL); err != nil {
			log.Printf("[DOCUMENTS] delete blob %s: %v", d.FileURL, err)
		}
	}
	return &d, nil
}

func contentTypeFor(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}

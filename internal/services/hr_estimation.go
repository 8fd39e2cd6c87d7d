package services

import (
	"context"
	"fmt"

	"github.com/diewo77/multisarl/internal/models"
	"github.com/diewo77/multisarl/internal/validation"
	"gorm.io/gorm"
)

// EstimationService manages the HR estimation worksheet, which is saved as a whole.
type EstimationService struct {
	db *gorm.DB
}

func NewEstimationService(db *gorm.DB) *EstimationService {
	return &EstimationService{db: db}
}

// BulkReplace deletes every row and inserts the given ones. Nothing is
// written when any row is invalid.
func (s *EstimationService) BulkReplace(ctx context.Context, rows []models.EstimationRow) ([]models.EstimationRow, error) {
	violations := validation.Violations{}
	for i := range rows {
		rows[i].ID = 0
		for field, code := range rows[i].Validate() {
			violations[fmt.Sprintf("rows[%d].%s", i, field)] = code
		}
	}
	if !violations.Empty() {
		return nil, &ValidationError{Violations: violations}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := clearRows(tx); err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []models.EstimationRow{}
	}
	return rows, nil
}

// Clear deletes every row.
func (s *EstimationService) Clear(ctx context.Context) error {
	return clearRows(s.db.WithContext(ctx))
}

func clearRows(db *gorm.DB) error {
	return db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.EstimationRow{}).Error
}

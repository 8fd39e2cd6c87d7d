package services

import (
	"context"

	"github.com/diewo77/multisarl/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TrackingService manages the frozen copies of quotes used for delivery
// notes and invoices. Tracking edits never flow back to the quote.
type TrackingService struct {
	db *gorm.DB
}

func NewTrackingService(db *gorm.DB) *TrackingService {
	return &TrackingService{db: db}
}

// Create inserts a tracking. Without explicit lines it copies every line of the quote.
func (s *TrackingService) Create(ctx context.Context, t *models.QuoteTracking) error {
	if err := Validate(t); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return createTracking(tx, t)
	})
	if err != nil {
		return err
	}
	return s.reload(ctx, t)
}

func createTracking(tx *gorm.DB, t *models.QuoteTracking) error {
	if err := ensureExists(tx, &models.Quote{}, t.QuoteID, "quote"); err != nil {
		return err
	}
	lines := t.Lines
	t.Lines = nil
	if err := tx.Omit(clause.Associations).Create(t).Error; err != nil {
		return err
	}
	if len(lines) == 0 {
		var source []models.QuoteLine
		if err := tx.Where("quote_id = ?", t.QuoteID).Order("id").Find(&source).Error; err != nil {
			return err
		}
		for _, l := range source {
			lines = append(lines, models.QuoteTrackingLine{
				Designation:  l.Designation,
				Quantite:     l.Quantite,
				PrixUnitaire: l.PrixUnitaire,
			})
		}
	}
	for i := range lines {
		lines[i].ID = 0
		lines[i].TrackingID = t.ID
		lines[i].MontantHT = lines[i].Amount()
	}
	if len(lines) > 0 {
		if err := tx.Create(&lines).Error; err != nil {
			return err
		}
	}
	t.Lines = lines
	return nil
}

// Get loads a tracking with its lines.
func (s *TrackingService) Get(ctx context.Context, id uint) (*models.QuoteTracking, error) {
	var t models.QuoteTracking
	err := s.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&t, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

// Latest returns the most recent tracking of a quote, or nil when there is none.
func (s *TrackingService) Latest(ctx context.Context, quoteID uint) (*models.QuoteTracking, error) {
	var t models.QuoteTracking
	err := s.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("quote_id = ?", quoteID).
		Order("created_at DESC, id DESC").
		First(&t).Error
	if notFound(err) == ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Ensure returns the latest tracking of the quote, creating a copy when none exists.
func (s *TrackingService) Ensure(ctx context.Context, quoteID uint) (*models.QuoteTracking, error) {
	t, err := s.Latest(ctx, quoteID)
	if err != nil || t != nil {
		return t, err
	}
	t = &models.QuoteTracking{QuoteID: quoteID}
	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return createTracking(tx, t)
	}); err != nil {
		return nil, err
	}
	return t, nil
}

// DeliveryPreview lists the lines a delivery note would print: those of the
// latest tracking, or the quote's own lines when nothing was tracked yet.
func (s *TrackingService) DeliveryPreview(ctx context.Context, quoteID uint) ([]models.QuoteTrackingLine, error) {
	if err := mustExist(s.db.WithContext(ctx), &models.Quote{}, quoteID); err != nil {
		return nil, err
	}
	t, err := s.Latest(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if t != nil {
		return t.Lines, nil
	}
	var source []models.QuoteLine
	if err := s.db.WithContext(ctx).Where("quote_id = ?", quoteID).Order("id").Find(&source).Error; err != nil {
		return nil, err
	}
	lines := make([]models.QuoteTrackingLine, 0, len(source))
	for _, l := range source {
		lines = append(lines, models.QuoteTrackingLine{
			Designation:  l.Designation,
			Quantite:     l.Quantite,
			PrixUnitaire: l.PrixUnitaire,
			MontantHT:    l.MontantHT,
		})
	}
	return lines, nil
}

// Reset deletes every tracking of the quote so the next document starts
// again from the quote's lines.
func (s *TrackingService) Reset(ctx context.Context, quoteID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := mustExist(tx, &models.Quote{}, quoteID); err != nil {
			return err
		}
		if err := tx.Model(&models.QuoteTracking{}).Where("quote_id = ?", quoteID).Count(&count).Error; err != nil {
			return err
		}
		return deleteTrackings(tx, "quote_id = ?", quoteID)
	})
	return count, err
}

// Delete removes one tracking with its lines.
func (s *TrackingService) Delete(ctx context.Context, id uint) (*models.QuoteTracking, error) {
	var t models.QuoteTracking
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&t, id).Error; err != nil {
			return notFound(err)
		}
		return deleteTrackings(tx, "id = ?", id)
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// SaveLine recomputes the line amount and saves it. The quote is left untouched.
func (s *TrackingService) SaveLine(ctx context.Context, line *models.QuoteTrackingLine) error {
	if err := Validate(line); err != nil {
		return err
	}
	db := s.db.WithContext(ctx)
	if err := ensureExists(db, &models.QuoteTracking{}, line.TrackingID, "tracking"); err != nil {
		return err
	}
	line.MontantHT = line.Amount()
	return db.Save(line).Error
}

// SetNumbers stores the delivery, order and invoice numbers that are not empty.
func (s *TrackingService) SetNumbers(ctx context.Context, t *models.QuoteTracking, bl, bc, invoice string) error {
	updates := map[string]any{}
	if bl != "" {
		t.BLNumber = bl
		updates["bl_number"] = bl
	}
	if bc != "" {
		t.BCNumber = bc
		updates["bc_number"] = bc
	}
	if invoice != "" {
		t.InvoiceNumber = invoice
		updates["invoice_number"] = invoice
	}
	if len(updates) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Model(&models.QuoteTracking{}).Where("id = ?", t.ID).Updates(updates).Error
}

func (s *TrackingService) reload(ctx context.Context, t *models.QuoteTracking) error {
	fresh, err := s.Get(ctx, t.ID)
	if err != nil {
		return err
	}
	*t = *fresh
	return nil
}

// deleteTrackings removes the trackings matching the condition and their lines.
func deleteTrackings(tx *gorm.DB, query string, args ...any) error {
	var ids []uint
	if err := tx.Model(&models.QuoteTracking{}).Where(query, args...).Pluck("id", &ids).Error; err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	if err := tx.Where("tracking_id IN ?", ids).Delete(&models.QuoteTrackingLine{}).Error; err != nil {
		return err
	}
	return tx.Where("id IN ?", ids).Delete(&models.QuoteTracking{}).Error
}

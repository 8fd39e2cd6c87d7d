package services

import (
	"context"

	"github.com/diewo77/multisarl/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QuoteService keeps quote totals consistent with their lines. Every write
// and its recalculation commit in one transaction.
type QuoteService struct {
	db *gorm.DB
}

func NewQuoteService(db *gorm.DB) *QuoteService {
	return &QuoteService{db: db}
}

// Get loads a quote with its groups and lines.
func (s *QuoteService) Get(ctx context.Context, id uint) (*models.Quote, error) {
	var q models.Quote
	err := s.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Groups", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order, id") }).
		First(&q, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &q, nil
}

// Create inserts the quote and its nested lines, then computes the totals.
func (s *QuoteService) Create(ctx context.Context, q *models.Quote) error {
	if err := Validate(q); err != nil {
		return err
	}
	lines := q.Lines
	q.Lines = nil
	q.Groups = nil
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(q).Error; err != nil {
			return err
		}
		if err := insertLines(tx, q.ID, lines); err != nil {
			return err
		}
		return RecalculateQuote(tx, q.ID)
	})
	if err != nil {
		return err
	}
	return s.reload(ctx, q)
}

// Update saves the quote header. When lines is not nil the existing lines are
// replaced by the given ones.
func (s *QuoteService) Update(ctx context.Context, q *models.Quote, lines *[]models.QuoteLine) error {
	if lines != nil {
		q.Lines = *lines
	}
	if err := Validate(q); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(q).Error; err != nil {
			return err
		}
		if lines != nil {
			if err := tx.Where("quote_id = ?", q.ID).Delete(&models.QuoteLine{}).Error; err != nil {
				return err
			}
			if err := insertLines(tx, q.ID, *lines); err != nil {
				return err
			}
		}
		return RecalculateQuote(tx, q.ID)
	})
	if err != nil {
		return err
	}
	return s.reload(ctx, q)
}

// Delete removes the quote with its lines, groups and trackings.
func (s *QuoteService) Delete(ctx context.Context, id uint) (*models.Quote, error) {
	var q models.Quote
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&q, id).Error; err != nil {
			return notFound(err)
		}
		if err := deleteTrackings(tx, "quote_id = ?", id); err != nil {
			return err
		}
		if err := tx.Where("quote_id = ?", id).Delete(&models.QuoteLine{}).Error; err != nil {
			return err
		}
		if err := tx.Where("quote_id = ?", id).Delete(&models.QuoteGroup{}).Error; err != nil {
			return err
		}
		return tx.Delete(&q).Error
	})
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// SaveLine creates or updates a line and recalculates its quote. A line moved
// to another quote recalculates both.
func (s *QuoteService) SaveLine(ctx context.Context, line *models.QuoteLine) error {
	if err := Validate(line); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var previousQuote uint
		if line.ID != 0 {
			var old models.QuoteLine
			if err := tx.Select("quote_id").First(&old, line.ID).Error; err != nil {
				return notFound(err)
			}
			previousQuote = old.QuoteID
		}
		if err := ensureExists(tx, &models.Quote{}, line.QuoteID, "quote"); err != nil {
			return err
		}
		if line.GroupID != nil {
			var g models.QuoteGroup
			err := tx.Select("id", "quote_id").First(&g, *line.GroupID).Error
			if notFound(err) == ErrNotFound {
				return invalid("group", "does_not_exist")
			}
			if err != nil {
				return err
			}
			if g.QuoteID != line.QuoteID {
				return invalid("group", "quote_mismatch")
			}
		}
		line.MontantHT = line.Amount()
		if err := tx.Save(line).Error; err != nil {
			return err
		}
		if previousQuote != 0 && previousQuote != line.QuoteID {
			if err := RecalculateQuote(tx, previousQuote); err != nil {
				return err
			}
		}
		return RecalculateQuote(tx, line.QuoteID)
	})
}

// DeleteLine removes a line and recalculates its quote.
func (s *QuoteService) DeleteLine(ctx context.Context, id uint) (*models.QuoteLine, error) {
	var line models.QuoteLine
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&line, id).Error; err != nil {
			return notFound(err)
		}
		if err := tx.Delete(&line).Error; err != nil {
			return err
		}
		return RecalculateQuote(tx, line.QuoteID)
	})
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// SaveGroup creates or updates a section of an existing quote.
func (s *QuoteService) SaveGroup(ctx context.Context, g *models.QuoteGroup) error {
	if err := Validate(g); err != nil {
		return err
	}
	db := s.db.WithContext(ctx)
	if err := ensureExists(db, &models.Quote{}, g.QuoteID, "quote"); err != nil {
		return err
	}
	return db.Omit(clause.Associations).Save(g).Error
}

// DeleteGroup removes a group. Its lines stay on the quote without a group.
func (s *QuoteService) DeleteGroup(ctx context.Context, id uint) (*models.QuoteGroup, error) {
	var g models.QuoteGroup
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&g, id).Error; err != nil {
			return notFound(err)
		}
		if err := tx.Model(&models.QuoteLine{}).Where("group_id = ?", id).Update("group_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&g).Error
	})
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// RecalculateQuote sets total_ht and total_ttc from the current lines.
// A missing quote is a no-op.
func RecalculateQuote(tx *gorm.DB, quoteID uint) error {
	var q models.Quote
	if err := tx.Select("id", "tva").First(&q, quoteID).Error; err != nil {
		if notFound(err) == ErrNotFound {
			return nil
		}
		return err
	}
	var amounts []decimal.Decimal
	if err := tx.Model(&models.QuoteLine{}).Where("quote_id = ?", quoteID).Pluck("montant_ht", &amounts).Error; err != nil {
		return err
	}
	q.ApplyTotals(amounts)
	return tx.Model(&models.Quote{}).Where("id = ?", quoteID).Updates(map[string]any{
		"total_ht":  q.TotalHT,
		"total_ttc": q.TotalTTC,
	}).Error
}

func insertLines(tx *gorm.DB, quoteID uint, lines []models.QuoteLine) error {
	for i := range lines {
		lines[i].ID = 0
		lines[i].QuoteID = quoteID
		lines[i].MontantHT = lines[i].Amount()
	}
	if len(lines) == 0 {
		return nil
	}
	return tx.Create(&lines).Error
}

func (s *QuoteService) reload(ctx context.Context, q *models.Quote) error {
	fresh, err := s.Get(ctx, q.ID)
	if err != nil {
		return err
	}
	*q = *fresh
	return nil
}

// ensureExists reports a validation error on field when the referenced row is missing.
func ensureExists(tx *gorm.DB, model any, id uint, field string) error {
	ok, err := exists(tx, model, id)
	if err != nil {
		return err
	}
	if !ok {
		return invalid(field, "does_not_exist")
	}
	return nil
}

// mustExist returns ErrNotFound when the row is missing.
func mustExist(tx *gorm.DB, model any, id uint) error {
	ok, err := exists(tx, model, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func exists(tx *gorm.DB, model any, id uint) (bool, error) {
	var count int64
	if err := tx.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Package services holds the write-side recalculations and the read-side
// financial aggregations of the back office.
package services

import (
	"errors"
	"sort"
	"strings"

	"github.com/diewo77/multisarl/internal/models"
	"github.com/diewo77/multisarl/internal/validation"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidMonth  = errors.New("invalid month")
	ErrNoPurchases   = errors.New("no purchases for the period")
	ErrPDFGeneration = errors.New("pdf generation failed")
)

// ValidationError carries field violations found at the write boundary.
type ValidationError struct {
	Violations validation.Violations
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Violations))
	for f, code := range e.Violations {
		fields = append(fields, f+"="+code)
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, ", ")
}

// Validate runs the record's own checks, if any.
func Validate(rec any) error {
	v, ok := rec.(models.Validator)
	if !ok {
		return nil
	}
	if violations := v.Validate(); !violations.Empty() {
		return &ValidationError{Violations: violations}
	}
	return nil
}

func invalid(field, code string) error {
	return &ValidationError{Violations: validation.Violations{field: code}}
}

// notFound maps gorm's record-not-found to ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// sum returns COALESCE(SUM(column), 0) over q, rounded to cents.
func sum(q *gorm.DB, column string) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	if err := q.Select("COALESCE(SUM(" + column + "), 0)").Row().Scan(&total); err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal.Round(2), nil
}

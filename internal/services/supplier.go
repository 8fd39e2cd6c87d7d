package services

import (
	"context"
	"fmt"
	"time"

	"github.com/diewo77/multisarl/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SupplierStats struct {
	MonthlyTotal decimal.Decimal `json:"monthly_total"`
	YearlyTotal  decimal.Decimal `json:"yearly_total"`
}

// SupplierTotal is one row of the monthly purchase report.
type SupplierTotal struct {
	SupplierID   uint            `json:"supplier"`
	Name         string          `json:"name"`
	TypeSupplier string          `json:"type_supplier"`
	Invoices     int64           `json:"invoices"`
	Total        decimal.Decimal `json:"total"`
}

type SupplierReport struct {
	Year      int             `json:"year"`
	Month     int             `json:"month"`
	Suppliers []SupplierTotal `json:"suppliers"`
	Invoices  int64           `json:"invoices"`
	Total     decimal.Decimal `json:"total"`
}

type SupplierService struct {
	db *gorm.DB
}

func NewSupplierService(db *gorm.DB) *SupplierService {
	return &SupplierService{db: db}
}

// MonthlyStats sums supplier invoices for the month and the year containing now.
func (s *SupplierService) MonthlyStats(ctx context.Context, now time.Time) (*SupplierStats, error) {
	db := s.db.WithContext(ctx)
	first, last := models.MonthBounds(now.Year(), now.Month())
	var out SupplierStats
	var err error
	if out.MonthlyTotal, err = sum(db.Model(&models.SupplierInvoice{}).Where("date BETWEEN ? AND ?", first, last), "amount"); err != nil {
		return nil, fmt.Errorf("monthly total: %w", err)
	}
	jan := models.NewDate(now.Year(), time.January, 1)
	dec := models.NewDate(now.Year(), time.December, 31)
	if out.YearlyTotal, err = sum(db.Model(&models.SupplierInvoice{}).Where("date BETWEEN ? AND ?", jan, dec), "amount"); err != nil {
		return nil, fmt.Errorf("yearly total: %w", err)
	}
	return &out, nil
}

// MonthlyReport totals purchases per supplier for (year, month), sorted by supplier name.
// It returns ErrInvalidMonth for a month outside 1-12 and ErrNoPurchases when
// nothing was bought that month.
func (s *SupplierService) MonthlyReport(ctx context.Context, year, month int) (*SupplierReport, error) {
	if month < 1 || month > 12 {
		return nil, ErrInvalidMonth
	}
	first, last := models.MonthBounds(year, time.Month(month))

	var rows []struct {
		SupplierID   uint
		Name         string
		TypeSupplier string
		Invoices     int64
		Total        decimal.NullDecimal
	}
	err := s.db.WithContext(ctx).Model(&models.SupplierInvoice{}).
		Select("suppliers.id AS supplier_id, suppliers.name, suppliers.type_supplier, COUNT(supplier_invoices.id) AS invoices, SUM(supplier_invoices.amount) AS total").
		Joins("JOIN suppliers ON suppliers.id = supplier_invoices.supplier_id").
		Where("supplier_invoices.date BETWEEN ? AND ?", first, last).
		Group("suppliers.id, suppliers.name, suppliers.type_supplier").
		Order("suppliers.name, suppliers.id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoPurchases
	}

	report := &SupplierReport{Year: year, Month: month, Total: decimal.Zero}
	for _, r := range rows {
		total := r.Total.Decimal.Round(2)
		report.Suppliers = append(report.Suppliers, SupplierTotal{
			SupplierID:   r.SupplierID,
			Name:         r.Name,
			TypeSupplier: r.TypeSupplier,
			Invoices:     r.Invoices,
			Total:        total,
		})
		report.Invoices += r.Invoices
		report.Total = report.Total.Add(total)
	}
	return report, nil
}

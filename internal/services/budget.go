package services

import (
	"context"
	"fmt"
	"time"

	"github.com/diewo77/multisarl/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ExpenseDashboard summarises general expenses of one month.
type ExpenseDashboard struct {
	Period     Period                     `json:"period"`
	Total      decimal.Decimal            `json:"total"`
	ByCategory map[string]decimal.Decimal `json:"by_category"`
	Expenses   []models.GeneralExpense    `json:"expenses"`
}

type BudgetService struct {
	db *gorm.DB
}

func NewBudgetService(db *gorm.DB) *BudgetService {
	return &BudgetService{db: db}
}

// MonthlyDashboard lists the general expenses of (year, month) with per-category
// totals. Every category is present, with 0 when unused.
func (s *BudgetService) MonthlyDashboard(ctx context.Context, year int, month time.Month) (*ExpenseDashboard, error) {
	first, last := models.MonthBounds(year, month)
	out := &ExpenseDashboard{
		Period:     Period{Month: int(month), Year: year},
		Total:      decimal.Zero,
		ByCategory: make(map[string]decimal.Decimal, len(models.ExpenseCategories)),
		Expenses:   []models.GeneralExpense{},
	}
	for _, c := range models.ExpenseCategories {
		out.ByCategory[c] = decimal.Zero
	}

	err := s.db.WithContext(ctx).
		Where("date BETWEEN ? AND ?", first, last).
		Order("date DESC, id DESC").
		Find(&out.Expenses).Error
	if err != nil {
		return nil, fmt.Errorf("list general expenses: %w", err)
	}
	for _, e := range out.Expenses {
		out.ByCategory[e.Category] = out.ByCategory[e.Category].Add(e.Amount)
		out.Total = out.Total.Add(e.Amount)
	}
	return out, nil
}

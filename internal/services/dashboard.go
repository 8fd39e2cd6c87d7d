package services

import (
	"context"
	"fmt"
	"time"

	"github.com/diewo77/multisarl/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const recentLimit = 5

// KPIs is the payload of the dashboard.
type KPIs struct {
	TotalProjects       int64            `json:"total_projects"`
	ActiveProjects      int64            `json:"active_projects"`
	TotalQuotesAmount   decimal.Decimal  `json:"total_quotes_amount"`
	TotalInvoicesAmount decimal.Decimal  `json:"total_invoices_amount"`
	RecentProjects      []models.Project `json:"recent_projects"`
	RecentQuotes        []models.Quote   `json:"recent_quotes"`
	MonthlyEvolution    []MonthPoint     `json:"monthly_evolution"`
}

type DashboardService struct {
	db      *gorm.DB
	finance *FinanceService
}

func NewDashboardService(db *gorm.DB, finance *FinanceService) *DashboardService {
	return &DashboardService{db: db, finance: finance}
}

// KPIs computes the dashboard figures with the evolution series ending at now.
func (s *DashboardService) KPIs(ctx context.Context, now time.Time) (*KPIs, error) {
	db := s.db.WithContext(ctx)
	k := &KPIs{}
	if err := db.Model(&models.Project{}).Count(&k.TotalProjects).Error; err != nil {
		return nil, fmt.Errorf("count projects: %w", err)
	}
	if err := db.Model(&models.Project{}).Where("etat_projet = ?", models.ProjectInProgress).
		Count(&k.ActiveProjects).Error; err != nil {
		return nil, fmt.Errorf("count active projects: %w", err)
	}
	var err error
	if k.TotalQuotesAmount, err = sum(db.Model(&models.Quote{}), "total_ttc"); err != nil {
		return nil, fmt.Errorf("quotes amount: %w", err)
	}
	if k.TotalInvoicesAmount, err = sum(db.Model(&models.Invoice{}), "montant"); err != nil {
		return nil, fmt.Errorf("invoices amount: %w", err)
	}
	if err := db.Order("date_debut DESC, id DESC").Limit(recentLimit).Find(&k.RecentProjects).Error; err != nil {
		return nil, fmt.Errorf("recent projects: %w", err)
	}
	if err := db.Order("id DESC").Limit(recentLimit).Find(&k.RecentQuotes).Error; err != nil {
		return nil, fmt.Errorf("recent quotes: %w", err)
	}
	if k.MonthlyEvolution, err = s.finance.MonthlySeries(ctx, now.Year(), now.Month()); err != nil {
		return nil, fmt.Errorf("monthly evolution: %w", err)
	}
	return k, nil
}

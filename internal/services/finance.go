package services

import (
	"context"
	"fmt"
	"time"

	"github.com/diewo77/multisarl/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Labour cost policy names accepted by LABOUR_COST_POLICY.
const (
	LabourCostFlat    = "flat"
	LabourCostOverlap = "overlap"
)

// LabourCostPolicy computes the labour expense of one month.
type LabourCostPolicy interface {
	Name() string
	LabourCost(ctx context.Context, db *gorm.DB, year int, month time.Month) (decimal.Decimal, error)
}

// FlatLabourCost reads the manually entered MonthlyLabourCost row.
type FlatLabourCost struct{}

func (FlatLabourCost) Name() string { return LabourCostFlat }

func (FlatLabourCost) LabourCost(ctx context.Context, db *gorm.DB, year int, month time.Month) (decimal.Decimal, error) {
	return sum(db.WithContext(ctx).Model(&models.MonthlyLabourCost{}).
		Where("year = ? AND month = ?", year, int(month)), "amount")
}

// OverlapLabourCost is the legacy estimate: for every project running during
// the month, the days it overlaps the month times the daily salaries of its workers.
type OverlapLabourCost struct{}

func (OverlapLabourCost) Name() string { return LabourCostOverlap }

func (OverlapLabourCost) LabourCost(ctx context.Context, db *gorm.DB, year int, month time.Month) (decimal.Decimal, error) {
	first, last := models.MonthBounds(year, month)
	var projects []models.Project
	if err := projectsInPeriod(db.WithContext(ctx), first, last).Find(&projects).Error; err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, p := range projects {
		days := p.OverlapDays(first, last)
		if days <= 0 {
			continue
		}
		daily, err := sum(db.WithContext(ctx).Model(&models.ProjectWorker{}).Where("project_id = ?", p.ID), "daily_salary")
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(daily.Mul(decimal.NewFromInt(int64(days))))
	}
	return total.Round(2), nil
}

// LabourCostPolicyFor resolves a policy by name. An empty name selects flat.
func LabourCostPolicyFor(name string) (LabourCostPolicy, error) {
	switch name {
	case "", LabourCostFlat:
		return FlatLabourCost{}, nil
	case LabourCostOverlap:
		return OverlapLabourCost{}, nil
	default:
		return nil, fmt.Errorf("unknown labour cost policy %q", name)
	}
}

type Period struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

type RevenueSummary struct {
	Billed                 decimal.Decimal `json:"billed"`
	Unbilled               decimal.Decimal `json:"unbilled"`
	InProgress             decimal.Decimal `json:"in_progress"`
	ProjectAdvances        decimal.Decimal `json:"project_advances"`
	GrossMargin            decimal.Decimal `json:"gross_margin"`
	GrossMarginWithAdvance decimal.Decimal `json:"gross_margin_with_advance"`
}

type ExpenseBreakdown struct {
	Suppliers decimal.Decimal `json:"suppliers"`
	Labor     decimal.Decimal `json:"labor"`
	Other     decimal.Decimal `json:"other"`
}

type ExpenseSummary struct {
	Total     decimal.Decimal  `json:"total"`
	Breakdown ExpenseBreakdown `json:"breakdown"`
}

// Overview is the monthly financial overview of the firm.
type Overview struct {
	Period           Period          `json:"period"`
	Revenue          RevenueSummary  `json:"revenue"`
	Expenses         ExpenseSummary  `json:"expenses"`
	NetMargin        decimal.Decimal `json:"net_margin"`
	MarginPercentage decimal.Decimal `json:"margin_percentage"`
	LabourCostPolicy string          `json:"labour_cost_policy"`
}

// MonthPoint is one month of the evolution series.
type MonthPoint struct {
	Month        string          `json:"month"`
	QuotesCount  int64           `json:"quotes_count"`
	QuotesAmount decimal.Decimal `json:"quotes_amount"`
	Revenue      decimal.Decimal `json:"revenue"`
	Expenses     ExpenseSummary  `json:"expenses"`
	Margin       decimal.Decimal `json:"margin"`
}

// FinanceService aggregates revenue and expenses per calendar month. It only reads.
type FinanceService struct {
	db     *gorm.DB
	labour LabourCostPolicy
}

func NewFinanceService(db *gorm.DB, labour LabourCostPolicy) *FinanceService {
	if labour == nil {
		labour = FlatLabourCost{}
	}
	return &FinanceService{db: db, labour: labour}
}

// projectsInPeriod selects projects started before the end of the period and
// not finished before its start. Open-ended projects are included.
func projectsInPeriod(db *gorm.DB, first, last models.Date) *gorm.DB {
	return db.Model(&models.Project{}).
		Where("date_debut <= ?", last).
		Where("(date_fin >= ? OR date_fin IS NULL)", first)
}

// Overview computes the financial overview of (year, month).
func (s *FinanceService) Overview(ctx context.Context, year int, month time.Month) (*Overview, error) {
	first, last := models.MonthBounds(year, month)
	db := s.db.WithContext(ctx)

	var rev RevenueSummary
	var err error
	for status, dst := range map[string]*decimal.Decimal{
		models.BillingBilled:     &rev.Billed,
		models.BillingNotBilled:  &rev.Unbilled,
		models.BillingInProgress: &rev.InProgress,
	} {
		if *dst, err = sum(projectsInPeriod(db, first, last).Where("billing_status = ?", status), "budget_total"); err != nil {
			return nil, fmt.Errorf("revenue %s: %w", status, err)
		}
	}
	projectIDs := projectsInPeriod(db, first, last).Select("id")
	if rev.ProjectAdvances, err = sum(db.Model(&models.Revenue{}).Where("project_id IN (?)", projectIDs), "avance"); err != nil {
		return nil, fmt.Errorf("advances: %w", err)
	}
	rev.GrossMargin = rev.Billed.Add(rev.Unbilled).Add(rev.InProgress)
	rev.GrossMarginWithAdvance = rev.GrossMargin.Sub(rev.ProjectAdvances)

	expenses, err := s.expenses(ctx, year, month)
	if err != nil {
		return nil, err
	}

	out := &Overview{
		Period:           Period{Month: int(month), Year: year},
		Revenue:          rev,
		Expenses:         expenses,
		NetMargin:        rev.GrossMarginWithAdvance.Sub(expenses.Total),
		MarginPercentage: decimal.Zero,
		LabourCostPolicy: s.labour.Name(),
	}
	out.MarginPercentage = MarginPercentage(out.NetMargin, rev.GrossMargin)
	return out, nil
}

// MarginPercentage is net / gross × 100, or 0 when gross is not positive.
func MarginPercentage(net, gross decimal.Decimal) decimal.Decimal {
	if !gross.IsPositive() {
		return decimal.Zero
	}
	return net.Div(gross).Mul(decimal.NewFromInt(100)).Round(2)
}

func (s *FinanceService) expenses(ctx context.Context, year int, month time.Month) (ExpenseSummary, error) {
	first, last := models.MonthBounds(year, month)
	db := s.db.WithContext(ctx)
	var b ExpenseBreakdown
	var err error
	if b.Suppliers, err = sum(db.Model(&models.SupplierInvoice{}).Where("date BETWEEN ? AND ?", first, last), "amount"); err != nil {
		return ExpenseSummary{}, fmt.Errorf("supplier expenses: %w", err)
	}
	if b.Labor, err = s.labour.LabourCost(ctx, s.db, year, month); err != nil {
		return ExpenseSummary{}, fmt.Errorf("labour cost: %w", err)
	}
	if b.Other, err = sum(db.Model(&models.GeneralExpense{}).Where("date BETWEEN ? AND ?", first, last), "amount"); err != nil {
		return ExpenseSummary{}, fmt.Errorf("general expenses: %w", err)
	}
	return ExpenseSummary{Total: b.Suppliers.Add(b.Labor).Add(b.Other), Breakdown: b}, nil
}

// MonthlySeries returns the six calendar months ending at (year, month), oldest first.
func (s *FinanceService) MonthlySeries(ctx context.Context, year int, month time.Month) ([]MonthPoint, error) {
	ref := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	points := make([]MonthPoint, 0, 6)
	for i := 5; i >= 0; i-- {
		m := ref.AddDate(0, -i, 0)
		point, err := s.monthPoint(ctx, m.Year(), m.Month())
		if err != nil {
			return nil, err
		}
		points = append(points, point)
	}
	return points, nil
}

func (s *FinanceService) monthPoint(ctx context.Context, year int, month time.Month) (MonthPoint, error) {
	first, last := models.MonthBounds(year, month)
	db := s.db.WithContext(ctx)
	p := MonthPoint{Month: fmt.Sprintf("%04d-%02d", year, int(month))}

	if err := db.Model(&models.Quote{}).Where("date_livraison BETWEEN ? AND ?", first, last).Count(&p.QuotesCount).Error; err != nil {
		return p, err
	}
	var err error
	if p.QuotesAmount, err = sum(db.Model(&models.Quote{}).Where("date_livraison BETWEEN ? AND ?", first, last), "total_ttc"); err != nil {
		return p, err
	}
	overview, err := s.Overview(ctx, year, month)
	if err != nil {
		return p, err
	}
	p.Revenue = overview.Revenue.GrossMargin
	p.Expenses = overview.Expenses
	p.Margin = overview.NetMargin
	return p, nil
}

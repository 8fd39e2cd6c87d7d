package services

import (
	"context"

	"github.com/diewo77/multisarl/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var daysPerWeek = decimal.NewFromInt(7)

// PayrollService derives salary periods from employee rates and leaves.
type PayrollService struct {
	db *gorm.DB
}

func NewPayrollService(db *gorm.DB) *PayrollService {
	return &PayrollService{db: db}
}

// GetPeriod loads a period with its employee and leaves.
func (s *PayrollService) GetPeriod(ctx context.Context, id uint) (*models.SalaryPeriod, error) {
	var p models.SalaryPeriod
	err := s.db.WithContext(ctx).
		Preload("Employee").
		Preload("Leaves", func(db *gorm.DB) *gorm.DB { return db.Order("start_date, id") }).
		First(&p, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// CreatePeriod prorates the employee's weekly salary over the period:
// theoretical = salaire_semaine × days / 7, with days counted inclusively.
func (s *PayrollService) CreatePeriod(ctx context.Context, p *models.SalaryPeriod) error {
	if err := Validate(p); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var emp models.Employee
		if err := tx.First(&emp, p.EmployeeID).Error; err != nil {
			if notFound(err) == ErrNotFound {
				return invalid("employee", "does_not_exist")
			}
			return err
		}
		days := decimal.NewFromInt(int64(p.Days()))
		p.TheoreticalSalary = emp.SalaireSemaine.Mul(days).Div(daysPerWeek).Round(2)
		p.TotalDeductions = decimal.Zero
		p.RealSalary = p.TheoreticalSalary
		p.Leaves = nil
		if err := tx.Omit(clause.Associations).Create(p).Error; err != nil {
			return err
		}
		return RecalculatePeriod(tx, p.ID)
	})
	if err != nil {
		return err
	}
	return s.reload(ctx, p)
}

// UpdatePeriod saves the period dates while keeping the derived amounts
// server-side, then recomputes deductions.
func (s *PayrollService) UpdatePeriod(ctx context.Context, p *models.SalaryPeriod) error {
	if err := Validate(p); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var old models.SalaryPeriod
		if err := tx.First(&old, p.ID).Error; err != nil {
			return notFound(err)
		}
		if err := ensureExists(tx, &models.Employee{}, p.EmployeeID, "employee"); err != nil {
			return err
		}
		p.TheoreticalSalary = old.TheoreticalSalary
		p.TotalDeductions = old.TotalDeductions
		p.RealSalary = old.RealSalary
		if err := tx.Omit(clause.Associations).Save(p).Error; err != nil {
			return err
		}
		return RecalculatePeriod(tx, p.ID)
	})
	if err != nil {
		return err
	}
	return s.reload(ctx, p)
}

// DeletePeriod removes the period and the leaves linked to it.
func (s *PayrollService) DeletePeriod(ctx context.Context, id uint) (*models.SalaryPeriod, error) {
	var p models.SalaryPeriod
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&p, id).Error; err != nil {
			return notFound(err)
		}
		if err := tx.Where("salary_period_id = ?", id).Delete(&models.Leave{}).Error; err != nil {
			return err
		}
		return tx.Delete(&p).Error
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SaveLeave creates or updates a leave and recomputes the affected periods.
func (s *PayrollService) SaveLeave(ctx context.Context, l *models.Leave) error {
	if err := Validate(l); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return saveLeave(tx, l)
	})
}

func saveLeave(tx *gorm.DB, l *models.Leave) error {
	if err := ensureExists(tx, &models.Employee{}, l.EmployeeID, "employee"); err != nil {
		return err
	}
	if l.SalaryPeriodID != nil {
		var period models.SalaryPeriod
		err := tx.Select("id", "employee_id").First(&period, *l.SalaryPeriodID).Error
		if notFound(err) == ErrNotFound {
			return invalid("salary_period", "does_not_exist")
		}
		if err != nil {
			return err
		}
		if period.EmployeeID != l.EmployeeID {
			return invalid("salary_period", "employee_mismatch")
		}
	}
	var previous *uint
	if l.ID != 0 {
		var old models.Leave
		if err := tx.Select("id", "salary_period_id").First(&old, l.ID).Error; err != nil {
			return notFound(err)
		}
		previous = old.SalaryPeriodID
	}
	if err := tx.Omit(clause.Associations).Save(l).Error; err != nil {
		return err
	}
	if previous != nil && (l.SalaryPeriodID == nil || *previous != *l.SalaryPeriodID) {
		if err := RecalculatePeriod(tx, *previous); err != nil {
			return err
		}
	}
	if l.SalaryPeriodID != nil {
		return RecalculatePeriod(tx, *l.SalaryPeriodID)
	}
	return nil
}

// DeleteLeave removes a leave and recomputes its period.
func (s *PayrollService) DeleteLeave(ctx context.Context, id uint) (*models.Leave, error) {
	var l models.Leave
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&l, id).Error; err != nil {
			return notFound(err)
		}
		return deleteLeave(tx, &l)
	})
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func deleteLeave(tx *gorm.DB, l *models.Leave) error {
	if err := tx.Delete(l).Error; err != nil {
		return err
	}
	if l.SalaryPeriodID != nil {
		return RecalculatePeriod(tx, *l.SalaryPeriodID)
	}
	return nil
}

// RecalculatePeriod recomputes deductions and real salary from the linked
// leaves. A missing period is a no-op.
func RecalculatePeriod(tx *gorm.DB, periodID uint) error {
	var p models.SalaryPeriod
	if err := tx.First(&p, periodID).Error; err != nil {
		if notFound(err) == ErrNotFound {
			return nil
		}
		return err
	}
	var leaves []models.Leave
	if err := tx.Where("salary_period_id = ?", periodID).Find(&leaves).Error; err != nil {
		return err
	}
	p.ApplyDeductions(leaves)
	return tx.Model(&models.SalaryPeriod{}).Where("id = ?", periodID).Updates(map[string]any{
		"total_deductions": p.TotalDeductions,
		"real_salary":      p.RealSalary,
	}).Error
}

func (s *PayrollService) reload(ctx context.Context, p *models.SalaryPeriod) error {
	fresh, err := s.GetPeriod(ctx, p.ID)
	if err != nil {
		return err
	}
	*p = *fresh
	return nil
}

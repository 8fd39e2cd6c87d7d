package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/diewo77/multisarl/internal/validation"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Leave types.
const (
	LeavePaid    = "PAY"
	LeaveUnpaid  = "UNP"
	LeaveAbsence = "ABS"
)

// AutoLeaveMarker tags leaves generated from project attendance. Leaves
// without it are user-authored and never modified by attendance sync.
const AutoLeaveMarker = "Absence Projet"

// WorkDaysPerWeek divides the theoretical salary into a daily rate.
var WorkDaysPerWeek = decimal.NewFromInt(6)

// SalaryPeriod is the pay of one employee over a date range.
// RealSalary = TheoreticalSalary - TotalDeductions.
type SalaryPeriod struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	EmployeeID        uint            `gorm:"index;not null" json:"employee"`
	Employee          *Employee       `gorm:"foreignKey:EmployeeID;constraint:OnDelete:CASCADE" json:"-"`
	StartDate         Date            `gorm:"not null;index" json:"start_date"`
	EndDate           Date            `gorm:"not null;index" json:"end_date"`
	TheoreticalSalary decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"theoretical_salary"`
	TotalDeductions   decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"total_deductions"`
	RealSalary        decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"real_salary"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	Leaves            []Leave         `gorm:"foreignKey:SalaryPeriodID;constraint:OnDelete:CASCADE" json:"leaves"`

	EmployeeName   string `gorm:"-" json:"employee_name,omitempty"`
	EmployeePrenom string `gorm:"-" json:"employee_prenom,omitempty"`
}

func (SalaryPeriod) TableName() string   { return "salary_periods" }
func (p *SalaryPeriod) PrimaryKey() uint { return p.ID }
func (p *SalaryPeriod) String() string {
	return fmt.Sprintf("SalaryPeriod object (%d)", p.ID)
}

// AfterFind exposes the employee names when the employee was preloaded.
func (p *SalaryPeriod) AfterFind(*gorm.DB) error {
	if p.Employee != nil {
		p.EmployeeName = p.Employee.Nom
		p.EmployeePrenom = p.Employee.Prenom
	}
	return nil
}

func (p *SalaryPeriod) Validate() validation.Violations {
	v := validation.Violations{}
	validation.RequiredID("employee", p.EmployeeID, v)
	if p.StartDate.IsZero() {
		v["start_date"] = "required"
	}
	if p.EndDate.IsZero() {
		v["end_date"] = "required"
	} else if !p.StartDate.IsZero() && p.EndDate.Before(p.StartDate) {
		v["end_date"] = "before_start"
	}
	return v
}

// Days is the inclusive length of the period.
func (p *SalaryPeriod) Days() int {
	return p.StartDate.DaysUntil(p.EndDate) + 1
}

// DailyRate is the theoretical salary divided by the working days of a week.
func (p *SalaryPeriod) DailyRate() decimal.Decimal {
	return p.TheoreticalSalary.Div(WorkDaysPerWeek)
}

// ApplyDeductions recomputes deductions and real salary from the given leaves.
// Only unpaid leaves and absences are deducted.
func (p *SalaryPeriod) ApplyDeductions(leaves []Leave) {
	rate := p.DailyRate()
	deduction := decimal.Zero
	for _, l := range leaves {
		if !l.IsDeductible() {
			continue
		}
		deduction = deduction.Add(l.Duration.Mul(rate))
	}
	p.TotalDeductions = deduction.Round(2)
	p.RealSalary = p.TheoreticalSalary.Sub(p.TotalDeductions)
}

// Leave is a day-count absence of an employee, optionally inside a salary period.
type Leave struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	EmployeeID     uint            `gorm:"index;not null" json:"employee"`
	Employee       *Employee       `gorm:"foreignKey:EmployeeID;constraint:OnDelete:CASCADE" json:"-"`
	SalaryPeriodID *uint           `gorm:"index" json:"salary_period"`
	StartDate      Date            `gorm:"not null;index" json:"start_date"`
	EndDate        Date            `gorm:"not null" json:"end_date"`
	Type           string          `gorm:"size:3;not null" json:"type"`
	Duration       decimal.Decimal `gorm:"type:numeric(4,1);not null" json:"duration"`
	Reason         string          `gorm:"type:text" json:"reason,omitempty"`
}

func (Leave) TableName() string   { return "leaves" }
func (l *Leave) PrimaryKey() uint { return l.ID }
func (l *Leave) String() string   { return fmt.Sprintf("Leave object (%d)", l.ID) }

func (l *Leave) BeforeSave(*gorm.DB) error {
	if l.Type == "" {
		l.Type = LeaveUnpaid
	}
	return nil
}

func (l *Leave) Validate() validation.Violations {
	v := validation.Violations{}
	validation.RequiredID("employee", l.EmployeeID, v)
	if l.StartDate.IsZero() {
		v["start_date"] = "required"
	}
	if l.EndDate.IsZero() {
		v["end_date"] = "required"
	}
	if l.Type != "" {
		validation.OneOf("type", l.Type, v, LeavePaid, LeaveUnpaid, LeaveAbsence)
	}
	validation.NonNegative("duration", l.Duration, v)
	return v
}

// IsDeductible reports whether the leave reduces the salary.
func (l *Leave) IsDeductible() bool {
	return l.Type == LeaveUnpaid || l.Type == LeaveAbsence
}

// IsAutoGenerated reports whether the leave was created by attendance sync.
func (l *Leave) IsAutoGenerated() bool {
	return strings.Contains(l.Reason, AutoLeaveMarker)
}

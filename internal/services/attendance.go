package services

import (
	"context"
	"fmt"

	"github.com/diewo77/multisarl/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AttendanceService records worker attendance and mirrors absences of
// employees into auto-generated payroll leaves.
type AttendanceService struct {
	db *gorm.DB
}

func NewAttendanceService(db *gorm.DB) *AttendanceService {
	return &AttendanceService{db: db}
}

// Save creates or updates an attendance row and syncs the employee's leave.
func (s *AttendanceService) Save(ctx context.Context, a *models.ProjectWorkerAttendance) error {
	if err := Validate(a); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureExists(tx, &models.ProjectWorker{}, a.WorkerID, "worker"); err != nil {
			return err
		}
		if a.ID != 0 {
			if err := releaseMovedDay(tx, a); err != nil {
				return err
			}
		}
		if err := tx.Omit(clause.Associations).Save(a).Error; err != nil {
			return err
		}
		return syncAttendance(tx, a)
	})
}

// Delete removes an attendance row and its auto-generated leave.
func (s *AttendanceService) Delete(ctx context.Context, id uint) (*models.ProjectWorkerAttendance, error) {
	var a models.ProjectWorkerAttendance
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&a, id).Error; err != nil {
			return notFound(err)
		}
		if err := tx.Delete(&a).Error; err != nil {
			return err
		}
		worker, err := loadWorker(tx, a.WorkerID)
		if err != nil || worker == nil || worker.EmployeeID == nil {
			return err
		}
		return removeAutoLeave(tx, *worker.EmployeeID, a.Date)
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// releaseMovedDay drops the auto leave of the stored row when an update
// moves the attendance to another worker or day.
func releaseMovedDay(tx *gorm.DB, a *models.ProjectWorkerAttendance) error {
	var stored models.ProjectWorkerAttendance
	err := tx.Select("id", "worker_id", "date").First(&stored, a.ID).Error
	if notFound(err) == ErrNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	if stored.WorkerID == a.WorkerID && stored.Date.Time().Equal(a.Date.Time()) {
		return nil
	}
	worker, err := loadWorker(tx, stored.WorkerID)
	if err != nil || worker == nil || worker.EmployeeID == nil {
		return err
	}
	return removeAutoLeave(tx, *worker.EmployeeID, stored.Date)
}

func loadWorker(tx *gorm.DB, id uint) (*models.ProjectWorker, error) {
	var w models.ProjectWorker
	if err := tx.Preload("Project").First(&w, id).Error; err != nil {
		if notFound(err) == ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &w, nil
}

// syncAttendance keeps exactly one auto-generated leave per absent day.
// Workers without an employee are ignored.
func syncAttendance(tx *gorm.DB, a *models.ProjectWorkerAttendance) error {
	worker, err := loadWorker(tx, a.WorkerID)
	if err != nil || worker == nil || worker.EmployeeID == nil {
		return err
	}
	employeeID := *worker.EmployeeID
	if !a.IsAbsent() {
		return removeAutoLeave(tx, employeeID, a.Date)
	}

	projectName := ""
	if worker.Project != nil {
		projectName = worker.Project.NomProjet
	}
	reason := fmt.Sprintf("%s: %s (%s)", models.AutoLeaveMarker, projectName, a.StatusLabel())

	existing, err := findAutoLeave(tx, employeeID, a.Date)
	if err != nil {
		return err
	}
	if existing != nil {
		existing.Reason = reason
		return saveLeave(tx, existing)
	}

	leave := &models.Leave{
		EmployeeID: employeeID,
		StartDate:  a.Date,
		EndDate:    a.Date,
		Type:       models.LeaveAbsence,
		Duration:   decimal.NewFromInt(1),
		Reason:     reason,
	}
	var period models.SalaryPeriod
	err = tx.Where("employee_id = ? AND start_date <= ? AND end_date >= ?", employeeID, a.Date, a.Date).
		Order("start_date DESC").
		First(&period).Error
	switch {
	case err == nil:
		leave.SalaryPeriodID = &period.ID
	case notFound(err) != ErrNotFound:
		return err
	}
	return saveLeave(tx, leave)
}

func findAutoLeave(tx *gorm.DB, employeeID uint, day models.Date) (*models.Leave, error) {
	var l models.Leave
	err := tx.Where("employee_id = ? AND start_date = ? AND end_date = ? AND reason LIKE ?",
		employeeID, day, day, "%"+models.AutoLeaveMarker+"%").
		Order("id").
		First(&l).Error
	if notFound(err) == ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func removeAutoLeave(tx *gorm.DB, employeeID uint, day models.Date) error {
	l, err := findAutoLeave(tx, employeeID, day)
	if err != nil || l == nil {
		return err
	}
	return deleteLeave(tx, l)
}

package handlers

import (
	"context"

	"github.com/diewo77/multisarl/internal/models"
	"github.com/diewo77/multisarl/internal/services"
)

// SalaryPeriods derive their amounts server-side: theoretical, deducted and
// real salary sent by clients are ignored.
func SalaryPeriods(env Env, payroll *services.PayrollService) CRUD {
	res := newResource[models.SalaryPeriod](env, models.ModulePayroll, map[string]string{"employee": "employee_id"})
	res.Preload = []string{"Employee"}
	res.Order = "start_date DESC, id DESC"
	res.Get = payroll.GetPeriod
	res.Save = func(ctx context.Context, p *models.SalaryPeriod, created bool) error {
		p.Leaves = nil
		if created {
			return payroll.CreatePeriod(ctx, p)
		}
		return payroll.UpdatePeriod(ctx, p)
	}
	res.Delete = payroll.DeletePeriod
	return res
}

func Leaves(env Env, payroll *services.PayrollService) CRUD {
	res := newResource[models.Leave](env, models.ModulePayroll, map[string]string{
		"employee": "employee_id", "salary_period": "salary_period_id", "type": "type",
	})
	res.Order = "start_date DESC, id DESC"
	res.Save = func(ctx context.Context, l *models.Leave, _ bool) error {
		return payroll.SaveLeave(ctx, l)
	}
	res.Delete = payroll.DeleteLeave
	return res
}

// Attendance rows mirror absences of employees into payroll leaves.
func Attendance(env Env, attendance *services.AttendanceService) CRUD {
	res := newResource[models.ProjectWorkerAttendance](env, models.ModuleProjects, map[string]string{
		"worker": "worker_id", "status": "status",
	})
	res.Order = "date DESC, id DESC"
	res.Save = func(ctx context.Context, a *models.ProjectWorkerAttendance, _ bool) error {
		return attendance.Save(ctx, a)
	}
	res.Delete = attendance.Delete
	return res
}

package services

import (
	"context"
	"strings"
	"testing"

	"github.com/diewo77/multisarl/internal/models"
	"gorm.io/gorm"
)

func autoLeaves(t *testing.T, conn *gorm.DB, employeeID uint) []models.Leave {
	t.Helper()
	var leaves []models.Leave
	if err := conn.Where("employee_id = ? AND reason LIKE ?", employeeID, "%"+models.AutoLeaveMarker+"%").Find(&leaves).Error; err != nil {
		t.Fatal(err)
	}
	return leaves
}

func TestAttendanceService_SyncsAutoLeave(t *testing.T) {
	conn := openTestDB(t)
	project := seedProject(t, conn)
	e := seedEmployee(t, conn, "AT1", "600")
	period := seedPeriod(t, conn, e.ID, "600", models.NewDate(2024, 3, 1), models.NewDate(2024, 3, 7))
	worker := &models.ProjectWorker{ProjectID: project.ID, EmployeeID: &e.ID, DailySalary: dec("100")}
	mustCreate(t, conn, worker)

	svc := NewAttendanceService(conn)
	payroll := NewPayrollService(conn)
	ctx := context.Background()
	day := models.NewDate(2024, 3, 4)

	att := &models.ProjectWorkerAttendance{WorkerID: worker.ID, Date: day, Status: models.AttendanceAbsentUnjustified}
	if err := svc.Save(ctx, att); err != nil {
		t.Fatalf("Save absent: %v", err)
	}
	leaves := autoLeaves(t, conn, e.ID)
	if len(leaves) != 1 {
		t.Fatalf("auto leaves = %d, want 1", len(leaves))
	}
	l := leaves[0]
	if !l.Duration.Equal(dec("1")) || l.Type != models.LeaveAbsence || l.SalaryPeriodID == nil || *l.SalaryPeriodID != period.ID {
		t.Errorf("auto leave = %+v", l)
	}
	if !strings.Contains(l.Reason, project.NomProjet) {
		t.Errorf("reason %q does not name the project", l.Reason)
	}
	if got := reloadPeriod(t, payroll, period.ID); !got.RealSalary.Equal(dec("500")) {
		t.Errorf("real salary = %s, want 500", got.RealSalary)
	}

	// switching absence kind refreshes the reason, still one leave
	att.Status = models.AttendanceAbsentJustified
	if err := svc.Save(ctx, att); err != nil {
		t.Fatal(err)
	}
	leaves = autoLeaves(t, conn, e.ID)
	if len(leaves) != 1 || leaves[0].ID != l.ID || leaves[0].Reason == l.Reason {
		t.Errorf("after status change leaves = %+v", leaves)
	}

	att.Status = models.AttendancePresent
	if err := svc.Save(ctx, att); err != nil {
		t.Fatal(err)
	}
	if leaves := autoLeaves(t, conn, e.ID); len(leaves) != 0 {
		t.Errorf("auto leave kept after present: %+v", leaves)
	}
	if got := reloadPeriod(t, payroll, period.ID); !got.RealSalary.Equal(dec("600")) {
		t.Errorf("real salary = %s, want 600", got.RealSalary)
	}

	// present again with no leave is a no-op
	if err := svc.Save(ctx, att); err != nil {
		t.Errorf("present without leave: %v", err)
	}
}

func TestAttendanceService_KeepsUserLeavesAndDeletes(t *testing.T) {
	conn := openTestDB(t)
	project := seedProject(t, conn)
	e := seedEmployee(t, conn, "AT2", "600")
	worker := &models.ProjectWorker{ProjectID: project.ID, EmployeeID: &e.ID, DailySalary: dec("100")}
	mustCreate(t, conn, worker)
	day := models.NewDate(2024, 5, 2)
	manual := &models.Leave{EmployeeID: e.ID, StartDate: day, EndDate: day, Type: models.LeavePaid, Duration: dec("1"), Reason: "Congé"}
	mustCreate(t, conn, manual)

	svc := NewAttendanceService(conn)
	ctx := context.Background()
	att := &models.ProjectWorkerAttendance{WorkerID: worker.ID, Date: day, Status: models.AttendanceAbsentJustified}
	if err := svc.Save(ctx, att); err != nil {
		t.Fatal(err)
	}
	auto := autoLeaves(t, conn, e.ID)
	if len(auto) != 1 || auto[0].SalaryPeriodID != nil {
		t.Fatalf("auto leaves without period = %+v", auto)
	}

	if _, err := svc.Delete(ctx, att.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if auto := autoLeaves(t, conn, e.ID); len(auto) != 0 {
		t.Errorf("auto leave kept after attendance delete")
	}
	var kept models.Leave
	if err := conn.First(&kept, manual.ID).Error; err != nil {
		t.Errorf("user leave removed: %v", err)
	}
}

func TestAttendanceService_TemporaryWorkerIgnored(t *testing.T) {
	conn := openTestDB(t)
	project := seedProject(t, conn)
	worker := &models.ProjectWorker{ProjectID: project.ID, WorkerName: "Journalier", DailySalary: dec("80")}
	mustCreate(t, conn, worker)

	svc := NewAttendanceService(conn)
	att := &models.ProjectWorkerAttendance{WorkerID: worker.ID, Date: models.NewDate(2024, 3, 4), Status: models.AttendanceAbsentUnjustified}
	if err := svc.Save(context.Background(), att); err != nil {
		t.Fatal(err)
	}
	var n int64
	conn.Model(&models.Leave{}).Count(&n)
	if n != 0 {
		t.Errorf("leaves created for a worker without employee: %d", n)
	}
}

func TestAttendanceService_MovedRowReleasesOldDay(t *testing.T) {
	conn := openTestDB(t)
	project := seedProject(t, conn)
	e := seedEmployee(t, conn, "AT3", "600")
	period := seedPeriod(t, conn, e.ID, "600", models.NewDate(2024, 3, 1), models.NewDate(2024, 3, 7))
	worker := &models.ProjectWorker{ProjectID: project.ID, EmployeeID: &e.ID, DailySalary: dec("100")}
	mustCreate(t, conn, worker)

	svc := NewAttendanceService(conn)
	payroll := NewPayrollService(conn)
	ctx := context.Background()

	att := &models.ProjectWorkerAttendance{WorkerID: worker.ID, Date: models.NewDate(2024, 3, 4), Status: models.AttendanceAbsentUnjustified}
	if err := svc.Save(ctx, att); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		day      models.Date
		status   string
		wantDays []string
		wantReal string
	}{
		{"absent moved to another day", models.NewDate(2024, 3, 6), models.AttendanceAbsentUnjustified, []string{"2024-03-06"}, "500"},
		{"moved and present", models.NewDate(2024, 3, 5), models.AttendancePresent, nil, "600"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			moved := &models.ProjectWorkerAttendance{ID: att.ID, WorkerID: worker.ID, Date: tt.day, Status: tt.status}
			if err := svc.Save(ctx, moved); err != nil {
				t.Fatal(err)
			}
			leaves := autoLeaves(t, conn, e.ID)
			var days []string
			for _, l := range leaves {
				days = append(days, l.StartDate.String())
			}
			if strings.Join(days, ",") != strings.Join(tt.wantDays, ",") {
				t.Errorf("auto leave days = %v, want %v", days, tt.wantDays)
			}
			if got := reloadPeriod(t, payroll, period.ID); !got.RealSalary.Equal(dec(tt.wantReal)) {
				t.Errorf("real salary = %s, want %s", got.RealSalary, tt.wantReal)
			}
		})
	}
	var rows int64
	conn.Model(&models.ProjectWorkerAttendance{}).Count(&rows)
	if rows != 1 {
		t.Errorf("attendance rows = %d, want 1", rows)
	}
}

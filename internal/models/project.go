package models

import (
	"fmt"
	"time"

	"github.com/diewo77/multisarl/internal/validation"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Project status (etat_projet).
const (
	ProjectInProgress = "EN_COURS"
	ProjectDone       = "TERMINE"
	ProjectCancelled  = "ANNULE"
	ProjectPending    = "EN_ATTENTE"
)

// Project billing status.
const (
	BillingNotBilled  = "NON_FACTURE"
	BillingInProgress = "EN_COURS"
	BillingBilled     = "FACTURE"
)

// Project is a construction job for a client. Its budget feeds the financial overview.
type Project struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	NomProjet     string          `gorm:"size:255;not null" json:"nom_projet"`
	Description   string          `gorm:"type:text" json:"description,omitempty"`
	DateDebut     Date            `gorm:"not null;index" json:"date_debut"`
	DateFin       Date            `gorm:"index" json:"date_fin"`
	EtatProjet    string          `gorm:"size:20;not null;index" json:"etat_projet"`
	BillingStatus string          `gorm:"size:20;not null" json:"billing_status"`
	BudgetTotal   decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"budget_total"`
	ClientID      uint            `gorm:"index;not null" json:"client"`
	Client        *Client         `gorm:"foreignKey:ClientID;constraint:OnDelete:CASCADE" json:"-"`
	ChefProjet    string          `gorm:"size:255" json:"chef_projet,omitempty"`
}

func (Project) TableName() string   { return "projects" }
func (p *Project) PrimaryKey() uint { return p.ID }
func (p *Project) String() string   { return p.NomProjet }

func (p *Project) BeforeSave(*gorm.DB) error {
	if p.EtatProjet == "" {
		p.EtatProjet = ProjectPending
	}
	if p.BillingStatus == "" {
		p.BillingStatus = BillingNotBilled
	}
	return nil
}

func (p *Project) Validate() validation.Violations {
	v := validation.Violations{}
	validation.Required("nom_projet", p.NomProjet, v)
	validation.RequiredID("client", p.ClientID, v)
	validation.NonNegative("budget_total", p.BudgetTotal, v)
	if p.DateDebut.IsZero() {
		v["date_debut"] = "required"
	}
	if !p.DateFin.IsZero() && !p.DateDebut.IsZero() && p.DateFin.Before(p.DateDebut) {
		v["date_fin"] = "before_start"
	}
	if p.EtatProjet != "" {
		validation.OneOf("etat_projet", p.EtatProjet, v, ProjectInProgress, ProjectDone, ProjectCancelled, ProjectPending)
	}
	if p.BillingStatus != "" {
		validation.OneOf("billing_status", p.BillingStatus, v, BillingNotBilled, BillingInProgress, BillingBilled)
	}
	return v
}

// OverlapDays counts the days of [from, to] covered by the project, inclusive.
// A project without an end date runs until to.
func (p *Project) OverlapDays(from, to Date) int {
	start := p.DateDebut
	if start.Before(from) {
		start = from
	}
	end := p.DateFin
	if end.IsZero() || end.After(to) {
		end = to
	}
	if end.Before(start) {
		return 0
	}
	return start.DaysUntil(end) + 1
}

// ProjectHR is a planned human-resource allocation on a project.
type ProjectHR struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	ProjectID         uint            `gorm:"index;not null" json:"project"`
	EmployeeID        uint            `gorm:"index;not null" json:"employee"`
	NbrSalaries       int             `gorm:"not null" json:"nbr_salaries"`
	TauxAffectation   decimal.Decimal `gorm:"type:numeric(5,2);not null" json:"taux_affectation"`
	DureeMois         decimal.Decimal `gorm:"type:numeric(5,2);not null" json:"duree_mois"`
	NbrJoursMois      decimal.Decimal `gorm:"type:numeric(5,2);not null" json:"nbr_jours_mois"`
	SalaireJournalier decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"salaire_journalier"`
	CoutPartiel       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"cout_partiel"`
}

func (ProjectHR) TableName() string   { return "project_hr" }
func (h *ProjectHR) PrimaryKey() uint { return h.ID }
func (h *ProjectHR) String() string   { return fmt.Sprintf("ProjectHR object (%d)", h.ID) }

func (h *ProjectHR) Validate() validation.Violations {
	v := validation.Violations{}
	validation.RequiredID("project", h.ProjectID, v)
	validation.RequiredID("employee", h.EmployeeID, v)
	validation.NonNegativeInt("nbr_salaries", h.NbrSalaries, v)
	validation.NonNegative("taux_affectation", h.TauxAffectation, v)
	validation.NonNegative("salaire_journalier", h.SalaireJournalier, v)
	validation.NonNegative("cout_partiel", h.CoutPartiel, v)
	return v
}

// ProjectWorker is a worker assigned to a project, either an employee or a temporary hand.
type ProjectWorker struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	ProjectID   uint            `gorm:"index;not null" json:"project"`
	Project     *Project        `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"-"`
	EmployeeID  *uint           `gorm:"index" json:"employee"`
	Employee    *Employee       `gorm:"foreignKey:EmployeeID;constraint:OnDelete:SET NULL" json:"-"`
	WorkerName  string          `gorm:"size:255" json:"worker_name,omitempty"`
	DailySalary decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"daily_salary"`
}

func (ProjectWorker) TableName() string   { return "project_workers" }
func (w *ProjectWorker) PrimaryKey() uint { return w.ID }
func (w *ProjectWorker) String() string {
	if w.WorkerName != "" {
		return w.WorkerName
	}
	return fmt.Sprintf("ProjectWorker object (%d)", w.ID)
}

func (w *ProjectWorker) Validate() validation.Violations {
	v := validation.Violations{}
	validation.RequiredID("project", w.ProjectID, v)
	validation.NonNegative("daily_salary", w.DailySalary, v)
	if w.EmployeeID == nil && w.WorkerName == "" {
		v["worker_name"] = "required"
	}
	return v
}

// Attendance status.
const (
	AttendancePresent           = "PRESENT"
	AttendanceAbsentJustified   = "ABSENT_JUSTIFIED"
	AttendanceAbsentUnjustified = "ABSENT_UNJUSTIFIED"
)

var attendanceLabels = map[string]string{
	AttendancePresent:           "Présent",
	AttendanceAbsentJustified:   "Absent justifié",
	AttendanceAbsentUnjustified: "Absent injustifié",
}

// ProjectWorkerAttendance is one worker's status for one day.
type ProjectWorkerAttendance struct {
	ID       uint           `gorm:"primaryKey" json:"id"`
	WorkerID uint           `gorm:"not null;uniqueIndex:idx_attendance_worker_date" json:"worker"`
	Worker   *ProjectWorker `gorm:"foreignKey:WorkerID;constraint:OnDelete:CASCADE" json:"-"`
	Date     Date           `gorm:"not null;uniqueIndex:idx_attendance_worker_date" json:"date"`
	Status   string         `gorm:"size:20;not null" json:"status"`
}

func (ProjectWorkerAttendance) TableName() string   { return "project_worker_attendance" }
func (a *ProjectWorkerAttendance) PrimaryKey() uint { return a.ID }
func (a *ProjectWorkerAttendance) String() string {
	return fmt.Sprintf("ProjectWorkerAttendance object (%d)", a.ID)
}

func (a *ProjectWorkerAttendance) BeforeSave(*gorm.DB) error {
	if a.Status == "" {
		a.Status = AttendancePresent
	}
	return nil
}

func (a *ProjectWorkerAttendance) Validate() validation.Violations {
	v := validation.Violations{}
	validation.RequiredID("worker", a.WorkerID, v)
	if a.Date.IsZero() {
		v["date"] = "required"
	}
	if a.Status != "" {
		validation.OneOf("status", a.Status, v, AttendancePresent, AttendanceAbsentJustified, AttendanceAbsentUnjustified)
	}
	return v
}

// IsAbsent reports whether the status counts as an absence.
func (a *ProjectWorkerAttendance) IsAbsent() bool {
	return a.Status == AttendanceAbsentJustified || a.Status == AttendanceAbsentUnjustified
}

// StatusLabel returns the French display label of the status.
func (a *ProjectWorkerAttendance) StatusLabel() string {
	if l, ok := attendanceLabels[a.Status]; ok {
		return l
	}
	return a.Status
}

// ProjectCost is a computed cost line attached to a project.
type ProjectCost struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	ProjectID  uint            `gorm:"index;not null" json:"project"`
	TypeCout   string          `gorm:"size:100;not null" json:"type_cout"`
	Montant    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"montant"`
	DateCalcul Date            `gorm:"not null" json:"date_calcul"`
}

func (ProjectCost) TableName() string   { return "project_costs" }
func (c *ProjectCost) PrimaryKey() uint { return c.ID }
func (c *ProjectCost) String() string   { return fmt.Sprintf("ProjectCost object (%d)", c.ID) }

// BeforeCreate stamps the calculation date.
func (c *ProjectCost) BeforeCreate(*gorm.DB) error {
	if c.DateCalcul.IsZero() {
		c.DateCalcul = DateOf(time.Now())
	}
	return nil
}

func (c *ProjectCost) Validate() validation.Violations {
	v := validation.Violations{}
	validation.RequiredID("project", c.ProjectID, v)
	validation.Required("type_cout", c.TypeCout, v)
	validation.NonNegative("montant", c.Montant, v)
	return v
}

// Revenue records the advance received and the amount in progress for a project.
type Revenue struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	ProjectID      uint            `gorm:"index;not null" json:"project"`
	Avance         decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"avance"`
	MontantEnCours decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"montant_en_cours"`
}

func (Revenue) TableName() string   { return "revenues" }
func (r *Revenue) PrimaryKey() uint { return r.ID }
func (r *Revenue) String() string   { return fmt.Sprintf("Revenue object (%d)", r.ID) }

func (r *Revenue) Validate() validation.Violations {
	v := validation.Violations{}
	validation.RequiredID("project", r.ProjectID, v)
	validation.NonNegative("avance", r.Avance, v)
	validation.NonNegative("montant_en_cours", r.MontantEnCours, v)
	return v
}

// Expense is a project-scoped expense over a date range.
type Expense struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	ProjectID     uint            `gorm:"index;not null" json:"project"`
	DateDebut     Date            `gorm:"not null" json:"date_debut"`
	DateFin       Date            `gorm:"not null" json:"date_fin"`
	SousCategorie string          `gorm:"size:100;not null" json:"sous_categorie"`
	Montant       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"montant"`
}

func (Expense) TableName() string   { return "expenses" }
func (e *Expense) PrimaryKey() uint { return e.ID }
func (e *Expense) String() string   { return fmt.Sprintf("Expense object (%d)", e.ID) }

func (e *Expense) Validate() validation.Violations {
	v := validation.Violations{}
	validation.RequiredID("project", e.ProjectID, v)
	validation.Required("sous_categorie", e.SousCategorie, v)
	validation.NonNegative("montant", e.Montant, v)
	if e.DateDebut.IsZero() {
		v["date_debut"] = "required"
	}
	if e.DateFin.IsZero() {
		v["date_fin"] = "required"
	}
	return v
}

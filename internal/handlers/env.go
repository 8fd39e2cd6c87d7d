package handlers

import (
	"github.com/diewo77/multisarl/internal/audit"
	"github.com/diewo77/multisarl/internal/models"
	"github.com/diewo77/multisarl/internal/policy"
	"gorm.io/gorm"
)

// Env carries the dependencies shared by every resource.
type Env struct {
	DB    *gorm.DB
	Audit *audit.Recorder
	Gate  *policy.AuthGate
}

func newResource[T any, PT interface {
	*T
	models.Record
}](env Env, module string, filters map[string]string) *Resource[T, PT] {
	return &Resource[T, PT]{
		DB:      env.DB,
		Audit:   env.Audit,
		Gate:    env.Gate,
		Module:  module,
		Filters: filters,
	}
}

// Resources without dedicated write logic: the models validate themselves
// and gorm writes them as sent.

func Clients(env Env) CRUD {
	res := newResource[models.Client](env, models.ModuleClients, map[string]string{
		"statut": "statut", "type_client": "type_client", "ville": "ville",
	})
	res.Order = "nom_client, id"
	return res
}

func Projects(env Env) CRUD {
	return newResource[models.Project](env, models.ModuleProjects, map[string]string{
		"client": "client_id", "etat_projet": "etat_projet", "billing_status": "billing_status",
	})
}

func ProjectHR(env Env) CRUD {
	return newResource[models.ProjectHR](env, models.ModuleProjects, map[string]string{
		"project": "project_id", "employee": "employee_id",
	})
}

func ProjectCosts(env Env) CRUD {
	return newResource[models.ProjectCost](env, models.ModuleProjects, map[string]string{
		"project": "project_id", "type_cout": "type_cout",
	})
}

func Revenues(env Env) CRUD {
	return newResource[models.Revenue](env, models.ModuleProjects, map[string]string{"project": "project_id"})
}

func Expenses(env Env) CRUD {
	return newResource[models.Expense](env, models.ModuleProjects, map[string]string{
		"project": "project_id", "sous_categorie": "sous_categorie",
	})
}

func ProjectWorkers(env Env) CRUD {
	return newResource[models.ProjectWorker](env, models.ModuleProjects, map[string]string{
		"project": "project_id", "employee": "employee_id",
	})
}

func Employees(env Env) CRUD {
	res := newResource[models.Employee](env, models.ModuleBudget, map[string]string{"type": "type"})
	res.Order = "nom, prenom, id"
	return res
}

func Materials(env Env) CRUD {
	res := newResource[models.Material](env, models.ModuleBudget, nil)
	res.Order = "nom, id"
	return res
}

func MaterialCosts(env Env) CRUD {
	return newResource[models.MaterialCost](env, models.ModuleBudget, map[string]string{"material": "material_id"})
}

func GeneralExpenses(env Env) CRUD {
	res := newResource[models.GeneralExpense](env, models.ModuleBudget, map[string]string{"category": "category"})
	res.Order = "date DESC, id DESC"
	return res
}

func LabourCosts(env Env) CRUD {
	res := newResource[models.MonthlyLabourCost](env, models.ModuleBudget, map[string]string{
		"year": "year", "month": "month",
	})
	res.Order = "year DESC, month DESC"
	return res
}

func Suppliers(env Env) CRUD {
	res := newResource[models.Supplier](env, models.ModuleSuppliers, map[string]string{
		"type_supplier": "type_supplier", "category": "category",
	})
	res.Order = "name, id"
	return res
}

func SupplierInvoices(env Env) CRUD {
	res := newResource[models.SupplierInvoice](env, models.ModuleSuppliers, map[string]string{
		"supplier": "supplier_id", "status": "status",
	})
	res.Preload = []string{"Supplier"}
	res.Order = "date DESC, id DESC"
	return res
}

func Invoices(env Env) CRUD {
	res := newResource[models.Invoice](env, models.ModuleInvoices, map[string]string{"project": "project_id"})
	res.Order = "date DESC, id DESC"
	return res
}

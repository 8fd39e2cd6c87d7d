package db

import (
	"errors"
	"fmt"
	"log"

	"github.com/diewo77/multisarl/internal/auth"
	"github.com/diewo77/multisarl/internal/models"
	"gorm.io/gorm"
)

// SeedOptions controls the optional admin account.
// No admin is created when AdminPassword is empty.
type SeedOptions struct {
	AdminUsername string
	AdminPassword string
}

type flags struct{ read, write, update, delete bool }

var (
	full     = flags{true, true, true, true}
	readOnly = flags{read: true}
	editor   = flags{true, true, true, false}
)

// defaultRoles maps role name to per-module grants. Modules absent from a
// role get no permission row.
var defaultRoles = []struct {
	Name   string
	Grants map[string]flags
}{
	{
		Name:   "Administrateur",
		Grants: allModules(full),
	},
	{
		Name:   "Lecteur",
		Grants: allModules(readOnly),
	},
	{
		Name: "Comptable",
		Grants: map[string]flags{
			models.ModuleDashboard:     readOnly,
			models.ModuleClients:       readOnly,
			models.ModuleProjects:      readOnly,
			models.ModuleQuotes:        readOnly,
			models.ModuleInvoices:      full,
			models.ModuleSuppliers:     full,
			models.ModulePayroll:       full,
			models.ModuleBudget:        full,
			models.ModuleDocuments:     editor,
			models.ModuleNotifications: editor,
		},
	},
	{
		Name: "Chef de projet",
		Grants: map[string]flags{
			models.ModuleDashboard:           readOnly,
			models.ModuleClients:             editor,
			models.ModuleProjects:            editor,
			models.ModuleQuotes:              editor,
			models.ModuleQuoteLines:          full,
			models.ModuleQuoteGroups:         full,
			models.ModuleQuoteTrackings:      editor,
			models.ModuleQuoteTrackingLines:  full,
			models.ModuleQuoteTrackingGroups: full,
			models.ModuleHREstimation:        full,
			models.ModuleDocuments:           editor,
			models.ModuleNotifications:       editor,
		},
	},
}

func allModules(f flags) map[string]flags {
	out := make(map[string]flags, len(models.Modules))
	for _, m := range models.Modules {
		out[m] = f
	}
	return out
}

// Seed creates the default roles, their permissions, the company settings row
// and, when configured, a superuser. It is idempotent.
func Seed(db *gorm.DB, opts SeedOptions) error {
	if err := SeedRoles(db); err != nil {
		return err
	}
	if err := seedCompany(db); err != nil {
		return err
	}
	if opts.AdminPassword != "" {
		if err := SeedAdmin(db, opts.AdminUsername, opts.AdminPassword); err != nil {
			return err
		}
	}
	return nil
}

// SeedRoles creates missing roles and permission rows. Existing permission
// rows are left untouched so admin edits survive restarts.
func SeedRoles(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, r := range defaultRoles {
			role := models.Role{RoleName: r.Name}
			if err := tx.Where("role_name = ?", r.Name).FirstOrCreate(&role).Error; err != nil {
				return fmt.Errorf("seed role %s: %w", r.Name, err)
			}
			for module, f := range r.Grants {
				perm := models.Permission{
					RoleID:    role.ID,
					Module:    module,
					CanRead:   f.read,
					CanWrite:  f.write,
					CanUpdate: f.update,
					CanDelete: f.delete,
				}
				if err := tx.Where("role_id = ? AND module = ?", role.ID, module).
					Attrs(perm).
					FirstOrCreate(&models.Permission{}).Error; err != nil {
					return fmt.Errorf("seed permission %s/%s: %w", r.Name, module, err)
				}
			}
		}
		return nil
	})
}

// SeedAdmin creates the superuser if no user with that name exists.
func SeedAdmin(db *gorm.DB, username, password string) error {
	if username == "" {
		username = "admin"
	}
	var existing models.User
	err := db.Where("username = ?", username).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	admin := models.User{
		Username:    username,
		Password:    hash,
		IsActive:    true,
		IsStaff:     true,
		IsSuperuser: true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	log.Printf("[DB] created superuser %q", username)
	return nil
}

func seedCompany(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.CompanySettings{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	c := models.DefaultCompany()
	return db.Create(&c).Error
}

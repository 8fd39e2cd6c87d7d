package db

import (
	"embed"
	"errors"
	"fmt"
	"log"

	"github.com/diewo77/multisarl/internal/models"
	migrate "github.com/golang-migrate/migrate/v4"
	// Registers the postgres database driver for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Models lists every persisted entity in dependency order.
func Models() []any {
	return []any{
		// Auth & RBAC
		&models.User{}, &models.Role{}, &models.Permission{}, &models.UserRole{},
		// Clients & projects
		&models.Client{}, &models.Project{}, &models.Employee{},
		&models.ProjectHR{}, &models.ProjectWorker{}, &models.ProjectWorkerAttendance{},
		&models.ProjectCost{}, &models.Revenue{}, &models.Expense{},
		// Quotes
		&models.Quote{}, &models.QuoteGroup{}, &models.QuoteLine{},
		&models.QuoteTracking{}, &models.QuoteTrackingLine{},
		// Budget & payroll
		&models.Material{}, &models.MaterialCost{}, &models.GeneralExpense{}, &models.MonthlyLabourCost{},
		&models.SalaryPeriod{}, &models.Leave{},
		// Suppliers, invoices, documents
		&models.Supplier{}, &models.SupplierInvoice{}, &models.Invoice{}, &models.Document{},
		&models.EstimationRow{}, &models.Notification{}, &models.CompanySettings{},
		&models.AuditLog{},
	}
}

// Migrate runs AutoMigrate for all models. Used for sqlite and local development.
func Migrate(db *gorm.DB) error {
	for _, m := range Models() {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	return nil
}

// RunSQLMigrations applies the embedded SQL migrations with golang-migrate.
// databaseURL must be a postgres:// URL.
func RunSQLMigrations(databaseURL string) error {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return fmt.Errorf("init migrate: %w", err)
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	version, dirty, _ := m.Version()
	log.Printf("[DB] schema at version %d (dirty=%v)", version, dirty)
	return nil
}

// Prepare brings the schema up to date: SQL migrations on postgres when enabled,
// AutoMigrate otherwise. It then checks the core tables exist.
func Prepare(db *gorm.DB, driver, dsn string, sqlMigrations bool) error {
	if sqlMigrations && driver != "sqlite" {
		if err := RunSQLMigrations(ToURLDSN(NormalizeDSN(dsn))); err != nil {
			return fmt.Errorf("sql migrations failed: %w", err)
		}
	} else if err := Migrate(db); err != nil {
		return err
	}
	for _, table := range []string{"users", "roles", "permissions", "projects", "quotes"} {
		if !db.Migrator().HasTable(table) {
			return errors.New("missing table after migration: " + table)
		}
	}
	return nil
}

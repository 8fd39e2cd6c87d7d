package db

import (
	"fmt"
	"log"
	"time"

	"github.com/diewo77/multisarl/internal/config"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const connectAttempts = 10

// Open connects to the configured database, retrying while Postgres starts.
// Unique violations are translated to gorm.ErrDuplicatedKey.
func Open(cfg config.DatabaseConfig, debug bool) (*gorm.DB, error) {
	dsn := NormalizeDSN(cfg.ConnString())
	if dsn == "" {
		return nil, fmt.Errorf("empty database DSN, check DATABASE_DSN or DB_* variables")
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "", "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}

	log.Printf("[DB] driver=%s dsn=%s", cfg.Driver, MaskDSN(dsn))

	var (
		conn *gorm.DB
		err  error
	)
	for i := 0; i < connectAttempts; i++ {
		conn, err = gorm.Open(dialector, GormConfig(debug))
		if err == nil {
			break
		}
		log.Printf("[DB] attempt %d/%d failed: %v", i+1, connectAttempts, err)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database after retries: %w", err)
	}

	if pingErr := conn.Exec("SELECT 1").Error; pingErr != nil {
		return nil, fmt.Errorf("db ping failed: %w", pingErr)
	}
	return conn, nil
}

// GormConfig is shared by the server and the tests. The logger stays silent unless debug is set.
func GormConfig(debug bool) *gorm.Config {
	level := logger.Silent
	if debug {
		level = logger.Info
	}
	return &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	}
}

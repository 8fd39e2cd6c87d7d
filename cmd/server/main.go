package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diewo77/multisarl/internal/auth"
	"github.com/diewo77/multisarl/internal/blob"
	"github.com/diewo77/multisarl/internal/config"
	"github.com/diewo77/multisarl/internal/db"
	"github.com/diewo77/multisarl/internal/metrics"
	"github.com/diewo77/multisarl/internal/models"
	"github.com/diewo77/multisarl/internal/policy"
	"github.com/diewo77/multisarl/internal/services"
	"github.com/joho/godotenv"
)

var (
	migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")
	seedOnlyFlag    = flag.Bool("seed-only", false, "Run DB seed and exit")
)

const principalCacheTTL = 5 * time.Minute

func main() {
	flag.Parse()

	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg := config.Load()

	dbConn, err := db.Open(cfg.Database, cfg.App.Debug)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	seedOpts := db.SeedOptions{
		AdminUsername: cfg.Auth.AdminUsername,
		AdminPassword: cfg.Auth.AdminPassword,
	}

	if *migrateOnlyFlag {
		if err := db.Prepare(dbConn, cfg.Database.Driver, cfg.Database.ConnString(), cfg.App.Migrations); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Println("Migrations completed successfully")
		return
	}

	if *seedOnlyFlag {
		if err := db.Seed(dbConn, seedOpts); err != nil {
			log.Fatalf("Seeding failed: %v", err)
		}
		log.Println("Seeding completed successfully")
		return
	}

	if err := db.Prepare(dbConn, cfg.Database.Driver, cfg.Database.ConnString(), cfg.App.Migrations); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	if cfg.App.Seed {
		if err := db.Seed(dbConn, seedOpts); err != nil {
			log.Fatalf("Seeding failed: %v", err)
		}
	}

	labour, err := services.LabourCostPolicyFor(cfg.App.LabourCostPolicy)
	if err != nil {
		log.Fatalf("Invalid LABOUR_COST_POLICY: %v", err)
	}

	store, err := blob.Open(context.Background(), cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to open blob store: %v", err)
	}

	auth.SetSecret(cfg.Auth.SessionSecret)
	// Sessions and tokens of deleted or deactivated users are rejected.
	auth.SetUserVerifier(func(ctx context.Context, uid uint) bool {
		var count int64
		dbConn.WithContext(ctx).Model(&models.User{}).Where("id = ? AND is_active = ?", uid, true).Count(&count)
		return count > 0
	})

	authGate := policy.NewAuthGate(dbConn, principalCacheTTL)
	authGate.RegisterPolicy(models.ModuleNotifications, policy.NewOwnershipPolicy())

	appHandler := NewApp(Deps{
		DB:          dbConn,
		Gate:        authGate,
		Tokens:      auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL),
		Store:       store,
		Metrics:     metrics.New(),
		Labour:      labour,
		CORSOrigins: cfg.App.CORSOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      withLogging(appHandler),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		log.Printf("Server starting on port %s (dev=%v, labour=%s, blob=%s)",
			cfg.Server.Port, cfg.App.Dev, labour.Name(), store.Driver())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutdown signal received")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
	log.Println("Server stopped gracefully")
}

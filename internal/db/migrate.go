// Package db opens the local audit database and applies its schema.
package db

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/diewo77/eventdesk/internal/models"
	migrate "github.com/golang-migrate/migrate/v4"
	// The following blank imports register the postgres driver and file source for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Options configures Connect.
type Options struct {
	DSN   string
	Debug bool
	// SQLMigrations runs ./migrations through golang-migrate on postgres
	// instead of AutoMigrate.
	SQLMigrations bool
	MigrationsDir string
	Retries       int
	RetryDelay    time.Duration
	Logger        *slog.Logger
}

// Connect opens the database (postgres or sqlite), retrying postgres
// while it starts, and migrates the schema.
func Connect(o Options) (*gorm.DB, error) {
	dsn := NormalizeDSN(o.DSN)
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_DSN is empty")
	}
	log := o.Logger
	if log == nil {
		log = slog.Default()
	}
	logLevel := logger.Silent
	if o.Debug {
		logLevel = logger.Info
	}
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel)}

	pg := IsPostgres(dsn)
	attempts := 1
	if pg {
		attempts = o.Retries
		if attempts <= 0 {
			attempts = 10
		}
	}
	delay := o.RetryDelay
	if delay <= 0 {
		delay = 2 * time.Second
	}

	var db *gorm.DB
	var err error
	for i := 0; i < attempts; i++ {
		if pg {
			db, err = gorm.Open(postgres.Open(dsn), cfg)
		} else {
			db, err = gorm.Open(sqlite.Open(dsn), cfg)
		}
		if err == nil {
			break
		}
		log.Warn("retrying db connection", "attempt", i+1, "of", attempts, "err", err)
		time.Sleep(delay)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database after retries: %w", err)
	}
	if pingErr := db.Exec("SELECT 1").Error; pingErr != nil {
		return nil, fmt.Errorf("db ping failed: %w", pingErr)
	}
	log.Info("database connected", "dsn", MaskDSN(dsn), "postgres", pg)

	if pg && o.SQLMigrations {
		if err := RunSQLMigrations(o.MigrationsDir, dsn); err != nil {
			return nil, fmt.Errorf("sql migrations failed: %w", err)
		}
	} else if err := db.AutoMigrate(&models.AuditLog{}); err != nil {
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	if !db.Migrator().HasTable(&models.AuditLog{}) {
		return nil, errors.New("missing table after migration: audit_logs")
	}
	return db, nil
}

// RunSQLMigrations applies the SQL files in dir with golang-migrate.
func RunSQLMigrations(dir, dsn string) error {
	if dir == "" {
		dir = "migrations"
	}
	m, err := migrate.New("file://"+dir, dsn)
	if err != nil {
		return err
	}
	defer m.Close()
	if err = m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

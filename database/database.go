// Package database opens the gorm connection and prepares the schema.
package database

import (
	"context"
	"fmt"
	"time"

	"parkingapp/logs"
	"parkingapp/models"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Options struct {
	Driver        string // mysql|postgres|sqlite
	DSN           string
	MaxRetries    int
	RetryInterval time.Duration
	GinMode       string
}

func dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "mysql":
		return mysql.Open(dsn), nil
	case "postgres":
		return postgres.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Open connects with retries and applies the pool settings.
func Open(ctx context.Context, opts Options) (*gorm.DB, error) {
	dial, err := dialector(opts.Driver, opts.DSN)
	if err != nil {
		return nil, err
	}

	logLevel := logger.Info
	if opts.GinMode == "release" {
		logLevel = logger.Warn
	}
	maxRetries := opts.MaxRetries
	if maxRetries < 1 {
		maxRetries = 1
	}

	var db *gorm.DB
	for i := 0; i < maxRetries; i++ {
		db, err = gorm.Open(dial, &gorm.Config{
			Logger:         logger.Default.LogMode(logLevel),
			TranslateError: true,
			NowFunc:        func() time.Time { return time.Now().UTC() },
		})
		if err == nil {
			break
		}
		logs.Logger.Warnf("Failed to connect to database (attempt %d/%d): %v", i+1, maxRetries, err)
		if i < maxRetries-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(opts.RetryInterval):
			}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("open database after %d attempts: %w", maxRetries, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	if opts.Driver == "sqlite" {
		// An in-memory database lives as long as its one connection.
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	logs.Logger.Infof("Database initialized successfully with GORM (driver=%s)", opts.Driver)
	return db, nil
}

// MemoryDSN names a private in-memory SQLite database.
func MemoryDSN(name string) string {
	return fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=busy_timeout(5000)&_time_format=sqlite", name)
}

// OpenMemory opens and migrates an in-memory SQLite database.
func OpenMemory(ctx context.Context, name string) (*gorm.DB, error) {
	db, err := Open(ctx, Options{Driver: "sqlite", DSN: MemoryDSN(name), GinMode: "release"})
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		_ = Close(db)
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates every table the application uses.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.PermissionGroup{},
		&models.Account{},
		&models.Facility{},
		&models.Slot{},
		&models.Booking{},
		&models.JobRecord{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	logs.Logger.Info("Database migration completed")
	return nil
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

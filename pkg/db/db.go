package db

import (
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	pmlogger "github.com/thesabbir/phpmanager/pkg/logger"
)

const (
	DefaultDBPath = "/var/lib/phpmanager/phpmanager.db"
)

var (
	// Global DB instance
	DB *gorm.DB
)

// Config holds database configuration
type Config struct {
	Path string
}

// Initialize opens the database and sets the global instance
func Initialize(cfg *Config) error {
	if cfg == nil {
		cfg = &Config{Path: DefaultDBPath}
	}

	if cfg.Path == "" {
		cfg.Path = DefaultDBPath
	}

	db, err := Open(cfg.Path)
	if err != nil {
		return err
	}

	// Set database file permissions to owner-only (security)
	if err := os.Chmod(cfg.Path, 0600); err != nil {
		pmlogger.Warn("Failed to set database file permissions", "error", err)
	}

	DB = db
	pmlogger.Info("Database initialized", "path", cfg.Path)

	return nil
}

// Open opens and migrates the database at path without touching the global
// instance
func Open(path string) (*gorm.DB, error) {
	// Ensure directory exists with restricted permissions (owner only)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Configure GORM logger to use our structured logger
	gormLogger := logger.New(
		&gormLogAdapter{},
		logger.Config{
			SlowThreshold:             200, // Log slow queries (>200ms)
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying db: %w", err)
	}

	sqlDB.SetMaxOpenConns(1) // SQLite only supports 1 writer
	sqlDB.SetMaxIdleConns(1)

	if err := db.AutoMigrate(
		&Feature{},
		&HandlerMapping{},
		&FastCgiApplication{},
		&EnvironmentVariable{},
		&DefaultDocument{},
		&AuditLog{},
		&Transaction{},
		&APIKey{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// Close closes the database connection
func Close() error {
	if DB == nil {
		return nil
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

// gormLogAdapter adapts GORM logger to our structured logger
type gormLogAdapter struct{}

func (l *gormLogAdapter) Printf(format string, args ...interface{}) {
	pmlogger.Debug(fmt.Sprintf(format, args...))
}

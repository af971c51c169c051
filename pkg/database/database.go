package database

import (
	"fmt"

	"tempo-api/internal/model"
	"tempo-api/pkg/config"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// InitDB opens the configured store, applies pool settings and migrates the
// schema. The returned handle should be passed to the components that need
// it; the package-level DB exists for process wiring in cmd.
func InitDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := Open(&cfg.DB)
	if err != nil {
		return nil, err
	}

	// AutoMigrate will automatically create or update the table structure based on our models
	if err := db.AutoMigrate(
		&model.Tenant{},
		&model.User{},
		&model.UserScope{},
		&model.RotaWeek{},
		&model.RotaShift{},
		&model.Setting{},
		&model.Invite{},
		&model.PasswordReset{},
	); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	DB = db
	return db, nil
}

// Open connects to the store without touching the schema.
func Open(cfg *config.DBConfig) (*gorm.DB, error) {
	logLevel := cfg.LogLevel
	if logLevel == 0 {
		logLevel = logger.Warn
	}

	gormCfg := &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	}

	var (
		db  *gorm.DB
		err error
	)

	switch cfg.Driver {
	case "postgres":
		// DisableAutoPrepare prevents "prepared statement already exists" errors
		pgConfig := postgres.Config{
			DSN:                  cfg.GetDSN(),
			PreferSimpleProtocol: true,
		}
		db, err = gorm.Open(postgres.New(pgConfig), gormCfg)
	case "sqlite":
		db, err = gorm.Open(sqlite.Open(cfg.Path), gormCfg)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.Driver)
	}

	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get database connection: %w", err)
	}

	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	return db, nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}

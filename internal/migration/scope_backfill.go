package migration

import (
	"errors"
	"fmt"
	"os"

	"tempo-api/internal/model"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// OpenStore opens the sqlite data store for migration. The file must already
// exist: the migrator corrects legacy data, it never creates a store.
func OpenStore(path string) (*gorm.DB, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("data store not found at %s", path)
		}
		return nil, fmt.Errorf("stat data store: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open data store: %w", err)
	}
	return db, nil
}

// ScopeBackfill introduces the location/department scoping dimension into a
// dataset that predates it. Every step is idempotent, and the whole run
// executes inside one transaction: either all of it applies or none of it.
type ScopeBackfill struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewScopeBackfill(db *gorm.DB, log *zap.Logger) *ScopeBackfill {
	return &ScopeBackfill{db: db, log: log}
}

// scopeColumns is the fixed list of columns the migration introduces.
var scopeColumns = []struct {
	model interface{}
	field string
}{
	{&model.User{}, "Location"},
	{&model.User{}, "Department"},
	{&model.RotaWeek{}, "Location"},
	{&model.RotaWeek{}, "Department"},
	{&model.RotaShift{}, "Location"},
	{&model.RotaShift{}, "Department"},
}

// Run executes the backfill. Re-running after a successful run is a no-op.
func (m *ScopeBackfill) Run() error {
	return m.db.Transaction(func(tx *gorm.DB) error {
		if err := m.evolveSchema(tx); err != nil {
			return err
		}

		defaults, err := m.loadDefaults(tx)
		if err != nil {
			return err
		}
		m.log.Info("Computed scope defaults",
			zap.String("location", defaults.Location),
			zap.String("department", defaults.Department))

		if err := m.backfillUsers(tx, defaults); err != nil {
			return err
		}

		return m.backfillRota(tx, defaults)
	})
}

// evolveSchema adds the scope columns and the membership table, checking the
// existing schema first so a second run changes nothing.
func (m *ScopeBackfill) evolveSchema(tx *gorm.DB) error {
	for _, col := range scopeColumns {
		if tx.Migrator().HasColumn(col.model, col.field) {
			continue
		}
		if err := tx.Migrator().AddColumn(col.model, col.field); err != nil {
			return fmt.Errorf("add column %s: %w", col.field, err)
		}
	}

	if !tx.Migrator().HasTable(&model.UserScope{}) {
		if err := tx.Migrator().CreateTable(&model.UserScope{}); err != nil {
			return fmt.Errorf("create user_scopes table: %w", err)
		}
	}

	return nil
}

// loadDefaults reads the singleton settings row. A missing row yields the
// literal fallbacks; only selected columns are read so legacy settings
// tables with a narrower shape still work.
func (m *ScopeBackfill) loadDefaults(tx *gorm.DB) (ScopeDefaults, error) {
	var row struct {
		Data string
	}
	err := tx.Table("settings").Select("data").Where("id = ?", 1).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ScopeDefaults{Location: FallbackLocation, Department: FallbackDepartment}, nil
		}
		return ScopeDefaults{}, fmt.Errorf("read settings: %w", err)
	}
	return DeriveDefaults(row.Data), nil
}

// backfillUsers walks every user row, substitutes defaults for absent scope
// values, writes the resolved pair back and materializes the membership row.
// Row-at-a-time on purpose: only per-user rows can be translated 1:1 into
// scope-membership records.
func (m *ScopeBackfill) backfillUsers(tx *gorm.DB, defaults ScopeDefaults) error {
	var users []struct {
		ID         uint
		Location   *string
		Department *string
	}
	if err := tx.Table("users").Select("id", "location", "department").Order("id").Find(&users).Error; err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	for _, u := range users {
		location := defaults.Location
		if u.Location != nil && *u.Location != "" {
			location = *u.Location
		}
		department := defaults.Department
		if u.Department != nil && *u.Department != "" {
			department = *u.Department
		}

		err := tx.Table("users").Where("id = ?", u.ID).Updates(map[string]interface{}{
			"location":   location,
			"department": department,
		}).Error
		if err != nil {
			return fmt.Errorf("backfill user %d: %w", u.ID, err)
		}

		scope := model.UserScope{
			UserID:     u.ID,
			Location:   location,
			Department: department,
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&scope).Error; err != nil {
			return fmt.Errorf("record scope for user %d: %w", u.ID, err)
		}
	}

	m.log.Info("Backfilled user scopes", zap.Int("users", len(users)))
	return nil
}

// backfillRota rewrites blank scope values on rota rows in four set-based
// statements, touching only rows that fail the non-empty predicate.
func (m *ScopeBackfill) backfillRota(tx *gorm.DB, defaults ScopeDefaults) error {
	for _, table := range []string{"rota_weeks", "rota_shifts"} {
		result := tx.Table(table).
			Where("location IS NULL OR location = ''").
			Update("location", defaults.Location)
		if result.Error != nil {
			return fmt.Errorf("backfill %s location: %w", table, result.Error)
		}
		locations := result.RowsAffected

		result = tx.Table(table).
			Where("department IS NULL OR department = ''").
			Update("department", defaults.Department)
		if result.Error != nil {
			return fmt.Errorf("backfill %s department: %w", table, result.Error)
		}

		m.log.Info("Backfilled rota scopes",
			zap.String("table", table),
			zap.Int64("locations", locations),
			zap.Int64("departments", result.RowsAffected))
	}
	return nil
}

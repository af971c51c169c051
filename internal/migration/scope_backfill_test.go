package migration

import (
	"os"
	"path/filepath"
	"testing"

	"tempo-api/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// newLegacyStore creates a sqlite file shaped like a pre-scoping install:
// users carry a location column (partially filled) but no department column,
// rota_weeks has both columns with blanks, rota_shifts has neither.
func newLegacyStore(t *testing.T, withSettingsRow bool) (string, *gorm.DB) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "tempo.db")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	db, err := OpenStore(path)
	require.NoError(t, err)

	stmts := []string{
		`CREATE TABLE users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tenant_id INTEGER NOT NULL,
			email TEXT NOT NULL,
			password_hash TEXT,
			name TEXT,
			role TEXT DEFAULT 'staff',
			location TEXT
		)`,
		`CREATE TABLE rota_weeks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tenant_id INTEGER NOT NULL,
			week_start DATETIME,
			published INTEGER DEFAULT 0,
			location TEXT,
			department TEXT
		)`,
		`CREATE TABLE rota_shifts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tenant_id INTEGER NOT NULL,
			week_id INTEGER NOT NULL,
			user_id INTEGER,
			start_time DATETIME,
			end_time DATETIME
		)`,
		`CREATE TABLE settings (
			id INTEGER PRIMARY KEY,
			data TEXT
		)`,
		`INSERT INTO users (tenant_id, email, location) VALUES (1, 'a@t.test', 'Branch A')`,
		`INSERT INTO users (tenant_id, email, location) VALUES (1, 'b@t.test', NULL)`,
		`INSERT INTO users (tenant_id, email, location) VALUES (1, 'c@t.test', '')`,
		`INSERT INTO rota_weeks (tenant_id, location, department) VALUES (1, 'Branch A', 'Kitchen')`,
		`INSERT INTO rota_weeks (tenant_id, location, department) VALUES (1, '', NULL)`,
		`INSERT INTO rota_shifts (tenant_id, week_id) VALUES (1, 1)`,
		`INSERT INTO rota_shifts (tenant_id, week_id) VALUES (1, 2)`,
	}
	if withSettingsRow {
		stmts = append(stmts,
			`INSERT INTO settings (id, data) VALUES (1, '{"directories": {"locations": ["HQ"], "departments": []}}')`)
	}

	for _, stmt := range stmts {
		require.NoError(t, db.Exec(stmt).Error)
	}

	return path, db
}

type userState struct {
	ID         uint
	Email      string
	Location   *string
	Department *string
}

func loadUsers(t *testing.T, db *gorm.DB) []userState {
	t.Helper()
	var users []userState
	require.NoError(t, db.Table("users").Select("id", "email", "location", "department").Order("id").Find(&users).Error)
	return users
}

func loadScopes(t *testing.T, db *gorm.DB) []model.UserScope {
	t.Helper()
	var scopes []model.UserScope
	require.NoError(t, db.Order("user_id").Find(&scopes).Error)
	return scopes
}

func strptr(t *testing.T, p *string) string {
	t.Helper()
	require.NotNil(t, p)
	return *p
}

func TestScopeBackfill_Run(t *testing.T) {
	_, db := newLegacyStore(t, true)

	require.NoError(t, NewScopeBackfill(db, zap.NewNop()).Run())

	// Schema evolved
	assert.True(t, db.Migrator().HasColumn(&model.User{}, "Department"))
	assert.True(t, db.Migrator().HasColumn(&model.RotaShift{}, "Location"))
	assert.True(t, db.Migrator().HasTable(&model.UserScope{}))

	// Explicit user values preserved, absent ones defaulted
	users := loadUsers(t, db)
	require.Len(t, users, 3)
	assert.Equal(t, "Branch A", strptr(t, users[0].Location))
	assert.Equal(t, "general", strptr(t, users[0].Department))
	assert.Equal(t, "HQ", strptr(t, users[1].Location))
	assert.Equal(t, "general", strptr(t, users[1].Department))
	assert.Equal(t, "HQ", strptr(t, users[2].Location))
	assert.Equal(t, "general", strptr(t, users[2].Department))

	// One membership row per user, matching the resolved pair
	scopes := loadScopes(t, db)
	require.Len(t, scopes, 3)
	assert.Equal(t, model.UserScope{UserID: users[0].ID, Location: "Branch A", Department: "general", CreatedAt: scopes[0].CreatedAt}, scopes[0])
	assert.Equal(t, "HQ", scopes[1].Location)
	assert.Equal(t, "HQ", scopes[2].Location)

	// Rota blanks rewritten, explicit values untouched
	var weeks []struct {
		Location   string
		Department string
	}
	require.NoError(t, db.Table("rota_weeks").Select("location", "department").Order("id").Find(&weeks).Error)
	require.Len(t, weeks, 2)
	assert.Equal(t, "Branch A", weeks[0].Location)
	assert.Equal(t, "Kitchen", weeks[0].Department)
	assert.Equal(t, "HQ", weeks[1].Location)
	assert.Equal(t, "general", weeks[1].Department)

	var shifts []struct {
		Location   string
		Department string
	}
	require.NoError(t, db.Table("rota_shifts").Select("location", "department").Order("id").Find(&shifts).Error)
	require.Len(t, shifts, 2)
	for _, s := range shifts {
		assert.Equal(t, "HQ", s.Location)
		assert.Equal(t, "general", s.Department)
	}
}

func TestScopeBackfill_Idempotent(t *testing.T) {
	_, db := newLegacyStore(t, true)

	migrator := NewScopeBackfill(db, zap.NewNop())
	require.NoError(t, migrator.Run())

	firstUsers := loadUsers(t, db)
	firstScopes := loadScopes(t, db)

	// Second run must change nothing and raise no duplicate-key errors
	require.NoError(t, migrator.Run())

	assert.Equal(t, firstUsers, loadUsers(t, db))

	secondScopes := loadScopes(t, db)
	require.Len(t, secondScopes, len(firstScopes))
	for i := range firstScopes {
		assert.Equal(t, firstScopes[i].UserID, secondScopes[i].UserID)
		assert.Equal(t, firstScopes[i].Location, secondScopes[i].Location)
		assert.Equal(t, firstScopes[i].Department, secondScopes[i].Department)
	}
}

func TestScopeBackfill_MissingSettingsRowUsesFallbacks(t *testing.T) {
	_, db := newLegacyStore(t, false)

	require.NoError(t, NewScopeBackfill(db, zap.NewNop()).Run())

	users := loadUsers(t, db)
	require.Len(t, users, 3)
	assert.Equal(t, "default", strptr(t, users[1].Location))
	assert.Equal(t, "general", strptr(t, users[1].Department))
}

func TestScopeBackfill_RollsBackOnFailure(t *testing.T) {
	_, db := newLegacyStore(t, true)

	// Losing a rota table makes the schema step fail after the users table
	// has already been altered inside the transaction.
	require.NoError(t, db.Exec(`DROP TABLE rota_shifts`).Error)

	err := NewScopeBackfill(db, zap.NewNop()).Run()
	require.Error(t, err)

	// Nothing from the failed run survives
	assert.False(t, db.Migrator().HasColumn(&model.User{}, "Department"))
	assert.False(t, db.Migrator().HasTable(&model.UserScope{}))

	var locations []*string
	require.NoError(t, db.Table("users").Order("id").Pluck("location", &locations).Error)
	require.Len(t, locations, 3)
	assert.Nil(t, locations[1])
}

func TestScopeBackfill_RollsBackOnDataFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tempo.db")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	db, err := OpenStore(path)
	require.NoError(t, err)

	// Schema step will pass untouched, the user backfill will pass, and the
	// set-based rota rewrite will then trip the CHECK constraint.
	stmts := []string{
		`CREATE TABLE users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tenant_id INTEGER NOT NULL,
			email TEXT NOT NULL,
			location TEXT
		)`,
		`CREATE TABLE rota_weeks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tenant_id INTEGER NOT NULL,
			location TEXT,
			department TEXT
		)`,
		`CREATE TABLE rota_shifts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tenant_id INTEGER NOT NULL,
			week_id INTEGER NOT NULL,
			location TEXT,
			department TEXT CHECK (department IS NULL OR department <> 'general')
		)`,
		`CREATE TABLE settings (id INTEGER PRIMARY KEY, data TEXT)`,
		`INSERT INTO users (tenant_id, email, location) VALUES (1, 'a@t.test', NULL)`,
		`INSERT INTO rota_weeks (tenant_id, location, department) VALUES (1, '', '')`,
		`INSERT INTO rota_shifts (tenant_id, week_id, department) VALUES (1, 1, NULL)`,
	}
	for _, stmt := range stmts {
		require.NoError(t, db.Exec(stmt).Error)
	}

	err = NewScopeBackfill(db, zap.NewNop()).Run()
	require.Error(t, err)

	// The user mutations and the earlier rota_weeks rewrite are rolled back
	assert.False(t, db.Migrator().HasColumn(&model.User{}, "Department"))
	assert.False(t, db.Migrator().HasTable(&model.UserScope{}))

	var locations []*string
	require.NoError(t, db.Table("users").Pluck("location", &locations).Error)
	require.Len(t, locations, 1)
	assert.Nil(t, locations[0])

	var weekLocations []string
	require.NoError(t, db.Table("rota_weeks").Pluck("location", &weekLocations).Error)
	require.Len(t, weekLocations, 1)
	assert.Equal(t, "", weekLocations[0])
}

func TestOpenStore_MissingFile(t *testing.T) {
	_, err := OpenStore(filepath.Join(t.TempDir(), "absent.db"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "data store not found")
}

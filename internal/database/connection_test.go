package database

import (
	"testing"

	"github.com/franciscosanchezn/ia-platform-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSN(t *testing.T) {
	testCases := []struct {
		name     string
		cfg      DatabaseConfig
		expected string
	}{
		{
			name:     "sqlite uses the path",
			cfg:      DatabaseConfig{Driver: "sqlite", Path: "data.sqlite"},
			expected: "data.sqlite",
		},
		{
			name: "postgres builds a keyword DSN",
			cfg: DatabaseConfig{Driver: "postgres", Host: "db", Port: "5432", User: "app",
				Password: "pw", Name: "ia", SSLMode: "disable"},
			expected: "host=db user=app password=pw dbname=ia port=5432 sslmode=disable",
		},
		{
			name:     "unknown driver yields empty DSN",
			cfg:      DatabaseConfig{Driver: "oracle"},
			expected: "",
		},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.cfg.DSN())
		})
	}
}

func TestInMemory(t *testing.T) {
	assert.True(t, (&DatabaseConfig{Driver: "sqlite", Path: ":memory:"}).InMemory())
	assert.True(t, (&DatabaseConfig{Driver: "sqlite", Path: "file::memory:?cache=shared"}).InMemory())
	assert.False(t, (&DatabaseConfig{Driver: "sqlite", Path: "ia.sqlite"}).InMemory())
	assert.False(t, (&DatabaseConfig{Driver: "postgres"}).InMemory())
}

func TestStringMasksPassword(t *testing.T) {
	cfg := DatabaseConfig{Driver: "postgres", Password: "hunter2"}
	assert.NotContains(t, cfg.String(), "hunter2")
	assert.Contains(t, cfg.String(), "[REDACTED]")
}

func TestInitDatabaseRejectsUnknownDriver(t *testing.T) {
	_, err := InitDatabase(DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
}

func TestInitDatabaseMigrateAndSeed(t *testing.T) {
	db, err := InitDatabase(DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	defer Close(db)

	require.NoError(t, Migrate(db))
	require.NoError(t, SeedDemoData(db))

	var users []models.User
	require.NoError(t, db.Order("id").Find(&users).Error)
	require.Len(t, users, 2)
	assert.Equal(t, DemoAdminEmail, users[0].Email)
	assert.Equal(t, models.RoleAdmin, users[0].Role)
	assert.Equal(t, DemoUserEmail, users[1].Email)
	assert.Equal(t, models.RoleUser, users[1].Role)
	assert.True(t, users[0].CheckPassword("password"), "demo accounts use the documented password")
	assert.Nil(t, users[0].LastLogin)

	var catalog int64
	require.NoError(t, db.Model(&models.AIModel{}).Count(&catalog).Error)
	assert.EqualValues(t, 3, catalog)

	// Seeding twice is a no-op
	require.NoError(t, SeedDemoData(db))
	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)

	assert.NoError(t, Ping(db))
}

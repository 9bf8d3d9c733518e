package database

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opencallhq/opencall/internal/models"
	"github.com/opencallhq/opencall/pkg/crypto"
)

func TestAutoMigrateCreatesSchema(t *testing.T) {
	db, err := Open(Config{Driver: "sqlite"})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))

	for _, table := range MigratedTables {
		require.True(t, db.Migrator().HasTable(table), "expected table %s", table)
	}
}

func TestSeedAdminUser(t *testing.T) {
	db, err := Open(Config{Driver: "sqlite"})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))

	require.Error(t, SeedAdminUser(db, AdminSeed{Username: "admin"}), "missing password must be rejected")

	require.NoError(t, SeedAdminUser(db, AdminSeed{Username: "admin", Password: "Secret123!"}))

	var admin models.User
	require.NoError(t, db.First(&admin, "username = ?", "admin").Error)
	require.True(t, crypto.VerifyPassword(admin.Password, "Secret123!"))

	// seeding is a no-op once a user exists
	require.NoError(t, SeedAdminUser(db, AdminSeed{Username: "other", Password: "x"}))
	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

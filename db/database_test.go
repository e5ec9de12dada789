package db_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"initiativehub/config"
	"initiativehub/db"
	"initiativehub/db/dbtest"
	"initiativehub/models"
)

func TestOpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "ih.db")

	conn, err := db.Open(config.DatabaseConfig{Driver: "sqlite", DSN: path, LogLevel: "silent"}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))
	assert.FileExists(t, path)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := db.Open(config.DatabaseConfig{Driver: "oracle", DSN: "x"}, zap.NewNop())
	assert.Error(t, err)
}

func TestSeedIsIdempotent(t *testing.T) {
	conn := dbtest.New(t)
	admin := &db.Admin{Email: "root@example.com", Name: "Root", PasswordHash: "hash"}

	require.NoError(t, db.Seed(conn, admin))
	require.NoError(t, db.Seed(conn, admin))

	var statuses int64
	require.NoError(t, conn.Model(&models.ConfigItem{}).Where("category = ?", models.CategoryStatus).Count(&statuses).Error)
	assert.EqualValues(t, 5, statuses)

	var admins []models.User
	require.NoError(t, conn.Where("role = ?", models.RoleAdmin).Find(&admins).Error)
	require.Len(t, admins, 1)
	assert.Equal(t, "root@example.com", admins[0].Email)

	var title models.FieldConfiguration
	require.NoError(t, conn.Where("entity = ? AND field_name = ?", models.EntityInitiative, "title").First(&title).Error)
	assert.True(t, title.Required)
	assert.True(t, title.Visible)
}

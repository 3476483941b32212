package audit

import (
	"testing"

	"personel-backend/internal/database"
	"personel-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupDB(t *testing.T) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	database.DB = db
}

func TestRecordWritesEntry(t *testing.T) {
	setupDB(t)

	userID := uint(7)
	Record(Entry{
		UserID:    &userID,
		UserName:  "Test Admin",
		Action:    models.AuditActionCreateEmployee,
		TargetID:  "EMP0001",
		Payload:   map[string]any{"status": "active"},
		IP:        "10.0.0.5",
		UserAgent: "curl/8.0",
	})

	var logs []models.AuditLog
	require.NoError(t, database.DB.Find(&logs).Error)
	require.Len(t, logs, 1)

	entry := logs[0]
	require.NotNil(t, entry.UserID)
	assert.Equal(t, uint(7), *entry.UserID)
	assert.Equal(t, "Test Admin", entry.UserName)
	assert.Equal(t, models.AuditActionCreateEmployee, entry.Action)
	assert.Equal(t, "EMP0001", entry.TargetID)
	assert.JSONEq(t, `{"status":"active"}`, entry.Payload)
	assert.Equal(t, "10.0.0.5", entry.IP)
	assert.Equal(t, "curl/8.0", entry.UserAgent)
}

func TestRecordAnonymousActorAndEmptyPayload(t *testing.T) {
	setupDB(t)

	Record(Entry{
		Action:   models.AuditActionDeleteEmployee,
		TargetID: "EMP0002",
	})

	var entry models.AuditLog
	require.NoError(t, database.DB.First(&entry).Error)
	assert.Nil(t, entry.UserID)
	// Payload yoksa jsonb kolonuna "null" yazılır
	assert.Equal(t, "null", entry.Payload)
}

package audit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/bravo6co-debug/buzz-backend/pkg/db/models"
	"github.com/bravo6co-debug/buzz-backend/pkg/enums"
	"github.com/bravo6co-debug/buzz-backend/pkg/pagination"
)

func setupAuditTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.Exec(`DROP TABLE IF EXISTS audit_events`).Error)
	require.NoError(t, db.Exec(`
CREATE TABLE audit_events (
  id TEXT PRIMARY KEY,
  actor TEXT NOT NULL,
  action TEXT NOT NULL,
  subject TEXT NOT NULL,
  "before" TEXT,
  "after" TEXT,
  severity TEXT NOT NULL,
  occurred_at DATETIME NOT NULL,
  created_at DATETIME
);`).Error)
	return db
}

func seedEvents(t *testing.T, db *gorm.DB, n int) []models.AuditEvent {
	t.Helper()

	base := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	events := make([]models.AuditEvent, 0, n)
	for i := 0; i < n; i++ {
		event := models.AuditEvent{
			ID:         uuid.New(),
			Actor:      "kim.admin",
			Action:     enums.AuditActionSettingsUpdated,
			Subject:    fmt.Sprintf("budget_settings:%d", i),
			Severity:   enums.AuditSeverityInfo,
			OccurredAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, db.Create(&event).Error)
		events = append(events, event)
	}
	return events
}

func TestRepositoryListNewestFirstWithCursor(t *testing.T) {
	db := setupAuditTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seeded := seedEvents(t, db, 5)

	page, next, err := repo.List(ctx, listAuditEventsParams{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.NotNil(t, next)
	assert.Equal(t, seeded[4].Subject, page[0].Subject)
	assert.Equal(t, seeded[3].Subject, page[1].Subject)

	page, next, err = repo.List(ctx, listAuditEventsParams{Limit: 2, Cursor: next})
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.NotNil(t, next)
	assert.Equal(t, seeded[2].Subject, page[0].Subject)
	assert.Equal(t, seeded[1].Subject, page[1].Subject)

	page, next, err = repo.List(ctx, listAuditEventsParams{Limit: 2, Cursor: next})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Nil(t, next)
	assert.Equal(t, seeded[0].Subject, page[0].Subject)
}

func TestRepositoryListWithoutCursorReturnsAllUnderLimit(t *testing.T) {
	db := setupAuditTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seedEvents(t, db, 3)

	page, next, err := repo.List(ctx, listAuditEventsParams{Limit: pagination.DefaultLimit})
	require.NoError(t, err)
	assert.Len(t, page, 3)
	assert.Nil(t, next)
}

package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/opencallhq/opencall/internal/database/testutil"
	"github.com/opencallhq/opencall/internal/models"
	"github.com/opencallhq/opencall/internal/services"
)

func TestSummarySpec(t *testing.T) {
	require.Equal(t, "30 7 * * *", summarySpec("07:30"))
	require.Equal(t, "0 8 * * *", summarySpec(""))
	require.Equal(t, "0 8 * * *", summarySpec("25:00"))
	require.Equal(t, "0 8 * * *", summarySpec("nonsense"))
}

func TestCleanerRunOnceEnforcesRetention(t *testing.T) {
	db := testutil.MustOpenTestDB(t)

	audit, err := services.NewAuditService(db)
	require.NoError(t, err)
	settings, err := services.NewSettingsService(db, nil)
	require.NoError(t, err)

	// Default retention is 90 days.
	old := models.AuditLog{ActionType: models.ActionEmailSent, CreatedAt: time.Now().AddDate(0, 0, -120)}
	fresh := models.AuditLog{ActionType: models.ActionEmailSent, CreatedAt: time.Now()}
	require.NoError(t, db.Create(&old).Error)
	require.NoError(t, db.Create(&fresh).Error)

	cleaner := NewCleaner(db, settings, audit, nil)
	require.NoError(t, cleaner.RunOnce(context.Background()))

	var remaining int64
	require.NoError(t, db.Model(&models.AuditLog{}).Count(&remaining).Error)
	require.EqualValues(t, 1, remaining)
}

func TestCleanerStartAndReschedule(t *testing.T) {
	db := testutil.MustOpenTestDB(t)

	audit, err := services.NewAuditService(db)
	require.NoError(t, err)
	settings, err := services.NewSettingsService(db, nil)
	require.NoError(t, err)

	cleaner := NewCleaner(db, settings, audit, nil)
	require.NoError(t, cleaner.Start(context.Background()))
	t.Cleanup(func() { <-cleaner.Stop().Done() })

	entries := cleaner.Entries()
	require.Len(t, entries, 1)
	require.Contains(t, entries[0], "audit retention")

	rescheduled, err := cleaner.Reschedule(context.Background())
	require.NoError(t, err)
	require.Equal(t, entries, rescheduled)
}

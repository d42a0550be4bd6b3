package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aimd54/workout-achievements/internal/models"
)

func TestAwardRepository_InsertIsUnique(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAwardRepository(db)
	ctx := context.Background()

	start := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 7)
	newAward := func() *models.Award {
		return &models.Award{
			UserID:      "u1",
			Type:        models.AwardWeeklyPodium,
			Label:       "Weekly podium #1",
			PeriodStart: start,
			PeriodEnd:   end,
			Metadata:    map[string]interface{}{"rank": 1},
		}
	}

	ok, err := repo.Insert(ctx, newAward())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Insert(ctx, newAward())
	require.NoError(t, err)
	assert.False(t, ok)

	// Next period is a different award
	next := newAward()
	next.PeriodStart = end
	next.PeriodEnd = end.AddDate(0, 0, 7)
	ok, err = repo.Insert(ctx, next)
	require.NoError(t, err)
	assert.True(t, ok)

	awards, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, awards, 2)
	assert.True(t, awards[0].PeriodStart.Equal(end))

	count, err := repo.CountByType(ctx, models.AwardWeeklyPodium)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aimd54/workout-achievements/internal/models"
)

func TestResultRepository_UpsertMergesLists(t *testing.T) {
	db := setupTestDB(t)
	repo := NewResultRepository(db)
	ctx := context.Background()

	start := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 7)

	require.NoError(t, repo.Upsert(ctx, &models.PeriodResult{
		UserID:      "u1",
		PeriodType:  models.PeriodWeekly,
		PeriodStart: start,
		PeriodEnd:   end,
		TotalPoints: 900,
		Badges:      []string{"weekly-points-goal:1"},
	}))

	require.NoError(t, repo.Upsert(ctx, &models.PeriodResult{
		UserID:        "u1",
		PeriodType:    models.PeriodWeekly,
		PeriodStart:   start,
		PeriodEnd:     end,
		TotalPoints:   1100,
		PointsGoalMet: true,
		Badges:        []string{"weekly-challenge:1"},
	}))

	result, err := repo.Get(ctx, "u1", models.PeriodWeekly, start)
	require.NoError(t, err)
	assert.Equal(t, 1100.0, result.TotalPoints)
	assert.True(t, result.PointsGoalMet)
	assert.Equal(t, []string{"weekly-points-goal:1", "weekly-challenge:1"}, []string(result.Badges))

	var count int64
	require.NoError(t, db.Model(&models.PeriodResult{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestResultRepository_AppendAwards(t *testing.T) {
	db := setupTestDB(t)
	repo := NewResultRepository(db)
	ctx := context.Background()

	start := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Upsert(ctx, &models.PeriodResult{
		UserID:      "u1",
		PeriodType:  models.PeriodMonthly,
		PeriodStart: start,
		PeriodEnd:   start.AddDate(0, 1, 0),
	}))

	require.NoError(t, repo.AppendAwards(ctx, "u1", models.PeriodMonthly, start, []string{models.AwardMonthlyPodium}))
	require.NoError(t, repo.AppendAwards(ctx, "u1", models.PeriodMonthly, start,
		[]string{models.AwardMonthlyPodium, models.AwardMonthlyChampion}))

	// Unknown result is ignored
	require.NoError(t, repo.AppendAwards(ctx, "nobody", models.PeriodMonthly, start, []string{models.AwardMonthlyPodium}))

	results, err := repo.ListByUser(ctx, "u1", models.PeriodMonthly, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, []string{models.AwardMonthlyPodium, models.AwardMonthlyChampion}, []string(results[0].Awards))
}

func TestMergeStrings(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, mergeStrings([]string{"a", "b"}, []string{"b", "c", "a"}))
	assert.Equal(t, []string{}, mergeStrings(nil, nil))
}

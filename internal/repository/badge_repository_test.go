package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aimd54/workout-achievements/internal/models"
)

func createTestBadge(t *testing.T, repo *BadgeRepository, slug string, level int) *models.Badge {
	t.Helper()

	_, err := repo.EnsureBadges(context.Background(), []models.Badge{{
		Slug:     slug,
		Level:    level,
		Category: models.BadgeCategoryProgress,
		Label:    slug,
	}})
	if err != nil {
		t.Fatalf("Failed to create test badge: %v", err)
	}

	badge, err := repo.GetBySlugLevel(context.Background(), slug, level)
	if err != nil {
		t.Fatalf("Failed to load test badge: %v", err)
	}
	return badge
}

func TestBadgeRepository_EnsureBadgesIsImmutable(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBadgeRepository(db)
	ctx := context.Background()

	created, err := repo.EnsureBadges(ctx, []models.Badge{
		{Slug: "weekly-points-goal", Level: 1, Category: models.BadgeCategoryProgress, Label: "First week"},
		{Slug: "weekly-points-goal", Level: 5, Category: models.BadgeCategoryProgress, Label: "Five weeks"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), created)

	// Re-materializing with a changed label must not modify the stored row
	created, err = repo.EnsureBadges(ctx, []models.Badge{
		{Slug: "weekly-points-goal", Level: 1, Category: models.BadgeCategoryProgress, Label: "Renamed"},
		{Slug: "weekly-points-goal", Level: 10, Category: models.BadgeCategoryProgress, Label: "Ten weeks"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created)

	badge, err := repo.GetBySlugLevel(ctx, "weekly-points-goal", 1)
	require.NoError(t, err)
	assert.Equal(t, "First week", badge.Label)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int{1, 5, 10}, []int{all[0].Level, all[1].Level, all[2].Level})
}

func TestBadgeRepository_IncrementProgress(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBadgeRepository(db)
	ctx := context.Background()
	week := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

	for want := 1; want <= 3; want++ {
		got, counted, err := repo.IncrementProgress(ctx, "u1", "weekly-challenge", week.AddDate(0, 0, 7*want))
		require.NoError(t, err)
		assert.True(t, counted)
		assert.Equal(t, want, got)
	}

	// Counters are per user and slug
	got, counted, err := repo.IncrementProgress(ctx, "u2", "weekly-challenge", week)
	require.NoError(t, err)
	assert.True(t, counted)
	assert.Equal(t, 1, got)

	got, _, err = repo.IncrementProgress(ctx, "u1", "weekly-points-goal", week)
	require.NoError(t, err)
	assert.Equal(t, 1, got)

	counter, err := repo.GetProgress(ctx, "u1", "weekly-challenge")
	require.NoError(t, err)
	assert.Equal(t, 3, counter)

	counter, err = repo.GetProgress(ctx, "nobody", "weekly-challenge")
	require.NoError(t, err)
	assert.Equal(t, 0, counter)
}

func TestBadgeRepository_IncrementProgress_OncePerPeriod(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBadgeRepository(db)
	ctx := context.Background()
	week := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

	got, counted, err := repo.IncrementProgress(ctx, "u1", "weekly-points-goal", week)
	require.NoError(t, err)
	assert.True(t, counted)
	assert.Equal(t, 1, got)

	// The same period again leaves the counter alone
	got, counted, err = repo.IncrementProgress(ctx, "u1", "weekly-points-goal", week)
	require.NoError(t, err)
	assert.False(t, counted)
	assert.Equal(t, 1, got)

	// Equal instants in another zone are the same period
	paris := time.FixedZone("CET", 3600)
	got, counted, err = repo.IncrementProgress(ctx, "u1", "weekly-points-goal", week.In(paris))
	require.NoError(t, err)
	assert.False(t, counted)
	assert.Equal(t, 1, got)

	got, counted, err = repo.IncrementProgress(ctx, "u1", "weekly-points-goal", week.AddDate(0, 0, 7))
	require.NoError(t, err)
	assert.True(t, counted)
	assert.Equal(t, 2, got)
}

func TestBadgeRepository_AwardBadge(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBadgeRepository(db)
	ctx := context.Background()

	createTestUser(t, db, "u1", "alice")
	badge := createTestBadge(t, repo, "lifetime-pushups", 100)

	granted, err := repo.AwardBadge(ctx, "u1", badge.ID)
	require.NoError(t, err)
	require.NotNil(t, granted)
	assert.Equal(t, badge.ID, granted.BadgeID)
	assert.False(t, granted.EarnedAt.IsZero())

	// Idempotent: already awarded
	again, err := repo.AwardBadge(ctx, "u1", badge.ID)
	require.NoError(t, err)
	assert.Nil(t, again)

	has, err := repo.HasUserEarnedBadge(ctx, "u1", badge.ID)
	require.NoError(t, err)
	assert.True(t, has)

	userBadges, err := repo.GetUserBadges(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, userBadges, 1)
	assert.Equal(t, "lifetime-pushups", userBadges[0].Badge.Slug)
}

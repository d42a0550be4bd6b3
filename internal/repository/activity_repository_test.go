package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aimd54/workout-achievements/internal/models"
)

func TestActivityRepository_UserTotals(t *testing.T) {
	db := setupTestDB(t)
	repo := NewActivityRepository(db)
	ctx := context.Background()

	start := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 7)

	createTestUser(t, db, "a", "alice")
	createTestUser(t, db, "b", "bob")
	createTestUser(t, db, "c", "carol") // no workouts at all

	createTestWorkout(t, db, "a", start,
		models.WorkoutActivity{ActivityType: "pushups", Quantity: 50, Points: 100},
		models.WorkoutActivity{ActivityType: "running", Quantity: 5, Points: 200},
	)
	createTestWorkout(t, db, "a", start.Add(48*time.Hour),
		models.WorkoutActivity{ActivityType: "pushups", Quantity: 30, Points: 60},
	)
	// Exactly at the exclusive end
	createTestWorkout(t, db, "b", end,
		models.WorkoutActivity{ActivityType: "pushups", Quantity: 10, Points: 20},
	)
	// Before the window
	createTestWorkout(t, db, "b", start.Add(-time.Second),
		models.WorkoutActivity{ActivityType: "pushups", Quantity: 10, Points: 20},
	)

	rows, err := repo.UserTotals(ctx, start, end)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, UserTotalsRow{UserID: "a", TotalPoints: 360, TotalWorkouts: 2}, rows[0])
	assert.Equal(t, UserTotalsRow{UserID: "b", TotalPoints: 0, TotalWorkouts: 0}, rows[1])
	assert.Equal(t, UserTotalsRow{UserID: "c", TotalPoints: 0, TotalWorkouts: 0}, rows[2])

	activity, err := repo.ActivityTotals(ctx, start, end)
	require.NoError(t, err)
	byType := map[string]float64{}
	for _, row := range activity {
		assert.Equal(t, "a", row.UserID)
		byType[row.ActivityType] = row.Quantity
	}
	assert.Equal(t, map[string]float64{"pushups": 80, "running": 5}, byType)
}

func TestActivityRepository_LifetimeActivityTotals(t *testing.T) {
	db := setupTestDB(t)
	repo := NewActivityRepository(db)
	ctx := context.Background()

	until := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	createTestUser(t, db, "a", "alice")

	createTestWorkout(t, db, "a", until.AddDate(-1, 0, 0),
		models.WorkoutActivity{ActivityType: "pushups", Quantity: 40, Points: 80})
	createTestWorkout(t, db, "a", until.Add(-time.Hour),
		models.WorkoutActivity{ActivityType: "pushups", Quantity: 80, Points: 160})
	createTestWorkout(t, db, "a", until,
		models.WorkoutActivity{ActivityType: "pushups", Quantity: 1000, Points: 2000})

	rows, err := repo.LifetimeActivityTotals(ctx, until)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, ActivityTotalsRow{UserID: "a", ActivityType: "pushups", Quantity: 120}, rows[0])
}

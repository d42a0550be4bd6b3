package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/aimd54/workout-achievements/internal/models"
)

func TestParseWeeklyGoals(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantNil bool
		wantErr bool
	}{
		{name: "empty", raw: "", wantNil: true},
		{name: "null", raw: "null", wantNil: true},
		{name: "points only", raw: `{"points":{"target":1500}}`},
		{name: "exercises", raw: `{"exercises":[{"exerciseId":"pushups","target":100,"unit":"reps"}]}`},
		{name: "malformed", raw: `{"points":`, wantNil: true, wantErr: true},
		{name: "negative target", raw: `{"points":{"target":-1}}`, wantNil: true, wantErr: true},
		{name: "missing exercise id", raw: `{"exercises":[{"target":10}]}`, wantNil: true, wantErr: true},
		{
			name:    "duplicate exercise",
			raw:     `{"exercises":[{"exerciseId":"run","target":1},{"exerciseId":"run","target":2}]}`,
			wantNil: true,
			wantErr: true,
		},
		{
			name: "too many exercises",
			raw: `{"exercises":[{"exerciseId":"a","target":1},{"exerciseId":"b","target":1},` +
				`{"exerciseId":"c","target":1},{"exerciseId":"d","target":1},` +
				`{"exerciseId":"e","target":1},{"exerciseId":"f","target":1}]}`,
			wantNil: true,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			goals, err := ParseWeeklyGoals([]byte(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantNil, goals == nil)
		})
	}
}

func TestUserRepository_ListProfiles(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.User{ID: "b", DisplayName: "Bob",
		WeeklyGoals: datatypes.JSON(`{"points":{"target":-5}}`)}))
	require.NoError(t, repo.Create(ctx, &models.User{ID: "a", DisplayName: "Alice"}))
	require.NoError(t, repo.SetWeeklyGoals(ctx, "a", &models.WeeklyGoals{
		Points:    &models.PointsGoal{Target: 1200},
		Exercises: []models.ExerciseGoal{{ExerciseID: "pushups", Target: 100}},
	}))

	profiles, err := repo.ListProfiles(ctx)
	require.NoError(t, err)
	require.Len(t, profiles, 2)

	assert.Equal(t, "a", profiles[0].User.ID)
	require.NotNil(t, profiles[0].Goals)
	assert.Equal(t, 1200.0, profiles[0].Goals.Points.Target)
	assert.NoError(t, profiles[0].GoalsErr)

	assert.Equal(t, "b", profiles[1].User.ID)
	assert.Nil(t, profiles[1].Goals)
	assert.Error(t, profiles[1].GoalsErr)
}

func TestUserRepository_SetWeeklyGoalsRejectsInvalid(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.User{ID: "a", DisplayName: "Alice"}))
	err := repo.SetWeeklyGoals(ctx, "a", &models.WeeklyGoals{
		Exercises: []models.ExerciseGoal{{ExerciseID: "", Target: 10}},
	})
	assert.Error(t, err)
}

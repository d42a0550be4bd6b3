package digest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aimd54/workout-achievements/internal/models"
	"github.com/aimd54/workout-achievements/internal/notify"
	"github.com/aimd54/workout-achievements/pkg/logger"
	"github.com/aimd54/workout-achievements/test/mocks"
)

func weeklySummary(userID, email string) Summary {
	return Summary{
		UserID:           userID,
		Recipient:        email,
		DisplayName:      "Alice",
		PeriodType:       models.PeriodWeekly,
		PeriodStart:      time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC),
		PeriodEnd:        time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		TotalPoints:      1200,
		TotalWorkouts:    4,
		PointsTarget:     1000,
		PointsGoalMet:    true,
		HasExerciseGoals: true,
		Rank:             1,
		ParticipantCount: 2,
		Badges:           []string{"Points goal x1"},
		Awards:           []string{"Weekly friends leaderboard: 1st place"},
	}
}

func TestRender_Weekly(t *testing.T) {
	subject, body, err := Render(weeklySummary("u1", "alice@example.com"))
	require.NoError(t, err)

	assert.Equal(t, "Your week of Mar 3", subject)
	assert.Contains(t, body, "Hi Alice,")
	assert.Contains(t, body, "Mar 3 - Mar 9, 2025")
	assert.Contains(t, body, "Points: 1200 / 1000 (goal met: yes)")
	assert.Contains(t, body, "Weekly challenge: no")
	assert.Contains(t, body, "Exercise goals: no")
	assert.Contains(t, body, "Friends leaderboard: #1 of 2")
	assert.Contains(t, body, "  - Points goal x1")
	assert.Contains(t, body, "  - Weekly friends leaderboard: 1st place")
}

func TestRender_MonthlyAlone(t *testing.T) {
	subject, body, err := Render(Summary{
		UserID:           "u1",
		PeriodType:       models.PeriodMonthly,
		PeriodStart:      time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:        time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		TotalPoints:      300,
		Rank:             1,
		ParticipantCount: 1,
	})
	require.NoError(t, err)

	assert.Equal(t, "Your February 2025 recap", subject)
	assert.Contains(t, body, "Hi there,")
	assert.Contains(t, body, "Feb 28, 2025")
	assert.NotContains(t, body, "leaderboard")
	assert.NotContains(t, body, "Weekly challenge")
	assert.NotContains(t, body, "New badges")
}

func TestQueueSummaries_FailuresAreIsolated(t *testing.T) {
	queue := mocks.NewMockSummaryQueue()
	queue.QueueSummaryFunc = func(_ context.Context, userID, _, _, _ string) error {
		switch userID {
		case "u2":
			return errors.New("redis timeout")
		case "u3":
			return fmt.Errorf("%w: open", notify.ErrQueueUnavailable)
		}
		return nil
	}
	service := NewService(queue, logger.New("debug", "text", "stdout"))

	queued, failed := service.QueueSummaries(context.Background(), []Summary{
		weeklySummary("u1", "a@example.com"),
		weeklySummary("u2", "b@example.com"),
		weeklySummary("u3", "c@example.com"),
		weeklySummary("u4", ""),
		weeklySummary("u5", "e@example.com"),
	})

	assert.Equal(t, 2, queued)
	assert.Equal(t, 2, failed)

	sent := queue.Queued()
	require.Len(t, sent, 2)
	assert.Equal(t, "u1", sent[0].UserID)
	assert.Equal(t, "u5", sent[1].UserID)
	assert.Equal(t, "Your week of Mar 3", sent[1].Subject)
}

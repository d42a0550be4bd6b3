package leaderboard

import (
	"context"
	"fmt"
	"time"
)

// Standing is a user's recorded leaderboard position for one period.
type Standing struct {
	UserID           string    `json:"user_id"`
	Period           string    `json:"period"`
	PeriodStart      time.Time `json:"period_start"`
	PeriodEnd        time.Time `json:"period_end"`
	BestRank         int       `json:"best_rank"`
	Points           float64   `json:"points"`
	ParticipantCount int       `json:"participant_count"`
	Participants     []string  `json:"participants"`
	OnPodium         bool      `json:"on_podium"`
}

// GetStanding returns the stored snapshot of a user for a period.
func (s *Service) GetStanding(ctx context.Context, userID, periodType string, periodStart time.Time) (*Standing, error) {
	snapshot, err := s.snapshotRepo.GetSnapshot(ctx, userID, periodType, periodStart)
	if err != nil {
		return nil, fmt.Errorf("failed to get standing: %w", err)
	}

	standing := &Standing{
		UserID:           snapshot.UserID,
		Period:           snapshot.PeriodType,
		PeriodStart:      snapshot.PeriodStart,
		PeriodEnd:        snapshot.PeriodEnd,
		BestRank:         snapshot.BestRank,
		Points:           snapshot.Points,
		ParticipantCount: snapshot.ParticipantCount,
		Participants:     snapshot.Participants,
	}
	standing.OnPodium = EligibleForPodium(Entry{
		Rank:             standing.BestRank,
		Points:           standing.Points,
		ParticipantCount: standing.ParticipantCount,
	})
	return standing, nil
}

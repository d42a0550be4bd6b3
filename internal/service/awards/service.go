// Package awards grants periodic awards exactly once per user, type and period.
package awards

import (
	"context"
	"fmt"
	"time"

	prommetrics "github.com/aimd54/workout-achievements/internal/metrics"
	"github.com/aimd54/workout-achievements/internal/models"
	"github.com/aimd54/workout-achievements/pkg/logger"
)

// AwardRepository interface for award persistence.
type AwardRepository interface {
	Insert(ctx context.Context, award *models.Award) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]models.Award, error)
}

// Notifier delivers grant notifications.
type Notifier interface {
	Notify(ctx context.Context, userID, notificationType, title, message string, payload map[string]interface{}) error
}

// AwardInput describes an award to grant.
type AwardInput struct {
	Type        string
	Label       string
	PeriodStart time.Time
	PeriodEnd   time.Time
	Metadata    map[string]interface{}
}

// Service handles award granting.
type Service struct {
	awardRepo AwardRepository
	notifier  Notifier
	log       *logger.Logger
}

// NewService creates a new award service.
func NewService(awardRepo AwardRepository, notifier Notifier, log *logger.Logger) *Service {
	return &Service{awardRepo: awardRepo, notifier: notifier, log: log}
}

// GrantAward inserts the award unless the user already holds it for the period.
// Returns nil without error and without notifying on conflict.
func (s *Service) GrantAward(ctx context.Context, userID string, in AwardInput) (*models.Award, error) {
	award := &models.Award{
		UserID:      userID,
		Type:        in.Type,
		Label:       in.Label,
		PeriodStart: in.PeriodStart,
		PeriodEnd:   in.PeriodEnd,
		Metadata:    in.Metadata,
	}

	inserted, err := s.awardRepo.Insert(ctx, award)
	if err != nil {
		return nil, fmt.Errorf("failed to grant award %s: %w", in.Type, err)
	}
	if !inserted {
		s.log.Debug().
			Str("user_id", userID).
			Str("type", in.Type).
			Time("period_start", in.PeriodStart).
			Msg("Award already granted")
		return nil, nil
	}

	prommetrics.RecordAwardGranted(in.Type)
	s.log.Info().
		Str("user_id", userID).
		Str("type", in.Type).
		Time("period_start", in.PeriodStart).
		Msg("Award granted")

	payload := map[string]interface{}{
		"award_id":     award.ID,
		"award_type":   award.Type,
		"period_start": award.PeriodStart.UTC().Format(time.RFC3339),
		"period_end":   award.PeriodEnd.UTC().Format(time.RFC3339),
	}
	for k, v := range in.Metadata {
		payload[k] = v
	}
	if err := s.notifier.Notify(ctx, userID, models.NotificationAwardGranted, in.Label, awardMessage(in), payload); err != nil {
		prommetrics.RecordNotificationFailed(models.NotificationAwardGranted)
		s.log.Warn().Err(err).Str("user_id", userID).Str("type", in.Type).Msg("Failed to send award notification")
	}

	return award, nil
}

// GetUserAwards returns a user's awards, newest first.
func (s *Service) GetUserAwards(ctx context.Context, userID string) ([]models.Award, error) {
	return s.awardRepo.ListByUser(ctx, userID)
}

func awardMessage(in AwardInput) string {
	switch in.Type {
	case models.AwardWeeklyPodium:
		return fmt.Sprintf("You finished #%v among your friends for the week of %s.",
			in.Metadata["rank"], in.PeriodStart.Format("Jan 2"))
	case models.AwardMonthlyPodium:
		return fmt.Sprintf("You finished #%v among your friends in %s.",
			in.Metadata["rank"], in.PeriodStart.Format("January 2006"))
	case models.AwardMonthlyChampion:
		return fmt.Sprintf("You collected %v points in %s.",
			in.Metadata["points"], in.PeriodStart.Format("January 2006"))
	default:
		return in.Label
	}
}

// PodiumLabel returns the display label of a placement award.
func PodiumLabel(periodType string, rank int) string {
	place := map[int]string{1: "1st", 2: "2nd", 3: "3rd"}[rank]
	if periodType == models.PeriodMonthly {
		return fmt.Sprintf("Monthly friends leaderboard: %s place", place)
	}
	return fmt.Sprintf("Weekly friends leaderboard: %s place", place)
}

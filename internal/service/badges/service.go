// Package badges provides the badge catalog and idempotent badge granting.
package badges

import (
	"context"
	"fmt"
	"time"

	prommetrics "github.com/aimd54/workout-achievements/internal/metrics"
	"github.com/aimd54/workout-achievements/internal/models"
	"github.com/aimd54/workout-achievements/internal/repository"
	"github.com/aimd54/workout-achievements/pkg/logger"
)

// BadgeRepository interface for badge operations.
type BadgeRepository interface {
	IncrementProgress(ctx context.Context, userID, slug string, periodStart time.Time) (counter int, counted bool, err error)
	AwardBadge(ctx context.Context, userID, badgeID string) (*models.UserBadge, error)
	GetUserBadges(ctx context.Context, userID string) ([]models.UserBadge, error)
}

// Notifier delivers grant notifications.
type Notifier interface {
	Notify(ctx context.Context, userID, notificationType, title, message string, payload map[string]interface{}) error
}

// Grant is a newly created badge grant.
type Grant struct {
	Badge     models.Badge
	UserBadge *models.UserBadge
}

// Service handles badge granting.
type Service struct {
	catalog   *Catalog
	badgeRepo BadgeRepository
	notifier  Notifier
	log       *logger.Logger
}

// NewService creates a new badge service.
func NewService(catalog *Catalog, badgeRepo *repository.BadgeRepository, notifier Notifier, log *logger.Logger) *Service {
	return &Service{
		catalog:   catalog,
		badgeRepo: badgeRepo,
		notifier:  notifier,
		log:       log,
	}
}

// NewServiceWithInterfaces creates a new badge service with interface dependencies (useful for testing).
func NewServiceWithInterfaces(catalog *Catalog, badgeRepo BadgeRepository, notifier Notifier, log *logger.Logger) *Service {
	return &Service{
		catalog:   catalog,
		badgeRepo: badgeRepo,
		notifier:  notifier,
		log:       log,
	}
}

// Catalog returns the catalog the service grants from.
func (s *Service) Catalog() *Catalog {
	return s.catalog
}

// HandleProgress increments the user's counter for slug when achieved and grants
// every level equal to the counter value. A period advances the counter at most
// once; repeating it re-grants idempotently from the stored counter.
func (s *Service) HandleProgress(ctx context.Context, userID, slug string, periodStart time.Time, achieved bool) ([]Grant, error) {
	if !achieved {
		return nil, nil
	}

	counter, counted, err := s.badgeRepo.IncrementProgress(ctx, userID, slug, periodStart)
	if err != nil {
		return nil, fmt.Errorf("failed to increment badge progress: %w", err)
	}

	if !counted {
		s.log.Debug().
			Str("user_id", userID).
			Str("slug", slug).
			Time("period_start", periodStart).
			Msg("Badge progress already counted for period")
	} else {
		s.log.Debug().
			Str("user_id", userID).
			Str("slug", slug).
			Int("counter", counter).
			Msg("Badge progress incremented")
	}

	return s.grantAll(ctx, userID, levelsHitExactly(s.catalog.Levels(slug), counter))
}

// HandleLifetimeMilestones grants every lifetime level of an activity type that the
// running total has reached. Levels already held are skipped.
func (s *Service) HandleLifetimeMilestones(ctx context.Context, userID, activityType string, totalQuantity float64) ([]Grant, error) {
	slug, ok := s.catalog.ForActivity(activityType)
	if !ok {
		return nil, nil
	}
	return s.grantAll(ctx, userID, levelsReached(s.catalog.Levels(slug), totalQuantity))
}

func (s *Service) grantAll(ctx context.Context, userID string, levels []models.Badge) ([]Grant, error) {
	var grants []Grant
	for _, badge := range levels {
		userBadge, err := s.GrantBadge(ctx, userID, badge)
		if err != nil {
			return grants, err
		}
		if userBadge != nil {
			grants = append(grants, Grant{Badge: badge, UserBadge: userBadge})
		}
	}
	return grants, nil
}

// GrantBadge awards a badge once. Returns nil without error and without notifying
// when the user already holds it.
func (s *Service) GrantBadge(ctx context.Context, userID string, badge models.Badge) (*models.UserBadge, error) {
	userBadge, err := s.badgeRepo.AwardBadge(ctx, userID, badge.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to grant badge %s: %w", badge.Key(), err)
	}
	if userBadge == nil {
		return nil, nil
	}

	prommetrics.RecordBadgeGranted(badge.Slug, badge.Category)
	s.log.Info().
		Str("user_id", userID).
		Str("badge", badge.Key()).
		Msg("Badge granted")

	err = s.notifier.Notify(ctx, userID, models.NotificationBadgeEarned,
		"New badge: "+badge.Label, badge.Description,
		map[string]interface{}{
			"badge_id":    badge.ID,
			"badge_slug":  badge.Slug,
			"badge_level": badge.Level,
			"icon":        badge.Icon,
		})
	if err != nil {
		// The grant is committed; a lost notification is not retried
		prommetrics.RecordNotificationFailed(models.NotificationBadgeEarned)
		s.log.Warn().Err(err).Str("user_id", userID).Str("badge", badge.Key()).Msg("Failed to send badge notification")
	}

	return userBadge, nil
}

// GetUserBadges retrieves all badges earned by a user.
func (s *Service) GetUserBadges(ctx context.Context, userID string) ([]models.UserBadge, error) {
	return s.badgeRepo.GetUserBadges(ctx, userID)
}

// GetBadgeCatalog returns every catalog badge level.
func (s *Service) GetBadgeCatalog(_ context.Context) []models.Badge {
	return s.catalog.Badges()
}

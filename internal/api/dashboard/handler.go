// Package dashboard provides REST API handlers for reading achievement results.
// It exposes endpoints for period results, friends leaderboard standings, badges,
// awards and the in-app notification feed.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/aimd54/workout-achievements/internal/models"
	"github.com/aimd54/workout-achievements/internal/repository"
	"github.com/aimd54/workout-achievements/internal/service/awards"
	"github.com/aimd54/workout-achievements/internal/service/badges"
	"github.com/aimd54/workout-achievements/internal/service/leaderboard"
	"github.com/aimd54/workout-achievements/internal/service/period"
	"github.com/aimd54/workout-achievements/pkg/logger"
)

// BadgeService interface for badge reads.
type BadgeService interface {
	GetUserBadges(ctx context.Context, userID string) ([]models.UserBadge, error)
	GetBadgeCatalog(ctx context.Context) []models.Badge
}

// AwardService interface for award reads.
type AwardService interface {
	GetUserAwards(ctx context.Context, userID string) ([]models.Award, error)
}

// LeaderboardService interface for standing reads.
type LeaderboardService interface {
	GetStanding(ctx context.Context, userID, periodType string, periodStart time.Time) (*leaderboard.Standing, error)
}

// ResultStore interface for period result reads.
type ResultStore interface {
	ListByUser(ctx context.Context, userID, periodType string, limit int) ([]models.PeriodResult, error)
}

// NotificationStore interface for notification feed reads.
type NotificationStore interface {
	ListByUser(ctx context.Context, userID string, limit int) ([]models.Notification, error)
}

// Handler handles dashboard API requests.
type Handler struct {
	badgeService       BadgeService
	awardService       AwardService
	leaderboardService LeaderboardService
	results            ResultStore
	notifications      NotificationStore
	offsetMinutes      int
	log                *logger.Logger
}

// NewHandler creates a new dashboard handler.
func NewHandler(
	badgeService *badges.Service,
	awardService *awards.Service,
	leaderboardService *leaderboard.Service,
	results *repository.ResultRepository,
	notifications *repository.NotificationRepository,
	offsetMinutes int,
	log *logger.Logger,
) *Handler {
	return &Handler{
		badgeService:       badgeService,
		awardService:       awardService,
		leaderboardService: leaderboardService,
		results:            results,
		notifications:      notifications,
		offsetMinutes:      offsetMinutes,
		log:                log,
	}
}

// NewHandlerWithInterfaces creates a new dashboard handler with interface dependencies (useful for testing).
func NewHandlerWithInterfaces(
	badgeService BadgeService,
	awardService AwardService,
	leaderboardService LeaderboardService,
	results ResultStore,
	notifications NotificationStore,
	offsetMinutes int,
	log *logger.Logger,
) *Handler {
	return &Handler{
		badgeService:       badgeService,
		awardService:       awardService,
		leaderboardService: leaderboardService,
		results:            results,
		notifications:      notifications,
		offsetMinutes:      offsetMinutes,
		log:                log,
	}
}

// RegisterRoutes mounts the dashboard routes on a router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/badges", h.GetBadgeCatalog)
	rg.GET("/users/:id/results", h.GetUserResults)
	rg.GET("/users/:id/standing", h.GetUserStanding)
	rg.GET("/users/:id/badges", h.GetUserBadges)
	rg.GET("/users/:id/awards", h.GetUserAwards)
	rg.GET("/users/:id/notifications", h.GetUserNotifications)
}

// GetUserResults returns a user's period results, newest first.
// GET /api/v1/users/:id/results?period=weekly&limit=10.
func (h *Handler) GetUserResults(c *gin.Context) {
	userID, err := h.parseUserID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	periodType := c.Query("period")
	if periodType != "" {
		if err := h.validatePeriod(periodType); err != nil {
			h.errorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
	}

	limit, err := h.parseLimit(c, 10)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	results, err := h.results.ListByUser(c.Request.Context(), userID, periodType, limit)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to get user results")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve results")
		return
	}

	h.log.Debug().
		Str("user_id", userID).
		Str("period", periodType).
		Int("results", len(results)).
		Msg("Retrieved user results")

	c.JSON(http.StatusOK, gin.H{
		"user_id":       userID,
		"results":       results,
		"total_results": len(results),
		"generated_at":  time.Now().UTC(),
	})
}

// GetUserStanding returns a user's friends leaderboard position for the period
// preceding reference_date (default now).
// GET /api/v1/users/:id/standing?period=weekly&reference_date=2025-03-12T00:00:00Z.
func (h *Handler) GetUserStanding(c *gin.Context) {
	userID, err := h.parseUserID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	periodType := c.DefaultQuery("period", models.PeriodWeekly)
	if err := h.validatePeriod(periodType); err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	reference := time.Now()
	if raw := c.Query("reference_date"); raw != "" {
		reference, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			h.errorResponse(c, http.StatusBadRequest, fmt.Sprintf("invalid reference_date: %s", raw))
			return
		}
	}

	window := period.ResolveWeeklyWindow(reference, h.offsetMinutes)
	if periodType == models.PeriodMonthly {
		window = period.ResolveMonthlyWindow(reference, h.offsetMinutes)
	}

	standing, err := h.leaderboardService.GetStanding(c.Request.Context(), userID, periodType, window.UTCStart)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		h.errorResponse(c, http.StatusNotFound, "No standing recorded for this period")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to get user standing")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve standing")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"standing":     standing,
		"generated_at": time.Now().UTC(),
	})
}

// GetUserBadges returns badges earned by a specific user.
// GET /api/v1/users/:id/badges.
func (h *Handler) GetUserBadges(c *gin.Context) {
	userID, err := h.parseUserID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	userBadges, err := h.badgeService.GetUserBadges(c.Request.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to get user badges")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve user badges")
		return
	}

	h.log.Debug().
		Str("user_id", userID).
		Int("badge_count", len(userBadges)).
		Msg("Retrieved user badges")

	c.JSON(http.StatusOK, gin.H{
		"user_id":      userID,
		"badges":       userBadges,
		"total_badges": len(userBadges),
		"generated_at": time.Now().UTC(),
	})
}

// GetUserAwards returns awards granted to a specific user.
// GET /api/v1/users/:id/awards.
func (h *Handler) GetUserAwards(c *gin.Context) {
	userID, err := h.parseUserID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	userAwards, err := h.awardService.GetUserAwards(c.Request.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to get user awards")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve user awards")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":      userID,
		"awards":       userAwards,
		"total_awards": len(userAwards),
		"generated_at": time.Now().UTC(),
	})
}

// GetUserNotifications returns the user's in-app notification feed.
// GET /api/v1/users/:id/notifications?limit=50.
func (h *Handler) GetUserNotifications(c *gin.Context) {
	userID, err := h.parseUserID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	limit, err := h.parseLimit(c, 50)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	notifications, err := h.notifications.ListByUser(c.Request.Context(), userID, limit)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to get notifications")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve notifications")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":       userID,
		"notifications": notifications,
		"generated_at":  time.Now().UTC(),
	})
}

// GetBadgeCatalog returns every badge level.
// GET /api/v1/badges.
func (h *Handler) GetBadgeCatalog(c *gin.Context) {
	catalogBadges := h.badgeService.GetBadgeCatalog(c.Request.Context())

	c.JSON(http.StatusOK, gin.H{
		"badges":       catalogBadges,
		"total_badges": len(catalogBadges),
		"generated_at": time.Now().UTC(),
	})
}

// Helper functions

// parseUserID extracts and validates the user ID from the URL parameter.
func (h *Handler) parseUserID(c *gin.Context) (string, error) {
	id := c.Param("id")
	if id == "" || len(id) > 36 {
		return "", fmt.Errorf("invalid user ID: %s", id)
	}
	return id, nil
}

// parseLimit extracts and validates the limit query parameter.
func (h *Handler) parseLimit(c *gin.Context, defaultLimit int) (int, error) {
	limitStr := c.Query("limit")
	if limitStr == "" {
		return defaultLimit, nil
	}

	limit, err := strconv.Atoi(limitStr)
	if err != nil {
		return 0, fmt.Errorf("invalid limit parameter: %s", limitStr)
	}

	if limit < 1 {
		return 0, fmt.Errorf("limit must be greater than 0")
	}

	if limit > 1000 {
		return 0, fmt.Errorf("limit cannot exceed 1000")
	}

	return limit, nil
}

// validatePeriod validates the period parameter.
func (h *Handler) validatePeriod(periodType string) error {
	if periodType != models.PeriodWeekly && periodType != models.PeriodMonthly {
		return fmt.Errorf("invalid period: %s (valid: weekly, monthly)", periodType)
	}
	return nil
}

// errorResponse sends a standardized error response.
func (h *Handler) errorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{
		"error":     message,
		"timestamp": time.Now().UTC(),
	})
}

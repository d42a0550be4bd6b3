// Package jobs provides the HTTP trigger for the weekly and monthly achievement jobs.
package jobs

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aimd54/workout-achievements/internal/models"
	"github.com/aimd54/workout-achievements/internal/service/achievements"
	"github.com/aimd54/workout-achievements/pkg/logger"
)

// Runner executes the periodic jobs.
type Runner interface {
	ProcessWeeklyEvents(ctx context.Context, opts achievements.RunOptions) (*achievements.RunResult, error)
	ProcessMonthlyEvents(ctx context.Context, opts achievements.RunOptions) (*achievements.RunResult, error)
}

// RunLister lists ledger rows.
type RunLister interface {
	ListRecent(ctx context.Context, jobName string, limit int) ([]models.JobRun, error)
}

// TriggerRequest is the optional body of a trigger call.
type TriggerRequest struct {
	ReferenceDate *time.Time `json:"reference_date"`
	Force         bool       `json:"force"`
}

// Handler handles job trigger requests.
type Handler struct {
	runner Runner
	runs   RunLister
	log    *logger.Logger
}

// NewHandler creates a new jobs handler.
func NewHandler(runner Runner, runs RunLister, log *logger.Logger) *Handler {
	return &Handler{runner: runner, runs: runs, log: log}
}

// RegisterRoutes mounts the job routes on a router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/jobs/weekly", h.TriggerWeekly)
	rg.POST("/jobs/monthly", h.TriggerMonthly)
	rg.GET("/jobs/runs", h.ListRuns)
}

// TriggerWeekly runs the weekly job.
// POST /api/v1/jobs/weekly {"reference_date": "2025-03-12T00:00:00Z", "force": false}.
func (h *Handler) TriggerWeekly(c *gin.Context) {
	h.trigger(c, achievements.JobWeekly, h.runner.ProcessWeeklyEvents)
}

// TriggerMonthly runs the monthly job.
// POST /api/v1/jobs/monthly {"reference_date": "2025-04-01T00:00:00Z", "force": false}.
func (h *Handler) TriggerMonthly(c *gin.Context) {
	h.trigger(c, achievements.JobMonthly, h.runner.ProcessMonthlyEvents)
}

func (h *Handler) trigger(c *gin.Context, job string, run func(context.Context, achievements.RunOptions) (*achievements.RunResult, error)) {
	var req TriggerRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "failed",
			"error":  "invalid request body: " + err.Error(),
		})
		return
	}

	// A disconnecting client must not abort a run that already claimed its period
	result, err := run(context.WithoutCancel(c.Request.Context()), achievements.RunOptions{
		ReferenceDate: req.ReferenceDate,
		Force:         req.Force,
	})
	if err != nil {
		h.log.Error().Err(err).Str("job", job).Bool("force", req.Force).Msg("Triggered job failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"status": "failed",
			"error":  err.Error(),
		})
		return
	}

	if result.Skipped {
		h.log.Info().Str("job", job).Str("reason", result.Reason).Msg("Triggered job skipped")
		c.JSON(http.StatusOK, gin.H{
			"skipped":    true,
			"reason":     result.Reason,
			"job_run_id": result.JobRunID,
		})
		return
	}

	h.log.Info().
		Str("job", job).
		Bool("force", req.Force).
		Int("processed_users", result.ProcessedUsers).
		Msg("Triggered job completed")

	c.JSON(http.StatusOK, gin.H{
		"skipped":         false,
		"processed_users": result.ProcessedUsers,
		"window_start":    result.WindowStart,
		"window_end":      result.WindowEnd,
		"job_run_id":      result.JobRunID,
		"badges_granted":  result.BadgesGranted,
		"awards_granted":  result.AwardsGranted,
		"digests_queued":  result.DigestsQueued,
	})
}

// ListRuns returns the most recent ledger rows.
// GET /api/v1/jobs/runs?job=weekly_events&limit=20.
func (h *Handler) ListRuns(c *gin.Context) {
	job := c.Query("job")
	if job != "" && job != achievements.JobWeekly && job != achievements.JobMonthly {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job: " + job})
		return
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 200 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 200"})
			return
		}
		limit = parsed
	}

	runs, err := h.runs.ListRecent(c.Request.Context(), job, limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list job runs")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve job runs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"runs":  runs,
		"total": len(runs),
	})
}

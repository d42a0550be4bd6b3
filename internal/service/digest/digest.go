// Package digest renders and queues per-user period summary emails.
package digest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"

	prommetrics "github.com/aimd54/workout-achievements/internal/metrics"
	"github.com/aimd54/workout-achievements/internal/models"
	"github.com/aimd54/workout-achievements/internal/notify"
	"github.com/aimd54/workout-achievements/pkg/logger"
)

// SummaryQueue accepts rendered summaries for delivery.
type SummaryQueue interface {
	QueueSummary(ctx context.Context, userID, recipient, subject, body string) error
}

// Summary is the data rendered into one user's email.
type Summary struct {
	UserID           string
	Recipient        string
	DisplayName      string
	PeriodType       string
	PeriodStart      time.Time // local
	PeriodEnd        time.Time // local, exclusive
	TotalPoints      float64
	TotalWorkouts    int
	PointsTarget     float64
	PointsGoalMet    bool
	ChallengeMet     bool
	HasExerciseGoals bool
	ExerciseGoalsMet bool
	Rank             int
	ParticipantCount int
	Badges           []string
	Awards           []string
}

// LastDay returns the inclusive last local day of the period.
func (s Summary) LastDay() time.Time {
	return s.PeriodEnd.AddDate(0, 0, -1)
}

var bodyTemplate = template.Must(template.New("summary").Funcs(template.FuncMap{
	"points": func(v float64) string { return fmt.Sprintf("%.0f", v) },
	"yesno": func(b bool) string {
		if b {
			return "yes"
		}
		return "no"
	},
}).Parse(`Hi {{if .DisplayName}}{{.DisplayName}}{{else}}there{{end}},

Here is your {{.PeriodType}} summary for {{.PeriodStart.Format "Jan 2"}} - {{.LastDay.Format "Jan 2, 2006"}}.

Points: {{points .TotalPoints}}{{if gt .PointsTarget 0.0}} / {{points .PointsTarget}} (goal met: {{yesno .PointsGoalMet}}){{end}}
Workouts: {{.TotalWorkouts}}
{{- if eq .PeriodType "weekly"}}
Weekly challenge: {{yesno .ChallengeMet}}
{{- if .HasExerciseGoals}}
Exercise goals: {{yesno .ExerciseGoalsMet}}
{{- end}}
{{- end}}
{{- if gt .ParticipantCount 1}}
Friends leaderboard: #{{.Rank}} of {{.ParticipantCount}}
{{- end}}
{{- if .Badges}}

New badges:
{{- range .Badges}}
  - {{.}}
{{- end}}
{{- end}}
{{- if .Awards}}

Awards:
{{- range .Awards}}
  - {{.}}
{{- end}}
{{- end}}

Keep moving!
`))

// Render returns the subject and body of a summary.
func Render(s Summary) (string, string, error) {
	var buf bytes.Buffer
	if err := bodyTemplate.Execute(&buf, s); err != nil {
		return "", "", fmt.Errorf("failed to render summary: %w", err)
	}

	var subject string
	if s.PeriodType == models.PeriodMonthly {
		subject = fmt.Sprintf("Your %s recap", s.PeriodStart.Format("January 2006"))
	} else {
		subject = fmt.Sprintf("Your week of %s", s.PeriodStart.Format("Jan 2"))
	}
	return subject, buf.String(), nil
}

// Service queues summaries.
type Service struct {
	queue SummaryQueue
	log   *logger.Logger
}

// NewService creates a new digest service.
func NewService(queue SummaryQueue, log *logger.Logger) *Service {
	return &Service{queue: queue, log: log}
}

// QueueSummaries queues one summary per user. Failures are logged and counted and
// never stop the remaining users.
func (s *Service) QueueSummaries(ctx context.Context, summaries []Summary) (queued, failed int) {
	for _, summary := range summaries {
		if strings.TrimSpace(summary.Recipient) == "" {
			s.log.Debug().Str("user_id", summary.UserID).Msg("Skipping summary for user without email")
			continue
		}

		subject, body, err := Render(summary)
		if err == nil {
			err = s.queue.QueueSummary(ctx, summary.UserID, summary.Recipient, subject, body)
		}
		if err != nil {
			failed++
			reason := "queue_error"
			if errors.Is(err, notify.ErrQueueUnavailable) {
				reason = "breaker_open"
			}
			prommetrics.RecordDigestFailed(reason)
			s.log.Warn().Err(err).Str("user_id", summary.UserID).Msg("Failed to queue summary email")
			continue
		}

		queued++
		prommetrics.RecordDigestQueued(summary.PeriodType)
	}
	return queued, failed
}

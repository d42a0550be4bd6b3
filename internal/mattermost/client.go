// Package mattermost provides a webhook client for posting job run reports to Mattermost.
package mattermost

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/aimd54/workout-achievements/internal/config"
	"github.com/aimd54/workout-achievements/pkg/logger"
)

// Client handles Mattermost webhook notifications.
type Client struct {
	webhookURL string
	channel    string
	enabled    bool
	httpClient *http.Client
	log        *logger.Logger
}

// NewClient creates a new Mattermost client.
func NewClient(cfg *config.MattermostConfig, log *logger.Logger) *Client {
	return &Client{
		webhookURL: cfg.WebhookURL,
		channel:    cfg.Channel,
		enabled:    cfg.Enabled,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log,
	}
}

// Message represents a Mattermost message payload.
type Message struct {
	Channel     string       `json:"channel,omitempty"`
	Username    string       `json:"username,omitempty"`
	Text        string       `json:"text,omitempty"`
	IconURL     string       `json:"icon_url,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Attachment represents a message attachment.
type Attachment struct {
	Fallback string  `json:"fallback,omitempty"`
	Color    string  `json:"color,omitempty"`
	Pretext  string  `json:"pretext,omitempty"`
	Title    string  `json:"title,omitempty"`
	Text     string  `json:"text,omitempty"`
	Fields   []Field `json:"fields,omitempty"`
	Footer   string  `json:"footer,omitempty"`
}

// Field represents a message field.
type Field struct {
	Short bool   `json:"short"`
	Title string `json:"title"`
	Value string `json:"value"`
}

// SendMessage sends a message to Mattermost.
func (c *Client) SendMessage(ctx context.Context, msg *Message) error {
	if !c.enabled {
		c.log.Debug().Msg("Mattermost is disabled, skipping message")
		return nil
	}

	if msg.Channel == "" {
		msg.Channel = c.channel
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send message to Mattermost: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mattermost returned status %d", resp.StatusCode)
	}

	c.log.Debug().
		Str("channel", msg.Channel).
		Msg("Sent message to Mattermost")

	return nil
}

// Job run report statuses.
const (
	ReportCompleted = "completed"
	ReportSkipped   = "skipped"
	ReportFailed    = "failed"
)

// JobRunReport summarizes one scheduled run for the ops channel.
type JobRunReport struct {
	Job            string
	Status         string
	Reason         string
	WindowStart    time.Time
	WindowEnd      time.Time
	ProcessedUsers int
	BadgesGranted  int
	AwardsGranted  int
	DigestsQueued  int
	DigestsFailed  int
	Duration       time.Duration
	Error          string
}

// SendJobRunReport posts the outcome of a scheduled run.
func (c *Client) SendJobRunReport(ctx context.Context, report JobRunReport) error {
	if !c.enabled {
		return nil
	}

	return c.SendMessage(ctx, &Message{
		Username:    "Achievements Bot",
		Attachments: []Attachment{buildReportAttachment(report)},
	})
}

func buildReportAttachment(report JobRunReport) Attachment {
	window := "unknown"
	if !report.WindowStart.IsZero() {
		window = fmt.Sprintf("%s → %s",
			report.WindowStart.UTC().Format("2006-01-02"),
			report.WindowEnd.UTC().Format("2006-01-02"))
	}

	attachment := Attachment{
		Fallback: fmt.Sprintf("%s %s for %s", report.Job, report.Status, window),
		Title:    fmt.Sprintf("%s: %s", report.Job, report.Status),
		Fields: []Field{
			{Short: true, Title: "Window", Value: window},
			{Short: true, Title: "Duration", Value: report.Duration.Round(time.Millisecond).String()},
		},
		Footer: "workout-achievements",
	}

	switch report.Status {
	case ReportCompleted:
		attachment.Color = "#2eb886"
		attachment.Fields = append(attachment.Fields,
			Field{Short: true, Title: "Users", Value: fmt.Sprintf("%d", report.ProcessedUsers)},
			Field{Short: true, Title: "Badges", Value: fmt.Sprintf("%d", report.BadgesGranted)},
			Field{Short: true, Title: "Awards", Value: fmt.Sprintf("%d", report.AwardsGranted)},
			Field{Short: true, Title: "Digests", Value: fmt.Sprintf("%d queued, %d failed", report.DigestsQueued, report.DigestsFailed)},
		)
	case ReportSkipped:
		attachment.Color = "#a0a0a0"
		attachment.Text = "Skipped: " + report.Reason
	default:
		attachment.Color = "#d00000"
		attachment.Text = "```\n" + report.Error + "\n```"
	}

	return attachment
}

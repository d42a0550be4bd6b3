package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"

	"github.com/aimd54/workout-achievements/pkg/logger"
)

// ErrQueueUnavailable is returned while the circuit breaker is open.
var ErrQueueUnavailable = errors.New("email queue unavailable")

// SummaryJob is the message pushed for the mailer.
type SummaryJob struct {
	UserID    string    `json:"user_id"`
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	QueuedAt  time.Time `json:"queued_at"`
}

// BreakerSettings configures the breaker around the queue.
type BreakerSettings struct {
	ConsecutiveFailures uint32
	OpenTimeout         time.Duration
}

// EmailQueue pushes summary jobs onto a Redis list consumed by the mailer.
type EmailQueue struct {
	client  redis.UniversalClient
	key     string
	breaker *gobreaker.CircuitBreaker[int64]
	log     *logger.Logger
}

// NewEmailQueue creates a new email queue.
func NewEmailQueue(client redis.UniversalClient, key string, settings BreakerSettings, log *logger.Logger) *EmailQueue {
	failures := settings.ConsecutiveFailures
	if failures == 0 {
		failures = 5
	}
	timeout := settings.OpenTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	cb := gobreaker.NewCircuitBreaker[int64](gobreaker.Settings{
		Name:        "email-queue",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state changed")
		},
	})

	return &EmailQueue{client: client, key: key, breaker: cb, log: log}
}

// QueueSummary pushes one summary. Fails fast with ErrQueueUnavailable while the
// breaker is open.
func (q *EmailQueue) QueueSummary(ctx context.Context, userID, recipient, subject, body string) error {
	payload, err := json.Marshal(SummaryJob{
		UserID:    userID,
		Recipient: recipient,
		Subject:   subject,
		Body:      body,
		QueuedAt:  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	_, err = q.breaker.Execute(func() (int64, error) {
		return q.client.RPush(ctx, q.key, payload).Result()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrQueueUnavailable, err)
	}
	if err != nil {
		return fmt.Errorf("failed to queue summary: %w", err)
	}
	return nil
}

// State returns the current breaker state.
func (q *EmailQueue) State() gobreaker.State {
	return q.breaker.State()
}

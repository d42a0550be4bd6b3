package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aimd54/workout-achievements/internal/models"
	"github.com/aimd54/workout-achievements/pkg/logger"
)

// NotificationStore persists in-app notifications.
type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
}

// Dispatcher stores a notification in the feed and publishes it for realtime
// consumers on "<prefix>:<user id>".
type Dispatcher struct {
	store         NotificationStore
	client        redis.UniversalClient
	channelPrefix string
	log           *logger.Logger
}

// NewDispatcher creates a new dispatcher. A nil client disables realtime publishing.
func NewDispatcher(store NotificationStore, client redis.UniversalClient, channelPrefix string, log *logger.Logger) *Dispatcher {
	return &Dispatcher{store: store, client: client, channelPrefix: channelPrefix, log: log}
}

// Event is the realtime message published for a notification.
type Event struct {
	ID        string                 `json:"id"`
	UserID    string                 `json:"user_id"`
	Type      string                 `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// Channel returns the realtime channel of a user.
func (d *Dispatcher) Channel(userID string) string {
	return d.channelPrefix + ":" + userID
}

// Notify stores the notification and publishes it. The stored row is the source of
// truth; a failed publish is logged and not returned.
func (d *Dispatcher) Notify(ctx context.Context, userID, notificationType, title, message string, payload map[string]interface{}) error {
	n := &models.Notification{
		UserID:  userID,
		Type:    notificationType,
		Title:   title,
		Message: message,
		Payload: payload,
	}
	if err := d.store.Create(ctx, n); err != nil {
		return fmt.Errorf("failed to store notification: %w", err)
	}

	if d.client == nil {
		return nil
	}

	event, err := json.Marshal(Event{
		ID:        n.ID,
		UserID:    n.UserID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Payload:   payload,
		CreatedAt: n.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notification event: %w", err)
	}

	if err := d.client.Publish(ctx, d.Channel(userID), event).Err(); err != nil {
		d.log.Warn().Err(err).Str("user_id", userID).Str("type", notificationType).Msg("Failed to publish notification")
	}
	return nil
}

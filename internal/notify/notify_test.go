package notify

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aimd54/workout-achievements/internal/config"
	"github.com/aimd54/workout-achievements/internal/models"
	"github.com/aimd54/workout-achievements/pkg/logger"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

type memoryStore struct {
	rows []models.Notification
	err  error
}

func (m *memoryStore) Create(_ context.Context, n *models.Notification) error {
	if m.err != nil {
		return m.err
	}
	n.ID = "n-1"
	n.CreatedAt = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	m.rows = append(m.rows, *n)
	return nil
}

func TestDispatcher_StoresAndPublishes(t *testing.T) {
	_, client := setupRedis(t)
	store := &memoryStore{}
	d := NewDispatcher(store, client, "notifications", logger.Nop())
	ctx := context.Background()

	sub := client.Subscribe(ctx, d.Channel("u1"))
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	err = d.Notify(ctx, "u1", models.NotificationBadgeEarned, "New badge", "Nice", map[string]interface{}{"badge_slug": "weekly-challenge"})
	require.NoError(t, err)

	require.Len(t, store.rows, 1)
	assert.Equal(t, "u1", store.rows[0].UserID)

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "notifications:u1", msg.Channel)

	var event Event
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &event))
	assert.Equal(t, "n-1", event.ID)
	assert.Equal(t, models.NotificationBadgeEarned, event.Type)
	assert.Equal(t, "weekly-challenge", event.Payload["badge_slug"])
}

func TestDispatcher_PublishFailureIsNotReturned(t *testing.T) {
	mr, client := setupRedis(t)
	store := &memoryStore{}
	d := NewDispatcher(store, client, "notifications", logger.Nop())

	mr.Close()

	err := d.Notify(context.Background(), "u1", models.NotificationAwardGranted, "Award", "", nil)
	assert.NoError(t, err)
	assert.Len(t, store.rows, 1)
}

func TestDispatcher_StoreFailure(t *testing.T) {
	_, client := setupRedis(t)
	d := NewDispatcher(&memoryStore{err: errors.New("db down")}, client, "notifications", logger.Nop())

	err := d.Notify(context.Background(), "u1", models.NotificationAwardGranted, "Award", "", nil)
	assert.Error(t, err)
}

func TestDispatcher_WithoutRedis(t *testing.T) {
	store := &memoryStore{}
	d := NewDispatcher(store, nil, "notifications", logger.Nop())

	require.NoError(t, d.Notify(context.Background(), "u1", models.NotificationAwardGranted, "Award", "", nil))
	assert.Len(t, store.rows, 1)
}

func TestEmailQueue_QueueSummary(t *testing.T) {
	mr, client := setupRedis(t)
	q := NewEmailQueue(client, "email:summaries", BreakerSettings{}, logger.Nop())

	require.NoError(t, q.QueueSummary(context.Background(), "u1", "alice@example.com", "Your week", "body"))
	require.NoError(t, q.QueueSummary(context.Background(), "u2", "bob@example.com", "Your week", "body"))

	items, err := mr.List("email:summaries")
	require.NoError(t, err)
	require.Len(t, items, 2)

	var job SummaryJob
	require.NoError(t, json.Unmarshal([]byte(items[0]), &job))
	assert.Equal(t, "u1", job.UserID)
	assert.Equal(t, "alice@example.com", job.Recipient)
	assert.Equal(t, "Your week", job.Subject)
	assert.False(t, job.QueuedAt.IsZero())
}

func TestEmailQueue_BreakerOpens(t *testing.T) {
	mr, client := setupRedis(t)
	q := NewEmailQueue(client, "email:summaries", BreakerSettings{ConsecutiveFailures: 2, OpenTimeout: time.Minute}, logger.Nop())
	ctx := context.Background()

	mr.SetError("LOADING Redis is loading the dataset in memory")

	for i := 0; i < 2; i++ {
		err := q.QueueSummary(ctx, "u1", "a@example.com", "s", "b")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrQueueUnavailable)
	}
	assert.Equal(t, gobreaker.StateOpen, q.State())

	mr.SetError("")
	err := q.QueueSummary(ctx, "u1", "a@example.com", "s", "b")
	assert.ErrorIs(t, err, ErrQueueUnavailable)
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	client, err := NewRedisClient(context.Background(), &config.RedisConfig{Host: mr.Host(), Port: port})
	require.NoError(t, err)
	defer client.Close()

	_, err = NewRedisClient(context.Background(), &config.RedisConfig{Host: "127.0.0.1", Port: 1})
	assert.Error(t, err)
}

package mocks

import (
	"context"
	"sync"
)

// Notification is one recorded Notify call.
type Notification struct {
	UserID  string
	Type    string
	Title   string
	Message string
	Payload map[string]interface{}
}

// MockNotifier records notifications in memory.
type MockNotifier struct {
	NotifyFunc func(ctx context.Context, userID, notificationType, title, message string, payload map[string]interface{}) error

	mu   sync.Mutex
	sent []Notification
}

// NewMockNotifier creates a new mock notifier.
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

// Notify records the notification and returns NotifyFunc's error, if set.
func (m *MockNotifier) Notify(ctx context.Context, userID, notificationType, title, message string, payload map[string]interface{}) error {
	if m.NotifyFunc != nil {
		if err := m.NotifyFunc(ctx, userID, notificationType, title, message, payload); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, Notification{
		UserID:  userID,
		Type:    notificationType,
		Title:   title,
		Message: message,
		Payload: payload,
	})
	return nil
}

// Sent returns a copy of the recorded notifications.
func (m *MockNotifier) Sent() []Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Notification(nil), m.sent...)
}

// CountFor returns the number of notifications of a type sent to a user.
func (m *MockNotifier) CountFor(userID, notificationType string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, n := range m.sent {
		if n.UserID == userID && n.Type == notificationType {
			count++
		}
	}
	return count
}

// Summary is one recorded QueueSummary call.
type Summary struct {
	UserID    string
	Recipient string
	Subject   string
	Body      string
}

// MockSummaryQueue records queued email summaries in memory.
type MockSummaryQueue struct {
	QueueSummaryFunc func(ctx context.Context, userID, recipient, subject, body string) error

	mu     sync.Mutex
	queued []Summary
}

// NewMockSummaryQueue creates a new mock summary queue.
func NewMockSummaryQueue() *MockSummaryQueue {
	return &MockSummaryQueue{}
}

// QueueSummary records the summary and returns QueueSummaryFunc's error, if set.
func (m *MockSummaryQueue) QueueSummary(ctx context.Context, userID, recipient, subject, body string) error {
	if m.QueueSummaryFunc != nil {
		if err := m.QueueSummaryFunc(ctx, userID, recipient, subject, body); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.queued = append(m.queued, Summary{UserID: userID, Recipient: recipient, Subject: subject, Body: body})
	return nil
}

// Queued returns a copy of the recorded summaries.
func (m *MockSummaryQueue) Queued() []Summary {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Summary(nil), m.queued...)
}

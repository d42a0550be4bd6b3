package mocks

import (
	"context"

	"github.com/aimd54/workout-achievements/internal/models"
)

// MockProfileStore is a simple mock for the user profile store
type MockProfileStore struct {
	ListProfilesFunc func(ctx context.Context) ([]models.Profile, error)
}

func (m *MockProfileStore) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	if m.ListProfilesFunc != nil {
		return m.ListProfilesFunc(ctx)
	}
	return nil, nil
}

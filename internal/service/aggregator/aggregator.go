// Package aggregator computes per-user activity rollups for an evaluation window.
package aggregator

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/aimd54/workout-achievements/internal/repository"
	"github.com/aimd54/workout-achievements/internal/service/period"
)

// ActivityStore is the workout store the aggregator reads.
type ActivityStore interface {
	UserTotals(ctx context.Context, start, end time.Time) ([]repository.UserTotalsRow, error)
	ActivityTotals(ctx context.Context, start, end time.Time) ([]repository.ActivityTotalsRow, error)
	LifetimeActivityTotals(ctx context.Context, until time.Time) ([]repository.ActivityTotalsRow, error)
}

// Rollup is one user's totals over a window.
type Rollup struct {
	UserID               string
	TotalPoints          float64
	TotalWorkouts        int
	TotalsByActivityType map[string]float64
}

// Service aggregates workout activity.
type Service struct {
	store ActivityStore
	log   *zerolog.Logger
}

// NewService creates a new aggregator service.
func NewService(store ActivityStore, log *zerolog.Logger) *Service {
	return &Service{store: store, log: log}
}

// Aggregate returns a rollup for every user, sorted by user ID. Users without
// activity in the window are included with zero totals.
func (s *Service) Aggregate(ctx context.Context, window period.Window) ([]Rollup, error) {
	s.log.Debug().
		Time("start", window.UTCStart).
		Time("end", window.UTCEnd).
		Msg("Starting rollup aggregation")

	totals, err := s.store.UserTotals(ctx, window.UTCStart, window.UTCEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to get user totals: %w", err)
	}

	activity, err := s.store.ActivityTotals(ctx, window.UTCStart, window.UTCEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to get activity totals: %w", err)
	}

	byUser := make(map[string]*Rollup, len(totals))
	rollups := make([]Rollup, 0, len(totals))
	for _, row := range totals {
		rollups = append(rollups, Rollup{
			UserID:               row.UserID,
			TotalPoints:          row.TotalPoints,
			TotalWorkouts:        row.TotalWorkouts,
			TotalsByActivityType: map[string]float64{},
		})
	}
	sort.Slice(rollups, func(i, j int) bool { return rollups[i].UserID < rollups[j].UserID })
	for i := range rollups {
		byUser[rollups[i].UserID] = &rollups[i]
	}

	for _, row := range activity {
		rollup, ok := byUser[row.UserID]
		if !ok {
			// Activity for a user missing from the profile store
			s.log.Warn().Str("user_id", row.UserID).Msg("Activity for unknown user")
			continue
		}
		rollup.TotalsByActivityType[row.ActivityType] += row.Quantity
	}

	active := 0
	for _, rollup := range rollups {
		if rollup.TotalWorkouts > 0 {
			active++
		}
	}

	s.log.Info().
		Time("start", window.UTCStart).
		Int("users", len(rollups)).
		Int("active_users", active).
		Msg("Rollup aggregation completed")

	return rollups, nil
}

// LifetimeTotals returns per-user, per-activity-type quantity totals for every
// workout started before until.
func (s *Service) LifetimeTotals(ctx context.Context, until time.Time) (map[string]map[string]float64, error) {
	rows, err := s.store.LifetimeActivityTotals(ctx, until)
	if err != nil {
		return nil, fmt.Errorf("failed to get lifetime totals: %w", err)
	}

	totals := make(map[string]map[string]float64)
	for _, row := range rows {
		if totals[row.UserID] == nil {
			totals[row.UserID] = make(map[string]float64)
		}
		totals[row.UserID][row.ActivityType] += row.Quantity
	}
	return totals, nil
}

// Points returns the user -> total points map consumed by the ranker.
func Points(rollups []Rollup) map[string]float64 {
	points := make(map[string]float64, len(rollups))
	for _, r := range rollups {
		points[r.UserID] = r.TotalPoints
	}
	return points
}

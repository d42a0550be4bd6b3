// Package leaderboard ranks users among their direct friends.
package leaderboard

import (
	"context"
	"fmt"
	"time"

	"github.com/aimd54/workout-achievements/internal/models"
	"github.com/aimd54/workout-achievements/internal/repository"
	"github.com/aimd54/workout-achievements/pkg/logger"
)

// FriendshipRepository interface for friendship reads.
type FriendshipRepository interface {
	ListAcceptedEdges(ctx context.Context) ([]models.FriendEdge, error)
}

// SnapshotRepository interface for leaderboard snapshot persistence.
type SnapshotRepository interface {
	UpsertSnapshot(ctx context.Context, snapshot *models.LeaderboardSnapshot) error
	GetSnapshot(ctx context.Context, userID, periodType string, periodStart time.Time) (*models.LeaderboardSnapshot, error)
}

// Service builds friends leaderboards and records snapshots.
type Service struct {
	friendRepo   FriendshipRepository
	snapshotRepo SnapshotRepository
	log          *logger.Logger
}

// NewService creates a new leaderboard service with concrete repository types.
func NewService(
	friendRepo *repository.FriendshipRepository,
	snapshotRepo *repository.LeaderboardRepository,
	log *logger.Logger,
) *Service {
	return &Service{
		friendRepo:   friendRepo,
		snapshotRepo: snapshotRepo,
		log:          log,
	}
}

// NewServiceWithInterfaces creates a new leaderboard service with interface dependencies (useful for testing).
func NewServiceWithInterfaces(
	friendRepo FriendshipRepository,
	snapshotRepo SnapshotRepository,
	log *logger.Logger,
) *Service {
	return &Service{
		friendRepo:   friendRepo,
		snapshotRepo: snapshotRepo,
		log:          log,
	}
}

// Rank loads the friend graph and computes every user's direct leaderboard.
func (s *Service) Rank(ctx context.Context, userPoints map[string]float64) (map[string]Entry, error) {
	edges, err := s.friendRepo.ListAcceptedEdges(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load friendships: %w", err)
	}

	graph := BuildFriendAdjacency(edges)
	entries := ComputeDirectLeaderboard(userPoints, graph)

	s.log.Debug().
		Int("users", len(userPoints)).
		Int("edges", len(edges)).
		Msg("Computed friends leaderboards")

	return entries, nil
}

// RecordSnapshot stores an entry for a period. A stored best rank is only replaced
// by a better one.
func (s *Service) RecordSnapshot(ctx context.Context, periodType string, start, end time.Time, entry Entry) error {
	snapshot := &models.LeaderboardSnapshot{
		UserID:           entry.UserID,
		PeriodType:       periodType,
		PeriodStart:      start,
		PeriodEnd:        end,
		BestRank:         entry.Rank,
		Points:           entry.Points,
		ParticipantCount: entry.ParticipantCount,
		Participants:     entry.OrderedParticipants,
	}
	if err := s.snapshotRepo.UpsertSnapshot(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to record leaderboard snapshot: %w", err)
	}
	return nil
}

// EligibleForPodium reports whether an entry may receive a placement award: a top
// three rank on a leaderboard with other participants and a non-zero score.
func EligibleForPodium(entry Entry) bool {
	return entry.Rank >= 1 && entry.Rank <= 3 && entry.ParticipantCount >= 2 && entry.Points > 0
}

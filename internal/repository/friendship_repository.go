package repository

import (
	"context"
	"fmt"

	"github.com/aimd54/workout-achievements/internal/models"
)

// FriendshipRepository reads the friendship store.
type FriendshipRepository struct {
	db *DB
}

// NewFriendshipRepository creates a new friendship repository.
func NewFriendshipRepository(db *DB) *FriendshipRepository {
	return &FriendshipRepository{db: db}
}

// Create stores a friendship row.
func (r *FriendshipRepository) Create(ctx context.Context, f *models.Friendship) error {
	if err := r.db.WithContext(ctx).Create(f).Error; err != nil {
		return fmt.Errorf("failed to create friendship: %w", err)
	}
	return nil
}

// ListAcceptedEdges returns every accepted friendship as a canonical edge.
// Self-edges are dropped.
func (r *FriendshipRepository) ListAcceptedEdges(ctx context.Context) ([]models.FriendEdge, error) {
	var rows []models.Friendship
	err := r.db.WithContext(ctx).
		Select("requester_id", "addressee_id").
		Where("status = ?", models.FriendshipAccepted).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list accepted friendships: %w", err)
	}

	edges := make([]models.FriendEdge, 0, len(rows))
	for _, row := range rows {
		if row.RequesterID == "" || row.AddresseeID == "" || row.RequesterID == row.AddresseeID {
			continue
		}
		edges = append(edges, models.FriendEdge{UserID: row.RequesterID, FriendID: row.AddresseeID})
	}
	return edges, nil
}

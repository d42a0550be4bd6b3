package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aimd54/workout-achievements/internal/models"
)

func TestFriendshipRepository_ListAcceptedEdges(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFriendshipRepository(db)
	ctx := context.Background()

	for _, f := range []models.Friendship{
		{RequesterID: "a", AddresseeID: "b", Status: models.FriendshipAccepted},
		{RequesterID: "c", AddresseeID: "b", Status: models.FriendshipAccepted},
		{RequesterID: "a", AddresseeID: "c", Status: models.FriendshipPending},
		{RequesterID: "d", AddresseeID: "a", Status: models.FriendshipDeclined},
		{RequesterID: "e", AddresseeID: "e", Status: models.FriendshipAccepted},
	} {
		f := f
		require.NoError(t, repo.Create(ctx, &f))
	}

	edges, err := repo.ListAcceptedEdges(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []models.FriendEdge{
		{UserID: "a", FriendID: "b"},
		{UserID: "c", FriendID: "b"},
	}, edges)
}

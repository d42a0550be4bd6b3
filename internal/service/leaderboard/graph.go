package leaderboard

import (
	"sort"

	"github.com/aimd54/workout-achievements/internal/models"
)

// Graph is an undirected adjacency map of accepted friendships.
type Graph map[string]map[string]struct{}

// Neighbors returns the direct friends of a user in ascending order.
func (g Graph) Neighbors(userID string) []string {
	out := make([]string, 0, len(g[userID]))
	for friend := range g[userID] {
		out = append(out, friend)
	}
	sort.Strings(out)
	return out
}

// BuildFriendAdjacency records each edge in both directions. Self edges and edges
// with an empty endpoint are ignored.
func BuildFriendAdjacency(edges []models.FriendEdge) Graph {
	g := make(Graph)
	add := func(a, b string) {
		if g[a] == nil {
			g[a] = make(map[string]struct{})
		}
		g[a][b] = struct{}{}
	}
	for _, e := range edges {
		if e.UserID == "" || e.FriendID == "" || e.UserID == e.FriendID {
			continue
		}
		add(e.UserID, e.FriendID)
		add(e.FriendID, e.UserID)
	}
	return g
}

// Entry is one user's position on their own friends leaderboard.
type Entry struct {
	UserID              string   `json:"user_id"`
	Rank                int      `json:"rank"`
	Points              float64  `json:"points"`
	ParticipantCount    int      `json:"participant_count"`
	OrderedParticipants []string `json:"ordered_participants"`
}

// ComputeDirectLeaderboard ranks every user in userPoints among themself and their
// direct friends. Friends of friends are never included. Ties on points are broken
// by ascending user ID. Friends missing from userPoints count as zero points.
func ComputeDirectLeaderboard(userPoints map[string]float64, g Graph) map[string]Entry {
	result := make(map[string]Entry, len(userPoints))

	for userID, points := range userPoints {
		participants := append([]string{userID}, g.Neighbors(userID)...)

		if len(participants) == 1 {
			result[userID] = Entry{
				UserID:              userID,
				Rank:                1,
				Points:              points,
				ParticipantCount:    1,
				OrderedParticipants: participants,
			}
			continue
		}

		sort.Slice(participants, func(i, j int) bool {
			pi, pj := userPoints[participants[i]], userPoints[participants[j]]
			if pi != pj {
				return pi > pj
			}
			return participants[i] < participants[j]
		})

		rank := 0
		for i, p := range participants {
			if p == userID {
				rank = i + 1
				break
			}
		}

		result[userID] = Entry{
			UserID:              userID,
			Rank:                rank,
			Points:              points,
			ParticipantCount:    len(participants),
			OrderedParticipants: participants,
		}
	}

	return result
}

package achievements

import (
	"context"
	"fmt"
	"sort"

	"github.com/aimd54/workout-achievements/internal/models"
	"github.com/aimd54/workout-achievements/internal/service/aggregator"
	"github.com/aimd54/workout-achievements/internal/service/awards"
	"github.com/aimd54/workout-achievements/internal/service/badges"
	"github.com/aimd54/workout-achievements/internal/service/digest"
	"github.com/aimd54/workout-achievements/internal/service/goals"
	"github.com/aimd54/workout-achievements/internal/service/leaderboard"
	"github.com/aimd54/workout-achievements/internal/service/period"
)

// userState accumulates one user's outcome across the phases of a run.
type userState struct {
	rollup  aggregator.Rollup
	profile models.Profile
	eval    goals.Evaluation
	entry   leaderboard.Entry
	ranked  bool

	champion    bool
	badgeLabels []string // granted during this run
	awardTypes  []string // held for the period
	awardLabels []string
}

func (e *Engine) execute(ctx context.Context, j job, window period.Window, runID string, result *RunResult) error {
	rollups, err := e.deps.Aggregator.Aggregate(ctx, window)
	if err != nil {
		return err
	}

	profiles, err := e.deps.Profiles.ListProfiles(ctx)
	if err != nil {
		return fmt.Errorf("failed to load profiles: %w", err)
	}
	byUser := make(map[string]models.Profile, len(profiles))
	for _, p := range profiles {
		byUser[p.User.ID] = p
	}

	var lifetime map[string]map[string]float64
	if j.periodType == models.PeriodWeekly && e.cfg.LifetimeMilestones {
		lifetime, err = e.deps.Aggregator.LifetimeTotals(ctx, window.UTCEnd)
		if err != nil {
			return err
		}
	}

	states := make([]*userState, 0, len(rollups))
	for _, rollup := range rollups {
		state := &userState{rollup: rollup, profile: byUser[rollup.UserID]}
		if state.profile.GoalsErr != nil {
			e.log.WithUser(rollup.UserID).Warn().
				Err(state.profile.GoalsErr).
				Msg("Ignoring invalid goal configuration")
		}

		var grants []badges.Grant
		if j.periodType == models.PeriodWeekly {
			grants, err = e.evaluateWeek(ctx, window, state, lifetime[rollup.UserID])
		} else {
			grants, err = e.evaluateMonth(ctx, window, state)
		}
		if err != nil {
			return fmt.Errorf("failed to evaluate user %s: %w", rollup.UserID, err)
		}

		badgeKeys := make([]string, 0, len(grants))
		for _, g := range grants {
			badgeKeys = append(badgeKeys, models.BadgeKey(g.Badge.Slug, g.Badge.Level))
			state.badgeLabels = append(state.badgeLabels, g.Badge.Label)
		}
		result.BadgesGranted += len(grants)

		if err := e.deps.Results.Upsert(ctx, periodResult(j, window, runID, state, badgeKeys)); err != nil {
			return fmt.Errorf("failed to store result for user %s: %w", rollup.UserID, err)
		}
		states = append(states, state)
	}

	entries, err := e.deps.Leaderboard.Rank(ctx, aggregator.Points(rollups))
	if err != nil {
		return err
	}

	for _, state := range states {
		entry, ok := entries[state.rollup.UserID]
		if !ok {
			continue
		}
		state.entry = entry
		state.ranked = true

		if err := e.deps.Leaderboard.RecordSnapshot(ctx, j.periodType, window.UTCStart, window.UTCEnd, entry); err != nil {
			return err
		}

		granted, err := e.grantAwards(ctx, j, window, state)
		if err != nil {
			return fmt.Errorf("failed to grant awards to user %s: %w", state.rollup.UserID, err)
		}
		result.AwardsGranted += granted

		if len(state.awardTypes) > 0 {
			if err := e.deps.Results.AppendAwards(ctx, state.rollup.UserID, j.periodType, window.UTCStart, state.awardTypes); err != nil {
				return fmt.Errorf("failed to record awards for user %s: %w", state.rollup.UserID, err)
			}
		}
	}

	result.ProcessedUsers = len(states)

	if e.cfg.Digests && e.deps.Digests != nil {
		result.DigestsQueued, result.DigestsFailed = e.deps.Digests.QueueSummaries(ctx, summaries(j, window, states))
	}

	return nil
}

func (e *Engine) evaluateWeek(ctx context.Context, window period.Window, state *userState, lifetime map[string]float64) ([]badges.Grant, error) {
	userID := state.rollup.UserID
	state.eval = goals.Evaluate(goals.Input{
		Goals:              state.profile.Goals,
		ActivityTotals:     state.rollup.TotalsByActivityType,
		TotalPoints:        state.rollup.TotalPoints,
		DefaultPointsGoal:  e.cfg.DefaultPointsGoal,
		ChallengeThreshold: e.cfg.WeeklyChallengeThreshold,
	})

	progress := []struct {
		slug     string
		achieved bool
	}{
		{badges.SlugWeeklyPointsGoal, state.eval.PointsGoalMet},
		{badges.SlugWeeklyChallenge, state.eval.ChallengeMet},
		{badges.SlugWeeklyExerciseGoals, state.eval.HasExerciseGoals && state.eval.ExerciseGoalsMet},
	}

	var grants []badges.Grant
	for _, p := range progress {
		granted, err := e.deps.Badges.HandleProgress(ctx, userID, p.slug, window.UTCStart, p.achieved)
		if err != nil {
			return grants, err
		}
		grants = append(grants, granted...)
	}

	activityTypes := make([]string, 0, len(lifetime))
	for activityType := range lifetime {
		activityTypes = append(activityTypes, activityType)
	}
	sort.Strings(activityTypes)

	for _, activityType := range activityTypes {
		granted, err := e.deps.Badges.HandleLifetimeMilestones(ctx, userID, activityType, lifetime[activityType])
		if err != nil {
			return grants, err
		}
		grants = append(grants, granted...)
	}

	return grants, nil
}

func (e *Engine) evaluateMonth(ctx context.Context, window period.Window, state *userState) ([]badges.Grant, error) {
	threshold := e.cfg.MonthlyChampionThreshold
	state.champion = threshold > 0 && state.rollup.TotalPoints >= threshold
	state.eval = goals.Evaluation{
		PointsTarget:  threshold,
		PointsGoalMet: state.champion,
	}
	return e.deps.Badges.HandleProgress(ctx, state.rollup.UserID, badges.SlugMonthlyChampion, window.UTCStart, state.champion)
}

// grantAwards grants the placement and champion awards a user qualifies for and
// returns how many were newly created.
func (e *Engine) grantAwards(ctx context.Context, j job, window period.Window, state *userState) (int, error) {
	var inputs []awards.AwardInput

	if leaderboard.EligibleForPodium(state.entry) {
		awardType := models.AwardWeeklyPodium
		if j.periodType == models.PeriodMonthly {
			awardType = models.AwardMonthlyPodium
		}
		inputs = append(inputs, awards.AwardInput{
			Type:        awardType,
			Label:       awards.PodiumLabel(j.periodType, state.entry.Rank),
			PeriodStart: window.UTCStart,
			PeriodEnd:   window.UTCEnd,
			Metadata: map[string]interface{}{
				"rank":         state.entry.Rank,
				"participants": state.entry.ParticipantCount,
				"points":       state.entry.Points,
			},
		})
	}

	if state.champion {
		inputs = append(inputs, awards.AwardInput{
			Type:        models.AwardMonthlyChampion,
			Label:       "Monthly champion",
			PeriodStart: window.UTCStart,
			PeriodEnd:   window.UTCEnd,
			Metadata: map[string]interface{}{
				"points":    state.rollup.TotalPoints,
				"threshold": e.cfg.MonthlyChampionThreshold,
			},
		})
	}

	granted := 0
	for _, in := range inputs {
		award, err := e.deps.Awards.GrantAward(ctx, state.rollup.UserID, in)
		if err != nil {
			return granted, err
		}
		if award != nil {
			granted++
		}
		// An existing award is still held for the period
		state.awardTypes = append(state.awardTypes, in.Type)
		state.awardLabels = append(state.awardLabels, in.Label)
	}
	return granted, nil
}

func periodResult(j job, window period.Window, runID string, state *userState, badgeKeys []string) *models.PeriodResult {
	totals := make(map[string]interface{}, len(state.rollup.TotalsByActivityType))
	for activityType, quantity := range state.rollup.TotalsByActivityType {
		totals[activityType] = quantity
	}

	return &models.PeriodResult{
		UserID:           state.rollup.UserID,
		PeriodType:       j.periodType,
		PeriodStart:      window.UTCStart,
		PeriodEnd:        window.UTCEnd,
		TotalPoints:      state.rollup.TotalPoints,
		TotalWorkouts:    state.rollup.TotalWorkouts,
		ActivityTotals:   totals,
		PointsTarget:     state.eval.PointsTarget,
		PointsGoalMet:    state.eval.PointsGoalMet,
		ChallengeMet:     state.eval.ChallengeMet,
		HasExerciseGoals: state.eval.HasExerciseGoals,
		ExerciseGoalsMet: state.eval.ExerciseGoalsMet,
		Badges:           badgeKeys,
		JobRunID:         runID,
	}
}

func summaries(j job, window period.Window, states []*userState) []digest.Summary {
	out := make([]digest.Summary, 0, len(states))
	for _, state := range states {
		s := digest.Summary{
			UserID:           state.rollup.UserID,
			Recipient:        state.profile.User.Email,
			DisplayName:      state.profile.User.DisplayName,
			PeriodType:       j.periodType,
			PeriodStart:      window.LocalStart,
			PeriodEnd:        window.LocalEnd,
			TotalPoints:      state.rollup.TotalPoints,
			TotalWorkouts:    state.rollup.TotalWorkouts,
			PointsTarget:     state.eval.PointsTarget,
			PointsGoalMet:    state.eval.PointsGoalMet,
			ChallengeMet:     state.eval.ChallengeMet,
			HasExerciseGoals: state.eval.HasExerciseGoals,
			ExerciseGoalsMet: state.eval.ExerciseGoalsMet,
			Badges:           state.badgeLabels,
			Awards:           state.awardLabels,
		}
		if state.ranked {
			s.Rank = state.entry.Rank
			s.ParticipantCount = state.entry.ParticipantCount
		}
		out = append(out, s)
	}
	return out
}

// Package goals evaluates weekly goal completion against a user's rollup.
package goals

import "github.com/aimd54/workout-achievements/internal/models"

// Input is everything needed to evaluate one user's week.
type Input struct {
	Goals              *models.WeeklyGoals
	ActivityTotals     map[string]float64
	TotalPoints        float64
	DefaultPointsGoal  float64
	ChallengeThreshold float64
}

// Evaluation is the derived goal outcome. ExerciseGoalsMet is only meaningful when
// HasExerciseGoals is true.
type Evaluation struct {
	PointsTarget     float64
	PointsGoalMet    bool
	ChallengeMet     bool
	HasExerciseGoals bool
	ExerciseGoalsMet bool
}

// Evaluate compares totals against the configured or default goals.
func Evaluate(in Input) Evaluation {
	target := in.DefaultPointsGoal
	if in.Goals != nil && in.Goals.Points != nil {
		target = in.Goals.Points.Target
	}

	eval := Evaluation{
		PointsTarget:  target,
		PointsGoalMet: target > 0 && in.TotalPoints >= target,
		ChallengeMet:  in.ChallengeThreshold > 0 && in.TotalPoints >= in.ChallengeThreshold,
	}

	if in.Goals == nil {
		return eval
	}

	allMet := true
	for _, goal := range in.Goals.Exercises {
		if goal.ExerciseID == "points" || goal.Target <= 0 {
			continue
		}
		eval.HasExerciseGoals = true
		if in.ActivityTotals[goal.ExerciseID] < goal.Target {
			allMet = false
		}
	}
	eval.ExerciseGoalsMet = eval.HasExerciseGoals && allMet

	return eval
}

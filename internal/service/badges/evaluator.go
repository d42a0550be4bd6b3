package badges

import "github.com/aimd54/workout-achievements/internal/models"

// levelsHitExactly returns the levels equal to counter. A counter that jumps past a
// level never matches it.
func levelsHitExactly(levels []models.Badge, counter int) []models.Badge {
	var out []models.Badge
	for _, b := range levels {
		if b.Level == counter {
			out = append(out, b)
		}
	}
	return out
}

// levelsReached returns every level at or below total.
func levelsReached(levels []models.Badge, total float64) []models.Badge {
	var out []models.Badge
	for _, b := range levels {
		if float64(b.Level) <= total {
			out = append(out, b)
		}
	}
	return out
}

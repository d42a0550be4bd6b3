package badges

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aimd54/workout-achievements/internal/models"
)

func TestLoadCatalog_Default(t *testing.T) {
	catalog, err := LoadCatalog("")
	require.NoError(t, err)

	assert.Equal(t, []int{1, 4, 12, 26, 52}, catalog.Thresholds(SlugWeeklyPointsGoal))
	assert.NotEmpty(t, catalog.Thresholds(SlugWeeklyChallenge))
	assert.NotEmpty(t, catalog.Thresholds(SlugWeeklyExerciseGoals))
	assert.NotEmpty(t, catalog.Thresholds(SlugMonthlyChampion))

	slug, ok := catalog.ForActivity("pushups")
	require.True(t, ok)
	assert.Equal(t, "lifetime-pushups", slug)

	levels := catalog.Levels(slug)
	require.NotEmpty(t, levels)
	assert.Equal(t, "100 lifetime pushups", levels[0].Label)
	assert.Equal(t, models.BadgeCategoryLifetime, levels[0].Category)

	_, ok = catalog.ForActivity("yoga")
	assert.False(t, ok)
}

func TestParseCatalog_SortsAndRejectsDuplicates(t *testing.T) {
	catalog, err := ParseCatalog([]byte(`
progress:
  - slug: streak
    label: "Streak {level}"
    levels: [10, 1, 5]
`))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 5, 10}, catalog.Thresholds("streak"))
	assert.Equal(t, "Streak 5", catalog.Levels("streak")[1].Label)

	_, err = ParseCatalog([]byte(`
progress:
  - slug: streak
    levels: [1, 1]
`))
	assert.Error(t, err)

	_, err = ParseCatalog([]byte(`
lifetime:
  - activity_type: ""
    levels: [1]
`))
	assert.Error(t, err)

	_, err = ParseCatalog([]byte(`progress: [`))
	assert.Error(t, err)
}

func TestLoadCatalog_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
lifetime:
  - activity_type: rowing
    label: "{level} m {activity}"
    levels: [1000]
`), 0o600))

	catalog, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, []int{1000}, catalog.Thresholds("lifetime-rowing"))
	assert.Equal(t, "1000 m rowing", catalog.Levels("lifetime-rowing")[0].Label)

	_, err = LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestCatalog_LevelsReturnsCopy(t *testing.T) {
	catalog, err := LoadCatalog("")
	require.NoError(t, err)

	levels := catalog.Levels(SlugWeeklyChallenge)
	levels[0].Label = "mutated"
	assert.NotEqual(t, "mutated", catalog.Levels(SlugWeeklyChallenge)[0].Label)
}

type memoryCatalogStore struct {
	rows []models.Badge
}

func (m *memoryCatalogStore) EnsureBadges(_ context.Context, badges []models.Badge) (int64, error) {
	var created int64
	for _, b := range badges {
		exists := false
		for _, r := range m.rows {
			if r.Key() == b.Key() {
				exists = true
				break
			}
		}
		if !exists {
			b.ID = "id-" + b.Key()
			m.rows = append(m.rows, b)
			created++
		}
	}
	return created, nil
}

func (m *memoryCatalogStore) GetAll(_ context.Context) ([]models.Badge, error) {
	return m.rows, nil
}

func TestMaterialize(t *testing.T) {
	store := &memoryCatalogStore{rows: []models.Badge{
		{ID: "legacy", Slug: "streak", Level: 1, Label: "Stored label", Category: models.BadgeCategoryProgress},
		{ID: "retired", Slug: "retired", Level: 1, Category: models.BadgeCategoryProgress},
	}}
	def, err := ParseCatalog([]byte(`
progress:
  - slug: streak
    label: "New label"
    levels: [1, 3]
`))
	require.NoError(t, err)

	catalog, created, err := Materialize(context.Background(), store, def)
	require.NoError(t, err)
	assert.Equal(t, int64(1), created)

	levels := catalog.Levels("streak")
	require.Len(t, levels, 2)
	assert.Equal(t, "legacy", levels[0].ID)
	assert.Equal(t, "Stored label", levels[0].Label)
	assert.Equal(t, "id-streak:3", levels[1].ID)
	assert.Empty(t, catalog.Levels("retired"))
}

package badges

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aimd54/workout-achievements/internal/models"
)

// Progress badge slugs driven by the periodic jobs.
const (
	SlugWeeklyPointsGoal    = "weekly-points-goal"
	SlugWeeklyChallenge     = "weekly-challenge"
	SlugWeeklyExerciseGoals = "weekly-exercise-goals"
	SlugMonthlyChampion     = "monthly-champion"
)

//go:embed default_catalog.yaml
var defaultCatalog []byte

// LifetimeSlug returns the slug of the lifetime badge for an activity type.
func LifetimeSlug(activityType string) string {
	return "lifetime-" + activityType
}

type definition struct {
	Progress []progressDefinition `yaml:"progress"`
	Lifetime []lifetimeDefinition `yaml:"lifetime"`
}

type progressDefinition struct {
	Slug        string `yaml:"slug"`
	Label       string `yaml:"label"`
	Description string `yaml:"description"`
	Icon        string `yaml:"icon"`
	Levels      []int  `yaml:"levels"`
}

type lifetimeDefinition struct {
	ActivityType string `yaml:"activity_type"`
	Label        string `yaml:"label"`
	Description  string `yaml:"description"`
	Icon         string `yaml:"icon"`
	Levels       []int  `yaml:"levels"`
}

// Catalog is the immutable set of badge levels known to the engine. It is built
// once at startup and shared by reference.
type Catalog struct {
	levels     map[string][]models.Badge // slug -> levels ascending
	byActivity map[string]string         // activity type -> slug
}

// LoadCatalog reads the catalog from path, or the embedded default when path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	data := defaultCatalog
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read badge catalog: %w", err)
		}
	}
	return ParseCatalog(data)
}

// ParseCatalog builds a catalog from its YAML definition.
func ParseCatalog(data []byte) (*Catalog, error) {
	var def definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse badge catalog: %w", err)
	}

	var all []models.Badge
	for _, p := range def.Progress {
		if p.Slug == "" {
			return nil, errors.New("progress badge without slug")
		}
		for _, level := range p.Levels {
			all = append(all, models.Badge{
				Slug:        p.Slug,
				Level:       level,
				Category:    models.BadgeCategoryProgress,
				Label:       expand(p.Label, level, ""),
				Description: expand(p.Description, level, ""),
				Icon:        p.Icon,
			})
		}
	}
	for _, l := range def.Lifetime {
		if l.ActivityType == "" {
			return nil, errors.New("lifetime badge without activity type")
		}
		for _, level := range l.Levels {
			all = append(all, models.Badge{
				Slug:         LifetimeSlug(l.ActivityType),
				Level:        level,
				Category:     models.BadgeCategoryLifetime,
				ActivityType: l.ActivityType,
				Label:        expand(l.Label, level, l.ActivityType),
				Description:  expand(l.Description, level, l.ActivityType),
				Icon:         l.Icon,
			})
		}
	}

	return newCatalog(all)
}

func newCatalog(all []models.Badge) (*Catalog, error) {
	c := &Catalog{
		levels:     make(map[string][]models.Badge),
		byActivity: make(map[string]string),
	}
	seen := make(map[string]bool)
	for _, b := range all {
		if b.Level <= 0 {
			return nil, fmt.Errorf("badge %s has non-positive level", b.Key())
		}
		if seen[b.Key()] {
			return nil, fmt.Errorf("badge %s defined twice", b.Key())
		}
		seen[b.Key()] = true
		c.levels[b.Slug] = append(c.levels[b.Slug], b)
		if b.ActivityType != "" {
			c.byActivity[b.ActivityType] = b.Slug
		}
	}
	for slug := range c.levels {
		levels := c.levels[slug]
		sort.Slice(levels, func(i, j int) bool { return levels[i].Level < levels[j].Level })
	}
	return c, nil
}

func expand(tmpl string, level int, activity string) string {
	return strings.NewReplacer("{level}", strconv.Itoa(level), "{activity}", activity).Replace(tmpl)
}

// Badges returns every badge level, ordered by slug then level.
func (c *Catalog) Badges() []models.Badge {
	slugs := make([]string, 0, len(c.levels))
	for slug := range c.levels {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)

	var out []models.Badge
	for _, slug := range slugs {
		out = append(out, c.levels[slug]...)
	}
	return out
}

// Levels returns a copy of the levels of a slug, ascending.
func (c *Catalog) Levels(slug string) []models.Badge {
	return append([]models.Badge(nil), c.levels[slug]...)
}

// Thresholds returns the level values of a slug, ascending.
func (c *Catalog) Thresholds(slug string) []int {
	levels := c.levels[slug]
	out := make([]int, len(levels))
	for i, b := range levels {
		out[i] = b.Level
	}
	return out
}

// ForActivity returns the lifetime badge slug for an activity type.
func (c *Catalog) ForActivity(activityType string) (string, bool) {
	slug, ok := c.byActivity[activityType]
	return slug, ok
}

// CatalogStore persists catalog rows.
type CatalogStore interface {
	EnsureBadges(ctx context.Context, badges []models.Badge) (int64, error)
	GetAll(ctx context.Context) ([]models.Badge, error)
}

// Materialize inserts missing catalog levels and returns a catalog whose badges
// carry their stored IDs. Stored rows win over the definition.
func Materialize(ctx context.Context, store CatalogStore, c *Catalog) (*Catalog, int64, error) {
	created, err := store.EnsureBadges(ctx, c.Badges())
	if err != nil {
		return nil, 0, err
	}

	stored, err := store.GetAll(ctx)
	if err != nil {
		return nil, 0, err
	}

	wanted := make(map[string]bool)
	for _, b := range c.Badges() {
		wanted[b.Key()] = true
	}

	var kept []models.Badge
	for _, b := range stored {
		if wanted[b.Key()] {
			kept = append(kept, b)
		}
	}

	materialized, err := newCatalog(kept)
	if err != nil {
		return nil, 0, err
	}
	return materialized, created, nil
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigYAML = `
database:
  postgres:
    host: localhost
    database: achievements
    user: achievements
  redis:
    host: localhost
scheduler:
  timezone: Europe/Paris
  timezone_offset_minutes: 60
achievements:
  weekly_challenge_threshold: 3000
email:
  breaker_timeout: 45
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func validConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Postgres: PostgresConfig{Host: "localhost", Database: "achievements", User: "achievements"},
			Redis:    RedisConfig{Host: "localhost"},
		},
		Achievements: AchievementsConfig{
			DefaultPointsGoal:        1000,
			WeeklyChallengeThreshold: 2500,
			MonthlyChampionThreshold: 10000,
		},
	}
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, testConfigYAML))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, "5 0 * * 1", cfg.Scheduler.Weekly)
	assert.Equal(t, "10 0 1 * *", cfg.Scheduler.Monthly)
	assert.Equal(t, 60, cfg.Scheduler.TimezoneOffsetMinutes)
	assert.Equal(t, float64(1000), cfg.Achievements.DefaultPointsGoal)
	assert.Equal(t, float64(3000), cfg.Achievements.WeeklyChallengeThreshold)
	assert.Equal(t, "email:summaries", cfg.Email.QueueKey)
	assert.Equal(t, 45*time.Second, cfg.Email.BreakerTimeoutDuration())
	assert.Equal(t, "/metrics", cfg.Metrics.Prometheus.Path)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("POSTGRES_HOST", "db.internal")
	t.Setenv("SCHEDULER_WEEKLY", "0 6 * * 1")
	t.Setenv("ACHIEVEMENTS_MONTHLY_CHAMPION_THRESHOLD", "12000")

	cfg, err := Load(writeConfig(t, testConfigYAML))
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Postgres.Host)
	assert.Equal(t, "0 6 * * 1", cfg.Scheduler.Weekly)
	assert.Equal(t, float64(12000), cfg.Achievements.MonthlyChampionThreshold)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing postgres host", func(c *Config) { c.Database.Postgres.Host = "" }, "database.postgres.host"},
		{"missing redis host", func(c *Config) { c.Database.Redis.Host = "" }, "database.redis.host"},
		{"offset out of range", func(c *Config) { c.Scheduler.TimezoneOffsetMinutes = 15 * 60 }, "timezone_offset_minutes"},
		{"negative points goal", func(c *Config) { c.Achievements.DefaultPointsGoal = -1 }, "default_points_goal"},
		{"zero challenge threshold", func(c *Config) { c.Achievements.WeeklyChallengeThreshold = 0 }, "weekly_challenge_threshold"},
		{"zero champion threshold", func(c *Config) { c.Achievements.MonthlyChampionThreshold = 0 }, "monthly_champion_threshold"},
		{"mattermost without webhook", func(c *Config) { c.Mattermost.Enabled = true }, "mattermost.webhook_url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSchedulerConfig_GetLocation(t *testing.T) {
	loc, err := (&SchedulerConfig{Timezone: "UTC"}).GetLocation()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	_, err = (&SchedulerConfig{Timezone: "Mars/Olympus"}).GetLocation()
	assert.Error(t, err)
}

func TestPostgresConfig_URL(t *testing.T) {
	c := &PostgresConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "d", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@db:5432/d?sslmode=disable", c.URL())
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=d sslmode=disable", c.DSN())
}

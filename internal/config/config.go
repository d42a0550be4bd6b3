// Package config handles application configuration loading and validation using Viper.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration.
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Scheduler     SchedulerConfig     `mapstructure:"scheduler"`
	Achievements  AchievementsConfig  `mapstructure:"achievements"`
	Email         EmailConfig         `mapstructure:"email"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Mattermost    MattermostConfig    `mapstructure:"mattermost"`
	Metrics       MetricsConfig       `mapstructure:"metrics"`
	Logging       LoggingConfig       `mapstructure:"logging"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port        int    `mapstructure:"port"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig contains database connection settings for PostgreSQL and Redis.
type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// PostgresConfig contains PostgreSQL database connection and pool settings.
type PostgresConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Database        string `mapstructure:"database"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool   `mapstructure:"auto_migrate"`
}

// DSN returns the libpq style connection string used by GORM.
func (c *PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// URL returns the postgres:// URL used by golang-migrate.
func (c *PostgresConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}

// RedisConfig contains Redis connection and pool settings.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// Addr returns host:port.
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SchedulerConfig contains the weekly and monthly run schedules.
type SchedulerConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Weekly   string `mapstructure:"weekly"`  // Cron expression for the weekly run
	Monthly  string `mapstructure:"monthly"` // Cron expression for the monthly run
	Timezone string `mapstructure:"timezone"`
	// TimezoneOffsetMinutes is the local offset used to resolve evaluation windows.
	TimezoneOffsetMinutes int `mapstructure:"timezone_offset_minutes"`
}

// AchievementsConfig contains goal and award thresholds.
type AchievementsConfig struct {
	DefaultPointsGoal         float64 `mapstructure:"default_points_goal"`
	WeeklyChallengeThreshold  float64 `mapstructure:"weekly_challenge_threshold"`
	MonthlyChampionThreshold  float64 `mapstructure:"monthly_champion_threshold"`
	CatalogPath               string  `mapstructure:"catalog_path"` // Empty uses the embedded catalog
	DigestsEnabled            bool    `mapstructure:"digests_enabled"`
	LifetimeMilestonesEnabled bool    `mapstructure:"lifetime_milestones_enabled"`
}

// EmailConfig contains the summary email queue settings.
type EmailConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	QueueKey        string `mapstructure:"queue_key"`
	BreakerFailures uint32 `mapstructure:"breaker_failures"`
	BreakerTimeout  int    `mapstructure:"breaker_timeout"` // seconds
}

// NotificationsConfig contains realtime notification fan-out settings.
type NotificationsConfig struct {
	ChannelPrefix string `mapstructure:"channel_prefix"`
}

// MattermostConfig contains the ops webhook used for run reports.
type MattermostConfig struct {
	WebhookURL string `mapstructure:"webhook_url"`
	Channel    string `mapstructure:"channel"`
	Enabled    bool   `mapstructure:"enabled"`
}

// MetricsConfig contains metrics exporter settings.
type MetricsConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
}

// PrometheusConfig contains Prometheus metrics exporter settings.
type PrometheusConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LoggingConfig contains application logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.environment", "development")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.ssl_mode", "disable")
	v.SetDefault("database.postgres.max_open_conns", 10)
	v.SetDefault("database.postgres.max_idle_conns", 5)
	v.SetDefault("database.postgres.conn_max_lifetime", 300)
	v.SetDefault("database.redis.port", 6379)
	v.SetDefault("database.redis.pool_size", 10)
	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.weekly", "5 0 * * 1")
	v.SetDefault("scheduler.monthly", "10 0 1 * *")
	v.SetDefault("scheduler.timezone", "UTC")
	v.SetDefault("achievements.default_points_goal", 1000)
	v.SetDefault("achievements.weekly_challenge_threshold", 2500)
	v.SetDefault("achievements.monthly_champion_threshold", 10000)
	v.SetDefault("achievements.digests_enabled", true)
	v.SetDefault("achievements.lifetime_milestones_enabled", true)
	v.SetDefault("email.enabled", true)
	v.SetDefault("email.queue_key", "email:summaries")
	v.SetDefault("email.breaker_failures", 5)
	v.SetDefault("email.breaker_timeout", 30)
	v.SetDefault("notifications.channel_prefix", "notifications")
	v.SetDefault("metrics.prometheus.enabled", true)
	v.SetDefault("metrics.prometheus.path", "/metrics")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
}

// Load reads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/workout-achievements/")
	}

	// Server configuration
	_ = v.BindEnv("server.port", "SERVER_PORT")
	_ = v.BindEnv("server.environment", "SERVER_ENVIRONMENT")

	// PostgreSQL configuration
	_ = v.BindEnv("database.postgres.host", "POSTGRES_HOST")
	_ = v.BindEnv("database.postgres.port", "POSTGRES_PORT")
	_ = v.BindEnv("database.postgres.database", "POSTGRES_DB")
	_ = v.BindEnv("database.postgres.user", "POSTGRES_USER")
	_ = v.BindEnv("database.postgres.password", "POSTGRES_PASSWORD")
	_ = v.BindEnv("database.postgres.ssl_mode", "POSTGRES_SSL_MODE")
	_ = v.BindEnv("database.postgres.auto_migrate", "POSTGRES_AUTO_MIGRATE")

	// Redis configuration
	_ = v.BindEnv("database.redis.host", "REDIS_HOST")
	_ = v.BindEnv("database.redis.port", "REDIS_PORT")
	_ = v.BindEnv("database.redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("database.redis.db", "REDIS_DB")

	// Scheduler configuration
	_ = v.BindEnv("scheduler.enabled", "SCHEDULER_ENABLED")
	_ = v.BindEnv("scheduler.weekly", "SCHEDULER_WEEKLY")
	_ = v.BindEnv("scheduler.monthly", "SCHEDULER_MONTHLY")
	_ = v.BindEnv("scheduler.timezone", "SCHEDULER_TIMEZONE")
	_ = v.BindEnv("scheduler.timezone_offset_minutes", "SCHEDULER_TIMEZONE_OFFSET_MINUTES")

	// Achievements configuration
	_ = v.BindEnv("achievements.default_points_goal", "ACHIEVEMENTS_DEFAULT_POINTS_GOAL")
	_ = v.BindEnv("achievements.weekly_challenge_threshold", "ACHIEVEMENTS_WEEKLY_CHALLENGE_THRESHOLD")
	_ = v.BindEnv("achievements.monthly_champion_threshold", "ACHIEVEMENTS_MONTHLY_CHAMPION_THRESHOLD")
	_ = v.BindEnv("achievements.catalog_path", "ACHIEVEMENTS_CATALOG_PATH")

	// Email and notification configuration
	_ = v.BindEnv("email.enabled", "EMAIL_ENABLED")
	_ = v.BindEnv("email.queue_key", "EMAIL_QUEUE_KEY")
	_ = v.BindEnv("mattermost.webhook_url", "MATTERMOST_WEBHOOK_URL")
	_ = v.BindEnv("mattermost.channel", "MATTERMOST_CHANNEL")
	_ = v.BindEnv("mattermost.enabled", "MATTERMOST_ENABLED")

	// Logging configuration
	_ = v.BindEnv("logging.level", "LOG_LEVEL")
	_ = v.BindEnv("logging.format", "LOG_FORMAT")
	_ = v.BindEnv("logging.output", "LOG_OUTPUT")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if c.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if c.Database.Postgres.User == "" {
		return fmt.Errorf("database.postgres.user is required")
	}
	if c.Database.Redis.Host == "" {
		return fmt.Errorf("database.redis.host is required")
	}
	if c.Scheduler.TimezoneOffsetMinutes < -14*60 || c.Scheduler.TimezoneOffsetMinutes > 14*60 {
		return fmt.Errorf("scheduler.timezone_offset_minutes must be within +/-840")
	}
	if c.Achievements.DefaultPointsGoal < 0 {
		return fmt.Errorf("achievements.default_points_goal must not be negative")
	}
	if c.Achievements.WeeklyChallengeThreshold <= 0 {
		return fmt.Errorf("achievements.weekly_challenge_threshold must be positive")
	}
	if c.Achievements.MonthlyChampionThreshold <= 0 {
		return fmt.Errorf("achievements.monthly_champion_threshold must be positive")
	}
	if c.Mattermost.Enabled && c.Mattermost.WebhookURL == "" {
		return fmt.Errorf("mattermost.webhook_url is required when mattermost is enabled")
	}

	return nil
}

// GetLocation returns the scheduler timezone location.
func (c *SchedulerConfig) GetLocation() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// BreakerTimeoutDuration returns the breaker open-state timeout.
func (c *EmailConfig) BreakerTimeoutDuration() time.Duration {
	return time.Duration(c.BreakerTimeout) * time.Second
}

// Command server runs the achievement scheduler together with the trigger and read API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aimd54/workout-achievements/internal/api/dashboard"
	"github.com/aimd54/workout-achievements/internal/api/jobs"
	"github.com/aimd54/workout-achievements/internal/config"
	"github.com/aimd54/workout-achievements/internal/mattermost"
	"github.com/aimd54/workout-achievements/internal/notify"
	"github.com/aimd54/workout-achievements/internal/repository"
	"github.com/aimd54/workout-achievements/internal/service/achievements"
	"github.com/aimd54/workout-achievements/internal/service/aggregator"
	"github.com/aimd54/workout-achievements/internal/service/awards"
	"github.com/aimd54/workout-achievements/internal/service/badges"
	"github.com/aimd54/workout-achievements/internal/service/digest"
	"github.com/aimd54/workout-achievements/internal/service/leaderboard"
	"github.com/aimd54/workout-achievements/internal/service/ledger"
	"github.com/aimd54/workout-achievements/internal/service/scheduler"
	"github.com/aimd54/workout-achievements/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	log := logger.Get()

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("Server stopped with error")
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := repository.NewDB(&cfg.Database.Postgres, log.Component("database"))
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close database")
		}
	}()

	if cfg.Database.Postgres.AutoMigrate {
		err = db.AutoMigrate()
	} else {
		err = repository.Migrate(cfg.Database.Postgres.URL())
	}
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	redisClient, err := notify.NewRedisClient(ctx, &cfg.Database.Redis)
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close Redis client")
		}
	}()

	// Repositories
	userRepo := repository.NewUserRepository(db)
	badgeRepo := repository.NewBadgeRepository(db)
	awardRepo := repository.NewAwardRepository(db)
	resultRepo := repository.NewResultRepository(db)
	jobRunRepo := repository.NewJobRunRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Delivery
	dispatcher := notify.NewDispatcher(notificationRepo, redisClient, cfg.Notifications.ChannelPrefix, log.Component("notify"))
	emailQueue := notify.NewEmailQueue(redisClient, cfg.Email.QueueKey, notify.BreakerSettings{
		ConsecutiveFailures: cfg.Email.BreakerFailures,
		OpenTimeout:         cfg.Email.BreakerTimeoutDuration(),
	}, log.Component("email"))

	catalog, err := badges.LoadCatalog(cfg.Achievements.CatalogPath)
	if err != nil {
		return err
	}
	catalog, created, err := badges.Materialize(ctx, badgeRepo, catalog)
	if err != nil {
		return err
	}
	log.Info().Int64("created", created).Int("levels", len(catalog.Badges())).Msg("Badge catalog ready")

	// Services
	zl := log.GetLogger()
	badgeService := badges.NewService(catalog, badgeRepo, dispatcher, log.Component("badges"))
	awardService := awards.NewService(awardRepo, dispatcher, log.Component("awards"))
	leaderboardService := leaderboard.NewService(
		repository.NewFriendshipRepository(db),
		repository.NewLeaderboardRepository(db),
		log.Component("leaderboard"),
	)

	engine := achievements.NewEngine(achievements.Config{
		OffsetMinutes:            cfg.Scheduler.TimezoneOffsetMinutes,
		DefaultPointsGoal:        cfg.Achievements.DefaultPointsGoal,
		WeeklyChallengeThreshold: cfg.Achievements.WeeklyChallengeThreshold,
		MonthlyChampionThreshold: cfg.Achievements.MonthlyChampionThreshold,
		LifetimeMilestones:       cfg.Achievements.LifetimeMilestonesEnabled,
		Digests:                  cfg.Email.Enabled && cfg.Achievements.DigestsEnabled,
	}, achievements.Deps{
		Ledger:      ledger.NewService(jobRunRepo, &zl),
		Aggregator:  aggregator.NewService(repository.NewActivityRepository(db), &zl),
		Profiles:    userRepo,
		Badges:      badgeService,
		Leaderboard: leaderboardService,
		Awards:      awardService,
		Results:     resultRepo,
		Digests:     digest.NewService(emailQueue, log.Component("digest")),
	}, log.Component("achievements"))

	sched := scheduler.NewService(cfg, engine, mattermost.NewClient(&cfg.Mattermost, log.Component("mattermost")), log.Component("scheduler"))
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	// HTTP
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		if err := db.Health(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if cfg.Metrics.Prometheus.Enabled {
		router.GET(cfg.Metrics.Prometheus.Path, gin.WrapH(promhttp.Handler()))
	}

	api := router.Group("/api/v1")
	jobs.NewHandler(engine, jobRunRepo, log.Component("jobs")).RegisterRoutes(api)
	dashboard.NewHandler(
		badgeService,
		awardService,
		leaderboardService,
		resultRepo,
		notificationRepo,
		cfg.Scheduler.TimezoneOffsetMinutes,
		log.Component("dashboard"),
	).RegisterRoutes(api)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

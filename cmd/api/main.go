package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"godsendjoseph.dev/cdn-client/cdn"
	"godsendjoseph.dev/cdn-client/internal/assets"
	"godsendjoseph.dev/cdn-client/internal/cron"
	"godsendjoseph.dev/cdn-client/internal/db"
	"godsendjoseph.dev/cdn-client/internal/env"
	"godsendjoseph.dev/cdn-client/internal/notification"
	ratelimiter "godsendjoseph.dev/cdn-client/internal/rateLimiter"
	"godsendjoseph.dev/cdn-client/internal/store"
	"godsendjoseph.dev/cdn-client/internal/store/cache"
)

const version = "0.1.0"

func main() {
	// Logger
	logger := zap.Must(zap.NewProduction()).Sugar()
	defer logger.Sync()

	if err := godotenv.Load(env.GetString("ENV_FILE", ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Fatalw("error loading .env file", "error", err)
	}

	cfg := loadConfig()

	var database *sql.DB
	storage := store.NewMemoryStorage()

	if cfg.db.enabled {
		var err error

		database, err = db.New(db.Config{
			Addr:         cfg.db.addr,
			User:         cfg.db.user,
			Password:     cfg.db.password,
			DBName:       cfg.db.dbName,
			MaxOpenConns: cfg.db.maxOpenConns,
			MaxIdleConns: cfg.db.maxIdleConns,
			MaxIdleTime:  cfg.db.maxIdleTime,
		}, logger)
		if err != nil {
			logger.Panic(err)
		}

		// defer closing the database
		defer database.Close()
		logger.Info("connected to database")

		if err := handleMigrations(database); err != nil {
			logger.Fatal(err)
		}

		// check for exiting after migrations
		if isMigrationCommand(os.Args) {
			return
		}

		storage = store.NewStorage(database)
	} else {
		logger.Warn("database disabled, asset records are kept in memory")
	}

	// Cache instance
	var cacheStorage *cache.Storage
	if cfg.redisCfg.enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisDB, err := cache.NewRedisClient(ctx, cfg.redisCfg.addr, cfg.redisCfg.pwd, cfg.redisCfg.db)
		cancel()
		if err != nil {
			logger.Fatalw("failed to connect to redis", "error", err)
		}
		defer func(client *redis.Client) {
			if err := client.Close(); err != nil {
				logger.Warnw("failed to close redis client", "error", err)
			}
		}(redisDB)

		rdb := cache.NewRedisStorage(redisDB)
		cacheStorage = &rdb
		logger.Info("redis connection has been established")
	}

	// Rate Limiter
	rateLimiter := ratelimiter.NewFixedWindowLimiter(
		cfg.rateLimiter.RequestPerTimeForIP,
		cfg.rateLimiter.TimeFrame,
	)

	slackNotifier := notification.NewSlackNotifier(
		cfg.slack.webhookURL,
		cfg.slack.channel,
		cfg.slack.username,
		cfg.slack.iconEmoji,
		cfg.slack.enabled,
	)

	cdnClient := cdn.NewClient(
		cfg.cdn.endpointURL,
		cfg.cdn.apiToken,
		cdn.WithHTTPClient(&http.Client{Timeout: cfg.cdn.timeout}),
		cdn.WithLogger(logger.Named("cdn")),
	)

	assetService := assets.NewService(cdnClient, storage, cacheStorage, slackNotifier, logger.Named("assets"))

	scheduler, err := cron.NewScheduler(logger, cfg.timezone)
	if err != nil {
		logger.Fatal(err)
	}

	if cfg.sweep.enabled {
		jobManager := cron.NewJobManager(logger, assetService, slackNotifier)
		scheduler.AddJob(cron.SweepExpiredAssetsJob, cfg.sweep.schedule, jobManager.SweepExpiredAssets(cfg.sweep.batch, cfg.sweep.timeout))
	}

	// Start the scheduler
	if err := scheduler.Start(); err != nil {
		logger.Fatal(err)
	}
	// Ensure the scheduler stops when the app shuts down
	defer scheduler.Stop()

	app := &application{
		config:        cfg,
		assets:        assetService,
		logger:        logger,
		rateLimiter:   rateLimiter,
		scheduler:     scheduler,
		slackNotifier: slackNotifier,
	}

	mux := app.mount()

	if err := app.run(mux); err != nil {
		logger.Errorw("server stopped with error", "error", err)
	}
}

func loadConfig() config {
	return config{
		addr:           env.GetString("ADDR", ":8080"),
		apiURL:         env.GetString("EXTERNAL_URL", "http://localhost:8080"),
		env:            env.GetString("ENV", "development"),
		gatewayToken:   env.GetSecret("GATEWAY_TOKEN", ""),
		maxUploadBytes: env.GetInt64("MAX_UPLOAD_BYTES", 32<<20),
		cdn: cdnConfig{
			endpointURL: env.GetString("CDN_ENDPOINT_URL", "https://cdn.example.com/api"),
			apiToken:    env.GetSecret("CDN_API_TOKEN", ""),
			timeout:     env.GetDuration("CDN_TIMEOUT", time.Minute),
		},
		db: dbConfig{
			enabled:      env.GetBool("DB_ENABLED", true),
			addr:         fmt.Sprintf("%s:%s", env.GetString("DB_HOST", "127.0.0.1"), env.GetString("DB_PORT", "3306")),
			user:         env.GetString("DB_USER", "root"),
			password:     env.GetSecret("DB_PASSWORD", "root"),
			dbName:       env.GetString("DB_NAME", "cdn_assets"),
			maxOpenConns: env.GetInt("DB_MAX_OPEN_CONNS", 25),
			maxIdleConns: env.GetInt("DB_MAX_IDLE_CONNS", 25),
			maxIdleTime:  env.GetDuration("DB_MAX_IDLE_TIME", 15*time.Minute),
		},
		redisCfg: redisConfig{
			addr:    env.GetString("REDIS_ADDR", "localhost:6379"),
			pwd:     env.GetSecret("REDIS_PASSWORD", ""),
			db:      env.GetInt("REDIS_DB", 0),
			enabled: env.GetBool("REDIS_ENABLED", false),
		},
		rateLimiter: ratelimiter.Config{
			RequestPerTimeForIP: env.GetInt("RATE_LIMITER_REQUEST_COUNT", 20),
			TimeFrame:           env.GetDuration("RATE_LIMITER_TIME_FRAME", 5*time.Minute),
			Enabled:             env.GetBool("RATE_LIMITER_ENABLED", true),
		},
		timezone: env.GetString("TIMEZONE", "UTC"),
		sweep: sweepConfig{
			enabled:  env.GetBool("SWEEP_ENABLED", true),
			schedule: env.GetString("SWEEP_SCHEDULE", "*/10 * * * *"),
			batch:    env.GetInt("SWEEP_BATCH", 50),
			timeout:  env.GetDuration("SWEEP_TIMEOUT", 5*time.Minute),
		},
		slack: slackConfig{
			webhookURL: env.GetSecret("SLACK_WEBHOOK_URL", ""),
			channel:    env.GetString("SLACK_CHANNEL", "#cdn"),
			username:   env.GetString("SLACK_USERNAME", "CDN Gateway"),
			iconEmoji:  env.GetString("SLACK_ICON_EMOJI", ":package:"),
			enabled:    env.GetBool("SLACK_ENABLED", false),
		},
	}
}

func isMigrationCommand(args []string) bool {
	if len(args) < 2 {
		return false
	}

	switch args[len(args)-1] {
	case "up", "down", "force":
		return true
	default:
		return false
	}
}

func handleMigrations(database *sql.DB) error {
	driver, err := mysql.WithInstance(database, &mysql.Config{})
	if err != nil {
		return fmt.Errorf("could not create driver instance: %v", err)
	}

	migrationsPath := "file://cmd/migrate/migrations"
	if os.Getenv("DOCKER_ENV") == "true" {
		// If in Docker, use the absolute path within the container
		migrationsPath = "file:///app/cmd/migrate/migrations"
	}

	m, err := migrate.NewWithDatabaseInstance(
		migrationsPath,
		"mysql",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migration instance: %v", err)
	}

	if !isMigrationCommand(os.Args) {
		// a plain start brings the schema up to date
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("could not run up migration: %v", err)
		}
		return nil
	}

	switch os.Args[len(os.Args)-1] {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("could not run up migration: %v", err)
		}
	case "down":
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("could not run down migration: %v", err)
		}
	case "force":
		if len(os.Args) != 3 {
			return fmt.Errorf("force command requires a version number")
		}
		version, err := strconv.ParseInt(os.Args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid version number: %v", err)
		}
		if err := m.Force(int(version)); err != nil {
			return fmt.Errorf("could not force version: %v", err)
		}
	}

	return nil
}

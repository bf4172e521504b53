package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"godsendjoseph.dev/cdn-client/internal/assets"
	"godsendjoseph.dev/cdn-client/internal/cron"
	"godsendjoseph.dev/cdn-client/internal/notification"
	ratelimiter "godsendjoseph.dev/cdn-client/internal/rateLimiter"
)

type application struct {
	config        config
	assets        *assets.Service
	logger        *zap.SugaredLogger
	rateLimiter   ratelimiter.Limiter
	scheduler     *cron.Scheduler
	slackNotifier *notification.SlackNotifier
}

type config struct {
	addr           string
	env            string
	apiURL         string
	gatewayToken   string
	maxUploadBytes int64
	cdn            cdnConfig
	db             dbConfig
	redisCfg       redisConfig
	rateLimiter    ratelimiter.Config
	timezone       string
	sweep          sweepConfig
	slack          slackConfig
}

type cdnConfig struct {
	endpointURL string
	apiToken    string
	timeout     time.Duration
}

type dbConfig struct {
	enabled      bool
	addr         string
	user         string
	password     string
	dbName       string
	maxOpenConns int
	maxIdleConns int
	maxIdleTime  time.Duration
}

type redisConfig struct {
	addr    string
	pwd     string
	db      int
	enabled bool
}

type sweepConfig struct {
	enabled  bool
	schedule string
	batch    int
	timeout  time.Duration
}

type slackConfig struct {
	webhookURL string
	channel    string
	username   string
	iconEmoji  string
	enabled    bool
}

func (app *application) mount() http.Handler {
	router := chi.NewRouter()

	// middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	// cors
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*", "http://localhost:*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	router.Use(app.RateLimiterMiddleware)

	// Uploads wait on the CDN, so the timeout is longer than the CDN client's.
	router.Use(middleware.Timeout(app.config.cdn.timeout + 30*time.Second))

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		app.notFoundResponse(w, r, errors.New("route not found"))
	})

	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		app.methodNotAllowedResponse(w, r, errors.New("method not allowed"))
	})

	app.registerRoutes(router)

	return router
}

func (app *application) run(mux http.Handler) error {
	server := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: app.config.cdn.timeout + time.Minute,
		ReadTimeout:  time.Minute,
		IdleTimeout:  time.Minute,
	}

	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)

		defer cancel()

		app.logger.Infow("signals caught", "signal", s.String())

		shutdown <- server.Shutdown(ctx)
	}()

	app.logger.Infow("Server has started", "addr", app.config.addr, "env", app.config.env)

	err := server.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("Server has stopped", "addr", app.config.addr, "env", app.config.env)

	return nil
}

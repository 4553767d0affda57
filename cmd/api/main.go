// Entry point for REST API
package main

import (
	"context"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"tracking.service/internal/api"
	"tracking.service/internal/apisim"
	"tracking.service/internal/config"
	"tracking.service/internal/core"
	"tracking.service/internal/ports/messaging"
	"tracking.service/internal/ports/repository"
	"tracking.service/pkg/aws"
	"tracking.service/pkg/database"
	"tracking.service/pkg/logger"
	"tracking.service/pkg/telemetry"
)

func main() {
	// Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Could not load configuration")
	}

	// Configure structured logging
	logger.Setup(cfg.IsLocalDev)

	// Configure OpenTelemetry Tracing
	shutdownTracer, err := telemetry.InitTracer("tracking-api", cfg.OTLPEndpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to init tracer")
	}
	defer func() {
		_ = shutdownTracer(context.Background())
	}()

	ctx := context.Background()

	repo, closeRepo := openRepository(ctx, cfg)
	defer closeRepo()

	producer := newProducer(ctx, cfg)
	svc := core.NewTrackingService(repo, core.WithPublisher(producer))

	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	seeded, err := svc.Seed(ctx, rand.New(rand.NewPCG(seed, seed)), cfg.SeedMonth)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to seed tracking data")
	}
	log.Info().Bool("seeded", seeded).Uint64("seed", seed).Str("month", cfg.SeedMonth).Msg("Tracking data ready")

	// The dashboard starts with the first user selected.
	timer := core.NewLiveTimer(svc, cfg.TimerTick)
	defer timer.Close()
	if users, err := svc.Users(ctx); err == nil && len(users) > 0 {
		if _, err := timer.Select(ctx, users[0].ID); err != nil {
			log.Error().Err(err).Msg("Failed to select initial user")
		}
	}

	// Setup router and server
	router := api.NewRouter(svc, apisim.New(svc, cfg.APILatency), timer)

	// Middleware to inject logger with trace ID
	loggerMiddleware := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ctx = logger.EnrichContextWithLogger(ctx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}

	// Wrap the router with OpenTelemetry middleware to create spans for each request
	handler := otelhttp.NewHandler(loggerMiddleware(router), "api")

	serverAddr := ":" + cfg.ServerPort
	srv := &http.Server{
		Addr:    serverAddr,
		Handler: handler,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", cfg.ServerPort).Msg("API Service starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	// The context is used to inform the server it has 5 seconds to finish
	// the requests it is currently handling
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}

// openRepository picks the store named by STORE_DRIVER.
func openRepository(ctx context.Context, cfg config.Config) (repository.Repository, func()) {
	if cfg.StoreDriver != config.StorePostgres {
		log.Info().Msg("Using in-memory store")
		return repository.NewMemoryRepository(), func() {}
	}

	db, err := database.NewInstrumentedConnection(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening database")
	}
	log.Info().Msg("Successfully connected to the database.")

	repo := repository.NewPostgresRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		db.Close()
		log.Fatal().Err(err).Msg("Error creating schema")
	}
	return repo, func() { db.Close() }
}

// newProducer publishes break events to SQS when a queue is configured and
// only logs them otherwise.
func newProducer(ctx context.Context, cfg config.Config) *messaging.Producer {
	if cfg.BreakEventsQueueURL == "" {
		log.Info().Msg("No break events queue configured, events are logged only")
		return messaging.NewProducer(messaging.LogSender{}, "log")
	}

	// AWS SDK Config
	awsCfg, err := aws.NewAWSConfig(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to load SDK config")
	}
	return messaging.NewSQSProducer(sqs.NewFromConfig(awsCfg), cfg.BreakEventsQueueURL)
}

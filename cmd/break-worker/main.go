// Entry point for the break summary worker
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/rs/zerolog/log"

	"tracking.service/internal/config"
	"tracking.service/internal/core"
	"tracking.service/internal/worker"
	"tracking.service/internal/worker/summary"
	"tracking.service/pkg/aws"
	"tracking.service/pkg/logger"
	"tracking.service/pkg/telemetry"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Could not load configuration")
	}

	logger.Setup(cfg.IsLocalDev)

	if cfg.BreakEventsQueueURL == "" {
		log.Fatal().Msg("BREAK_EVENTS_QUEUE_URL is required")
	}

	shutdownTracer, err := telemetry.InitTracer("break-worker", cfg.OTLPEndpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to init tracer")
	}
	defer func() {
		_ = shutdownTracer(context.Background())
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	awsCfg, err := aws.NewAWSConfig(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to load SDK config")
	}

	emailService := core.NewSESEmailService(ses.NewFromConfig(awsCfg), cfg.SummaryEmailSender)
	processor := summary.NewProcessor(emailService, cfg.EmailDomain)
	w := worker.NewWorker(sqs.NewFromConfig(awsCfg), cfg.BreakEventsQueueURL, processor)

	w.Start(ctx)
	log.Info().Msg("Break worker stopped")
}

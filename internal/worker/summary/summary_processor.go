package summary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"tracking.service/internal/core"
	"tracking.service/internal/ports/messaging"
)

// SummaryProcessor handles the break events queue. Every ended break is mailed
// to the user through the email service, which sits behind a circuit breaker.
type SummaryProcessor struct {
	emailService core.EmailService
	emailDomain  string
	cb           *gobreaker.CircuitBreaker
}

// NewProcessor sets up a new processor for break events. Users whose event
// carries no email address are mailed at <userId>@emailDomain.
func NewProcessor(emailService core.EmailService, emailDomain string) *SummaryProcessor {
	settings := gobreaker.Settings{
		Name:        "Email-Service",
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Trip if failure rate is bigger then 50% after at least 10 requests
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.5
		},
	}

	return &SummaryProcessor{
		emailService: emailService,
		emailDomain:  emailDomain,
		cb:           gobreaker.NewCircuitBreaker(settings),
	}
}

// Process decodes the event type and only acts on ended breaks. Started breaks
// are acknowledged without side effects.
func (p *SummaryProcessor) Process(ctx context.Context, msg types.Message) (bool, int32, error) {
	body := []byte(aws.ToString(msg.Body))

	var envelope messaging.Envelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to unmarshal break event")
		return false, 0, err // Do not retry on malformed message
	}

	switch envelope.Type {
	case messaging.EventBreakStarted:
		log.Ctx(ctx).Debug().Str("user_id", envelope.UserID).Msg("Break started, nothing to send")
		return false, 0, nil
	case messaging.EventBreakEnded:
	default:
		return false, 0, fmt.Errorf("unknown event type %q", envelope.Type)
	}

	var event messaging.BreakEndedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return false, 0, err
	}

	to := event.Email
	if to == "" {
		to = event.UserID + "@" + p.emailDomain
	}

	_, err := p.cb.Execute(func() (interface{}, error) {
		return nil, p.emailService.SendBreakSummary(ctx, to, event)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			log.Ctx(ctx).Warn().Msg("Circuit breaker is open; skipping email service call")
		}
		return true, calculateBackoff(receiveCount(msg)), err
	}

	log.Ctx(ctx).Info().Str("user_id", event.UserID).Int("duration", event.DurationMinutes).Msg("Break summary sent")
	return false, 0, nil
}

// receiveCount reads how often SQS has delivered msg, 1 when unknown.
func receiveCount(msg types.Message) int {
	raw, ok := msg.Attributes[string(types.MessageSystemAttributeNameApproximateReceiveCount)]
	if !ok {
		return 1
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// calculateBackoff determines how long to wait before retrying a failed job.
// It increases the delay exponentially with each delivery, capped at one hour.
func calculateBackoff(retryCount int) int32 {
	backoff := math.Pow(2, float64(retryCount)) * 10
	if backoff > 3600 {
		return 3600
	}
	return int32(backoff)
}

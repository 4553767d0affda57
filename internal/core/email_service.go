package core

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"tracking.service/internal/ports/messaging"
	"tracking.service/pkg/telemetry"
)

type EmailService interface {
	SendBreakSummary(ctx context.Context, to string, event messaging.BreakEndedEvent) error
}

// SESClient is the subset of the SES client we use.
type SESClient interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SESEmailService struct {
	client SESClient
	sender string
}

func NewSESEmailService(client SESClient, sender string) *SESEmailService {
	return &SESEmailService{client: client, sender: sender}
}

func (s *SESEmailService) SendBreakSummary(ctx context.Context, to string, event messaging.BreakEndedEvent) error {
	tracer := otel.Tracer("ses-email-service")
	ctx, span := tracer.Start(ctx, "send_email", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	if userID := telemetry.GetUserIDFromContext(ctx); userID != "" {
		span.SetAttributes(attribute.String("app.userId", userID))
	}

	input := &ses.SendEmailInput{
		Source: aws.String(s.sender),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String("Break Summary"),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data: aws.String(BreakSummaryText(event)),
				},
			},
		},
	}

	_, err := s.client.SendEmail(ctx, input)
	return err
}

// BreakSummaryText is the plain text body of a break summary mail.
func BreakSummaryText(event messaging.BreakEndedEvent) string {
	name := event.UserName
	if name == "" {
		name = event.UserID
	}
	return fmt.Sprintf("Hello %s,\n\nWelcome back. Your break on %s from %s to %s lasted %d minutes.",
		name, event.Date, event.Start, event.End, event.DurationMinutes)
}

package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Producer struct {
	sender   MessageSender
	queueURL string
}

func NewProducer(sender MessageSender, queueURL string) *Producer {
	return &Producer{
		sender:   sender,
		queueURL: queueURL,
	}
}

func NewSQSProducer(client SQSClient, queueURL string) *Producer {
	return NewProducer(&SQSSender{client: client}, queueURL)
}

func (p *Producer) PublishBreakStarted(ctx context.Context, event BreakStartedEvent) error {
	event.Envelope = p.envelope(event.Envelope, EventBreakStarted)
	return p.publish(ctx, event.UserID, event)
}

func (p *Producer) PublishBreakEnded(ctx context.Context, event BreakEndedEvent) error {
	event.Envelope = p.envelope(event.Envelope, EventBreakEnded)
	return p.publish(ctx, event.UserID, event)
}

func (p *Producer) envelope(e Envelope, t EventType) Envelope {
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	e.Type = t
	return e
}

func (p *Producer) publish(ctx context.Context, userID string, body interface{}) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal body: %w", err)
	}

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() && userID != "" {
		span.SetAttributes(attribute.String("app.userId", userID))
	}

	if err := p.sender.SendMessage(ctx, p.queueURL, b); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

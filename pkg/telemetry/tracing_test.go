package telemetry

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

func TestSQSCarrier(t *testing.T) {
	c := sqsCarrier{attrs: make(map[string]types.MessageAttributeValue)}
	c.Set("traceparent", "00-abc-def-01")

	if got := c.Get("traceparent"); got != "00-abc-def-01" {
		t.Fatalf("got %q", got)
	}
	if got := c.Get("missing"); got != "" {
		t.Fatalf("expected empty value, got %q", got)
	}
	if keys := c.Keys(); len(keys) != 1 || keys[0] != "traceparent" {
		t.Fatalf("unexpected keys %v", keys)
	}
}

func TestStartSpanFromSQSMessageExtractsUser(t *testing.T) {
	msg := types.Message{
		MessageId: aws.String("m-1"),
		Body:      aws.String(`{"type":"BREAK_ENDED","userId":"user7"}`),
	}

	ctx, span := StartSpanFromSQSMessage(context.Background(), msg)
	defer span.End()

	if got := GetUserIDFromContext(ctx); got != "user7" {
		t.Fatalf("expected user7 in context, got %q", got)
	}
	if got := GetUserIDFromContext(context.Background()); got != "" {
		t.Fatalf("expected empty user id, got %q", got)
	}
}

package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/notification"
	"github.com/sony/gobreaker"
)

// SQSClient is the subset of the AWS SQS client the publisher needs.
type SQSClient interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// Publisher forwards outbound notifications to an SQS queue behind a circuit
// breaker. It implements notification.Sink.
type Publisher struct {
	client   SQSClient
	queueURL string
	cb       *gobreaker.CircuitBreaker
}

// NewPublisher trips the breaker once at least 10 requests in a 60s window
// have a failure ratio of 50% or more, and probes again after 30s.
func NewPublisher(client SQSClient, queueURL string) *Publisher {
	settings := gobreaker.Settings{
		Name:        "sqs-notifications",
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	}

	return &Publisher{
		client:   client,
		queueURL: queueURL,
		cb:       gobreaker.NewCircuitBreaker(settings),
	}
}

// Send publishes msg as JSON with its notification type in the EventType attribute.
func (p *Publisher) Send(ctx context.Context, msg notification.Outbound) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal outbound message: %w", err)
	}

	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"EventType": {
				DataType:    aws.String("String"),
				StringValue: aws.String(string(msg.Type)),
			},
			"CompanyID": {
				DataType:    aws.String("String"),
				StringValue: aws.String(msg.CompanyID),
			},
		},
	}

	_, err = p.cb.Execute(func() (interface{}, error) {
		return p.client.SendMessage(ctx, input)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("sqs publisher unavailable: %w", err)
		}
		return fmt.Errorf("failed to send message to notification queue: %w", err)
	}
	return nil
}

// State reports the breaker state.
func (p *Publisher) State() gobreaker.State {
	return p.cb.State()
}

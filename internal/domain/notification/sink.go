package notification

import (
	"context"
	"errors"
)

// Sink delivers outbound messages. Delivery is fire and forget: callers log a
// returned error and never undo the mutation that produced the message.
type Sink interface {
	Send(ctx context.Context, msg Outbound) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, msg Outbound) error

func (f SinkFunc) Send(ctx context.Context, msg Outbound) error {
	return f(ctx, msg)
}

// MultiSink hands every message to each sink in order. One sink failing does
// not stop the others.
type MultiSink []Sink

func (m MultiSink) Send(ctx context.Context, msg Outbound) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Send(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

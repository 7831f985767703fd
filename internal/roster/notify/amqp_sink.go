package notify

import (
	"context"

	"github.com/rosterforge/engine/pkg/logger"
	"github.com/rosterforge/engine/pkg/messaging"
)

// AMQPSink forwards every Record to a RabbitMQ exchange via
// pkg/messaging.Publisher. Dispatch is best-effort: a publish failure is
// logged, not returned, since the in-process Queue is the record of
// truth and actual delivery is an external collaborator (spec.md §4.6).
type AMQPSink struct {
	publisher *messaging.Publisher
	log       *logger.Logger
}

// NewAMQPSink wraps an already-configured Publisher.
func NewAMQPSink(publisher *messaging.Publisher, log *logger.Logger) *AMQPSink {
	return &AMQPSink{publisher: publisher, log: log}
}

// Notify implements Sink.
func (s *AMQPSink) Notify(r Record) {
	if err := s.publisher.Publish(context.Background(), r.Type, r.Payload); err != nil {
		s.log.Warn().Err(err).Str("event_type", r.Type).Msg("failed to dispatch notification")
	}
}

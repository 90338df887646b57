package kafka

import (
	"context"
)

// Event is the envelope a service hands to a Publisher.
type Event struct {
	ID            string
	Type          string
	Key           string
	CorrelationID string
	Payload       any
}

type Publisher interface {
	PublishEvent(ctx context.Context, event Event) error
}

// ProducerPublisher encodes events as JSON messages on one topic.
type ProducerPublisher struct {
	producer *Producer
	source   string
}

func NewProducerPublisher(producer *Producer, source string) *ProducerPublisher {
	return &ProducerPublisher{producer: producer, source: source}
}

func (p *ProducerPublisher) PublishEvent(ctx context.Context, event Event) error {
	msg := NewMessage().
		WithKey(event.Key).
		WithValue(event.Payload).
		WithEventID(event.ID).
		WithEventType(event.Type).
		WithSource(p.source).
		WithSchemaVersion(SchemaVersion).
		WithCorrelationID(event.CorrelationID).
		Build()
	return p.producer.Publish(ctx, msg)
}

// NoopPublisher drops events; used when Kafka is disabled.
type NoopPublisher struct{}

func (NoopPublisher) PublishEvent(context.Context, Event) error {
	return nil
}

const SchemaVersion = "1"

package kafka_middleware

import (
	"context"
	"time"

	"tibacare/pkg/kafka"
	"tibacare/pkg/metrics"
)

// MetricsProducerMiddleware tracks producer metrics
func MetricsProducerMiddleware(m *metrics.KafkaMetrics) kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		start := time.Now()
		err := next(ctx, msg)
		m.ObservePublish(msg.Topic, err, time.Since(start).Seconds())
		return err
	}
}

// MetricsConsumerMiddleware tracks consumer metrics
func MetricsConsumerMiddleware(m *metrics.KafkaMetrics) kafka.ConsumerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) error {
		start := time.Now()
		err := next(ctx, msg)
		m.ObserveConsume(msg.Topic, err, time.Since(start).Seconds())
		return err
	}
}

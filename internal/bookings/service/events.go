package service

import (
	"context"
	"time"

	"tibacare/pkg/kafka"
	"tibacare/pkg/logger"
	"tibacare/pkg/middleware"
	"tibacare/pkg/model"

	"github.com/google/uuid"
)

// eventEmitter publishes booking events. A failed publish is logged and
// never fails the booking operation that produced it.
type eventEmitter struct {
	publisher kafka.Publisher
	log       *logger.Logger
	now       func() time.Time
}

func newEventEmitter(publisher kafka.Publisher, log *logger.Logger) *eventEmitter {
	if publisher == nil {
		publisher = kafka.NoopPublisher{}
	}
	return &eventEmitter{
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

func (e *eventEmitter) emit(ctx context.Context, eventType model.EventType, booking *model.Booking, from, to model.Status) {
	snapshot := *booking
	event := model.BookingEvent{
		EventID:       uuid.NewString(),
		Type:          eventType,
		BookingID:     booking.ID,
		ProviderID:    booking.ProviderID,
		PreferredTime: booking.PreferredTime,
		FromStatus:    from,
		ToStatus:      to,
		OccurredAt:    e.now().UTC(),
		Booking:       &snapshot,
	}

	err := e.publisher.PublishEvent(ctx, kafka.Event{
		ID:            event.EventID,
		Type:          string(eventType),
		Key:           booking.ID,
		CorrelationID: middleware.RequestIDFromContext(ctx),
		Payload:       event,
	})
	if err != nil {
		e.log.Error("Failed to publish booking event",
			"event_type", eventType,
			"id", booking.ID,
			"error", err,
		)
	}
}

package handler

import (
	"context"
	"errors"

	"tibacare/internal/shadow/repository"
	"tibacare/pkg/kafka"
	"tibacare/pkg/logger"
	"tibacare/pkg/model"
)

var errIncompleteEvent = errors.New("invalid message: booking event without id or booking")

// EventHandler applies booking events from Kafka to the shadow store.
type EventHandler struct {
	repo repository.ShadowRepository
	log  *logger.Logger
}

func NewEventHandler(repo repository.ShadowRepository, log *logger.Logger) *EventHandler {
	return &EventHandler{repo: repo, log: log}
}

// Handle is a kafka.MessageHandler. Undecodable events are permanent
// failures; store errors are left for the consumer to classify and retry.
func (h *EventHandler) Handle(ctx context.Context, msg kafka.Message) error {
	var event model.BookingEvent
	if err := msg.DecodeValue(&event); err != nil {
		return kafka.NewPermanentError("deserialization failed", err)
	}
	if event.EventID == "" {
		event.EventID = msg.GetEventID()
	}
	if event.EventID == "" || event.BookingID == "" {
		return kafka.NewPermanentError("invalid message", errIncompleteEvent)
	}

	applied, err := h.repo.Apply(ctx, &event)
	if err != nil {
		return err
	}
	if !applied {
		h.log.Debug("Booking event already applied", "event_id", event.EventID)
		return nil
	}

	h.log.Info("Booking event applied",
		"event_id", event.EventID,
		"event_type", event.Type,
		"booking_id", event.BookingID,
		"to_status", event.ToStatus,
	)
	return nil
}

package feed

import (
	"context"
	"time"

	"tibacare/internal/bookings/repository"
	"tibacare/internal/bookings/view"
	"tibacare/pkg/logger"
	"tibacare/pkg/model"
)

const (
	initialBackoff = 500 * time.Millisecond
	maxBackoff     = 30 * time.Second
)

// Loop keeps the hub fed from the store subscription. Each snapshot is
// partitioned once for the "all" topic and once per provider.
type Loop struct {
	subscriber repository.BookingSubscriber
	hub        *Hub
	log        *logger.Logger

	// providers seen in the previous snapshot, so a provider whose last
	// booking disappears receives an empty dashboard.
	providers map[string]struct{}
}

func NewLoop(subscriber repository.BookingSubscriber, hub *Hub, log *logger.Logger) *Loop {
	return &Loop{
		subscriber: subscriber,
		hub:        hub,
		log:        log,
		providers:  make(map[string]struct{}),
	}
}

// Run resubscribes with exponential backoff whenever the subscription ends,
// until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	backoff := initialBackoff
	for {
		snapshots, err := l.subscriber.Subscribe(ctx, "")
		if err != nil {
			l.log.Error("Failed to subscribe to bookings", "error", err, "retry_in", backoff)
		} else {
			l.log.Info("Booking feed subscribed")
			backoff = initialBackoff
			for snapshot := range snapshots {
				l.publish(snapshot)
			}
			if ctx.Err() == nil {
				l.log.Warn("Booking subscription ended, resubscribing", "retry_in", backoff)
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxBackoff)
	}
}

func (l *Loop) publish(bookings []*model.Booking) {
	l.hub.Broadcast(TopicAll, view.Partition(bookings))

	byProvider := make(map[string][]*model.Booking)
	for _, b := range bookings {
		byProvider[b.ProviderID] = append(byProvider[b.ProviderID], b)
	}
	for providerID, own := range byProvider {
		l.hub.Broadcast(ProviderTopic(providerID), view.Partition(own))
	}
	for providerID := range l.providers {
		if _, ok := byProvider[providerID]; !ok {
			l.hub.Broadcast(ProviderTopic(providerID), view.Partition(nil))
		}
	}

	l.providers = make(map[string]struct{}, len(byProvider))
	for providerID := range byProvider {
		l.providers[providerID] = struct{}{}
	}
}

package repository

import (
	"context"
	"fmt"

	"tibacare/pkg/config"
	"tibacare/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// BookingSubscriber delivers the full ordered collection, optionally scoped
// to one provider, once on subscribe and again after every change.
type BookingSubscriber interface {
	Subscribe(ctx context.Context, providerID string) (<-chan []*model.Booking, error)
}

func NewMongoBookingSubscriber(cfg *config.Config) BookingSubscriber {
	return newMongoBookingRepository(cfg)
}

// Subscribe requires a replica set. The channel is closed when ctx ends or
// the change stream fails; a slow reader only ever sees the latest snapshot.
func (r *mongoBookingRepository) Subscribe(ctx context.Context, providerID string) (<-chan []*model.Booking, error) {
	stream, err := r.collection.Watch(ctx, changePipeline(providerID),
		options.ChangeStream().SetFullDocument(options.UpdateLookup))
	if err != nil {
		return nil, fmt.Errorf("failed to open booking change stream: %w", err)
	}

	initial, err := r.FindByProvider(ctx, providerID, 0, 0)
	if err != nil {
		_ = stream.Close(context.Background())
		return nil, err
	}

	out := make(chan []*model.Booking, 1)
	out <- initial

	go func() {
		defer close(out)
		defer stream.Close(context.Background())

		for stream.Next(ctx) {
			snapshot, err := r.FindByProvider(ctx, providerID, 0, 0)
			if err != nil {
				r.log.Error("Failed to re-read bookings after change", "provider_id", providerID, "error", err)
				continue
			}
			publishLatest(out, snapshot)
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			r.log.Error("Booking change stream stopped", "provider_id", providerID, "error", err)
		}
	}()

	return out, nil
}

// changePipeline keeps deletes unfiltered since they carry no full document.
func changePipeline(providerID string) mongo.Pipeline {
	if providerID == "" {
		return mongo.Pipeline{}
	}
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"$or": bson.A{
			bson.M{"fullDocument.providerId": providerID},
			bson.M{"operationType": "delete"},
		}}}},
	}
}

// publishLatest replaces an unread snapshot instead of blocking.
// out must have capacity 1 and a single sender.
func publishLatest(out chan []*model.Booking, snapshot []*model.Booking) {
	select {
	case out <- snapshot:
		return
	default:
	}
	select {
	case <-out:
	default:
	}
	out <- snapshot
}

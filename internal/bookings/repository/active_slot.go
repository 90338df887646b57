package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tibacare/pkg/config"
	mongotx "tibacare/pkg/db/mongo"
	"tibacare/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const ActiveSlotCollectionName = "Active_slots"

// ActiveSlotRepository guards the single in-consultation booking of a provider.
type ActiveSlotRepository interface {
	// Acquire claims the provider's slot for bookingID. It returns false and
	// the current holder when another booking has it.
	Acquire(ctx context.Context, providerID, bookingID string) (bool, string, error)
	// Release frees the slot only if bookingID holds it.
	Release(ctx context.Context, providerID, bookingID string) (bool, error)
	Holder(ctx context.Context, providerID string) (string, error)
}

type mongoActiveSlotRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoActiveSlotRepository(cfg *config.Config) ActiveSlotRepository {
	return &mongoActiveSlotRepository{
		cfg:        cfg,
		collection: cfg.Client.Mongo.Database(cfg.MongoDatabaseName).Collection(ActiveSlotCollectionName),
	}
}

func (r *mongoActiveSlotRepository) Acquire(ctx context.Context, providerID, bookingID string) (bool, string, error) {
	writeCtx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{
		"_id":        providerID,
		"booking_id": bson.M{"$in": bson.A{"", bookingID}},
	}
	update := bson.M{"$set": bson.M{
		"booking_id": bookingID,
		"updated_at": time.Now().UTC(),
	}}

	_, err := r.collection.UpdateOne(writeCtx, filter, update, options.Update().SetUpsert(true))
	if err == nil {
		return true, bookingID, nil
	}
	if !mongotx.IsDuplicateKey(err) {
		return false, "", fmt.Errorf("failed to acquire active slot: %w", err)
	}

	// the upsert collided with a record held by another booking
	holder, herr := r.Holder(ctx, providerID)
	if herr != nil {
		return false, "", herr
	}
	return false, holder, nil
}

func (r *mongoActiveSlotRepository) Release(ctx context.Context, providerID, bookingID string) (bool, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": providerID, "booking_id": bookingID},
		bson.M{"$set": bson.M{
			"booking_id": "",
			"updated_at": time.Now().UTC(),
		}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to release active slot: %w", err)
	}
	return result.ModifiedCount == 1, nil
}

func (r *mongoActiveSlotRepository) Holder(ctx context.Context, providerID string) (string, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var slot model.ActiveSlot
	err := r.collection.FindOne(ctx, bson.M{"_id": providerID}).Decode(&slot)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read active slot: %w", err)
	}
	return slot.BookingID, nil
}

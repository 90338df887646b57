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

const SlotClaimCollectionName = "Slot_claims"

// SlotClaimRepository counts bookings per provider/time pair. Claim is a
// single atomic upsert, so of two concurrent claims exactly one sees the
// slot as free.
type SlotClaimRepository interface {
	Claim(ctx context.Context, providerID, preferredTime string) (bool, error)
	Release(ctx context.Context, providerID, preferredTime string) error
	Holders(ctx context.Context, providerID, preferredTime string) (int64, error)
}

type mongoSlotClaimRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoSlotClaimRepository(cfg *config.Config) SlotClaimRepository {
	return &mongoSlotClaimRepository{
		cfg:        cfg,
		collection: cfg.Client.Mongo.Database(cfg.MongoDatabaseName).Collection(SlotClaimCollectionName),
	}
}

// Claim increments the holder count and reports whether the slot was free
// before this call.
func (r *mongoSlotClaimRepository) Claim(ctx context.Context, providerID, preferredTime string) (bool, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{"_id": model.SlotKey(providerID, preferredTime)}
	update := bson.M{
		"$inc": bson.M{"holders": 1},
		"$set": bson.M{
			"provider_id":    providerID,
			"preferred_time": preferredTime,
			"updated_at":     time.Now().UTC(),
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.Before)

	var before model.SlotClaim
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&before)
	if mongotx.IsDuplicateKey(err) {
		// lost the insert race; the document exists now
		err = r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&before)
	}
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return true, nil
		}
		return false, fmt.Errorf("failed to claim slot: %w", err)
	}

	return before.Holders <= 0, nil
}

func (r *mongoSlotClaimRepository) Release(ctx context.Context, providerID, preferredTime string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": model.SlotKey(providerID, preferredTime), "holders": bson.M{"$gt": 0}},
		bson.M{
			"$inc": bson.M{"holders": -1},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to release slot: %w", err)
	}
	return nil
}

func (r *mongoSlotClaimRepository) Holders(ctx context.Context, providerID, preferredTime string) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var claim model.SlotClaim
	err := r.collection.FindOne(ctx, bson.M{"_id": model.SlotKey(providerID, preferredTime)}).Decode(&claim)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read slot claim: %w", err)
	}
	return claim.Holders, nil
}

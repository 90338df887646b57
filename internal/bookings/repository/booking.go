package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingserrors "tibacare/internal/bookings/errors"
	"tibacare/pkg/config"
	mongotx "tibacare/pkg/db/mongo"
	"tibacare/pkg/logger"
	"tibacare/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Bookings"
)

type mongoBookingRepository struct {
	cfg        *config.Config
	log        *logger.Logger
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, error)
	FindByProvider(ctx context.Context, providerID string, limit int, offset int64) ([]*model.Booking, error)
	Count(ctx context.Context, providerID string) (int64, error)
	UpdateStatus(ctx context.Context, id string, status model.Status) error
	CompareAndSetStatus(ctx context.Context, id string, from, to model.Status) (bool, error)
	FindEarliestQueued(ctx context.Context, providerID string) (*model.Booking, error)
	Delete(ctx context.Context, id string) error
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	return newMongoBookingRepository(cfg)
}

func newMongoBookingRepository(cfg *config.Config) *mongoBookingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
		cfg:        cfg,
		log:        cfg.Log.Component("booking_repository"),
		db:         db,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func parseObjectID(id string) (primitive.ObjectID, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}
	return objectID, nil
}

// providerFilter matches every booking when providerID is empty.
func providerFilter(providerID string) bson.M {
	if providerID == "" {
		return bson.M{}
	}
	return bson.M{"providerId": providerID}
}

func byPreferredTime() bson.D {
	return bson.D{{Key: "preferredTime", Value: 1}, {Key: "_id", Value: 1}}
}

func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	booking.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, toDocument(booking))
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		booking.ID = oid.Hex()
	}
	return nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	var doc bookingDocument
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}

	return doc.parse()
}

func (r *mongoBookingRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, error) {
	return r.find(ctx, bson.M{}, limit, offset)
}

func (r *mongoBookingRepository) FindByProvider(ctx context.Context, providerID string, limit int, offset int64) ([]*model.Booking, error) {
	return r.find(ctx, providerFilter(providerID), limit, offset)
}

func (r *mongoBookingRepository) find(ctx context.Context, filter bson.M, limit int, offset int64) ([]*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(byPreferredTime())
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	if offset > 0 {
		opts.SetSkip(offset)
	}

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []bookingDocument
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}

	return parseAll(docs, r.logSkipped), nil
}

func (r *mongoBookingRepository) logSkipped(doc bookingDocument, err error) {
	r.log.Warn("Skipping booking with unreadable record",
		"id", doc.ID.Hex(),
		"status", doc.Status,
		"error", err,
	)
}

func (r *mongoBookingRepository) Count(ctx context.Context, providerID string) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, providerFilter(providerID))
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	return count, nil
}

func (r *mongoBookingRepository) UpdateStatus(ctx context.Context, id string, status model.Status) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := parseObjectID(id)
	if err != nil {
		return err
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": bson.M{"status": string(status)}},
	)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	if result.MatchedCount == 0 {
		return bookingserrors.ErrNotFound
	}

	return nil
}

// CompareAndSetStatus writes to only if the booking is still in from.
// It reports false when another writer changed the status first.
func (r *mongoBookingRepository) CompareAndSetStatus(ctx context.Context, id string, from, to model.Status) (bool, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := parseObjectID(id)
	if err != nil {
		return false, err
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objectID, "status": string(from)},
		bson.M{"$set": bson.M{"status": string(to)}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to compare and set booking status: %w", err)
	}

	return result.ModifiedCount == 1, nil
}

// FindEarliestQueued returns the Queued booking with the smallest preferred
// time, or nil when none is waiting. An empty providerID searches all
// providers.
func (r *mongoBookingRepository) FindEarliestQueued(ctx context.Context, providerID string) (*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := providerFilter(providerID)
	filter["status"] = string(model.StatusQueued)

	var doc bookingDocument
	err := r.collection.FindOne(ctx, filter, options.FindOne().SetSort(byPreferredTime())).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find queued booking: %w", err)
	}

	return doc.parse()
}

func (r *mongoBookingRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := parseObjectID(id)
	if err != nil {
		return err
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}

	if result.DeletedCount == 0 {
		return bookingserrors.ErrNotFound
	}

	return nil
}

func (r *mongoBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}

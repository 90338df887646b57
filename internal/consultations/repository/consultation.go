package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	consultationserrors "tibacare/internal/consultations/errors"
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
	CollectionName = "Consultations"
)

// searchFields are matched by ConsultationFilter.Query.
var searchFields = []string{"patientName", "providerName", "service", "summary"}

type ConsultationRepository interface {
	Create(ctx context.Context, c *model.Consultation) error
	FindByID(ctx context.Context, id string) (*model.Consultation, error)
	Find(ctx context.Context, filter model.ConsultationFilter, limit int, offset int64) ([]*model.Consultation, error)
	Count(ctx context.Context, filter model.ConsultationFilter) (int64, error)
	UpdateDetails(ctx context.Context, id string, details *model.ConsultationDetails, at time.Time) error
	// UpdateClinicalNote refuses a completed record with ErrFinalized unless
	// allowFinal is set.
	UpdateClinicalNote(ctx context.Context, id string, note *model.ClinicalNote, allowFinal bool, at time.Time) error
	// SetStatus writes to only if the record is still in from, and returns
	// ErrStatusChanged otherwise.
	SetStatus(ctx context.Context, id string, from, to model.ConsultationStatus, completedAt *time.Time, at time.Time) error
	SetUrgent(ctx context.Context, id string, urgent bool, at time.Time) error
	Delete(ctx context.Context, id string) error
}

type mongoConsultationRepository struct {
	cfg        *config.Config
	log        *logger.Logger
	collection *mongo.Collection
}

func NewMongoConsultationRepository(cfg *config.Config) ConsultationRepository {
	return &mongoConsultationRepository{
		cfg:        cfg,
		log:        cfg.Log.Component("consultation_repository"),
		collection: cfg.Client.Mongo.Database(cfg.MongoDatabaseName).Collection(CollectionName),
	}
}

func parseObjectID(id string) (primitive.ObjectID, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %s", consultationserrors.ErrInvalidID, id)
	}
	return objectID, nil
}

// listFilter builds the query for a listing. The search text is quoted, so
// it never acts as a pattern.
func listFilter(f model.ConsultationFilter) bson.M {
	filter := bson.M{}
	if f.ProviderID != "" {
		filter["providerId"] = f.ProviderID
	}
	if f.Status != "" {
		filter["status"] = string(f.Status)
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}
		or := make(bson.A, 0, len(searchFields))
		for _, field := range searchFields {
			or = append(or, bson.M{field: pattern})
		}
		filter["$or"] = or
	}
	return filter
}

func newestFirst() bson.D {
	return bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}
}

func (r *mongoConsultationRepository) Create(ctx context.Context, c *model.Consultation) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, toDocument(c))
	if err != nil {
		return fmt.Errorf("failed to create consultation: %w", err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		c.ID = oid.Hex()
	}
	return nil
}

func (r *mongoConsultationRepository) FindByID(ctx context.Context, id string) (*model.Consultation, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	var doc consultationDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, consultationserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find consultation: %w", err)
	}
	return doc.parse()
}

func (r *mongoConsultationRepository) Find(ctx context.Context, filter model.ConsultationFilter, limit int, offset int64) ([]*model.Consultation, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(newestFirst())
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	if offset > 0 {
		opts.SetSkip(offset)
	}

	cursor, err := r.collection.Find(ctx, listFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find consultations: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []consultationDocument
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode consultations: %w", err)
	}

	out := make([]*model.Consultation, 0, len(docs))
	for _, doc := range docs {
		c, err := doc.parse()
		if err != nil {
			r.log.Warn("Skipping consultation with unreadable record",
				"id", doc.ID.Hex(),
				"status", doc.Status,
				"error", err,
			)
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *mongoConsultationRepository) Count(ctx context.Context, filter model.ConsultationFilter) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, listFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count consultations: %w", err)
	}
	return count, nil
}

func (r *mongoConsultationRepository) UpdateDetails(ctx context.Context, id string, details *model.ConsultationDetails, at time.Time) error {
	return r.update(ctx, id, bson.M{}, bson.M{
		"patientName":  details.PatientName,
		"providerName": details.ProviderName,
		"service":      details.Service,
		"date":         details.Date,
		"summary":      details.Summary,
		"notes":        details.Notes,
		"lastUpdated":  at,
	})
}

func (r *mongoConsultationRepository) UpdateClinicalNote(ctx context.Context, id string, note *model.ClinicalNote, allowFinal bool, at time.Time) error {
	cond := bson.M{}
	if !allowFinal {
		cond["status"] = bson.M{"$ne": string(model.ConsultationCompleted)}
	}
	err := r.update(ctx, id, cond, bson.M{
		"symptoms":     note.Symptoms,
		"clerkingData": toClerkingDocument(note.Clerking),
		"treatments":   toTreatments(note.Prescriptions),
		"lastUpdated":  at,
	})
	if errors.Is(err, errNoMatch) {
		return consultationserrors.ErrFinalized
	}
	return err
}

func (r *mongoConsultationRepository) SetStatus(ctx context.Context, id string, from, to model.ConsultationStatus, completedAt *time.Time, at time.Time) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := parseObjectID(id)
	if err != nil {
		return err
	}

	set := bson.M{"status": string(to), "lastUpdated": at}
	doc := bson.M{"$set": set}
	if completedAt != nil {
		set["completedAt"] = *completedAt
	} else {
		doc["$unset"] = bson.M{"completedAt": ""}
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID, "status": string(from)}, doc)
	if err != nil {
		return fmt.Errorf("failed to update consultation status: %w", err)
	}
	if result.MatchedCount == 0 {
		return r.missingOr(ctx, objectID, consultationserrors.ErrStatusChanged)
	}
	return nil
}

func (r *mongoConsultationRepository) SetUrgent(ctx context.Context, id string, urgent bool, at time.Time) error {
	return r.update(ctx, id, bson.M{}, bson.M{"urgent": urgent, "lastUpdated": at})
}

func (r *mongoConsultationRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := parseObjectID(id)
	if err != nil {
		return err
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete consultation: %w", err)
	}
	if result.DeletedCount == 0 {
		return consultationserrors.ErrNotFound
	}
	return nil
}

var errNoMatch = errors.New("consultation did not match update condition")

// update applies set to the record matching id and cond. When nothing
// matches it reports ErrNotFound for a missing record and errNoMatch when
// the record exists but fails cond.
func (r *mongoConsultationRepository) update(ctx context.Context, id string, cond bson.M, set bson.M) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := parseObjectID(id)
	if err != nil {
		return err
	}

	filter := bson.M{"_id": objectID}
	for k, v := range cond {
		filter[k] = v
	}

	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update consultation: %w", err)
	}
	if result.MatchedCount == 0 {
		if len(cond) == 0 {
			return consultationserrors.ErrNotFound
		}
		return r.missingOr(ctx, objectID, errNoMatch)
	}
	return nil
}

func (r *mongoConsultationRepository) missingOr(ctx context.Context, objectID primitive.ObjectID, otherwise error) error {
	n, err := r.collection.CountDocuments(ctx, bson.M{"_id": objectID}, options.Count().SetLimit(1))
	if err != nil {
		return fmt.Errorf("failed to check consultation: %w", err)
	}
	if n == 0 {
		return consultationserrors.ErrNotFound
	}
	return otherwise
}

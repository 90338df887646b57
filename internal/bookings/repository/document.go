package repository

import (
	"fmt"
	"time"

	bookingserrors "tibacare/internal/bookings/errors"
	"tibacare/pkg/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// bookingDocument is the stored shape of a booking. Field names are the
// established wire contract shared with existing data.
type bookingDocument struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	PatientName    string             `bson:"patientName"`
	Age            int                `bson:"age,omitempty"`
	Phone          string             `bson:"phone,omitempty"`
	Service        string             `bson:"service,omitempty"`
	PreferredDate  string             `bson:"preferredDate,omitempty"`
	PreferredTime  string             `bson:"preferredTime"`
	Symptoms       string             `bson:"symptoms,omitempty"`
	Allergies      string             `bson:"allergies,omitempty"`
	MedicalHistory string             `bson:"medicalHistory,omitempty"`
	Status         string             `bson:"status"`
	ProviderID     string             `bson:"providerId"`
	CreatedAt      time.Time          `bson:"createdAt"`
}

func toDocument(b *model.Booking) bookingDocument {
	doc := bookingDocument{
		PatientName:    b.PatientName,
		Age:            b.Age,
		Phone:          b.Phone,
		Service:        b.Service,
		PreferredDate:  b.PreferredDate,
		PreferredTime:  b.PreferredTime,
		Symptoms:       b.Symptoms,
		Allergies:      b.Allergies,
		MedicalHistory: b.MedicalHistory,
		Status:         string(b.Status),
		ProviderID:     b.ProviderID,
		CreatedAt:      b.CreatedAt,
	}
	if oid, err := primitive.ObjectIDFromHex(b.ID); err == nil {
		doc.ID = oid
	}
	return doc
}

// parse turns a stored document into a typed booking, rejecting any status
// outside the workflow.
func (d bookingDocument) parse() (*model.Booking, error) {
	status, err := model.ParseStatus(d.Status)
	if err != nil {
		return nil, fmt.Errorf("%w: booking %s: %q", bookingserrors.ErrUnknownStatus, d.ID.Hex(), d.Status)
	}

	return &model.Booking{
		ID:             d.ID.Hex(),
		PatientName:    d.PatientName,
		Age:            d.Age,
		Phone:          d.Phone,
		Service:        d.Service,
		PreferredDate:  d.PreferredDate,
		PreferredTime:  d.PreferredTime,
		Symptoms:       d.Symptoms,
		Allergies:      d.Allergies,
		MedicalHistory: d.MedicalHistory,
		Status:         status,
		ProviderID:     d.ProviderID,
		CreatedAt:      d.CreatedAt,
	}, nil
}

// parseAll keeps the order of docs and drops records that fail to parse,
// reporting each to skip.
func parseAll(docs []bookingDocument, skip func(doc bookingDocument, err error)) []*model.Booking {
	bookings := make([]*model.Booking, 0, len(docs))
	for _, doc := range docs {
		b, err := doc.parse()
		if err != nil {
			if skip != nil {
				skip(doc, err)
			}
			continue
		}
		bookings = append(bookings, b)
	}
	return bookings
}

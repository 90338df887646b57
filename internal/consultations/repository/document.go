package repository

import (
	"fmt"
	"time"

	consultationserrors "tibacare/internal/consultations/errors"
	"tibacare/pkg/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type vitalsDocument struct {
	BP     string `bson:"bp,omitempty"`
	Pulse  string `bson:"pulse,omitempty"`
	Temp   string `bson:"temp,omitempty"`
	RR     string `bson:"rr,omitempty"`
	SpO2   string `bson:"spo2,omitempty"`
	Weight string `bson:"weight,omitempty"`
}

type clerkingDocument struct {
	HPI            string         `bson:"hpi,omitempty"`
	GeneralExam    string         `bson:"generalExam,omitempty"`
	SystemExam     string         `bson:"systemExam,omitempty"`
	Investigations string         `bson:"investigations,omitempty"`
	Impression     string         `bson:"impression,omitempty"`
	Plan           string         `bson:"plan,omitempty"`
	Medications    string         `bson:"medications,omitempty"`
	Allergies      string         `bson:"allergies,omitempty"`
	Vitals         vitalsDocument `bson:"vitals"`
}

type treatmentDocument struct {
	Text     string `bson:"text"`
	Duration string `bson:"duration,omitempty"`
}

// consultationDocument is the stored shape of a consultation. The clerking
// and treatment field names follow the records written by the clinic's
// existing screens.
type consultationDocument struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty"`
	BookingID    string              `bson:"bookingId,omitempty"`
	PatientName  string              `bson:"patientName"`
	ProviderID   string              `bson:"providerId"`
	ProviderName string              `bson:"providerName"`
	Service      string              `bson:"service,omitempty"`
	Date         string              `bson:"date,omitempty"`
	Summary      string              `bson:"summary,omitempty"`
	Notes        string              `bson:"notes,omitempty"`
	Symptoms     string              `bson:"symptoms,omitempty"`
	ClerkingData clerkingDocument    `bson:"clerkingData"`
	Treatments   []treatmentDocument `bson:"treatments"`
	Status       string              `bson:"status"`
	Urgent       bool                `bson:"urgent"`
	CreatedAt    time.Time           `bson:"createdAt"`
	LastUpdated  time.Time           `bson:"lastUpdated"`
	CompletedAt  *time.Time          `bson:"completedAt,omitempty"`
}

func toClerkingDocument(c model.Clerking) clerkingDocument {
	return clerkingDocument{
		HPI:            c.HPI,
		GeneralExam:    c.GeneralExam,
		SystemExam:     c.SystemExam,
		Investigations: c.Investigations,
		Impression:     c.Impression,
		Plan:           c.Plan,
		Medications:    c.Medications,
		Allergies:      c.Allergies,
		Vitals: vitalsDocument{
			BP:     c.Vitals.BloodPressure,
			Pulse:  c.Vitals.Pulse,
			Temp:   c.Vitals.Temperature,
			RR:     c.Vitals.RespiratoryRate,
			SpO2:   c.Vitals.OxygenSaturation,
			Weight: c.Vitals.Weight,
		},
	}
}

func (d clerkingDocument) parse() model.Clerking {
	return model.Clerking{
		HPI:            d.HPI,
		GeneralExam:    d.GeneralExam,
		SystemExam:     d.SystemExam,
		Investigations: d.Investigations,
		Impression:     d.Impression,
		Plan:           d.Plan,
		Medications:    d.Medications,
		Allergies:      d.Allergies,
		Vitals: model.Vitals{
			BloodPressure:    d.Vitals.BP,
			Pulse:            d.Vitals.Pulse,
			Temperature:      d.Vitals.Temp,
			RespiratoryRate:  d.Vitals.RR,
			OxygenSaturation: d.Vitals.SpO2,
			Weight:           d.Vitals.Weight,
		},
	}
}

func toTreatments(prescriptions []model.Prescription) []treatmentDocument {
	out := make([]treatmentDocument, 0, len(prescriptions))
	for _, p := range prescriptions {
		out = append(out, treatmentDocument{Text: p.Text, Duration: p.Duration})
	}
	return out
}

func toDocument(c *model.Consultation) consultationDocument {
	doc := consultationDocument{
		BookingID:    c.BookingID,
		PatientName:  c.PatientName,
		ProviderID:   c.ProviderID,
		ProviderName: c.ProviderName,
		Service:      c.Service,
		Date:         c.Date,
		Summary:      c.Summary,
		Notes:        c.Notes,
		Symptoms:     c.Symptoms,
		ClerkingData: toClerkingDocument(c.Clerking),
		Treatments:   toTreatments(c.Prescriptions),
		Status:       string(c.Status),
		Urgent:       c.Urgent,
		CreatedAt:    c.CreatedAt,
		LastUpdated:  c.UpdatedAt,
		CompletedAt:  c.CompletedAt,
	}
	if oid, err := primitive.ObjectIDFromHex(c.ID); err == nil {
		doc.ID = oid
	}
	return doc
}

func (d consultationDocument) parse() (*model.Consultation, error) {
	status, err := model.ParseConsultationStatus(d.Status)
	if err != nil {
		return nil, fmt.Errorf("%w: consultation %s: %q", consultationserrors.ErrUnknownStatus, d.ID.Hex(), d.Status)
	}

	prescriptions := make([]model.Prescription, 0, len(d.Treatments))
	for _, t := range d.Treatments {
		prescriptions = append(prescriptions, model.Prescription{Text: t.Text, Duration: t.Duration})
	}

	return &model.Consultation{
		ID:            d.ID.Hex(),
		BookingID:     d.BookingID,
		PatientName:   d.PatientName,
		ProviderID:    d.ProviderID,
		ProviderName:  d.ProviderName,
		Service:       d.Service,
		Date:          d.Date,
		Summary:       d.Summary,
		Notes:         d.Notes,
		Symptoms:      d.Symptoms,
		Clerking:      d.ClerkingData.parse(),
		Prescriptions: prescriptions,
		Status:        status,
		Urgent:        d.Urgent,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.LastUpdated,
		CompletedAt:   d.CompletedAt,
	}, nil
}

package model

import (
	"fmt"
	"time"
)

type ConsultationStatus string

const (
	ConsultationPending    ConsultationStatus = "Pending"
	ConsultationInProgress ConsultationStatus = "In-Progress"
	ConsultationCompleted  ConsultationStatus = "Completed"
	ConsultationNoShow     ConsultationStatus = "No-Show"
	ConsultationCancelled  ConsultationStatus = "Cancelled"
)

var consultationStatuses = map[ConsultationStatus]struct{}{
	ConsultationPending:    {},
	ConsultationInProgress: {},
	ConsultationCompleted:  {},
	ConsultationNoShow:     {},
	ConsultationCancelled:  {},
}

func ParseConsultationStatus(s string) (ConsultationStatus, error) {
	status := ConsultationStatus(s)
	if _, ok := consultationStatuses[status]; !ok {
		return "", fmt.Errorf("unknown consultation status %q", s)
	}
	return status, nil
}

// Vitals are recorded as entered; units are the clinic's convention.
type Vitals struct {
	BloodPressure    string `json:"bp,omitempty" validate:"omitempty,max=20"`
	Pulse            string `json:"pulse,omitempty" validate:"omitempty,max=20"`
	Temperature      string `json:"temp,omitempty" validate:"omitempty,max=20"`
	RespiratoryRate  string `json:"rr,omitempty" validate:"omitempty,max=20"`
	OxygenSaturation string `json:"spo2,omitempty" validate:"omitempty,max=20"`
	Weight           string `json:"weight,omitempty" validate:"omitempty,max=20"`
}

// Clerking is the provider's structured note for one consultation.
type Clerking struct {
	HPI            string `json:"hpi,omitempty" validate:"omitempty,max=4000"`
	GeneralExam    string `json:"generalExam,omitempty" validate:"omitempty,max=4000"`
	SystemExam     string `json:"systemExam,omitempty" validate:"omitempty,max=4000"`
	Investigations string `json:"investigations,omitempty" validate:"omitempty,max=4000"`
	Impression     string `json:"impression,omitempty" validate:"omitempty,max=2000"`
	Plan           string `json:"plan,omitempty" validate:"omitempty,max=4000"`
	Medications    string `json:"medications,omitempty" validate:"omitempty,max=2000"`
	Allergies      string `json:"allergies,omitempty" validate:"omitempty,max=2000"`
	Vitals         Vitals `json:"vitals"`
}

type Prescription struct {
	Text     string `json:"text" validate:"required,max=500"`
	Duration string `json:"duration,omitempty" validate:"omitempty,max=100"`
}

// Consultation is the clinical record of one visit. Patient and provider
// names are copied onto the record when it is written and are not kept in
// sync with bookings or users; ProviderID scopes access.
type Consultation struct {
	ID            string             `json:"id,omitempty"`
	BookingID     string             `json:"bookingId,omitempty" validate:"omitempty,max=64"`
	PatientName   string             `json:"patientName" validate:"required,min=2,max=120"`
	ProviderID    string             `json:"providerId" validate:"required,max=128"`
	ProviderName  string             `json:"providerName" validate:"required,min=2,max=120"`
	Service       string             `json:"service,omitempty" validate:"omitempty,max=100"`
	Date          string             `json:"date,omitempty" validate:"omitempty,max=40"`
	Summary       string             `json:"summary,omitempty" validate:"omitempty,max=2000"`
	Notes         string             `json:"notes,omitempty" validate:"omitempty,max=4000"`
	Symptoms      string             `json:"symptoms,omitempty" validate:"omitempty,max=2000"`
	Clerking      Clerking           `json:"clerking"`
	Prescriptions []Prescription     `json:"prescriptions" validate:"max=50,dive"`
	Status        ConsultationStatus `json:"status,omitempty"`
	Urgent        bool               `json:"urgent"`
	CreatedAt     time.Time          `json:"createdAt,omitempty"`
	UpdatedAt     time.Time          `json:"updatedAt,omitempty"`
	CompletedAt   *time.Time         `json:"completedAt,omitempty"`
}

// IsFinal reports whether the record is closed to provider edits.
func (c *Consultation) IsFinal() bool {
	return c.Status == ConsultationCompleted
}

// ConsultationDetails is the administrative edit of a record's header fields.
type ConsultationDetails struct {
	PatientName  string `json:"patientName" validate:"required,min=2,max=120"`
	ProviderName string `json:"providerName" validate:"required,min=2,max=120"`
	Service      string `json:"service,omitempty" validate:"omitempty,max=100"`
	Date         string `json:"date,omitempty" validate:"omitempty,max=40"`
	Summary      string `json:"summary,omitempty" validate:"omitempty,max=2000"`
	Notes        string `json:"notes,omitempty" validate:"omitempty,max=4000"`
}

// ClinicalNote is what a provider saves from the clerking screen.
type ClinicalNote struct {
	Symptoms      string         `json:"symptoms,omitempty" validate:"omitempty,max=2000"`
	Clerking      Clerking       `json:"clerking"`
	Prescriptions []Prescription `json:"prescriptions" validate:"max=50,dive"`
}

// ConsultationFilter narrows a listing. An empty ProviderID lists all
// providers; Query matches names, service and summary case-insensitively.
type ConsultationFilter struct {
	ProviderID string
	Status     ConsultationStatus
	Query      string
}

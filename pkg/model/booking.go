package model

import (
	"fmt"
	"time"
)

type Status string

const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "In Progress"
	StatusQueued     Status = "Queued"
	StatusCompleted  Status = "Completed"
)

var statuses = map[Status]struct{}{
	StatusPending:    {},
	StatusInProgress: {},
	StatusQueued:     {},
	StatusCompleted:  {},
}

// ParseStatus rejects anything outside the four workflow states.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if _, ok := statuses[status]; !ok {
		return "", fmt.Errorf("unknown booking status %q", s)
	}
	return status, nil
}

func (s Status) String() string {
	return string(s)
}

// IsCurrent reports whether the booking occupies the provider's current slot.
func (s Status) IsCurrent() bool {
	return s == StatusPending || s == StatusInProgress
}

type Booking struct {
	ID             string    `json:"id,omitempty"`
	PatientName    string    `json:"patientName" validate:"required,min=2,max=120"`
	Age            int       `json:"age,omitempty" validate:"omitempty,min=0,max=130"`
	Phone          string    `json:"phone,omitempty" validate:"omitempty,e164"`
	Service        string    `json:"service,omitempty" validate:"omitempty,max=100"`
	PreferredDate  string    `json:"preferredDate,omitempty" validate:"omitempty,max=40"`
	PreferredTime  string    `json:"preferredTime" validate:"required,max=40"`
	Symptoms       string    `json:"symptoms,omitempty" validate:"omitempty,max=2000"`
	Allergies      string    `json:"allergies,omitempty" validate:"omitempty,max=2000"`
	MedicalHistory string    `json:"medicalHistory,omitempty" validate:"omitempty,max=4000"`
	Status         Status    `json:"status,omitempty"`
	ProviderID     string    `json:"providerId" validate:"required,max=128"`
	CreatedAt      time.Time `json:"createdAt,omitempty"`
}

// SlotKey identifies the (provider, preferred time) pair the booking asks for.
func (b *Booking) SlotKey() string {
	return SlotKey(b.ProviderID, b.PreferredTime)
}

// Dashboard is the three-band projection shown to staff.
type Dashboard struct {
	Current  *Booking   `json:"current"`
	Queue    []*Booking `json:"queue"`
	Upcoming []*Booking `json:"upcoming"`
}

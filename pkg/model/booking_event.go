package model

import "time"

type EventType string

const (
	EventBookingAdmitted  EventType = "booking.admitted"
	EventBookingStarted   EventType = "booking.started"
	EventBookingCompleted EventType = "booking.completed"
	EventBookingPromoted  EventType = "booking.promoted"
	EventBookingDeleted   EventType = "booking.deleted"
)

type BookingEvent struct {
	EventID       string    `json:"eventId"`
	Type          EventType `json:"type"`
	BookingID     string    `json:"bookingId"`
	ProviderID    string    `json:"providerId"`
	PreferredTime string    `json:"preferredTime"`
	FromStatus    Status    `json:"fromStatus,omitempty"`
	ToStatus      Status    `json:"toStatus,omitempty"`
	OccurredAt    time.Time `json:"occurredAt"`
	Booking       *Booking  `json:"booking,omitempty"`
}

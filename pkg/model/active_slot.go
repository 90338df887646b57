package model

import "time"

// ActiveSlot records which booking is in consultation for a provider.
// An empty BookingID means the provider is free.
type ActiveSlot struct {
	ProviderID string    `bson:"_id" json:"provider_id"`
	BookingID  string    `bson:"booking_id" json:"booking_id"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updated_at"`
}

package model

import (
	"fmt"
	"time"
)

// SlotClaim counts the bookings that asked for one provider/time pair.
// Holders == 0 on the pre-image of a claim means the slot was free.
type SlotClaim struct {
	ID            string    `bson:"_id" json:"id"`
	ProviderID    string    `bson:"provider_id" json:"provider_id"`
	PreferredTime string    `bson:"preferred_time" json:"preferred_time"`
	Holders       int64     `bson:"holders" json:"holders"`
	UpdatedAt     time.Time `bson:"updated_at" json:"updated_at"`
}

// SlotKey is length-prefixed so a "|" inside either part cannot collide.
func SlotKey(providerID, preferredTime string) string {
	return fmt.Sprintf("%d:%s|%s", len(providerID), providerID, preferredTime)
}

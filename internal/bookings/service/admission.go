package service

import (
	"context"

	"tibacare/internal/bookings/repository"
	"tibacare/pkg/model"
)

// AdmissionPolicy decides the initial status of a new booking: Pending when
// nobody has asked for the provider/time pair yet, Queued otherwise. Times
// are opaque and compared for exact equality only.
type AdmissionPolicy struct {
	claims repository.SlotClaimRepository
}

func NewAdmissionPolicy(claims repository.SlotClaimRepository) *AdmissionPolicy {
	return &AdmissionPolicy{claims: claims}
}

// Admit claims the slot atomically, so two concurrent submissions for the
// same pair can never both come out Pending.
func (p *AdmissionPolicy) Admit(ctx context.Context, providerID, preferredTime string) (model.Status, error) {
	free, err := p.claims.Claim(ctx, providerID, preferredTime)
	if err != nil {
		return "", err
	}
	if free {
		return model.StatusPending, nil
	}
	return model.StatusQueued, nil
}

// Preview reports what Admit would decide right now without claiming.
func (p *AdmissionPolicy) Preview(ctx context.Context, providerID, preferredTime string) (model.Status, error) {
	holders, err := p.claims.Holders(ctx, providerID, preferredTime)
	if err != nil {
		return "", err
	}
	if holders > 0 {
		return model.StatusQueued, nil
	}
	return model.StatusPending, nil
}

// Release gives back a claim taken for a booking that no longer exists.
func (p *AdmissionPolicy) Release(ctx context.Context, providerID, preferredTime string) error {
	return p.claims.Release(ctx, providerID, preferredTime)
}

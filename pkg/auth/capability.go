package auth

import (
	"context"

	"tibacare/pkg/model"
)

type ctxKey struct{}

// Capability is what a caller is allowed to do, resolved once per session.
// Services receive it as an explicit argument.
type Capability struct {
	UserID     string
	Role       model.Role
	ProviderID string
}

func Anonymous() Capability {
	return Capability{}
}

func (c Capability) IsAuthenticated() bool {
	return c.UserID != ""
}

func (c Capability) IsAdmin() bool {
	return c.IsAuthenticated() && c.Role == model.RoleAdmin
}

func (c Capability) IsStaff() bool {
	return c.IsAdmin() || (c.IsAuthenticated() && c.Role == model.RoleProvider && c.ProviderID != "")
}

// CanManageBooking reports whether the caller may start, end or view
// bookings that belong to providerID.
func (c Capability) CanManageBooking(providerID string) bool {
	if c.IsAdmin() {
		return true
	}
	return c.IsStaff() && c.ProviderID == providerID
}

func WithCapability(ctx context.Context, c Capability) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// FromContext returns the stored capability or Anonymous.
func FromContext(ctx context.Context) Capability {
	if c, ok := ctx.Value(ctxKey{}).(Capability); ok {
		return c
	}
	return Anonymous()
}

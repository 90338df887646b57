package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"tibacare/pkg/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestTokenService_RoundTrip(t *testing.T) {
	svc := NewTokenService(testSecret, time.Hour)
	user := &model.User{UID: "uid-1", Role: model.RoleProvider, ProviderID: "dr-otieno"}

	token, expiresAt, err := svc.Issue(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	c, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "uid-1", c.UserID)
	assert.Equal(t, model.RoleProvider, c.Role)
	assert.Equal(t, "dr-otieno", c.ProviderID)
}

func TestTokenService_RejectsExpired(t *testing.T) {
	svc := NewTokenService(testSecret, time.Minute)
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := svc.Issue(&model.User{UID: "u", Role: model.RoleAdmin})
	require.NoError(t, err)

	verifier := NewTokenService(testSecret, time.Minute)
	_, err = verifier.Verify(token)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestTokenService_RejectsWrongSecret(t *testing.T) {
	token, _, err := NewTokenService(testSecret, time.Hour).Issue(&model.User{UID: "u", Role: model.RoleAdmin})
	require.NoError(t, err)

	_, err = NewTokenService("another-secret-another-secret-xx", time.Hour).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_RejectsNoneAlgorithm(t *testing.T) {
	claims := Claims{Role: model.RoleAdmin, RegisteredClaims: jwt.RegisteredClaims{Subject: "u", Issuer: issuer}}
	token := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokenService(testSecret, time.Hour).Verify(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_NoSecret(t *testing.T) {
	_, _, err := NewTokenService("", time.Hour).Issue(&model.User{UID: "u", Role: model.RoleAdmin})
	assert.Error(t, err)
}

func TestCapability_CanManageBooking(t *testing.T) {
	tests := []struct {
		name     string
		cap      Capability
		provider string
		want     bool
	}{
		{"admin any provider", Capability{UserID: "a", Role: model.RoleAdmin}, "p1", true},
		{"provider own", Capability{UserID: "b", Role: model.RoleProvider, ProviderID: "p1"}, "p1", true},
		{"provider other", Capability{UserID: "b", Role: model.RoleProvider, ProviderID: "p1"}, "p2", false},
		{"provider without id", Capability{UserID: "b", Role: model.RoleProvider}, "", false},
		{"patient", Capability{UserID: "c", Role: model.RolePatient}, "p1", false},
		{"anonymous", Anonymous(), "p1", false},
		{"role without user", Capability{Role: model.RoleAdmin}, "p1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cap.CanManageBooking(tt.provider))
		})
	}
}

func TestCapability_Context(t *testing.T) {
	assert.Equal(t, Anonymous(), FromContext(context.Background()))

	c := Capability{UserID: "a", Role: model.RoleAdmin}
	ctx := WithCapability(context.Background(), c)
	assert.Equal(t, c, FromContext(ctx))
}

package auth

import (
	"errors"
	"fmt"
	"time"

	"tibacare/pkg/model"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "tibacare"

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	Role       model.Role `json:"role"`
	ProviderID string     `json:"provider_id,omitempty"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 session tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *TokenService) Issue(user *model.User) (string, time.Time, error) {
	if len(s.secret) == 0 {
		return "", time.Time{}, errors.New("token secret not configured")
	}

	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := Claims{
		Role:       user.Role,
		ProviderID: user.ProviderID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.UID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

func (s *TokenService) Verify(tokenString string) (Capability, error) {
	if len(s.secret) == 0 {
		return Anonymous(), ErrInvalidToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return Anonymous(), fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" || !claims.Role.Valid() {
		return Anonymous(), ErrInvalidToken
	}

	return Capability{
		UserID:     claims.Subject,
		Role:       claims.Role,
		ProviderID: claims.ProviderID,
	}, nil
}

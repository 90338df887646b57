package model

import "time"

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleProvider Role = "provider"
	RolePatient  Role = "patient"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleProvider, RolePatient:
		return true
	}
	return false
}

type User struct {
	UID        string `json:"uid" bson:"_id" validate:"required,min=3,max=128"`
	Email      string `json:"email" bson:"email" validate:"required,email,max=254"`
	Name       string `json:"name,omitempty" bson:"name,omitempty" validate:"omitempty,max=120"`
	Role       Role   `json:"role" bson:"role"`
	ProviderID string `json:"providerId,omitempty" bson:"provider_id,omitempty"`
	// PasswordHash is a bcrypt hash and never leaves the service.
	PasswordHash string    `json:"-" bson:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" bson:"created_at"`
}

type Registration struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Name     string `json:"name,omitempty" validate:"omitempty,max=120"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RoleUpdate struct {
	Role       Role   `json:"role" validate:"required,oneof=admin provider patient"`
	ProviderID string `json:"providerId,omitempty" validate:"omitempty,max=128"`
}

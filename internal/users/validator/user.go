package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"tibacare/internal/users/password"
	"tibacare/pkg/logger"
	"tibacare/pkg/model"

	"github.com/go-playground/validator/v10"
)

type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for field, message := range v {
		parts = append(parts, field+": "+message)
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(parts, "; "))
}

func (v ValidationErrors) Details() map[string]any {
	fields := make(map[string]any, len(v))
	for field, message := range v {
		fields[field] = message
	}
	return map[string]any{"fields": fields}
}

type UserValidator struct {
	validate *validator.Validate
}

func NewUserValidator(log *logger.Logger) *UserValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})

	log.Info("User validator initialized successfully")
	return &UserValidator{validate: v}
}

// ValidateRegistration also bounds the password in bytes, since the max tag
// counts runes and bcrypt rejects anything longer than password.MaxBytes.
func (v *UserValidator) ValidateRegistration(reg *model.Registration) error {
	if err := v.check(reg); err != nil {
		return err
	}
	if len(reg.Password) > password.MaxBytes {
		return ValidationErrors{"password": fmt.Sprintf("password must be at most %d bytes", password.MaxBytes)}
	}
	return nil
}

func (v *UserValidator) ValidateCredentials(creds *model.Credentials) error {
	return v.check(creds)
}

// ValidateRoleUpdate also requires a provider id when granting the provider role.
func (v *UserValidator) ValidateRoleUpdate(update *model.RoleUpdate) error {
	if err := v.check(update); err != nil {
		return err
	}
	if update.Role == model.RoleProvider && strings.TrimSpace(update.ProviderID) == "" {
		return ValidationErrors{"providerId": "providerId is required for the provider role"}
	}
	return nil
}

func (v *UserValidator) check(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	out := ValidationErrors{}
	for _, fe := range validationErrs {
		switch fe.Tag() {
		case "required":
			out[fe.Field()] = fmt.Sprintf("%s is required", fe.Field())
		case "email":
			out[fe.Field()] = fmt.Sprintf("%s must be a valid email address", fe.Field())
		case "min":
			out[fe.Field()] = fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
		case "max":
			out[fe.Field()] = fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
		case "oneof":
			out[fe.Field()] = fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
		default:
			out[fe.Field()] = fe.Error()
		}
	}
	return out
}

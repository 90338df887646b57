package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"tibacare/pkg/logger"
	"tibacare/pkg/model"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

func (v ValidationErrors) Details() map[string]any {
	fields := make(map[string]any, len(v))
	for _, err := range v {
		fields[err.Field] = err.Message
	}
	return map[string]any{"fields": fields}
}

type ConsultationValidator struct {
	validate *validator.Validate
}

func NewConsultationValidator(log *logger.Logger) *ConsultationValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})

	log.Info("Consultation validator initialized successfully")
	return &ConsultationValidator{validate: v}
}

func (v *ConsultationValidator) Validate(c *model.Consultation) error {
	return v.check(c)
}

func (v *ConsultationValidator) ValidateDetails(d *model.ConsultationDetails) error {
	return v.check(d)
}

func (v *ConsultationValidator) ValidateClinicalNote(n *model.ClinicalNote) error {
	return v.check(n)
}

func (v *ConsultationValidator) check(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	out := make(ValidationErrors, 0, len(validationErrs))
	for _, fe := range validationErrs {
		// nested fields are reported by path, e.g. clerking.vitals.bp
		field := fe.Namespace()
		if i := strings.IndexByte(field, '.'); i >= 0 {
			field = field[i+1:]
		}

		message := fe.Error()
		switch fe.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", field)
		case "min":
			message = fmt.Sprintf("%s must be at least %s", field, fe.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", field, fe.Param())
		}
		out = append(out, ValidationError{Field: field, Message: message})
	}
	return out
}

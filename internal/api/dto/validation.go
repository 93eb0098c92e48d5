package dto

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/spec-kit/ticketdesk/internal/auth"
)

// FieldErrors maps a form field name to its message. The empty key holds
// form-level messages.
type FieldErrors map[string]string

// Has reports whether field has an error.
func (fe FieldErrors) Has(field string) bool {
	_, ok := fe[field]
	return ok
}

// Get returns the message for field.
func (fe FieldErrors) Get(field string) string {
	return fe[field]
}

// Validator checks form payloads against their struct tags.
type Validator struct {
	validate *validator.Validate
}

// NewValidator registers the custom rules and reports fields by form name.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return auth.CheckPasswordPolicy(fl.Field().String()) == nil
	})
	return &Validator{validate: v}
}

// Struct validates payload. Nil when it is valid.
func (v *Validator) Struct(payload any) FieldErrors {
	err := v.validate.Struct(payload)
	if err == nil {
		return nil
	}
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return FieldErrors{"": err.Error()}
	}
	out := FieldErrors{}
	for _, fe := range validationErrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		out[fe.Field()] = messageFor(fe)
	}
	return out
}

var fieldLabels = map[string]string{
	"title":            "Title",
	"description":      "Description",
	"status":           "Status",
	"urgencyLevel":     "Urgency level",
	"category":         "Category",
	"email":            "Email",
	"password":         "Password",
	"confirmPassword":  "Confirm password",
	"fullName":         "Full name",
	"assignedToUserId": "Assigned to",
}

func messageFor(fe validator.FieldError) string {
	label := fieldLabels[fe.Field()]
	if label == "" {
		label = fe.Field()
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", label)
	case "max":
		return fmt.Sprintf("%s cannot exceed %s characters", label, fe.Param())
	case "email":
		return fmt.Sprintf("%s is not a valid email address", label)
	case "eqfield":
		return "The password and confirmation password do not match"
	case "password":
		if err := auth.CheckPasswordPolicy(fmt.Sprint(fe.Value())); err != nil {
			return strings.ToUpper(err.Error()[:1]) + err.Error()[1:]
		}
	case "oneof":
		switch fe.Field() {
		case "urgencyLevel":
			return "Urgency must be between 1 and 5"
		default:
			return fmt.Sprintf("%s must be one of: %s", label, strings.ReplaceAll(fe.Param(), " ", ", "))
		}
	}
	return fmt.Sprintf("%s is invalid", label)
}

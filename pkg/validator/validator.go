package validator

import (
	"errors"
	"fmt"
	"strings"

	"anoa.com/skillquest/pkg/apperror"
	"github.com/go-playground/validator/v10"
)

// FormatValidationError joins every field message into one line.
func FormatValidationError(err error) string {
	fields := FieldErrors(err)
	if len(fields) == 0 {
		return err.Error()
	}
	messages := make([]string, 0, len(fields))
	for _, msg := range fields {
		messages = append(messages, msg)
	}
	return strings.Join(messages, "; ")
}

// FieldErrors maps json field names to human readable messages.
func FieldErrors(err error) map[string]string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}
	fields := make(map[string]string, len(validationErrors))
	for _, fieldError := range validationErrors {
		fields[fieldName(fieldError)] = getFieldErrorMessage(fieldError)
	}
	return fields
}

// BindingError converts a gin binding error into a 400 AppError with field detail.
func BindingError(err error) error {
	fields := FieldErrors(err)
	if len(fields) == 0 {
		return apperror.Validation("malformed request body", map[string]string{"body": err.Error()})
	}
	return apperror.Validation(FormatValidationError(err), fields)
}

func getFieldErrorMessage(fe validator.FieldError) string {
	field := fieldName(fe)

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "min":
		if fe.Type().String() == "string" {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Type().String() == "string" {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", field, fe.Param())
	case "uuid":
		return fmt.Sprintf("%s must be a valid UUID", field)
	case "timezone":
		return fmt.Sprintf("%s must be an IANA time zone", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func fieldName(fe validator.FieldError) string {
	name := fe.Field()
	fieldNames := map[string]string{
		"Amount":       "amount",
		"Reason":       "reason",
		"ActivityType": "activity_type",
		"Description":  "activity_description",
		"XPEarned":     "xp_earned",
		"FullName":     "full_name",
		"Username":     "username",
		"Email":        "email",
		"Password":     "password",
		"Minutes":      "minutes",
	}
	if mapped, ok := fieldNames[name]; ok {
		return mapped
	}
	return toSnake(name)
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

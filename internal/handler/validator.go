package handler

import (
	"errors"
	"reflect"
	"strings"

	"github.com/Surya12v/project-s/emi-backend/internal/util"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// RequestValidator adapts go-playground/validator to echo.Validator
type RequestValidator struct {
	validate *validator.Validate
}

// NewRequestValidator creates a validator that reports JSON field names and
// understands decimal strings
func NewRequestValidator() *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Use JSON tag names for field names in errors
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("decimal", func(fl validator.FieldLevel) bool {
		_, err := decimal.NewFromString(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("date", func(fl validator.FieldLevel) bool {
		_, err := util.ParseDate(fl.Field().String())
		return err == nil
	})

	return &RequestValidator{validate: v}
}

// Validate implements echo.Validator
func (rv *RequestValidator) Validate(i interface{}) error {
	return rv.validate.Struct(i)
}

// validationErrors converts validator errors into problem-detail entries
func validationErrors(err error) []ValidationError {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return nil
	}

	result := make([]ValidationError, 0, len(fieldErrors))
	for _, e := range fieldErrors {
		result = append(result, ValidationError{
			Field:   e.Field(),
			Message: validationMessage(e),
		})
	}
	return result
}

// validationMessage returns a human-readable validation message
func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "min":
		if e.Type().Kind() == reflect.String {
			return "Must be at least " + e.Param() + " characters"
		}
		return "Must be at least " + e.Param()
	case "max":
		if e.Type().Kind() == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		return "Must be at most " + e.Param()
	case "gte":
		return "Must be greater than or equal to " + e.Param()
	case "lte":
		return "Must be less than or equal to " + e.Param()
	case "oneof":
		return "Must be one of: " + e.Param()
	case "decimal":
		return "Must be a valid decimal number"
	case "date":
		return "Must be a date in YYYY-MM-DD format"
	case "dive":
		return "Invalid element"
	default:
		return "Invalid value"
	}
}

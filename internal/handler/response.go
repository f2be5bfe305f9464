package handler

import (
	"errors"
	"net/http"

	"github.com/Surya12v/project-s/emi-backend/internal/domain"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// ProblemDetails represents an RFC 7807 Problem Details response
type ProblemDetails struct {
	Type     string            `json:"type"`
	Title    string            `json:"title"`
	Status   int               `json:"status"`
	Detail   string            `json:"detail,omitempty"`
	Instance string            `json:"instance,omitempty"`
	Errors   []ValidationError `json:"errors,omitempty"`
}

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error types
const (
	ErrorTypeValidation      = "https://emi.app/errors/validation"
	ErrorTypeNotFound        = "https://emi.app/errors/not-found"
	ErrorTypeUnauthorized    = "https://emi.app/errors/unauthorized"
	ErrorTypeConflict        = "https://emi.app/errors/conflict"
	ErrorTypePaymentRequired = "https://emi.app/errors/payment-verification"
	ErrorTypeInternal        = "https://emi.app/errors/internal"
)

// NewValidationError creates a validation error response
func NewValidationError(c echo.Context, detail string, errors []ValidationError) error {
	return c.JSON(http.StatusBadRequest, ProblemDetails{
		Type:     ErrorTypeValidation,
		Title:    "Validation Error",
		Status:   http.StatusBadRequest,
		Detail:   detail,
		Instance: c.Request().URL.Path,
		Errors:   errors,
	})
}

// NewNotFoundError creates a not found error response
func NewNotFoundError(c echo.Context, detail string) error {
	return c.JSON(http.StatusNotFound, ProblemDetails{
		Type:     ErrorTypeNotFound,
		Title:    "Not Found",
		Status:   http.StatusNotFound,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewUnauthorizedError creates an unauthorized error response
func NewUnauthorizedError(c echo.Context, detail string) error {
	return c.JSON(http.StatusUnauthorized, ProblemDetails{
		Type:     ErrorTypeUnauthorized,
		Title:    "Unauthorized",
		Status:   http.StatusUnauthorized,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewConflictError creates a conflict error response
func NewConflictError(c echo.Context, detail string) error {
	return c.JSON(http.StatusConflict, ProblemDetails{
		Type:     ErrorTypeConflict,
		Title:    "Conflict",
		Status:   http.StatusConflict,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewPaymentRequiredError creates a 402 response for payments that could not be verified
func NewPaymentRequiredError(c echo.Context, detail string) error {
	return c.JSON(http.StatusPaymentRequired, ProblemDetails{
		Type:     ErrorTypePaymentRequired,
		Title:    "Payment Could Not Be Verified",
		Status:   http.StatusPaymentRequired,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewInternalError creates an internal error response
func NewInternalError(c echo.Context, detail string) error {
	return c.JSON(http.StatusInternalServerError, ProblemDetails{
		Type:     ErrorTypeInternal,
		Title:    "Internal Server Error",
		Status:   http.StatusInternalServerError,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// respondError maps domain errors onto problem responses. Anything unrecognised
// is logged and reported as a 500 without leaking its message.
func respondError(c echo.Context, err error, action string) error {
	switch {
	case errors.Is(err, domain.ErrEmiOrderNotFound),
		errors.Is(err, domain.ErrEmiPlanNotFound):
		return NewNotFoundError(c, err.Error())

	case errors.Is(err, domain.ErrPaymentVerification):
		return NewPaymentRequiredError(c, err.Error())

	case errors.Is(err, domain.ErrInvalidState),
		errors.Is(err, domain.ErrConcurrentUpdate),
		errors.Is(err, domain.ErrBatchInProgress):
		return NewConflictError(c, err.Error())

	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidIndex),
		errors.Is(err, domain.ErrInvalidTenure),
		errors.Is(err, domain.ErrInvalidPrincipal),
		errors.Is(err, domain.ErrInvalidRate),
		errors.Is(err, domain.ErrInvalidGracePeriod),
		errors.Is(err, domain.ErrTermsNotOffered),
		errors.Is(err, domain.ErrExternalRefsRequired),
		errors.Is(err, domain.ErrUserIDRequired):
		return NewValidationError(c, err.Error(), nil)
	}

	log.Error().Err(err).
		Str("path", c.Request().URL.Path).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Msg("Failed to " + action)
	return NewInternalError(c, "Failed to "+action)
}

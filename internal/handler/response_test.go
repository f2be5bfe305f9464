package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Surya12v/project-s/emi-backend/internal/domain"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondError_Mapping(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantType   string
	}{
		{domain.ErrInvalidInput, http.StatusBadRequest, ErrorTypeValidation},
		{domain.ErrInvalidIndex, http.StatusBadRequest, ErrorTypeValidation},
		{domain.ErrInvalidTenure, http.StatusBadRequest, ErrorTypeValidation},
		{domain.ErrInvalidPrincipal, http.StatusBadRequest, ErrorTypeValidation},
		{domain.ErrInvalidRate, http.StatusBadRequest, ErrorTypeValidation},
		{domain.ErrTermsNotOffered, http.StatusBadRequest, ErrorTypeValidation},
		{domain.ErrEmiOrderNotFound, http.StatusNotFound, ErrorTypeNotFound},
		{domain.ErrEmiPlanNotFound, http.StatusNotFound, ErrorTypeNotFound},
		{domain.ErrInvalidState, http.StatusConflict, ErrorTypeConflict},
		{domain.ErrConcurrentUpdate, http.StatusConflict, ErrorTypeConflict},
		{domain.ErrBatchInProgress, http.StatusConflict, ErrorTypeConflict},
		{fmt.Errorf("%w: amount short", domain.ErrPaymentVerification), http.StatusPaymentRequired, ErrorTypePaymentRequired},
		{fmt.Errorf("%w: %w", domain.ErrPaymentVerification, domain.ErrPaymentReused), http.StatusPaymentRequired, ErrorTypePaymentRequired},
		{errors.New("connection reset by peer"), http.StatusInternalServerError, ErrorTypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/emi-orders", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			require.NoError(t, respondError(c, tt.err, "do something"))
			assert.Equal(t, tt.wantStatus, rec.Code)

			problem := decodeProblem(t, rec)
			assert.Equal(t, tt.wantType, problem.Type)
			assert.Equal(t, tt.wantStatus, problem.Status)
			assert.Equal(t, "/api/v1/emi-orders", problem.Instance)
		})
	}
}

func TestRespondError_InternalHidesCause(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	require.NoError(t, respondError(c, errors.New("password authentication failed for user emi"), "list EMI orders"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
	assert.Contains(t, rec.Body.String(), "Failed to list EMI orders")
}

func TestRequestValidator_Messages(t *testing.T) {
	type sample struct {
		Amount string `json:"amount" validate:"required,decimal"`
		Date   string `json:"date" validate:"omitempty,date"`
		Source string `json:"source" validate:"omitempty,oneof=manual checkout"`
		Count  int    `json:"count" validate:"gte=1"`
	}

	v := NewRequestValidator()

	require.NoError(t, v.Validate(&sample{Amount: "10.50", Date: "2024-02-29", Source: "manual", Count: 1}))

	err := v.Validate(&sample{Amount: "ten", Date: "2024-02-30", Source: "cash"})
	require.Error(t, err)

	errs := validationErrors(err)
	require.Len(t, errs, 4)
	assert.Equal(t, ValidationError{Field: "amount", Message: "Must be a valid decimal number"}, errs[0])
	assert.Equal(t, ValidationError{Field: "date", Message: "Must be a date in YYYY-MM-DD format"}, errs[1])
	assert.Equal(t, ValidationError{Field: "source", Message: "Must be one of: manual checkout"}, errs[2])
	assert.Equal(t, ValidationError{Field: "count", Message: "Must be greater than or equal to 1"}, errs[3])

	assert.Nil(t, validationErrors(errors.New("not a validation error")))
}

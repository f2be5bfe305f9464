package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is the generic validation failure
var ErrInvalidInput = errors.New("invalid input")

// EMI engine errors
var (
	ErrEmiOrderNotFound     = errors.New("emi order not found")
	ErrEmiPlanNotFound      = errors.New("emi plan not found")
	ErrInvalidPrincipal     = errors.New("principal must be positive")
	ErrInvalidTenure        = errors.New("tenure must be at least 1 month")
	ErrInvalidRate          = errors.New("annual interest rate must not be negative")
	ErrInvalidGracePeriod   = errors.New("grace period must not be negative")
	ErrInvalidIndex         = errors.New("installment index out of range")
	ErrTermsNotOffered      = errors.New("emi terms are not offered for this product")
	ErrAlreadyPaid          = errors.New("installment already paid")
	ErrInvalidState         = errors.New("emi order is not in a valid state for this operation")
	ErrPaymentVerification  = errors.New("payment could not be verified")
	ErrGatewayCharge        = errors.New("gateway charge failed")
	ErrConcurrentUpdate     = errors.New("emi order was modified concurrently")
	ErrDuplicatePayment     = errors.New("installment already has a successful payment")
	ErrPaymentReused        = fmt.Errorf("%w: payment already settles another installment", ErrDuplicatePayment)
	ErrBatchInProgress      = errors.New("emi batch already running")
	ErrUserIDRequired       = errors.New("user ID is required")
	ErrExternalRefsRequired = errors.New("order and product references are required")
)

// Validation constants
const (
	MaxTenureMonths        = 120
	DefaultGracePeriodDays = 5
)

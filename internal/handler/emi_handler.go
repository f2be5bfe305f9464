package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/Surya12v/project-s/emi-backend/internal/domain"
	"github.com/Surya12v/project-s/emi-backend/internal/middleware"
	"github.com/Surya12v/project-s/emi-backend/internal/service"
	"github.com/Surya12v/project-s/emi-backend/internal/util"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// EmiHandler handles customer-facing EMI requests
type EmiHandler struct {
	emiService            *service.EmiService
	reconciliationService *service.ReconciliationService
}

// NewEmiHandler creates a new EmiHandler
func NewEmiHandler(emiService *service.EmiService, reconciliationService *service.ReconciliationService) *EmiHandler {
	return &EmiHandler{
		emiService:            emiService,
		reconciliationService: reconciliationService,
	}
}

// QuoteRequest represents the EMI preview request body
type QuoteRequest struct {
	Principal          string `json:"principal" validate:"required,decimal"`
	TenureMonths       int32  `json:"tenureMonths" validate:"gte=1,lte=120"`
	AnnualInterestRate string `json:"annualInterestRate" validate:"required,decimal"`
	StartDate          string `json:"startDate,omitempty" validate:"omitempty,date"`
}

// QuoteResponse represents a computed, unsaved schedule
type QuoteResponse struct {
	MonthlyAmount string                `json:"monthlyAmount"`
	TotalAmount   string                `json:"totalAmount"`
	Schedule      []InstallmentResponse `json:"schedule"`
}

// PayInstallmentRequest carries the checkout result for one installment
type PayInstallmentRequest struct {
	PaymentID      string `json:"paymentId" validate:"required"`
	GatewayOrderID string `json:"gatewayOrderId" validate:"required"`
	Signature      string `json:"signature" validate:"required"`
	Amount         string `json:"amount" validate:"required,decimal"`
	Method         string `json:"method,omitempty"`
}

// SetAutoPayRequest sets or clears the stored payment instrument
type SetAutoPayRequest struct {
	PaymentMethodToken *string `json:"paymentMethodToken"`
}

// Quote handles POST /api/v1/emi/quote
// @Summary Preview an EMI schedule
// @Description Compute the monthly installment, total and schedule without saving anything
// @Tags emi
// @Accept json
// @Produce json
// @Param request body QuoteRequest true "Quote terms"
// @Success 200 {object} QuoteResponse
// @Failure 400 {object} ProblemDetails
// @Router /emi/quote [post]
func (h *EmiHandler) Quote(c echo.Context) error {
	var req QuoteRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	principal := decimal.RequireFromString(req.Principal)
	rate := decimal.RequireFromString(req.AnnualInterestRate)

	var startDate *time.Time
	if req.StartDate != "" {
		d, _ := util.ParseDate(req.StartDate)
		startDate = &d
	}

	result, err := h.emiService.Quote(principal, req.TenureMonths, rate, startDate)
	if err != nil {
		return respondError(c, err, "compute EMI quote")
	}

	return c.JSON(http.StatusOK, QuoteResponse{
		MonthlyAmount: result.MonthlyAmount.StringFixed(2),
		TotalAmount:   result.TotalAmount.StringFixed(2),
		Schedule:      toInstallmentResponses(result.Installments),
	})
}

// ListEmiOrders handles GET /api/v1/emi-orders
// @Summary List my EMI orders
// @Description Get the authenticated user's EMI orders, newest first
// @Tags emi-orders
// @Produce json
// @Security BearerAuth
// @Success 200 {array} EmiOrderResponse
// @Failure 401 {object} ProblemDetails
// @Failure 500 {object} ProblemDetails
// @Router /emi-orders [get]
func (h *EmiHandler) ListEmiOrders(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	orders, err := h.emiService.ListEmiOrdersForUser(c.Request().Context(), userID)
	if err != nil {
		return respondError(c, err, "list EMI orders")
	}

	return c.JSON(http.StatusOK, toEmiOrderResponses(orders))
}

// GetEmiOrder handles GET /api/v1/emi-orders/:id
// @Summary Get an EMI order
// @Tags emi-orders
// @Produce json
// @Security BearerAuth
// @Param id path string true "EMI order ID"
// @Success 200 {object} EmiOrderResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /emi-orders/{id} [get]
func (h *EmiHandler) GetEmiOrder(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return invalidEmiOrderID(c)
	}

	order, err := h.emiService.GetEmiOrderForUser(c.Request().Context(), userID, id)
	if err != nil {
		return respondError(c, err, "get EMI order")
	}

	return c.JSON(http.StatusOK, toEmiOrderResponse(order))
}

// GetPaymentHistory handles GET /api/v1/emi-orders/:id/payments
// @Summary List payment attempts for an EMI order
// @Description Ledger entries, successful and failed, oldest first
// @Tags emi-orders
// @Produce json
// @Security BearerAuth
// @Param id path string true "EMI order ID"
// @Success 200 {array} PaymentRecordResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /emi-orders/{id}/payments [get]
func (h *EmiHandler) GetPaymentHistory(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return invalidEmiOrderID(c)
	}

	records, err := h.emiService.GetPaymentHistory(c.Request().Context(), userID, id)
	if err != nil {
		return respondError(c, err, "get payment history")
	}

	response := make([]PaymentRecordResponse, len(records))
	for i, record := range records {
		response[i] = toPaymentRecordResponse(record)
	}
	return c.JSON(http.StatusOK, response)
}

// PayInstallment handles POST /api/v1/emi-orders/:id/installments/:index/pay
// @Summary Pay an installment
// @Description Verify a checkout confirmation and settle the installment. Repeating a settled payment is a no-op.
// @Tags emi-orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "EMI order ID"
// @Param index path int true "Zero-based installment index"
// @Param request body PayInstallmentRequest true "Checkout confirmation"
// @Success 200 {object} PaymentResultResponse
// @Failure 400 {object} ProblemDetails
// @Failure 402 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Failure 429 {object} ProblemDetails
// @Router /emi-orders/{id}/installments/{index}/pay [post]
func (h *EmiHandler) PayInstallment(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return invalidEmiOrderID(c)
	}
	index, err := parseInstallmentIndex(c)
	if err != nil {
		return invalidInstallmentIndex(c)
	}

	var req PayInstallmentRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	confirmation := domain.GatewayConfirmation{
		PaymentID:      strings.TrimSpace(req.PaymentID),
		GatewayOrderID: strings.TrimSpace(req.GatewayOrderID),
		Signature:      strings.TrimSpace(req.Signature),
		Amount:         decimal.RequireFromString(req.Amount),
		Method:         req.Method,
	}

	result, err := h.reconciliationService.PayInstallment(c.Request().Context(), userID, id, index, confirmation)
	if err != nil {
		return respondError(c, err, "pay installment")
	}

	return c.JSON(http.StatusOK, toPaymentResultResponse(result))
}

// SetAutoPay handles PUT /api/v1/emi-orders/:id/auto-pay
// @Summary Set or clear auto-pay
// @Description Attach a stored payment instrument token, or clear it with null or an empty string
// @Tags emi-orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "EMI order ID"
// @Param request body SetAutoPayRequest true "Instrument token"
// @Success 200 {object} EmiOrderResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Router /emi-orders/{id}/auto-pay [put]
func (h *EmiHandler) SetAutoPay(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return invalidEmiOrderID(c)
	}

	var req SetAutoPayRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	order, err := h.emiService.SetAutoPay(c.Request().Context(), userID, id, req.PaymentMethodToken)
	if err != nil {
		return respondError(c, err, "update auto-pay")
	}

	return c.JSON(http.StatusOK, toEmiOrderResponse(order))
}

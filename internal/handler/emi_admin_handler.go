package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/Surya12v/project-s/emi-backend/internal/domain"
	"github.com/Surya12v/project-s/emi-backend/internal/service"
	"github.com/Surya12v/project-s/emi-backend/internal/util"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// BatchRunner runs the daily EMI batch for a calendar date
type BatchRunner interface {
	RunDailyBatch(ctx context.Context, today time.Time) (*service.BatchSummary, error)
}

// EmiAdminHandler handles back-office and order placement requests
type EmiAdminHandler struct {
	emiService            *service.EmiService
	reconciliationService *service.ReconciliationService
	planService           *service.EmiPlanService
	batch                 BatchRunner
}

// NewEmiAdminHandler creates a new EmiAdminHandler
func NewEmiAdminHandler(emiService *service.EmiService, reconciliationService *service.ReconciliationService, planService *service.EmiPlanService, batch BatchRunner) *EmiAdminHandler {
	return &EmiAdminHandler{
		emiService:            emiService,
		reconciliationService: reconciliationService,
		planService:           planService,
		batch:                 batch,
	}
}

// CreateEmiOrderRequest represents the create EMI order request body
type CreateEmiOrderRequest struct {
	UserID                 string  `json:"userId" validate:"required"`
	OrderID                string  `json:"orderId" validate:"required"`
	ProductID              string  `json:"productId" validate:"required"`
	Principal              string  `json:"principal" validate:"required,decimal"`
	TenureMonths           int32   `json:"tenureMonths" validate:"gte=1,lte=120"`
	AnnualInterestRate     string  `json:"annualInterestRate" validate:"required,decimal"`
	AutoPaymentMethodToken *string `json:"autoPaymentMethodToken,omitempty"`
	StartDate              string  `json:"startDate,omitempty" validate:"omitempty,date"`
	GracePeriodDays        *int    `json:"gracePeriodDays,omitempty" validate:"omitempty,gte=0,lte=60"`
}

// AdminPaymentRequest records a payment confirmed outside the checkout flow
type AdminPaymentRequest struct {
	PaymentID      string `json:"paymentId" validate:"required"`
	GatewayOrderID string `json:"gatewayOrderId,omitempty"`
	Signature      string `json:"signature,omitempty"`
	Amount         string `json:"amount" validate:"required,decimal"`
	Method         string `json:"method,omitempty"`
	Source         string `json:"source,omitempty" validate:"omitempty,oneof=manual checkout auto_charge"`
}

// RunBatchRequest optionally pins the batch to a calendar date
type RunBatchRequest struct {
	Date string `json:"date,omitempty" validate:"omitempty,date"`
}

// EmiPlanOptionRequest is one offered (tenure, rate) pair
type EmiPlanOptionRequest struct {
	TenureMonths       int32  `json:"tenureMonths" validate:"gte=1,lte=120"`
	AnnualInterestRate string `json:"annualInterestRate" validate:"required,decimal"`
}

// SetEmiPlanRequest replaces a product's offered options
type SetEmiPlanRequest struct {
	Options []EmiPlanOptionRequest `json:"options" validate:"dive"`
}

// CreateEmiOrder handles POST /api/v1/admin/emi-orders
// @Summary Create an EMI order
// @Description Called by order placement once a customer picks EMI terms. The full schedule is generated up front.
// @Tags admin
// @Accept json
// @Produce json
// @Security AdminKey
// @Param request body CreateEmiOrderRequest true "Order terms"
// @Success 201 {object} EmiOrderResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Router /admin/emi-orders [post]
func (h *EmiAdminHandler) CreateEmiOrder(c echo.Context) error {
	var req CreateEmiOrderRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	input := service.CreateEmiOrderInput{
		UserID:                 req.UserID,
		OrderID:                req.OrderID,
		ProductID:              req.ProductID,
		Principal:              decimal.RequireFromString(req.Principal),
		TenureMonths:           req.TenureMonths,
		AnnualInterestRate:     decimal.RequireFromString(req.AnnualInterestRate),
		AutoPaymentMethodToken: req.AutoPaymentMethodToken,
		GracePeriodDays:        req.GracePeriodDays,
	}
	if req.StartDate != "" {
		startDate, _ := util.ParseDate(req.StartDate)
		input.StartDate = &startDate
	}

	order, err := h.emiService.CreateEmiOrder(c.Request().Context(), input)
	if err != nil {
		return respondError(c, err, "create EMI order")
	}

	return c.JSON(http.StatusCreated, toEmiOrderResponse(order))
}

// ListEmiOrders handles GET /api/v1/admin/emi-orders
// @Summary List EMI orders by status
// @Tags admin
// @Produce json
// @Security AdminKey
// @Param status query string false "ONGOING, COMPLETED or CLOSED" default(ONGOING)
// @Success 200 {array} EmiOrderResponse
// @Failure 400 {object} ProblemDetails
// @Router /admin/emi-orders [get]
func (h *EmiAdminHandler) ListEmiOrders(c echo.Context) error {
	status := domain.EmiOrderStatus(strings.ToUpper(strings.TrimSpace(c.QueryParam("status"))))
	if status == "" {
		status = domain.EmiOrderStatusOngoing
	}
	if !status.IsValid() {
		return NewValidationError(c, "Invalid status", []ValidationError{
			{Field: "status", Message: "Must be one of: ONGOING COMPLETED CLOSED"},
		})
	}

	orders, err := h.emiService.ListEmiOrdersByStatus(c.Request().Context(), status)
	if err != nil {
		return respondError(c, err, "list EMI orders")
	}

	return c.JSON(http.StatusOK, toEmiOrderResponses(orders))
}

// GetEmiOrder handles GET /api/v1/admin/emi-orders/:id
// @Summary Get any EMI order
// @Tags admin
// @Produce json
// @Security AdminKey
// @Param id path string true "EMI order ID"
// @Success 200 {object} EmiOrderResponse
// @Failure 404 {object} ProblemDetails
// @Router /admin/emi-orders/{id} [get]
func (h *EmiAdminHandler) GetEmiOrder(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return invalidEmiOrderID(c)
	}

	order, err := h.emiService.GetEmiOrder(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err, "get EMI order")
	}

	return c.JSON(http.StatusOK, toEmiOrderResponse(order))
}

// CancelEmiOrder handles POST /api/v1/admin/emi-orders/:id/cancel
// @Summary Cancel an EMI order
// @Description Closes an ONGOING order. Installment statuses are left untouched.
// @Tags admin
// @Produce json
// @Security AdminKey
// @Param id path string true "EMI order ID"
// @Success 200 {object} EmiOrderResponse
// @Failure 404 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Router /admin/emi-orders/{id}/cancel [post]
func (h *EmiAdminHandler) CancelEmiOrder(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return invalidEmiOrderID(c)
	}

	order, err := h.emiService.CancelEmiOrder(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err, "cancel EMI order")
	}

	return c.JSON(http.StatusOK, toEmiOrderResponse(order))
}

// RecordPayment handles POST /api/v1/admin/emi-orders/:id/installments/:index/pay
// @Summary Record a payment on behalf of a customer
// @Tags admin
// @Accept json
// @Produce json
// @Security AdminKey
// @Param id path string true "EMI order ID"
// @Param index path int true "Zero-based installment index"
// @Param request body AdminPaymentRequest true "Payment evidence"
// @Success 200 {object} PaymentResultResponse
// @Failure 400 {object} ProblemDetails
// @Failure 402 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Router /admin/emi-orders/{id}/installments/{index}/pay [post]
func (h *EmiAdminHandler) RecordPayment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return invalidEmiOrderID(c)
	}
	index, err := parseInstallmentIndex(c)
	if err != nil {
		return invalidInstallmentIndex(c)
	}

	var req AdminPaymentRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	confirmation := domain.GatewayConfirmation{
		PaymentID:      strings.TrimSpace(req.PaymentID),
		GatewayOrderID: strings.TrimSpace(req.GatewayOrderID),
		Signature:      strings.TrimSpace(req.Signature),
		Amount:         decimal.RequireFromString(req.Amount),
		Method:         req.Method,
		Source:         domain.ConfirmationSource(req.Source),
	}

	result, err := h.reconciliationService.AdminRecordPayment(c.Request().Context(), id, index, confirmation)
	if err != nil {
		return respondError(c, err, "record payment")
	}

	return c.JSON(http.StatusOK, toPaymentResultResponse(result))
}

// RunBatch handles POST /api/v1/admin/emi-batch/run
// @Summary Run the daily EMI batch now
// @Description Auto-charges due installments and marks overdue ones late. Defaults to today.
// @Tags admin
// @Accept json
// @Produce json
// @Security AdminKey
// @Param request body RunBatchRequest false "Run date"
// @Success 200 {object} service.BatchSummary
// @Failure 409 {object} ProblemDetails
// @Router /admin/emi-batch/run [post]
func (h *EmiAdminHandler) RunBatch(c echo.Context) error {
	var req RunBatchRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	runDate := time.Now().UTC()
	if req.Date != "" {
		runDate, _ = util.ParseDate(req.Date)
	}

	summary, err := h.batch.RunDailyBatch(c.Request().Context(), runDate)
	if err != nil {
		return respondError(c, err, "run EMI batch")
	}

	log.Info().
		Str("run_date", summary.RunDate).
		Int("failed", summary.Failed).
		Msg("EMI batch triggered by admin")

	return c.JSON(http.StatusOK, summary)
}

// SetEmiPlan handles PUT /api/v1/admin/products/:productId/emi-plan
// @Summary Set a product's EMI plan
// @Description Replaces the offered options. Existing orders keep the terms they were created with.
// @Tags admin
// @Accept json
// @Produce json
// @Security AdminKey
// @Param productId path string true "Product ID"
// @Param request body SetEmiPlanRequest true "Offered options"
// @Success 200 {object} EmiPlanResponse
// @Failure 400 {object} ProblemDetails
// @Router /admin/products/{productId}/emi-plan [put]
func (h *EmiAdminHandler) SetEmiPlan(c echo.Context) error {
	var req SetEmiPlanRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	options := make([]domain.EmiPlanOption, len(req.Options))
	for i, opt := range req.Options {
		options[i] = domain.EmiPlanOption{
			TenureMonths:       opt.TenureMonths,
			AnnualInterestRate: decimal.RequireFromString(opt.AnnualInterestRate),
		}
	}

	plan, err := h.planService.SetPlan(c.Request().Context(), c.Param("productId"), options)
	if err != nil {
		return respondError(c, err, "save EMI plan")
	}

	return c.JSON(http.StatusOK, toEmiPlanResponse(plan))
}
